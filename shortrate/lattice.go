package shortrate

import "fmt"

// BDT is the Black-Derman-Toy model,
// d(ln r) = (θ(t) - (σ'(t)/σ(t))·ln r)dt + σ(t)dW.
//
// It is lognormal and has no closed-form bond price; pricing needs a
// binomial tree calibrated to the yield and volatility curves.
type BDT struct {
	Base
	sigma float64
}

// NewBDT validates sigma >= 0.
func NewBDT(r0, sigma float64, opts ...Option) (*BDT, error) {
	base, _, err := newBase(r0, opts)
	if err != nil {
		return nil, fmt.Errorf("NewBDT: %w", err)
	}
	if err := checkSigma(sigma); err != nil {
		return nil, fmt.Errorf("NewBDT: %w", err)
	}
	return &BDT{Base: base, sigma: sigma}, nil
}

func (m *BDT) Kind() Kind {
	return KindBDT
}

func (m *BDT) Sigma() float64 {
	return m.sigma
}

// PriceZeroCouponBond always fails with a *NotImplementedError.
func (m *BDT) PriceZeroCouponBond(T float64) (float64, error) {
	return 0, &NotImplementedError{Model: KindBDT, Method: "binomial tree"}
}

// BlackKarasinski is the Black-Karasinski model,
// d(ln r) = (θ(t) - a·ln r)dt + σ dW.
//
// Like BDT it has no analytical bond price; θ(t) is fitted step by step on a
// trinomial tree.
type BlackKarasinski struct {
	Base
	a     float64
	sigma float64
}

// NewBlackKarasinski validates a > 0 and sigma >= 0.
func NewBlackKarasinski(r0, a, sigma float64, opts ...Option) (*BlackKarasinski, error) {
	base, _, err := newBase(r0, opts)
	if err != nil {
		return nil, fmt.Errorf("NewBlackKarasinski: %w", err)
	}
	if err := checkMeanReversion(a); err != nil {
		return nil, fmt.Errorf("NewBlackKarasinski: %w", err)
	}
	if err := checkSigma(sigma); err != nil {
		return nil, fmt.Errorf("NewBlackKarasinski: %w", err)
	}
	return &BlackKarasinski{Base: base, a: a, sigma: sigma}, nil
}

func (m *BlackKarasinski) Kind() Kind {
	return KindBlackKarasinski
}

func (m *BlackKarasinski) A() float64 {
	return m.a
}

func (m *BlackKarasinski) Sigma() float64 {
	return m.sigma
}

// PriceZeroCouponBond always fails with a *NotImplementedError.
func (m *BlackKarasinski) PriceZeroCouponBond(T float64) (float64, error) {
	return 0, &NotImplementedError{Model: KindBlackKarasinski, Method: "trinomial tree"}
}
