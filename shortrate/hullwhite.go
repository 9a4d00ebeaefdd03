package shortrate

import (
	"fmt"
	"math"
)

// HullWhite is the Hull-White (extended Vasicek) model,
// dr = (θ(t) - a·r)dt + σ dW.
//
// At t=0 the bond price is P(0,T) = A(0,T)·exp(-B(0,T)·r0) with
//
//	B(0,T)     = (1 - e^{-aT}) / a
//	ln A(0,T)  = ln P_mkt(0,T) + B(0,T)·f(0,0) - σ²/(4a)·(1 - e^{-2aT})·B(0,T)²
//
// P_mkt must be an exact entry of the term structure. f(0,0) is a forward
// difference on the term structure, falling back to the last entry's average
// yield when the difference points are missing (see
// termstructure.TermStructure.InstantaneousForward).
type HullWhite struct {
	Base
	a     float64
	sigma float64
}

// NewHullWhite validates a > 0 and sigma >= 0.
func NewHullWhite(r0, a, sigma float64, opts ...Option) (*HullWhite, error) {
	base, _, err := newBase(r0, opts)
	if err != nil {
		return nil, fmt.Errorf("NewHullWhite: %w", err)
	}
	if err := checkMeanReversion(a); err != nil {
		return nil, fmt.Errorf("NewHullWhite: %w", err)
	}
	if err := checkSigma(sigma); err != nil {
		return nil, fmt.Errorf("NewHullWhite: %w", err)
	}
	return &HullWhite{Base: base, a: a, sigma: sigma}, nil
}

func (m *HullWhite) Kind() Kind {
	return KindHullWhite
}

func (m *HullWhite) A() float64 {
	return m.a
}

func (m *HullWhite) Sigma() float64 {
	return m.sigma
}

// B is the bond price sensitivity to the short rate, (1 - e^{-aT}) / a.
func (m *HullWhite) B(T float64) float64 {
	return (1.0 - math.Exp(-m.a*T)) / m.a
}

// ConvexityTerm is σ²/(4a)·(1 - e^{-2aT})·B(0,T)².
func (m *HullWhite) ConvexityTerm(T float64) float64 {
	b := m.B(T)
	return (m.sigma * m.sigma / (4.0 * m.a)) * (1.0 - math.Exp(-2.0*m.a*T)) * b * b
}

// ForwardRate returns the market instantaneous forward f(0,t) and whether it
// came from an exact finite difference rather than the last-entry fallback.
func (m *HullWhite) ForwardRate(t float64) (float64, bool) {
	return m.ts.InstantaneousForward(t, m.numerics.ForwardStep)
}

// LogA returns ln A(0,T). It fails with ErrMissingMarketData when the term
// structure has no exact entry at T.
func (m *HullWhite) LogA(T float64) (float64, error) {
	pMarket, err := m.marketPrice(T)
	if err != nil {
		return 0, err
	}
	f0, _ := m.ForwardRate(0)
	return math.Log(pMarket) + m.B(T)*f0 - m.ConvexityTerm(T), nil
}

func (m *HullWhite) PriceZeroCouponBond(T float64) (float64, error) {
	one, err := m.shortCircuit(T)
	if err != nil {
		return 0, fmt.Errorf("HullWhite.PriceZeroCouponBond: %w", err)
	}
	if one {
		return 1.0, nil
	}

	logA, err := m.LogA(T)
	if err != nil {
		return 0, fmt.Errorf("HullWhite.PriceZeroCouponBond: %w", err)
	}
	return math.Exp(logA - m.B(T)*m.r0), nil
}
