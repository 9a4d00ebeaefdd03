package shortrate

import (
	"fmt"
	"math"
)

// HoLee is the Ho-Lee model, dr = θ(t)dt + σ dW.
//
// By default it prices with the dynamics-only formula
//
//	P(0,T) = exp(-r0·T + 0.5·σ²·T²)
//
// which ignores the attached term structure, so its prices do not match the
// market curve. WithMarketFit selects the fitted formula
//
//	P(0,T) = P_mkt(0,T)·exp(-T·(r0 - f(0,0)))
//
// which needs an exact term structure entry at T.
type HoLee struct {
	Base
	sigma  float64
	fitted bool
}

// NewHoLee validates sigma >= 0.
func NewHoLee(r0, sigma float64, opts ...Option) (*HoLee, error) {
	base, o, err := newBase(r0, opts)
	if err != nil {
		return nil, fmt.Errorf("NewHoLee: %w", err)
	}
	if err := checkSigma(sigma); err != nil {
		return nil, fmt.Errorf("NewHoLee: %w", err)
	}
	return &HoLee{Base: base, sigma: sigma, fitted: o.marketFit}, nil
}

func (m *HoLee) Kind() Kind {
	return KindHoLee
}

func (m *HoLee) Sigma() float64 {
	return m.sigma
}

// Fitted reports whether the market-fitted formula is in use.
func (m *HoLee) Fitted() bool {
	return m.fitted
}

func (m *HoLee) PriceZeroCouponBond(T float64) (float64, error) {
	one, err := m.shortCircuit(T)
	if err != nil {
		return 0, fmt.Errorf("HoLee.PriceZeroCouponBond: %w", err)
	}
	if one {
		return 1.0, nil
	}

	if !m.fitted {
		return math.Exp(-m.r0*T + 0.5*m.sigma*m.sigma*T*T), nil
	}

	pMarket, err := m.marketPrice(T)
	if err != nil {
		return 0, fmt.Errorf("HoLee.PriceZeroCouponBond: %w", err)
	}
	f0, _ := m.ts.InstantaneousForward(0, m.numerics.ForwardStep)
	return pMarket * math.Exp(-T*(m.r0-f0)), nil
}
