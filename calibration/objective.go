// Package calibration provides the loss a parameter optimizer minimises when
// fitting a short-rate model to a market term structure. It does not search;
// see package optimizer for a caller-side minimiser.
package calibration

import (
	"errors"
	"fmt"
	"math"

	"github.com/meenmo/shortrate/config"
	"github.com/meenmo/shortrate/shortrate"
	"github.com/meenmo/shortrate/termstructure"
)

// ErrNoMarketData is returned when the market structure has nothing to fit.
var ErrNoMarketData = errors.New("no market prices to calibrate against")

// Factory builds a model from a trial parameter vector.
type Factory func(params []float64) (shortrate.Model, error)

// HullWhiteFactory returns a factory for params [a, sigma].
func HullWhiteFactory(r0 float64, opts ...shortrate.Option) Factory {
	return func(params []float64) (shortrate.Model, error) {
		return shortrate.New(shortrate.KindHullWhite, r0, params, opts...)
	}
}

// HoLeeFactory returns a factory for params [sigma].
func HoLeeFactory(r0 float64, opts ...shortrate.Option) Factory {
	return func(params []float64) (shortrate.Model, error) {
		return shortrate.New(shortrate.KindHoLee, r0, params, opts...)
	}
}

// KindFactory returns a factory for any model kind.
func KindFactory(kind shortrate.Kind, r0 float64, opts ...shortrate.Option) Factory {
	return func(params []float64) (shortrate.Model, error) {
		return shortrate.New(kind, r0, params, opts...)
	}
}

// Objective returns the sum of squared pricing errors
//
//	Σ (P_mkt(T) - P_model(T))²
//
// over every maturity in market, skipping forward-difference helpers and
// maturities below the helper threshold. The model is built by factory and
// has market attached; any construction or pricing error is returned.
func Objective(params []float64, market *termstructure.TermStructure, factory Factory) (float64, error) {
	return objective(params, market, factory, config.GetNumerics().HelperThreshold)
}

func objective(params []float64, market *termstructure.TermStructure, factory Factory, threshold float64) (float64, error) {
	if market.Len() == 0 {
		return 0, fmt.Errorf("Objective: %w", ErrNoMarketData)
	}
	model, err := factory(params)
	if err != nil {
		return 0, fmt.Errorf("Objective: params %v: %w", params, err)
	}
	model.SetTermStructure(market)

	sse := 0.0
	for _, T := range market.Maturities() {
		if T < threshold || market.IsHelper(T) {
			continue
		}
		marketPrice, err := market.Price(T)
		if err != nil {
			return 0, fmt.Errorf("Objective: %w", err)
		}
		modelPrice, err := model.PriceZeroCouponBond(T)
		if err != nil {
			return 0, fmt.Errorf("Objective: params %v: %w", params, err)
		}
		diff := marketPrice - modelPrice
		sse += diff * diff
	}
	if math.IsNaN(sse) || math.IsInf(sse, 0) {
		return 0, fmt.Errorf("Objective: params %v: non-finite loss %v", params, sse)
	}
	return sse, nil
}

// Residual is the pricing error at one maturity.
type Residual struct {
	Maturity    float64
	MarketPrice float64
	ModelPrice  float64
	Err         error
}

// Diff is MarketPrice - ModelPrice.
func (r Residual) Diff() float64 {
	return r.MarketPrice - r.ModelPrice
}

// Residuals prices every calibration maturity of market with model, which
// is expected to have market attached already. Per-point errors are kept
// instead of stopping at the first one.
func Residuals(model shortrate.Model, market *termstructure.TermStructure) []Residual {
	threshold := config.GetNumerics().HelperThreshold
	out := make([]Residual, 0, market.Len())
	for _, T := range market.Maturities() {
		if T < threshold || market.IsHelper(T) {
			continue
		}
		marketPrice, _ := market.Price(T)
		modelPrice, err := model.PriceZeroCouponBond(T)
		out = append(out, Residual{Maturity: T, MarketPrice: marketPrice, ModelPrice: modelPrice, Err: err})
	}
	return out
}
