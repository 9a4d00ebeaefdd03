// Package optimizer searches model parameters that minimise the calibration
// objective. It sits outside the pricing core: the core only defines the loss.
package optimizer

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/optimize"

	"github.com/meenmo/shortrate/calibration"
	"github.com/meenmo/shortrate/termstructure"
)

// Penalty is the loss reported for parameters the model rejects or cannot
// price with. It keeps the simplex away from invalid regions.
const Penalty = 1e10

// ErrBadStart is returned when the initial point cannot be evaluated.
var ErrBadStart = errors.New("initial parameters cannot be evaluated")

// Transform maps one searched coordinate to one model parameter and back.
type Transform struct {
	// Forward maps the unconstrained search value to the model parameter.
	Forward func(x float64) float64
	// Inverse maps a model parameter to the search value.
	Inverse func(p float64) float64
}

// Identity searches the parameter as is.
var Identity = Transform{
	Forward: func(x float64) float64 { return x },
	Inverse: func(p float64) float64 { return p },
}

// Positive searches log(p), so every trial is strictly positive.
var Positive = Transform{
	Forward: math.Exp,
	Inverse: math.Log,
}

// Settings bounds the search.
type Settings struct {
	// Transforms has one entry per parameter; nil means Identity for all.
	Transforms []Transform
	// MaxEvaluations caps objective evaluations; 0 means no cap.
	MaxEvaluations int
	// Tolerance is the absolute loss improvement below which the search
	// is considered stalled.
	Tolerance float64
	// StallIterations is the number of stalled iterations before stopping.
	StallIterations int
}

// DefaultSettings suits Hull-White [a, sigma] fits on a handful of pillars.
var DefaultSettings = Settings{
	Transforms:      []Transform{Positive, Positive},
	MaxEvaluations:  2000,
	Tolerance:       1e-14,
	StallIterations: 50,
}

// Result is the outcome of Fit.
type Result struct {
	Params      []float64
	SSE         float64
	InitialSSE  float64
	Evaluations int
	Iterations  int
	Status      string
}

// Fit minimises calibration.Objective over the parameter vector starting at
// x0 with Nelder-Mead.
func Fit(market *termstructure.TermStructure, factory calibration.Factory, x0 []float64, s Settings) (Result, error) {
	transforms := s.Transforms
	if transforms == nil {
		transforms = make([]Transform, len(x0))
		for i := range transforms {
			transforms[i] = Identity
		}
	}
	if len(transforms) != len(x0) {
		return Result{}, fmt.Errorf("Fit: %d transforms for %d params", len(transforms), len(x0))
	}

	initialSSE, err := calibration.Objective(x0, market, factory)
	if err != nil {
		return Result{}, fmt.Errorf("Fit: %w: %w", ErrBadStart, err)
	}

	toParams := func(x []float64) []float64 {
		p := make([]float64, len(x))
		for i, v := range x {
			p[i] = transforms[i].Forward(v)
		}
		return p
	}

	start := make([]float64, len(x0))
	for i, p := range x0 {
		start[i] = transforms[i].Inverse(p)
		if math.IsNaN(start[i]) || math.IsInf(start[i], 0) {
			return Result{}, fmt.Errorf("Fit: %w: param %d = %v outside transform domain", ErrBadStart, i, p)
		}
	}

	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			sse, err := calibration.Objective(toParams(x), market, factory)
			if err != nil || math.IsNaN(sse) || math.IsInf(sse, 0) {
				return Penalty
			}
			return sse
		},
	}

	settings := &optimize.Settings{
		FuncEvaluations: s.MaxEvaluations,
		Converger: &optimize.FunctionConverge{
			Absolute:   s.Tolerance,
			Iterations: s.StallIterations,
		},
	}

	res, err := optimize.Minimize(problem, start, settings, &optimize.NelderMead{})
	if res == nil {
		return Result{}, fmt.Errorf("Fit: %w", err)
	}

	out := Result{
		Params:      toParams(res.X),
		SSE:         res.F,
		InitialSSE:  initialSSE,
		Evaluations: res.Stats.FuncEvaluations,
		Iterations:  res.Stats.MajorIterations,
		Status:      res.Status.String(),
	}
	// Hitting the evaluation cap still leaves a usable best point.
	if err != nil && res.Status != optimize.FunctionEvaluationLimit {
		return out, fmt.Errorf("Fit: %w", err)
	}
	if out.SSE >= Penalty {
		return out, fmt.Errorf("Fit: no admissible parameters found")
	}
	return out, nil
}
