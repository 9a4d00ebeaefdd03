package calibration

import (
	"context"
	"errors"
	"math"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/meenmo/shortrate/config"
	"github.com/meenmo/shortrate/termstructure"
)

// Trial is one evaluated parameter vector.
type Trial struct {
	Params []float64
	SSE    float64
	Err    error
}

// Sweep evaluates Objective for every parameter vector in grid using up to
// workers goroutines (GOMAXPROCS when workers <= 0). Every trial builds its
// own model over the shared, read-only market structure.
//
// Per-trial errors are recorded in Trial.Err; only context cancellation
// aborts the sweep. Results keep the order of grid.
func Sweep(ctx context.Context, market *termstructure.TermStructure, factory Factory, grid [][]float64, workers int) ([]Trial, error) {
	if market.Len() == 0 {
		return nil, ErrNoMarketData
	}
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	threshold := config.GetNumerics().HelperThreshold

	trials := make([]Trial, len(grid))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, params := range grid {
		i, params := i, params
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			p := append([]float64(nil), params...)
			sse, err := objective(p, market, factory, threshold)
			trials[i] = Trial{Params: p, SSE: sse, Err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return trials, nil
}

// ErrNoSuccessfulTrial is returned by Best when every trial failed.
var ErrNoSuccessfulTrial = errors.New("no successful trial")

// Best returns the successful trial with the lowest SSE.
func Best(trials []Trial) (Trial, error) {
	best := Trial{SSE: math.Inf(1)}
	found := false
	for _, tr := range trials {
		if tr.Err != nil || math.IsInf(tr.SSE, 0) {
			continue
		}
		if !found || tr.SSE < best.SSE {
			best = tr
			found = true
		}
	}
	if !found {
		return Trial{}, ErrNoSuccessfulTrial
	}
	return best, nil
}

// Grid returns the cartesian product of axes, first axis varying slowest.
func Grid(axes ...[]float64) [][]float64 {
	if len(axes) == 0 {
		return nil
	}
	out := [][]float64{{}}
	for _, axis := range axes {
		next := make([][]float64, 0, len(out)*len(axis))
		for _, prefix := range out {
			for _, v := range axis {
				row := make([]float64, len(prefix), len(prefix)+1)
				copy(row, prefix)
				next = append(next, append(row, v))
			}
		}
		out = next
	}
	return out
}
