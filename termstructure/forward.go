package termstructure

import (
	"fmt"
	"math"
	"sort"
)

// InstantaneousForward approximates f(0,t) = -d/dt ln P(0,t) by the forward
// difference -(ln P(t+dt) - ln P(t)) / dt.
//
// Both P(t) and P(t+dt) must be exact entries. Otherwise the rate falls back
// to the average yield of the last entry, -ln(P_last)/T_last, and exact is
// false. The fallback is an approximation, not a derivative.
func (ts *TermStructure) InstantaneousForward(t, dt float64) (rate float64, exact bool) {
	pt, okT := ts.lookup(t)
	pdt, okDt := ts.lookup(t + dt)
	if okT && okDt && dt > 0 {
		return -(math.Log(pdt) - math.Log(pt)) / dt, true
	}

	lastT, lastP, ok := ts.Last()
	if !ok || lastT == 0 {
		return 0, false
	}
	return -math.Log(lastP) / lastT, false
}

func (ts *TermStructure) lookup(maturity float64) (float64, bool) {
	if ts == nil {
		return 0, false
	}
	p, ok := ts.prices[maturity]
	return p, ok
}

// DiscountFactor returns P(0,t) interpolated log-linearly (piecewise flat
// forwards) between entries, with P(0,0) = 1 as the implicit first knot.
// Beyond the last entry the last segment's forward rate is extended.
//
// Price never interpolates; this is used to manufacture helper points.
func (ts *TermStructure) DiscountFactor(t float64) float64 {
	if t <= 0 {
		return 1.0
	}
	if p, ok := ts.lookup(t); ok {
		return p
	}

	knots := ts.Maturities()
	if len(knots) == 0 || knots[0] > 0 {
		knots = append([]float64{0}, knots...)
	}
	if len(knots) < 2 {
		return 1.0
	}

	t1, t2 := bracket(knots, t)
	df1 := ts.DiscountFactor(t1)
	df2 := ts.DiscountFactor(t2)
	if t2 == t1 {
		return df1
	}
	forwardRate := math.Log(df1/df2) / (t2 - t1)
	return df1 * math.Exp(-forwardRate*(t-t1))
}

// bracket returns the two knots around target, or the nearest boundary pair
// when target lies outside the knots. knots must be sorted with len >= 2.
func bracket(knots []float64, target float64) (float64, float64) {
	i := sort.SearchFloat64s(knots, target)
	if i <= 0 {
		return knots[0], knots[1]
	}
	if i >= len(knots) {
		return knots[len(knots)-2], knots[len(knots)-1]
	}
	return knots[i-1], knots[i]
}

// WithForwardPoints returns a copy of ts carrying the helper entries needed
// to make InstantaneousForward exact at every pillar: P(0)=1, and P(T+dt) for
// each pillar T (including T=0, i.e. P(dt)). Helper prices come from
// DiscountFactor and are flagged so calibration can skip them.
func (ts *TermStructure) WithForwardPoints(dt float64) (*TermStructure, error) {
	if !(dt > 0) || math.IsInf(dt, 0) {
		return nil, fmt.Errorf("WithForwardPoints: %w: dt %v", ErrInvalidPoint, dt)
	}
	out := ts.Clone()
	if !out.Has(0) {
		if err := out.setHelper(0, 1.0); err != nil {
			return nil, fmt.Errorf("WithForwardPoints: %w", err)
		}
	}

	anchors := out.Pillars()
	if len(anchors) == 0 || anchors[0] != 0 {
		anchors = append([]float64{0}, anchors...)
	}
	for _, m := range anchors {
		next := m + dt
		if out.Has(next) {
			continue
		}
		if err := out.setHelper(next, ts.DiscountFactor(next)); err != nil {
			return nil, fmt.Errorf("WithForwardPoints: %w", err)
		}
	}
	return out, nil
}
