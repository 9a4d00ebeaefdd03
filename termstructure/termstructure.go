package termstructure

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

var (
	// ErrNotFound is returned when no price exists at the requested maturity.
	ErrNotFound = errors.New("maturity not found")
	// ErrInvalidPoint is returned when a maturity/price pair is rejected.
	ErrInvalidPoint = errors.New("invalid term structure point")
)

// TermStructure maps maturity (years) to market ZCB price P(0,T).
//
// Maturities are kept in ascending order and are unique. A TermStructure is
// built once and then shared read-only by any number of models; it must not
// be modified with Set after it has been handed to a model.
type TermStructure struct {
	prices     map[float64]float64
	helpers    map[float64]struct{}
	maturities []float64
}

// New builds a TermStructure from a maturity -> price map.
func New(prices map[float64]float64) (*TermStructure, error) {
	ts := &TermStructure{
		prices:  make(map[float64]float64, len(prices)),
		helpers: make(map[float64]struct{}),
	}
	for t, p := range prices {
		if err := ts.Set(t, p); err != nil {
			return nil, fmt.Errorf("New: %w", err)
		}
	}
	return ts, nil
}

// FromYields converts continuously compounded zero yields to prices, P = exp(-y*T).
func FromYields(yields map[float64]float64) (*TermStructure, error) {
	prices := make(map[float64]float64, len(yields))
	for t, y := range yields {
		if math.IsNaN(y) || math.IsInf(y, 0) {
			return nil, fmt.Errorf("FromYields: %w: yield %v at %v", ErrInvalidPoint, y, t)
		}
		prices[t] = math.Exp(-y * t)
	}
	ts, err := New(prices)
	if err != nil {
		return nil, fmt.Errorf("FromYields: %w", err)
	}
	return ts, nil
}

// Set inserts or overwrites the price at maturity.
// maturity must be >= 0 and price must lie in (0, 1].
func (ts *TermStructure) Set(maturity, price float64) error {
	if math.IsNaN(maturity) || math.IsInf(maturity, 0) || maturity < 0 {
		return fmt.Errorf("%w: maturity %v", ErrInvalidPoint, maturity)
	}
	if math.IsNaN(price) || price <= 0 || price > 1 {
		return fmt.Errorf("%w: price %v at maturity %v", ErrInvalidPoint, price, maturity)
	}
	if ts.prices == nil {
		ts.prices = make(map[float64]float64)
		ts.helpers = make(map[float64]struct{})
	}
	if _, ok := ts.prices[maturity]; !ok {
		i := sort.SearchFloat64s(ts.maturities, maturity)
		ts.maturities = append(ts.maturities, 0)
		copy(ts.maturities[i+1:], ts.maturities[i:])
		ts.maturities[i] = maturity
	}
	ts.prices[maturity] = price
	delete(ts.helpers, maturity)
	return nil
}

// setHelper stores a point used only for forward differencing.
func (ts *TermStructure) setHelper(maturity, price float64) error {
	if err := ts.Set(maturity, price); err != nil {
		return err
	}
	ts.helpers[maturity] = struct{}{}
	return nil
}

// Price returns the market price at exactly maturity. No interpolation is
// performed; a missing key yields ErrNotFound.
func (ts *TermStructure) Price(maturity float64) (float64, error) {
	if ts != nil {
		if p, ok := ts.prices[maturity]; ok {
			return p, nil
		}
	}
	return 0, fmt.Errorf("%w: %v", ErrNotFound, maturity)
}

// Has reports whether an exact entry exists at maturity.
func (ts *TermStructure) Has(maturity float64) bool {
	if ts == nil {
		return false
	}
	_, ok := ts.prices[maturity]
	return ok
}

// Last returns the entry with the largest maturity.
func (ts *TermStructure) Last() (maturity, price float64, ok bool) {
	if ts == nil || len(ts.maturities) == 0 {
		return 0, 0, false
	}
	m := ts.maturities[len(ts.maturities)-1]
	return m, ts.prices[m], true
}

// Len returns the number of entries, helpers included.
func (ts *TermStructure) Len() int {
	if ts == nil {
		return 0
	}
	return len(ts.maturities)
}

// Maturities returns every maturity in ascending order, helpers included.
func (ts *TermStructure) Maturities() []float64 {
	if ts == nil {
		return nil
	}
	out := make([]float64, len(ts.maturities))
	copy(out, ts.maturities)
	return out
}

// Pillars returns the maturities that are not forward-difference helpers.
func (ts *TermStructure) Pillars() []float64 {
	if ts == nil {
		return nil
	}
	out := make([]float64, 0, len(ts.maturities))
	for _, m := range ts.maturities {
		if _, ok := ts.helpers[m]; !ok {
			out = append(out, m)
		}
	}
	return out
}

// IsHelper reports whether maturity was added by WithForwardPoints.
func (ts *TermStructure) IsHelper(maturity float64) bool {
	if ts == nil {
		return false
	}
	_, ok := ts.helpers[maturity]
	return ok
}

// Clone returns a deep copy.
func (ts *TermStructure) Clone() *TermStructure {
	out := &TermStructure{
		prices:  make(map[float64]float64, ts.Len()),
		helpers: make(map[float64]struct{}),
	}
	if ts == nil {
		return out
	}
	for k, v := range ts.prices {
		out.prices[k] = v
	}
	for k := range ts.helpers {
		out.helpers[k] = struct{}{}
	}
	out.maturities = ts.Maturities()
	return out
}

// ZeroRate returns the continuously compounded yield -ln P(T)/T at a grid point.
func (ts *TermStructure) ZeroRate(maturity float64) (float64, error) {
	p, err := ts.Price(maturity)
	if err != nil {
		return 0, fmt.Errorf("ZeroRate: %w", err)
	}
	if maturity == 0 {
		return 0, fmt.Errorf("ZeroRate: %w: zero maturity", ErrInvalidPoint)
	}
	return -math.Log(p) / maturity, nil
}
