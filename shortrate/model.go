// Package shortrate implements one-factor short-rate models that price
// zero-coupon bonds P(0,T) against a market term structure.
package shortrate

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/meenmo/shortrate/config"
	"github.com/meenmo/shortrate/termstructure"
)

var (
	// ErrInvalidParameter is returned at construction for non-physical parameters.
	ErrInvalidParameter = errors.New("invalid model parameter")
	// ErrInvalidMaturity is returned for negative or non-finite maturities.
	ErrInvalidMaturity = errors.New("invalid maturity")
	// ErrMissingMarketData is returned when a fitted formula needs a term
	// structure entry that is not present. It wraps termstructure.ErrNotFound
	// when a lookup failed.
	ErrMissingMarketData = errors.New("missing market data")
	// ErrNotImplemented is matched by every NotImplementedError.
	ErrNotImplemented = errors.New("no closed-form price")
)

// Kind tags a model variant.
type Kind int

const (
	KindHoLee Kind = iota
	KindHullWhite
	KindBDT
	KindBlackKarasinski
)

var kindNames = map[Kind]string{
	KindHoLee:           "ho-lee",
	KindHullWhite:       "hull-white",
	KindBDT:             "bdt",
	KindBlackKarasinski: "black-karasinski",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// HasClosedForm reports whether PriceZeroCouponBond can return a number.
func (k Kind) HasClosedForm() bool {
	return k == KindHoLee || k == KindHullWhite
}

// NumParams is the length of the parameter vector New expects for k.
func (k Kind) NumParams() int {
	switch k {
	case KindHoLee, KindBDT:
		return 1
	case KindHullWhite, KindBlackKarasinski:
		return 2
	default:
		return 0
	}
}

// ParseKind accepts the names produced by Kind.String.
func ParseKind(s string) (Kind, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for k, v := range kindNames {
		if v == name {
			return k, nil
		}
	}
	return 0, fmt.Errorf("ParseKind: unknown model %q", s)
}

// NotImplementedError is returned by variants without a closed-form ZCB price.
// Method names the numerical scheme a real implementation would need.
type NotImplementedError struct {
	Model  Kind
	Method string
}

func (e *NotImplementedError) Error() string {
	return fmt.Sprintf("%s: no closed-form zero-coupon bond price; requires a numerical implementation (%s)", e.Model, e.Method)
}

func (e *NotImplementedError) Unwrap() error {
	return ErrNotImplemented
}

// Model is the pricing contract every short-rate model implements.
type Model interface {
	Kind() Kind
	// R0 is the initial instantaneous short rate, fixed at construction.
	R0() float64
	// PriceZeroCouponBond returns P(0,T) for T >= 0. It returns exactly 1
	// for T within the zero-maturity epsilon.
	PriceZeroCouponBond(T float64) (float64, error)
	// SetTermStructure attaches or replaces the market curve. The structure
	// is read, never modified.
	SetTermStructure(ts *termstructure.TermStructure)
	TermStructure() *termstructure.TermStructure
}

// Base carries the state shared by every variant: the initial short rate,
// the attached term structure and the numerics snapshot taken at construction.
type Base struct {
	r0       float64
	ts       *termstructure.TermStructure
	numerics config.Numerics
}

func (b *Base) R0() float64 {
	return b.r0
}

func (b *Base) TermStructure() *termstructure.TermStructure {
	return b.ts
}

func (b *Base) SetTermStructure(ts *termstructure.TermStructure) {
	b.ts = ts
}

// Numerics returns the constants this model was built with.
func (b *Base) Numerics() config.Numerics {
	return b.numerics
}

// shortCircuit validates T and reports whether the price is trivially 1,
// which holds for any T within the zero-maturity epsilon of 0, either side.
func (b *Base) shortCircuit(T float64) (bool, error) {
	eps := b.numerics.ZeroMaturityEpsilon
	if math.IsNaN(T) || math.IsInf(T, 0) || (T < 0 && -T >= eps) {
		return false, fmt.Errorf("%w: %v", ErrInvalidMaturity, T)
	}
	return math.Abs(T) < eps, nil
}

// marketPrice looks up the exact market price at T.
func (b *Base) marketPrice(T float64) (float64, error) {
	if b.ts == nil {
		return 0, fmt.Errorf("%w: no term structure attached", ErrMissingMarketData)
	}
	p, err := b.ts.Price(T)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrMissingMarketData, err)
	}
	return p, nil
}

// Option configures a model at construction.
type Option func(*options)

type options struct {
	ts        *termstructure.TermStructure
	numerics  *config.Numerics
	marketFit bool
}

// WithTermStructure attaches ts at construction.
func WithTermStructure(ts *termstructure.TermStructure) Option {
	return func(o *options) { o.ts = ts }
}

// WithNumerics overrides the package-wide numerics for one model.
func WithNumerics(n config.Numerics) Option {
	return func(o *options) { o.numerics = &n }
}

// WithMarketFit switches Ho-Lee to its arbitrage-free fitted formula.
// Other variants ignore it.
func WithMarketFit() Option {
	return func(o *options) { o.marketFit = true }
}

func newBase(r0 float64, opts []Option) (Base, options, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if math.IsNaN(r0) || math.IsInf(r0, 0) {
		return Base{}, o, fmt.Errorf("%w: r0 %v", ErrInvalidParameter, r0)
	}
	n := config.GetNumerics()
	if o.numerics != nil {
		n = *o.numerics
	}
	if !n.Validate() {
		return Base{}, o, fmt.Errorf("%w: numerics %+v", ErrInvalidParameter, n)
	}
	return Base{r0: r0, ts: o.ts, numerics: n}, o, nil
}

func checkSigma(sigma float64) error {
	if math.IsNaN(sigma) || math.IsInf(sigma, 0) || sigma < 0 {
		return fmt.Errorf("%w: sigma %v must be >= 0", ErrInvalidParameter, sigma)
	}
	return nil
}

func checkMeanReversion(a float64) error {
	if math.IsNaN(a) || math.IsInf(a, 0) || a <= 0 {
		return fmt.Errorf("%w: a %v must be > 0", ErrInvalidParameter, a)
	}
	return nil
}

// New constructs a model of the given kind. params are [sigma] for Ho-Lee
// and BDT, [a, sigma] for Hull-White and Black-Karasinski.
func New(kind Kind, r0 float64, params []float64, opts ...Option) (Model, error) {
	if want := kind.NumParams(); want == 0 || len(params) != want {
		return nil, fmt.Errorf("New: %w: %s takes %d params, got %d", ErrInvalidParameter, kind, want, len(params))
	}
	var (
		m   Model
		err error
	)
	switch kind {
	case KindHoLee:
		m, err = NewHoLee(r0, params[0], opts...)
	case KindHullWhite:
		m, err = NewHullWhite(r0, params[0], params[1], opts...)
	case KindBDT:
		m, err = NewBDT(r0, params[0], opts...)
	default:
		m, err = NewBlackKarasinski(r0, params[0], params[1], opts...)
	}
	if err != nil {
		return nil, err
	}
	return m, nil
}

var (
	_ Model = (*HoLee)(nil)
	_ Model = (*HullWhite)(nil)
	_ Model = (*BDT)(nil)
	_ Model = (*BlackKarasinski)(nil)
)
