package config

import "sync"

// Numerics holds the small numerical constants used by the pricing formulas.
// These were previously hardcoded in every model.
type Numerics struct {
	// ZeroMaturityEpsilon is the maturity below which a ZCB is priced at exactly 1.
	ZeroMaturityEpsilon float64

	// ForwardStep is the dt used for the forward difference
	// f(0,t) ≈ -(ln P(t+dt) - ln P(t)) / dt.
	ForwardStep float64

	// HelperThreshold excludes maturities below it from the calibration
	// objective. Such points exist only to support forward differencing.
	HelperThreshold float64
}

// DefaultNumerics provides production-ready default values.
var DefaultNumerics = Numerics{
	ZeroMaturityEpsilon: 1e-6,
	ForwardStep:         1e-3,
	HelperThreshold:     1e-3,
}

var (
	mu  sync.RWMutex
	cfg = DefaultNumerics
)

// SetNumerics replaces the active numerics. Models already constructed keep
// the values they were built with.
func SetNumerics(n Numerics) {
	mu.Lock()
	defer mu.Unlock()
	cfg = n
}

// GetNumerics returns the active numerics.
func GetNumerics() Numerics {
	mu.RLock()
	defer mu.RUnlock()
	return cfg
}

// Validate reports whether every field is usable.
func (n Numerics) Validate() bool {
	return n.ZeroMaturityEpsilon >= 0 && n.ForwardStep > 0 && n.HelperThreshold >= 0
}
