package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// ErrInvalidRun is returned when a run configuration fails validation.
var ErrInvalidRun = errors.New("invalid run config")

// Run is the configuration consumed by the calibrate command.
type Run struct {
	// Model is one of "hull-white", "ho-lee", "bdt", "black-karasinski".
	Model string `mapstructure:"model"`
	// R0 is the initial short rate. Zero means "use the first curve pillar".
	R0 float64 `mapstructure:"r0"`
	// Params are the initial model parameters ([a, sigma] or [sigma]).
	Params []float64 `mapstructure:"params"`
	// CurvePath points to a YAML curve file (see package marketdata).
	CurvePath string `mapstructure:"curve"`

	Sweep     SweepConfig     `mapstructure:"sweep"`
	Optimizer OptimizerConfig `mapstructure:"optimizer"`
	Numerics  NumericsConfig  `mapstructure:"numerics"`

	LogLevel string `mapstructure:"log_level"`
}

// SweepConfig describes an optional grid evaluated before optimisation.
// Axes[i] lists the values tried for Params[i].
type SweepConfig struct {
	Axes    [][]float64 `mapstructure:"axes"`
	Workers int         `mapstructure:"workers"`
}

// OptimizerConfig bounds the Nelder-Mead search.
type OptimizerConfig struct {
	Enabled         bool    `mapstructure:"enabled"`
	MaxEvaluations  int     `mapstructure:"max_evaluations"`
	Tolerance       float64 `mapstructure:"tolerance"`
	StallIterations int     `mapstructure:"stall_iterations"`
}

// NumericsConfig mirrors Numerics for file/env overrides.
type NumericsConfig struct {
	ZeroMaturityEpsilon float64 `mapstructure:"zero_maturity_epsilon"`
	ForwardStep         float64 `mapstructure:"forward_step"`
	HelperThreshold     float64 `mapstructure:"helper_threshold"`
}

// Numerics converts the file representation to Numerics.
func (n NumericsConfig) Numerics() Numerics {
	return Numerics{
		ZeroMaturityEpsilon: n.ZeroMaturityEpsilon,
		ForwardStep:         n.ForwardStep,
		HelperThreshold:     n.HelperThreshold,
	}
}

// Load reads a run configuration from path (YAML, JSON or TOML, by extension).
// Any key can be overridden through SHORTRATE_<KEY> environment variables,
// e.g. SHORTRATE_OPTIMIZER_MAX_EVALUATIONS. An empty path uses defaults and env only.
func Load(path string) (Run, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("SHORTRATE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Run{}, fmt.Errorf("Load: read %s: %w", path, err)
		}
	}

	var run Run
	if err := v.Unmarshal(&run); err != nil {
		return Run{}, fmt.Errorf("Load: decode: %w", err)
	}
	if err := run.Validate(); err != nil {
		return Run{}, err
	}
	return run, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("model", "hull-white")
	v.SetDefault("curve", "")
	v.SetDefault("r0", 0.0)
	v.SetDefault("params", []float64{0.1, 0.01})
	v.SetDefault("log_level", "info")
	v.SetDefault("sweep.workers", 4)
	v.SetDefault("optimizer.enabled", true)
	v.SetDefault("optimizer.max_evaluations", 2000)
	v.SetDefault("optimizer.tolerance", 1e-14)
	v.SetDefault("optimizer.stall_iterations", 50)
	v.SetDefault("numerics.zero_maturity_epsilon", DefaultNumerics.ZeroMaturityEpsilon)
	v.SetDefault("numerics.forward_step", DefaultNumerics.ForwardStep)
	v.SetDefault("numerics.helper_threshold", DefaultNumerics.HelperThreshold)
}

// Validate checks the fields the calibrate command relies on.
func (r Run) Validate() error {
	switch r.Model {
	case "hull-white", "ho-lee", "bdt", "black-karasinski":
	default:
		return fmt.Errorf("%w: unknown model %q", ErrInvalidRun, r.Model)
	}
	if r.CurvePath == "" {
		return fmt.Errorf("%w: curve is required", ErrInvalidRun)
	}
	if len(r.Params) == 0 {
		return fmt.Errorf("%w: params are required", ErrInvalidRun)
	}
	if len(r.Sweep.Axes) > 0 && len(r.Sweep.Axes) != len(r.Params) {
		return fmt.Errorf("%w: sweep has %d axes for %d params", ErrInvalidRun, len(r.Sweep.Axes), len(r.Params))
	}
	if !r.Numerics.Numerics().Validate() {
		return fmt.Errorf("%w: numerics out of range", ErrInvalidRun)
	}
	return nil
}
