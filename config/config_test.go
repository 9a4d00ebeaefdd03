package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNumerics_SetGet(t *testing.T) {
	prev := GetNumerics()
	t.Cleanup(func() { SetNumerics(prev) })

	assert.Equal(t, DefaultNumerics, prev)

	n := Numerics{ZeroMaturityEpsilon: 1e-8, ForwardStep: 1e-4, HelperThreshold: 1e-4}
	SetNumerics(n)
	assert.Equal(t, n, GetNumerics())
}

func TestNumerics_Validate(t *testing.T) {
	assert.True(t, DefaultNumerics.Validate())
	assert.False(t, Numerics{ForwardStep: 0}.Validate())
	assert.False(t, Numerics{ZeroMaturityEpsilon: -1, ForwardStep: 1e-3}.Validate())
	assert.False(t, Numerics{ForwardStep: 1e-3, HelperThreshold: -1}.Validate())
}

func writeRun(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "run.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_File(t *testing.T) {
	path := writeRun(t, `
model: hull-white
r0: 0.01
params: [0.1, 0.01]
curve: curve.yaml
sweep:
  axes:
    - [0.05, 0.1]
    - [0.005, 0.01, 0.02]
  workers: 2
optimizer:
  max_evaluations: 500
log_level: debug
`)
	run, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "hull-white", run.Model)
	assert.InDelta(t, 0.01, run.R0, 0)
	assert.Equal(t, []float64{0.1, 0.01}, run.Params)
	assert.Equal(t, "curve.yaml", run.CurvePath)
	require.Len(t, run.Sweep.Axes, 2)
	assert.Equal(t, []float64{0.005, 0.01, 0.02}, run.Sweep.Axes[1])
	assert.Equal(t, 2, run.Sweep.Workers)
	assert.True(t, run.Optimizer.Enabled)
	assert.Equal(t, 500, run.Optimizer.MaxEvaluations)
	assert.InDelta(t, 1e-14, run.Optimizer.Tolerance, 0)
	assert.Equal(t, DefaultNumerics, run.Numerics.Numerics())
	assert.Equal(t, "debug", run.LogLevel)
}

func TestLoad_EnvOverride(t *testing.T) {
	path := writeRun(t, "curve: curve.yaml\n")
	t.Setenv("SHORTRATE_MODEL", "ho-lee")
	t.Setenv("SHORTRATE_OPTIMIZER_MAX_EVALUATIONS", "42")
	t.Setenv("SHORTRATE_NUMERICS_FORWARD_STEP", "0.0001")

	run, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "ho-lee", run.Model)
	assert.Equal(t, 42, run.Optimizer.MaxEvaluations)
	assert.InDelta(t, 1e-4, run.Numerics.ForwardStep, 0)
}

func TestLoad_EnvOnly(t *testing.T) {
	t.Setenv("SHORTRATE_CURVE", "from-env.yaml")

	run, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "from-env.yaml", run.CurvePath)
	assert.Equal(t, "hull-white", run.Model)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = Load(writeRun(t, "model: vasicek\ncurve: c.yaml\n"))
	assert.ErrorIs(t, err, ErrInvalidRun)
}

func TestRun_Validate(t *testing.T) {
	valid := Run{
		Model:     "hull-white",
		Params:    []float64{0.1, 0.01},
		CurvePath: "c.yaml",
		Numerics:  NumericsConfig{ForwardStep: 1e-3},
	}
	require.NoError(t, valid.Validate())

	cases := map[string]func(r *Run){
		"model":    func(r *Run) { r.Model = "cir" },
		"curve":    func(r *Run) { r.CurvePath = "" },
		"params":   func(r *Run) { r.Params = nil },
		"axes":     func(r *Run) { r.Sweep.Axes = [][]float64{{0.1}} },
		"numerics": func(r *Run) { r.Numerics.ForwardStep = 0 },
	}
	for name, mutate := range cases {
		r := valid
		mutate(&r)
		assert.ErrorIs(t, r.Validate(), ErrInvalidRun, name)
	}
}

func TestLoad_SampleConfig(t *testing.T) {
	run, err := Load(filepath.Join("..", "configs", "run.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "hull-white", run.Model)
	assert.Equal(t, "curve.yaml", run.CurvePath)
	assert.Len(t, run.Sweep.Axes, 2)
	assert.Equal(t, DefaultNumerics, run.Numerics.Numerics())
}
