package shortrate_test

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meenmo/shortrate/config"
	"github.com/meenmo/shortrate/shortrate"
	"github.com/meenmo/shortrate/termstructure"
)

var marketYields = map[float64]float64{
	0.25: 0.010,
	0.5:  0.012,
	1.0:  0.015,
	2.0:  0.020,
	5.0:  0.025,
	10.0: 0.030,
}

// marketCurve returns the sample curve with forward-difference helpers.
func marketCurve(t testing.TB) *termstructure.TermStructure {
	t.Helper()
	ts, err := termstructure.FromYields(marketYields)
	require.NoError(t, err)
	ts, err = ts.WithForwardPoints(config.DefaultNumerics.ForwardStep)
	require.NoError(t, err)
	return ts
}

func flatCurve(t testing.TB, y float64, maturities []float64) *termstructure.TermStructure {
	t.Helper()
	yields := make(map[float64]float64, len(maturities))
	for _, m := range maturities {
		yields[m] = y
	}
	ts, err := termstructure.FromYields(yields)
	require.NoError(t, err)
	ts, err = ts.WithForwardPoints(config.DefaultNumerics.ForwardStep)
	require.NoError(t, err)
	return ts
}

func allModels(t *testing.T, ts *termstructure.TermStructure) []shortrate.Model {
	t.Helper()
	hl, err := shortrate.NewHoLee(0.01, 0.01, shortrate.WithTermStructure(ts))
	require.NoError(t, err)
	hlFit, err := shortrate.NewHoLee(0.01, 0.01, shortrate.WithTermStructure(ts), shortrate.WithMarketFit())
	require.NoError(t, err)
	hw, err := shortrate.NewHullWhite(0.01, 0.1, 0.01, shortrate.WithTermStructure(ts))
	require.NoError(t, err)
	return []shortrate.Model{hl, hlFit, hw}
}

func TestPriceAtZeroMaturityIsOne(t *testing.T) {
	t.Parallel()

	ts := marketCurve(t)
	for _, m := range allModels(t, ts) {
		for _, T := range []float64{0, 1e-7, 9.9e-7} {
			p, err := m.PriceZeroCouponBond(T)
			require.NoError(t, err, m.Kind())
			assert.Equal(t, 1.0, p, "%s T=%v", m.Kind(), T)
		}
	}
}

func TestPriceAtZeroMaturity_NoTermStructureNeeded(t *testing.T) {
	t.Parallel()

	hw, err := shortrate.NewHullWhite(0.01, 0.1, 0.01)
	require.NoError(t, err)
	p, err := hw.PriceZeroCouponBond(0)
	require.NoError(t, err)
	assert.Equal(t, 1.0, p)
}

func TestNegativeMaturityRejected(t *testing.T) {
	t.Parallel()

	ts := marketCurve(t)
	for _, m := range allModels(t, ts) {
		_, err := m.PriceZeroCouponBond(-1)
		assert.ErrorIs(t, err, shortrate.ErrInvalidMaturity, m.Kind())
		_, err = m.PriceZeroCouponBond(math.NaN())
		assert.ErrorIs(t, err, shortrate.ErrInvalidMaturity, m.Kind())
		_, err = m.PriceZeroCouponBond(-1e-6)
		assert.ErrorIs(t, err, shortrate.ErrInvalidMaturity, m.Kind())
	}
}

func TestTinyNegativeMaturityPricesAtPar(t *testing.T) {
	t.Parallel()

	ts := marketCurve(t)
	for _, m := range allModels(t, ts) {
		for _, T := range []float64{-1e-9, -5e-7, -9.9e-7} {
			p, err := m.PriceZeroCouponBond(T)
			require.NoError(t, err, m.Kind())
			assert.Equal(t, 1.0, p, "%s T=%v", m.Kind(), T)
		}
	}
}

func TestConstructionRejectsNonPhysicalParameters(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		fn   func() error
	}{
		{"hull-white a=0", func() error { _, err := shortrate.NewHullWhite(0.01, 0, 0.01); return err }},
		{"hull-white a<0", func() error { _, err := shortrate.NewHullWhite(0.01, -0.1, 0.01); return err }},
		{"hull-white sigma<0", func() error { _, err := shortrate.NewHullWhite(0.01, 0.1, -0.01); return err }},
		{"ho-lee sigma<0", func() error { _, err := shortrate.NewHoLee(0.01, -0.01); return err }},
		{"ho-lee r0 nan", func() error { _, err := shortrate.NewHoLee(math.NaN(), 0.01); return err }},
		{"bdt sigma inf", func() error { _, err := shortrate.NewBDT(0.01, math.Inf(1)); return err }},
		{"black-karasinski a=0", func() error { _, err := shortrate.NewBlackKarasinski(0.01, 0, 0.2); return err }},
		{"bad numerics", func() error {
			_, err := shortrate.NewHullWhite(0.01, 0.1, 0.01, shortrate.WithNumerics(config.Numerics{ForwardStep: 0}))
			return err
		}},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.ErrorIs(t, tc.fn(), shortrate.ErrInvalidParameter)
		})
	}
}

func TestNew_ByKind(t *testing.T) {
	t.Parallel()

	cases := []struct {
		kind   shortrate.Kind
		params []float64
	}{
		{shortrate.KindHoLee, []float64{0.01}},
		{shortrate.KindHullWhite, []float64{0.1, 0.01}},
		{shortrate.KindBDT, []float64{0.2}},
		{shortrate.KindBlackKarasinski, []float64{0.1, 0.2}},
	}
	for _, tc := range cases {
		m, err := shortrate.New(tc.kind, 0.01, tc.params)
		require.NoError(t, err, tc.kind)
		assert.Equal(t, tc.kind, m.Kind())
		assert.Equal(t, 0.01, m.R0())

		_, err = shortrate.New(tc.kind, 0.01, append(tc.params, 1))
		assert.ErrorIs(t, err, shortrate.ErrInvalidParameter)
	}

	m, err := shortrate.New(shortrate.KindHullWhite, 0.01, []float64{-1, 0.01})
	assert.Nil(t, m)
	assert.ErrorIs(t, err, shortrate.ErrInvalidParameter)

	_, err = shortrate.New(shortrate.Kind(99), 0.01, nil)
	assert.ErrorIs(t, err, shortrate.ErrInvalidParameter)
}

func TestParseKind(t *testing.T) {
	t.Parallel()

	for _, k := range []shortrate.Kind{shortrate.KindHoLee, shortrate.KindHullWhite, shortrate.KindBDT, shortrate.KindBlackKarasinski} {
		got, err := shortrate.ParseKind(k.String())
		require.NoError(t, err)
		assert.Equal(t, k, got)
	}
	got, err := shortrate.ParseKind(" Hull-White ")
	require.NoError(t, err)
	assert.Equal(t, shortrate.KindHullWhite, got)

	_, err = shortrate.ParseKind("vasicek")
	assert.Error(t, err)

	assert.True(t, shortrate.KindHullWhite.HasClosedForm())
	assert.False(t, shortrate.KindBDT.HasClosedForm())
}

func TestStubModelsAlwaysFail(t *testing.T) {
	t.Parallel()

	bdt, err := shortrate.NewBDT(0.01, 0.2, shortrate.WithTermStructure(marketCurve(t)))
	require.NoError(t, err)
	bk, err := shortrate.NewBlackKarasinski(0.01, 0.1, 0.2)
	require.NoError(t, err)

	for _, m := range []shortrate.Model{bdt, bk} {
		for _, T := range []float64{0, 0.5, 1, 10, 30} {
			p, err := m.PriceZeroCouponBond(T)
			require.Error(t, err)
			assert.Zero(t, p)
			assert.ErrorIs(t, err, shortrate.ErrNotImplemented)

			var nie *shortrate.NotImplementedError
			require.True(t, errors.As(err, &nie))
			assert.Equal(t, m.Kind(), nie.Model)
			assert.NotEmpty(t, nie.Method)
		}
	}
}

func TestSetTermStructure_Replaces(t *testing.T) {
	t.Parallel()

	hw, err := shortrate.NewHullWhite(0.01, 0.1, 0.01)
	require.NoError(t, err)
	assert.Nil(t, hw.TermStructure())

	_, err = hw.PriceZeroCouponBond(1)
	assert.ErrorIs(t, err, shortrate.ErrMissingMarketData)

	ts := marketCurve(t)
	hw.SetTermStructure(ts)
	assert.Same(t, ts, hw.TermStructure())

	_, err = hw.PriceZeroCouponBond(1)
	assert.NoError(t, err)
}

func TestModelsDoNotMutateTermStructure(t *testing.T) {
	t.Parallel()

	ts := marketCurve(t)
	before := ts.Maturities()
	for _, m := range allModels(t, ts) {
		for _, T := range ts.Maturities() {
			_, _ = m.PriceZeroCouponBond(T)
		}
		_, _ = m.PriceZeroCouponBond(3.3)
	}
	assert.Equal(t, before, ts.Maturities())
}

func TestNumericsSnapshot(t *testing.T) {
	t.Parallel()

	n := config.Numerics{ZeroMaturityEpsilon: 0.5, ForwardStep: 0.001, HelperThreshold: 0.001}
	hl, err := shortrate.NewHoLee(0.01, 0.01, shortrate.WithNumerics(n))
	require.NoError(t, err)
	assert.Equal(t, n, hl.Numerics())

	p, err := hl.PriceZeroCouponBond(0.25)
	require.NoError(t, err)
	assert.Equal(t, 1.0, p)
}
