package report_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meenmo/shortrate/config"
	"github.com/meenmo/shortrate/report"
	"github.com/meenmo/shortrate/shortrate"
	"github.com/meenmo/shortrate/termstructure"
)

func curve(t *testing.T) *termstructure.TermStructure {
	t.Helper()
	ts, err := termstructure.FromYields(map[float64]float64{0.25: 0.010, 1.0: 0.015, 10.0: 0.030})
	require.NoError(t, err)
	ts, err = ts.WithForwardPoints(config.DefaultNumerics.ForwardStep)
	require.NoError(t, err)
	return ts
}

func TestPriceTable_HullWhite(t *testing.T) {
	t.Parallel()

	ts := curve(t)
	hw, err := shortrate.NewHullWhite(0.010, 0.1, 0, shortrate.WithTermStructure(ts))
	require.NoError(t, err)

	rows := report.PriceTable(hw, ts)
	require.Len(t, rows, 3)
	for _, r := range rows {
		require.NoError(t, r.Err)
		assert.True(t, r.Diff.IsZero(), r.Maturity.String())
		assert.True(t, r.ModelPrice.Equal(r.MarketPrice))
	}
	assert.Equal(t, "0.985112", rows[1].MarketPrice.StringFixed(report.Places))

	var buf bytes.Buffer
	require.NoError(t, report.Write(&buf, rows))
	out := buf.String()
	assert.Contains(t, out, "Maturity")
	assert.Contains(t, out, "10.00")
	assert.Equal(t, 5, strings.Count(out, "\n"))
}

func TestPriceTable_RecordsErrors(t *testing.T) {
	t.Parallel()

	ts := curve(t)
	bdt, err := shortrate.NewBDT(0.010, 0.2, shortrate.WithTermStructure(ts))
	require.NoError(t, err)

	rows := report.PriceTable(bdt, ts)
	require.Len(t, rows, 3)
	for _, r := range rows {
		assert.ErrorIs(t, r.Err, shortrate.ErrNotImplemented)
		assert.True(t, r.ModelPrice.IsZero())
	}

	var buf bytes.Buffer
	require.NoError(t, report.Write(&buf, rows))
	assert.Contains(t, buf.String(), "n/a")
	assert.Contains(t, buf.String(), "binomial tree")
}
