// Package report formats model-versus-market price tables for console output.
package report

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/shopspring/decimal"

	"github.com/meenmo/shortrate/calibration"
	"github.com/meenmo/shortrate/shortrate"
	"github.com/meenmo/shortrate/termstructure"
)

// Places is the number of decimals kept for prices and differences.
const Places = 6

// Row is one maturity of a price table. Err is set when the model could not
// price the maturity; ModelPrice and Diff are then zero.
type Row struct {
	Maturity    decimal.Decimal
	MarketPrice decimal.Decimal
	ModelPrice  decimal.Decimal
	Diff        decimal.Decimal
	Err         error
}

// PriceTable prices every calibration maturity of ts with model.
func PriceTable(model shortrate.Model, ts *termstructure.TermStructure) []Row {
	residuals := calibration.Residuals(model, ts)
	rows := make([]Row, 0, len(residuals))
	for _, r := range residuals {
		row := Row{
			Maturity:    decimal.NewFromFloat(r.Maturity),
			MarketPrice: decimal.NewFromFloat(r.MarketPrice).Round(Places),
			Err:         r.Err,
		}
		if r.Err == nil {
			row.ModelPrice = decimal.NewFromFloat(r.ModelPrice).Round(Places)
			row.Diff = decimal.NewFromFloat(r.Diff()).Round(Places)
		}
		rows = append(rows, row)
	}
	return rows
}

// Write renders rows as an aligned table.
func Write(w io.Writer, rows []Row) error {
	tw := tabwriter.NewWriter(w, 0, 0, 1, ' ', 0)
	fmt.Fprintln(tw, "Maturity\t| Market Price\t| Model Price\t| Difference")
	fmt.Fprintln(tw, "--------\t|-------------\t|------------\t|-----------")
	for _, r := range rows {
		if r.Err != nil {
			fmt.Fprintf(tw, "%s\t| %s\t| %s\t| %s\n", r.Maturity.StringFixed(2), r.MarketPrice.StringFixed(Places), "n/a", r.Err)
			continue
		}
		fmt.Fprintf(tw, "%s\t| %s\t| %s\t| %s\n",
			r.Maturity.StringFixed(2),
			r.MarketPrice.StringFixed(Places),
			r.ModelPrice.StringFixed(Places),
			r.Diff.StringFixed(Places),
		)
	}
	return tw.Flush()
}
