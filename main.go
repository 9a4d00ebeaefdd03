package main

import (
	"fmt"
	"os"

	"github.com/meenmo/shortrate/calibration"
	"github.com/meenmo/shortrate/config"
	"github.com/meenmo/shortrate/optimizer"
	"github.com/meenmo/shortrate/report"
	"github.com/meenmo/shortrate/shortrate"
	"github.com/meenmo/shortrate/termstructure"
)

func main() {
	yields := map[float64]float64{
		0.25: 0.010,
		0.5:  0.012,
		1.0:  0.015,
		2.0:  0.020,
		5.0:  0.025,
		10.0: 0.030,
	}

	market, err := termstructure.FromYields(yields)
	if err != nil {
		exit(err)
	}
	market, err = market.WithForwardPoints(config.GetNumerics().ForwardStep)
	if err != nil {
		exit(err)
	}

	r0 := yields[0.25]
	factory := calibration.HullWhiteFactory(r0)
	initial := []float64{0.1, 0.01}

	fmt.Printf("Initial short rate (r0): %.4f\n\n", r0)
	fmt.Printf("Hull-White, initial guess a=%.4f sigma=%.4f\n", initial[0], initial[1])

	model, err := shortrate.NewHullWhite(r0, initial[0], initial[1], shortrate.WithTermStructure(market))
	if err != nil {
		exit(err)
	}
	if err := report.Write(os.Stdout, report.PriceTable(model, market)); err != nil {
		exit(err)
	}

	sse, err := calibration.Objective(initial, market, factory)
	if err != nil {
		exit(err)
	}
	fmt.Printf("\nInitial SSE: %.6e\n", sse)

	fit, err := optimizer.Fit(market, factory, initial, optimizer.DefaultSettings)
	if err != nil {
		exit(err)
	}
	fmt.Printf("Calibrated a=%.6f sigma=%.6f\n", fit.Params[0], fit.Params[1])
	fmt.Printf("Calibrated SSE: %.6e (%d evaluations, %s)\n\n", fit.SSE, fit.Evaluations, fit.Status)

	calibrated, err := factory(fit.Params)
	if err != nil {
		exit(err)
	}
	calibrated.SetTermStructure(market)
	if err := report.Write(os.Stdout, report.PriceTable(calibrated, market)); err != nil {
		exit(err)
	}
}

func exit(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
