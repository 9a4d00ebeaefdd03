package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"go.uber.org/zap"

	"github.com/meenmo/shortrate/calibration"
	"github.com/meenmo/shortrate/config"
	"github.com/meenmo/shortrate/internal/logging"
	"github.com/meenmo/shortrate/marketdata"
	"github.com/meenmo/shortrate/optimizer"
	"github.com/meenmo/shortrate/report"
	"github.com/meenmo/shortrate/shortrate"
)

func main() {
	configPath := flag.String("config", "", "Run configuration (YAML/JSON/TOML); SHORTRATE_* env vars override")
	help := flag.Bool("h", false, "Show help")
	flag.BoolVar(help, "help", false, "Show help")
	flag.Parse()

	if *help {
		fmt.Fprintln(os.Stderr, "Usage: calibrate -config <path>")
		fmt.Fprintln(os.Stderr, "Fit a short-rate model to a zero curve and print the price table.")
		return
	}

	run, err := config.Load(strings.TrimSpace(*configPath))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	logger, err := logging.New(logging.Config{Level: run.LogLevel})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := calibrate(ctx, run, filepath.Dir(*configPath), logger, os.Stdout); err != nil {
		logger.Error("calibration failed", zap.Error(err))
		stop()
		os.Exit(1)
	}
}

// outcome is the parameter set the table is printed for.
type outcome struct {
	kind   shortrate.Kind
	r0     float64
	params []float64
	sse    float64
}

// calibrate loads the curve named by run, optionally sweeps a parameter grid
// and refines the best point with Nelder-Mead, then writes the price table.
// A relative curve path is resolved against baseDir.
func calibrate(ctx context.Context, run config.Run, baseDir string, logger *zap.Logger, w io.Writer) error {
	numerics := run.Numerics.Numerics()
	config.SetNumerics(numerics)

	kind, err := shortrate.ParseKind(run.Model)
	if err != nil {
		return err
	}

	curvePath := run.CurvePath
	if !filepath.IsAbs(curvePath) && baseDir != "" {
		curvePath = filepath.Join(baseDir, curvePath)
	}
	curve, err := marketdata.LoadCurve(curvePath)
	if err != nil {
		return err
	}
	market, err := curve.TermStructure()
	if err != nil {
		return err
	}
	if kind == shortrate.KindHullWhite {
		if market, err = market.WithForwardPoints(numerics.ForwardStep); err != nil {
			return err
		}
	}

	r0 := run.R0
	if r0 == 0 {
		if r0, err = curve.ShortRate(); err != nil {
			return err
		}
	}
	logger.Info("market loaded",
		zap.String("curve", curve.Name),
		zap.String("model", kind.String()),
		zap.Float64("r0", r0),
		zap.Int("points", market.Len()),
		zap.Float64s("pillars", market.Pillars()),
	)

	res := outcome{kind: kind, r0: r0, params: append([]float64(nil), run.Params...)}
	factory := calibration.KindFactory(kind, r0)

	if len(run.Sweep.Axes) > 0 {
		grid := calibration.Grid(run.Sweep.Axes...)
		trials, err := calibration.Sweep(ctx, market, factory, grid, run.Sweep.Workers)
		if err != nil {
			return err
		}
		best, err := calibration.Best(trials)
		if err != nil {
			return fmt.Errorf("sweep over %d points: %w", len(grid), err)
		}
		logger.Info("sweep done",
			zap.Int("trials", len(trials)),
			zap.Float64s("best", best.Params),
			zap.Float64("sse", best.SSE),
		)
		res.params, res.sse = best.Params, best.SSE
	}

	if run.Optimizer.Enabled {
		if !kind.HasClosedForm() {
			logger.Warn("optimizer skipped", zap.String("model", kind.String()), zap.String("reason", "no closed-form price"))
		} else {
			fit, err := optimizer.Fit(market, factory, res.params, settings(run.Optimizer, len(res.params)))
			if err != nil {
				return err
			}
			logger.Info("optimizer done",
				zap.Float64s("params", fit.Params),
				zap.Float64("initial_sse", fit.InitialSSE),
				zap.Float64("sse", fit.SSE),
				zap.Int("evaluations", fit.Evaluations),
				zap.String("status", fit.Status),
			)
			res.params, res.sse = fit.Params, fit.SSE
		}
	}

	model, err := factory(res.params)
	if err != nil {
		return err
	}
	model.SetTermStructure(market)

	rows := report.PriceTable(model, market)
	failed := 0
	for _, r := range rows {
		if r.Err != nil {
			failed++
			if errors.Is(r.Err, shortrate.ErrNotImplemented) {
				continue
			}
			logger.Warn("pricing failed", zap.String("maturity", r.Maturity.String()), zap.Error(r.Err))
		}
	}

	fmt.Fprintf(w, "%s r0=%g params=%v sse=%.3e\n\n", res.kind, res.r0, res.params, res.sse)
	if err := report.Write(w, rows); err != nil {
		return err
	}
	if failed == len(rows) && len(rows) > 0 {
		return fmt.Errorf("%s priced none of %d maturities: %w", kind, len(rows), rows[0].Err)
	}
	return nil
}

func settings(c config.OptimizerConfig, n int) optimizer.Settings {
	transforms := make([]optimizer.Transform, n)
	for i := range transforms {
		transforms[i] = optimizer.Positive
	}
	return optimizer.Settings{
		Transforms:      transforms,
		MaxEvaluations:  c.MaxEvaluations,
		Tolerance:       c.Tolerance,
		StallIterations: c.StallIterations,
	}
}
