package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/meenmo/shortrate/calibration"
	"github.com/meenmo/shortrate/config"
	"github.com/meenmo/shortrate/shortrate"
	"github.com/meenmo/shortrate/termstructure"
)

type priceInput struct {
	TaskID     string      `json:"task_id,omitempty"`
	Model      string      `json:"model"`
	R0         float64     `json:"r0"`
	Params     []float64   `json:"params"`
	MarketFit  bool        `json:"market_fit,omitempty"`
	Curve      []pointJSON `json:"curve"`
	Maturities []float64   `json:"maturities"`
}

type pointJSON struct {
	Maturity float64 `json:"maturity"`
	Yield    float64 `json:"yield"`
}

type priceJSON struct {
	Maturity float64 `json:"maturity"`
	Price    float64 `json:"price,omitempty"`
	Error    string  `json:"error,omitempty"`
}

type priceOutput struct {
	TaskID string      `json:"task_id,omitempty"`
	Model  string      `json:"model,omitempty"`
	Prices []priceJSON `json:"prices,omitempty"`
	SSE    *float64    `json:"sse,omitempty"`
	Error  string      `json:"error,omitempty"`
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// run prices every task read from -input (or stdin) and writes one JSON
// document to stdout. Exit code 1 means at least one task failed, 2 is a
// usage error.
func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("zcbprice", flag.ContinueOnError)
	fs.SetOutput(stderr)
	inputPath := fs.String("input", "", "JSON input path (reads stdin if omitted)")
	fs.Usage = func() {
		fmt.Fprintln(stderr, "Usage: zcbprice -input <path>")
		fmt.Fprintln(stderr, "Price zero-coupon bonds under a short-rate model.")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	path := strings.TrimSpace(*inputPath)
	if path == "" && isTerminal(stdin) {
		fs.Usage()
		return 2
	}

	raw, err := readInput(path, stdin)
	if err != nil {
		return writeFailure(stdout, fmt.Sprintf("read input: %v", err))
	}
	inputs, isArray, err := parseInputs(raw)
	if err != nil {
		return writeFailure(stdout, fmt.Sprintf("parse JSON: %v", err))
	}

	code := 0
	outputs := make([]priceOutput, len(inputs))
	for i, in := range inputs {
		out, err := process(in)
		if err != nil {
			code = 1
			outputs[i] = priceOutput{TaskID: in.TaskID, Model: in.Model, Error: err.Error()}
			continue
		}
		outputs[i] = *out
	}

	var doc any = outputs[0]
	if isArray {
		doc = outputs
	}
	if err := json.NewEncoder(stdout).Encode(doc); err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	return code
}

func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	if !ok {
		return false
	}
	stat, err := f.Stat()
	return err == nil && stat.Mode()&os.ModeCharDevice != 0
}

// process builds the requested model on the input curve and prices every
// maturity. A failure at one maturity is reported in that entry only. SSE is
// set when every curve pillar prices.
func process(in priceInput) (*priceOutput, error) {
	kind, err := shortrate.ParseKind(in.Model)
	if err != nil {
		return nil, err
	}
	if len(in.Curve) == 0 {
		return nil, fmt.Errorf("curve is required")
	}
	if len(in.Maturities) == 0 {
		return nil, fmt.Errorf("maturities are required")
	}

	yields := make(map[float64]float64, len(in.Curve))
	for _, p := range in.Curve {
		if _, dup := yields[p.Maturity]; dup {
			return nil, fmt.Errorf("duplicate curve maturity %v", p.Maturity)
		}
		yields[p.Maturity] = p.Yield
	}
	ts, err := termstructure.FromYields(yields)
	if err != nil {
		return nil, err
	}
	if kind == shortrate.KindHullWhite || in.MarketFit {
		if ts, err = ts.WithForwardPoints(config.GetNumerics().ForwardStep); err != nil {
			return nil, err
		}
	}

	opts := []shortrate.Option{shortrate.WithTermStructure(ts)}
	if in.MarketFit {
		opts = append(opts, shortrate.WithMarketFit())
	}
	model, err := shortrate.New(kind, in.R0, in.Params, opts...)
	if err != nil {
		return nil, err
	}

	out := &priceOutput{TaskID: in.TaskID, Model: kind.String(), Prices: make([]priceJSON, 0, len(in.Maturities))}
	for _, T := range in.Maturities {
		p, err := model.PriceZeroCouponBond(T)
		if err != nil {
			out.Prices = append(out.Prices, priceJSON{Maturity: T, Error: err.Error()})
			continue
		}
		out.Prices = append(out.Prices, priceJSON{Maturity: T, Price: p})
	}

	sse := 0.0
	for _, r := range calibration.Residuals(model, ts) {
		if r.Err != nil {
			return out, nil
		}
		sse += r.Diff() * r.Diff()
	}
	out.SSE = &sse
	return out, nil
}

func readInput(path string, stdin io.Reader) ([]byte, error) {
	if path != "" {
		return os.ReadFile(path)
	}
	return io.ReadAll(stdin)
}

func parseInputs(raw []byte) ([]priceInput, bool, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, false, fmt.Errorf("empty input")
	}
	if trimmed[0] == '[' {
		var inputs []priceInput
		if err := json.Unmarshal(trimmed, &inputs); err != nil {
			return nil, true, err
		}
		if len(inputs) == 0 {
			return nil, true, fmt.Errorf("empty input array")
		}
		return inputs, true, nil
	}
	var input priceInput
	if err := json.Unmarshal(trimmed, &input); err != nil {
		return nil, false, err
	}
	return []priceInput{input}, false, nil
}

func writeFailure(w io.Writer, msg string) int {
	_ = json.NewEncoder(w).Encode(priceOutput{Error: msg})
	return 1
}
