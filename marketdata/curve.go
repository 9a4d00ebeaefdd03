// Package marketdata loads market yield curves and converts them to term structures.
package marketdata

import (
	"errors"
	"fmt"
	"math"
	"os"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v2"

	"github.com/meenmo/shortrate/termstructure"
)

// ErrInvalidCurve is returned for malformed curve files.
var ErrInvalidCurve = errors.New("invalid curve")

// Compounding conventions accepted in curve files.
const (
	Continuous = "continuous"
	Annual     = "annual"
)

// Yield units accepted in curve files.
const (
	UnitDecimal = "decimal"
	UnitPercent = "percent"
)

// Curve is the YAML representation of a zero-coupon yield curve.
//
//	as_of: 2025-01-02
//	compounding: continuous
//	unit: percent
//	day_count: ACT/365F
//	pillars:
//	  - tenor: 3M
//	    yield: 1.0
//	  - date: 2030-01-02
//	    yield: 2.5
type Curve struct {
	Name        string   `yaml:"name"`
	AsOf        string   `yaml:"as_of"`
	Compounding string   `yaml:"compounding"`
	Unit        string   `yaml:"unit"`
	DayCount    string   `yaml:"day_count"`
	Pillars     []Pillar `yaml:"pillars"`
}

// Pillar is one quoted zero yield. Exactly one of Tenor or Date is set.
type Pillar struct {
	Tenor string  `yaml:"tenor"`
	Date  string  `yaml:"date"`
	Yield float64 `yaml:"yield"`
}

// Point is a resolved pillar: maturity in years and decimal zero yield.
type Point struct {
	Maturity float64
	Yield    float64
}

// LoadCurve reads and parses a curve file.
func LoadCurve(path string) (*Curve, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("LoadCurve: %w", err)
	}
	c, err := ParseCurve(raw)
	if err != nil {
		return nil, fmt.Errorf("LoadCurve: %s: %w", path, err)
	}
	return c, nil
}

// ParseCurve parses YAML bytes and applies defaults
// (continuous compounding, decimal unit, ACT/365F).
func ParseCurve(raw []byte) (*Curve, error) {
	var c Curve
	if err := yaml.UnmarshalStrict(raw, &c); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCurve, err)
	}
	if c.Compounding == "" {
		c.Compounding = Continuous
	}
	if c.Unit == "" {
		c.Unit = UnitDecimal
	}
	if c.DayCount == "" {
		c.DayCount = "ACT/365F"
	}
	c.Compounding = strings.ToLower(c.Compounding)
	c.Unit = strings.ToLower(c.Unit)
	dc, err := termstructure.ParseDayCount(c.DayCount)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCurve, err)
	}
	c.DayCount = string(dc)
	if len(c.Pillars) == 0 {
		return nil, fmt.Errorf("%w: no pillars", ErrInvalidCurve)
	}
	return &c, nil
}

// Points resolves every pillar to a maturity and a continuously compounded
// decimal yield, sorted by maturity.
func (c *Curve) Points() ([]Point, error) {
	var asOf time.Time
	if c.AsOf != "" {
		t, err := time.Parse("2006-01-02", c.AsOf)
		if err != nil {
			return nil, fmt.Errorf("%w: as_of: %v", ErrInvalidCurve, err)
		}
		asOf = t
	}

	seen := make(map[float64]struct{}, len(c.Pillars))
	points := make([]Point, 0, len(c.Pillars))
	for i, p := range c.Pillars {
		m, err := c.maturity(p, asOf)
		if err != nil {
			return nil, fmt.Errorf("%w: pillar %d: %v", ErrInvalidCurve, i, err)
		}
		if _, dup := seen[m]; dup {
			return nil, fmt.Errorf("%w: pillar %d: duplicate maturity %v", ErrInvalidCurve, i, m)
		}
		seen[m] = struct{}{}

		y, err := c.continuousYield(p.Yield)
		if err != nil {
			return nil, fmt.Errorf("%w: pillar %d: %v", ErrInvalidCurve, i, err)
		}
		points = append(points, Point{Maturity: m, Yield: y})
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Maturity < points[j].Maturity })
	return points, nil
}

func (c *Curve) maturity(p Pillar, asOf time.Time) (float64, error) {
	switch {
	case p.Tenor != "" && p.Date != "":
		return 0, fmt.Errorf("both tenor and date set")
	case p.Tenor != "":
		return termstructure.ParseTenor(p.Tenor)
	case p.Date != "":
		if asOf.IsZero() {
			return 0, fmt.Errorf("dated pillar requires as_of")
		}
		d, err := time.Parse("2006-01-02", p.Date)
		if err != nil {
			return 0, err
		}
		if d.Before(asOf) {
			return 0, fmt.Errorf("date %s before as_of", p.Date)
		}
		return termstructure.DayCount(c.DayCount).Fraction(asOf, d), nil
	default:
		return 0, fmt.Errorf("tenor or date required")
	}
}

func (c *Curve) continuousYield(y float64) (float64, error) {
	switch c.Unit {
	case UnitDecimal:
	case UnitPercent:
		y /= 100.0
	default:
		return 0, fmt.Errorf("unknown unit %q", c.Unit)
	}
	switch c.Compounding {
	case Continuous:
		return y, nil
	case Annual:
		if y <= -1 {
			return 0, fmt.Errorf("annual yield %v <= -100%%", y)
		}
		return math.Log1p(y), nil
	default:
		return 0, fmt.Errorf("unknown compounding %q", c.Compounding)
	}
}

// TermStructure converts the curve to market ZCB prices, P = exp(-y·T).
func (c *Curve) TermStructure() (*termstructure.TermStructure, error) {
	points, err := c.Points()
	if err != nil {
		return nil, err
	}
	yields := make(map[float64]float64, len(points))
	for _, p := range points {
		yields[p.Maturity] = p.Yield
	}
	ts, err := termstructure.FromYields(yields)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCurve, err)
	}
	return ts, nil
}

// ShortRate approximates r0 by the yield of the shortest pillar.
func (c *Curve) ShortRate() (float64, error) {
	points, err := c.Points()
	if err != nil {
		return 0, err
	}
	return points[0].Yield, nil
}
