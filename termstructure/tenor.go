package termstructure

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ParseTenor converts tenor strings like "1W", "3M", "10Y" to year fractions.
// A bare number is read as years.
func ParseTenor(tenor string) (float64, error) {
	s := strings.TrimSpace(strings.ToUpper(tenor))
	if s == "" {
		return 0, fmt.Errorf("ParseTenor: empty tenor")
	}

	unit := s[len(s)-1]
	body := s[:len(s)-1]
	var perYear float64
	switch unit {
	case 'D':
		perYear = 365.0
	case 'W':
		perYear = 365.0 / 7.0
	case 'M':
		perYear = 12.0
	case 'Y':
		perYear = 1.0
	default:
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, fmt.Errorf("ParseTenor: %q: %w", tenor, err)
		}
		return v, nil
	}

	n, err := strconv.ParseFloat(body, 64)
	if err != nil {
		return 0, fmt.Errorf("ParseTenor: %q: %w", tenor, err)
	}
	if n < 0 {
		return 0, fmt.Errorf("ParseTenor: %q: negative tenor", tenor)
	}
	return n / perYear, nil
}

// DayCount is a year-fraction convention for dated pillars.
type DayCount string

const (
	Act360    DayCount = "ACT/360"
	Act365F   DayCount = "ACT/365F"
	Thirty360 DayCount = "30E/360"
)

// ParseDayCount normalises a convention name. "30/360" is read as 30E/360
// and an empty name as ACT/365F.
func ParseDayCount(name string) (DayCount, error) {
	switch dc := DayCount(strings.ToUpper(strings.TrimSpace(name))); dc {
	case "":
		return Act365F, nil
	case Act360, Act365F:
		return dc, nil
	case Thirty360, "30/360":
		return Thirty360, nil
	default:
		return "", fmt.Errorf("ParseDayCount: unsupported convention %q", name)
	}
}

// Fraction returns the year fraction from start to end. Only the calendar
// dates matter; times of day and locations are ignored.
func (dc DayCount) Fraction(start, end time.Time) float64 {
	switch dc {
	case Act360:
		return float64(civilDays(start, end)) / 360
	case Thirty360:
		y1, m1, d1 := start.Date()
		y2, m2, d2 := end.Date()
		n := 360*(y2-y1) + 30*(int(m2)-int(m1)) + min(d2, 30) - min(d1, 30)
		return float64(n) / 360
	default:
		return float64(civilDays(start, end)) / 365
	}
}

// YearFraction is ParseDayCount(convention).Fraction(start, end), treating
// an unknown convention as ACT/365F.
func YearFraction(start, end time.Time, convention string) float64 {
	dc, err := ParseDayCount(convention)
	if err != nil {
		dc = Act365F
	}
	return dc.Fraction(start, end)
}

func civilDays(start, end time.Time) int {
	day := func(t time.Time) int64 {
		y, m, d := t.Date()
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Unix() / 86400
	}
	return int(day(end) - day(start))
}
