package dataprocessing

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	// numericPrefix mirrors a lenient float parse: the longest leading number wins.
	numericPrefix = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?`)

	symbolStripper = strings.NewReplacer(
		"$", "",
		"¥", "",
		"￥", "",
		"%", "",
		",", "",
	)
)

// blankMarkers are cell values that mean "no data" in the exports we see.
var blankMarkers = map[string]struct{}{
	"":    {},
	"n/a": {},
	"na":  {},
	"-":   {},
}

// CleanNumber converts a cell value to a finite float64.
// It never fails: anything it cannot interpret becomes 0.
//
// Supported inputs are nil, strings, all built-in numeric kinds, json.Number
// and fmt.Stringer. Strings may carry currency symbols, percent signs,
// thousands separators, whitespace and a trailing K or M unit suffix.
// A fraction such as "0.99" is returned as-is; rescaling to a percentage is
// the caller's job (see RescalePercent).
func CleanNumber(v any) float64 {
	switch x := v.(type) {
	case nil:
		return 0
	case string:
		return cleanString(x)
	case float64:
		return finite(x)
	case float32:
		return finite(float64(x))
	case int:
		return float64(x)
	case int8:
		return float64(x)
	case int16:
		return float64(x)
	case int32:
		return float64(x)
	case int64:
		return float64(x)
	case uint:
		return float64(x)
	case uint8:
		return float64(x)
	case uint16:
		return float64(x)
	case uint32:
		return float64(x)
	case uint64:
		return float64(x)
	case json.Number:
		return cleanString(string(x))
	case fmt.Stringer:
		return cleanString(x.String())
	}
	return 0
}

func cleanString(s string) float64 {
	s = strings.TrimSpace(s)
	if _, blank := blankMarkers[strings.ToLower(s)]; blank {
		return 0
	}

	// unit suffix is detected before any symbol stripping
	multiplier := 1.0
	if n := len(s); n > 1 {
		switch s[n-1] {
		case 'k', 'K':
			multiplier = 1_000
			s = s[:n-1]
		case 'm', 'M':
			multiplier = 1_000_000
			s = s[:n-1]
		}
	}

	s = symbolStripper.Replace(s)
	s = strings.Join(strings.Fields(s), "")

	match := numericPrefix.FindString(s)
	if match == "" {
		return 0
	}
	f, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return 0
	}
	return finite(f * multiplier)
}

func finite(f float64) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// RescalePercent brings a ratio onto the 0-100 scale.
// Values in (0, 1] are treated as fractions and multiplied by 100; everything
// else is assumed to be scaled already and returned unchanged.
func RescalePercent(r float64) float64 {
	if r > 0 && r <= 1 {
		return r * 100
	}
	return r
}

// CleanPercent is CleanNumber followed by RescalePercent.
func CleanPercent(v any) float64 {
	return RescalePercent(CleanNumber(v))
}

// Round rounds half away from zero to the given number of decimal places.
func Round(v float64, places int32) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return decimal.NewFromFloat(v).Round(places).InexactFloat64()
}

// ParseCPM interprets user-supplied CPM text. Blank input yields def;
// non-numeric or negative input yields 0.
func ParseCPM(raw string, def float64) float64 {
	if strings.TrimSpace(raw) == "" {
		return def
	}
	cpm := CleanNumber(raw)
	if cpm < 0 {
		return 0
	}
	return cpm
}

// FormatNumber renders a cleaned value so that CleanNumber parses it back unchanged.
func FormatNumber(v float64) string {
	return strconv.FormatFloat(finite(v), 'f', -1, 64)
}
