// Package utils provides number and date formatting shared by the charts,
// the page templates and the JSON API.
package utils

import (
	"math"
	"strconv"
	"strings"
)

// ToFixed formats v with the given number of decimals, rounding halves away
// from zero. Negative zero is printed without a sign.
func ToFixed(v float64, digits int) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	p := math.Pow(10, float64(digits))
	r := math.Round(v*p) / p
	if r == 0 {
		r = 0
	}
	return strconv.FormatFloat(r, 'f', digits, 64)
}

// RoundTo rounds v to the given number of decimals.
func RoundTo(v float64, digits int) float64 {
	p := math.Pow(10, float64(digits))
	return math.Round(v*p) / p
}

// RoundHalfUp rounds to the nearest integer with halves going towards
// positive infinity, so -2.5 becomes -2.
func RoundHalfUp(v float64) float64 {
	return math.Floor(v + 0.5)
}

// LabelClean formats a quantity with a B/M/K suffix and one decimal,
// dropping a trailing ".0". Non-finite values yield "".
//
//	1_234_567 → "1.2M", 2_000 → "2K", 950 → "950"
func LabelClean(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return ""
	}
	abs := math.Abs(v)
	var s, suffix string
	switch {
	case abs >= 1e9:
		s, suffix = ToFixed(v/1e9, 1), "B"
	case abs >= 1e6:
		s, suffix = ToFixed(v/1e6, 1), "M"
	case abs >= 1e3:
		s, suffix = ToFixed(v/1e3, 1), "K"
	default:
		s = ToFixed(v, 1)
	}
	return strings.TrimSuffix(s, ".0") + suffix
}

// Signed prefixes non-negative values with "+".
func Signed(v float64, digits int) string {
	s := ToFixed(v, digits)
	if v >= 0 && !strings.HasPrefix(s, "-") {
		return "+" + s
	}
	return s
}

// SignedPct formats a percentage: 3.456 → "+3.46%".
func SignedPct(v float64) string {
	return Signed(v, 2) + "%"
}

// SignedPP formats a contribution in percentage points with the given
// precision: (0.4213, 2) → "+0.42 pp".
func SignedPP(v float64, digits int) string {
	return Signed(v, digits) + " pp"
}

// WholePct formats a fraction as a rounded whole percentage with an
// explicit sign: 0.123 → "+12%", -0.05 → "-5%".
func WholePct(frac float64) string {
	n := RoundHalfUp(frac * 100)
	if n >= 0 {
		return "+" + strconv.FormatFloat(n, 'f', 0, 64) + "%"
	}
	return strconv.FormatFloat(n, 'f', 0, 64) + "%"
}

// AxisPct formats a fraction for a percentage axis: 0.5 → "50%".
func AxisPct(frac float64) string {
	n := RoundHalfUp(frac * 100)
	if n == 0 {
		n = 0
	}
	return strconv.FormatFloat(n, 'f', 0, 64) + "%"
}

// Multiplier formats a ratio for a log-scale axis: 1.25 → "1.25×".
func Multiplier(v float64) string {
	s := strconv.FormatFloat(v, 'f', 6, 64)
	s = strings.TrimRight(s, "0")
	s = strings.TrimSuffix(s, ".")
	return s + "×"
}
