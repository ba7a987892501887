package comparison

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// numericPattern accepts an optional sign, digits with at most one decimal
// point, and an optional exponent. Nothing else, not even spaces.
var numericPattern = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?$`)

// ParseNumeric interprets s as a finite number.
func ParseNumeric(s string) (float64, bool) {
	if !numericPattern.MatchString(s) {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// formatFloat renders f the way difference descriptions have always shown
// numbers: "30.0", "2.5", "1e+16", "1.5e-05".
func formatFloat(f float64) string {
	abs := math.Abs(f)
	if abs != 0 && (abs < 1e-4 || abs >= 1e16) {
		return strconv.FormatFloat(f, 'e', -1, 64)
	}
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
