package workbook

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// plainNumber admits decimal and exponent notation only. It keeps out the
// words ParseFloat also accepts (NaN, Inf) along with hex floats and
// underscore digit groups.
var plainNumber = regexp.MustCompile(`^[+-]?[0-9.]+([eE][+-]?[0-9]+)?$`)

var currencyReplacer = strings.NewReplacer(
	",", "",
	"$", "",
	"€", "",
	"£", "",
	" ", "",
	"\u00a0", "",
)

// ParseNumber coerces a spreadsheet cell to a number. Blank cells and the
// accounting dash are zero. Thousands separators and currency symbols are
// ignored, "(1,234)" is negative and "95%" is 0.95. ok is false for text
// that is not a finite decimal number.
func ParseNumber(raw string) (v float64, ok bool) {
	s := strings.TrimSpace(raw)
	if s == "" || s == "-" {
		return 0, true
	}

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = strings.TrimSpace(s[1 : len(s)-1])
	}

	percent := false
	if strings.HasSuffix(s, "%") {
		percent = true
		s = strings.TrimSuffix(s, "%")
	}

	s = currencyReplacer.Replace(s)
	if !plainNumber.MatchString(s) {
		return 0, false
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	if percent {
		v /= 100
	}
	if negative {
		v = -v
	}
	return v, true
}

// isBlank reports whether a cell carries no value at all.
func isBlank(raw string) bool {
	return strings.TrimSpace(raw) == ""
}
