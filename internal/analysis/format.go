package analysis

import (
	"strings"

	"github.com/shopspring/decimal"

	"storagefin/pkg/contracts/domain"
)

// FormatAmount renders v rounded to whole units with thousands
// separators, e.g. "-12,500".
func FormatAmount(v float64) string {
	return groupThousands(decimal.NewFromFloat(v).Round(0).StringFixed(0))
}

// FormatCurrency renders v as whole dollars, e.g. "$50,500" or "-$5,000".
func FormatCurrency(v float64) string {
	s := FormatAmount(v)
	if strings.HasPrefix(s, "-") {
		return "-$" + s[1:]
	}
	return "$" + s
}

// FormatPercent renders a fraction as a percentage with one decimal,
// e.g. 0.92 -> "92.0%".
func FormatPercent(frac float64) string {
	return decimal.NewFromFloat(frac).Shift(2).StringFixed(1) + "%"
}

// FormatRatio renders a ratio with two decimals or "n/a" when undefined.
func FormatRatio(r domain.Ratio) string {
	if !r.Defined {
		return "n/a"
	}
	return decimal.NewFromFloat(r.Value).StringFixed(2)
}

func groupThousands(s string) string {
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	if s == "0" {
		sign = ""
	}

	var b strings.Builder
	pre := len(s) % 3
	if pre > 0 {
		b.WriteString(s[:pre])
	}
	for i := pre; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	return sign + b.String()
}
