package exporter

import (
	"github.com/shopspring/decimal"

	"storagefin/pkg/contracts/domain"
)

// formatFloat formats a value with exactly 2 decimal places so that 13.4
// appears as 13.40.
func formatFloat(f float64) string {
	return decimal.NewFromFloat(f).StringFixedBank(2)
}

// formatPercentPoints writes a fraction such as 0.925 as 92.50.
func formatPercentPoints(frac float64) string {
	return decimal.NewFromFloat(frac).Shift(2).StringFixedBank(2)
}

// formatRatio leaves undefined ratios empty.
func formatRatio(r domain.Ratio) string {
	if !r.Defined {
		return ""
	}
	return formatFloat(r.Value)
}
