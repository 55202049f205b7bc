// Package analysis derives debt-service and funding metrics from the
// monthly series of a reporting workbook.
package analysis

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"storagefin/internal/config"
	apperrors "storagefin/internal/errors"
	"storagefin/pkg/contracts/domain"
)

// ErrLengthMismatch is returned when paired series cover different months.
var ErrLengthMismatch = errors.New("series length mismatch")

// RatioPlaces is the number of decimals DSCR values are rounded to.
const RatioPlaces = 2

// DSCR divides operating cash flow by interest expense month by month.
// Values are rounded half-to-even to two decimals; a zero interest month
// yields an undefined ratio.
func DSCR(opCashFlow, interest domain.MonthlySeries) ([]domain.Ratio, error) {
	if opCashFlow.Len() != interest.Len() {
		return nil, apperrors.NewParsingError(
			fmt.Sprintf("operating cash flow has %d months, interest expense has %d", opCashFlow.Len(), interest.Len()),
			ErrLengthMismatch)
	}

	out := make([]domain.Ratio, opCashFlow.Len())
	for i := range opCashFlow {
		den := decimal.NewFromFloat(interest[i])
		if den.IsZero() {
			out[i] = domain.UndefinedRatio()
			continue
		}
		v, _ := decimal.NewFromFloat(opCashFlow[i]).Div(den).RoundBank(RatioPlaces).Float64()
		out[i] = domain.DefinedRatio(v)
	}
	return out, nil
}

// MonthsToPositive returns the index of the first month whose DSCR is
// defined and above break-even. ok is false when no month qualifies.
func MonthsToPositive(dscr []domain.Ratio) (month int, ok bool) {
	for i, r := range dscr {
		if r.Above(config.DSCRBreakEven) {
			return i, true
		}
	}
	return 0, false
}

// CumulativeDeficit returns the running total of negative cash flow
// magnitudes: cum[i] = sum over j <= i of max(0, -cf[j]).
func CumulativeDeficit(cf domain.MonthlySeries) domain.MonthlySeries {
	out := make(domain.MonthlySeries, cf.Len())
	total := decimal.Zero
	for i, v := range cf {
		if v < 0 {
			total = total.Add(decimal.NewFromFloat(v).Neg())
		}
		out[i], _ = total.Float64()
	}
	return out
}

// DeficitAt returns the cumulative deficit at the break-even month when
// one exists, otherwise at the last month. An empty series yields 0.
func DeficitAt(cum domain.MonthlySeries, breakEven int, ok bool) float64 {
	if cum.Len() == 0 {
		return 0
	}
	if ok && breakEven >= 0 && breakEven < cum.Len() {
		return cum[breakEven]
	}
	return cum.Last()
}

// FundingGap is the part of the deficit reserves do not cover. It is
// never negative.
func FundingGap(deficit, reserves float64) float64 {
	gap := decimal.NewFromFloat(deficit).Sub(decimal.NewFromFloat(reserves))
	v, _ := decimal.Max(decimal.Zero, gap).Float64()
	return v
}

// ReserveTotal adds the balance-sheet cash and escrow fields.
func ReserveTotal(cash, escrow float64) float64 {
	v, _ := decimal.NewFromFloat(cash).Add(decimal.NewFromFloat(escrow)).Float64()
	return v
}
