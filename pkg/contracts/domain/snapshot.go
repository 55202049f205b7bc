package domain

import (
	"bytes"
	"encoding/json"
	"time"
)

// MonthlySeries holds one value per reporting month, aligned by column
// position with the sheet's month header.
type MonthlySeries []float64

// Len returns the number of months in the series
func (s MonthlySeries) Len() int { return len(s) }

// Last returns the latest month's value, or 0 for an empty series.
func (s MonthlySeries) Last() float64 {
	if len(s) == 0 {
		return 0
	}
	return s[len(s)-1]
}

// Change returns the month-over-month change of the latest value. It is
// absent when fewer than two months exist.
func (s MonthlySeries) Change() *float64 {
	if len(s) < 2 {
		return nil
	}
	d := s[len(s)-1] - s[len(s)-2]
	return &d
}

// Ratio is a per-month ratio that is undefined when its denominator is
// zero. Undefined ratios serialise as JSON null.
type Ratio struct {
	Value   float64
	Defined bool
}

// DefinedRatio wraps a computed value
func DefinedRatio(v float64) Ratio { return Ratio{Value: v, Defined: true} }

// UndefinedRatio is the result of a zero denominator
func UndefinedRatio() Ratio { return Ratio{} }

// Above reports whether the ratio is defined and strictly greater than t.
func (r Ratio) Above(t float64) bool { return r.Defined && r.Value > t }

// MarshalJSON implements json.Marshaler
func (r Ratio) MarshalJSON() ([]byte, error) {
	if !r.Defined {
		return []byte("null"), nil
	}
	return json.Marshal(r.Value)
}

// UnmarshalJSON implements json.Unmarshaler
func (r *Ratio) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*r = UndefinedRatio()
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*r = DefinedRatio(v)
	return nil
}

// FinancialSnapshot is the derived view of one uploaded workbook. It is
// computed per upload and never persisted.
type FinancialSnapshot struct {
	Months []string `json:"months"`

	// Latest-month figures
	RentalIncome       float64  `json:"rental_income"`
	RentalIncomeChange *float64 `json:"rental_income_change"`
	ProjectedRent      float64  `json:"projected_rent"`
	OccupiedSqFt       float64  `json:"occupied_sq_ft"`
	NetRentableSqFt    float64  `json:"net_rentable_sq_ft"`
	Occupancy          float64  `json:"occupancy"`
	OccupancyChange    *float64 `json:"occupancy_change"`
	DSCR               Ratio    `json:"dscr"`

	Cash         float64 `json:"cash"`
	Escrow       float64 `json:"escrow"`
	CashReserves float64 `json:"cash_reserves"`

	// MonthsToPositiveDSCR is nil when no month has DSCR above 1.0.
	MonthsToPositiveDSCR *int    `json:"months_to_positive_dscr"`
	CumulativeDeficit    float64 `json:"cumulative_deficit"`
	FundingGap           float64 `json:"funding_gap"`

	InterestFallbackUsed bool `json:"interest_fallback_used"`

	Series SnapshotSeries `json:"series"`
}

// SnapshotSeries carries the month-indexed inputs and outputs used for
// charting and export.
type SnapshotSeries struct {
	RentalIncome      MonthlySeries `json:"rental_income"`
	Occupancy         MonthlySeries `json:"occupancy"`
	OperatingCashFlow MonthlySeries `json:"operating_cash_flow"`
	InterestExpense   MonthlySeries `json:"interest_expense"`
	DSCR              []Ratio       `json:"dscr"`
	CumulativeDeficit MonthlySeries `json:"cumulative_deficit"`
}

// BreakEvenReached reports whether any month reached positive DSCR.
func (s *FinancialSnapshot) BreakEvenReached() bool {
	return s.MonthsToPositiveDSCR != nil
}

// Narrative is the optional natural-language commentary on a snapshot.
// Error is populated instead of Text when generation failed.
type Narrative struct {
	Provider    string    `json:"provider"`
	Model       string    `json:"model,omitempty"`
	Text        string    `json:"text,omitempty"`
	Error       string    `json:"error,omitempty"`
	GeneratedAt time.Time `json:"generated_at,omitempty"`
}

// Available reports whether narrative text was produced.
func (n *Narrative) Available() bool {
	return n != nil && n.Text != "" && n.Error == ""
}

// AnalysisReport is the response for one analysed workbook.
type AnalysisReport struct {
	ID          string            `json:"id"`
	FileName    string            `json:"file_name"`
	GeneratedAt time.Time         `json:"generated_at"`
	Snapshot    FinancialSnapshot `json:"snapshot"`
	Narrative   *Narrative        `json:"narrative,omitempty"`
}
