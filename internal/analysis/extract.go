package analysis

import (
	"log/slog"

	"storagefin/internal/config"
	"storagefin/internal/workbook"
	"storagefin/pkg/contracts/domain"
)

// Inputs are the values read from a workbook before any derivation.
type Inputs struct {
	Months []string

	RentalIncome    domain.MonthlySeries
	ProjectedRent   domain.MonthlySeries
	OccupiedSqFt    domain.MonthlySeries
	NetRentableSqFt domain.MonthlySeries
	Occupancy       domain.MonthlySeries
	InterestExpense domain.MonthlySeries
	// InterestFallback is set when InterestExpense is the configured constant.
	InterestFallback bool

	OperatingCashFlow domain.MonthlySeries

	Cash   float64
	Escrow float64
}

// Extractor reads the configured sheets and labels out of a workbook.
type Extractor struct {
	sheets     config.SheetNames
	labels     config.LabelConfig
	extraction config.ExtractionConfig
	logger     *slog.Logger
}

// NewExtractor creates an extractor from workbook and extraction settings
func NewExtractor(wb config.WorkbookConfig, ext config.ExtractionConfig, logger *slog.Logger) *Extractor {
	return &Extractor{
		sheets:     wb.Sheets,
		labels:     wb.Labels,
		extraction: ext,
		logger:     logger.With(slog.String("component", "extractor")),
	}
}

// RequiredSheets lists the sheet names a workbook must contain
func (e *Extractor) RequiredSheets() []string {
	return []string{
		e.sheets.IncomeStatement,
		e.sheets.BudgetVsActual,
		e.sheets.CashFlow,
		e.sheets.BalanceSheet,
	}
}

// Extract resolves every required sheet and label. Any missing sheet or
// label aborts extraction with a missing-data error.
func (e *Extractor) Extract(wb *workbook.Workbook) (*Inputs, error) {
	if err := wb.Require(e.RequiredSheets()...); err != nil {
		return nil, err
	}

	is, _ := wb.Sheet(e.sheets.IncomeStatement)
	cf, _ := wb.Sheet(e.sheets.CashFlow)
	bs, _ := wb.Sheet(e.sheets.BalanceSheet)

	in := &Inputs{Months: is.Months()}

	series := []struct {
		label string
		dst   *domain.MonthlySeries
	}{
		{e.labels.RentalIncome, &in.RentalIncome},
		{e.labels.ProjectedRent, &in.ProjectedRent},
		{e.labels.OccupiedSqFt, &in.OccupiedSqFt},
		{e.labels.NetRentableSqFt, &in.NetRentableSqFt},
		{e.labels.Occupancy, &in.Occupancy},
	}
	for _, s := range series {
		v, err := is.Series(s.label)
		if err != nil {
			return nil, err
		}
		*s.dst = v
	}

	var err error
	if e.extraction.AllowInterestFallback {
		in.InterestExpense, in.InterestFallback, err = is.SeriesOr(e.labels.InterestExpense, e.extraction.InterestExpenseFallback)
	} else {
		in.InterestExpense, err = is.Series(e.labels.InterestExpense)
	}
	if err != nil {
		return nil, err
	}
	if in.InterestFallback {
		e.logger.Warn("interest expense row absent, using configured fallback",
			slog.String("sheet", is.Name()),
			slog.String("label", e.labels.InterestExpense),
			slog.Float64("fallback", e.extraction.InterestExpenseFallback))
	}

	if in.OperatingCashFlow, err = cf.Series(e.labels.OperatingCashFlow); err != nil {
		return nil, err
	}
	if in.Cash, err = bs.Value(e.labels.Cash); err != nil {
		return nil, err
	}
	if in.Escrow, err = bs.Value(e.labels.Escrow); err != nil {
		return nil, err
	}

	return in, nil
}
