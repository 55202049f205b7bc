package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"
)

// Default sheet and row labels of the reporting workbook.
const (
	SheetIncomeStatement = "Rolling IS 7988"
	SheetBudgetVsActual  = "BvA 7988"
	SheetCashFlow        = "Cash Flow 7988"
	SheetBalanceSheet    = "Balance Sheet 7988"

	LabelRentalIncome      = "Rental Income (4000)"
	LabelProjectedRent     = "Projected Rent (9975)"
	LabelOccupiedSqFt      = "Occupied Sq. Ft. (9955)"
	LabelNetRentableSqFt   = "Net Rentable Square Feet (9951)"
	LabelOccupancy         = "Sq. Ft. Occupancy (9960)"
	LabelInterestExpense   = "Interest Expense (6015)"
	LabelOperatingCashFlow = "Cash Provided By / (Used In) Operating Activities"
	LabelCash              = "Cash"
	LabelEscrow            = "Escrow/Earnest Money Deposits"
)

// RowFixture is one labelled row; Values start at the first value column.
type RowFixture struct {
	Label  string
	Values []any
}

// SheetFixture describes one worksheet of a fixture workbook.
type SheetFixture struct {
	Name   string
	Months []any
	Rows   []RowFixture
}

// AddRow appends a labelled row and returns the sheet for chaining.
func (s *SheetFixture) AddRow(label string, values ...any) *SheetFixture {
	s.Rows = append(s.Rows, RowFixture{Label: label, Values: values})
	return s
}

// RemoveRow drops every row carrying label.
func (s *SheetFixture) RemoveRow(label string) *SheetFixture {
	kept := s.Rows[:0]
	for _, r := range s.Rows {
		if r.Label != label {
			kept = append(kept, r)
		}
	}
	s.Rows = kept
	return s
}

// WorkbookFixture builds .xlsx workbooks laid out like the monthly
// reporting package: title rows, a month header row and labelled rows
// below it. Indices are zero-based.
type WorkbookFixture struct {
	LabelColumn      int
	HeaderRow        int
	FirstValueColumn int
	Sheets           []*SheetFixture
}

// NewWorkbookFixture returns an empty fixture using the default layout.
func NewWorkbookFixture() *WorkbookFixture {
	return &WorkbookFixture{LabelColumn: 2, HeaderRow: 3, FirstValueColumn: 3}
}

// AddSheet appends a sheet with the given month headers.
func (w *WorkbookFixture) AddSheet(name string, months ...any) *SheetFixture {
	s := &SheetFixture{Name: name, Months: months}
	w.Sheets = append(w.Sheets, s)
	return s
}

// Sheet returns the named sheet or nil.
func (w *WorkbookFixture) Sheet(name string) *SheetFixture {
	for _, s := range w.Sheets {
		if s.Name == name {
			return s
		}
	}
	return nil
}

// RemoveSheet drops the named sheet.
func (w *WorkbookFixture) RemoveSheet(name string) *WorkbookFixture {
	kept := w.Sheets[:0]
	for _, s := range w.Sheets {
		if s.Name != name {
			kept = append(kept, s)
		}
	}
	w.Sheets = kept
	return w
}

// Bytes renders the fixture as an .xlsx document.
func (w *WorkbookFixture) Bytes(t testing.TB) []byte {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	for i, s := range w.Sheets {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", s.Name); err != nil {
				t.Fatalf("rename sheet: %v", err)
			}
		} else if _, err := f.NewSheet(s.Name); err != nil {
			t.Fatalf("create sheet %q: %v", s.Name, err)
		}
		w.writeSheet(t, f, s)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("write workbook: %v", err)
	}
	return buf.Bytes()
}

// WriteFile writes the fixture into a temp directory and returns its path.
func (w *WorkbookFixture) WriteFile(t testing.TB, name string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, w.Bytes(t), 0644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}

func (w *WorkbookFixture) writeSheet(t testing.TB, f *excelize.File, s *SheetFixture) {
	t.Helper()

	set := func(col, row int, v any) {
		cell, err := excelize.CoordinatesToCellName(col+1, row+1)
		if err != nil {
			t.Fatalf("cell name: %v", err)
		}
		if err := f.SetCellValue(s.Name, cell, v); err != nil {
			t.Fatalf("set %s!%s: %v", s.Name, cell, err)
		}
	}

	set(0, 0, "Storage Property 7988")
	set(0, 1, s.Name)
	set(w.LabelColumn, w.HeaderRow, "Account")
	for i, m := range s.Months {
		set(w.FirstValueColumn+i, w.HeaderRow, m)
	}

	row := w.HeaderRow + 2
	for _, r := range s.Rows {
		set(0, row, "GL")
		set(w.LabelColumn, row, r.Label)
		for i, v := range r.Values {
			if v == nil {
				continue
			}
			set(w.FirstValueColumn+i, row, v)
		}
		row++
	}
}

// ExampleWorkbook is a two-month package whose cash flow turns positive in
// the second month: DSCR [-0.5, 1.2], break-even at month 1, deficit 5000,
// reserves 4000 and a funding gap of 1000.
func ExampleWorkbook() *WorkbookFixture {
	w := NewWorkbookFixture()

	w.AddSheet(SheetIncomeStatement, "Jan 2025", "Feb 2025").
		AddRow("Income").
		AddRow(LabelRentalIncome, 48000.0, 50500.0).
		AddRow(LabelProjectedRent, 55000.0, 55000.0).
		AddRow(LabelOccupiedSqFt, 45000.0, 46000.0).
		AddRow(LabelNetRentableSqFt, 50000.0, 50000.0).
		AddRow(LabelOccupancy, 0.9, 0.92).
		AddRow("Expenses").
		AddRow(LabelInterestExpense, 10000.0, 10000.0)

	w.AddSheet(SheetBudgetVsActual, "Actual", "Budget", "Variance").
		AddRow(LabelRentalIncome, 50500.0, 52000.0, -1500.0)

	w.AddSheet(SheetCashFlow, "Jan 2025", "Feb 2025").
		AddRow("Net Income", -2000.0, 15000.0).
		AddRow(LabelOperatingCashFlow, -5000.0, 12000.0)

	w.AddSheet(SheetBalanceSheet, "Prior", "Current").
		AddRow(LabelCash, 2500.0, 3000.0).
		AddRow(LabelEscrow, 900.0, 1000.0)

	return w
}
