package workbook

import (
	"strings"

	"github.com/xuri/excelize/v2"

	apperrors "storagefin/internal/errors"
	"storagefin/pkg/contracts/domain"
)

// LookupStatus is the outcome of a label lookup.
type LookupStatus int

const (
	NotFound LookupStatus = iota
	Found
	Ambiguous
)

// LookupResult is the result of resolving a label against a sheet's index.
type LookupResult struct {
	Status LookupStatus
	// Rows holds every matching zero-based row index.
	Rows []int
}

// Row returns the single matching row when Status is Found.
func (r LookupResult) Row() int {
	if r.Status != Found {
		return -1
	}
	return r.Rows[0]
}

// Sheet is a parsed worksheet with a label index built once on creation.
type Sheet struct {
	name   string
	layout Layout
	cells  [][]string
	months []string
	width  int
	index  map[string][]int
}

// NewSheet builds a sheet from a grid of cell values. header carries the
// display text of the month header row; nil falls back to cells.
func NewSheet(name string, cells [][]string, header []string, layout Layout) *Sheet {
	s := &Sheet{
		name:   name,
		layout: layout,
		cells:  cells,
		index:  make(map[string][]int),
	}

	for i, row := range cells {
		if len(row) > s.width {
			s.width = len(row)
		}
		if layout.LabelColumn < len(row) {
			label := normalizeLabel(row[layout.LabelColumn])
			if label != "" {
				s.index[label] = append(s.index[label], i)
			}
		}
	}

	if header == nil && layout.HeaderRow < len(cells) {
		header = cells[layout.HeaderRow]
	}
	s.months = monthHeaders(header, layout.FirstValueColumn)

	return s
}

// Name returns the worksheet name
func (s *Sheet) Name() string { return s.name }

// Months returns the month header labels. Its length is the length of
// every series read from this sheet.
func (s *Sheet) Months() []string {
	out := make([]string, len(s.months))
	copy(out, s.months)
	return out
}

// Lookup resolves label against the index. Labels match exactly after
// trimming leading and trailing whitespace.
func (s *Sheet) Lookup(label string) LookupResult {
	rows := s.index[normalizeLabel(label)]
	switch len(rows) {
	case 0:
		return LookupResult{Status: NotFound}
	case 1:
		return LookupResult{Status: Found, Rows: rows}
	default:
		return LookupResult{Status: Ambiguous, Rows: append([]int(nil), rows...)}
	}
}

// Row returns the row index for label or a missing-data error when the
// label is absent or ambiguous.
func (s *Sheet) Row(label string) (int, error) {
	res := s.Lookup(label)
	switch res.Status {
	case Found:
		return res.Row(), nil
	case Ambiguous:
		return -1, apperrors.NewLabelAmbiguous(s.name, label, res.Rows)
	default:
		return -1, apperrors.NewLabelMissing(s.name, label)
	}
}

// Series reads the month columns of the row labelled label.
func (s *Sheet) Series(label string) (domain.MonthlySeries, error) {
	row, err := s.Row(label)
	if err != nil {
		return nil, err
	}
	return s.seriesAt(label, row)
}

// SeriesOr reads label like Series, but when the label is absent returns a
// constant series of fallback with usedFallback set. Ambiguous labels and
// non-numeric cells still fail.
func (s *Sheet) SeriesOr(label string, fallback float64) (series domain.MonthlySeries, usedFallback bool, err error) {
	res := s.Lookup(label)
	if res.Status == NotFound {
		if len(s.months) == 0 {
			return nil, false, apperrors.NewNoMonths(s.name)
		}
		series = make(domain.MonthlySeries, len(s.months))
		for i := range series {
			series[i] = fallback
		}
		return series, true, nil
	}

	row, err := s.Row(label)
	if err != nil {
		return nil, false, err
	}
	series, err = s.seriesAt(label, row)
	return series, false, err
}

// Value reads a single-value field from the sheet's last column.
func (s *Sheet) Value(label string) (float64, error) {
	row, err := s.Row(label)
	if err != nil {
		return 0, err
	}

	col := s.width - 1
	raw := s.cell(row, col)
	if isBlank(raw) {
		return 0, apperrors.NewBlankValue(s.name, label, columnName(col))
	}
	v, ok := ParseNumber(raw)
	if !ok {
		return 0, apperrors.NewNonNumeric(s.name, label, columnName(col))
	}
	return v, nil
}

func (s *Sheet) seriesAt(label string, row int) (domain.MonthlySeries, error) {
	if len(s.months) == 0 {
		return nil, apperrors.NewNoMonths(s.name)
	}

	series := make(domain.MonthlySeries, len(s.months))
	for i := range series {
		col := s.layout.FirstValueColumn + i
		v, ok := ParseNumber(s.cell(row, col))
		if !ok {
			return nil, apperrors.NewNonNumeric(s.name, label, columnName(col))
		}
		series[i] = v
	}
	return series, nil
}

func (s *Sheet) cell(row, col int) string {
	if row < 0 || row >= len(s.cells) || col < 0 || col >= len(s.cells[row]) {
		return ""
	}
	return s.cells[row][col]
}

// monthHeaders returns the header cells from first up to the last
// non-blank one.
func monthHeaders(header []string, first int) []string {
	last := -1
	for i := len(header) - 1; i >= first; i-- {
		if !isBlank(header[i]) {
			last = i
			break
		}
	}
	if last < first {
		return nil
	}

	months := make([]string, 0, last-first+1)
	for _, h := range header[first : last+1] {
		months = append(months, strings.TrimSpace(h))
	}
	return months
}

// normalizeLabel drops surrounding whitespace only; interior spacing must
// match exactly.
func normalizeLabel(s string) string {
	return strings.TrimSpace(s)
}

// columnName converts a zero-based column index to its letter name.
func columnName(col int) string {
	name, err := excelize.ColumnNumberToName(col + 1)
	if err != nil {
		return "?"
	}
	return name
}
