// Package workbook loads monthly reporting workbooks and reads labelled
// rows out of their sheets as month-aligned numeric series.
package workbook

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"

	"storagefin/internal/config"
	apperrors "storagefin/internal/errors"
)

// Format identifies a workbook file format.
type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatXLS  Format = "xls"
)

// Layout locates labels, the month header and values in every sheet.
// All indices are zero-based.
type Layout struct {
	LabelColumn      int
	HeaderRow        int
	FirstValueColumn int
}

// LayoutFrom builds a Layout from workbook configuration.
func LayoutFrom(cfg config.WorkbookConfig) Layout {
	return Layout{
		LabelColumn:      cfg.LabelColumn,
		HeaderRow:        cfg.HeaderRow,
		FirstValueColumn: cfg.FirstValueColumn,
	}
}

// DetectFormat maps a file name to its workbook format.
func DetectFormat(name string) (Format, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".xlsx", ".xlsm":
		return FormatXLSX, nil
	case ".xls":
		return FormatXLS, nil
	default:
		return "", apperrors.NewAppValidationError(
			fmt.Sprintf("unsupported workbook type %q: expected .xlsx, .xlsm or .xls", filepath.Ext(name)))
	}
}

// Workbook is a set of parsed sheets addressed by name.
type Workbook struct {
	name   string
	sheets map[string]*Sheet
	order  []string
}

// New returns an empty workbook.
func New(name string) *Workbook {
	return &Workbook{name: name, sheets: make(map[string]*Sheet)}
}

// Add registers a sheet, replacing any sheet of the same name.
func (w *Workbook) Add(s *Sheet) {
	if _, ok := w.sheets[s.Name()]; !ok {
		w.order = append(w.order, s.Name())
	}
	w.sheets[s.Name()] = s
}

// Name returns the source file name
func (w *Workbook) Name() string { return w.name }

// SheetNames lists sheets in workbook order
func (w *Workbook) SheetNames() []string {
	return append([]string(nil), w.order...)
}

// Sheet returns the named sheet or a missing-data error.
func (w *Workbook) Sheet(name string) (*Sheet, error) {
	s, ok := w.sheets[name]
	if !ok {
		return nil, apperrors.NewSheetMissing(name)
	}
	return s, nil
}

// Require checks that every named sheet exists. The first absent sheet is
// reported.
func (w *Workbook) Require(names ...string) error {
	for _, n := range names {
		if _, err := w.Sheet(n); err != nil {
			return err
		}
	}
	return nil
}

// Loader parses uploaded workbooks into Workbooks.
type Loader struct {
	layout Layout
	logger *slog.Logger
}

// NewLoader creates a loader for the given layout
func NewLoader(layout Layout, logger *slog.Logger) *Loader {
	return &Loader{
		layout: layout,
		logger: logger.With(slog.String("component", "workbook_loader")),
	}
}

// Open loads a workbook from disk.
func (l *Loader) Open(ctx context.Context, path string) (*Workbook, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("workbook %s", path))
	}
	defer f.Close()
	return l.Load(ctx, filepath.Base(path), f)
}

// Load parses a workbook read from r. name selects the format by extension.
func (l *Loader) Load(ctx context.Context, name string, r io.Reader) (*Workbook, error) {
	format, err := DetectFormat(name)
	if err != nil {
		return nil, err
	}

	var wb *Workbook
	switch format {
	case FormatXLS:
		wb, err = l.loadXLS(ctx, name, r)
	default:
		wb, err = l.loadXLSX(ctx, name, r)
	}
	if err != nil {
		return nil, err
	}

	l.logger.DebugContext(ctx, "workbook loaded",
		slog.String("file", name),
		slog.String("format", string(format)),
		slog.Any("sheets", wb.SheetNames()))
	return wb, nil
}

func (l *Loader) loadXLSX(ctx context.Context, name string, r io.Reader) (*Workbook, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, apperrors.NewParsingError("cannot read xlsx workbook", err)
	}
	defer f.Close()

	wb := New(name)
	for _, sheetName := range f.GetSheetList() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		// Raw values keep full precision; the header row is read formatted
		// so date months display as the workbook shows them.
		cells, err := f.GetRows(sheetName, excelize.Options{RawCellValue: true})
		if err != nil {
			return nil, apperrors.NewParsingError(fmt.Sprintf("cannot read sheet %q", sheetName), err)
		}
		display, err := f.GetRows(sheetName)
		if err != nil {
			return nil, apperrors.NewParsingError(fmt.Sprintf("cannot read sheet %q", sheetName), err)
		}

		var header []string
		if l.layout.HeaderRow < len(display) {
			header = display[l.layout.HeaderRow]
		}
		wb.Add(NewSheet(sheetName, cells, header, l.layout))
	}
	return wb, nil
}

func (l *Loader) loadXLS(ctx context.Context, name string, r io.Reader) (wb *Workbook, err error) {
	// the BIFF reader panics on some malformed files
	defer func() {
		if rec := recover(); rec != nil {
			wb, err = nil, apperrors.NewParsingError("cannot read xls workbook", fmt.Errorf("%v", rec))
		}
	}()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, apperrors.NewParsingError("cannot read xls upload", err)
	}

	book, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
	if err != nil {
		return nil, apperrors.NewParsingError("cannot read xls workbook", err)
	}

	wb = New(name)
	for i := 0; i < book.NumSheets(); i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		sheet := book.GetSheet(i)
		if sheet == nil {
			continue
		}

		cells := make([][]string, 0, int(sheet.MaxRow)+1)
		for ri := 0; ri <= int(sheet.MaxRow); ri++ {
			row := xlsRow(sheet, ri)
			if row == nil {
				cells = append(cells, nil)
				continue
			}
			var cols []string
			for ci := 0; ci <= row.LastCol(); ci++ {
				cols = append(cols, row.Col(ci))
			}
			cells = append(cells, trimTrailingBlanks(cols))
		}
		wb.Add(NewSheet(sheet.Name, cells, nil, l.layout))
	}
	return wb, nil
}

// xlsRow returns row i of sheet, or nil when the row holds no cells.
// WorkSheet.Row dereferences its map entry unchecked and panics on
// blank rows.
func xlsRow(sheet *xls.WorkSheet, i int) (row *xls.Row) {
	defer func() {
		if recover() != nil {
			row = nil
		}
	}()
	return sheet.Row(i)
}

func trimTrailingBlanks(cols []string) []string {
	n := len(cols)
	for n > 0 && isBlank(cols[n-1]) {
		n--
	}
	return cols[:n]
}
