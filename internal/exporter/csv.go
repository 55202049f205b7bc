package exporter

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"storagefin/pkg/contracts/domain"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// MonthlyHeaders are the column names of the monthly table.
var MonthlyHeaders = []string{
	"month",
	"rental_income",
	"occupancy_pct",
	"operating_cash_flow",
	"interest_expense",
	"dscr",
	"cumulative_deficit",
}

// WriteOptions configures CSV writing behavior
type WriteOptions struct {
	BOMPrefix bool // Add UTF-8 BOM for Excel compatibility
}

// CSVWriter exports snapshots as CSV.
type CSVWriter struct {
	logger *slog.Logger
}

// NewCSVWriter creates a new CSV writer instance
func NewCSVWriter(logger *slog.Logger) *CSVWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CSVWriter{logger: logger.With(slog.String("component", "csv_exporter"))}
}

// MonthlyRecords builds one record per month of the snapshot. A series
// shorter than the month axis leaves its trailing cells empty.
func MonthlyRecords(snap *domain.FinancialSnapshot) [][]string {
	s := snap.Series
	records := make([][]string, 0, len(snap.Months))
	for i, month := range snap.Months {
		records = append(records, []string{
			month,
			cell(s.RentalIncome, i, formatFloat),
			cell(s.Occupancy, i, formatPercentPoints),
			cell(s.OperatingCashFlow, i, formatFloat),
			cell(s.InterestExpense, i, formatFloat),
			ratioCell(s.DSCR, i),
			cell(s.CumulativeDeficit, i, formatFloat),
		})
	}
	return records
}

func cell(series domain.MonthlySeries, i int, format func(float64) string) string {
	if i >= len(series) {
		return ""
	}
	return format(series[i])
}

func ratioCell(series []domain.Ratio, i int) string {
	if i >= len(series) {
		return ""
	}
	return formatRatio(series[i])
}

// Write writes the monthly table of snap to out.
func (w *CSVWriter) Write(out io.Writer, snap *domain.FinancialSnapshot, options WriteOptions) error {
	if options.BOMPrefix {
		if _, err := out.Write(utf8BOM); err != nil {
			return fmt.Errorf("failed to write BOM: %w", err)
		}
	}

	writer := csv.NewWriter(out)
	if err := writer.Write(MonthlyHeaders); err != nil {
		return fmt.Errorf("failed to write headers: %w", err)
	}
	for i, record := range MonthlyRecords(snap) {
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteFile writes the monthly table to filePath, creating parent
// directories as needed and truncating any existing file.
func (w *CSVWriter) WriteFile(filePath string, snap *domain.FinancialSnapshot, options WriteOptions) error {
	w.logger.Info("Writing CSV file",
		slog.String("file_path", filePath),
		slog.Int("record_count", len(snap.Months)))

	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	file, err := os.Create(filePath)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}

	if err := w.Write(file, snap, options); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}
