// Package exporter writes the monthly table of a financial snapshot as CSV.
//
// One row is written per reporting month with rental income, occupancy,
// operating cash flow, interest expense, DSCR and the cumulative deficit.
// Undefined DSCR months are written as empty cells, and the optional UTF-8
// BOM lets Excel detect the encoding.
//
// Example usage:
//
//	w := exporter.NewCSVWriter(logger)
//	err := w.WriteFile("reports/package.csv", &report.Snapshot, exporter.WriteOptions{BOMPrefix: true})
package exporter
