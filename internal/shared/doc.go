// Package shared holds helpers used by more than one package's tests.
//
// testutil provides a buffered slog handler for asserting on log output
// and builders that produce .xlsx workbook fixtures in memory.
package shared
