package errors

import (
	"errors"
	"fmt"
)

// ErrMissingData matches every MissingDataError through errors.Is.
var ErrMissingData = errors.New("missing data")

// MissingReason says why a sheet or row could not be used.
type MissingReason string

const (
	ReasonSheetNotFound MissingReason = "sheet not found"
	ReasonLabelNotFound MissingReason = "label not found"
	ReasonAmbiguous     MissingReason = "label ambiguous"
	ReasonNonNumeric    MissingReason = "non-numeric value"
	ReasonNoMonths      MissingReason = "no month columns"
	ReasonBlank         MissingReason = "blank value"
)

// MissingDataError reports a required sheet or label that is absent or
// unusable. Label and Column are empty when the whole sheet is missing.
type MissingDataError struct {
	Sheet  string        `json:"sheet"`
	Label  string        `json:"label,omitempty"`
	Column string        `json:"column,omitempty"`
	Reason MissingReason `json:"reason"`
	Rows   []int         `json:"rows,omitempty"`
}

// Error implements the error interface
func (e *MissingDataError) Error() string {
	switch {
	case e.Label == "":
		return fmt.Sprintf("missing data: sheet %q: %s", e.Sheet, e.Reason)
	case e.Column != "":
		return fmt.Sprintf("missing data: sheet %q label %q column %s: %s", e.Sheet, e.Label, e.Column, e.Reason)
	default:
		return fmt.Sprintf("missing data: sheet %q label %q: %s", e.Sheet, e.Label, e.Reason)
	}
}

// Is reports ErrMissingData as a match.
func (e *MissingDataError) Is(target error) bool {
	return target == ErrMissingData
}

// NewSheetMissing reports a required sheet absent from the workbook.
func NewSheetMissing(sheet string) *MissingDataError {
	return &MissingDataError{Sheet: sheet, Reason: ReasonSheetNotFound}
}

// NewLabelMissing reports a label with no matching row.
func NewLabelMissing(sheet, label string) *MissingDataError {
	return &MissingDataError{Sheet: sheet, Label: label, Reason: ReasonLabelNotFound}
}

// NewLabelAmbiguous reports a label matching more than one row.
func NewLabelAmbiguous(sheet, label string, rows []int) *MissingDataError {
	return &MissingDataError{Sheet: sheet, Label: label, Reason: ReasonAmbiguous, Rows: rows}
}

// NewNonNumeric reports a cell that cannot be coerced to a number.
func NewNonNumeric(sheet, label, column string) *MissingDataError {
	return &MissingDataError{Sheet: sheet, Label: label, Column: column, Reason: ReasonNonNumeric}
}

// NewBlankValue reports an empty cell where a single value is required.
func NewBlankValue(sheet, label, column string) *MissingDataError {
	return &MissingDataError{Sheet: sheet, Label: label, Column: column, Reason: ReasonBlank}
}

// NewNoMonths reports a sheet whose header row has no month columns.
func NewNoMonths(sheet string) *MissingDataError {
	return &MissingDataError{Sheet: sheet, Reason: ReasonNoMonths}
}

// AsMissingData extracts a MissingDataError from an error chain.
func AsMissingData(err error) (*MissingDataError, bool) {
	var mde *MissingDataError
	if errors.As(err, &mde) {
		return mde, true
	}
	return nil, false
}
