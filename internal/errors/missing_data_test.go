package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMissingDataError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *MissingDataError
		want string
	}{
		{
			name: "sheet",
			err:  NewSheetMissing("BvA 7988"),
			want: `missing data: sheet "BvA 7988": sheet not found`,
		},
		{
			name: "label",
			err:  NewLabelMissing("Rolling IS 7988", "Rental Income (4000)"),
			want: `missing data: sheet "Rolling IS 7988" label "Rental Income (4000)": label not found`,
		},
		{
			name: "ambiguous",
			err:  NewLabelAmbiguous("Rolling IS 7988", "Rental Income (4000)", []int{7, 19}),
			want: `missing data: sheet "Rolling IS 7988" label "Rental Income (4000)": label ambiguous`,
		},
		{
			name: "cell",
			err:  NewNonNumeric("Cash Flow 7988", "Net Income", "E"),
			want: `missing data: sheet "Cash Flow 7988" label "Net Income" column E: non-numeric value`,
		},
		{
			name: "blank",
			err:  NewBlankValue("Balance Sheet 7988", "Cash", "F"),
			want: `missing data: sheet "Balance Sheet 7988" label "Cash" column F: blank value`,
		},
		{
			name: "no months",
			err:  NewNoMonths("Cash Flow 7988"),
			want: `missing data: sheet "Cash Flow 7988": no month columns`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestMissingDataError_Matching(t *testing.T) {
	err := fmt.Errorf("extract income statement: %w", NewLabelAmbiguous("IS", "Rent", []int{4, 9}))

	assert.True(t, errors.Is(err, ErrMissingData))

	mde, ok := AsMissingData(err)
	require.True(t, ok)
	assert.Equal(t, ReasonAmbiguous, mde.Reason)
	assert.Equal(t, []int{4, 9}, mde.Rows)

	_, ok = AsMissingData(NewParsingError("bad zip", nil))
	assert.False(t, ok)
	assert.False(t, errors.Is(NewParsingError("bad zip", nil), ErrMissingData))
}

func TestAppError_Unwrap(t *testing.T) {
	cause := errors.New("connection reset")
	err := NewNetworkError("chat completion failed", cause).WithContext("provider", "openai")

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "[NETWORK] chat completion failed: connection reset", err.Error())
	assert.Equal(t, "openai", err.Context["provider"])
	assert.Equal(t, "[NOT_FOUND] workbook.xlsx not found", NewNotFoundError("workbook.xlsx").Error())
}

func TestErrorType_Status(t *testing.T) {
	tests := []struct {
		errType ErrorType
		want    int
	}{
		{ErrTypeParsing, 422},
		{ErrTypeValidation, 400},
		{ErrTypeNotFound, 404},
		{ErrTypeNetwork, 503},
		{ErrTypeConfig, 500},
		{ErrorType("UNKNOWN"), 500},
	}

	for _, tt := range tests {
		t.Run(string(tt.errType), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.errType.Status())
		})
	}
}
