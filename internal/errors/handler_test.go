package errors

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storagefin/internal/infrastructure"
	"storagefin/internal/shared/testutil"
)

func TestErrorHandler_HandleError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantType   string
		wantTitle  string
	}{
		{
			name:       "context deadline exceeded",
			err:        fmt.Errorf("narrative: %w", context.DeadlineExceeded),
			wantStatus: http.StatusGatewayTimeout,
			wantType:   TypeTimeout,
			wantTitle:  "Request Timeout",
		},
		{
			name:       "missing sheet",
			err:        NewSheetMissing("Cash Flow 7988"),
			wantStatus: http.StatusUnprocessableEntity,
			wantType:   TypeDataMissing,
			wantTitle:  "Missing Data",
		},
		{
			name:       "wrapped missing label",
			err:        fmt.Errorf("extract: %w", NewLabelMissing("Rolling IS 7988", "Rental Income (4000)")),
			wantStatus: http.StatusUnprocessableEntity,
			wantType:   TypeDataMissing,
			wantTitle:  "Missing Data",
		},
		{
			name:       "unreadable workbook",
			err:        NewParsingError("open workbook", fmt.Errorf("zip: not a valid zip file")),
			wantStatus: http.StatusUnprocessableEntity,
			wantType:   TypeDataCorrupted,
			wantTitle:  "Unreadable Workbook",
		},
		{
			name:       "unsupported file type",
			err:        NewAppValidationError("unsupported workbook type \".csv\""),
			wantStatus: http.StatusBadRequest,
			wantType:   TypeValidation,
			wantTitle:  "Validation Failed",
		},
		{
			name:       "narrative upstream failure",
			err:        NewNetworkError("chat completion failed", nil),
			wantStatus: http.StatusServiceUnavailable,
			wantType:   TypeServiceDown,
			wantTitle:  "Upstream Unavailable",
		},
		{
			name:       "configuration error hides detail",
			err:        NewConfigError("bad provider", nil),
			wantStatus: http.StatusInternalServerError,
			wantType:   TypeInternal,
			wantTitle:  "Internal Server Error",
		},
		{
			name:       "missing upload field",
			err:        ErrMissingUpload,
			wantStatus: http.StatusBadRequest,
			wantType:   TypeValidation,
			wantTitle:  "Bad Request",
		},
		{
			name:       "rate limited",
			err:        ErrRateLimitExceeded,
			wantStatus: http.StatusTooManyRequests,
			wantType:   TypeRateLimit,
			wantTitle:  "Too Many Requests",
		},
		{
			name:       "body over limit",
			err:        fmt.Errorf("read upload: %w", &http.MaxBytesError{Limit: 1024}),
			wantStatus: http.StatusRequestEntityTooLarge,
			wantType:   TypePayloadTooLarge,
			wantTitle:  "Payload Too Large",
		},
		{
			name:       "unknown error",
			err:        fmt.Errorf("boom"),
			wantStatus: http.StatusInternalServerError,
			wantType:   TypeInternal,
			wantTitle:  "Internal Server Error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, _ := testutil.NewTestLogger(t)
			h := NewErrorHandler(logger, false)

			req := httptest.NewRequest(http.MethodPost, "/api/analyses", nil)
			req = req.WithContext(infrastructure.WithTraceID(req.Context(), "trace-123"))
			rec := httptest.NewRecorder()

			h.HandleError(rec, req, tt.err)

			assert.Equal(t, tt.wantStatus, rec.Code)
			var body map[string]interface{}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.wantType, body["type"])
			assert.Equal(t, tt.wantTitle, body["title"])
			assert.Equal(t, float64(tt.wantStatus), body["status"])
			assert.Equal(t, "/api/analyses", body["instance"])
			assert.Equal(t, "trace-123", body["trace_id"])
			assert.NotContains(t, body, "stack")
		})
	}
}

func TestErrorHandler_HandleErrorNil(t *testing.T) {
	logger, handler := testutil.NewTestLogger(t)
	rec := httptest.NewRecorder()

	NewErrorHandler(logger, false).HandleError(rec, httptest.NewRequest(http.MethodGet, "/", nil), nil)

	assert.Zero(t, rec.Body.Len())
	assert.Zero(t, handler.Count())
}

func TestErrorHandler_MissingDataExtension(t *testing.T) {
	logger, handler := testutil.NewTestLogger(t)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/analyses", nil)

	NewErrorHandler(logger, false).HandleError(rec, req, NewNonNumeric("Cash Flow 7988", "Net Income", "E"))

	var body struct {
		Missing MissingDataError `json:"missing"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Cash Flow 7988", body.Missing.Sheet)
	assert.Equal(t, "Net Income", body.Missing.Label)
	assert.Equal(t, "E", body.Missing.Column)
	assert.Equal(t, ReasonNonNumeric, body.Missing.Reason)

	// client errors log at warn
	testutil.AssertLogContains(t, handler, slog.LevelWarn, "request failed")
	testutil.AssertNoErrors(t, handler)
}

func TestErrorHandler_IncludeStack(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	rec := httptest.NewRecorder()

	NewErrorHandler(logger, true).HandleError(rec, httptest.NewRequest(http.MethodGet, "/", nil), fmt.Errorf("boom"))

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.NotEmpty(t, body["stack"])
}

func TestErrorHandler_HandlePanic(t *testing.T) {
	logger, handler := testutil.NewTestLogger(t)
	rec := httptest.NewRecorder()

	NewErrorHandler(logger, false).HandlePanic(rec, httptest.NewRequest(http.MethodGet, "/api/analyses", nil), "index out of range")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.True(t, handler.ContainsMessage("panic recovered"))
	assert.NotContains(t, rec.Body.String(), "index out of range")
}

func TestErrorHandler_RoutingErrors(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	h := NewErrorHandler(logger, false)

	rec := httptest.NewRecorder()
	h.NotFound(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), TypeNotFound)

	rec = httptest.NewRecorder()
	h.MethodNotAllowed(rec, httptest.NewRequest(http.MethodDelete, "/api/analyses", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Contains(t, rec.Body.String(), "Method DELETE is not allowed")
}
