package http

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apperrors "storagefin/internal/errors"
	"storagefin/internal/exporter"
	"storagefin/internal/services"
	"storagefin/internal/shared/testutil"
	"storagefin/pkg/contracts/domain"
)

func newAnalysisRouter(t *testing.T, svc AnalysisServiceInterface, maxBytes int64) http.Handler {
	t.Helper()
	logger, _ := testutil.NewTestLogger(t)
	h := NewAnalysisHandler(svc, newTestValidator(maxBytes), exporter.NewCSVWriter(logger), logger, newTestErrorHandler(t))
	r := chi.NewRouter()
	r.Mount("/api/analyses", h.Routes())
	return r
}

func decodeProblem(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestAnalysisHandler_Create(t *testing.T) {
	router := newAnalysisRouter(t, newRealService(t), 10<<20)
	data := testutil.ExampleWorkbook().Bytes(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, multipartRequest(t, "/api/analyses", UploadField, "package.xlsx", data))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var report domain.AnalysisReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))

	assert.Equal(t, "package.xlsx", report.FileName)
	assert.Equal(t, []domain.Ratio{domain.DefinedRatio(-0.5), domain.DefinedRatio(1.2)}, report.Snapshot.Series.DSCR)
	require.NotNil(t, report.Snapshot.MonthsToPositiveDSCR)
	assert.Equal(t, 1, *report.Snapshot.MonthsToPositiveDSCR)
	assert.Equal(t, 5000.0, report.Snapshot.CumulativeDeficit)
	assert.Equal(t, 1000.0, report.Snapshot.FundingGap)
	assert.Nil(t, report.Narrative)
}

func TestAnalysisHandler_CreateCSV(t *testing.T) {
	router := newAnalysisRouter(t, newRealService(t), 10<<20)
	data := testutil.ExampleWorkbook().Bytes(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, multipartRequest(t, "/api/analyses?format=csv", UploadField, "July Package.xlsx", data))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="July Package.csv"`, rec.Header().Get("Content-Disposition"))

	body := bytes.TrimPrefix(rec.Body.Bytes(), []byte{0xEF, 0xBB, 0xBF})
	records, err := csv.NewReader(bytes.NewReader(body)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, exporter.MonthlyHeaders, records[0])
	assert.Equal(t, "1.20", records[2][5])
}

func TestAnalysisHandler_MissingData(t *testing.T) {
	router := newAnalysisRouter(t, newRealService(t), 10<<20)
	data := testutil.ExampleWorkbook().RemoveSheet(testutil.SheetBalanceSheet).Bytes(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, multipartRequest(t, "/api/analyses", UploadField, "package.xlsx", data))

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	body := decodeProblem(t, rec)
	assert.Equal(t, apperrors.TypeDataMissing, body["type"])
	missing, ok := body["missing"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, testutil.SheetBalanceSheet, missing["sheet"])
	assert.Equal(t, string(apperrors.ReasonSheetNotFound), missing["reason"])
}

func TestAnalysisHandler_RequestErrors(t *testing.T) {
	xlsx := testutil.ExampleWorkbook().Bytes(t)

	tests := []struct {
		name       string
		req        func(t *testing.T) *http.Request
		maxBytes   int64
		wantStatus int
		wantType   string
	}{
		{
			name: "missing file field",
			req: func(t *testing.T) *http.Request {
				return multipartRequest(t, "/api/analyses", "", "", nil)
			},
			wantStatus: http.StatusBadRequest,
			wantType:   apperrors.TypeValidation,
		},
		{
			name: "wrong extension",
			req: func(t *testing.T) *http.Request {
				return multipartRequest(t, "/api/analyses", UploadField, "package.csv", []byte("a,b\n1,2\n"))
			},
			wantStatus: http.StatusBadRequest,
			wantType:   apperrors.TypeValidation,
		},
		{
			name: "renamed text file",
			req: func(t *testing.T) *http.Request {
				return multipartRequest(t, "/api/analyses", UploadField, "package.xlsx", []byte("not a workbook"))
			},
			wantStatus: http.StatusBadRequest,
			wantType:   apperrors.TypeValidation,
		},
		{
			name: "oversized upload",
			req: func(t *testing.T) *http.Request {
				return multipartRequest(t, "/api/analyses", UploadField, "package.xlsx", xlsx)
			},
			maxBytes:   1024,
			wantStatus: http.StatusRequestEntityTooLarge,
			wantType:   apperrors.TypePayloadTooLarge,
		},
		{
			name: "json body",
			req: func(t *testing.T) *http.Request {
				req := httptest.NewRequest(http.MethodPost, "/api/analyses", strings.NewReader(`{}`))
				req.Header.Set("Content-Type", "application/json")
				return req
			},
			wantStatus: http.StatusUnsupportedMediaType,
			wantType:   apperrors.TypeValidation,
		},
		{
			name: "unknown format",
			req: func(t *testing.T) *http.Request {
				return multipartRequest(t, "/api/analyses?format=pdf", UploadField, "package.xlsx", xlsx)
			},
			wantStatus: http.StatusBadRequest,
			wantType:   apperrors.TypeValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			maxBytes := tt.maxBytes
			if maxBytes == 0 {
				maxBytes = 10 << 20
			}
			svc := &mockAnalysisService{}
			router := newAnalysisRouter(t, svc, maxBytes)

			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, tt.req(t))

			assert.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			assert.Equal(t, tt.wantType, decodeProblem(t, rec)["type"])
			svc.AssertNotCalled(t, "Analyze", mock.Anything, mock.Anything)
		})
	}
}

func TestAnalysisHandler_NarrativeQuery(t *testing.T) {
	svc := &mockAnalysisService{}
	svc.On("Analyze", mock.Anything, mock.MatchedBy(func(up services.Upload) bool {
		return up.SkipNarrative && up.Source == "http" && up.FileName == "package.xlsx"
	})).Return(&domain.AnalysisReport{ID: "a-1"}, nil)

	router := newAnalysisRouter(t, svc, 10<<20)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, multipartRequest(t, "/api/analyses?narrative=false", UploadField, "package.xlsx",
		testutil.ExampleWorkbook().Bytes(t)))

	assert.Equal(t, http.StatusOK, rec.Code)
	svc.AssertExpectations(t)
}

func TestAnalysisHandler_ServiceErrorMapping(t *testing.T) {
	svc := &mockAnalysisService{}
	svc.On("Analyze", mock.Anything, mock.Anything).
		Return(nil, apperrors.NewParsingError("failed to open workbook", nil))

	router := newAnalysisRouter(t, svc, 10<<20)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, multipartRequest(t, "/api/analyses", UploadField, "package.xlsx",
		testutil.ExampleWorkbook().Bytes(t)))

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, apperrors.TypeDataCorrupted, decodeProblem(t, rec)["type"])
}
