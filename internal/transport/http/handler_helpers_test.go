package http

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"storagefin/internal/analysis"
	"storagefin/internal/config"
	apperrors "storagefin/internal/errors"
	"storagefin/internal/services"
	"storagefin/internal/shared/testutil"
	"storagefin/internal/validation"
	"storagefin/internal/workbook"
	"storagefin/pkg/contracts/domain"
)

type mockAnalysisService struct {
	mock.Mock
}

func (m *mockAnalysisService) Analyze(ctx context.Context, up services.Upload) (*domain.AnalysisReport, error) {
	args := m.Called(ctx, up)
	report, _ := args.Get(0).(*domain.AnalysisReport)
	return report, args.Error(1)
}

func (m *mockAnalysisService) NarrativeEnabled() bool {
	return false
}

// newRealService wires the analysis pipeline with default configuration
// and no narrative provider.
func newRealService(t *testing.T) *services.AnalysisService {
	t.Helper()
	logger, _ := testutil.NewTestLogger(t)
	cfg := config.Default()
	return services.NewAnalysisService(
		workbook.NewLoader(workbook.LayoutFrom(cfg.Workbook), logger),
		analysis.NewExtractor(cfg.Workbook, cfg.Extraction, logger),
		nil, nil, logger,
	)
}

func newTestErrorHandler(t *testing.T) *apperrors.ErrorHandler {
	logger, _ := testutil.NewTestLogger(t)
	return apperrors.NewErrorHandler(logger, false)
}

func multipartRequest(t *testing.T, target, field, filename string, data []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if field != "" {
		part, err := mw.CreateFormFile(field, filename)
		require.NoError(t, err)
		_, err = part.Write(data)
		require.NoError(t, err)
	} else {
		require.NoError(t, mw.WriteField("note", "no file"))
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, target, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func newTestValidator(maxBytes int64) *validation.FileValidator {
	return validation.NewFileValidator(maxBytes, nil)
}
