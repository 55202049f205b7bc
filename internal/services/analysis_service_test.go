package services

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric/noop"
	"golang.org/x/sync/errgroup"

	"storagefin/internal/analysis"
	"storagefin/internal/config"
	apperrors "storagefin/internal/errors"
	"storagefin/internal/infrastructure"
	"storagefin/internal/narrative"
	"storagefin/internal/shared/testutil"
	"storagefin/internal/workbook"
	"storagefin/pkg/contracts/domain"
)

type mockProvider struct {
	mock.Mock
}

func (m *mockProvider) Name() string  { return "mock" }
func (m *mockProvider) Model() string { return "mock-1" }

func (m *mockProvider) Complete(ctx context.Context, prompt string) (string, error) {
	args := m.Called(ctx, prompt)
	return args.String(0), args.Error(1)
}

func newTestAnalysisService(t *testing.T, provider narrative.Provider) (*AnalysisService, *testutil.BufferedSlogHandler) {
	t.Helper()
	logger, handler := testutil.NewTestLogger(t)
	cfg := config.Default()

	metrics, err := infrastructure.CreateBusinessMetrics(noop.NewMeterProvider().Meter("test"))
	require.NoError(t, err)

	var narrator *narrative.Narrator
	if provider != nil {
		narrator = narrative.NewNarrator(provider, time.Second, logger)
	}

	svc := NewAnalysisService(
		workbook.NewLoader(workbook.LayoutFrom(cfg.Workbook), logger),
		analysis.NewExtractor(cfg.Workbook, cfg.Extraction, logger),
		narrator,
		metrics,
		logger,
	)
	return svc, handler
}

func exampleUpload(t *testing.T, fixture *testutil.WorkbookFixture) Upload {
	data := fixture.Bytes(t)
	return Upload{
		FileName: "package.xlsx",
		Size:     int64(len(data)),
		Body:     bytes.NewReader(data),
		Source:   "test",
	}
}

func assertExampleSnapshot(t *testing.T, snap domain.FinancialSnapshot) {
	t.Helper()
	assert.Equal(t, []string{"Jan 2025", "Feb 2025"}, snap.Months)
	assert.Equal(t, []domain.Ratio{domain.DefinedRatio(-0.5), domain.DefinedRatio(1.2)}, snap.Series.DSCR)
	require.NotNil(t, snap.MonthsToPositiveDSCR)
	assert.Equal(t, 1, *snap.MonthsToPositiveDSCR)
	assert.Equal(t, 5000.0, snap.CumulativeDeficit)
	assert.Equal(t, 4000.0, snap.CashReserves)
	assert.Equal(t, 1000.0, snap.FundingGap)
}

func TestAnalysisService_Analyze(t *testing.T) {
	svc, handler := newTestAnalysisService(t, nil)

	report, err := svc.Analyze(context.Background(), exampleUpload(t, testutil.ExampleWorkbook()))
	require.NoError(t, err)

	assert.NotEmpty(t, report.ID)
	assert.Equal(t, "package.xlsx", report.FileName)
	assert.False(t, report.GeneratedAt.IsZero())
	assert.Nil(t, report.Narrative)
	assertExampleSnapshot(t, report.Snapshot)

	testutil.AssertLogContains(t, handler, slog.LevelInfo, "analysis completed")
	testutil.AssertNoErrors(t, handler)
}

func TestAnalysisService_WithNarrative(t *testing.T) {
	provider := &mockProvider{}
	provider.On("Complete", mock.Anything, mock.Anything).Return("Reserves fall $1,000 short of break-even.", nil)
	svc, _ := newTestAnalysisService(t, provider)

	report, err := svc.Analyze(context.Background(), exampleUpload(t, testutil.ExampleWorkbook()))
	require.NoError(t, err)

	require.NotNil(t, report.Narrative)
	assert.True(t, report.Narrative.Available())
	assert.Equal(t, "Reserves fall $1,000 short of break-even.", report.Narrative.Text)
	provider.AssertNumberOfCalls(t, "Complete", 1)
}

func TestAnalysisService_NarrativeFailureKeepsMetrics(t *testing.T) {
	provider := &mockProvider{}
	provider.On("Complete", mock.Anything, mock.Anything).Return("", errors.New("upstream unavailable"))
	svc, handler := newTestAnalysisService(t, provider)

	report, err := svc.Analyze(context.Background(), exampleUpload(t, testutil.ExampleWorkbook()))
	require.NoError(t, err)

	assertExampleSnapshot(t, report.Snapshot)
	require.NotNil(t, report.Narrative)
	assert.Equal(t, "upstream unavailable", report.Narrative.Error)
	assert.Empty(t, report.Narrative.Text)
	testutil.AssertLogContains(t, handler, slog.LevelWarn, "narrative generation failed")
}

func TestAnalysisService_NarrativeTimeoutKeepsMetrics(t *testing.T) {
	provider := &mockProvider{}
	provider.On("Complete", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { <-args.Get(0).(context.Context).Done() }).
		Return("", context.DeadlineExceeded)

	logger, _ := testutil.NewTestLogger(t)
	cfg := config.Default()
	svc := NewAnalysisService(
		workbook.NewLoader(workbook.LayoutFrom(cfg.Workbook), logger),
		analysis.NewExtractor(cfg.Workbook, cfg.Extraction, logger),
		narrative.NewNarrator(provider, 20*time.Millisecond, logger),
		nil,
		logger,
	)

	report, err := svc.Analyze(context.Background(), exampleUpload(t, testutil.ExampleWorkbook()))
	require.NoError(t, err)
	assertExampleSnapshot(t, report.Snapshot)
	assert.Contains(t, report.Narrative.Error, "timed out")
}

func TestAnalysisService_SkipNarrative(t *testing.T) {
	provider := &mockProvider{}
	svc, _ := newTestAnalysisService(t, provider)

	up := exampleUpload(t, testutil.ExampleWorkbook())
	up.SkipNarrative = true

	report, err := svc.Analyze(context.Background(), up)
	require.NoError(t, err)
	assert.Nil(t, report.Narrative)
	provider.AssertNotCalled(t, "Complete", mock.Anything, mock.Anything)
}

func TestAnalysisService_MissingDataAbortsBeforeNarrative(t *testing.T) {
	provider := &mockProvider{}
	svc, handler := newTestAnalysisService(t, provider)

	fixture := testutil.ExampleWorkbook()
	fixture.Sheet(testutil.SheetCashFlow).RemoveRow(testutil.LabelOperatingCashFlow)

	report, err := svc.Analyze(context.Background(), exampleUpload(t, fixture))
	assert.Nil(t, report)

	mde, ok := apperrors.AsMissingData(err)
	require.True(t, ok)
	assert.Equal(t, testutil.SheetCashFlow, mde.Sheet)
	assert.Equal(t, testutil.LabelOperatingCashFlow, mde.Label)

	provider.AssertNotCalled(t, "Complete", mock.Anything, mock.Anything)
	testutil.AssertLogContains(t, handler, slog.LevelWarn, "analysis failed")
	testutil.AssertNoErrors(t, handler)
}

func TestAnalysisService_InvalidUploads(t *testing.T) {
	svc, _ := newTestAnalysisService(t, nil)

	_, err := svc.Analyze(context.Background(), Upload{FileName: "package.xlsx"})
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.ErrTypeValidation, appErr.Type)

	_, err = svc.Analyze(context.Background(), Upload{FileName: "package.csv", Body: bytes.NewReader([]byte("a,b"))})
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.ErrTypeValidation, appErr.Type)
}

func TestAnalysisService_ConcurrentUploadsAreIndependent(t *testing.T) {
	svc, _ := newTestAnalysisService(t, nil)

	positive := testutil.ExampleWorkbook()
	negative := testutil.ExampleWorkbook()
	cf := negative.Sheet(testutil.SheetCashFlow)
	cf.RemoveRow(testutil.LabelOperatingCashFlow).AddRow(testutil.LabelOperatingCashFlow, -5000.0, -1000.0)

	fixtures := []*testutil.WorkbookFixture{positive, negative}
	reports := make([]*domain.AnalysisReport, 20)

	var g errgroup.Group
	for i := range reports {
		up := exampleUpload(t, fixtures[i%2])
		g.Go(func() error {
			r, err := svc.Analyze(context.Background(), up)
			reports[i] = r
			return err
		})
	}
	require.NoError(t, g.Wait())

	for i, r := range reports {
		if i%2 == 0 {
			assert.True(t, r.Snapshot.BreakEvenReached())
			assert.Equal(t, 1000.0, r.Snapshot.FundingGap)
		} else {
			assert.False(t, r.Snapshot.BreakEvenReached())
			assert.Equal(t, 6000.0, r.Snapshot.CumulativeDeficit)
			assert.Equal(t, 2000.0, r.Snapshot.FundingGap)
		}
	}
}
