package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"storagefin/internal/analysis"
	apperrors "storagefin/internal/errors"
	"storagefin/internal/infrastructure"
	"storagefin/internal/narrative"
	"storagefin/internal/workbook"
	"storagefin/pkg/contracts/domain"
)

// Upload is one workbook submitted for analysis.
type Upload struct {
	FileName string
	Size     int64
	Body     io.Reader
	// Source labels metrics, e.g. "http" or "cli".
	Source string
	// SkipNarrative suppresses narrative generation for this upload.
	SkipNarrative bool
}

// AnalysisService runs the load, extract, derive and narrate pipeline for
// a single upload. It holds no per-upload state and is safe for
// concurrent use.
type AnalysisService struct {
	loader    *workbook.Loader
	extractor *analysis.Extractor
	narrator  *narrative.Narrator
	metrics   *infrastructure.BusinessMetrics
	tracer    trace.Tracer
	logger    *slog.Logger
	now       func() time.Time
}

// NewAnalysisService creates the analysis service. narrator and metrics
// may be nil.
func NewAnalysisService(
	loader *workbook.Loader,
	extractor *analysis.Extractor,
	narrator *narrative.Narrator,
	metrics *infrastructure.BusinessMetrics,
	logger *slog.Logger,
) *AnalysisService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AnalysisService{
		loader:    loader,
		extractor: extractor,
		narrator:  narrator,
		metrics:   metrics,
		tracer:    otel.Tracer("storagefin/services"),
		logger:    logger.With(slog.String("service", "analysis")),
		now:       time.Now,
	}
}

// NarrativeEnabled reports whether a narrative provider is configured.
func (s *AnalysisService) NarrativeEnabled() bool {
	return s.narrator.Enabled()
}

// Analyze derives the financial snapshot of an uploaded workbook. Missing
// sheets or labels abort before any ratio is computed. A narrative failure
// never fails the analysis: it is reported on the returned report.
func (s *AnalysisService) Analyze(ctx context.Context, up Upload) (*domain.AnalysisReport, error) {
	ctx, span := s.tracer.Start(ctx, "analysis.Analyze", trace.WithAttributes(
		attribute.String("workbook.name", up.FileName),
		attribute.Int64("workbook.size", up.Size),
		attribute.String("analysis.source", up.Source),
	))
	defer span.End()

	start := s.now()
	report, err := s.analyze(ctx, up)
	infrastructure.RecordAnalysisMetrics(ctx, s.metrics, up.Source, up.Size, s.now().Sub(start), err)

	if err != nil {
		infrastructure.RecordError(ctx, err)
		s.logger.Log(ctx, failureLevel(err), "analysis failed",
			append(infrastructure.UploadAttrs(up.FileName, up.Size, up.Source), slog.String("error", err.Error()))...)
		return nil, err
	}

	s.logger.InfoContext(ctx, "analysis completed", append(infrastructure.UploadAttrs(up.FileName, up.Size, up.Source),
		slog.String("analysis_id", report.ID),
		slog.Int("months", len(report.Snapshot.Months)),
		slog.Float64("funding_gap", report.Snapshot.FundingGap),
		slog.Bool("narrative", report.Narrative.Available()),
		slog.Duration("duration", s.now().Sub(start)))...)
	return report, nil
}

// failureLevel logs problems with the upload itself as warnings.
func failureLevel(err error) slog.Level {
	if _, ok := apperrors.AsMissingData(err); ok {
		return slog.LevelWarn
	}
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) && appErr.Type.Status() < 500 {
		return slog.LevelWarn
	}
	return slog.LevelError
}

func (s *AnalysisService) analyze(ctx context.Context, up Upload) (*domain.AnalysisReport, error) {
	if up.Body == nil {
		return nil, apperrors.NewAppValidationError(ErrEmptyUpload.Error())
	}

	loadCtx, loadSpan := s.tracer.Start(ctx, "analysis.load")
	wb, err := s.loader.Load(loadCtx, up.FileName, up.Body)
	loadSpan.End()
	if err != nil {
		return nil, err
	}

	_, extractSpan := s.tracer.Start(ctx, "analysis.extract")
	inputs, err := s.extractor.Extract(wb)
	extractSpan.End()
	if err != nil {
		return nil, err
	}

	_, deriveSpan := s.tracer.Start(ctx, "analysis.derive")
	snap, err := analysis.Assemble(inputs)
	deriveSpan.End()
	if err != nil {
		return nil, fmt.Errorf("derive snapshot: %w", err)
	}

	report := &domain.AnalysisReport{
		ID:          uuid.NewString(),
		FileName:    up.FileName,
		GeneratedAt: s.now().UTC(),
		Snapshot:    *snap,
	}

	if !up.SkipNarrative && s.narrator.Enabled() {
		report.Narrative = s.narrate(ctx, snap)
	}

	return report, nil
}

// narrate runs strictly after the numbers are final and only annotates
// the report.
func (s *AnalysisService) narrate(ctx context.Context, snap *domain.FinancialSnapshot) *domain.Narrative {
	ctx, span := s.tracer.Start(ctx, "analysis.narrative",
		trace.WithAttributes(attribute.String("narrative.provider", s.narrator.ProviderName())))
	defer span.End()

	start := s.now()
	n, err := s.narrator.Narrate(ctx, snap)
	infrastructure.RecordNarrativeMetrics(ctx, s.metrics, s.narrator.ProviderName(), s.now().Sub(start), err)
	if err != nil {
		infrastructure.RecordError(ctx, err)
	}
	return n
}
