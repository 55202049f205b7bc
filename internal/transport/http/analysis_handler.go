package http

import (
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apperrors "storagefin/internal/errors"
	"storagefin/internal/exporter"
	"storagefin/internal/middleware"
	"storagefin/internal/validation"
)

// AnalysisHandler handles workbook analysis requests with RFC 7807 errors
type AnalysisHandler struct {
	service      AnalysisServiceInterface
	validator    *validation.FileValidator
	csv          *exporter.CSVWriter
	logger       *slog.Logger
	errorHandler *apperrors.ErrorHandler
}

// NewAnalysisHandler creates a new analysis handler
func NewAnalysisHandler(
	service AnalysisServiceInterface,
	validator *validation.FileValidator,
	csv *exporter.CSVWriter,
	logger *slog.Logger,
	errorHandler *apperrors.ErrorHandler,
) *AnalysisHandler {
	return &AnalysisHandler{
		service:      service,
		validator:    validator,
		csv:          csv,
		logger:       logger.With(slog.String("component", "analysis_handler")),
		errorHandler: errorHandler,
	}
}

// Routes returns the analysis routes
func (h *AnalysisHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.With(middleware.RequireContentType(h.errorHandler, "multipart/form-data")).Post("/", h.Create)
	return r
}

// Create handles POST /api/analyses.
//
// Query parameters:
//   - format: "json" (default) or "csv"
//   - narrative: "false" skips narrative generation
func (h *AnalysisHandler) Create(w http.ResponseWriter, r *http.Request) {
	format := strings.ToLower(r.URL.Query().Get("format"))
	if format != "" && format != "json" && format != "csv" {
		h.errorHandler.HandleError(w, r, apperrors.NewAppValidationError(
			fmt.Sprintf("unsupported format %q: expected json or csv", format)))
		return
	}

	up, cleanup, err := readUpload(w, r, h.validator, "http")
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	defer cleanup()

	// the CSV table carries no narrative
	up.SkipNarrative = format == "csv" || r.URL.Query().Get("narrative") == "false"

	report, err := h.service.Analyze(r.Context(), up)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	if format == "csv" {
		name := strings.TrimSuffix(filepath.Base(up.FileName), filepath.Ext(up.FileName)) + ".csv"
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
		if err := h.csv.Write(w, &report.Snapshot, exporter.WriteOptions{BOMPrefix: true}); err != nil {
			h.logger.ErrorContext(r.Context(), "failed to write CSV",
				slog.String("analysis_id", report.ID),
				slog.String("error", err.Error()))
		}
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, report)
}
