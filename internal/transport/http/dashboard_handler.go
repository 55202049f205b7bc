package http

import (
	"embed"
	"html/template"
	"log/slog"
	"net/http"

	"storagefin/internal/analysis"
	apperrors "storagefin/internal/errors"
	"storagefin/internal/narrative"
	"storagefin/internal/validation"
	"storagefin/pkg/contracts"
	"storagefin/pkg/contracts/domain"
)

//go:embed templates/dashboard.html
var templateFS embed.FS

var dashboardTemplate = template.Must(template.ParseFS(templateFS, "templates/dashboard.html"))

// DashboardHandler serves the upload form and the rendered dashboard.
type DashboardHandler struct {
	service      AnalysisServiceInterface
	validator    *validation.FileValidator
	logger       *slog.Logger
	errorHandler *apperrors.ErrorHandler
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(
	service AnalysisServiceInterface,
	validator *validation.FileValidator,
	logger *slog.Logger,
	errorHandler *apperrors.ErrorHandler,
) *DashboardHandler {
	return &DashboardHandler{
		service:      service,
		validator:    validator,
		logger:       logger.With(slog.String("component", "dashboard_handler")),
		errorHandler: errorHandler,
	}
}

type kpi struct {
	Label    string
	Value    string
	Delta    string
	Negative bool
	Alert    bool
}

type monthRow struct {
	Month             string
	RentalIncome      string
	Occupancy         string
	OperatingCashFlow string
	InterestExpense   string
	DSCR              string
	AboveBreakEven    bool
	CumulativeDeficit string
}

type dashboardView struct {
	Version          string
	MaxUploadMB      int64
	NarrativeEnabled bool

	Problem *apperrors.ProblemDetails

	Report         *domain.AnalysisReport
	KPIs           []kpi
	Rows           []monthRow
	FallbackNote   string
	NarrativeHTML  template.HTML
	NarrativeError string
}

// Form handles GET /
func (h *DashboardHandler) Form(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, h.baseView())
}

// Analyze handles POST /
func (h *DashboardHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	view := h.baseView()

	up, cleanup, err := readUpload(w, r, h.validator, "dashboard")
	if err != nil {
		h.renderProblem(w, r, view, err)
		return
	}
	defer cleanup()

	report, err := h.service.Analyze(r.Context(), up)
	if err != nil {
		h.renderProblem(w, r, view, err)
		return
	}

	view.Report = report
	view.KPIs = buildKPIs(&report.Snapshot)
	view.Rows = buildRows(&report.Snapshot)
	if report.Snapshot.InterestFallbackUsed {
		view.FallbackNote = "Interest expense row not found: DSCR uses the configured fallback of " +
			analysis.FormatCurrency(report.Snapshot.Series.InterestExpense.Last()) + " per month."
	}

	if n := report.Narrative; n != nil {
		if n.Available() {
			html, err := narrative.RenderHTML(narrative.CleanMarkdown(n.Text))
			if err != nil {
				view.NarrativeError = "narrative could not be rendered"
				h.logger.WarnContext(r.Context(), "narrative render failed", slog.String("error", err.Error()))
			} else {
				// goldmark escapes raw HTML in model output
				view.NarrativeHTML = template.HTML(html)
			}
		} else {
			view.NarrativeError = n.Error
		}
	}

	h.render(w, r, http.StatusOK, view)
}

func (h *DashboardHandler) baseView() dashboardView {
	return dashboardView{
		Version:          contracts.GetVersionString(),
		MaxUploadMB:      h.validator.MaxBytes() >> 20,
		NarrativeEnabled: h.service.NarrativeEnabled(),
	}
}

func (h *DashboardHandler) renderProblem(w http.ResponseWriter, r *http.Request, view dashboardView, err error) {
	problem := h.errorHandler.ErrorToProblem(err, r)
	level := slog.LevelWarn
	if problem.Status >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	h.logger.Log(r.Context(), level, "dashboard analysis failed",
		slog.Int("status", problem.Status),
		slog.String("error", err.Error()))

	view.Problem = problem
	h.render(w, r, problem.Status, view)
}

func (h *DashboardHandler) render(w http.ResponseWriter, r *http.Request, status int, view dashboardView) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := dashboardTemplate.Execute(w, view); err != nil {
		h.logger.ErrorContext(r.Context(), "failed to render dashboard", slog.String("error", err.Error()))
	}
}

func buildKPIs(s *domain.FinancialSnapshot) []kpi {
	months := "Not within range"
	if s.MonthsToPositiveDSCR != nil {
		months = analysis.FormatAmount(float64(*s.MonthsToPositiveDSCR))
	}

	kpis := []kpi{
		{Label: "Current Rental Income", Value: analysis.FormatCurrency(s.RentalIncome)},
		{Label: "Occupancy", Value: analysis.FormatPercent(s.Occupancy)},
		{Label: "DSCR", Value: analysis.FormatRatio(s.DSCR), Alert: !s.DSCR.Above(1.0)},
		{Label: "Cash Reserves", Value: analysis.FormatCurrency(s.CashReserves)},
		{Label: "Months to Positive DSCR", Value: months, Alert: s.MonthsToPositiveDSCR == nil},
		{Label: "Deficit Before Break-even", Value: analysis.FormatCurrency(s.CumulativeDeficit)},
		{Label: "Funding Gap", Value: analysis.FormatCurrency(s.FundingGap), Alert: s.FundingGap > 0},
	}
	if c := s.RentalIncomeChange; c != nil {
		kpis[0].Delta, kpis[0].Negative = signed(analysis.FormatCurrency(*c), *c)
	}
	if c := s.OccupancyChange; c != nil {
		kpis[1].Delta, kpis[1].Negative = signed(analysis.FormatPercent(*c), *c)
	}
	return kpis
}

func signed(formatted string, v float64) (string, bool) {
	if v > 0 {
		return "+" + formatted, false
	}
	return formatted, v < 0
}

func buildRows(s *domain.FinancialSnapshot) []monthRow {
	rows := make([]monthRow, 0, len(s.Months))
	at := func(series domain.MonthlySeries, i int) float64 {
		if i < len(series) {
			return series[i]
		}
		return 0
	}
	for i, month := range s.Months {
		row := monthRow{
			Month:             month,
			RentalIncome:      analysis.FormatCurrency(at(s.Series.RentalIncome, i)),
			Occupancy:         analysis.FormatPercent(at(s.Series.Occupancy, i)),
			OperatingCashFlow: analysis.FormatCurrency(at(s.Series.OperatingCashFlow, i)),
			InterestExpense:   analysis.FormatCurrency(at(s.Series.InterestExpense, i)),
			CumulativeDeficit: analysis.FormatCurrency(at(s.Series.CumulativeDeficit, i)),
			DSCR:              "n/a",
		}
		if i < len(s.Series.DSCR) {
			row.DSCR = analysis.FormatRatio(s.Series.DSCR[i])
			row.AboveBreakEven = s.Series.DSCR[i].Above(1.0)
		}
		rows = append(rows, row)
	}
	return rows
}
