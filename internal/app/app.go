package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"

	"storagefin/internal/analysis"
	"storagefin/internal/config"
	apperrors "storagefin/internal/errors"
	"storagefin/internal/exporter"
	"storagefin/internal/infrastructure"
	customMiddleware "storagefin/internal/middleware"
	"storagefin/internal/narrative"
	"storagefin/internal/services"
	handlers "storagefin/internal/transport/http"
	"storagefin/internal/validation"
	"storagefin/internal/workbook"
)

// Application represents the main application
type Application struct {
	Config        *config.Config
	Logger        *slog.Logger
	Router        *chi.Mux
	Server        *http.Server
	OTelProviders *infrastructure.OTelProviders
	Metrics       *infrastructure.BusinessMetrics
	ErrorHandler  *apperrors.ErrorHandler

	// Services
	AnalysisService *services.AnalysisService
	HealthService   *services.HealthService
	Validator       *validation.FileValidator
	CSVWriter       *exporter.CSVWriter
}

// NewApplication loads configuration from the environment and builds the
// application.
func NewApplication() (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	return New(cfg, logger)
}

// New builds the application from an already loaded configuration.
func New(cfg *config.Config, logger *slog.Logger) (*Application, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if logger == nil {
		logger = infrastructure.GetLogger()
	}

	otelProviders, err := infrastructure.InitializeOTel(cfg.Telemetry, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	metrics, err := infrastructure.CreateBusinessMetrics(otelProviders.Meter)
	if err != nil {
		return nil, fmt.Errorf("failed to create business metrics: %w", err)
	}

	app := &Application{
		Config:        cfg,
		Logger:        logger,
		OTelProviders: otelProviders,
		Metrics:       metrics,
		ErrorHandler:  apperrors.NewErrorHandler(logger, cfg.Telemetry.Environment == "development"),
	}

	if err := app.initializeServices(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	if err := app.setupRouter(); err != nil {
		return nil, fmt.Errorf("failed to set up router: %w", err)
	}

	app.createServer()

	return app, nil
}

// initializeServices wires the workbook pipeline together
func (a *Application) initializeServices(ctx context.Context) error {
	loader := workbook.NewLoader(workbook.LayoutFrom(a.Config.Workbook), a.Logger)
	extractor := analysis.NewExtractor(a.Config.Workbook, a.Config.Extraction, a.Logger)

	narrator, err := narrative.New(ctx, a.Config.Narrative, a.Logger)
	if err != nil {
		return fmt.Errorf("narrative provider: %w", err)
	}

	a.AnalysisService = services.NewAnalysisService(loader, extractor, narrator, a.Metrics, a.Logger)
	a.HealthService = services.NewHealthService(config.AppVersion, a.Config.Workbook, a.AnalysisService, a.Logger)
	a.Validator = validation.NewFileValidator(a.Config.Upload.MaxBytes, a.Logger)
	a.CSVWriter = exporter.NewCSVWriter(a.Logger)

	a.Logger.InfoContext(ctx, "Services initialized",
		slog.String("narrative_provider", narrator.ProviderName()),
		slog.Int64("max_upload_bytes", a.Config.Upload.MaxBytes),
		slog.Bool("interest_fallback", a.Config.Extraction.AllowInterestFallback))

	return nil
}

// setupRouter configures the HTTP router
func (a *Application) setupRouter() error {
	r := chi.NewRouter()

	// Middleware order: RequestID → RealIP → OTel → Logger → Recoverer → Timeout
	r.Use(customMiddleware.RequestID)
	r.Use(customMiddleware.RealIP)

	otelMiddleware, err := customMiddleware.NewOTelMiddleware(a.OTelProviders, a.Metrics)
	if err != nil {
		return err
	}
	r.Use(otelMiddleware.Handler)

	r.Use(customMiddleware.StructuredLogger(a.Logger))
	r.Use(customMiddleware.Recoverer(a.ErrorHandler))
	r.Use(customMiddleware.SecurityHeaders)

	if a.Config.Security.EnableCORS {
		r.Use(customMiddleware.CORS(a.getCORSConfig()))
	}

	r.NotFound(a.ErrorHandler.NotFound)
	r.MethodNotAllowed(a.ErrorHandler.MethodNotAllowed)

	healthHandler := handlers.NewHealthHandler(a.HealthService, a.Logger)
	metricsHandler := handlers.NewMetricsHandler(a.OTelProviders.PrometheusHTTP, a.ErrorHandler)
	analysisHandler := handlers.NewAnalysisHandler(a.AnalysisService, a.Validator, a.CSVWriter, a.Logger, a.ErrorHandler)
	dashboardHandler := handlers.NewDashboardHandler(a.AnalysisService, a.Validator, a.Logger, a.ErrorHandler)

	// Probes and metrics bypass rate limiting and the analysis timeout
	r.Handle("/metrics", metricsHandler)
	r.Mount("/api/health", healthHandler.Routes())
	r.Get("/api/version", healthHandler.Version)

	r.Group(func(r chi.Router) {
		if a.Config.Security.RateLimit.Enabled {
			limiter := customMiddleware.NewRateLimiter(
				a.Config.Security.RateLimit.RPS,
				a.Config.Security.RateLimit.Burst,
				a.ErrorHandler,
				a.Logger,
			)
			r.Use(limiter.Handler)
		}
		r.Use(customMiddleware.Timeout(a.Config.Server.AnalysisTimeout, a.Logger))

		r.Mount("/api/analyses", analysisHandler.Routes())
		r.Get("/", dashboardHandler.Form)
		r.Post("/", dashboardHandler.Analyze)
	})

	a.Router = r
	return nil
}

// getCORSConfig returns the CORS configuration
func (a *Application) getCORSConfig() customMiddleware.CORSConfig {
	return customMiddleware.CORSConfig{
		AllowedOrigins: a.Config.Security.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID", "Content-Disposition"},
		MaxAge:         300,
		Logger:         a.Logger,
	}
}

// createServer creates the HTTP server
func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:           fmt.Sprintf(":%d", a.Config.Server.Port),
		Handler:        a.Router,
		ReadTimeout:    a.Config.Server.ReadTimeout,
		WriteTimeout:   a.Config.Server.WriteTimeout,
		IdleTimeout:    a.Config.Server.IdleTimeout,
		MaxHeaderBytes: a.Config.Server.MaxHeaderBytes,
	}
}

// Start starts the application
func (a *Application) Start(ctx context.Context, cancel context.CancelFunc) error {
	a.Logger.InfoContext(ctx, "Starting application",
		slog.String("name", config.AppName),
		slog.String("version", config.AppVersion),
		slog.Int("port", a.Config.Server.Port),
		slog.String("level", a.Config.Logging.Level))

	if a.Config.Server.WriteTimeout < a.Config.Server.AnalysisTimeout {
		a.Logger.WarnContext(ctx, "Write timeout is shorter than analysis timeout",
			slog.Duration("write_timeout", a.Config.Server.WriteTimeout),
			slog.Duration("analysis_timeout", a.Config.Server.AnalysisTimeout))
	}

	go func() {
		if err := a.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.Logger.ErrorContext(ctx, "Server error", slog.String("error", err.Error()))
			// Signal shutdown through context instead of os.Exit
			cancel()
		}
	}()

	a.Logger.InfoContext(ctx, "Application started successfully",
		slog.String("address", fmt.Sprintf("http://localhost:%d", a.Config.Server.Port)))

	return nil
}

// Stop gracefully stops the application
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "Shutting down application")

	shutdownCtx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
	defer cancel()

	if a.Server != nil {
		if err := a.Server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
	}

	if a.OTelProviders != nil {
		if err := a.OTelProviders.Shutdown(shutdownCtx); err != nil {
			a.Logger.ErrorContext(ctx, "Error shutting down OpenTelemetry", slog.String("error", err.Error()))
		}
	}

	a.Logger.InfoContext(ctx, "Application shutdown complete")
	return infrastructure.CloseLogFile()
}

// Run runs the application until interrupted or the server fails
func (a *Application) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	if err := a.Start(ctx, cancel); err != nil {
		return err
	}

	select {
	case <-sigChan:
		a.Logger.InfoContext(ctx, "Received interrupt signal")
	case <-ctx.Done():
		a.Logger.WarnContext(ctx, "Server stopped unexpectedly")
	}

	// Detach from ctx so shutdown still gets its full timeout
	return a.Stop(context.WithoutCancel(ctx))
}
