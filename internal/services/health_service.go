package services

import (
	"context"
	"log/slog"
	"runtime"
	"time"

	"storagefin/internal/config"
	"storagefin/pkg/contracts"
)

// HealthService provides health check functionality
type HealthService struct {
	version   string
	workbook  config.WorkbookConfig
	analysis  *AnalysisService
	startTime time.Time
	logger    *slog.Logger
}

// HealthStatus represents the health status response
type HealthStatus struct {
	Status    string                   `json:"status"`
	Timestamp time.Time                `json:"timestamp"`
	Version   string                   `json:"version"`
	Runtime   map[string]interface{}   `json:"runtime,omitempty"`
	Services  map[string]ServiceHealth `json:"services,omitempty"`
}

// ServiceHealth represents individual service health
type ServiceHealth struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// NewHealthService creates a health service. analysis may be nil.
func NewHealthService(version string, wb config.WorkbookConfig, analysis *AnalysisService, logger *slog.Logger) *HealthService {
	if logger == nil {
		logger = slog.Default()
	}
	return &HealthService{
		version:   version,
		workbook:  wb,
		analysis:  analysis,
		startTime: time.Now(),
		logger:    logger.With(slog.String("service", "health")),
	}
}

// HealthCheck returns overall health status
func (hs *HealthService) HealthCheck(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:    "ok",
		Timestamp: time.Now(),
		Version:   hs.version,
	}

	hs.logger.DebugContext(ctx, "health check completed",
		slog.String("status", status.Status),
		slog.Duration("uptime", time.Since(hs.startTime)))
	return status
}

// ReadinessCheck reports whether the analysis pipeline can serve uploads.
func (hs *HealthService) ReadinessCheck(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:    "ready",
		Timestamp: time.Now(),
		Version:   hs.version,
		Services: map[string]ServiceHealth{
			"analysis":  hs.checkAnalysis(),
			"workbook":  hs.checkWorkbookLayout(),
			"narrative": hs.checkNarrative(),
		},
	}

	for name, sh := range status.Services {
		if sh.Status != "ready" && sh.Status != "disabled" {
			status.Status = "not_ready"
			hs.logger.WarnContext(ctx, "service not ready",
				slog.String("check", name),
				slog.String("message", sh.Message))
		}
	}

	return status
}

// LivenessCheck returns liveness status
func (hs *HealthService) LivenessCheck(ctx context.Context) HealthStatus {
	return HealthStatus{
		Status:    "alive",
		Timestamp: time.Now(),
		Version:   hs.version,
		Runtime: map[string]interface{}{
			"uptime":     time.Since(hs.startTime).Seconds(),
			"go_version": runtime.Version(),
			"goroutines": runtime.NumGoroutine(),
		},
	}
}

// Version returns version information
func (hs *HealthService) Version() contracts.VersionInfo {
	info := contracts.GetVersionInfo()
	if hs.version != "" {
		info.Version = hs.version
	}
	return info
}

func (hs *HealthService) checkAnalysis() ServiceHealth {
	if hs.analysis == nil {
		return ServiceHealth{Status: "not_ready", Message: "analysis service not initialized"}
	}
	return ServiceHealth{Status: "ready"}
}

func (hs *HealthService) checkWorkbookLayout() ServiceHealth {
	if hs.workbook.FirstValueColumn <= hs.workbook.LabelColumn {
		return ServiceHealth{Status: "not_ready", Message: "value columns must follow the label column"}
	}
	return ServiceHealth{Status: "ready", Message: hs.workbook.Sheets.IncomeStatement}
}

func (hs *HealthService) checkNarrative() ServiceHealth {
	if hs.analysis == nil || !hs.analysis.NarrativeEnabled() {
		return ServiceHealth{Status: "disabled", Message: "narrative provider not configured"}
	}
	return ServiceHealth{Status: "ready", Message: hs.analysis.narrator.ProviderName()}
}
