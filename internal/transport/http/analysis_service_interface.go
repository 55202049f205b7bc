package http

import (
	"context"

	"storagefin/internal/services"
	"storagefin/pkg/contracts/domain"
)

// AnalysisServiceInterface defines the analysis operations used by handlers
type AnalysisServiceInterface interface {
	Analyze(ctx context.Context, up services.Upload) (*domain.AnalysisReport, error)
	NarrativeEnabled() bool
}
