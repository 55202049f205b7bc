// Package narrative produces natural-language commentary on a financial
// snapshot through a configurable language-model provider.
package narrative

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"storagefin/internal/config"
	apperrors "storagefin/internal/errors"
	"storagefin/pkg/contracts/domain"
)

// ErrEmptyNarrative is returned when a provider answers with no text.
var ErrEmptyNarrative = errors.New("provider returned an empty narrative")

// Provider completes a single prompt.
type Provider interface {
	Name() string
	Model() string
	Complete(ctx context.Context, prompt string) (string, error)
}

// Narrator turns snapshots into commentary. A Narrator without a provider
// is disabled and produces nothing.
type Narrator struct {
	provider Provider
	timeout  time.Duration
	logger   *slog.Logger
	now      func() time.Time
}

// NewNarrator wraps a provider. A nil provider disables narration.
func NewNarrator(provider Provider, timeout time.Duration, logger *slog.Logger) *Narrator {
	if timeout <= 0 {
		timeout = config.DefaultNarrativeTimeout
	}
	return &Narrator{
		provider: provider,
		timeout:  timeout,
		logger:   logger.With(slog.String("component", "narrator")),
		now:      time.Now,
	}
}

// New builds a Narrator for the configured provider.
func New(ctx context.Context, cfg config.NarrativeConfig, logger *slog.Logger) (*Narrator, error) {
	var provider Provider
	switch cfg.Provider {
	case "none", "":
	case "openai":
		provider = NewOpenAIProvider(cfg, &http.Client{Timeout: cfg.Timeout})
	case "gemini":
		gp, err := NewGeminiProvider(ctx, cfg)
		if err != nil {
			return nil, err
		}
		provider = gp
	default:
		return nil, apperrors.NewConfigError(fmt.Sprintf("unknown narrative provider %q", cfg.Provider), nil)
	}
	return NewNarrator(provider, cfg.Timeout, logger), nil
}

// Enabled reports whether a provider is configured.
func (n *Narrator) Enabled() bool {
	return n != nil && n.provider != nil
}

// ProviderName returns the configured provider name or "none".
func (n *Narrator) ProviderName() string {
	if !n.Enabled() {
		return "none"
	}
	return n.provider.Name()
}

// Narrate generates commentary for snap within the narrator's timeout.
// On failure the returned Narrative carries the error message alongside
// the error itself, so callers can report it without discarding metrics.
// A disabled narrator returns nil, nil.
func (n *Narrator) Narrate(ctx context.Context, snap *domain.FinancialSnapshot) (*domain.Narrative, error) {
	if !n.Enabled() {
		return nil, nil
	}

	result := &domain.Narrative{
		Provider: n.provider.Name(),
		Model:    n.provider.Model(),
	}

	prompt, err := BuildPrompt(snap)
	if err != nil {
		result.Error = "could not build prompt"
		return result, fmt.Errorf("build prompt: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()

	start := n.now()
	text, err := n.provider.Complete(ctx, prompt)
	if err == nil {
		text = CleanMarkdown(text)
		if text == "" {
			err = ErrEmptyNarrative
		}
	}
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			result.Error = fmt.Sprintf("narrative timed out after %s", n.timeout)
		} else {
			result.Error = err.Error()
		}
		n.logger.WarnContext(ctx, "narrative generation failed",
			slog.String("provider", result.Provider),
			slog.String("error", err.Error()))
		return result, err
	}

	result.Text = text
	result.GeneratedAt = n.now()
	n.logger.DebugContext(ctx, "narrative generated",
		slog.String("provider", result.Provider),
		slog.Duration("duration", result.GeneratedAt.Sub(start)),
		slog.Int("chars", len(text)))
	return result, nil
}
