package narrative

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"storagefin/internal/config"
	apperrors "storagefin/internal/errors"
)

const defaultGeminiModel = "gemini-2.0-flash"

// GeminiProvider generates narratives with Google's Gemini models.
type GeminiProvider struct {
	client *genai.Client
	model  string
	config *genai.GenerateContentConfig
}

// NewGeminiProvider creates a Gemini API client from configuration.
func NewGeminiProvider(ctx context.Context, cfg config.NarrativeConfig) (*GeminiProvider, error) {
	cc := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, apperrors.NewConfigError("failed to create GenAI client", err)
	}

	model := cfg.Model
	if model == "" {
		model = defaultGeminiModel
	}

	gc := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(cfg.Temperature),
	}
	if cfg.MaxTokens > 0 {
		gc.MaxOutputTokens = int32(cfg.MaxTokens)
	}

	return &GeminiProvider{client: client, model: model, config: gc}, nil
}

// Name implements Provider
func (p *GeminiProvider) Name() string { return "gemini" }

// Model implements Provider
func (p *GeminiProvider) Model() string { return p.model }

// Complete implements Provider
func (p *GeminiProvider) Complete(ctx context.Context, prompt string) (string, error) {
	result, err := p.client.Models.GenerateContent(ctx, p.model, genai.Text(prompt), p.config)
	if err != nil {
		return "", apperrors.NewNetworkError(fmt.Sprintf("gemini generation with %s failed", p.model), err)
	}
	return result.Text(), nil
}
