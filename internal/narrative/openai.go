package narrative

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"storagefin/internal/config"
	apperrors "storagefin/internal/errors"
)

const (
	defaultOpenAIBaseURL = "https://api.openai.com/v1"
	defaultOpenAIModel   = "gpt-4"
)

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float32       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// OpenAIProvider calls an OpenAI-compatible chat completions endpoint.
type OpenAIProvider struct {
	baseURL     string
	apiKey      string
	model       string
	temperature float32
	maxTokens   int
	client      *http.Client
}

// NewOpenAIProvider creates a provider. A nil client uses
// http.DefaultClient; the request context bounds every call.
func NewOpenAIProvider(cfg config.NarrativeConfig, client *http.Client) *OpenAIProvider {
	if client == nil {
		client = http.DefaultClient
	}
	p := &OpenAIProvider{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:      cfg.APIKey,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		client:      client,
	}
	if p.baseURL == "" {
		p.baseURL = defaultOpenAIBaseURL
	}
	if p.model == "" {
		p.model = defaultOpenAIModel
	}
	return p
}

// Name implements Provider
func (p *OpenAIProvider) Name() string { return "openai" }

// Model implements Provider
func (p *OpenAIProvider) Model() string { return p.model }

// Complete implements Provider
func (p *OpenAIProvider) Complete(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model:       p.model,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		Temperature: p.temperature,
		MaxTokens:   p.maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("encode chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	res, err := p.client.Do(req)
	if err != nil {
		return "", apperrors.NewNetworkError("chat completion request failed", err)
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return "", apperrors.NewNetworkError("read chat completion response", err)
	}

	var out chatResponse
	decodeErr := json.Unmarshal(raw, &out)

	if res.StatusCode != http.StatusOK {
		msg := strings.TrimSpace(string(raw))
		if decodeErr == nil && out.Error != nil {
			msg = out.Error.Message
		}
		return "", apperrors.NewNetworkError(
			fmt.Sprintf("chat completion returned %d: %s", res.StatusCode, msg), nil)
	}
	if decodeErr != nil {
		return "", apperrors.NewParsingError("decode chat completion response", decodeErr)
	}
	if len(out.Choices) == 0 {
		return "", apperrors.NewParsingError("chat completion returned no choices", nil)
	}

	return out.Choices[0].Message.Content, nil
}
