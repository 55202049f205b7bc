package narrative

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storagefin/internal/config"
)

func TestGeminiProvider_Complete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "models/gemini-test:generateContent"), r.URL.Path)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":"Break-even is one month out."}]}}]}`))
	}))
	defer srv.Close()

	p, err := NewGeminiProvider(context.Background(), config.NarrativeConfig{
		Provider:    "gemini",
		Model:       "gemini-test",
		BaseURL:     srv.URL,
		APIKey:      "test-key",
		Temperature: 0.5,
		Timeout:     time.Second,
	})
	require.NoError(t, err)
	assert.Equal(t, "gemini", p.Name())
	assert.Equal(t, "gemini-test", p.Model())

	text, err := p.Complete(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, "Break-even is one month out.", text)
}

func TestGeminiProvider_DefaultModel(t *testing.T) {
	p, err := NewGeminiProvider(context.Background(), config.NarrativeConfig{APIKey: "k"})
	require.NoError(t, err)
	assert.Equal(t, defaultGeminiModel, p.Model())
}
