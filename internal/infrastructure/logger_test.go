package infrastructure

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storagefin/internal/config"
)

func TestInitializeLogger(t *testing.T) {
	ResetLoggerForTesting()
	defer ResetLoggerForTesting()

	logFile := filepath.Join(t.TempDir(), "logs", "app.log")
	cfg := config.LoggingConfig{
		Level:    "info",
		Format:   "json",
		Output:   "file",
		FilePath: logFile,
	}

	logger, err := InitializeLogger(cfg)
	require.NoError(t, err)
	require.NotNil(t, logger)

	logger.Info("workbook loaded", "sheets", 4)
	require.NoError(t, CloseLogFile())

	content, err := os.ReadFile(logFile)
	require.NoError(t, err)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(content), &entry))
	assert.Equal(t, "workbook loaded", entry["msg"])
	assert.Equal(t, float64(4), entry["sheets"])
	assert.Equal(t, "INFO", entry["level"])
}

func TestInitializeLogger_OnlyOnce(t *testing.T) {
	ResetLoggerForTesting()
	defer ResetLoggerForTesting()

	first, err := InitializeLogger(config.LoggingConfig{Level: "info", Output: "console"})
	require.NoError(t, err)
	second, err := InitializeLogger(config.LoggingConfig{Level: "debug", Output: "console"})
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Same(t, first, GetLogger())
}

func TestTraceIDInjection(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, "debug")

	ctx := WithTraceID(context.Background(), "test-trace-123")
	logger.InfoContext(ctx, "with trace")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "test-trace-123", entry["trace_id"])

	buf.Reset()
	logger.Info("without trace")
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	_, ok := entry["trace_id"]
	assert.False(t, ok)
}

func TestTraceHandlerKeepsAttrsAndGroups(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, "info").With("component", "extractor").WithGroup("sheet")

	logger.InfoContext(WithTraceID(context.Background(), "abc"), "indexed", "rows", 12)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "extractor", entry["component"])
	group, ok := entry["sheet"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, float64(12), group["rows"])
	assert.Equal(t, "abc", group["trace_id"])
}

func TestLogLevels(t *testing.T) {
	tests := []struct {
		level    string
		expected string
	}{
		{"debug", "DEBUG"},
		{"info", "INFO"},
		{"warn", "WARN"},
		{"error", "ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			ResetLoggerForTesting()
			defer ResetLoggerForTesting()

			logFile := filepath.Join(t.TempDir(), "test.log")
			logger, err := InitializeLogger(config.LoggingConfig{
				Level:    tt.level,
				Format:   "json",
				Output:   "both",
				FilePath: logFile,
			})
			require.NoError(t, err)

			switch tt.level {
			case "debug":
				logger.Debug("test debug")
			case "info":
				logger.Info("test info")
			case "warn":
				logger.Warn("test warn")
			case "error":
				logger.Error("test error")
			}
			require.NoError(t, CloseLogFile())

			content, err := os.ReadFile(logFile)
			require.NoError(t, err)

			var entry map[string]interface{}
			require.NoError(t, json.Unmarshal(content, &entry))
			assert.Equal(t, tt.expected, entry["level"])
		})
	}
}

func TestParseLogLevel_Unknown(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, "verbose")

	logger.Debug("hidden")
	assert.Empty(t, buf.String())

	logger.Info("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestContextHelpers(t *testing.T) {
	ctx := EnsureTraceID(context.Background())
	traceID := GetTraceID(ctx)
	assert.NotEmpty(t, traceID)

	assert.Equal(t, traceID, GetTraceID(EnsureTraceID(ctx)), "existing trace id must be preserved")
	assert.Empty(t, GetTraceID(context.Background()))
}

func TestUploadAttrs(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, "info")

	logger.Info("upload", UploadAttrs("package.xlsx", 2048, "cli")...)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "package.xlsx", entry["file"])
	assert.Equal(t, 2048.0, entry["size_bytes"])
	assert.Equal(t, "cli", entry["source"])
}
