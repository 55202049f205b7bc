package infrastructure

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

// EnsureTraceID returns ctx carrying a trace ID, generating a UUID when
// none is set. Requests get theirs from the RequestID middleware; the CLI
// calls this once per run.
func EnsureTraceID(ctx context.Context) context.Context {
	if GetTraceID(ctx) == "" {
		return WithTraceID(ctx, uuid.NewString())
	}
	return ctx
}

// UploadAttrs are the log attributes identifying one uploaded workbook.
func UploadAttrs(fileName string, size int64, source string) []any {
	return []any{
		slog.String("file", fileName),
		slog.Int64("size_bytes", size),
		slog.String("source", source),
	}
}
