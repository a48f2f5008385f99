package logging

import (
	"context"
	"log/slog"
)

type ctxKey struct{}

var key ctxKey

// WithLogger stores a request-scoped logger, e.g. one carrying request_id.
func WithLogger(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, key, l)
}

// From returns the logger stored in ctx, or slog.Default.
func From(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(key).(*slog.Logger); ok && l != nil {
		return l
	}
	return slog.Default()
}
