// Package telemetry provides the structured, context-aware logger used
// across every pipeline component. It never accepts a raw surface value
// as a field; callers pass entity types, session ids, and counts only.
package telemetry

import (
	"context"

	"go.uber.org/zap"
)

type requestIDKey struct{}

// WithRequestID attaches a request id to ctx so New's derived logger can
// tag every subsequent log line with it.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

// RequestIDFromContext retrieves a request id set by WithRequestID.
func RequestIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(requestIDKey{}).(string); ok {
		return v
	}
	return ""
}

// New builds a *zap.Logger for the given log level string ("debug",
// "info", "warn", "error"), falling back to info on an unrecognized
// value.
func New(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	var zapLevel zap.AtomicLevel
	if err := zapLevel.UnmarshalText([]byte(level)); err != nil {
		zapLevel = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	cfg.Level = zapLevel
	return cfg.Build()
}

// FromContext returns a child logger tagged with the request id carried
// on ctx, or base unchanged if none is present.
func FromContext(ctx context.Context, base *zap.Logger) *zap.Logger {
	if id := RequestIDFromContext(ctx); id != "" {
		return base.With(zap.String("request_id", id))
	}
	return base
}
