package log

import (
	"context"
	"log/slog"
	"net/http"
)

// ContextKey type for context keys
type ContextKey string

// LoggerContextKey is the context key for the request-scoped logger.
const LoggerContextKey ContextKey = "logger"

// IntoContext stores a logger in the context for handlers downstream.
func IntoContext(ctx context.Context, logger *Logger) context.Context {
	return context.WithValue(ctx, LoggerContextKey, logger)
}

// FromContext extracts the request-scoped logger, falling back to the
// process default when none was attached.
func FromContext(ctx context.Context) *Logger {
	if logger, ok := ctx.Value(LoggerContextKey).(*Logger); ok {
		return logger
	}
	return &Logger{
		Logger:    slog.Default(),
		component: ComponentApp,
	}
}

// HTTPStart logs the start of an HTTP request.
func HTTPStart(ctx context.Context, r *http.Request, clientIP string) {
	FromContext(ctx).WithComponent(ComponentHTTP).InfoContext(ctx, "Request started",
		FieldMethod, r.Method,
		FieldPath, r.URL.Path,
		FieldQuery, r.URL.RawQuery,
		FieldClientIP, clientIP,
		FieldUserAgent, r.Header.Get("User-Agent"))
}

// HTTPEnd logs the completion of an HTTP request. Client errors log at warn,
// server errors at error.
func HTTPEnd(ctx context.Context, r *http.Request, statusCode int, durationMs int64, clientIP string) {
	level := slog.LevelInfo
	switch {
	case statusCode >= 500:
		level = slog.LevelError
	case statusCode >= 400:
		level = slog.LevelWarn
	}

	FromContext(ctx).WithComponent(ComponentHTTP).Log(ctx, level, "Request completed",
		FieldMethod, r.Method,
		FieldPath, r.URL.Path,
		FieldStatusCode, statusCode,
		FieldDuration, durationMs,
		FieldClientIP, clientIP)
}
