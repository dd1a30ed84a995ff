// Package logger provides structured logging infrastructure for the application.
// This is part of the platform layer and contains no business logic.
package logger

import (
	"context"
	"log/slog"
	"os"
	"strings"
)

// Context key types for storing values in context
type contextKey string

const (
	// RequestIDKey is the context key for request ID
	RequestIDKey contextKey = "request_id"
	// JobNameKey is the context key for the scheduler job name
	JobNameKey contextKey = "job_name"
)

// Logger wraps slog.Logger for structured logging
type Logger struct {
	*slog.Logger
}

// New creates a new logger based on environment
func New(env string) *Logger {
	var handler slog.Handler

	opts := &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}

	if strings.EqualFold(env, "development") {
		opts.Level = slog.LevelDebug
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	return &Logger{
		Logger: slog.New(handler),
	}
}

// WithContext returns a logger with context values extracted.
// Supports request_id and job_name from context.
func (l *Logger) WithContext(ctx context.Context) *Logger {
	if ctx == nil {
		return l
	}

	newLogger := l

	if requestID, ok := ctx.Value(RequestIDKey).(string); ok && requestID != "" {
		newLogger = &Logger{Logger: newLogger.With(slog.String("request_id", requestID))}
	}

	if jobName, ok := ctx.Value(JobNameKey).(string); ok && jobName != "" {
		newLogger = &Logger{Logger: newLogger.With(slog.String("job", jobName))}
	}

	return newLogger
}

// WithJob returns a logger scoped to a scheduler job.
func (l *Logger) WithJob(jobName string) *Logger {
	return &Logger{Logger: l.With(slog.String("job", jobName))}
}

// HTTPRequest logs an HTTP request
func (l *Logger) HTTPRequest(method, path string, status int, latencyMs float64, clientIP string) {
	l.Info("http_request",
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", status),
		slog.Float64("latency_ms", latencyMs),
		slog.String("client_ip", clientIP),
	)
}

// HTTPError logs an HTTP error
func (l *Logger) HTTPError(method, path string, status int, err error, clientIP string) {
	l.Error("http_error",
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", status),
		slog.String("error", err.Error()),
		slog.String("client_ip", clientIP),
	)
}

// DispatchError logs a failed call dispatch for a single lead.
func (l *Logger) DispatchError(jobName, toNumber string, err error) {
	l.Error("dispatch_error",
		slog.String("job", jobName),
		slog.String("to", toNumber),
		slog.String("error", err.Error()),
	)
}

// WebhookDropped logs a provider event that was discarded.
func (l *Logger) WebhookDropped(eventType, callID, reason string) {
	l.Warn("webhook_dropped",
		slog.String("event", eventType),
		slog.String("call_id", callID),
		slog.String("reason", reason),
	)
}

// MigrationFailure logs a per-lead failure during the legacy call-history migration.
func (l *Logger) MigrationFailure(leadID string, err error) {
	l.Warn("legacy_migration_failure",
		slog.String("lead_id", leadID),
		slog.String("error", err.Error()),
	)
}

// DatabaseError logs database errors
func (l *Logger) DatabaseError(operation string, err error) {
	l.Error("database_error",
		slog.String("operation", operation),
		slog.String("error", err.Error()),
	)
}

// RateLimitExceeded logs rate limit events
func (l *Logger) RateLimitExceeded(clientIP, path string) {
	l.Warn("rate_limit_exceeded",
		slog.String("client_ip", clientIP),
		slog.String("path", path),
	)
}
