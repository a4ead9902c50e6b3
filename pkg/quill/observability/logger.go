// Package observability provides structured logging, metrics, and tracing
// for quill: events flowing through the pipeline, cache activity, and
// command dispatch.
//
// Features:
//   - Structured logging via slog (Go stdlib)
//   - Metrics via OpenTelemetry
//   - Tracing via OpenTelemetry
//
// All features are opt-in and have no-op implementations when disabled.
package observability

import (
	"log/slog"
	"time"
)

// EnrichLogger adds pipeline context to a logger. Returns a new logger
// with session_id and, when worker is non-negative, worker fields.
func EnrichLogger(logger *slog.Logger, sessionID string, worker int) *slog.Logger {
	if logger == nil {
		return nil
	}
	attrs := []any{slog.String("session_id", sessionID)}
	if worker >= 0 {
		attrs = append(attrs, slog.Int("worker", worker))
	}
	return logger.With(attrs...)
}

// LogEventDropped logs a malformed bus message being discarded.
func LogEventDropped(logger *slog.Logger, member string, err error) {
	if logger == nil {
		return
	}
	logger.Warn("event dropped",
		slog.String("member", member),
		slog.String("error", err.Error()),
	)
}

// LogHandlerSkipped logs a handler skipped because a requirement could not
// be resolved. Precondition skips are intentionally quiet.
func LogHandlerSkipped(logger *slog.Logger, handler, eventType string, err error) {
	if logger == nil {
		return
	}
	logger.Debug("handler skipped",
		slog.String("handler", handler),
		slog.String("event_type", eventType),
		slog.String("reason", err.Error()),
	)
}

// LogHandlerFailed logs an unexpected failure inside one handler.
func LogHandlerFailed(logger *slog.Logger, handler, eventType string, err error) {
	if logger == nil {
		return
	}
	logger.Error("handler failed",
		slog.String("handler", handler),
		slog.String("event_type", eventType),
		slog.String("error", err.Error()),
	)
}

// LogCommandDispatched logs a completed command at debug level.
func LogCommandDispatched(logger *slog.Logger, kind, effector string, durationMs float64) {
	if logger == nil {
		return
	}
	logger.Debug("command dispatched",
		slog.String("kind", kind),
		slog.String("effector", effector),
		slog.Float64("duration_ms", durationMs),
	)
}

// LogCommandFailed logs a command that failed after retries.
func LogCommandFailed(logger *slog.Logger, kind, effector string, err error) {
	if logger == nil {
		return
	}
	logger.Error("command failed",
		slog.String("kind", kind),
		slog.String("effector", effector),
		slog.String("error", err.Error()),
	)
}

// LogCommandDepthExceeded logs a re-entrant command dropped at the depth
// bound.
func LogCommandDepthExceeded(logger *slog.Logger, kind string, depth int) {
	if logger == nil {
		return
	}
	logger.Warn("command depth exceeded",
		slog.String("kind", kind),
		slog.Int("depth", depth),
	)
}

// LogFetch logs a cache-miss fetch through the bus client.
func LogFetch(logger *slog.Logger, id string, durationMs float64, err error) {
	if logger == nil {
		return
	}
	if err != nil {
		logger.Debug("fetch failed",
			slog.String("id", id),
			slog.Float64("duration_ms", durationMs),
			slog.String("error", err.Error()),
		)
		return
	}
	logger.Debug("fetched",
		slog.String("id", id),
		slog.Float64("duration_ms", durationMs),
	)
}

// TimedOperation measures the duration of an operation. Returns a function
// that, when called, returns the elapsed time in milliseconds.
func TimedOperation() func() float64 {
	start := time.Now()
	return func() float64 {
		return float64(time.Since(start).Milliseconds())
	}
}
