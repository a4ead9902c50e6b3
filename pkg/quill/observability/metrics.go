package observability

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MetricsRecorder records quill metrics.
// Use NewMetricsRecorder() for OTel metrics or NoopMetrics{} when disabled.
type MetricsRecorder interface {
	// RecordCacheLookup records one cache Get with its hit/miss outcome.
	RecordCacheLookup(ctx context.Context, hit bool)

	// RecordFetch records a cache-miss fetch through the bus client.
	RecordFetch(ctx context.Context, duration time.Duration, err error)

	// RecordEvent records one decoded (or dropped) bus event.
	RecordEvent(ctx context.Context, eventType string, dropped bool)

	// RecordHandler records one handler invocation with its outcome.
	RecordHandler(ctx context.Context, handler string, duration time.Duration, err error)

	// RecordCommand records one dispatched command.
	RecordCommand(ctx context.Context, kind, effector string, duration time.Duration, err error)
}

// otelMetrics implements MetricsRecorder using OpenTelemetry.
type otelMetrics struct {
	cacheLookups   metric.Int64Counter
	fetches        metric.Int64Counter
	fetchLatency   metric.Float64Histogram
	events         metric.Int64Counter
	handlerRuns    metric.Int64Counter
	handlerLatency metric.Float64Histogram
	commands       metric.Int64Counter
	commandLatency metric.Float64Histogram
}

var (
	defaultMetrics     *otelMetrics
	defaultMetricsOnce sync.Once
	defaultMetricsErr  error
)

func getDefaultMetrics() (*otelMetrics, error) {
	defaultMetricsOnce.Do(func() {
		defaultMetrics, defaultMetricsErr = newOtelMetrics()
	})
	return defaultMetrics, defaultMetricsErr
}

func newOtelMetrics() (*otelMetrics, error) {
	meter := otel.Meter("quill")

	cacheLookups, err := meter.Int64Counter("quill.cache.lookups",
		metric.WithDescription("Number of cache lookups"),
	)
	if err != nil {
		return nil, err
	}

	fetches, err := meter.Int64Counter("quill.cache.fetches",
		metric.WithDescription("Number of cache-miss fetches through the bus client"),
	)
	if err != nil {
		return nil, err
	}

	fetchLatency, err := meter.Float64Histogram("quill.cache.fetch_latency_ms",
		metric.WithDescription("Fetch latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	events, err := meter.Int64Counter("quill.pipeline.events",
		metric.WithDescription("Number of bus events received"),
	)
	if err != nil {
		return nil, err
	}

	handlerRuns, err := meter.Int64Counter("quill.pipeline.handler_runs",
		metric.WithDescription("Number of handler invocations"),
	)
	if err != nil {
		return nil, err
	}

	handlerLatency, err := meter.Float64Histogram("quill.pipeline.handler_latency_ms",
		metric.WithDescription("Handler latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	commands, err := meter.Int64Counter("quill.dispatch.commands",
		metric.WithDescription("Number of commands dispatched"),
	)
	if err != nil {
		return nil, err
	}

	commandLatency, err := meter.Float64Histogram("quill.dispatch.command_latency_ms",
		metric.WithDescription("Command execution latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	return &otelMetrics{
		cacheLookups:   cacheLookups,
		fetches:        fetches,
		fetchLatency:   fetchLatency,
		events:         events,
		handlerRuns:    handlerRuns,
		handlerLatency: handlerLatency,
		commands:       commands,
		commandLatency: commandLatency,
	}, nil
}

// NewMetricsRecorder returns a MetricsRecorder that uses OpenTelemetry.
// If metrics initialization fails, returns a no-op recorder.
//
// The recorder uses the global OTel meter provider. Configure the provider
// before calling this function:
//
//	import "go.opentelemetry.io/otel"
//	otel.SetMeterProvider(yourProvider)
func NewMetricsRecorder() MetricsRecorder {
	m, err := getDefaultMetrics()
	if err != nil {
		slog.Warn("metrics initialization failed, using no-op recorder",
			slog.String("error", err.Error()))
		return NoopMetrics{}
	}
	return m
}

// RecordCacheLookup records one cache lookup.
func (m *otelMetrics) RecordCacheLookup(ctx context.Context, hit bool) {
	m.cacheLookups.Add(ctx, 1, metric.WithAttributes(attribute.Bool("hit", hit)))
}

// RecordFetch records one fetch.
func (m *otelMetrics) RecordFetch(ctx context.Context, duration time.Duration, err error) {
	attrs := []attribute.KeyValue{
		attribute.Bool("success", err == nil),
	}
	m.fetches.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.fetchLatency.Record(ctx, float64(duration.Milliseconds()), metric.WithAttributes(attrs...))
}

// RecordEvent records one bus event.
func (m *otelMetrics) RecordEvent(ctx context.Context, eventType string, dropped bool) {
	m.events.Add(ctx, 1, metric.WithAttributes(
		attribute.String("event_type", eventType),
		attribute.Bool("dropped", dropped),
	))
}

// RecordHandler records one handler invocation.
func (m *otelMetrics) RecordHandler(ctx context.Context, handler string, duration time.Duration, err error) {
	attrs := []attribute.KeyValue{
		attribute.String("handler", handler),
		attribute.Bool("success", err == nil),
	}
	m.handlerRuns.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.handlerLatency.Record(ctx, float64(duration.Milliseconds()), metric.WithAttributes(attrs...))
}

// RecordCommand records one dispatched command.
func (m *otelMetrics) RecordCommand(ctx context.Context, kind, effector string, duration time.Duration, err error) {
	attrs := []attribute.KeyValue{
		attribute.String("kind", kind),
		attribute.String("effector", effector),
		attribute.Bool("success", err == nil),
	}
	m.commands.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.commandLatency.Record(ctx, float64(duration.Milliseconds()), metric.WithAttributes(attrs...))
}
