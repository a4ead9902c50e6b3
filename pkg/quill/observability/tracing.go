package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// tracer is the quill tracer instance, using the global OTel provider.
var tracer = otel.Tracer("quill")

// SpanManager handles trace span lifecycle.
// Use NewSpanManager() for OTel tracing or NoopSpanManager{} when disabled.
type SpanManager interface {
	// StartEventSpan starts a span covering one event's trip through the
	// pipeline.
	StartEventSpan(ctx context.Context, eventType, sender string) (context.Context, trace.Span)

	// StartHandlerSpan starts a span for one handler invocation, a child
	// of the event span.
	StartHandlerSpan(ctx context.Context, handler string) (context.Context, trace.Span)

	// StartCommandSpan starts a span for one command execution.
	StartCommandSpan(ctx context.Context, kind, effector string) (context.Context, trace.Span)

	// EndSpanWithError completes a span, optionally recording an error.
	EndSpanWithError(span trace.Span, err error)

	// AddSpanEvent adds an event to the current span in context.
	AddSpanEvent(ctx context.Context, name string, attrs ...attribute.KeyValue)
}

// otelSpanManager implements SpanManager using OpenTelemetry.
type otelSpanManager struct{}

// NewSpanManager returns a SpanManager that uses OpenTelemetry.
//
// The span manager uses the global OTel tracer provider. Configure the
// provider before calling this function:
//
//	import "go.opentelemetry.io/otel"
//	otel.SetTracerProvider(yourProvider)
func NewSpanManager() SpanManager {
	return &otelSpanManager{}
}

// StartEventSpan starts a span covering one event.
func (m *otelSpanManager) StartEventSpan(ctx context.Context, eventType, sender string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "quill.event",
		trace.WithAttributes(
			attribute.String("event.type", eventType),
			attribute.String("event.sender", sender),
		),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

// StartHandlerSpan starts a span for one handler invocation.
func (m *otelSpanManager) StartHandlerSpan(ctx context.Context, handler string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "quill.handler."+handler,
		trace.WithAttributes(
			attribute.String("handler", handler),
		),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

// StartCommandSpan starts a span for one command execution.
func (m *otelSpanManager) StartCommandSpan(ctx context.Context, kind, effector string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "quill.command."+kind,
		trace.WithAttributes(
			attribute.String("command.kind", kind),
			attribute.String("command.effector", effector),
		),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

// EndSpanWithError completes a span, optionally recording an error.
func (m *otelSpanManager) EndSpanWithError(span trace.Span, err error) {
	if span == nil {
		return
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// AddSpanEvent adds an event to the current span.
func (m *otelSpanManager) AddSpanEvent(ctx context.Context, name string, attrs ...attribute.KeyValue) {
	span := trace.SpanFromContext(ctx)
	if span == nil || !span.IsRecording() {
		return
	}
	span.AddEvent(name, trace.WithAttributes(attrs...))
}
