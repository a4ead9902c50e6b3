package observability

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel/attribute"
)

func TestNoopMetricsDoesNothing(t *testing.T) {
	m := NoopMetrics{}
	ctx := context.Background()

	// None of these may panic.
	m.RecordCacheLookup(ctx, true)
	m.RecordFetch(ctx, time.Millisecond, errors.New("x"))
	m.RecordEvent(ctx, "focus.changed", true)
	m.RecordHandler(ctx, "h", time.Millisecond, nil)
	m.RecordCommand(ctx, "speak", "speech", time.Millisecond, nil)
}

func TestNoopSpanManager(t *testing.T) {
	sm := NoopSpanManager{}
	ctx := context.Background()

	outCtx, span := sm.StartEventSpan(ctx, "focus.changed", ":1.2")
	assert.Equal(t, ctx, outCtx, "context must pass through unchanged")
	assert.NotNil(t, span)

	_, hspan := sm.StartHandlerSpan(ctx, "announce-focus")
	assert.NotNil(t, hspan)

	_, cspan := sm.StartCommandSpan(ctx, "speak", "speech")
	assert.NotNil(t, cspan)

	sm.EndSpanWithError(span, errors.New("x"))
	sm.EndSpanWithError(nil, nil)
	sm.AddSpanEvent(ctx, "noop", attribute.String("k", "v"))
}

func TestOtelSpanManager(t *testing.T) {
	sm := NewSpanManager()
	ctx := context.Background()

	spanCtx, span := sm.StartEventSpan(ctx, "focus.changed", ":1.2")
	assert.NotNil(t, spanCtx)
	assert.NotNil(t, span)

	_, child := sm.StartHandlerSpan(spanCtx, "announce-focus")
	sm.EndSpanWithError(child, nil)
	sm.EndSpanWithError(span, errors.New("boom"))
	sm.AddSpanEvent(spanCtx, "queued")
}
