package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testHandler captures log records for testing.
type testHandler struct {
	buf   *bytes.Buffer
	level slog.Level
	attrs []slog.Attr
}

func newTestHandler() *testHandler {
	return &testHandler{
		buf:   &bytes.Buffer{},
		level: slog.LevelDebug,
	}
}

func (h *testHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *testHandler) Handle(_ context.Context, r slog.Record) error {
	data := map[string]any{
		"level": r.Level.String(),
		"msg":   r.Message,
	}
	for _, attr := range h.attrs {
		data[attr.Key] = attr.Value.Any()
	}
	r.Attrs(func(a slog.Attr) bool {
		data[a.Key] = a.Value.Any()
		return true
	})
	enc := json.NewEncoder(h.buf)
	return enc.Encode(data)
}

func (h *testHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &testHandler{buf: h.buf, level: h.level, attrs: append(h.attrs, attrs...)}
}

func (h *testHandler) WithGroup(string) slog.Handler {
	return h
}

func (h *testHandler) records(t *testing.T) []map[string]any {
	t.Helper()
	var records []map[string]any
	for _, line := range bytes.Split(h.buf.Bytes(), []byte("\n")) {
		if len(line) == 0 {
			continue
		}
		var m map[string]any
		require.NoError(t, json.Unmarshal(line, &m))
		records = append(records, m)
	}
	return records
}

func TestEnrichLogger(t *testing.T) {
	h := newTestHandler()
	logger := slog.New(h)

	enriched := EnrichLogger(logger, "sess-1", 3)
	enriched.Info("hello")

	records := h.records(t)
	require.Len(t, records, 1)
	assert.Equal(t, "sess-1", records[0]["session_id"])
	assert.Equal(t, float64(3), records[0]["worker"])
}

func TestEnrichLoggerNil(t *testing.T) {
	assert.Nil(t, EnrichLogger(nil, "s", 0))
}

func TestLogEventDropped(t *testing.T) {
	h := newTestHandler()
	logger := slog.New(h)

	LogEventDropped(logger, "ChildrenChanged", errors.New("missing body"))

	records := h.records(t)
	require.Len(t, records, 1)
	assert.Equal(t, "WARN", records[0]["level"])
	assert.Equal(t, "event dropped", records[0]["msg"])
	assert.Equal(t, "ChildrenChanged", records[0]["member"])
}

func TestLogHandlerSkippedIsDebug(t *testing.T) {
	h := newTestHandler()
	logger := slog.New(h)

	LogHandlerSkipped(logger, "announce-focus", "focus.changed", errors.New("not found"))

	records := h.records(t)
	require.Len(t, records, 1)
	assert.Equal(t, "DEBUG", records[0]["level"], "skips must never be fatal noise")
}

func TestLogHandlerFailed(t *testing.T) {
	h := newTestHandler()
	logger := slog.New(h)

	LogHandlerFailed(logger, "caret-moved", "text.caret-moved", errors.New("boom"))

	records := h.records(t)
	require.Len(t, records, 1)
	assert.Equal(t, "ERROR", records[0]["level"])
	assert.Equal(t, "caret-moved", records[0]["handler"])
}

func TestLogCommandHelpers(t *testing.T) {
	h := newTestHandler()
	logger := slog.New(h)

	LogCommandDispatched(logger, "speak", "speech", 1.5)
	LogCommandFailed(logger, "speak", "speech", errors.New("server gone"))
	LogCommandDepthExceeded(logger, "speak", 9)

	records := h.records(t)
	require.Len(t, records, 3)
	assert.Equal(t, "DEBUG", records[0]["level"])
	assert.Equal(t, "ERROR", records[1]["level"])
	assert.Equal(t, "WARN", records[2]["level"])
	assert.Equal(t, float64(9), records[2]["depth"])
}

func TestNilLoggerIsSafe(t *testing.T) {
	// None of these may panic with a nil logger.
	LogEventDropped(nil, "x", errors.New("e"))
	LogHandlerSkipped(nil, "h", "t", errors.New("e"))
	LogHandlerFailed(nil, "h", "t", errors.New("e"))
	LogCommandDispatched(nil, "k", "e", 0)
	LogCommandFailed(nil, "k", "e", errors.New("e"))
	LogCommandDepthExceeded(nil, "k", 0)
	LogFetch(nil, "id", 0, nil)
}

func TestLogFetch(t *testing.T) {
	h := newTestHandler()
	logger := slog.New(h)

	LogFetch(logger, ":1.2:/obj/1", 2.0, nil)
	LogFetch(logger, ":1.2:/obj/2", 5.0, errors.New("timeout"))

	records := h.records(t)
	require.Len(t, records, 2)
	assert.Equal(t, "fetched", records[0]["msg"])
	assert.Equal(t, "fetch failed", records[1]["msg"])
}

func TestTimedOperation(t *testing.T) {
	done := TimedOperation()
	time.Sleep(5 * time.Millisecond)
	assert.GreaterOrEqual(t, done(), float64(0))
}
