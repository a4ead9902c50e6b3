package event

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/quillreader/quill/pkg/quill/command"
	quillerrors "github.com/quillreader/quill/pkg/quill/errors"
	"github.com/quillreader/quill/pkg/quill/observability"
)

// RouterConfig configures a Router.
type RouterConfig struct {
	Logger  *slog.Logger
	Metrics observability.MetricsRecorder
	Spans   observability.SpanManager
}

// Router fans one event out to every handler registered for its type.
// Handlers run in registration order and their command outputs are
// concatenated in that order, so output for a given event is
// deterministic.
type Router struct {
	config RouterConfig

	mu     sync.RWMutex
	byType map[Type][]Handler
}

// NewRouter creates an empty router.
func NewRouter(config RouterConfig) *Router {
	if config.Metrics == nil {
		config.Metrics = observability.NoopMetrics{}
	}
	if config.Spans == nil {
		config.Spans = observability.NoopSpanManager{}
	}
	return &Router{
		config: config,
		byType: make(map[Type][]Handler),
	}
}

// Register adds a handler for every type it matches. Registration order
// is dispatch order.
func (r *Router) Register(h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range h.Matches() {
		r.byType[t] = append(r.byType[t], h)
	}
}

// Route runs every handler matching the event and returns their commands
// in registration order. Handler failures are isolated: a skipped or
// failed handler contributes nothing, the rest still run. Route never
// returns an error; an event that produces no commands is a normal
// outcome.
func (r *Router) Route(ctx context.Context, deps *Deps, evt Event) []command.Command {
	r.mu.RLock()
	handlers := r.byType[evt.EventType()]
	r.mu.RUnlock()

	var out []command.Command
	for _, h := range handlers {
		cmds := r.runHandler(ctx, deps, evt, h)
		out = append(out, cmds...)
	}
	return out
}

func (r *Router) runHandler(ctx context.Context, deps *Deps, evt Event, h Handler) []command.Command {
	ctx, span := r.config.Spans.StartHandlerSpan(ctx, h.Name())
	start := time.Now()

	cmds, err := h.Handle(ctx, &Scope{Event: evt, Deps: deps})

	r.config.Metrics.RecordHandler(ctx, h.Name(), time.Since(start), err)
	r.config.Spans.EndSpanWithError(span, err)

	if err != nil {
		switch {
		case quillerrors.IsPrecondition(err):
			// Unmet precondition, not even worth a debug line.
		case quillerrors.IsNotFound(err):
			observability.LogHandlerSkipped(r.config.Logger, h.Name(), string(evt.EventType()), err)
		default:
			observability.LogHandlerFailed(r.config.Logger, h.Name(), string(evt.EventType()),
				&quillerrors.HandlerError{Handler: h.Name(), Err: err})
		}
		return nil
	}
	return cmds
}
