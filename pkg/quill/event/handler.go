package event

import (
	"context"

	"github.com/quillreader/quill/pkg/quill/command"
)

// Handler reacts to one or more event types, returning the commands the
// event should produce. Returning no commands and no error is the normal
// outcome for events a handler inspects but does not act on.
type Handler interface {
	Name() string
	Matches() []Type
	Handle(ctx context.Context, sc *Scope) ([]command.Command, error)
}

type handlerFunc struct {
	name  string
	types []Type
	fn    func(ctx context.Context, sc *Scope) ([]command.Command, error)
}

func (h handlerFunc) Name() string    { return h.name }
func (h handlerFunc) Matches() []Type { return h.types }

func (h handlerFunc) Handle(ctx context.Context, sc *Scope) ([]command.Command, error) {
	return h.fn(ctx, sc)
}

// NewHandler wraps a function needing no extracted state.
func NewHandler(name string, types []Type, fn func(ctx context.Context, sc *Scope) ([]command.Command, error)) Handler {
	return handlerFunc{name: name, types: types, fn: fn}
}

// Handle1 wraps a function declaring one extraction. The extraction runs
// before the function; if it fails, the function never runs and the
// extraction error decides whether the handler is skipped or reported.
func Handle1[T1 any, P1 interface {
	*T1
	Extractor
}](name string, types []Type, fn func(ctx context.Context, sc *Scope, t1 T1) ([]command.Command, error)) Handler {
	return handlerFunc{name: name, types: types, fn: func(ctx context.Context, sc *Scope) ([]command.Command, error) {
		var t1 T1
		if err := P1(&t1).Extract(ctx, sc); err != nil {
			return nil, err
		}
		return fn(ctx, sc, t1)
	}}
}

// Handle2 wraps a function declaring two extractions. Each extraction is
// resolved independently; the first failure decides the outcome.
func Handle2[T1, T2 any, P1 interface {
	*T1
	Extractor
}, P2 interface {
	*T2
	Extractor
}](name string, types []Type, fn func(ctx context.Context, sc *Scope, t1 T1, t2 T2) ([]command.Command, error)) Handler {
	return handlerFunc{name: name, types: types, fn: func(ctx context.Context, sc *Scope) ([]command.Command, error) {
		var t1 T1
		if err := P1(&t1).Extract(ctx, sc); err != nil {
			return nil, err
		}
		var t2 T2
		if err := P2(&t2).Extract(ctx, sc); err != nil {
			return nil, err
		}
		return fn(ctx, sc, t1, t2)
	}}
}

// Handle3 wraps a function declaring three extractions.
func Handle3[T1, T2, T3 any, P1 interface {
	*T1
	Extractor
}, P2 interface {
	*T2
	Extractor
}, P3 interface {
	*T3
	Extractor
}](name string, types []Type, fn func(ctx context.Context, sc *Scope, t1 T1, t2 T2, t3 T3) ([]command.Command, error)) Handler {
	return handlerFunc{name: name, types: types, fn: func(ctx context.Context, sc *Scope) ([]command.Command, error) {
		var t1 T1
		if err := P1(&t1).Extract(ctx, sc); err != nil {
			return nil, err
		}
		var t2 T2
		if err := P2(&t2).Extract(ctx, sc); err != nil {
			return nil, err
		}
		var t3 T3
		if err := P3(&t3).Extract(ctx, sc); err != nil {
			return nil, err
		}
		return fn(ctx, sc, t1, t2, t3)
	}}
}
