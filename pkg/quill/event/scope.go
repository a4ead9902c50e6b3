package event

import (
	"context"
	"errors"
	"log/slog"

	"github.com/quillreader/quill/pkg/quill/a11y"
	"github.com/quillreader/quill/pkg/quill/cache"
	quillerrors "github.com/quillreader/quill/pkg/quill/errors"
	"github.com/quillreader/quill/pkg/quill/observability"
)

// FocusTracker exposes the reading position shared across handlers: the
// most recently focused accessible and the last known caret offset.
type FocusTracker interface {
	LastFocused() (a11y.Identity, bool)
	LastCaretOffset() int
}

// Deps bundles the shared state handlers draw on. One Deps value serves
// all handlers for the life of the pipeline.
type Deps struct {
	Cache   *cache.Cache
	Focus   FocusTracker
	Logger  *slog.Logger
	Metrics observability.MetricsRecorder
}

// Scope is the per-event view a handler works from: the typed event plus
// the shared dependencies.
type Scope struct {
	Event Event
	Deps  *Deps
}

// Extractor resolves one piece of state a handler declared it needs.
// Returning quillerrors.ErrPreconditionNotMet skips the handler for this
// event without noise; a NotFoundError skips it with a debug log.
type Extractor interface {
	Extract(ctx context.Context, sc *Scope) error
}

// Item resolves the event's target from the cache, fetching on a miss.
type Item struct {
	a11y.CacheItem
}

// Extract implements Extractor.
func (it *Item) Extract(ctx context.Context, sc *Scope) error {
	item, err := sc.Deps.Cache.Resolve(ctx, sc.Event.Target())
	if err != nil {
		return err
	}
	it.CacheItem = item
	return nil
}

// ParentItem resolves the target's parent. Targets without a parent (tree
// roots) fail the precondition.
type ParentItem struct {
	a11y.CacheItem
}

// Extract implements Extractor.
func (p *ParentItem) Extract(ctx context.Context, sc *Scope) error {
	item, err := sc.Deps.Cache.Resolve(ctx, sc.Event.Target())
	if err != nil {
		return err
	}
	if item.Parent.IsZero() {
		return quillerrors.ErrPreconditionNotMet
	}
	parent, err := sc.Deps.Cache.Resolve(ctx, item.Parent)
	if err != nil {
		return err
	}
	p.CacheItem = parent
	return nil
}

// ChildItems resolves the target's children. Children that cannot be
// resolved are skipped rather than failing the extraction.
type ChildItems struct {
	Items []a11y.CacheItem
}

// Extract implements Extractor.
func (c *ChildItems) Extract(ctx context.Context, sc *Scope) error {
	item, err := sc.Deps.Cache.Resolve(ctx, sc.Event.Target())
	if err != nil {
		return err
	}

	c.Items = make([]a11y.CacheItem, 0, len(item.Children))
	for _, childID := range item.Children {
		child, err := sc.Deps.Cache.Resolve(ctx, childID)
		if err != nil {
			var notFound *quillerrors.NotFoundError
			if errors.As(err, &notFound) {
				continue
			}
			return err
		}
		c.Items = append(c.Items, child)
	}
	return nil
}

// FocusedItem resolves the most recently focused accessible. The
// precondition fails when nothing has been focused yet.
type FocusedItem struct {
	a11y.CacheItem
}

// Extract implements Extractor.
func (f *FocusedItem) Extract(ctx context.Context, sc *Scope) error {
	if sc.Deps.Focus == nil {
		return quillerrors.ErrPreconditionNotMet
	}
	id, ok := sc.Deps.Focus.LastFocused()
	if !ok {
		return quillerrors.ErrPreconditionNotMet
	}
	item, err := sc.Deps.Cache.Resolve(ctx, id)
	if err != nil {
		return err
	}
	f.CacheItem = item
	return nil
}

// LastCaret reports the caret offset before the current event was
// processed, for computing movement deltas.
type LastCaret struct {
	Offset int
}

// Extract implements Extractor.
func (l *LastCaret) Extract(_ context.Context, sc *Scope) error {
	if sc.Deps.Focus == nil {
		return quillerrors.ErrPreconditionNotMet
	}
	l.Offset = sc.Deps.Focus.LastCaretOffset()
	return nil
}

// ActiveWindow resolves the window, frame, or dialog enclosing the
// focused accessible.
type ActiveWindow struct {
	a11y.CacheItem
}

// Extract implements Extractor.
func (w *ActiveWindow) Extract(ctx context.Context, sc *Scope) error {
	if sc.Deps.Focus == nil {
		return quillerrors.ErrPreconditionNotMet
	}
	id, ok := sc.Deps.Focus.LastFocused()
	if !ok {
		return quillerrors.ErrPreconditionNotMet
	}
	if _, err := sc.Deps.Cache.Resolve(ctx, id); err != nil {
		return err
	}

	for item := range sc.Deps.Cache.Ancestors(id) {
		switch item.Role {
		case a11y.RoleWindow, a11y.RoleFrame, a11y.RoleDialog:
			w.CacheItem = item
			return nil
		}
	}
	return quillerrors.ErrPreconditionNotMet
}
