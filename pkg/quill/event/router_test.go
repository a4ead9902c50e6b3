package event

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quillreader/quill/pkg/quill/a11y"
	"github.com/quillreader/quill/pkg/quill/cache"
	"github.com/quillreader/quill/pkg/quill/command"
	quillerrors "github.com/quillreader/quill/pkg/quill/errors"
)

type stubFocus struct {
	id    a11y.Identity
	ok    bool
	caret int
}

func (s stubFocus) LastFocused() (a11y.Identity, bool) { return s.id, s.ok }
func (s stubFocus) LastCaretOffset() int               { return s.caret }

func testID(path string) a11y.Identity {
	return a11y.NewIdentity(":1.7", path)
}

// seedTree inserts a frame containing an entry with two list item children.
func seedTree(c *cache.Cache) {
	frame := testID("/frame")
	entry := testID("/entry")
	childA := testID("/item-a")
	childB := testID("/item-b")

	c.Upsert(a11y.CacheItem{Object: frame, Role: a11y.RoleFrame, Name: "Mail", Children: []a11y.Identity{entry}})
	c.Upsert(a11y.CacheItem{Object: entry, Parent: frame, Role: a11y.RoleEntry, Name: "Subject",
		Children: []a11y.Identity{childA, childB}})
	c.Upsert(a11y.CacheItem{Object: childA, Parent: entry, Role: a11y.RoleListItem, Name: "first"})
	c.Upsert(a11y.CacheItem{Object: childB, Parent: entry, Role: a11y.RoleListItem, Name: "second"})
}

func newTestDeps(focus FocusTracker) *Deps {
	c := cache.New(cache.Config{})
	seedTree(c)
	return &Deps{Cache: c, Focus: focus}
}

func speak(text string) command.Command {
	return command.Speak{Meta: command.NewMeta(), Text: text}
}

func TestRouteRegistrationOrder(t *testing.T) {
	r := NewRouter(RouterConfig{})
	r.Register(NewHandler("first", []Type{TypeFocusChanged},
		func(context.Context, *Scope) ([]command.Command, error) {
			return []command.Command{speak("one"), speak("two")}, nil
		}))
	r.Register(NewHandler("second", []Type{TypeFocusChanged},
		func(context.Context, *Scope) ([]command.Command, error) {
			return []command.Command{speak("three")}, nil
		}))

	cmds := r.Route(context.Background(), newTestDeps(nil), FocusChanged{Base{testID("/entry")}})
	require.Len(t, cmds, 3)
	assert.Equal(t, "one", cmds[0].(command.Speak).Text)
	assert.Equal(t, "two", cmds[1].(command.Speak).Text)
	assert.Equal(t, "three", cmds[2].(command.Speak).Text)
}

func TestRouteNoHandlersNoCommands(t *testing.T) {
	r := NewRouter(RouterConfig{})
	cmds := r.Route(context.Background(), newTestDeps(nil), DocumentLoaded{Base{testID("/doc")}})
	assert.Empty(t, cmds)
}

func TestRouteHandlerFailureIsolated(t *testing.T) {
	r := NewRouter(RouterConfig{})
	r.Register(NewHandler("broken", []Type{TypeFocusChanged},
		func(context.Context, *Scope) ([]command.Command, error) {
			return nil, errors.New("boom")
		}))
	r.Register(NewHandler("healthy", []Type{TypeFocusChanged},
		func(context.Context, *Scope) ([]command.Command, error) {
			return []command.Command{speak("still here")}, nil
		}))

	cmds := r.Route(context.Background(), newTestDeps(nil), FocusChanged{Base{testID("/entry")}})
	require.Len(t, cmds, 1)
	assert.Equal(t, "still here", cmds[0].(command.Speak).Text)
}

func TestHandle1ResolvesItem(t *testing.T) {
	r := NewRouter(RouterConfig{})
	r.Register(Handle1[Item]("announce", []Type{TypeFocusChanged},
		func(_ context.Context, _ *Scope, it Item) ([]command.Command, error) {
			return []command.Command{speak(it.Name)}, nil
		}))

	cmds := r.Route(context.Background(), newTestDeps(nil), FocusChanged{Base{testID("/entry")}})
	require.Len(t, cmds, 1)
	assert.Equal(t, "Subject", cmds[0].(command.Speak).Text)
}

func TestHandle1SkipsOnMissingItem(t *testing.T) {
	r := NewRouter(RouterConfig{})
	ran := false
	r.Register(Handle1[Item]("announce", []Type{TypeFocusChanged},
		func(_ context.Context, _ *Scope, _ Item) ([]command.Command, error) {
			ran = true
			return nil, nil
		}))

	cmds := r.Route(context.Background(), newTestDeps(nil), FocusChanged{Base{testID("/no-such")}})
	assert.Empty(t, cmds)
	assert.False(t, ran, "handler body must not run when extraction fails")
}

func TestHandle2ParentExtraction(t *testing.T) {
	r := NewRouter(RouterConfig{})
	r.Register(Handle2[Item, ParentItem]("context", []Type{TypeFocusChanged},
		func(_ context.Context, _ *Scope, it Item, parent ParentItem) ([]command.Command, error) {
			return []command.Command{speak(parent.Name + " > " + it.Name)}, nil
		}))

	deps := newTestDeps(nil)
	cmds := r.Route(context.Background(), deps, FocusChanged{Base{testID("/entry")}})
	require.Len(t, cmds, 1)
	assert.Equal(t, "Mail > Subject", cmds[0].(command.Speak).Text)

	// The frame has no parent, so the same handler is skipped for it.
	cmds = r.Route(context.Background(), deps, FocusChanged{Base{testID("/frame")}})
	assert.Empty(t, cmds)
}

func TestChildItemsExtraction(t *testing.T) {
	deps := newTestDeps(nil)
	sc := &Scope{Event: FocusChanged{Base{testID("/entry")}}, Deps: deps}

	var children ChildItems
	require.NoError(t, children.Extract(context.Background(), sc))
	require.Len(t, children.Items, 2)
	assert.Equal(t, "first", children.Items[0].Name)
	assert.Equal(t, "second", children.Items[1].Name)
}

func TestChildItemsSkipsUnresolvable(t *testing.T) {
	deps := newTestDeps(nil)
	deps.Cache.Modify(testID("/entry"), func(item *a11y.CacheItem) {
		item.Children = append(item.Children, testID("/ghost"))
	})
	sc := &Scope{Event: FocusChanged{Base{testID("/entry")}}, Deps: deps}

	var children ChildItems
	require.NoError(t, children.Extract(context.Background(), sc))
	assert.Len(t, children.Items, 2)
}

func TestFocusedItemExtraction(t *testing.T) {
	deps := newTestDeps(stubFocus{id: testID("/entry"), ok: true, caret: 9})
	sc := &Scope{Event: CaretMoved{Base: Base{testID("/entry")}, Offset: 12}, Deps: deps}

	var focused FocusedItem
	require.NoError(t, focused.Extract(context.Background(), sc))
	assert.Equal(t, "Subject", focused.Name)

	var caret LastCaret
	require.NoError(t, caret.Extract(context.Background(), sc))
	assert.Equal(t, 9, caret.Offset)
}

func TestFocusedItemPreconditionWithoutFocus(t *testing.T) {
	deps := newTestDeps(stubFocus{ok: false})
	sc := &Scope{Event: FocusChanged{Base{testID("/entry")}}, Deps: deps}

	var focused FocusedItem
	err := focused.Extract(context.Background(), sc)
	assert.ErrorIs(t, err, quillerrors.ErrPreconditionNotMet)
}

func TestActiveWindowWalksToFrame(t *testing.T) {
	deps := newTestDeps(stubFocus{id: testID("/item-a"), ok: true})
	sc := &Scope{Event: FocusChanged{Base{testID("/item-a")}}, Deps: deps}

	var window ActiveWindow
	require.NoError(t, window.Extract(context.Background(), sc))
	assert.Equal(t, "Mail", window.Name)
	assert.Equal(t, a11y.RoleFrame, window.Role)
}

func TestActiveWindowPreconditionWithoutWindow(t *testing.T) {
	c := cache.New(cache.Config{})
	orphan := testID("/orphan")
	c.Upsert(a11y.CacheItem{Object: orphan, Role: a11y.RoleLabel, Name: "stray"})
	deps := &Deps{Cache: c, Focus: stubFocus{id: orphan, ok: true}}
	sc := &Scope{Event: FocusChanged{Base{orphan}}, Deps: deps}

	var window ActiveWindow
	err := window.Extract(context.Background(), sc)
	assert.ErrorIs(t, err, quillerrors.ErrPreconditionNotMet)
}
