package quill

import (
	"context"

	"github.com/quillreader/quill/pkg/quill/a11y"
	"github.com/quillreader/quill/pkg/quill/command"
	"github.com/quillreader/quill/pkg/quill/config"
	"github.com/quillreader/quill/pkg/quill/event"
)

// AnnouncementHandlers builds the handlers that produce speech and
// braille output. They read session state before the tracking handlers
// update it, so they must be registered first.
func AnnouncementHandlers(settings config.Settings) []event.Handler {
	return []event.Handler{
		event.Handle1[event.Item]("announce-focus", []event.Type{event.TypeFocusChanged},
			func(_ context.Context, sc *event.Scope, it event.Item) ([]command.Command, error) {
				text := it.Label()
				if role := it.Role.Name(); role != "" {
					text += ", " + role
				}
				return []command.Command{
					command.Speak{
						Meta:      command.NewMeta(),
						Text:      text,
						Priority:  command.PriorityMessage,
						Interrupt: settings.InterruptOnFocus,
					},
					command.Focus{Meta: command.NewMeta(), Object: sc.Event.Target()},
				}, nil
			}),

		event.Handle2[event.Item, event.LastCaret]("announce-caret", []event.Type{event.TypeCaretMoved},
			func(_ context.Context, sc *event.Scope, it event.Item, last event.LastCaret) ([]command.Command, error) {
				moved := sc.Event.(event.CaretMoved)
				text := textBetween(it.Text, last.Offset, moved.Offset)
				if text == "" {
					return nil, nil
				}
				return []command.Command{
					command.Speak{
						Meta:      command.NewMeta(),
						Text:      text,
						Priority:  command.PriorityText,
						Interrupt: true,
					},
					command.SetBraille{Meta: command.NewMeta(), Region: it.Text, Cursor: moved.Offset},
				}, nil
			}),

		event.NewHandler("announce-insertion", []event.Type{event.TypeTextChanged},
			func(_ context.Context, sc *event.Scope) ([]command.Command, error) {
				changed := sc.Event.(event.TextChanged)
				if !changed.Inserted || changed.Text == "" {
					return nil, nil
				}
				if sc.Deps.Focus == nil {
					return nil, nil
				}
				// Only the focused accessible's insertions are spoken;
				// background churn stays silent.
				focused, ok := sc.Deps.Focus.LastFocused()
				if !ok || focused != changed.Target() {
					return nil, nil
				}
				return []command.Command{
					command.Speak{Meta: command.NewMeta(), Text: changed.Text, Priority: command.PriorityText},
				}, nil
			}),

		event.Handle1[event.Item]("announce-document", []event.Type{event.TypeDocumentLoaded},
			func(_ context.Context, _ *event.Scope, it event.Item) ([]command.Command, error) {
				text := it.Label()
				if text == "" {
					text = "document"
				}
				return []command.Command{
					command.Speak{Meta: command.NewMeta(), Text: text + " loaded", Priority: command.PriorityMessage},
				}, nil
			}),
	}
}

// TrackingHandlers builds the handlers that advance session state. They
// run after announcements so that announcements still see the previous
// focus and caret.
func TrackingHandlers(st *State) []event.Handler {
	return []event.Handler{
		event.NewHandler("track-focus", []event.Type{event.TypeFocusChanged},
			func(_ context.Context, sc *event.Scope) ([]command.Command, error) {
				st.RecordFocus(sc.Event.Target())
				return nil, nil
			}),
		event.NewHandler("track-caret", []event.Type{event.TypeCaretMoved},
			func(_ context.Context, sc *event.Scope) ([]command.Command, error) {
				st.RecordCaret(sc.Event.(event.CaretMoved).Offset)
				return nil, nil
			}),
	}
}

// MaintenanceHandlers builds the handlers that keep the cache consistent
// with the tree the applications report.
func MaintenanceHandlers() []event.Handler {
	return []event.Handler{
		event.NewHandler("maintain-children", []event.Type{event.TypeChildrenChanged},
			func(ctx context.Context, sc *event.Scope) ([]command.Command, error) {
				changed := sc.Event.(event.ChildrenChanged)
				if changed.Added {
					// Pull the new child into the cache while the edit is
					// fresh; a failed fetch still records the link.
					sc.Deps.Cache.Resolve(ctx, changed.Child)
					sc.Deps.Cache.AddChild(changed.Target(), changed.Child, changed.Index)
				} else {
					sc.Deps.Cache.RemoveChild(changed.Target(), changed.Child)
				}
				return nil, nil
			}),

		event.NewHandler("maintain-properties", []event.Type{event.TypePropertyChanged},
			func(_ context.Context, sc *event.Scope) ([]command.Command, error) {
				changed := sc.Event.(event.PropertyChanged)
				id := changed.Target()
				switch changed.Property {
				case event.PropertyName:
					sc.Deps.Cache.SetName(id, changed.Value)
				case event.PropertyDescription:
					sc.Deps.Cache.SetDescription(id, changed.Value)
				case event.PropertyRole:
					sc.Deps.Cache.SetRole(id, changed.Role)
				}
				return nil, nil
			}),

		event.NewHandler("maintain-text", []event.Type{event.TypeTextChanged},
			func(_ context.Context, sc *event.Scope) ([]command.Command, error) {
				changed := sc.Event.(event.TextChanged)
				sc.Deps.Cache.Modify(changed.Target(), func(item *a11y.CacheItem) {
					item.Text = spliceText(item.Text, changed)
				})
				return nil, nil
			}),

		event.NewHandler("maintain-caret", []event.Type{event.TypeCaretMoved},
			func(_ context.Context, sc *event.Scope) ([]command.Command, error) {
				sc.Deps.Cache.SetCaret(sc.Event.Target(), sc.Event.(event.CaretMoved).Offset)
				return nil, nil
			}),

		event.NewHandler("maintain-state", []event.Type{event.TypeStateChanged},
			func(_ context.Context, sc *event.Scope) ([]command.Command, error) {
				changed := sc.Event.(event.StateChanged)
				sc.Deps.Cache.SetState(changed.Target(), changed.State, changed.Enabled)
				return nil, nil
			}),

		event.NewHandler("maintain-destroy", []event.Type{event.TypeObjectDestroyed},
			func(_ context.Context, sc *event.Scope) ([]command.Command, error) {
				sc.Deps.Cache.Remove(sc.Event.Target())
				return nil, nil
			}),

		event.NewHandler("maintain-disconnect", []event.Type{event.TypeAppDisconnected},
			func(_ context.Context, sc *event.Scope) ([]command.Command, error) {
				sc.Deps.Cache.RemoveApplication(sc.Event.(event.AppDisconnected).Sender)
				return nil, nil
			}),
	}
}

// textBetween returns the text between two caret offsets, in rune terms,
// clamped to the content.
func textBetween(text string, a, b int) string {
	runes := []rune(text)
	lo, hi := a, b
	if lo > hi {
		lo, hi = hi, lo
	}
	lo = clamp(lo, 0, len(runes))
	hi = clamp(hi, 0, len(runes))
	return string(runes[lo:hi])
}

// spliceText applies one insertion or deletion to cached text, clamping
// offsets that have drifted from the application's view.
func spliceText(text string, changed event.TextChanged) string {
	runes := []rune(text)
	offset := clamp(changed.Offset, 0, len(runes))

	if changed.Inserted {
		out := make([]rune, 0, len(runes)+len(changed.Text))
		out = append(out, runes[:offset]...)
		out = append(out, []rune(changed.Text)...)
		out = append(out, runes[offset:]...)
		return string(out)
	}

	end := clamp(offset+changed.Length, offset, len(runes))
	return string(append(runes[:offset:offset], runes[end:]...))
}

func clamp(n, lo, hi int) int {
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}
