// Package event turns raw accessibility bus notifications into commands.
//
// The flow is: Decode a RawMessage into a typed Event, then Route the
// event through registered handlers, each of which declares the cache
// state it needs via extractors and returns zero or more commands. The
// Pipeline runs this flow on worker goroutines while keeping events from
// the same application in arrival order.
package event

import "github.com/quillreader/quill/pkg/quill/a11y"

// Type discriminates the closed event set.
type Type string

// Event types.
const (
	TypeChildrenChanged Type = "object.children-changed"
	TypePropertyChanged Type = "object.property-changed"
	TypeTextChanged     Type = "object.text-changed"
	TypeCaretMoved      Type = "object.caret-moved"
	TypeStateChanged    Type = "object.state-changed"
	TypeFocusChanged    Type = "object.focus-changed"
	TypeObjectDestroyed Type = "object.destroyed"
	TypeDocumentLoaded  Type = "document.load-complete"
	TypeAppDisconnected Type = "app.disconnected"
)

// Event is one typed accessibility notification. The set of
// implementations is closed; handlers match on EventType.
type Event interface {
	EventType() Type
	// Target is the accessible the notification concerns.
	Target() a11y.Identity
}

// Base carries the target identity shared by every object-scoped event.
type Base struct {
	Object a11y.Identity
}

// Target implements Event.
func (b Base) Target() a11y.Identity {
	return b.Object
}

// ChildrenChanged reports a child added to or removed from an accessible.
type ChildrenChanged struct {
	Base
	Added bool
	Index int
	Child a11y.Identity
}

// EventType implements Event.
func (ChildrenChanged) EventType() Type { return TypeChildrenChanged }

// Property identifies which accessible property changed.
type Property string

// Properties carried by PropertyChanged events.
const (
	PropertyName        Property = "name"
	PropertyDescription Property = "description"
	PropertyRole        Property = "role"
)

// PropertyChanged reports a name, description, or role change.
type PropertyChanged struct {
	Base
	Property Property
	Value    string
	// Role holds the new role when Property is PropertyRole.
	Role a11y.Role
}

// EventType implements Event.
func (PropertyChanged) EventType() Type { return TypePropertyChanged }

// TextChanged reports text inserted into or deleted from an accessible.
type TextChanged struct {
	Base
	Inserted bool
	Offset   int
	Length   int
	Text     string
}

// EventType implements Event.
func (TextChanged) EventType() Type { return TypeTextChanged }

// CaretMoved reports a caret position change within an accessible's text.
type CaretMoved struct {
	Base
	Offset int
}

// EventType implements Event.
func (CaretMoved) EventType() Type { return TypeCaretMoved }

// StateChanged reports a single state flag toggling.
type StateChanged struct {
	Base
	State   a11y.State
	Enabled bool
}

// EventType implements Event.
func (StateChanged) EventType() Type { return TypeStateChanged }

// FocusChanged reports input focus arriving at an accessible.
type FocusChanged struct {
	Base
}

// EventType implements Event.
func (FocusChanged) EventType() Type { return TypeFocusChanged }

// ObjectDestroyed reports an accessible leaving the tree.
type ObjectDestroyed struct {
	Base
}

// EventType implements Event.
func (ObjectDestroyed) EventType() Type { return TypeObjectDestroyed }

// DocumentLoaded reports a document finishing its load.
type DocumentLoaded struct {
	Base
}

// EventType implements Event.
func (DocumentLoaded) EventType() Type { return TypeDocumentLoaded }

// AppDisconnected reports an application's bus connection going away.
// Every cached object under the sender is stale once this arrives.
type AppDisconnected struct {
	Sender string
}

// EventType implements Event.
func (AppDisconnected) EventType() Type { return TypeAppDisconnected }

// Target implements Event, addressing the application's root accessible.
func (e AppDisconnected) Target() a11y.Identity {
	return a11y.NewIdentity(e.Sender, a11y.RootPath)
}
