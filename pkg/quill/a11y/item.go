package a11y

// CacheItem mirrors one remote accessible object.
//
// Parent and Children reference other items by Identity only. The cache is
// responsible for keeping the two directions consistent; a CacheItem on its
// own is just a snapshot.
type CacheItem struct {
	// Object is the identity of the mirrored accessible.
	Object Identity
	// App is the identity of the owning application's root object.
	App Identity
	// Parent names the parent object, zero for roots.
	Parent Identity
	// IndexInParent is the item's position in its parent's children, or -1
	// when unknown.
	IndexInParent int

	Role        Role
	Name        string
	Description string
	States      StateSet
	Interfaces  InterfaceSet

	// Children holds the ordered child identities.
	Children []Identity

	// Text is the flattened text content for objects exposing the Text
	// interface, otherwise empty.
	Text string
	// CaretOffset is the caret position within Text, -1 when absent.
	CaretOffset int
}

// Clone returns a deep copy; the Children slice is not shared.
func (ci CacheItem) Clone() CacheItem {
	out := ci
	if ci.Children != nil {
		out.Children = make([]Identity, len(ci.Children))
		copy(out.Children, ci.Children)
	}
	return out
}

// Label returns the text to announce for the item: its text content if any,
// otherwise its name, otherwise its description.
func (ci CacheItem) Label() string {
	switch {
	case ci.Text != "":
		return ci.Text
	case ci.Name != "":
		return ci.Name
	default:
		return ci.Description
	}
}

// HasChild reports whether id appears in the item's children.
func (ci CacheItem) HasChild(id Identity) bool {
	for _, c := range ci.Children {
		if c == id {
			return true
		}
	}
	return false
}
