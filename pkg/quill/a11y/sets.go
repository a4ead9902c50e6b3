package a11y

import "strings"

// State is one accessible state flag.
type State uint

// State flags.
const (
	StateActive State = iota
	StateBusy
	StateChecked
	StateEditable
	StateEnabled
	StateExpanded
	StateFocusable
	StateFocused
	StateModal
	StateSelectable
	StateSelected
	StateSensitive
	StateShowing
	StateVisible

	stateCount
)

var stateNames = [...]string{
	"active", "busy", "checked", "editable", "enabled", "expanded",
	"focusable", "focused", "modal", "selectable", "selected",
	"sensitive", "showing", "visible",
}

// String returns the state name.
func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "unknown"
}

// StateFromName maps a wire state name to a State flag. The second return
// is false for names outside the closed set.
func StateFromName(name string) (State, bool) {
	for i, n := range stateNames {
		if n == name {
			return State(i), true
		}
	}
	return 0, false
}

// StateSet is a bitset of state flags.
type StateSet uint32

// NewStateSet builds a StateSet from individual flags.
func NewStateSet(states ...State) StateSet {
	var set StateSet
	for _, s := range states {
		set = set.Set(s, true)
	}
	return set
}

// Set returns a copy of the set with the given flag enabled or disabled.
func (ss StateSet) Set(s State, enabled bool) StateSet {
	if s >= stateCount {
		return ss
	}
	if enabled {
		return ss | 1<<s
	}
	return ss &^ (1 << s)
}

// Has reports whether the flag is present.
func (ss StateSet) Has(s State) bool {
	return s < stateCount && ss&(1<<s) != 0
}

// Diff returns the flags present in exactly one of the two sets.
func (ss StateSet) Diff(other StateSet) StateSet {
	return ss ^ other
}

// String lists the set flags, comma separated.
func (ss StateSet) String() string {
	var names []string
	for s := State(0); s < stateCount; s++ {
		if ss.Has(s) {
			names = append(names, s.String())
		}
	}
	return strings.Join(names, ",")
}

// Interface is one supported capability tag.
type Interface uint

// Capability tags.
const (
	InterfaceAccessible Interface = iota
	InterfaceAction
	InterfaceText
	InterfaceEditableText
	InterfaceValue
	InterfaceSelection
	InterfaceComponent
	InterfaceDocument

	interfaceCount
)

var interfaceNames = [...]string{
	"Accessible", "Action", "Text", "EditableText", "Value",
	"Selection", "Component", "Document",
}

// String returns the interface name.
func (i Interface) String() string {
	if int(i) < len(interfaceNames) {
		return interfaceNames[i]
	}
	return "Unknown"
}

// InterfaceSet is a bitset of capability tags.
type InterfaceSet uint16

// NewInterfaceSet builds an InterfaceSet from individual tags.
func NewInterfaceSet(ifaces ...Interface) InterfaceSet {
	var set InterfaceSet
	for _, i := range ifaces {
		set = set.Add(i)
	}
	return set
}

// Add returns a copy of the set with the tag present.
func (is InterfaceSet) Add(i Interface) InterfaceSet {
	if i >= interfaceCount {
		return is
	}
	return is | 1<<i
}

// Has reports whether the tag is present.
func (is InterfaceSet) Has(i Interface) bool {
	return i < interfaceCount && is&(1<<i) != 0
}

// String lists the set tags, comma separated.
func (is InterfaceSet) String() string {
	var names []string
	for i := Interface(0); i < interfaceCount; i++ {
		if is.Has(i) {
			names = append(names, i.String())
		}
	}
	return strings.Join(names, ",")
}
