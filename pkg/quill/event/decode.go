package event

import (
	"fmt"
	"strings"

	"github.com/quillreader/quill/pkg/quill/a11y"
	quillerrors "github.com/quillreader/quill/pkg/quill/errors"
)

// RawMessage is one notification as it arrives off the accessibility bus,
// before typing. Member names the signal, Kind its detail string, and
// Body carries member-specific payload fields.
type RawMessage struct {
	Sender  string
	Path    string
	Member  string
	Kind    string
	Detail1 int
	Detail2 int
	Body    map[string]any
}

// Bus members recognized by Decode.
const (
	MemberChildrenChanged = "ChildrenChanged"
	MemberPropertyChange  = "PropertyChange"
	MemberTextChanged     = "TextChanged"
	MemberTextCaretMoved  = "TextCaretMoved"
	MemberStateChanged    = "StateChanged"
	MemberFocus           = "Focus"
	MemberDestroyed       = "Destroyed"
	MemberLoadComplete    = "LoadComplete"
	MemberDisconnected    = "Disconnected"
)

// Decode types a raw bus message. Malformed messages return a DecodeError;
// the caller drops the message and continues, a bad message never stops
// the pipeline.
func Decode(msg RawMessage) (Event, error) {
	if msg.Sender == "" {
		return nil, decodeErr(msg.Member, "missing sender", nil)
	}
	if msg.Member == MemberDisconnected {
		return AppDisconnected{Sender: msg.Sender}, nil
	}
	if msg.Path == "" {
		return nil, decodeErr(msg.Member, "missing object path", nil)
	}

	base := Base{Object: a11y.NewIdentity(msg.Sender, msg.Path)}

	switch msg.Member {
	case MemberChildrenChanged:
		return decodeChildrenChanged(base, msg)
	case MemberPropertyChange:
		return decodePropertyChange(base, msg)
	case MemberTextChanged:
		return decodeTextChanged(base, msg)
	case MemberTextCaretMoved:
		return CaretMoved{Base: base, Offset: msg.Detail1}, nil
	case MemberStateChanged:
		return decodeStateChanged(base, msg)
	case MemberFocus:
		return FocusChanged{Base: base}, nil
	case MemberDestroyed:
		return ObjectDestroyed{Base: base}, nil
	case MemberLoadComplete:
		return DocumentLoaded{Base: base}, nil
	default:
		return nil, decodeErr(msg.Member, "unknown member", nil)
	}
}

func decodeChildrenChanged(base Base, msg RawMessage) (Event, error) {
	var added bool
	switch detailKind(msg.Kind) {
	case "add":
		added = true
	case "remove":
		added = false
	default:
		return nil, decodeErr(msg.Member, fmt.Sprintf("unknown detail %q", msg.Kind), nil)
	}

	child, err := identityFromBody(msg.Body["child"])
	if err != nil {
		return nil, decodeErr(msg.Member, "bad child reference", err)
	}

	return ChildrenChanged{Base: base, Added: added, Index: msg.Detail1, Child: child}, nil
}

func decodePropertyChange(base Base, msg RawMessage) (Event, error) {
	evt := PropertyChanged{Base: base}

	switch detailKind(msg.Kind) {
	case "accessible-name":
		evt.Property = PropertyName
	case "accessible-description":
		evt.Property = PropertyDescription
	case "accessible-role":
		evt.Property = PropertyRole
	default:
		return nil, decodeErr(msg.Member, fmt.Sprintf("unknown property %q", msg.Kind), nil)
	}

	switch evt.Property {
	case PropertyRole:
		ordinal, ok := intFromBody(msg.Body["value"])
		if !ok {
			return nil, decodeErr(msg.Member, "role value is not an ordinal", nil)
		}
		evt.Role = a11y.RoleFromOrdinal(ordinal)
	default:
		value, ok := msg.Body["value"].(string)
		if !ok {
			return nil, decodeErr(msg.Member, "property value is not a string", nil)
		}
		evt.Value = value
	}

	return evt, nil
}

func decodeTextChanged(base Base, msg RawMessage) (Event, error) {
	var inserted bool
	switch detailKind(msg.Kind) {
	case "insert":
		inserted = true
	case "delete":
		inserted = false
	default:
		return nil, decodeErr(msg.Member, fmt.Sprintf("unknown detail %q", msg.Kind), nil)
	}

	text, _ := msg.Body["text"].(string)

	return TextChanged{
		Base:     base,
		Inserted: inserted,
		Offset:   msg.Detail1,
		Length:   msg.Detail2,
		Text:     text,
	}, nil
}

func decodeStateChanged(base Base, msg RawMessage) (Event, error) {
	state, ok := a11y.StateFromName(detailKind(msg.Kind))
	if !ok {
		return nil, decodeErr(msg.Member, fmt.Sprintf("unknown state %q", msg.Kind), nil)
	}

	// Focus arrival is reported as a state toggle on the wire; surface it
	// as the dedicated focus event so handlers match one type.
	if state == a11y.StateFocused && msg.Detail1 != 0 {
		return FocusChanged{Base: base}, nil
	}

	return StateChanged{Base: base, State: state, Enabled: msg.Detail1 != 0}, nil
}

// detailKind strips the "/system"-style suffix some toolkits append to
// detail strings.
func detailKind(kind string) string {
	if i := strings.IndexByte(kind, '/'); i >= 0 {
		return kind[:i]
	}
	return kind
}

func identityFromBody(v any) (a11y.Identity, error) {
	ref, ok := v.(map[string]any)
	if !ok {
		return a11y.Identity{}, fmt.Errorf("reference is %T, want map", v)
	}
	sender, _ := ref["sender"].(string)
	path, _ := ref["path"].(string)
	if sender == "" || path == "" {
		return a11y.Identity{}, fmt.Errorf("reference missing sender or path")
	}
	return a11y.NewIdentity(sender, path), nil
}

func intFromBody(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case uint32:
		return int(n), true
	case float64:
		return int(n), true
	default:
		return 0, false
	}
}

func decodeErr(member, message string, err error) error {
	return &quillerrors.DecodeError{Member: member, Message: message, Err: err}
}
