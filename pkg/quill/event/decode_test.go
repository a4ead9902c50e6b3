package event

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quillreader/quill/pkg/quill/a11y"
	quillerrors "github.com/quillreader/quill/pkg/quill/errors"
)

func requireDecodeError(t *testing.T, err error) *quillerrors.DecodeError {
	t.Helper()
	require.Error(t, err)
	var decodeErr *quillerrors.DecodeError
	require.True(t, errors.As(err, &decodeErr), "want DecodeError, got %T: %v", err, err)
	return decodeErr
}

func TestDecodeFocus(t *testing.T) {
	evt, err := Decode(RawMessage{Sender: ":1.42", Path: "/obj/7", Member: MemberFocus})
	require.NoError(t, err)

	focus, ok := evt.(FocusChanged)
	require.True(t, ok)
	assert.Equal(t, TypeFocusChanged, focus.EventType())
	assert.Equal(t, a11y.NewIdentity(":1.42", "/obj/7"), focus.Target())
}

func TestDecodeFocusedStateBecomesFocusEvent(t *testing.T) {
	evt, err := Decode(RawMessage{
		Sender: ":1.42", Path: "/obj/7",
		Member: MemberStateChanged, Kind: "focused", Detail1: 1,
	})
	require.NoError(t, err)
	assert.IsType(t, FocusChanged{}, evt)

	// Losing focus stays a plain state change.
	evt, err = Decode(RawMessage{
		Sender: ":1.42", Path: "/obj/7",
		Member: MemberStateChanged, Kind: "focused", Detail1: 0,
	})
	require.NoError(t, err)
	state, ok := evt.(StateChanged)
	require.True(t, ok)
	assert.Equal(t, a11y.StateFocused, state.State)
	assert.False(t, state.Enabled)
}

func TestDecodeStateChangedWithSuffix(t *testing.T) {
	evt, err := Decode(RawMessage{
		Sender: ":1.42", Path: "/obj/7",
		Member: MemberStateChanged, Kind: "busy/system", Detail1: 1,
	})
	require.NoError(t, err)

	state := evt.(StateChanged)
	assert.Equal(t, a11y.StateBusy, state.State)
	assert.True(t, state.Enabled)
}

func TestDecodeUnknownStateFails(t *testing.T) {
	_, err := Decode(RawMessage{
		Sender: ":1.42", Path: "/obj/7",
		Member: MemberStateChanged, Kind: "levitating",
	})
	requireDecodeError(t, err)
}

func TestDecodeChildrenChanged(t *testing.T) {
	evt, err := Decode(RawMessage{
		Sender: ":1.42", Path: "/obj/7",
		Member: MemberChildrenChanged, Kind: "add/system", Detail1: 2,
		Body: map[string]any{
			"child": map[string]any{"sender": ":1.42", "path": "/obj/9"},
		},
	})
	require.NoError(t, err)

	cc := evt.(ChildrenChanged)
	assert.True(t, cc.Added)
	assert.Equal(t, 2, cc.Index)
	assert.Equal(t, a11y.NewIdentity(":1.42", "/obj/9"), cc.Child)
}

func TestDecodeChildrenChangedBadChild(t *testing.T) {
	_, err := Decode(RawMessage{
		Sender: ":1.42", Path: "/obj/7",
		Member: MemberChildrenChanged, Kind: "remove",
		Body:   map[string]any{"child": "not a reference"},
	})
	decodeErr := requireDecodeError(t, err)
	assert.Equal(t, MemberChildrenChanged, decodeErr.Member)
}

func TestDecodePropertyChange(t *testing.T) {
	evt, err := Decode(RawMessage{
		Sender: ":1.42", Path: "/obj/7",
		Member: MemberPropertyChange, Kind: "accessible-name",
		Body:   map[string]any{"value": "Save As"},
	})
	require.NoError(t, err)

	pc := evt.(PropertyChanged)
	assert.Equal(t, PropertyName, pc.Property)
	assert.Equal(t, "Save As", pc.Value)
}

func TestDecodeRoleChange(t *testing.T) {
	evt, err := Decode(RawMessage{
		Sender: ":1.42", Path: "/obj/7",
		Member: MemberPropertyChange, Kind: "accessible-role",
		Body:   map[string]any{"value": int(a11y.RoleButton)},
	})
	require.NoError(t, err)

	pc := evt.(PropertyChanged)
	assert.Equal(t, PropertyRole, pc.Property)
	assert.Equal(t, a11y.RoleButton, pc.Role)
}

func TestDecodePropertyChangeBadValue(t *testing.T) {
	_, err := Decode(RawMessage{
		Sender: ":1.42", Path: "/obj/7",
		Member: MemberPropertyChange, Kind: "accessible-name",
		Body:   map[string]any{"value": 7},
	})
	requireDecodeError(t, err)
}

func TestDecodeTextChanged(t *testing.T) {
	evt, err := Decode(RawMessage{
		Sender: ":1.42", Path: "/obj/7",
		Member: MemberTextChanged, Kind: "insert", Detail1: 4, Detail2: 5,
		Body:   map[string]any{"text": "hello"},
	})
	require.NoError(t, err)

	tc := evt.(TextChanged)
	assert.True(t, tc.Inserted)
	assert.Equal(t, 4, tc.Offset)
	assert.Equal(t, 5, tc.Length)
	assert.Equal(t, "hello", tc.Text)
}

func TestDecodeCaretMoved(t *testing.T) {
	evt, err := Decode(RawMessage{
		Sender: ":1.42", Path: "/obj/7",
		Member: MemberTextCaretMoved, Detail1: 12,
	})
	require.NoError(t, err)
	assert.Equal(t, 12, evt.(CaretMoved).Offset)
}

func TestDecodeLifecycleMembers(t *testing.T) {
	evt, err := Decode(RawMessage{Sender: ":1.42", Path: "/obj/7", Member: MemberDestroyed})
	require.NoError(t, err)
	assert.IsType(t, ObjectDestroyed{}, evt)

	evt, err = Decode(RawMessage{Sender: ":1.42", Path: "/doc/1", Member: MemberLoadComplete})
	require.NoError(t, err)
	assert.IsType(t, DocumentLoaded{}, evt)

	evt, err = Decode(RawMessage{Sender: ":1.42", Member: MemberDisconnected})
	require.NoError(t, err)
	dc := evt.(AppDisconnected)
	assert.Equal(t, ":1.42", dc.Sender)
	assert.Equal(t, a11y.NewIdentity(":1.42", a11y.RootPath), dc.Target())
}

func TestDecodeMissingSender(t *testing.T) {
	_, err := Decode(RawMessage{Path: "/obj/7", Member: MemberFocus})
	requireDecodeError(t, err)
}

func TestDecodeUnknownMember(t *testing.T) {
	_, err := Decode(RawMessage{Sender: ":1.42", Path: "/obj/7", Member: "BoundsChanged"})
	decodeErr := requireDecodeError(t, err)
	assert.Equal(t, "BoundsChanged", decodeErr.Member)
}
