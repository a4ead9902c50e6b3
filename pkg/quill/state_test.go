package quill

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quillreader/quill/pkg/quill/a11y"
)

func focusID(n int) a11y.Identity {
	return a11y.NewIdentity(":1.9", fmt.Sprintf("/obj/%d", n))
}

func TestStateEmptyHasNoFocus(t *testing.T) {
	st := NewState(4)
	_, ok := st.LastFocused()
	assert.False(t, ok)
	assert.Empty(t, st.FocusHistory())
}

func TestStateRecordsFocus(t *testing.T) {
	st := NewState(4)
	st.RecordFocus(focusID(1))
	st.RecordFocus(focusID(2))

	last, ok := st.LastFocused()
	require.True(t, ok)
	assert.Equal(t, focusID(2), last)

	prev, ok := st.PreviousFocused()
	require.True(t, ok)
	assert.Equal(t, focusID(1), prev)
}

func TestStateIgnoresRepeatAndZero(t *testing.T) {
	st := NewState(4)
	st.RecordFocus(focusID(1))
	st.RecordFocus(focusID(1))
	st.RecordFocus(a11y.Identity{})

	assert.Len(t, st.FocusHistory(), 1)
}

func TestStateRingEvictsOldest(t *testing.T) {
	st := NewState(3)
	for i := 1; i <= 5; i++ {
		st.RecordFocus(focusID(i))
	}

	history := st.FocusHistory()
	require.Len(t, history, 3)
	// Newest first.
	assert.Equal(t, focusID(5), history[0])
	assert.Equal(t, focusID(4), history[1])
	assert.Equal(t, focusID(3), history[2])
}

func TestStateCaret(t *testing.T) {
	st := NewState(4)
	assert.Equal(t, 0, st.LastCaretOffset())

	st.RecordCaret(17)
	assert.Equal(t, 17, st.LastCaretOffset())
}
