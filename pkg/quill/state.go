// Package quill assembles the screen reader core: the accessible-object
// cache, the event pipeline turning bus notifications into commands, and
// the dispatcher delivering those commands to speech, braille, and input
// effectors.
package quill

import (
	"sync"

	"github.com/quillreader/quill/pkg/quill/a11y"
)

// State is the session's mutable reading position: a bounded ring of
// recently focused accessibles plus the last observed caret offset.
// It implements event.FocusTracker. Safe for concurrent use.
type State struct {
	mu      sync.RWMutex
	history []a11y.Identity
	size    int
	caret   int
}

// NewState creates session state with a focus history of the given
// capacity.
func NewState(historySize int) *State {
	if historySize <= 0 {
		historySize = 16
	}
	return &State{size: historySize}
}

// RecordFocus pushes id onto the focus history, evicting the oldest entry
// once the ring is full. Refocusing the current accessible is a no-op.
func (s *State) RecordFocus(id a11y.Identity) {
	if id.IsZero() {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if n := len(s.history); n > 0 && s.history[n-1] == id {
		return
	}
	s.history = append(s.history, id)
	if len(s.history) > s.size {
		s.history = s.history[len(s.history)-s.size:]
	}
}

// LastFocused returns the most recently focused accessible.
func (s *State) LastFocused() (a11y.Identity, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.history) == 0 {
		return a11y.Identity{}, false
	}
	return s.history[len(s.history)-1], true
}

// PreviousFocused returns the accessible focused before the current one.
func (s *State) PreviousFocused() (a11y.Identity, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.history) < 2 {
		return a11y.Identity{}, false
	}
	return s.history[len(s.history)-2], true
}

// FocusHistory returns the focus history, newest first.
func (s *State) FocusHistory() []a11y.Identity {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]a11y.Identity, len(s.history))
	for i, id := range s.history {
		out[len(s.history)-1-i] = id
	}
	return out
}

// RecordCaret stores the last observed caret offset.
func (s *State) RecordCaret(offset int) {
	s.mu.Lock()
	s.caret = offset
	s.mu.Unlock()
}

// LastCaretOffset returns the last observed caret offset.
func (s *State) LastCaretOffset() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.caret
}
