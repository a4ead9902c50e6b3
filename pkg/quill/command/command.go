// Package command defines quill's closed set of output actions and the
// dispatcher that delivers them to external effectors.
//
// Commands are self-contained: each variant carries exactly the data its
// effector needs plus a unique ID, so a command can be resent safely if an
// effector asks for idempotent retry. Dispatch preserves per-effector FIFO
// ordering while different effectors execute concurrently.
package command

import (
	"github.com/google/uuid"

	"github.com/quillreader/quill/pkg/quill/a11y"
)

// Kind discriminates the closed command set.
type Kind string

// Command kinds.
const (
	KindSpeak      Kind = "speak"
	KindStopSpeech Kind = "stop-speech"
	KindMoveCaret  Kind = "move-caret"
	KindSetBraille Kind = "set-braille"
	KindNotify     Kind = "notify"
	KindFocus      Kind = "focus"
	KindSetProfile Kind = "set-profile"
)

// Effector names used for routing and FIFO ordering.
const (
	EffectorSpeech       = "speech"
	EffectorBraille      = "braille"
	EffectorInput        = "input"
	EffectorNotification = "notification"
)

// Priority orders speech output, mirroring the speech server's priority
// lanes.
type Priority int

// Priorities, lowest first.
const (
	PriorityLow Priority = iota
	PriorityText
	PriorityMessage
	PriorityImportant
)

// String returns the priority name.
func (p Priority) String() string {
	switch p {
	case PriorityLow:
		return "low"
	case PriorityText:
		return "text"
	case PriorityMessage:
		return "message"
	case PriorityImportant:
		return "important"
	default:
		return "text"
	}
}

// Command is one output action. The set of implementations is closed;
// the dispatcher matches kinds exhaustively.
type Command interface {
	Kind() Kind
	// CommandID is a unique identifier carried for idempotent resend.
	CommandID() string
}

// Meta carries the fields common to every command.
type Meta struct {
	ID string
}

// NewMeta allocates command metadata with a fresh ID.
func NewMeta() Meta {
	return Meta{ID: uuid.NewString()}
}

// CommandID returns the command's unique identifier.
func (m Meta) CommandID() string {
	return m.ID
}

// Speak announces text through the speech effector.
type Speak struct {
	Meta
	Text      string
	Priority  Priority
	Interrupt bool
}

// Kind implements Command.
func (Speak) Kind() Kind { return KindSpeak }

// StopSpeech cuts off any in-progress speech.
type StopSpeech struct {
	Meta
}

// Kind implements Command.
func (StopSpeech) Kind() Kind { return KindStopSpeech }

// MoveCaret moves the caret within an accessible's text.
type MoveCaret struct {
	Meta
	Object a11y.Identity
	Offset int
}

// Kind implements Command.
func (MoveCaret) Kind() Kind { return KindMoveCaret }

// SetBraille replaces the braille display region.
type SetBraille struct {
	Meta
	Region string
	Cursor int
}

// Kind implements Command.
func (SetBraille) Kind() Kind { return KindSetBraille }

// Notify raises a desktop-style notification.
type Notify struct {
	Meta
	Summary string
	Body    string
}

// Kind implements Command.
func (Notify) Kind() Kind { return KindNotify }

// Focus records the newly focused accessible with the input effector.
type Focus struct {
	Meta
	Object a11y.Identity
}

// Kind implements Command.
func (Focus) Kind() Kind { return KindFocus }

// SetProfile switches the active speech profile (rate, voice).
type SetProfile struct {
	Meta
	Name string
	Rate int
}

// Kind implements Command.
func (SetProfile) Kind() Kind { return KindSetProfile }

// EffectorFor routes a command kind to its effector. The switch is
// exhaustive over the closed kind set; an unknown kind returns "".
func EffectorFor(k Kind) string {
	switch k {
	case KindSpeak, KindStopSpeech, KindSetProfile:
		return EffectorSpeech
	case KindSetBraille:
		return EffectorBraille
	case KindMoveCaret, KindFocus:
		return EffectorInput
	case KindNotify:
		return EffectorNotification
	default:
		return ""
	}
}
