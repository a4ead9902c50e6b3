// Package journal records commands the dispatcher gave up on, so failed
// output can be inspected or replayed after the fact. A screen reader
// must keep speaking through effector trouble; the journal is where the
// casualties go instead of the log alone.
package journal

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/quillreader/quill/pkg/quill/command"
)

// Store persists failed commands.
// Implementations must be safe for concurrent use.
type Store interface {
	// Record stores one failed command.
	Record(entry Entry) error

	// Recent returns up to limit entries, newest first.
	Recent(limit int) ([]Entry, error)

	// ListByEffector returns all entries for one effector, newest first.
	ListByEffector(effector string) ([]Entry, error)

	// Prune removes entries recorded before the cutoff, returning the
	// number removed.
	Prune(before time.Time) (int, error)

	// Close releases any resources.
	Close() error
}

// Entry is one journaled failure.
type Entry struct {
	ID        string
	CommandID string
	Kind      string
	Effector  string
	Reason    string
	Payload   []byte
	Timestamp time.Time
}

// Sentinel errors for journal operations.
var (
	// ErrStoreClosed indicates the store has been closed.
	ErrStoreClosed = errors.New("journal store closed")
)

// EntryFor builds a journal entry from a failed command. The command is
// serialized as JSON so the journal stays readable with plain sqlite
// tooling.
func EntryFor(cmd command.Command, cause error) Entry {
	payload, err := json.Marshal(cmd)
	if err != nil {
		payload = []byte(`{}`)
	}

	reason := ""
	if cause != nil {
		reason = cause.Error()
	}

	return Entry{
		ID:        uuid.NewString(),
		CommandID: cmd.CommandID(),
		Kind:      string(cmd.Kind()),
		Effector:  command.EffectorFor(cmd.Kind()),
		Reason:    reason,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
	}
}
