package config

import "time"

// Settings holds the daemon's typed configuration, extracted from a
// Config with defaults applied.
type Settings struct {
	// PipelineWorkers is the number of per-sender event workers.
	PipelineWorkers int

	// EventQueueSize is the buffer of each pipeline worker queue.
	EventQueueSize int

	// CommandQueueSize is the dispatcher submit-queue buffer.
	CommandQueueSize int

	// MaxCommandDepth bounds command re-entrancy: a command enqueued by
	// another command at this depth is dropped and journaled.
	MaxCommandDepth int

	// FetchTimeout bounds a single fetch through the bus client.
	FetchTimeout time.Duration

	// SpeechRate is the default speech rate passed to the speech effector,
	// in words per minute.
	SpeechRate int

	// InterruptOnFocus controls whether focus announcements cut off
	// in-progress speech.
	InterruptOnFocus bool

	// HistorySize is the capacity of the focus history ring.
	HistorySize int

	// JournalPath is the SQLite journal location; empty disables the
	// journal, ":memory:" keeps it in-process.
	JournalPath string
}

// DefaultSettings provides the daemon defaults.
var DefaultSettings = Settings{
	PipelineWorkers:  4,
	EventQueueSize:   256,
	CommandQueueSize: 256,
	MaxCommandDepth:  8,
	FetchTimeout:     2 * time.Second,
	SpeechRate:       180,
	InterruptOnFocus: true,
	HistorySize:      16,
	JournalPath:      "",
}

// SettingsFrom extracts typed Settings from a loaded Config, falling back
// to defaults for anything missing or malformed.
func SettingsFrom(c Config) Settings {
	d := DefaultSettings
	return Settings{
		PipelineWorkers:  c.Int("pipeline_workers", d.PipelineWorkers),
		EventQueueSize:   c.Int("event_queue_size", d.EventQueueSize),
		CommandQueueSize: c.Int("command_queue_size", d.CommandQueueSize),
		MaxCommandDepth:  c.Int("max_command_depth", d.MaxCommandDepth),
		FetchTimeout:     c.Duration("fetch_timeout", d.FetchTimeout),
		SpeechRate:       c.Int("speech_rate", d.SpeechRate),
		InterruptOnFocus: c.Bool("interrupt_on_focus", d.InterruptOnFocus),
		HistorySize:      c.Int("history_size", d.HistorySize),
		JournalPath:      c.String("journal_path", d.JournalPath),
	}
}
