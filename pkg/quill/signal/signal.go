// Package signal carries fire-and-forget control messages into a running
// quill session.
//
// Signals come from outside the accessibility bus: the input daemon's
// keyboard grabs, a settings UI, or an operator shell. They never block
// the sender; the session drains pending signals on its own schedule and
// turns them into commands.
//
// Common signals:
//   - Interrupting speech on a silence key
//   - Switching the speech profile
//   - Requesting daemon shutdown
package signal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/quillreader/quill/pkg/quill/command"
)

// Status represents the current state of a signal.
type Status string

// Signal status constants.
const (
	StatusPending   Status = "pending"
	StatusProcessed Status = "processed"
	StatusFailed    Status = "failed"
)

// Well-known signal names.
const (
	NameStopSpeech = "stop-speech"
	NameSetProfile = "set-profile"
	NameShutdown   = "shutdown"
)

// Signal is a fire-and-forget control message for a session.
type Signal struct {
	// ID uniquely identifies this signal.
	ID string `json:"id"`

	// Name is the signal type (e.g., "stop-speech", "set-profile").
	Name string `json:"name"`

	// SessionID is the quill session this signal is addressed to.
	SessionID string `json:"session_id"`

	// Payload contains signal-specific data.
	Payload map[string]any `json:"payload,omitempty"`

	// SenderID identifies who sent the signal (e.g., "input-daemon").
	SenderID string `json:"sender_id,omitempty"`

	// Status is the current signal status.
	Status Status `json:"status"`

	// Timestamps
	SentAt      time.Time  `json:"sent_at"`
	ProcessedAt *time.Time `json:"processed_at,omitempty"`

	// Error contains error details if processing failed.
	Error string `json:"error,omitempty"`
}

// New creates a signal with the given name and session.
func New(name, sessionID string, payload map[string]any) *Signal {
	return &Signal{
		ID:        fmt.Sprintf("sig-%s", uuid.New().String()[:8]),
		Name:      name,
		SessionID: sessionID,
		Payload:   payload,
		Status:    StatusPending,
		SentAt:    time.Now(),
	}
}

// WithSender sets the sender ID on the signal.
func (s *Signal) WithSender(senderID string) *Signal {
	s.SenderID = senderID
	return s
}

// Clone creates a deep copy of the signal.
func (s *Signal) Clone() *Signal {
	signalCopy := *s
	if s.Payload != nil {
		signalCopy.Payload = make(map[string]any, len(s.Payload))
		for k, v := range s.Payload {
			signalCopy.Payload[k] = v
		}
	}
	if s.ProcessedAt != nil {
		t := *s.ProcessedAt
		signalCopy.ProcessedAt = &t
	}
	return &signalCopy
}

// Handler turns one signal into the commands it implies. Returning no
// commands is valid; a shutdown signal, for example, is acted on by the
// daemon itself.
type Handler func(ctx context.Context, sig *Signal) ([]command.Command, error)

// Registry manages signal handlers by signal name.
type Registry struct {
	handlers map[string]Handler
	mu       sync.RWMutex
}

// NewRegistry creates a new signal registry.
func NewRegistry() *Registry {
	return &Registry{
		handlers: make(map[string]Handler),
	}
}

// Register adds a handler for a signal name.
func (r *Registry) Register(signalName string, handler Handler) error {
	if signalName == "" {
		return errors.New("signal name is required")
	}
	if handler == nil {
		return errors.New("handler is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.handlers[signalName]; exists {
		return fmt.Errorf("handler for signal %q already registered", signalName)
	}

	r.handlers[signalName] = handler
	return nil
}

// MustRegister registers a handler, panicking on error.
func (r *Registry) MustRegister(signalName string, handler Handler) {
	if err := r.Register(signalName, handler); err != nil {
		panic(err)
	}
}

// Get returns the handler for a signal name.
func (r *Registry) Get(signalName string) (Handler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	handler, exists := r.handlers[signalName]
	return handler, exists
}

// List returns all registered signal names.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		names = append(names, name)
	}
	return names
}

// Unregister removes a handler for a signal name.
func (r *Registry) Unregister(signalName string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.handlers, signalName)
}

// ErrSignalNotFound is returned when a signal cannot be found.
var ErrSignalNotFound = errors.New("signal not found")

// ErrNoHandler is returned when no handler exists for a signal.
var ErrNoHandler = errors.New("no handler for signal")

// Queue holds signals awaiting processing. Implementations must be safe
// for concurrent use.
type Queue interface {
	// Enqueue adds a signal for delivery.
	Enqueue(ctx context.Context, sig *Signal) error

	// Pending returns pending signals for a session, oldest first.
	Pending(ctx context.Context, sessionID string) ([]*Signal, error)

	// Get retrieves a signal by ID.
	Get(ctx context.Context, signalID string) (*Signal, error)

	// MarkProcessed marks a signal as successfully processed.
	MarkProcessed(ctx context.Context, signalID string) error

	// MarkFailed marks a signal as failed with an error.
	MarkFailed(ctx context.Context, signalID string, err error) error
}

// MemoryQueue is an in-memory Queue implementation.
type MemoryQueue struct {
	signals   map[string]*Signal
	bySession map[string][]string // sessionID -> signal IDs
	mu        sync.RWMutex
}

// NewMemoryQueue creates a new in-memory signal queue.
func NewMemoryQueue() *MemoryQueue {
	return &MemoryQueue{
		signals:   make(map[string]*Signal),
		bySession: make(map[string][]string),
	}
}

// Enqueue adds a signal for delivery.
func (q *MemoryQueue) Enqueue(_ context.Context, sig *Signal) error {
	if sig.ID == "" {
		sig.ID = fmt.Sprintf("sig-%s", uuid.New().String()[:8])
	}
	if sig.SentAt.IsZero() {
		sig.SentAt = time.Now()
	}
	if sig.Status == "" {
		sig.Status = StatusPending
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	q.signals[sig.ID] = sig.Clone()
	q.bySession[sig.SessionID] = append(q.bySession[sig.SessionID], sig.ID)

	return nil
}

// Pending returns pending signals for a session, oldest first.
func (q *MemoryQueue) Pending(_ context.Context, sessionID string) ([]*Signal, error) {
	q.mu.RLock()
	defer q.mu.RUnlock()

	var pending []*Signal
	for _, id := range q.bySession[sessionID] {
		if sig := q.signals[id]; sig != nil && sig.Status == StatusPending {
			pending = append(pending, sig.Clone())
		}
	}
	return pending, nil
}

// Get retrieves a signal by ID.
func (q *MemoryQueue) Get(_ context.Context, signalID string) (*Signal, error) {
	q.mu.RLock()
	defer q.mu.RUnlock()

	sig, exists := q.signals[signalID]
	if !exists {
		return nil, ErrSignalNotFound
	}
	return sig.Clone(), nil
}

// MarkProcessed marks a signal as successfully processed.
func (q *MemoryQueue) MarkProcessed(_ context.Context, signalID string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	sig, exists := q.signals[signalID]
	if !exists {
		return ErrSignalNotFound
	}

	now := time.Now()
	sig.Status = StatusProcessed
	sig.ProcessedAt = &now
	return nil
}

// MarkFailed marks a signal as failed.
func (q *MemoryQueue) MarkFailed(_ context.Context, signalID string, err error) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	sig, exists := q.signals[signalID]
	if !exists {
		return ErrSignalNotFound
	}

	now := time.Now()
	sig.Status = StatusFailed
	sig.ProcessedAt = &now
	if err != nil {
		sig.Error = err.Error()
	}
	return nil
}

// CommandSink receives the commands signals produce.
type CommandSink interface {
	Submit(ctx context.Context, cmd command.Command) error
}

// Processor drains signals for one session and submits the commands they
// produce.
type Processor struct {
	registry *Registry
	queue    Queue
	sink     CommandSink
	logger   *slog.Logger
}

// NewProcessor creates a signal processor.
func NewProcessor(registry *Registry, queue Queue, sink CommandSink) *Processor {
	return &Processor{
		registry: registry,
		queue:    queue,
		sink:     sink,
		logger:   slog.Default(),
	}
}

// WithLogger sets the logger for the processor.
func (p *Processor) WithLogger(logger *slog.Logger) *Processor {
	p.logger = logger
	return p
}

// Send enqueues a signal for a session.
func (p *Processor) Send(ctx context.Context, sig *Signal) error {
	if sig.SessionID == "" {
		return errors.New("session ID is required")
	}
	if sig.Name == "" {
		return errors.New("signal name is required")
	}

	if err := p.queue.Enqueue(ctx, sig); err != nil {
		return fmt.Errorf("failed to enqueue signal: %w", err)
	}

	p.logger.Debug("signal sent",
		"signal_id", sig.ID,
		"signal_name", sig.Name,
		"session_id", sig.SessionID,
	)

	return nil
}

// Process drains all pending signals for a session. Failures are isolated
// per signal; one bad signal never stops the rest.
func (p *Processor) Process(ctx context.Context, sessionID string) error {
	signals, err := p.queue.Pending(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("failed to list pending signals: %w", err)
	}

	for _, sig := range signals {
		if processErr := p.processOne(ctx, sig); processErr != nil {
			p.logger.Error("signal processing failed",
				"signal_id", sig.ID,
				"signal_name", sig.Name,
				"session_id", sessionID,
				"error", processErr,
			)
			// Continue processing other signals
		}
	}

	return nil
}

// processOne processes a single signal.
func (p *Processor) processOne(ctx context.Context, sig *Signal) error {
	handler, exists := p.registry.Get(sig.Name)
	if !exists {
		p.logger.Warn("no handler for signal",
			"signal_name", sig.Name,
			"signal_id", sig.ID,
		)
		if markErr := p.queue.MarkFailed(ctx, sig.ID, ErrNoHandler); markErr != nil {
			p.logger.Error("failed to mark signal as failed",
				"signal_id", sig.ID,
				"error", markErr,
			)
		}
		return ErrNoHandler
	}

	cmds, handleErr := handler(ctx, sig)
	if handleErr != nil {
		if markErr := p.queue.MarkFailed(ctx, sig.ID, handleErr); markErr != nil {
			p.logger.Error("failed to mark signal as failed",
				"signal_id", sig.ID,
				"error", markErr,
			)
		}
		return handleErr
	}

	for _, cmd := range cmds {
		if err := p.sink.Submit(ctx, cmd); err != nil {
			p.logger.Error("signal command rejected",
				"signal_id", sig.ID,
				"command_kind", string(cmd.Kind()),
				"error", err,
			)
		}
	}

	if markErr := p.queue.MarkProcessed(ctx, sig.ID); markErr != nil {
		p.logger.Error("failed to mark signal as processed",
			"signal_id", sig.ID,
			"error", markErr,
		)
	}

	p.logger.Debug("signal processed",
		"signal_id", sig.ID,
		"signal_name", sig.Name,
		"session_id", sig.SessionID,
	)

	return nil
}

// ProcessOne processes a specific signal by ID.
func (p *Processor) ProcessOne(ctx context.Context, signalID string) error {
	sig, err := p.queue.Get(ctx, signalID)
	if err != nil {
		return err
	}
	return p.processOne(ctx, sig)
}
