package command

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	quillerrors "github.com/quillreader/quill/pkg/quill/errors"
	"github.com/quillreader/quill/pkg/quill/observability"
	"github.com/quillreader/quill/pkg/quill/registry"
)

// Dispatch errors.
var (
	// ErrNotStarted is returned by Submit before Start or after Close.
	ErrNotStarted = errors.New("dispatcher not started")

	// ErrDepthExceeded is returned when a command is submitted from too
	// deep a chain of nested command executions.
	ErrDepthExceeded = errors.New("command depth exceeded")

	// ErrQueueFull is returned when an effector queue cannot accept a
	// command before the submit context expires.
	ErrQueueFull = errors.New("effector queue full")
)

// DispatcherConfig configures a Dispatcher.
type DispatcherConfig struct {
	// QueueSize bounds each effector's pending command queue.
	QueueSize int

	// MaxDepth bounds command re-entrancy. Defaults to DefaultMaxDepth.
	MaxDepth int

	// Retry is applied to transient effector failures.
	Retry quillerrors.RetryConfig

	Logger  *slog.Logger
	Metrics observability.MetricsRecorder
	Spans   observability.SpanManager

	// OnFailure receives every command the dispatcher gives up on,
	// after retries are exhausted or a permanent failure. The daemon
	// wires this to the journal.
	OnFailure func(cmd Command, err error)
}

// Dispatcher routes commands to registered effectors. Each effector gets
// one worker goroutine and a bounded FIFO queue, so commands for the same
// effector execute in submission order while different effectors run
// concurrently.
type Dispatcher struct {
	config    DispatcherConfig
	effectors *registry.Registry[string, Effector]
	workers   *registry.Registry[string, *effectorWorker]

	mu      sync.Mutex
	runCtx  context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	started bool
}

type effectorWorker struct {
	name  string
	queue chan queuedCommand
}

type queuedCommand struct {
	cmd   Command
	depth int
}

// NewDispatcher creates a dispatcher. Effectors may be registered before
// or after Start; commands for an unregistered effector fail at Submit.
func NewDispatcher(config DispatcherConfig) *Dispatcher {
	if config.QueueSize <= 0 {
		config.QueueSize = 256
	}
	if config.MaxDepth <= 0 {
		config.MaxDepth = DefaultMaxDepth
	}
	if config.Retry.MaxAttempts == 0 {
		config.Retry = quillerrors.DefaultRetry
	}
	if config.Metrics == nil {
		config.Metrics = observability.NoopMetrics{}
	}
	if config.Spans == nil {
		config.Spans = observability.NoopSpanManager{}
	}

	return &Dispatcher{
		config:    config,
		effectors: registry.New[string, Effector](),
		workers:   registry.New[string, *effectorWorker](),
	}
}

// RegisterEffector installs the effector serving the given name.
// Registering the same name twice replaces the effector for commands not
// yet executing.
func (d *Dispatcher) RegisterEffector(name string, effector Effector) {
	d.effectors.Register(name, effector)
}

// Start begins accepting commands. Worker goroutines are spawned lazily,
// one per effector, on first submission.
func (d *Dispatcher) Start(ctx context.Context) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.started {
		return
	}
	d.runCtx, d.cancel = context.WithCancel(ctx)
	d.started = true
}

// Close stops accepting commands and waits for in-flight executions to
// finish. Queued commands that have not started are dropped.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if !d.started {
		d.mu.Unlock()
		return
	}
	d.started = false
	d.cancel()
	d.mu.Unlock()

	d.wg.Wait()
}

// Submit enqueues a command for its effector. It blocks while the
// effector's queue is full, until ctx or the dispatcher shuts down.
//
// Submissions made from inside an effector's Apply (using the ctx Apply
// received) count one level deeper than the command being executed;
// chains deeper than MaxDepth are rejected with ErrDepthExceeded.
func (d *Dispatcher) Submit(ctx context.Context, cmd Command) error {
	d.mu.Lock()
	if !d.started {
		d.mu.Unlock()
		return ErrNotStarted
	}
	runCtx := d.runCtx
	d.mu.Unlock()

	depth := DepthFromContext(ctx)
	if depth >= d.config.MaxDepth {
		err := fmt.Errorf("%w: %s at depth %d", ErrDepthExceeded, cmd.Kind(), depth)
		observability.LogCommandDepthExceeded(d.config.Logger, string(cmd.Kind()), depth)
		// The command never reaches an effector; record the drop so the
		// runaway chain shows up in the journal.
		if d.config.OnFailure != nil {
			d.config.OnFailure(cmd, err)
		}
		return err
	}

	name := EffectorFor(cmd.Kind())
	if name == "" {
		return fmt.Errorf("unknown command kind %q", cmd.Kind())
	}
	if !d.effectors.Has(name) {
		return fmt.Errorf("no effector registered for %q", name)
	}

	w := d.workers.GetOrCreate(name, func() *effectorWorker {
		return d.spawnWorker(runCtx, name)
	})

	select {
	case w.queue <- queuedCommand{cmd: cmd, depth: depth}:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("%w: %s", ErrQueueFull, name)
	case <-runCtx.Done():
		return ErrNotStarted
	}
}

func (d *Dispatcher) spawnWorker(runCtx context.Context, name string) *effectorWorker {
	w := &effectorWorker{
		name:  name,
		queue: make(chan queuedCommand, d.config.QueueSize),
	}

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		for {
			select {
			case <-runCtx.Done():
				return
			case q := <-w.queue:
				d.execute(runCtx, name, q)
			}
		}
	}()

	return w
}

// execute runs one command through its effector, retrying transient
// failures. The effector is looked up per command so replacements take
// effect for queued work.
func (d *Dispatcher) execute(runCtx context.Context, name string, q queuedCommand) {
	effector, ok := d.effectors.Get(name)
	if !ok {
		d.fail(q.cmd, name, fmt.Errorf("effector %q removed with commands queued", name))
		return
	}

	ctx := withDepth(runCtx, q.depth+1)
	ctx, span := d.config.Spans.StartCommandSpan(ctx, string(q.cmd.Kind()), name)

	result := quillerrors.WithRetryContext(ctx, d.config.Retry, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, effector.Apply(ctx, q.cmd)
	})

	d.config.Metrics.RecordCommand(ctx, string(q.cmd.Kind()), name, result.Duration, result.Err)
	d.config.Spans.EndSpanWithError(span, result.Err)

	if result.Err != nil {
		d.fail(q.cmd, name, result.Err)
		return
	}
	observability.LogCommandDispatched(d.config.Logger, string(q.cmd.Kind()), name,
		float64(result.Duration.Milliseconds()))
}

func (d *Dispatcher) fail(cmd Command, effector string, err error) {
	observability.LogCommandFailed(d.config.Logger, string(cmd.Kind()), effector, err)
	if d.config.OnFailure != nil {
		d.config.OnFailure(cmd, err)
	}
}
