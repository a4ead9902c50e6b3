package event

import (
	"context"
	"errors"
	"hash/fnv"
	"log/slog"
	"sync"

	"github.com/quillreader/quill/pkg/quill/command"
	"github.com/quillreader/quill/pkg/quill/observability"
)

// ErrPipelineClosed is returned by Ingest after the pipeline shuts down.
var ErrPipelineClosed = errors.New("pipeline closed")

// CommandSink receives the commands an event produced, in order. The
// command dispatcher implements it.
type CommandSink interface {
	Submit(ctx context.Context, cmd command.Command) error
}

// PipelineConfig configures a Pipeline.
type PipelineConfig struct {
	// Workers is the number of event-processing goroutines.
	Workers int

	// QueueSize bounds each worker's pending message queue.
	QueueSize int

	Deps   *Deps
	Router *Router
	Sink   CommandSink

	Logger  *slog.Logger
	Metrics observability.MetricsRecorder
	Spans   observability.SpanManager
}

// Pipeline consumes raw bus messages, decodes them, routes the events,
// and submits the resulting commands. Messages are sharded across workers
// by sender, so events from one application are processed in arrival
// order while different applications proceed concurrently.
type Pipeline struct {
	config PipelineConfig
	queues []chan RawMessage

	mu      sync.Mutex
	runCtx  context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	started bool
}

// NewPipeline creates a pipeline. Start must be called before Ingest.
func NewPipeline(config PipelineConfig) *Pipeline {
	if config.Workers <= 0 {
		config.Workers = 4
	}
	if config.QueueSize <= 0 {
		config.QueueSize = 256
	}
	if config.Metrics == nil {
		config.Metrics = observability.NoopMetrics{}
	}
	if config.Spans == nil {
		config.Spans = observability.NoopSpanManager{}
	}

	queues := make([]chan RawMessage, config.Workers)
	for i := range queues {
		queues[i] = make(chan RawMessage, config.QueueSize)
	}

	return &Pipeline{config: config, queues: queues}
}

// Start launches the worker goroutines.
func (p *Pipeline) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started {
		return
	}
	p.runCtx, p.cancel = context.WithCancel(ctx)
	p.started = true

	for i := range p.queues {
		p.wg.Add(1)
		go p.run(i)
	}
}

// Close stops the workers and waits for in-flight events to finish.
// Queued messages that have not started processing are dropped.
func (p *Pipeline) Close() {
	p.mu.Lock()
	if !p.started {
		p.mu.Unlock()
		return
	}
	p.started = false
	p.cancel()
	p.mu.Unlock()

	p.wg.Wait()
}

// Ingest hands one raw message to the worker owning its sender. It blocks
// while that worker's queue is full, until ctx expires or the pipeline
// closes.
func (p *Pipeline) Ingest(ctx context.Context, msg RawMessage) error {
	p.mu.Lock()
	if !p.started {
		p.mu.Unlock()
		return ErrPipelineClosed
	}
	runCtx := p.runCtx
	p.mu.Unlock()

	queue := p.queues[senderShard(msg.Sender, len(p.queues))]
	select {
	case queue <- msg:
		return nil
	case <-ctx.Done():
		p.config.Metrics.RecordEvent(ctx, msg.Member, true)
		observability.LogEventDropped(p.config.Logger, msg.Member, ctx.Err())
		return ctx.Err()
	case <-runCtx.Done():
		return ErrPipelineClosed
	}
}

func (p *Pipeline) run(worker int) {
	defer p.wg.Done()
	logger := observability.EnrichLogger(p.config.Logger, "", worker)

	for {
		select {
		case <-p.runCtx.Done():
			return
		case msg := <-p.queues[worker]:
			p.process(logger, msg)
		}
	}
}

func (p *Pipeline) process(logger *slog.Logger, msg RawMessage) {
	evt, err := Decode(msg)
	if err != nil {
		p.config.Metrics.RecordEvent(p.runCtx, msg.Member, true)
		observability.LogEventDropped(logger, msg.Member, err)
		return
	}

	ctx, span := p.config.Spans.StartEventSpan(p.runCtx, string(evt.EventType()), msg.Sender)
	p.config.Metrics.RecordEvent(ctx, string(evt.EventType()), false)

	var submitErr error
	for _, cmd := range p.config.Router.Route(ctx, p.config.Deps, evt) {
		if err := p.config.Sink.Submit(ctx, cmd); err != nil {
			submitErr = err
			observability.LogCommandFailed(logger, string(cmd.Kind()),
				command.EffectorFor(cmd.Kind()), err)
		}
	}

	p.config.Spans.EndSpanWithError(span, submitErr)
}

func senderShard(sender string, n int) int {
	h := fnv.New32a()
	h.Write([]byte(sender))
	return int(h.Sum32() % uint32(n))
}
