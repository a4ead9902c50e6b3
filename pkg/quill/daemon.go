package quill

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/quillreader/quill/pkg/quill/a11y"
	"github.com/quillreader/quill/pkg/quill/cache"
	"github.com/quillreader/quill/pkg/quill/command"
	"github.com/quillreader/quill/pkg/quill/config"
	"github.com/quillreader/quill/pkg/quill/event"
	"github.com/quillreader/quill/pkg/quill/journal"
	"github.com/quillreader/quill/pkg/quill/observability"
	"github.com/quillreader/quill/pkg/quill/signal"
)

// Config configures a Daemon. Zero-value settings fall back to
// config.DefaultSettings.
type Config struct {
	Settings config.Settings

	// Fetcher resolves cache misses against the accessibility bus.
	Fetcher cache.Fetcher

	// SessionID labels this session in logs and signals. Generated when
	// empty.
	SessionID string

	Logger  *slog.Logger
	Metrics observability.MetricsRecorder
	Spans   observability.SpanManager

	// Journal overrides the store built from Settings.JournalPath.
	Journal journal.Store
}

// Daemon is one running screen reader session: cache, pipeline,
// dispatcher, and signal processing wired together.
type Daemon struct {
	settings  config.Settings
	sessionID string
	logger    *slog.Logger

	cache      *cache.Cache
	state      *State
	router     *event.Router
	pipeline   *event.Pipeline
	dispatcher *command.Dispatcher
	signals    *signal.Processor
	signalReg  *signal.Registry
	journal    journal.Store
	ownJournal bool

	shutdownOnce sync.Once
	shutdownCh   chan struct{}
	closeOnce    sync.Once
}

// NewDaemon assembles a daemon. Effectors must be registered before Run;
// additional event handlers may be registered any time.
func NewDaemon(cfg Config) (*Daemon, error) {
	settings := cfg.Settings
	if settings == (config.Settings{}) {
		settings = config.DefaultSettings
	}

	sessionID := cfg.SessionID
	if sessionID == "" {
		sessionID = "quill-" + uuid.NewString()[:8]
	}

	metrics := cfg.Metrics
	if metrics == nil {
		metrics = observability.NewMetricsRecorder()
	}
	spans := cfg.Spans
	if spans == nil {
		spans = observability.NewSpanManager()
	}
	baseLogger := cfg.Logger
	if baseLogger == nil {
		baseLogger = slog.New(slog.DiscardHandler)
	}
	logger := observability.EnrichLogger(baseLogger, sessionID, -1)

	store := cfg.Journal
	ownJournal := false
	if store == nil {
		if settings.JournalPath != "" {
			var err error
			store, err = journal.NewSQLiteStore(settings.JournalPath)
			if err != nil {
				return nil, fmt.Errorf("open journal: %w", err)
			}
		} else {
			store = journal.NewMemoryStore()
		}
		ownJournal = true
	}

	d := &Daemon{
		settings:   settings,
		sessionID:  sessionID,
		logger:     logger,
		journal:    store,
		ownJournal: ownJournal,
		shutdownCh: make(chan struct{}),
	}

	d.cache = cache.New(cache.Config{
		Fetcher:      cfg.Fetcher,
		FetchTimeout: settings.FetchTimeout,
		Logger:       logger,
		OnLookup: func(_ a11y.Identity, hit bool) {
			metrics.RecordCacheLookup(context.Background(), hit)
		},
		OnFetch: func(id a11y.Identity, duration time.Duration, err error) {
			metrics.RecordFetch(context.Background(), duration, err)
			observability.LogFetch(logger, id.String(), float64(duration.Milliseconds()), err)
		},
	})

	d.dispatcher = command.NewDispatcher(command.DispatcherConfig{
		QueueSize: settings.CommandQueueSize,
		MaxDepth:  settings.MaxCommandDepth,
		Logger:    logger,
		Metrics:   metrics,
		Spans:     spans,
		OnFailure: func(cmd command.Command, err error) {
			if recordErr := store.Record(journal.EntryFor(cmd, err)); recordErr != nil {
				logger.Error("journal write failed",
					slog.String("command_id", cmd.CommandID()),
					slog.String("error", recordErr.Error()),
				)
			}
		},
	})

	d.state = NewState(settings.HistorySize)

	d.router = event.NewRouter(event.RouterConfig{
		Logger:  logger,
		Metrics: metrics,
		Spans:   spans,
	})
	for _, h := range AnnouncementHandlers(settings) {
		d.router.Register(h)
	}
	for _, h := range TrackingHandlers(d.state) {
		d.router.Register(h)
	}
	for _, h := range MaintenanceHandlers() {
		d.router.Register(h)
	}

	d.pipeline = event.NewPipeline(event.PipelineConfig{
		Workers:   settings.PipelineWorkers,
		QueueSize: settings.EventQueueSize,
		Deps: &event.Deps{
			Cache:   d.cache,
			Focus:   d.state,
			Logger:  logger,
			Metrics: metrics,
		},
		Router:  d.router,
		Sink:    d.dispatcher,
		Logger:  logger,
		Metrics: metrics,
		Spans:   spans,
	})

	registry := signal.NewRegistry()
	registry.MustRegister(signal.NameStopSpeech,
		func(context.Context, *signal.Signal) ([]command.Command, error) {
			return []command.Command{command.StopSpeech{Meta: command.NewMeta()}}, nil
		})
	registry.MustRegister(signal.NameSetProfile,
		func(_ context.Context, sig *signal.Signal) ([]command.Command, error) {
			name, _ := sig.Payload["name"].(string)
			rate := settings.SpeechRate
			if n, ok := sig.Payload["rate"].(int); ok {
				rate = n
			}
			return []command.Command{command.SetProfile{Meta: command.NewMeta(), Name: name, Rate: rate}}, nil
		})
	registry.MustRegister(signal.NameShutdown,
		func(context.Context, *signal.Signal) ([]command.Command, error) {
			d.requestShutdown()
			return nil, nil
		})
	d.signalReg = registry
	d.signals = signal.NewProcessor(registry, signal.NewMemoryQueue(), d.dispatcher).WithLogger(logger)

	return d, nil
}

// RegisterEffector installs the effector for one output surface. The
// daemon routes commands to effectors by name; see the command package
// for the names.
func (d *Daemon) RegisterEffector(name string, effector command.Effector) {
	d.dispatcher.RegisterEffector(name, effector)
}

// RegisterHandler adds an event handler after the built-ins.
func (d *Daemon) RegisterHandler(h event.Handler) {
	d.router.Register(h)
}

// RegisterSignal adds a signal handler.
func (d *Daemon) RegisterSignal(name string, h signal.Handler) error {
	return d.signalReg.Register(name, h)
}

// Run starts the daemon and blocks until ctx is cancelled or a shutdown
// signal arrives, then drains in-flight work and releases resources.
func (d *Daemon) Run(ctx context.Context) error {
	d.dispatcher.Start(ctx)
	d.pipeline.Start(ctx)

	d.logger.Info("quill started",
		slog.Int("pipeline_workers", d.settings.PipelineWorkers),
		slog.Int("max_command_depth", d.settings.MaxCommandDepth),
	)

	select {
	case <-ctx.Done():
	case <-d.shutdownCh:
	}

	d.logger.Info("quill stopping")
	d.Close()
	return nil
}

// Start launches the daemon without blocking. Tests and embedders that
// drive Ingest directly use this instead of Run.
func (d *Daemon) Start(ctx context.Context) {
	d.dispatcher.Start(ctx)
	d.pipeline.Start(ctx)
}

// Close drains in-flight work and releases resources. Safe to call more
// than once.
func (d *Daemon) Close() {
	d.closeOnce.Do(func() {
		d.pipeline.Close()
		d.dispatcher.Close()
		if d.ownJournal {
			if err := d.journal.Close(); err != nil {
				d.logger.Error("journal close failed", slog.String("error", err.Error()))
			}
		}
	})
}

// Ingest hands one raw bus message to the pipeline.
func (d *Daemon) Ingest(ctx context.Context, msg event.RawMessage) error {
	return d.pipeline.Ingest(ctx, msg)
}

// Signal delivers a control message and processes it immediately. An
// empty session ID is filled in with this daemon's.
func (d *Daemon) Signal(ctx context.Context, sig *signal.Signal) error {
	if sig.SessionID == "" {
		sig.SessionID = d.sessionID
	}
	if err := d.signals.Send(ctx, sig); err != nil {
		return err
	}
	return d.signals.Process(ctx, sig.SessionID)
}

func (d *Daemon) requestShutdown() {
	d.shutdownOnce.Do(func() {
		close(d.shutdownCh)
	})
}

// Cache returns the session's accessible-object cache.
func (d *Daemon) Cache() *cache.Cache {
	return d.cache
}

// State returns the session's reading position.
func (d *Daemon) State() *State {
	return d.state
}

// Journal returns the failed-command journal.
func (d *Daemon) Journal() journal.Store {
	return d.journal
}

// SessionID returns this daemon's session label.
func (d *Daemon) SessionID() string {
	return d.sessionID
}
