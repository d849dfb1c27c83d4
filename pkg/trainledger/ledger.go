package trainledger

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/randalmurphal/trainledger/pkg/trainledger/allocator"
	"github.com/randalmurphal/trainledger/pkg/trainledger/checkpoint"
	"github.com/randalmurphal/trainledger/pkg/trainledger/config"
	"github.com/randalmurphal/trainledger/pkg/trainledger/family"
	"github.com/randalmurphal/trainledger/pkg/trainledger/lifecycle"
	"github.com/randalmurphal/trainledger/pkg/trainledger/observability"
	"github.com/randalmurphal/trainledger/pkg/trainledger/registry"
	"github.com/randalmurphal/trainledger/pkg/trainledger/training"
)

// Ledger is a configured run registry with its lifecycle controller and
// checkpoint writer.
type Ledger struct {
	settings   config.Settings
	registry   *registry.Registry
	controller *lifecycle.Controller
	writer     *checkpoint.Writer
	logger     *slog.Logger

	// owned are the counter stores opened by Open and closed by Close.
	owned []allocator.CounterStore
}

// Open builds a ledger from settings. Counter stores required by
// StrategyCounter families are opened here; nothing else touches disk.
func Open(settings config.Settings, opts ...Option) (*Ledger, error) {
	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("invalid settings: %w", err)
	}

	cfg := &openConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	var metrics observability.MetricsRecorder = observability.NoopMetrics{}
	if cfg.metricsEnabled {
		metrics = observability.NewMetricsRecorder()
	}
	var spans observability.SpanManager = observability.NoopSpanManager{}
	if cfg.tracingEnabled {
		spans = observability.NewSpanManager()
	}

	classifier, err := checkpoint.NewClassifier(settings.ArtifactExt, settings.ArtifactPattern)
	if err != nil {
		return nil, err
	}

	l := &Ledger{settings: settings, logger: cfg.logger}

	specs := make(map[family.Family]registry.FamilySpec, len(settings.Families))
	shared := make(map[allocator.Backend]allocator.CounterStore)
	for f, fs := range settings.Families {
		root := settings.FamilyRoot(f)
		spec := registry.FamilySpec{Root: root}
		if fs.Strategy == allocator.StrategyCounter {
			store, ok := cfg.stores[f]
			if !ok {
				store, err = l.counterStore(shared, fs.Backend)
				if err != nil {
					l.Close()
					return nil, fmt.Errorf("family %s: %w", f, err)
				}
			}
			spec.Allocator = allocator.NewCounter(f.String(), root, store)
		}
		specs[f] = spec
	}

	l.registry, err = registry.New(specs,
		registry.WithClassifier(classifier),
		registry.WithLogger(cfg.logger),
		registry.WithMetrics(metrics),
	)
	if err != nil {
		l.Close()
		return nil, err
	}

	l.controller = lifecycle.New(l.registry,
		lifecycle.WithEmptyRunPolicy(settings.EmptyRunPolicy),
		lifecycle.WithClassifier(classifier),
		lifecycle.WithLogger(cfg.logger),
		lifecycle.WithMetrics(metrics),
		lifecycle.WithSpans(spans),
	)
	l.writer = checkpoint.NewWriter(classifier,
		checkpoint.WithWriterLogger(cfg.logger),
		checkpoint.WithWriterMetrics(metrics),
		checkpoint.WithWriterSpans(spans),
	)
	return l, nil
}

// counterStore returns the store for backend, opening it once per ledger.
func (l *Ledger) counterStore(shared map[allocator.Backend]allocator.CounterStore, b allocator.Backend) (allocator.CounterStore, error) {
	if store, ok := shared[b]; ok {
		return store, nil
	}
	var store allocator.CounterStore
	switch b {
	case allocator.BackendJSON, "":
		store = allocator.NewJSONFileStore(l.settings.CounterPath(allocator.BackendJSON))
	case allocator.BackendSQLite:
		path := l.settings.CounterPath(allocator.BackendSQLite)
		if err := os.MkdirAll(l.settings.CounterPath(allocator.BackendJSON), 0o750); err != nil {
			return nil, fmt.Errorf("create counter directory: %w", err)
		}
		s, err := allocator.NewSQLiteStore(path)
		if err != nil {
			return nil, err
		}
		store = s
	case allocator.BackendMemory:
		store = allocator.NewMemoryStore()
	default:
		return nil, fmt.Errorf("unknown counter backend %q", b)
	}
	shared[b] = store
	l.owned = append(l.owned, store)
	return store, nil
}

// Settings returns the settings the ledger was opened with.
func (l *Ledger) Settings() config.Settings { return l.settings }

// Registry returns the run registry.
func (l *Ledger) Registry() *registry.Registry { return l.registry }

// Controller returns the lifecycle controller.
func (l *Ledger) Controller() *lifecycle.Controller { return l.controller }

// Writer returns the checkpoint writer.
func (l *Ledger) Writer() *checkpoint.Writer { return l.writer }

// Resolve decides the run context for a request.
func (l *Ledger) Resolve(ctx context.Context, req lifecycle.Request) (lifecycle.RunContext, error) {
	return l.controller.Resolve(ctx, req)
}

// Save writes a checkpoint for run at step.
func (l *Ledger) Save(ctx context.Context, run registry.Run, step int64, payload io.WriterTo) (checkpoint.Checkpoint, error) {
	return l.writer.Save(ctx, run.Target(), step, payload)
}

// Loop returns a training loop sized by the ledger's training settings.
// Later options override the settings.
func (l *Ledger) Loop(opts ...training.LoopOption) *training.Loop {
	base := []training.LoopOption{
		training.WithUnit(l.settings.Training.Unit),
		training.WithIterations(l.settings.Training.Iterations),
		training.WithLogger(l.logger),
	}
	return training.NewLoop(l.writer, append(base, opts...)...)
}

// Train resolves req, obtains a learner, and runs the training loop in the
// resolved run. The environment stays open; closing it is the caller's job.
func (l *Ledger) Train(ctx context.Context, req lifecycle.Request, env training.Environment, loader training.Loader, factory training.Factory) (lifecycle.RunContext, []checkpoint.Checkpoint, error) {
	rc, err := l.Resolve(ctx, req)
	if err != nil {
		return lifecycle.RunContext{}, nil, err
	}
	learner, err := training.Prepare(ctx, rc, env, loader, factory)
	if err != nil {
		return rc, nil, err
	}
	saved, err := l.Loop().Run(ctx, rc, learner, env)
	return rc, saved, err
}

// Close releases counter stores opened by Open.
func (l *Ledger) Close() error {
	var errs []error
	for _, s := range l.owned {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	l.owned = nil
	return errors.Join(errs...)
}
