package checkpoint

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"go.opentelemetry.io/otel/attribute"

	tlerrors "github.com/randalmurphal/trainledger/pkg/trainledger/errors"
	"github.com/randalmurphal/trainledger/pkg/trainledger/observability"
	"github.com/randalmurphal/trainledger/pkg/trainledger/storage"
)

// Writer persists learner state into a run directory under its step count.
type Writer struct {
	classifier *Classifier
	discovery  *Discovery
	logger     *slog.Logger
	metrics    observability.MetricsRecorder
	spans      observability.SpanManager
}

// WriterOption configures a Writer.
type WriterOption func(*Writer)

// WithWriterLogger sets the logger. Default: no logging.
func WithWriterLogger(logger *slog.Logger) WriterOption {
	return func(w *Writer) {
		w.logger = logger
	}
}

// WithWriterMetrics sets the metrics recorder. Default: NoopMetrics.
func WithWriterMetrics(m observability.MetricsRecorder) WriterOption {
	return func(w *Writer) {
		if m != nil {
			w.metrics = m
		}
	}
}

// WithWriterSpans sets the span manager. Default: NoopSpanManager.
func WithWriterSpans(s observability.SpanManager) WriterOption {
	return func(w *Writer) {
		if s != nil {
			w.spans = s
		}
	}
}

// NewWriter creates a writer that names artifacts with c's extension.
// A nil classifier means DefaultClassifier.
func NewWriter(c *Classifier, opts ...WriterOption) *Writer {
	if c == nil {
		c = DefaultClassifier()
	}
	w := &Writer{
		classifier: c,
		discovery:  &Discovery{Lister: storage.OS{}, Classifier: c},
		metrics:    observability.NoopMetrics{},
		spans:      observability.NoopSpanManager{},
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Save writes payload to <target.Dir>/<step><ext>.
//
// The run directory is created if absent. A step count already present in
// the run is rejected with a DuplicateStepError and the existing artifact is
// left untouched. The payload is written to a hidden temp file and linked
// into place, so a crash mid-write leaves no visible artifact.
func (w *Writer) Save(ctx context.Context, target Target, step int64, payload io.WriterTo) (cp Checkpoint, err error) {
	ctx, span := w.spans.StartSaveSpan(ctx, target.Dir, step)
	defer func() {
		w.spans.EndSpanWithError(span, err)
		w.metrics.RecordCheckpoint(ctx, target.Family, cp.Size, err)
		if err != nil {
			observability.LogCheckpointError(w.logger, target.Dir, "save", err)
		}
	}()

	if step < 0 {
		return Checkpoint{}, fmt.Errorf("step count must be non-negative, got %d", step)
	}
	if payload == nil {
		return Checkpoint{}, errors.New("nil checkpoint payload")
	}

	if err := os.MkdirAll(target.Dir, 0o750); err != nil {
		return Checkpoint{}, fmt.Errorf("create run directory: %w", err)
	}

	final := filepath.Join(target.Dir, w.classifier.FileName(step))
	existing, dup, err := w.discovery.HasStep(target.Dir, step)
	if err != nil {
		return Checkpoint{}, err
	}
	if dup {
		return Checkpoint{}, &tlerrors.DuplicateStepError{Path: existing, StepCount: step}
	}

	tmpPath, size, err := writeTemp(target.Dir, payload)
	if err != nil {
		return Checkpoint{}, err
	}
	defer os.Remove(tmpPath)
	w.spans.AddSpanEvent(ctx, "temp_written", attribute.Int64("bytes", size))

	if err := publish(tmpPath, final); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return Checkpoint{}, &tlerrors.DuplicateStepError{Path: final, StepCount: step}
		}
		return Checkpoint{}, fmt.Errorf("publish checkpoint: %w", err)
	}

	info, err := os.Stat(final)
	if err != nil {
		return Checkpoint{}, fmt.Errorf("stat checkpoint: %w", err)
	}
	cp = Checkpoint{
		Path:      final,
		StepCount: step,
		ModTime:   info.ModTime(),
		Size:      info.Size(),
	}
	observability.LogCheckpointSaved(w.logger, final, step, cp.Size)
	return cp, nil
}

func writeTemp(dir string, payload io.WriterTo) (string, int64, error) {
	tmp, err := os.CreateTemp(dir, ".ckpt-*.tmp")
	if err != nil {
		return "", 0, fmt.Errorf("create temp checkpoint: %w", err)
	}
	tmpPath := tmp.Name()

	size, err := payload.WriteTo(tmp)
	if err == nil {
		err = tmp.Sync()
	}
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(tmpPath)
		return "", 0, fmt.Errorf("write temp checkpoint: %w", err)
	}
	return tmpPath, size, nil
}

// publish makes tmp visible at final without replacing an existing file.
// A hard link fails with fs.ErrExist if final appeared after the duplicate
// check; filesystems without hard links fall back to a checked rename.
func publish(tmp, final string) error {
	err := os.Link(tmp, final)
	if err == nil || errors.Is(err, fs.ErrExist) {
		return err
	}
	if _, statErr := os.Lstat(final); statErr == nil {
		return fs.ErrExist
	}
	return os.Rename(tmp, final)
}
