package registry

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"sort"

	"github.com/randalmurphal/trainledger/pkg/trainledger/allocator"
	"github.com/randalmurphal/trainledger/pkg/trainledger/checkpoint"
	tlerrors "github.com/randalmurphal/trainledger/pkg/trainledger/errors"
	"github.com/randalmurphal/trainledger/pkg/trainledger/family"
	"github.com/randalmurphal/trainledger/pkg/trainledger/observability"
	"github.com/randalmurphal/trainledger/pkg/trainledger/runid"
	"github.com/randalmurphal/trainledger/pkg/trainledger/storage"
)

// ErrUnknownFamily indicates a family the registry was not configured with.
var ErrUnknownFamily = errors.New("family not configured")

// FamilySpec configures one family.
type FamilySpec struct {
	// Root is the directory holding the family's Run<N> directories.
	Root string

	// Allocator numbers new runs. Nil means a DirCount allocator over Root.
	Allocator allocator.Allocator
}

// Registry maps model families to their runs. It caches nothing: every
// call re-reads the filesystem.
type Registry struct {
	families  map[family.Family]FamilySpec
	lister    storage.Lister
	discovery *checkpoint.Discovery
	logger    *slog.Logger
	metrics   observability.MetricsRecorder
}

// Option configures a Registry.
type Option func(*Registry)

// WithLister replaces the filesystem used for listing runs and checkpoints.
func WithLister(l storage.Lister) Option {
	return func(r *Registry) {
		if l != nil {
			r.lister = l
		}
	}
}

// WithClassifier sets how checkpoint artifacts are recognized.
func WithClassifier(c *checkpoint.Classifier) Option {
	return func(r *Registry) {
		if c != nil {
			r.discovery.Classifier = c
		}
	}
}

// WithLogger sets the logger. Default: no logging.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) {
		r.logger = logger
	}
}

// WithMetrics sets the metrics recorder. Default: NoopMetrics.
func WithMetrics(m observability.MetricsRecorder) Option {
	return func(r *Registry) {
		if m != nil {
			r.metrics = m
		}
	}
}

// New creates a registry for the given families. Roots are taken as given;
// nothing is created on disk.
func New(families map[family.Family]FamilySpec, opts ...Option) (*Registry, error) {
	if len(families) == 0 {
		return nil, errors.New("registry needs at least one family")
	}

	r := &Registry{
		families:  make(map[family.Family]FamilySpec, len(families)),
		lister:    storage.OS{},
		discovery: checkpoint.NewDiscovery(nil),
		metrics:   observability.NoopMetrics{},
	}
	for _, opt := range opts {
		opt(r)
	}
	r.discovery.Lister = r.lister

	for f, spec := range families {
		if !f.Valid() {
			return nil, fmt.Errorf("invalid family %s", f)
		}
		if spec.Root == "" {
			return nil, fmt.Errorf("family %s: empty root", f)
		}
		if spec.Allocator == nil {
			spec.Allocator = &allocator.DirCount{Family: f.String(), Root: spec.Root, Lister: r.lister}
		}
		r.families[f] = spec
	}
	return r, nil
}

// Families returns the configured families in menu order.
func (r *Registry) Families() []family.Family {
	var out []family.Family
	for _, f := range family.All {
		if _, ok := r.families[f]; ok {
			out = append(out, f)
		}
	}
	return out
}

// Root returns the root directory of a family.
func (r *Registry) Root(f family.Family) (string, error) {
	spec, ok := r.families[f]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownFamily, f)
	}
	return spec.Root, nil
}

// Strategy returns the numbering strategy configured for a family.
func (r *Registry) Strategy(f family.Family) (allocator.Strategy, error) {
	spec, ok := r.families[f]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownFamily, f)
	}
	return spec.Allocator.Strategy(), nil
}

// ListRuns returns every directory under the family root as a Run, ordered
// by identifier. Directories whose name is not a canonical run name are
// included with Known=false and ID 0 after the identified runs.
func (r *Registry) ListRuns(f family.Family) ([]Run, error) {
	root, err := r.Root(f)
	if err != nil {
		return nil, err
	}
	names, err := storage.Subdirs(r.lister, root)
	if err != nil {
		return nil, fmt.Errorf("list runs of %s: %w", f, err)
	}

	runs := make([]Run, 0, len(names))
	for _, name := range names {
		// Only the canonical spelling is addressable by Resolve, so "Run007"
		// is listed but not known.
		id, ok := runid.Decode(name)
		if !ok || !runid.IsCanonical(name) {
			observability.LogUnknownRunID(r.logger, name)
			id, ok = 0, false
		}
		runs = append(runs, Run{
			Family: f,
			ID:     id,
			Dir:    filepath.Join(root, name),
			Known:  ok,
		})
	}

	sort.SliceStable(runs, func(i, j int) bool {
		if runs[i].Known != runs[j].Known {
			return runs[i].Known
		}
		if runs[i].ID != runs[j].ID {
			return runs[i].ID < runs[j].ID
		}
		return runs[i].Dir < runs[j].Dir
	})
	return runs, nil
}

// Resolve returns the run with the given identifier. A missing run
// directory yields an error wrapping tlerrors.ErrNotFound.
func (r *Registry) Resolve(f family.Family, id int) (Run, error) {
	root, err := r.Root(f)
	if err != nil {
		return Run{}, err
	}
	if !runid.Valid(id) {
		return Run{}, fmt.Errorf("%w: invalid run identifier %d", tlerrors.ErrNotFound, id)
	}

	dir := filepath.Join(root, runid.Encode(id))
	info, err := r.lister.Stat(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return Run{}, fmt.Errorf("%w: %s run %d", tlerrors.ErrNotFound, f, id)
	}
	if err != nil {
		return Run{}, fmt.Errorf("stat %s: %w", dir, err)
	}
	if !info.IsDir() {
		return Run{}, fmt.Errorf("%w: %s is not a directory", tlerrors.ErrNotFound, dir)
	}
	return Run{Family: f, ID: id, Dir: dir, Known: true}, nil
}

// Create allocates the next identifier for a family and returns the run.
// The directory is not created.
func (r *Registry) Create(ctx context.Context, f family.Family) (Run, error) {
	spec, ok := r.families[f]
	if !ok {
		return Run{}, fmt.Errorf("%w: %s", ErrUnknownFamily, f)
	}
	id, err := spec.Allocator.Next()
	if err != nil {
		return Run{}, fmt.Errorf("allocate %s run: %w", f, err)
	}

	strategy := string(spec.Allocator.Strategy())
	observability.LogRunAllocated(r.logger, f.String(), id, strategy)
	r.metrics.RecordRunAllocated(ctx, f.String(), strategy)

	return Run{
		Family: f,
		ID:     id,
		Dir:    filepath.Join(spec.Root, runid.Encode(id)),
		Known:  true,
	}, nil
}

// Checkpoints lists a run's artifacts, oldest first.
func (r *Registry) Checkpoints(run Run) ([]checkpoint.Checkpoint, error) {
	return r.discovery.List(run.Dir)
}

// Latest returns a run's newest artifact, or nil if it has none.
func (r *Registry) Latest(run Run) (*checkpoint.Checkpoint, error) {
	return r.discovery.Latest(run.Dir)
}

// TopN returns the n most recently modified artifacts across all runs of a
// family.
func (r *Registry) TopN(f family.Family, n int) ([]checkpoint.Checkpoint, error) {
	root, err := r.Root(f)
	if err != nil {
		return nil, err
	}
	return r.discovery.TopN(root, n)
}

// Classifier returns the artifact classifier in use.
func (r *Registry) Classifier() *checkpoint.Classifier {
	return r.discovery.Classifier
}

// Lister returns the filesystem the registry reads.
func (r *Registry) Lister() storage.Lister {
	return r.lister
}
