// Package lifecycle decides whether a training session starts a fresh run,
// resumes a run from the registry, or loads an external checkpoint.
//
// Resolve is a pure decision over the filesystem: it reads run directories
// and checkpoints but writes nothing. Interactive prompting belongs to the
// caller, which supplies the resume flag, a Selector, and an optional
// custom checkpoint path.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/randalmurphal/trainledger/pkg/trainledger/checkpoint"
	tlerrors "github.com/randalmurphal/trainledger/pkg/trainledger/errors"
	"github.com/randalmurphal/trainledger/pkg/trainledger/family"
	"github.com/randalmurphal/trainledger/pkg/trainledger/observability"
	"github.com/randalmurphal/trainledger/pkg/trainledger/registry"
	"github.com/randalmurphal/trainledger/pkg/trainledger/runid"
	"github.com/randalmurphal/trainledger/pkg/trainledger/storage"
)

// Runs is the part of the run registry the controller needs.
type Runs interface {
	Root(f family.Family) (string, error)
	ListRuns(f family.Family) ([]registry.Run, error)
	Create(ctx context.Context, f family.Family) (registry.Run, error)
	Latest(run registry.Run) (*checkpoint.Checkpoint, error)
}

var _ Runs = (*registry.Registry)(nil)

// Request is the caller's intent.
type Request struct {
	Family family.Family

	// Resume asks to continue from an existing checkpoint.
	Resume bool

	// Select picks a run when runs exist. Nil means SelectNewest.
	Select Selector

	// CustomPath is an external checkpoint offered when the family has no
	// runs. It is ignored otherwise.
	CustomPath string
}

// RunContext is a resolved, ready-to-use decision.
type RunContext struct {
	// SessionID correlates log lines of one resolution.
	SessionID string

	// Run is the run that subsequent checkpoints are written to.
	Run registry.Run

	// Checkpoint is the artifact to load, or nil to create a new learner.
	Checkpoint *checkpoint.Checkpoint

	// State is the branch that produced the decision: StateFresh,
	// StateResumeFromPath, or StateResumeFromRegistry.
	State State

	// Trail lists every state visited, starting with StateStart and ending
	// with StateResolved.
	Trail []State

	// Warnings are recovered conditions the caller should surface, such as
	// an empty selected run or an unusable custom path.
	Warnings []error
}

// Fresh reports whether the learner must be created from scratch.
func (rc RunContext) Fresh() bool {
	return rc.Checkpoint == nil
}

// StartStep is the step count training continues from.
func (rc RunContext) StartStep() int64 {
	if rc.Checkpoint == nil || !rc.Checkpoint.HasStep() {
		return 0
	}
	return rc.Checkpoint.StepCount
}

// Controller resolves run contexts.
type Controller struct {
	runs       Runs
	lister     storage.Lister
	classifier *checkpoint.Classifier
	policy     EmptyRunPolicy
	logger     *slog.Logger
	metrics    observability.MetricsRecorder
	spans      observability.SpanManager
	newID      func() string
}

// Option configures a Controller.
type Option func(*Controller)

// WithEmptyRunPolicy sets what happens when the selected run is empty.
// Default: EmptyRunReuseFirst.
func WithEmptyRunPolicy(p EmptyRunPolicy) Option {
	return func(c *Controller) {
		c.policy = p
	}
}

// WithLister sets the filesystem used to validate custom paths.
func WithLister(l storage.Lister) Option {
	return func(c *Controller) {
		if l != nil {
			c.lister = l
		}
	}
}

// WithClassifier sets how step counts are read from custom paths.
func WithClassifier(cl *checkpoint.Classifier) Option {
	return func(c *Controller) {
		if cl != nil {
			c.classifier = cl
		}
	}
}

// WithLogger sets the logger. Default: no logging.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		c.logger = logger
	}
}

// WithMetrics sets the metrics recorder. Default: NoopMetrics.
func WithMetrics(m observability.MetricsRecorder) Option {
	return func(c *Controller) {
		if m != nil {
			c.metrics = m
		}
	}
}

// WithSpans sets the span manager. Default: NoopSpanManager.
func WithSpans(s observability.SpanManager) Option {
	return func(c *Controller) {
		if s != nil {
			c.spans = s
		}
	}
}

// New creates a controller over a run registry.
func New(runs Runs, opts ...Option) *Controller {
	c := &Controller{
		runs:       runs,
		lister:     storage.OS{},
		classifier: checkpoint.DefaultClassifier(),
		policy:     EmptyRunReuseFirst,
		metrics:    observability.NoopMetrics{},
		spans:      observability.NoopSpanManager{},
		newID:      func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// resolution accumulates one pass through the state machine.
type resolution struct {
	rc     RunContext
	logger *slog.Logger
}

func (r *resolution) enter(s State) {
	r.rc.Trail = append(r.rc.Trail, s)
}

func (r *resolution) warn(err error) {
	r.rc.Warnings = append(r.rc.Warnings, err)
}

// Resolve runs the decision procedure for one request.
func (c *Controller) Resolve(ctx context.Context, req Request) (rc RunContext, err error) {
	ctx, span := c.spans.StartResolveSpan(ctx, req.Family.String(), req.Resume)
	done := observability.TimedOperation()
	defer func() {
		c.spans.EndSpanWithError(span, err)
		if err == nil {
			c.metrics.RecordResolution(ctx, req.Family.String(), rc.State.String(), done())
		}
	}()

	sessionID := c.newID()
	res := &resolution{
		rc:     RunContext{SessionID: sessionID, Trail: []State{StateStart}},
		logger: observability.EnrichLogger(c.logger, sessionID, req.Family.String()),
	}

	if req.Resume {
		err = c.resume(ctx, res, req)
	} else {
		err = c.fresh(ctx, res, req.Family)
	}
	if err != nil {
		return RunContext{}, err
	}

	res.enter(StateResolved)
	cpPath := ""
	if res.rc.Checkpoint != nil {
		cpPath = res.rc.Checkpoint.Path
	}
	observability.LogResolved(res.logger, res.rc.State.String(), res.rc.Run.ID, cpPath)
	return res.rc, nil
}

// fresh allocates a new run.
func (c *Controller) fresh(ctx context.Context, res *resolution, f family.Family) error {
	res.enter(StateFresh)
	run, err := c.runs.Create(ctx, f)
	if err != nil {
		return err
	}
	res.rc.Run = run
	res.rc.State = StateFresh
	return nil
}

func (c *Controller) resume(ctx context.Context, res *resolution, req Request) error {
	runs, err := c.runs.ListRuns(req.Family)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		return c.fallback(ctx, res, req)
	}

	res.enter(StateResumeFromRegistry)
	sel := req.Select
	if sel == nil {
		sel = SelectNewest()
	}
	run, err := sel(runs)
	if err != nil {
		if !tlerrors.IsRecoverable(err) {
			return fmt.Errorf("select run: %w", err)
		}
		res.warn(err)
		res.enter(StateFallback)
		return c.fresh(ctx, res, req.Family)
	}
	if !run.Known {
		observability.LogUnknownRunID(res.logger, run.Name())
	}

	latest, err := c.runs.Latest(run)
	if err != nil {
		return err
	}
	if latest != nil {
		res.rc.Run = run
		res.rc.Checkpoint = latest
		res.rc.State = StateResumeFromRegistry
		return nil
	}

	// Degenerate: the run directory exists but holds no artifacts.
	res.warn(&tlerrors.EmptyRunError{Dir: run.Dir})
	res.enter(StateFallback)
	if c.policy == EmptyRunAllocate {
		if err := c.fresh(ctx, res, req.Family); err != nil {
			return err
		}
		observability.LogEmptyRun(res.logger, run.Dir, res.rc.Run.ID)
		return nil
	}

	root, err := c.runs.Root(req.Family)
	if err != nil {
		return err
	}
	res.enter(StateFresh)
	res.rc.Run = registry.Run{
		Family: req.Family,
		ID:     runid.DefaultID,
		Dir:    filepath.Join(root, runid.Encode(runid.DefaultID)),
		Known:  true,
	}
	res.rc.State = StateFresh
	observability.LogEmptyRun(res.logger, run.Dir, runid.DefaultID)

	// The reused run may be populated; its step counts restart at zero.
	if res.rc.Run.Dir == run.Dir {
		return nil
	}
	prior, err := c.runs.Latest(res.rc.Run)
	if err != nil {
		return err
	}
	if prior != nil {
		res.warn(&tlerrors.ReusedRunError{Dir: res.rc.Run.Dir, LatestStep: prior.StepCount})
		observability.LogReusedRun(res.logger, res.rc.Run.Dir, prior.StepCount)
	}
	return nil
}

// fallback handles a resume request for a family with no runs.
func (c *Controller) fallback(ctx context.Context, res *resolution, req Request) error {
	res.enter(StateFallback)

	if req.CustomPath == "" {
		return c.fresh(ctx, res, req.Family)
	}

	cp, err := c.inspect(req.CustomPath)
	if err != nil {
		if tlerrors.IsRecoverable(err) {
			res.warn(err)
			observability.LogCustomPathRejected(res.logger, req.CustomPath, err)
			return c.fresh(ctx, res, req.Family)
		}
		return err
	}

	res.enter(StateResumeFromPath)
	run, err := c.runs.Create(ctx, req.Family)
	if err != nil {
		return err
	}
	res.rc.Run = run
	res.rc.Checkpoint = cp
	res.rc.State = StateResumeFromPath
	return nil
}

// inspect validates an external artifact path. Missing paths and
// directories are ErrNotFound; other stat failures propagate.
func (c *Controller) inspect(path string) (*checkpoint.Checkpoint, error) {
	info, err := c.lister.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: custom checkpoint %s", tlerrors.ErrNotFound, path)
	}
	if err != nil {
		return nil, fmt.Errorf("stat custom checkpoint: %w", err)
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%w: custom checkpoint %s is not a regular file", tlerrors.ErrNotFound, path)
	}
	step, _ := c.classifier.StepCount(path)
	return &checkpoint.Checkpoint{
		Path:      path,
		StepCount: step,
		ModTime:   info.ModTime(),
		Size:      info.Size(),
	}, nil
}
