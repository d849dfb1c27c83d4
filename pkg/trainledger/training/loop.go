package training

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/randalmurphal/trainledger/pkg/trainledger/checkpoint"
	"github.com/randalmurphal/trainledger/pkg/trainledger/lifecycle"
	"github.com/randalmurphal/trainledger/pkg/trainledger/observability"
)

const (
	// DefaultUnit is the number of steps learned between checkpoints.
	DefaultUnit int64 = 3000

	// DefaultIterations is the number of learn-then-save iterations.
	DefaultIterations = 29
)

// InterruptedError reports a loop stopped by its context.
// Checkpoints written before the interruption remain valid.
type InterruptedError struct {
	// Iteration is the iteration that was about to run (1-based).
	Iteration int
	// LastStep is the step count of the last saved checkpoint, or the
	// starting step when nothing was saved.
	LastStep int64
	// Cause is context.Canceled or context.DeadlineExceeded.
	Cause error
}

// Error implements the error interface.
func (e *InterruptedError) Error() string {
	return fmt.Sprintf("training interrupted before iteration %d at step %d: %v", e.Iteration, e.LastStep, e.Cause)
}

// Unwrap returns the cause.
func (e *InterruptedError) Unwrap() error {
	return e.Cause
}

// Loop trains in fixed units and checkpoints after each.
type Loop struct {
	saver      Saver
	unit       int64
	iterations int
	logger     *slog.Logger
}

// LoopOption configures a Loop.
type LoopOption func(*Loop)

// WithUnit sets the steps per iteration. Non-positive values are ignored.
func WithUnit(unit int64) LoopOption {
	return func(l *Loop) {
		if unit > 0 {
			l.unit = unit
		}
	}
}

// WithIterations sets the iteration count. Non-positive values are ignored.
func WithIterations(n int) LoopOption {
	return func(l *Loop) {
		if n > 0 {
			l.iterations = n
		}
	}
}

// WithLogger sets the logger. Default: no logging.
func WithLogger(logger *slog.Logger) LoopOption {
	return func(l *Loop) {
		l.logger = logger
	}
}

// NewLoop creates a loop writing checkpoints through saver.
func NewLoop(saver Saver, opts ...LoopOption) *Loop {
	l := &Loop{
		saver:      saver,
		unit:       DefaultUnit,
		iterations: DefaultIterations,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Unit returns the steps per iteration.
func (l *Loop) Unit() int64 { return l.unit }

// Iterations returns the iteration count.
func (l *Loop) Iterations() int { return l.iterations }

// Run trains learner and saves a checkpoint after every unit of steps.
//
// Step counts continue from the run context's checkpoint, so iteration i is
// saved as StartStep + Unit*i and a resumed run never reuses one of its own
// step counts. The checkpoints written so far are returned even on error.
func (l *Loop) Run(ctx context.Context, rc lifecycle.RunContext, learner Learner, env Environment) ([]checkpoint.Checkpoint, error) {
	if learner == nil {
		return nil, errors.New("training loop needs a learner")
	}
	base := rc.StartStep()
	target := rc.Run.Target()
	logger := observability.EnrichLogger(l.logger, rc.SessionID, rc.Run.Family.String())
	observability.LogTrainingStart(logger, rc.Run.Dir, base, l.iterations)

	saved := make([]checkpoint.Checkpoint, 0, l.iterations)
	last := base
	for i := 1; i <= l.iterations; i++ {
		select {
		case <-ctx.Done():
			return saved, &InterruptedError{Iteration: i, LastStep: last, Cause: ctx.Err()}
		default:
		}

		start := time.Now()
		if err := learner.Learn(ctx, env, l.unit); err != nil {
			return saved, fmt.Errorf("learn iteration %d: %w", i, err)
		}

		step := base + l.unit*int64(i)
		cp, err := l.saver.Save(ctx, target, step, Payload(learner))
		if err != nil {
			return saved, fmt.Errorf("save iteration %d: %w", i, err)
		}
		saved = append(saved, cp)
		last = step
		observability.LogIterationComplete(logger, i, step, float64(time.Since(start).Milliseconds()))
	}
	return saved, nil
}
