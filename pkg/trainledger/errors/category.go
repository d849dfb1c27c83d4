// Package errors defines the failure taxonomy of the run and checkpoint
// lifecycle and classifies errors by how a caller should react to them.
//
// The registry never retries: filesystem failures are not expected to be
// transient within an operator-driven training session.
package errors

import (
	"errors"
)

// Category represents how an error should be handled.
type Category int

const (
	// CategoryRecoverable is handled locally by falling back to a fresh run.
	// Examples: missing run, missing custom artifact path.
	CategoryRecoverable Category = iota

	// CategoryWarning is recovered locally but should be surfaced.
	// Examples: a run directory with no checkpoints, a reused run that
	// already holds checkpoints.
	CategoryWarning

	// CategoryCallerError is a process-discipline or programming error that
	// must be reported, never silently resolved.
	// Examples: numbering conflicts, duplicate step counts.
	CategoryCallerError

	// CategoryPropagate is passed to the caller unchanged.
	// Examples: permission errors, I/O errors, unloadable artifacts.
	CategoryPropagate
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryRecoverable:
		return "recoverable"
	case CategoryWarning:
		return "warning"
	case CategoryCallerError:
		return "caller_error"
	case CategoryPropagate:
		return "propagate"
	default:
		return "unknown"
	}
}

// Categorize determines how an error should be handled.
func Categorize(err error) Category {
	switch {
	case err == nil:
		return CategoryPropagate
	case errors.Is(err, ErrNumberingConflict), errors.Is(err, ErrDuplicateStep):
		return CategoryCallerError
	case errors.Is(err, ErrEmptyRun), errors.Is(err, ErrReusedRun):
		return CategoryWarning
	case errors.Is(err, ErrMalformedArtifact):
		return CategoryPropagate
	case errors.Is(err, ErrNotFound):
		return CategoryRecoverable
	default:
		return CategoryPropagate
	}
}

// IsRecoverable reports whether the lifecycle can fall back without the
// caller's involvement.
func IsRecoverable(err error) bool {
	cat := Categorize(err)
	return cat == CategoryRecoverable || cat == CategoryWarning
}
