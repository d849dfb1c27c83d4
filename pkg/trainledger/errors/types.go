package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for the run and checkpoint lifecycle.
var (
	// ErrNotFound indicates a run identifier or artifact path does not exist.
	ErrNotFound = errors.New("not found")

	// ErrEmptyRun indicates a run directory holds no checkpoint artifacts.
	ErrEmptyRun = errors.New("run has no checkpoints")

	// ErrNumberingConflict indicates an allocated identifier is already taken.
	ErrNumberingConflict = errors.New("run numbering conflict")

	// ErrDuplicateStep indicates a checkpoint already exists at a step count.
	ErrDuplicateStep = errors.New("duplicate checkpoint step count")

	// ErrReusedRun indicates a fresh session was pointed at a run that
	// already holds checkpoints.
	ErrReusedRun = errors.New("reused run already has checkpoints")

	// ErrMalformedArtifact indicates a checkpoint artifact could not be loaded.
	ErrMalformedArtifact = errors.New("malformed checkpoint artifact")
)

// NumberingConflictError reports an allocation that would reuse an existing
// run directory.
type NumberingConflictError struct {
	Family   string
	ID       int
	Dir      string
	Strategy string
}

// Error implements the error interface.
func (e *NumberingConflictError) Error() string {
	return fmt.Sprintf("%s allocator for %s returned run %d but %s already exists",
		e.Strategy, e.Family, e.ID, e.Dir)
}

// Unwrap returns ErrNumberingConflict for errors.Is support.
func (e *NumberingConflictError) Unwrap() error {
	return ErrNumberingConflict
}

// DuplicateStepError reports a save at a step count already present in a run.
type DuplicateStepError struct {
	Path      string
	StepCount int64
}

// Error implements the error interface.
func (e *DuplicateStepError) Error() string {
	return fmt.Sprintf("checkpoint at step %d already exists: %s", e.StepCount, e.Path)
}

// Unwrap returns ErrDuplicateStep for errors.Is support.
func (e *DuplicateStepError) Unwrap() error {
	return ErrDuplicateStep
}

// EmptyRunError reports a selected run that has a directory but no artifacts.
type EmptyRunError struct {
	Dir string
}

// Error implements the error interface.
func (e *EmptyRunError) Error() string {
	return fmt.Sprintf("no checkpoints found in %s", e.Dir)
}

// Unwrap returns ErrEmptyRun for errors.Is support.
func (e *EmptyRunError) Unwrap() error {
	return ErrEmptyRun
}

// ReusedRunError reports that an empty-run fallback reused a run directory
// whose existing checkpoints the new session's saves will overwrite.
type ReusedRunError struct {
	Dir        string
	LatestStep int64
}

// Error implements the error interface.
func (e *ReusedRunError) Error() string {
	return fmt.Sprintf("reusing %s, which already holds checkpoints up to step %d; saves at those step counts will overwrite them",
		e.Dir, e.LatestStep)
}

// Unwrap returns ErrReusedRun for errors.Is support.
func (e *ReusedRunError) Unwrap() error {
	return ErrReusedRun
}

// MalformedArtifactError wraps a learner failure to load an artifact.
type MalformedArtifactError struct {
	Path string
	Err  error
}

// Error implements the error interface.
func (e *MalformedArtifactError) Error() string {
	return fmt.Sprintf("load checkpoint %s: %v", e.Path, e.Err)
}

// Unwrap returns the underlying load error.
func (e *MalformedArtifactError) Unwrap() error {
	return e.Err
}

// Is reports ErrMalformedArtifact as a match so callers need not unwrap
// the learner's own error chain.
func (e *MalformedArtifactError) Is(target error) bool {
	return target == ErrMalformedArtifact
}
