// Package checkpoint discovers, ranks, and writes checkpoint artifacts.
//
// Artifacts live at <family root>/Run<N>/<step count><ext>. A checkpoint is
// immutable once written: the Writer never overwrites or truncates an
// existing artifact, and it publishes each file atomically so discovery
// never observes a partial write.
package checkpoint

import (
	"path/filepath"
	"time"
)

// NoStep marks a checkpoint whose file name carries no step count.
const NoStep int64 = -1

// Checkpoint describes one artifact found on disk.
type Checkpoint struct {
	// Path is the artifact path as discovered (root-relative roots give
	// relative paths).
	Path string

	// StepCount is the cumulative training progress parsed from the file
	// name, or NoStep.
	StepCount int64

	// ModTime is the filesystem modification time.
	ModTime time.Time

	// Size is the artifact size in bytes.
	Size int64
}

// HasStep reports whether the step count was parsed from the file name.
func (c Checkpoint) HasStep() bool {
	return c.StepCount >= 0
}

// Dir returns the directory holding the artifact.
func (c Checkpoint) Dir() string {
	return filepath.Dir(c.Path)
}

// Target identifies the run directory a checkpoint is written into.
type Target struct {
	Family string
	Dir    string
}
