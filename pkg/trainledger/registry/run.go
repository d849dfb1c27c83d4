package registry

import (
	"path/filepath"

	"github.com/randalmurphal/trainledger/pkg/trainledger/checkpoint"
	"github.com/randalmurphal/trainledger/pkg/trainledger/family"
)

// Run is one training lineage rooted at <family root>/Run<ID>.
// A Run returned by Create has no directory yet; the first checkpoint
// write materializes it.
type Run struct {
	Family family.Family
	ID     int
	Dir    string

	// Known is false when the directory name carries no run token and ID
	// is only the placeholder runid.DefaultID.
	Known bool
}

// Name returns the directory name of the run.
func (r Run) Name() string {
	return filepath.Base(r.Dir)
}

// Target returns where checkpoints of this run are written.
func (r Run) Target() checkpoint.Target {
	return checkpoint.Target{Family: r.Family.String(), Dir: r.Dir}
}
