package lifecycle

import (
	"fmt"

	tlerrors "github.com/randalmurphal/trainledger/pkg/trainledger/errors"
	"github.com/randalmurphal/trainledger/pkg/trainledger/registry"
)

// Selector picks the run to resume from the runs currently on disk.
// runs is never empty. Returning an error wrapping tlerrors.ErrNotFound
// makes the controller fall back to a fresh run; any other error aborts.
type Selector func(runs []registry.Run) (registry.Run, error)

// SelectByID selects the run with identifier id.
func SelectByID(id int) Selector {
	return func(runs []registry.Run) (registry.Run, error) {
		for _, r := range runs {
			if r.Known && r.ID == id {
				return r, nil
			}
		}
		return registry.Run{}, fmt.Errorf("%w: run %d", tlerrors.ErrNotFound, id)
	}
}

// SelectByIndex selects the run at a 1-based position of the listing, as a
// numbered menu would present it.
func SelectByIndex(n int) Selector {
	return func(runs []registry.Run) (registry.Run, error) {
		if n < 1 || n > len(runs) {
			return registry.Run{}, fmt.Errorf("%w: choice %d of %d runs", tlerrors.ErrNotFound, n, len(runs))
		}
		return runs[n-1], nil
	}
}

// SelectNewest selects the identified run with the highest identifier,
// or the last listed run when none is identified.
func SelectNewest() Selector {
	return func(runs []registry.Run) (registry.Run, error) {
		best := runs[len(runs)-1]
		for _, r := range runs {
			if r.Known && (!best.Known || r.ID > best.ID) {
				best = r
			}
		}
		return best, nil
	}
}
