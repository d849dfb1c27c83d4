// Package allocator hands out sequential run identifiers for a model family.
//
// Two strategies exist and exactly one must be used per family root:
//
//   - DirCount derives the next identifier from the number of run
//     directories already present. It never burns numbers but races with
//     any concurrent allocator on the same root.
//   - Counter keeps a persisted per-family counter that increases on every
//     allocation, whether or not the run is ever materialized.
//
// Both refuse to return an identifier whose run directory already exists.
package allocator

import (
	"fmt"
	"path/filepath"
	"strings"

	tlerrors "github.com/randalmurphal/trainledger/pkg/trainledger/errors"
	"github.com/randalmurphal/trainledger/pkg/trainledger/runid"
	"github.com/randalmurphal/trainledger/pkg/trainledger/storage"
)

// Strategy names a numbering strategy.
type Strategy string

const (
	// StrategyDirCount counts existing run directories.
	StrategyDirCount Strategy = "dircount"

	// StrategyCounter increments a persisted counter.
	StrategyCounter Strategy = "counter"
)

// ParseStrategy validates a strategy name. Empty means StrategyDirCount.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(strings.ToLower(strings.TrimSpace(s))) {
	case "", StrategyDirCount:
		return StrategyDirCount, nil
	case StrategyCounter:
		return StrategyCounter, nil
	default:
		return "", fmt.Errorf("unknown numbering strategy %q", s)
	}
}

// Allocator returns the next run identifier for one family root.
type Allocator interface {
	// Next returns the identifier the next run should use. Callers must
	// materialize the run directory before allocating again.
	Next() (int, error)

	// Strategy reports which numbering strategy the allocator uses.
	Strategy() Strategy
}

// checkFree returns a NumberingConflictError if root/Run<id> exists.
func checkFree(l storage.Lister, family, root string, id int, strategy Strategy) error {
	dir := filepath.Join(root, runid.Encode(id))
	exists, err := storage.Exists(l, dir)
	if err != nil {
		return fmt.Errorf("stat %s: %w", dir, err)
	}
	if exists {
		return &tlerrors.NumberingConflictError{
			Family:   family,
			ID:       id,
			Dir:      dir,
			Strategy: string(strategy),
		}
	}
	return nil
}
