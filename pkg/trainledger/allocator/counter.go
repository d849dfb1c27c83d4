package allocator

import (
	"fmt"

	"github.com/randalmurphal/trainledger/pkg/trainledger/storage"
)

// Counter allocates by incrementing a persisted per-family counter.
// Numbers are burned when an allocation is never materialized.
type Counter struct {
	Family string
	Root   string
	Store  CounterStore
	Lister storage.Lister
}

var _ Allocator = (*Counter)(nil)

// NewCounter creates a counter allocator keyed by family.
func NewCounter(family, root string, store CounterStore) *Counter {
	return &Counter{Family: family, Root: root, Store: store, Lister: storage.OS{}}
}

// Next implements Allocator.
func (c *Counter) Next() (int, error) {
	next, err := c.Store.Increment(c.Family)
	if err != nil {
		return 0, fmt.Errorf("increment %s counter: %w", c.Family, err)
	}
	lister := c.Lister
	if lister == nil {
		lister = storage.OS{}
	}
	if err := checkFree(lister, c.Family, c.Root, next, StrategyCounter); err != nil {
		return 0, err
	}
	return next, nil
}

// Strategy implements Allocator.
func (c *Counter) Strategy() Strategy { return StrategyCounter }
