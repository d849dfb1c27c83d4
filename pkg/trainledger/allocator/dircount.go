package allocator

import (
	"fmt"

	"github.com/randalmurphal/trainledger/pkg/trainledger/storage"
)

// DirCount allocates count(subdirectories of Root) + 1.
type DirCount struct {
	Family string
	Root   string
	Lister storage.Lister
}

var _ Allocator = (*DirCount)(nil)

// NewDirCount creates a directory-count allocator over the real filesystem.
func NewDirCount(family, root string) *DirCount {
	return &DirCount{Family: family, Root: root, Lister: storage.OS{}}
}

// Next implements Allocator. A missing root counts as zero runs.
func (d *DirCount) Next() (int, error) {
	dirs, err := storage.Subdirs(d.lister(), d.Root)
	if err != nil {
		return 0, fmt.Errorf("list %s: %w", d.Root, err)
	}
	next := len(dirs) + 1
	if err := checkFree(d.lister(), d.Family, d.Root, next, StrategyDirCount); err != nil {
		return 0, err
	}
	return next, nil
}

// Strategy implements Allocator.
func (d *DirCount) Strategy() Strategy { return StrategyDirCount }

func (d *DirCount) lister() storage.Lister {
	if d.Lister == nil {
		return storage.OS{}
	}
	return d.Lister
}
