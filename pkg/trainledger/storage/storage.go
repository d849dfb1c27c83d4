// Package storage abstracts the read-only directory listing used to discover
// runs and checkpoints, so discovery can run against a real filesystem or an
// in-memory fixture.
package storage

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
)

// Lister lists directories and stats files by OS-style path.
type Lister interface {
	// ReadDir returns the entries of a directory sorted by name.
	ReadDir(name string) ([]fs.DirEntry, error)

	// Stat returns file info for a path.
	Stat(name string) (fs.FileInfo, error)
}

// OS lists the real filesystem.
type OS struct{}

var _ Lister = OS{}

// ReadDir implements Lister.
func (OS) ReadDir(name string) ([]fs.DirEntry, error) { return os.ReadDir(name) }

// Stat implements Lister.
func (OS) Stat(name string) (fs.FileInfo, error) { return os.Stat(name) }

// FromFS adapts an fs.FS (such as fstest.MapFS) to a Lister.
// Paths must be relative; they are converted to slash form before lookup.
func FromFS(fsys fs.FS) Lister {
	return fsLister{fsys: fsys}
}

type fsLister struct {
	fsys fs.FS
}

func (l fsLister) ReadDir(name string) ([]fs.DirEntry, error) {
	return fs.ReadDir(l.fsys, filepath.ToSlash(filepath.Clean(name)))
}

func (l fsLister) Stat(name string) (fs.FileInfo, error) {
	return fs.Stat(l.fsys, filepath.ToSlash(filepath.Clean(name)))
}

// Exists reports whether path exists. Errors other than "not exist"
// are returned unchanged.
func Exists(l Lister, path string) (bool, error) {
	_, err := l.Stat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, err
}

// Subdirs returns the names of the immediate subdirectories of dir.
// A missing dir yields no names and no error.
func Subdirs(l Lister, dir string) ([]string, error) {
	entries, err := l.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}
	return names, nil
}
