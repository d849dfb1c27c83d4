package allocator

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// JSONFileStore keeps each counter in <Dir>/<key>_runs.json as
// {"run_number": N}. The file is rewritten in full on every increment.
type JSONFileStore struct {
	dir    string
	mu     sync.Mutex
	closed bool
}

type counterRecord struct {
	RunNumber int `json:"run_number"`
}

// NewJSONFileStore creates a store rooted at dir. The directory is created
// on the first increment, not here.
func NewJSONFileStore(dir string) *JSONFileStore {
	return &JSONFileStore{dir: dir}
}

// Path returns the record file for key.
func (s *JSONFileStore) Path(key string) string {
	return filepath.Join(s.dir, key+"_runs.json")
}

// Load implements CounterStore.
func (s *JSONFileStore) Load(key string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, ErrStoreClosed
	}
	return s.read(key)
}

// Increment implements CounterStore.
func (s *JSONFileStore) Increment(key string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, ErrStoreClosed
	}

	current, err := s.read(key)
	if err != nil {
		return 0, err
	}
	next := current + 1
	if err := s.write(key, next); err != nil {
		return 0, err
	}
	return next, nil
}

// Close implements CounterStore.
func (s *JSONFileStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	return nil
}

func (s *JSONFileStore) read(key string) (int, error) {
	data, err := os.ReadFile(s.Path(key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, nil
		}
		return 0, fmt.Errorf("read counter file: %w", err)
	}
	var rec counterRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return 0, fmt.Errorf("decode counter file %s: %w", s.Path(key), err)
	}
	if rec.RunNumber < 0 {
		return 0, fmt.Errorf("counter file %s holds negative value %d", s.Path(key), rec.RunNumber)
	}
	return rec.RunNumber, nil
}

func (s *JSONFileStore) write(key string, value int) error {
	if err := os.MkdirAll(s.dir, 0o750); err != nil {
		return fmt.Errorf("create counter directory: %w", err)
	}

	data, err := json.MarshalIndent(counterRecord{RunNumber: value}, "", "  ")
	if err != nil {
		return fmt.Errorf("encode counter: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, "."+key+"_runs-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp counter file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write temp counter file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close temp counter file: %w", err)
	}

	// Atomic rename
	if err := os.Rename(tmpPath, s.Path(key)); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename counter file: %w", err)
	}
	return nil
}
