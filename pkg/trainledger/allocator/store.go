package allocator

import (
	"errors"
	"fmt"
	"strings"
)

// CounterStore persists one integer counter per key.
// Implementations must be safe for concurrent use within a process; none
// of them lock across processes.
type CounterStore interface {
	// Load returns the current value for key, or 0 if it was never
	// incremented.
	Load(key string) (int, error)

	// Increment adds one to the counter for key, persists it, and returns
	// the new value.
	Increment(key string) (int, error)

	// Close releases any resources (connections, files).
	Close() error
}

// ErrStoreClosed indicates the store has been closed.
var ErrStoreClosed = errors.New("counter store closed")

// Backend names a CounterStore implementation.
type Backend string

const (
	BackendJSON   Backend = "json"
	BackendSQLite Backend = "sqlite"
	BackendMemory Backend = "memory"
)

// ParseBackend validates a backend name. Empty means BackendJSON.
func ParseBackend(s string) (Backend, error) {
	switch Backend(strings.ToLower(strings.TrimSpace(s))) {
	case "", BackendJSON:
		return BackendJSON, nil
	case BackendSQLite:
		return BackendSQLite, nil
	case BackendMemory:
		return BackendMemory, nil
	default:
		return "", fmt.Errorf("unknown counter backend %q", s)
	}
}
