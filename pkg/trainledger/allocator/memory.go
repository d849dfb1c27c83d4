package allocator

import "sync"

// MemoryStore is an in-memory counter store for testing.
type MemoryStore struct {
	mu       sync.Mutex
	counters map[string]int
	closed   bool
}

// NewMemoryStore creates a new in-memory counter store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{counters: make(map[string]int)}
}

// Load implements CounterStore.
func (m *MemoryStore) Load(key string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return 0, ErrStoreClosed
	}
	return m.counters[key], nil
}

// Increment implements CounterStore.
func (m *MemoryStore) Increment(key string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return 0, ErrStoreClosed
	}
	m.counters[key]++
	return m.counters[key], nil
}

// Close implements CounterStore.
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true
	m.counters = nil
	return nil
}
