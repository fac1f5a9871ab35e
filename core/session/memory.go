package session

import (
	"context"
	"sync"
)

type memoryStore struct {
	mu      sync.RWMutex
	entries map[Key][]byte
}

// NewMemoryStore constructs an in-memory Store for tests and development.
// Entries are lost on restart.
func NewMemoryStore() Store {
	return &memoryStore{entries: make(map[Key][]byte)}
}

// Put stores a copy of data under key.
func (m *memoryStore) Put(_ context.Context, key Key, data []byte) error {
	cp := make([]byte, len(data))
	copy(cp, data)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = cp
	return nil
}

// Get returns a copy of the payload stored under key.
func (m *memoryStore) Get(_ context.Context, key Key) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.entries[key]
	if !ok {
		return nil, false, nil
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	return cp, true, nil
}

// Clear removes the entry for key if present.
func (m *memoryStore) Clear(_ context.Context, key Key) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
	return nil
}

func (m *memoryStore) Close() error { return nil }
