package registry

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	pid       int
	expiresAt time.Time
}

// MemoryRegistry is an in-memory registry for tests and single-node
// development. Expiry is checked lazily on Get; there is no reaper
// goroutine, so forgotten entries cost one map slot until touched.
type MemoryRegistry struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	ttl     time.Duration
}

// NewMemoryRegistry creates an in-memory registry with the given TTL
func NewMemoryRegistry(ttl time.Duration) *MemoryRegistry {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemoryRegistry{
		entries: make(map[string]memoryEntry),
		ttl:     ttl,
	}
}

// Put inserts or overwrites the mapping for id and resets its TTL
func (m *MemoryRegistry) Put(ctx context.Context, id string, pid int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries[id] = memoryEntry{pid: pid, expiresAt: time.Now().Add(m.ttl)}
	return nil
}

// Get resolves id to a pid, or ErrNotFound
func (m *MemoryRegistry) Get(ctx context.Context, id string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.entries[id]
	if !ok {
		return 0, ErrNotFound
	}
	if time.Now().After(entry.expiresAt) {
		delete(m.entries, id)
		return 0, ErrNotFound
	}
	return entry.pid, nil
}

// Del removes the entry for id
func (m *MemoryRegistry) Del(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.entries, id)
	return nil
}

// Close is a no-op for the in-memory registry
func (m *MemoryRegistry) Close() error {
	return nil
}
