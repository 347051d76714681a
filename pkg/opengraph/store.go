package opengraph

import (
	"context"
	"sync"
	"time"
)

// Store persists the whole metadata cache. Implementations never fail the
// caller: Load degrades to an empty Cache and Save logs and gives up.
type Store interface {
	Load(ctx context.Context) Cache
	Save(ctx context.Context, cache Cache)
}

// IsFresh reports whether data was fetched less than ttl before now
func IsFresh(data Metadata, ttl time.Duration, now time.Time) bool {
	if data.FetchedAt.IsZero() {
		return false
	}
	return now.Sub(data.FetchedAt) < ttl
}

// MemoryStore keeps the cache in memory. Useful for tests and dry runs.
type MemoryStore struct {
	mu    sync.Mutex
	cache Cache
	loads int
	saves int
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{cache: Cache{}}
}

// Load implements Store
func (m *MemoryStore) Load(_ context.Context) Cache {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loads++
	return m.cache.Clone()
}

// Save implements Store
func (m *MemoryStore) Save(_ context.Context, cache Cache) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves++
	m.cache = cache.Clone()
}

// Counts returns how many times Load and Save were called
func (m *MemoryStore) Counts() (loads, saves int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loads, m.saves
}
