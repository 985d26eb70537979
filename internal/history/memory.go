package history

import (
	"context"
	"sync"
	"time"
)

// DefaultMemorySize is the number of records a MemoryStore keeps.
const DefaultMemorySize = 500

// MemoryStore keeps the most recent records in a fixed-size ring.
// Older records are overwritten once the ring is full.
type MemoryStore struct {
	mu    sync.RWMutex
	ring  []Record
	next  int
	count int
}

// NewMemoryStore creates a store holding at most size records.
func NewMemoryStore(size int) *MemoryStore {
	if size <= 0 {
		size = DefaultMemorySize
	}
	return &MemoryStore{ring: make([]Record, size)}
}

func (m *MemoryStore) Add(_ context.Context, rec Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.ring[m.next] = rec
	m.next = (m.next + 1) % len(m.ring)
	if m.count < len(m.ring) {
		m.count++
	}
	return nil
}

func (m *MemoryStore) Recent(_ context.Context, limit int) ([]Record, error) {
	limit = ClampLimit(limit)

	m.mu.RLock()
	defer m.mu.RUnlock()

	n := min(limit, m.count)
	out := make([]Record, 0, n)
	for i := 0; i < n; i++ {
		idx := (m.next - 1 - i + len(m.ring)) % len(m.ring)
		out = append(out, m.ring[idx])
	}
	return out, nil
}

func (m *MemoryStore) Prune(_ context.Context, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Rebuild oldest to newest, keeping what survives.
	kept := make([]Record, 0, m.count)
	for i := m.count; i > 0; i-- {
		rec := m.ring[(m.next-i+len(m.ring))%len(m.ring)]
		if !rec.CreatedAt.Before(cutoff) {
			kept = append(kept, rec)
		}
	}

	removed := int64(m.count - len(kept))
	clear(m.ring)
	copy(m.ring, kept)
	m.count = len(kept)
	m.next = len(kept) % len(m.ring)
	return removed, nil
}

// Len returns the number of records held.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.count
}
