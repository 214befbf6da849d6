package checkpoint

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Memory is an in-process Store. It backs development runs and the
// degraded mode entered when the durable store is unavailable; everything
// in it is lost on restart.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry

	// now is swappable for expiry tests.
	now func() time.Time
}

type memoryEntry struct {
	state     []byte
	createdAt time.Time
	expiresAt time.Time
}

// NewMemory creates an empty in-process store.
func NewMemory() *Memory {
	return &Memory{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

// Put implements Store.
func (m *Memory) Put(_ context.Context, sessionID string, state []byte, ttl time.Duration) error {
	cp := make([]byte, len(state))
	copy(cp, state)

	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	m.entries[sessionID] = memoryEntry{
		state:     cp,
		createdAt: now,
		expiresAt: now.Add(ttl),
	}
	return nil
}

// Get implements Store.
func (m *Memory) Get(_ context.Context, sessionID string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.entries[sessionID]
	if !ok || !m.now().Before(e.expiresAt) {
		return nil, ErrNotFound
	}
	cp := make([]byte, len(e.state))
	copy(cp, e.state)
	return cp, nil
}

// ListActive implements Store. Ids come back in checkpoint creation order,
// like the SQLite store.
func (m *Memory) ListActive(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	now := m.now()
	ids := make([]string, 0, len(m.entries))
	for id, e := range m.entries {
		if now.Before(e.expiresAt) {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool {
		return m.entries[ids[i]].createdAt.Before(m.entries[ids[j]].createdAt)
	})
	return ids, nil
}

// TTLRemaining implements TTLReporter.
func (m *Memory) TTLRemaining(_ context.Context, sessionID string) (time.Duration, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.entries[sessionID]
	if !ok {
		return 0, ErrNotFound
	}
	remaining := e.expiresAt.Sub(m.now())
	if remaining <= 0 {
		return 0, ErrNotFound
	}
	return remaining, nil
}

// Close implements Store.
func (m *Memory) Close() error { return nil }
