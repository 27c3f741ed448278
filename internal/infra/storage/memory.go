package storage

import (
	"context"
	"sync"
)

// MemoryBestTimeStore keeps the best time in process memory. It backs the
// headless simulator and servers started without persistence.
type MemoryBestTimeStore struct {
	mu   sync.Mutex
	best float64
}

func NewMemoryBestTimeStore(initial float64) *MemoryBestTimeStore {
	return &MemoryBestTimeStore{best: initial}
}

func (m *MemoryBestTimeStore) ReadBestTime(ctx context.Context) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.best, nil
}

func (m *MemoryBestTimeStore) WriteBestTime(ctx context.Context, seconds float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.best = seconds
	return nil
}
