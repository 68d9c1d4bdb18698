package repository

import (
	"context"
	"sync"
)

// MemoryStore is the in-process fallback. State lives only as long as the
// process does.
type MemoryStore struct {
	mu      sync.RWMutex
	payload []byte
	set     bool
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Load(ctx context.Context) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.set {
		return nil, nil
	}
	out := make([]byte, len(m.payload))
	copy(out, m.payload)
	return out, nil
}

func (m *MemoryStore) Save(ctx context.Context, payload []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.payload = make([]byte, len(payload))
	copy(m.payload, payload)
	m.set = true
	return nil
}

func (m *MemoryStore) Clear(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.payload = nil
	m.set = false
	return nil
}
