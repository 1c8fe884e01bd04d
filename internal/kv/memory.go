// internal/kv/memory.go
package kv

import (
	"context"
	"sync"
)

// memory implements the Store interface with a mutex-guarded map.
// It's intended for development and testing purposes.
type memory struct {
	mu    sync.RWMutex
	slots map[string]string
}

// NewMemory creates a new in-memory store implementation.
func NewMemory() Store {
	return &memory{slots: make(map[string]string)}
}

func (m *memory) Get(ctx context.Context, slot string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	value, exists := m.slots[slot]
	if !exists {
		return "", ErrNotFound
	}
	return value, nil
}

func (m *memory) Set(ctx context.Context, slot, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.slots[slot] = value
	return nil
}

func (m *memory) Delete(ctx context.Context, slot string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.slots, slot)
	return nil
}
