// Package storage defines the persistence boundary: an opaque string
// key-value blob store with last-write-wins semantics. The core serializes
// the snapshot store and settings to single values itself; no transactional
// behavior beyond one get or set is assumed.
package storage

import (
	"context"
	"sync"
)

// Blob is the opaque get/set persistence collaborator.
type Blob interface {
	// Get returns the value under key and whether it was present.
	Get(ctx context.Context, key string) (string, bool, error)

	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key string, value string) error

	Close() error
}

// Memory is an in-process Blob for tests and ephemeral runs.
type Memory struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemory creates an empty in-memory blob store.
func NewMemory() *Memory {
	return &Memory{values: make(map[string]string)}
}

// Get returns the value under key.
func (m *Memory) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	return v, ok, nil
}

// Set stores value under key.
func (m *Memory) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

// Close is a no-op for the in-memory store.
func (m *Memory) Close() error { return nil }
