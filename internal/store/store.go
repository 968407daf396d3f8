// Package store keeps the ordered snapshot collection and the settings
// value, and moves both through the blob-store persistence boundary.
//
// The collection is newest-first by import order: index 0 is always the
// most recently added snapshot, even when its user-supplied date is earlier
// than existing ones. Consumers rely on this recency-of-import semantic.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/rumor-ml/commons.systems/adrecon/internal/domain"
	"github.com/rumor-ml/commons.systems/adrecon/internal/validate"
)

// Blob keys. Each value is one JSON document the store owns end to end.
const (
	KeySnapshots = "snapshots"
	KeySettings  = "settings"
)

// Blob is the subset of the storage collaborator the store needs.
type Blob interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key string, value string) error
}

// Store is the append-only snapshot collection. Snapshots are never
// mutated in place: operations add or remove whole snapshots only. The
// mutex exists for the HTTP server's sake; the core itself is synchronous.
type Store struct {
	mu    sync.RWMutex
	snaps []domain.Snapshot
}

// New creates an empty store.
func New() *Store {
	return &Store{}
}

// AddFront prepends a snapshot, making it the latest.
func (s *Store) AddFront(snap domain.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snaps = append([]domain.Snapshot{snap}, s.snaps...)
}

// Remove deletes the snapshot with the given ID.
func (s *Store) Remove(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, snap := range s.snaps {
		if snap.ID == id {
			s.snaps = append(s.snaps[:i], s.snaps[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("remove %s: %w", id, domain.ErrNotFound)
}

// Get returns the snapshot with the given ID.
func (s *Store) Get(id string) (domain.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, snap := range s.snaps {
		if snap.ID == id {
			return snap, nil
		}
	}
	return domain.Snapshot{}, fmt.Errorf("get %s: %w", id, domain.ErrNotFound)
}

// List returns a copy of the collection, newest-first.
func (s *Store) List() []domain.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.Snapshot(nil), s.snaps...)
}

// Latest returns the most recently added snapshot. "Latest" means index 0,
// never a date comparison.
func (s *Store) Latest() (domain.Snapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.snaps) == 0 {
		return domain.Snapshot{}, false
	}
	return s.snaps[0], true
}

// Len returns the number of snapshots.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.snaps)
}

// Load replaces the collection with the one persisted in the blob store.
// A missing value leaves the store empty. A value that deserializes but
// violates store invariants is rejected rather than silently adopted, so a
// corrupt data file cannot poison every later rollup.
func (s *Store) Load(ctx context.Context, blob Blob) error {
	value, ok, err := blob.Get(ctx, KeySnapshots)
	if err != nil {
		return fmt.Errorf("load snapshots: %w", err)
	}
	if !ok {
		return nil
	}

	var snaps []domain.Snapshot
	if err := json.Unmarshal([]byte(value), &snaps); err != nil {
		return fmt.Errorf("decode persisted snapshots: %w", err)
	}
	if err := validate.StoreInvariants(snaps); err != nil {
		return fmt.Errorf("persisted snapshots failed integrity check: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.snaps = snaps
	return nil
}

// Save persists the whole collection as one blob value.
func (s *Store) Save(ctx context.Context, blob Blob) error {
	s.mu.RLock()
	data, err := json.Marshal(s.snaps)
	s.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("encode snapshots: %w", err)
	}
	if err := blob.Set(ctx, KeySnapshots, string(data)); err != nil {
		return fmt.Errorf("save snapshots: %w", err)
	}
	return nil
}

// LoadSettings reads the persisted settings, falling back to defaults when
// absent or invalid.
func LoadSettings(ctx context.Context, blob Blob) (domain.Settings, error) {
	value, ok, err := blob.Get(ctx, KeySettings)
	if err != nil {
		return domain.Settings{}, fmt.Errorf("load settings: %w", err)
	}
	if !ok {
		return domain.DefaultSettings(), nil
	}

	var settings domain.Settings
	if err := json.Unmarshal([]byte(value), &settings); err != nil {
		return domain.Settings{}, fmt.Errorf("decode persisted settings: %w", err)
	}
	if err := settings.Validate(); err != nil {
		return domain.DefaultSettings(), nil
	}
	return settings, nil
}

// SaveSettings persists the settings value.
func SaveSettings(ctx context.Context, blob Blob, settings domain.Settings) error {
	if err := settings.Validate(); err != nil {
		return err
	}
	data, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	if err := blob.Set(ctx, KeySettings, string(data)); err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}
