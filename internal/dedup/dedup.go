// Package dedup fingerprints import inputs so repeated uploads of the same
// CSV pair can be flagged before they create a duplicate snapshot. Flagging
// is advisory: the import itself always proceeds.
package dedup

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rumor-ml/commons.systems/adrecon/internal/csvtext"
)

// Key is the blob-store key the state serializes under.
const Key = "import-state"

// CurrentVersion is the current state format version.
const CurrentVersion = 1

// Record tracks one fingerprint across repeated observations.
type Record struct {
	FirstSeen  time.Time `json:"firstSeen"`
	LastSeen   time.Time `json:"lastSeen"`
	Count      int       `json:"count"`
	SnapshotID string    `json:"snapshotId"` // snapshot created on first sight
}

// State is the fingerprint history.
type State struct {
	Version      int                `json:"version"`
	Fingerprints map[string]*Record `json:"fingerprints"`
}

// NewState creates an empty state.
func NewState() *State {
	return &State{
		Version:      CurrentVersion,
		Fingerprints: make(map[string]*Record),
	}
}

// Fingerprint hashes the normalized pair of input texts. Normalization
// first means trailing whitespace or newline-style differences do not
// defeat duplicate detection.
func Fingerprint(contentText, spendText string) string {
	input := csvtext.NormalizeText(contentText) + "\x1f" + csvtext.NormalizeText(spendText)
	hash := sha256.Sum256([]byte(input))
	return hex.EncodeToString(hash[:])
}

// Check looks up a fingerprint and returns the prior record if this exact
// input pair was imported before.
func (s *State) Check(fingerprint string) (*Record, bool) {
	rec, ok := s.Fingerprints[fingerprint]
	return rec, ok
}

// Observe records an import of the fingerprinted pair. The snapshot ID of
// the first observation is kept so duplicates can name the original.
func (s *State) Observe(fingerprint, snapshotID string, now time.Time) {
	if rec, ok := s.Fingerprints[fingerprint]; ok {
		rec.LastSeen = now
		rec.Count++
		return
	}
	s.Fingerprints[fingerprint] = &Record{
		FirstSeen:  now,
		LastSeen:   now,
		Count:      1,
		SnapshotID: snapshotID,
	}
}

// Blob is the subset of the storage collaborator the state needs.
type Blob interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key string, value string) error
}

// Load reads the persisted state; absent means a fresh state. Unlike the
// snapshot store, losing fingerprint history only weakens duplicate
// warnings, so decoding failures reset rather than fail.
func Load(ctx context.Context, blob Blob) (*State, error) {
	value, ok, err := blob.Get(ctx, Key)
	if err != nil {
		return nil, fmt.Errorf("load import state: %w", err)
	}
	if !ok {
		return NewState(), nil
	}

	var state State
	if err := json.Unmarshal([]byte(value), &state); err != nil {
		return NewState(), nil
	}
	if state.Fingerprints == nil {
		state.Fingerprints = make(map[string]*Record)
	}
	return &state, nil
}

// Save persists the state as one blob value.
func (s *State) Save(ctx context.Context, blob Blob) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode import state: %w", err)
	}
	if err := blob.Set(ctx, Key, string(data)); err != nil {
		return fmt.Errorf("save import state: %w", err)
	}
	return nil
}
