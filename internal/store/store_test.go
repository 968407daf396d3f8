package store

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rumor-ml/commons.systems/adrecon/internal/domain"
	"github.com/rumor-ml/commons.systems/adrecon/internal/storage"
)

func snap(id, date string) domain.Snapshot {
	return domain.Snapshot{ID: id, Date: date, Period: domain.PeriodMonthly}
}

func TestAddFrontAndLatest(t *testing.T) {
	s := New()

	_, ok := s.Latest()
	assert.False(t, ok)

	s.AddFront(snap("snap-a", "2025-03-01"))
	s.AddFront(snap("snap-b", "2025-01-01")) // earlier date, later import

	latest, ok := s.Latest()
	require.True(t, ok)
	assert.Equal(t, "snap-b", latest.ID, "latest is most recently added, not newest date")
	assert.Equal(t, 2, s.Len())
}

func TestRemove(t *testing.T) {
	s := New()
	s.AddFront(snap("snap-a", "2025-03-01"))
	s.AddFront(snap("snap-b", "2025-03-02"))

	require.NoError(t, s.Remove("snap-a"))
	assert.Equal(t, 1, s.Len())

	err := s.Remove("snap-a")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestGet(t *testing.T) {
	s := New()
	s.AddFront(snap("snap-a", "2025-03-01"))

	got, err := s.Get("snap-a")
	require.NoError(t, err)
	assert.Equal(t, "2025-03-01", got.Date)

	_, err = s.Get("missing")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestListReturnsCopy(t *testing.T) {
	s := New()
	s.AddFront(snap("snap-a", "2025-03-01"))

	list := s.List()
	list[0].ID = "mutated"

	got, err := s.Get("snap-a")
	require.NoError(t, err)
	assert.Equal(t, "snap-a", got.ID)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	blob := storage.NewMemory()

	s := New()
	s.AddFront(snap("snap-a", "2025-03-01"))
	s.AddFront(snap("snap-b", "2025-03-02"))
	require.NoError(t, s.Save(ctx, blob))

	loaded := New()
	require.NoError(t, loaded.Load(ctx, blob))

	require.Equal(t, 2, loaded.Len())
	latest, _ := loaded.Latest()
	assert.Equal(t, "snap-b", latest.ID, "order survives persistence")
}

func TestLoadMissingValueLeavesStoreEmpty(t *testing.T) {
	s := New()
	require.NoError(t, s.Load(context.Background(), storage.NewMemory()))
	assert.Zero(t, s.Len())
}

func TestLoadRejectsCorruptState(t *testing.T) {
	ctx := context.Background()
	blob := storage.NewMemory()

	require.NoError(t, blob.Set(ctx, KeySnapshots, "not json"))
	assert.Error(t, New().Load(ctx, blob))

	// Valid JSON, broken invariant: duplicate IDs.
	require.NoError(t, blob.Set(ctx, KeySnapshots,
		`[{"id":"x","date":"2025-03-01","period":"monthly"},{"id":"x","date":"2025-03-02","period":"monthly"}]`))
	assert.Error(t, New().Load(ctx, blob))
}

func TestSettingsRoundTrip(t *testing.T) {
	ctx := context.Background()
	blob := storage.NewMemory()

	settings, err := LoadSettings(ctx, blob)
	require.NoError(t, err)
	assert.Equal(t, 87.0, settings.ExchangeRate, "missing settings fall back to default")

	require.NoError(t, SaveSettings(ctx, blob, domain.Settings{ExchangeRate: 90}))

	settings, err = LoadSettings(ctx, blob)
	require.NoError(t, err)
	assert.Equal(t, 90.0, settings.ExchangeRate)
}

func TestSaveSettingsRejectsInvalidRate(t *testing.T) {
	err := SaveSettings(context.Background(), storage.NewMemory(), domain.Settings{ExchangeRate: 0})
	assert.Error(t, err)
}
