package adrecon_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rumor-ml/commons.systems/adrecon/internal/aggregate"
	"github.com/rumor-ml/commons.systems/adrecon/internal/dedup"
	"github.com/rumor-ml/commons.systems/adrecon/internal/domain"
	"github.com/rumor-ml/commons.systems/adrecon/internal/output"
	"github.com/rumor-ml/commons.systems/adrecon/internal/parsers/adspend"
	"github.com/rumor-ml/commons.systems/adrecon/internal/parsers/content"
	"github.com/rumor-ml/commons.systems/adrecon/internal/reconcile"
	"github.com/rumor-ml/commons.systems/adrecon/internal/storage"
	"github.com/rumor-ml/commons.systems/adrecon/internal/store"
)

const contentCSV = "slug,views,revenue,rpm\n" +
	"/hello,10,100,10\n"

const spendCSV = "Landing page,Campaign,Clicks,Impr.,Cost\n" +
	"https://site.com/hello,Spring Push,5,500,8700\n"

// End-to-end: parse both exports, reconcile at rate 87, persist, reload,
// aggregate, and export. The hello URL converts 8700 source units into
// exactly 100 target units against 100 revenue: zero profit, zero ROI.
func TestEndToEndImport(t *testing.T) {
	ctx := context.Background()

	contentResult := content.New().Extract(contentCSV)
	require.True(t, contentResult.HeaderFound)
	require.Len(t, contentResult.ContentRows, 1)

	spendResult := adspend.New().Extract(spendCSV)
	require.True(t, spendResult.HeaderFound)
	require.Len(t, spendResult.SpendRows, 1)

	now := time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC)
	snap, err := reconcile.Build(contentResult.ContentRows, spendResult.SpendRows, 87.0, reconcile.Meta{
		Label: "March reconciliation",
		Date:  "2025-03-15",
		Now:   now,
	})
	require.NoError(t, err)

	u, ok := snap.URL("hello")
	require.True(t, ok, "both sides join on the normalized slug")
	assert.Equal(t, 10, u.Views)
	assert.InDelta(t, 100.0, u.Revenue, 1e-9)
	assert.InDelta(t, 8700.0, u.CostSource, 1e-9)
	assert.InDelta(t, 100.0, u.CostTarget, 1e-9)
	assert.InDelta(t, 0.0, u.Profit, 1e-9)
	assert.InDelta(t, 0.0, u.ROI, 1e-9)
	assert.Equal(t, domain.StatusImproving, u.Status, "0 <= roi <= 40")
	assert.InDelta(t, 20.0, u.RevenuePerClick, 1e-9)
	assert.InDelta(t, 20.0, u.CostPerClick, 1e-9)
	assert.Equal(t, []string{"Spring Push"}, u.Campaigns)

	// Persist, then reload into a fresh store.
	blob := storage.NewMemory()
	st := store.New()
	st.AddFront(snap)
	require.NoError(t, st.Save(ctx, blob))

	imports := dedup.NewState()
	fingerprint := dedup.Fingerprint(contentCSV, spendCSV)
	imports.Observe(fingerprint, snap.ID, now)
	require.NoError(t, imports.Save(ctx, blob))

	reloaded := store.New()
	require.NoError(t, reloaded.Load(ctx, blob))
	require.Equal(t, 1, reloaded.Len())
	got, err := reloaded.Get(snap.ID)
	require.NoError(t, err)
	assert.Equal(t, snap.Totals, got.Totals)

	// The same pair fingerprints identically after a reload.
	reimports, err := dedup.Load(ctx, blob)
	require.NoError(t, err)
	rec, seen := reimports.Check(dedup.Fingerprint(contentCSV, spendCSV))
	require.True(t, seen)
	assert.Equal(t, snap.ID, rec.SnapshotID)

	// Rollups over the reloaded store.
	trend := aggregate.MonthlyTrend(reloaded.List())
	require.Len(t, trend, 1)
	assert.Equal(t, "2025-03", trend[0].Month)
	assert.Equal(t, 1, trend[0].SnapshotCount)

	rangeResult := aggregate.DateRange(reloaded.List(), "2025-03-01", "2025-03-31")
	require.Equal(t, 1, rangeResult.Matched)
	require.Len(t, rangeResult.URLs, 1)
	assert.Equal(t, "hello", rangeResult.URLs[0].Slug)
	assert.InDelta(t, 0.0, rangeResult.URLs[0].Profit, 1e-9)

	history := aggregate.URLHistory(reloaded.List(), "hello")
	require.Len(t, history, 1)
	assert.Equal(t, snap.ID, history[0].SnapshotID)

	// Export round: the CSV carries the computed values verbatim.
	csv := output.Snapshot(got)
	assert.Contains(t, csv, `"hello","improving"`)
	assert.Contains(t, csv, `"8700.00"`)
	assert.Contains(t, csv, `"100.00"`)
	assert.Contains(t, csv, `"Spring Push"`)
}

// A settings change between imports must only affect the later import.
func TestEndToEndRateChange(t *testing.T) {
	contentResult := content.New().Extract(contentCSV)
	spendResult := adspend.New().Extract(spendCSV)

	first, err := reconcile.Build(contentResult.ContentRows, spendResult.SpendRows, 87.0, reconcile.Meta{Date: "2025-03-01"})
	require.NoError(t, err)
	second, err := reconcile.Build(contentResult.ContentRows, spendResult.SpendRows, 43.5, reconcile.Meta{Date: "2025-04-01"})
	require.NoError(t, err)

	u1, _ := first.URL("hello")
	u2, _ := second.URL("hello")
	assert.InDelta(t, 100.0, u1.CostTarget, 1e-9)
	assert.InDelta(t, 200.0, u2.CostTarget, 1e-9)
	assert.Equal(t, domain.StatusImproving, u1.Status)
	assert.Equal(t, domain.StatusTurnOff, u2.Status, "100 revenue vs 200 spend is -50% ROI")
}
