package output

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rumor-ml/commons.systems/adrecon/internal/aggregate"
	"github.com/rumor-ml/commons.systems/adrecon/internal/domain"
)

func sampleSnapshot() domain.Snapshot {
	return domain.Snapshot{
		ID:   "snap-1",
		Date: "2025-03-01",
		URLs: []domain.ReconciledURL{
			{
				Slug: "hello", Status: domain.StatusImproving,
				Views: 10, Revenue: 100, RPM: 10, CPM: 8.4,
				Viewability: 85, FillRate: 92.5, ImpressionsPerView: 1.4,
				Campaigns: []string{"Brand", "Generic"},
				Clicks:    5, Impressions: 1200,
				CostSource: 8700, CostTarget: 100, HasSpend: true,
				RevenuePerClick: 20, CostPerClick: 20,
			},
			{
				Slug: "organic-only", Status: domain.StatusProfitable,
				Views: 50, Revenue: 42.5, ROI: 999,
				Campaigns: []string{},
			},
		},
	}
}

func TestSnapshotExport(t *testing.T) {
	csv := Snapshot(sampleSnapshot())
	lines := strings.Split(csv, "\n")
	require.Len(t, lines, 3)

	assert.Equal(t,
		`"Slug","Status","Views","Revenue","RPM","CPM","Viewability","Fill Rate","Impressions/View","Campaigns","Clicks","Impressions","Cost (source)","Cost (target)","Revenue/Click","Cost/Click","ROI %","Profit"`,
		lines[0])

	assert.Equal(t,
		`"hello","improving","10","100.00","10.00","8.40","85.0","92.5","1.40","Brand; Generic","5","1200","8700.00","100.00","20.00","20.00","0.0","0.00"`,
		lines[1])

	assert.Equal(t,
		`"organic-only","profitable","50","42.50","0.00","0.00","0.0","0.0","0.00","","0","0","0.00","0.00","0.00","0.00","999.0","0.00"`,
		lines[2])
}

func TestStatusBucketExport(t *testing.T) {
	csv := StatusBucket(sampleSnapshot(), domain.StatusProfitable)
	lines := strings.Split(csv, "\n")
	require.Len(t, lines, 2)

	assert.NotContains(t, lines[0], `"Status"`)
	assert.True(t, strings.HasPrefix(lines[1], `"organic-only","50",`))
}

func TestStatusBucketEmpty(t *testing.T) {
	csv := StatusBucket(sampleSnapshot(), domain.StatusTurnOff)
	lines := strings.Split(csv, "\n")
	assert.Len(t, lines, 1, "header only when no URL matches")
}

func TestRangeExport(t *testing.T) {
	res := aggregate.RangeResult{
		From: "2025-03-01", To: "2025-05-31",
		URLs: []aggregate.RangeURL{{
			Slug: "page", Status: domain.StatusImproving, Trend: aggregate.TrendImproving,
			Appearances: 3, MonthsActive: []string{"2025-03", "2025-04"},
			Revenue: 60, CostSource: 3915, CostTarget: 45,
			Clicks: 10, Impressions: 500,
			RevenuePerClick: 6, CostPerClick: 4.5,
			ROI: 33.333333, Profit: 15,
			Campaigns: []string{"Brand"},
		}},
	}

	lines := strings.Split(Range(res), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t,
		`"Slug","Status","Trend","Appearances","Months Active","Revenue","Cost (source)","Cost (target)","Clicks","Impressions","Revenue/Click","Cost/Click","ROI %","Profit","Campaigns"`,
		lines[0])
	assert.Equal(t,
		`"page","improving","improving","3","2025-03; 2025-04","60.00","3915.00","45.00","10","500","6.00","4.50","33.3","15.00","Brand"`,
		lines[1])
}

func TestRenderQuotesEverythingAndEscapes(t *testing.T) {
	snap := domain.Snapshot{URLs: []domain.ReconciledURL{{
		Slug:      "a,b",
		Status:    domain.StatusImproving,
		Campaigns: []string{`Say "hi", twice`},
	}}}

	csv := Snapshot(snap)
	assert.Contains(t, csv, `"a,b"`)
	assert.Contains(t, csv, `"Say ""hi"", twice"`)

	// Every field on every line is quote wrapped.
	for _, line := range strings.Split(csv, "\n") {
		assert.True(t, strings.HasPrefix(line, `"`) && strings.HasSuffix(line, `"`))
	}
}
