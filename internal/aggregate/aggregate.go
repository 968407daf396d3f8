// Package aggregate computes the three rollup views over the snapshot
// collection: month-bucketed trend, arbitrary date-range aggregation, and
// single-URL history. Every query is stateless and recomputes from scratch;
// at tens of snapshots by low thousands of URLs there is nothing worth
// caching.
package aggregate

import (
	"sort"
	"strings"

	"github.com/rumor-ml/commons.systems/adrecon/internal/classify"
	"github.com/rumor-ml/commons.systems/adrecon/internal/domain"
)

// Trend is the profit direction of a URL across a date range.
type Trend string

const (
	TrendImproving Trend = "improving"
	TrendDeclining Trend = "declining"
	TrendStable    Trend = "stable"
)

// trendStabilityBand is the |Δprofit| in target-currency units within which
// first-to-last month movement counts as stable.
const trendStabilityBand = 1.0

// trendWindow is how many trailing month buckets MonthlyTrend returns.
const trendWindow = 12

// MonthBucket sums every snapshot whose date falls in one calendar month.
type MonthBucket struct {
	Month         string        `json:"month"` // YYYY-MM
	SnapshotCount int           `json:"snapshotCount"`
	Totals        domain.Totals `json:"totals"`

	// Status tallies over spending URLs of the contributing snapshots.
	Profitable int `json:"profitable"`
	Losing     int `json:"losing"`
	TurnOff    int `json:"turnOff"`
}

// MonthlyTrend groups all snapshots by the year-month of their date and
// sums totals within each group — two imports dated in the same month are
// summed, not averaged. Buckets are returned chronologically, last 12 only.
func MonthlyTrend(snaps []domain.Snapshot) []MonthBucket {
	byMonth := make(map[string]*MonthBucket)
	for _, snap := range snaps {
		month := snap.Month()
		bucket, ok := byMonth[month]
		if !ok {
			bucket = &MonthBucket{Month: month}
			byMonth[month] = bucket
		}
		bucket.SnapshotCount++
		bucket.Totals.Add(snap.Totals)

		for _, u := range snap.URLs {
			if !u.HasSpend {
				continue
			}
			switch u.Status {
			case domain.StatusProfitable:
				bucket.Profitable++
			case domain.StatusLosing:
				bucket.Losing++
			case domain.StatusTurnOff:
				bucket.TurnOff++
			}
		}
	}

	months := make([]string, 0, len(byMonth))
	for m := range byMonth {
		months = append(months, m)
	}
	sort.Strings(months)
	if len(months) > trendWindow {
		months = months[len(months)-trendWindow:]
	}

	out := make([]MonthBucket, 0, len(months))
	for _, m := range months {
		out = append(out, *byMonth[m])
	}
	return out
}

// RangeURL aggregates one slug's numbers across every matching snapshot.
// Derived fields are computed from the summed totals, never averaged from
// per-snapshot ratios.
type RangeURL struct {
	Slug            string        `json:"slug"`
	Status          domain.Status `json:"status"`
	Trend           Trend         `json:"trend"`
	Revenue         float64       `json:"revenue"`
	CostSource      float64       `json:"costSource"`
	CostTarget      float64       `json:"costTarget"`
	Clicks          int           `json:"clicks"`
	Impressions     int           `json:"impressions"`
	Profit          float64       `json:"profit"`
	ROI             float64       `json:"roi"`
	RevenuePerClick float64       `json:"revenuePerClick"`
	CostPerClick    float64       `json:"costPerClick"`
	Campaigns       []string      `json:"campaigns"`
	Appearances     int           `json:"appearances"`
	MonthsActive    []string      `json:"monthsActive"` // sorted distinct YYYY-MM
}

// RangeTotals are the range-wide sums plus per-status record counts,
// computed over every aggregated URL before any display filter runs.
type RangeTotals struct {
	Revenue     float64 `json:"revenue"`
	CostSource  float64 `json:"costSource"`
	CostTarget  float64 `json:"costTarget"`
	Clicks      int     `json:"clicks"`
	Impressions int     `json:"impressions"`
	Profit      float64 `json:"profit"`
	URLCount    int     `json:"urlCount"`
	Profitable  int     `json:"profitable"`
	Improving   int     `json:"improving"`
	Losing      int     `json:"losing"`
	TurnOff     int     `json:"turnOff"`
}

// RangeResult is the full date-range aggregation. Matched distinguishes
// "no snapshots in range" (Matched == 0) from "snapshots matched but no
// spending URLs" (Matched > 0, empty URLs).
type RangeResult struct {
	From    string      `json:"from"`
	To      string      `json:"to"`
	Matched int         `json:"matched"`
	URLs    []RangeURL  `json:"urls"`
	Totals  RangeTotals `json:"totals"`
}

type rangeAccum struct {
	url            RangeURL
	campaignSeen   map[string]struct{}
	monthSeen      map[string]struct{}
	perMonthProfit map[string]float64
}

// DateRange aggregates spending URLs across all snapshots whose date lies
// in the inclusive [from, to] range. Dates are compared lexicographically,
// which is exact for the enforced YYYY-MM-DD layout. Zero matching
// snapshots produce an explicit empty result, not an error.
func DateRange(snaps []domain.Snapshot, from, to string) RangeResult {
	res := RangeResult{From: from, To: to, URLs: []RangeURL{}}

	accums := make(map[string]*rangeAccum)
	var order []string

	for _, snap := range snaps {
		if snap.Date < from || snap.Date > to {
			continue
		}
		res.Matched++
		month := snap.Month()

		for _, u := range snap.URLs {
			if !u.HasSpend {
				continue
			}
			acc, ok := accums[u.Slug]
			if !ok {
				acc = &rangeAccum{
					url:            RangeURL{Slug: u.Slug, Campaigns: []string{}},
					campaignSeen:   make(map[string]struct{}),
					monthSeen:      make(map[string]struct{}),
					perMonthProfit: make(map[string]float64),
				}
				accums[u.Slug] = acc
				order = append(order, u.Slug)
			}

			acc.url.Revenue += u.Revenue
			acc.url.CostSource += u.CostSource
			acc.url.CostTarget += u.CostTarget
			acc.url.Clicks += u.Clicks
			acc.url.Impressions += u.Impressions
			acc.url.Appearances++
			acc.monthSeen[month] = struct{}{}
			acc.perMonthProfit[month] += u.Profit
			for _, c := range u.Campaigns {
				if _, seen := acc.campaignSeen[c]; !seen {
					acc.campaignSeen[c] = struct{}{}
					acc.url.Campaigns = append(acc.url.Campaigns, c)
				}
			}
		}
	}

	for _, slug := range order {
		acc := accums[slug]
		u := acc.url

		u.Profit = u.Revenue - u.CostTarget
		u.ROI = classify.ROI(u.CostTarget, u.Revenue)
		u.Status = classify.Classify(u.CostTarget, u.Revenue)
		if u.Clicks > 0 {
			u.RevenuePerClick = u.Revenue / float64(u.Clicks)
			u.CostPerClick = u.CostTarget / float64(u.Clicks)
		}

		u.MonthsActive = make([]string, 0, len(acc.monthSeen))
		for m := range acc.monthSeen {
			u.MonthsActive = append(u.MonthsActive, m)
		}
		sort.Strings(u.MonthsActive)
		u.Trend = profitTrend(u.MonthsActive, acc.perMonthProfit)

		res.URLs = append(res.URLs, u)

		res.Totals.Revenue += u.Revenue
		res.Totals.CostSource += u.CostSource
		res.Totals.CostTarget += u.CostTarget
		res.Totals.Clicks += u.Clicks
		res.Totals.Impressions += u.Impressions
		res.Totals.Profit += u.Profit
		res.Totals.URLCount++
		switch u.Status {
		case domain.StatusProfitable:
			res.Totals.Profitable++
		case domain.StatusImproving:
			res.Totals.Improving++
		case domain.StatusLosing:
			res.Totals.Losing++
		case domain.StatusTurnOff:
			res.Totals.TurnOff++
		}
	}

	return res
}

// profitTrend compares the earliest and latest contributing month's profit
// sub-totals. Movement within the ±1-unit stability band is stable.
func profitTrend(months []string, profitByMonth map[string]float64) Trend {
	if len(months) == 0 {
		return TrendStable
	}
	delta := profitByMonth[months[len(months)-1]] - profitByMonth[months[0]]
	switch {
	case delta > trendStabilityBand:
		return TrendImproving
	case delta < -trendStabilityBand:
		return TrendDeclining
	default:
		return TrendStable
	}
}

// HistoryPoint pairs one snapshot's reconciled record for a slug with that
// snapshot's identifying metadata.
type HistoryPoint struct {
	SnapshotID string               `json:"snapshotId"`
	Label      string               `json:"label"`
	Date       string               `json:"date"`
	Period     domain.Period        `json:"period"`
	URL        domain.ReconciledURL `json:"url"`
}

// URLHistory collects the slug's record from every snapshot that has one,
// in store order. Snapshots lacking the slug are omitted, not zero-filled,
// so the history may be shorter than the snapshot count.
func URLHistory(snaps []domain.Snapshot, slug string) []HistoryPoint {
	var out []HistoryPoint
	for _, snap := range snaps {
		if u, ok := snap.URL(slug); ok {
			out = append(out, HistoryPoint{
				SnapshotID: snap.ID,
				Label:      snap.Label,
				Date:       snap.Date,
				Period:     snap.Period,
				URL:        u,
			})
		}
	}
	return out
}

// FilterRange applies the caller's display filters to an aggregated URL
// list: status filter, case-insensitive slug/campaign search, and sort.
// It never touches RangeResult.Totals — those are fixed before filtering.
// Sort keys: profit (default), revenue, spend, roi (all descending), slug
// (ascending).
func FilterRange(urls []RangeURL, status domain.Status, query, sortKey string) []RangeURL {
	out := make([]RangeURL, 0, len(urls))
	q := strings.ToLower(strings.TrimSpace(query))
	for _, u := range urls {
		if status != "" && u.Status != status {
			continue
		}
		if q != "" && !matchesQuery(u, q) {
			continue
		}
		out = append(out, u)
	}

	less := func(i, j int) bool { return out[i].Profit > out[j].Profit }
	switch sortKey {
	case "revenue":
		less = func(i, j int) bool { return out[i].Revenue > out[j].Revenue }
	case "spend":
		less = func(i, j int) bool { return out[i].CostTarget > out[j].CostTarget }
	case "roi":
		less = func(i, j int) bool { return out[i].ROI > out[j].ROI }
	case "slug":
		less = func(i, j int) bool { return out[i].Slug < out[j].Slug }
	}
	sort.SliceStable(out, less)
	return out
}

func matchesQuery(u RangeURL, q string) bool {
	if strings.Contains(strings.ToLower(u.Slug), q) {
		return true
	}
	for _, c := range u.Campaigns {
		if strings.Contains(strings.ToLower(c), q) {
			return true
		}
	}
	return false
}
