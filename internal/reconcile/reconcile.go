// Package reconcile joins content-revenue rows and ad-spend rows by
// normalized URL slug into one immutable snapshot.
package reconcile

import (
	"fmt"
	"time"

	"github.com/rumor-ml/commons.systems/adrecon/internal/classify"
	"github.com/rumor-ml/commons.systems/adrecon/internal/domain"
	"github.com/rumor-ml/commons.systems/adrecon/internal/transform"
)

// Meta carries the user-supplied import metadata. Zero values are defaulted
// by Build: label and date from the creation instant, period to monthly.
type Meta struct {
	Label  string
	Date   string // YYYY-MM-DD
	Period domain.Period
	Now    time.Time // creation instant; zero means time.Now()
}

// spendAccum accumulates every spend row targeting one slug. Multiple
// campaigns against the same landing page are summed, never overwritten.
type spendAccum struct {
	campaigns    []string
	campaignSeen map[string]struct{}
	clicks       int
	impressions  int
	cost         float64
}

func (a *spendAccum) add(row domain.SpendRow) {
	a.clicks += row.Clicks
	a.impressions += row.Impressions
	a.cost += row.Cost
	if row.Campaign != "" {
		if _, ok := a.campaignSeen[row.Campaign]; !ok {
			a.campaignSeen[row.Campaign] = struct{}{}
			a.campaigns = append(a.campaigns, row.Campaign)
		}
	}
}

// Build reconciles the two row sets under the given exchange rate and
// produces one snapshot. The rate is baked into every converted figure at
// creation time; later settings changes never revalue the result. Inputs
// are not mutated.
func Build(contentRows []domain.ContentRow, spendRows []domain.SpendRow, rate float64, meta Meta) (domain.Snapshot, error) {
	if rate <= 0 {
		return domain.Snapshot{}, fmt.Errorf("exchange rate must be positive, got %v", rate)
	}

	// Slug discovery order: content-side slugs first, then spend-only slugs,
	// each in first-appearance order.
	var order []string
	seen := make(map[string]struct{})
	note := func(slug string) {
		if _, ok := seen[slug]; !ok {
			seen[slug] = struct{}{}
			order = append(order, slug)
		}
	}

	contentBySlug := make(map[string]domain.ContentRow, len(contentRows))
	for _, row := range contentRows {
		slug := transform.NormalizeSlug(row.Slug)
		if slug == "" {
			continue
		}
		row.Slug = slug
		contentBySlug[slug] = row
		note(slug)
	}

	spendBySlug := make(map[string]*spendAccum)
	for _, row := range spendRows {
		slug := transform.SlugFromURL(row.URL)
		if slug == "" {
			continue
		}
		acc, ok := spendBySlug[slug]
		if !ok {
			acc = &spendAccum{campaignSeen: make(map[string]struct{})}
			spendBySlug[slug] = acc
		}
		acc.add(row)
		note(slug)
	}

	urls := make([]domain.ReconciledURL, 0, len(order))
	var totals domain.Totals
	for _, slug := range order {
		u := domain.ReconciledURL{Slug: slug, Campaigns: []string{}}

		if c, ok := contentBySlug[slug]; ok {
			u.Views = c.Views
			u.Revenue = c.Revenue
			u.RPM = c.RPM
			u.CPM = c.CPM
			u.Viewability = c.Viewability
			u.FillRate = c.FillRate
			u.ImpressionsPerView = c.ImpressionsPerView
		}

		if s, ok := spendBySlug[slug]; ok {
			u.Campaigns = append(u.Campaigns, s.campaigns...)
			u.Clicks = s.clicks
			u.Impressions = s.impressions
			u.CostSource = s.cost
			u.CostTarget = s.cost / rate
			u.HasSpend = s.cost > 0
		}

		u.Profit = u.Revenue - u.CostTarget
		u.ROI = classify.ROI(u.CostTarget, u.Revenue)
		u.Status = classify.Classify(u.CostTarget, u.Revenue)
		if u.Clicks > 0 {
			u.RevenuePerClick = u.Revenue / float64(u.Clicks)
			u.CostPerClick = u.CostTarget / float64(u.Clicks)
		}

		totals.ContentRevenue += u.Revenue
		totals.SpendSource += u.CostSource
		totals.SpendTarget += u.CostTarget
		totals.Clicks += u.Clicks
		totals.Impressions += u.Impressions
		totals.TotalProfit += u.Profit
		totals.URLCount++
		if u.HasSpend {
			totals.SpendingURLCount++
		}

		urls = append(urls, u)
	}

	now := meta.Now
	if now.IsZero() {
		now = time.Now()
	}

	label := meta.Label
	if label == "" {
		label = "Import " + now.Format("2006-01-02 15:04")
	}
	date := meta.Date
	if date == "" {
		date = now.Format(domain.DateFormat)
	}
	period := meta.Period
	if period == "" {
		period = domain.PeriodMonthly
	}
	if !domain.ValidatePeriod(period) {
		return domain.Snapshot{}, fmt.Errorf("invalid period %q", period)
	}

	return domain.Snapshot{
		ID:        transform.NewSnapshotID(now),
		Label:     label,
		Date:      date,
		Period:    period,
		CreatedAt: now,
		URLs:      urls,
		Totals:    totals,
	}, nil
}
