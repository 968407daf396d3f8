// Package domain defines the core data model shared by every other package:
// extracted CSV rows, reconciled per-URL records, snapshots, and settings.
package domain

import (
	"errors"
	"fmt"
	"time"
)

// Status is the profitability classification of a reconciled URL.
// Use ValidateStatus to ensure validity before use.
type Status string

const (
	StatusProfitable Status = "profitable"
	StatusImproving  Status = "improving"
	StatusLosing     Status = "losing"
	StatusTurnOff    Status = "turn-off"
)

// Period describes the reporting cadence a snapshot covers. It is
// descriptive metadata only; no aggregation math depends on it.
type Period string

const (
	PeriodDaily     Period = "daily"
	PeriodWeekly    Period = "weekly"
	PeriodMonthly   Period = "monthly"
	PeriodBiMonthly Period = "bi-monthly"
	PeriodQuarterly Period = "quarterly"
	PeriodYearly    Period = "yearly"
)

var (
	validStatuses = map[Status]struct{}{
		StatusProfitable: {}, StatusImproving: {},
		StatusLosing: {}, StatusTurnOff: {},
	}

	validPeriods = map[Period]struct{}{
		PeriodDaily: {}, PeriodWeekly: {}, PeriodMonthly: {},
		PeriodBiMonthly: {}, PeriodQuarterly: {}, PeriodYearly: {},
	}
)

// ValidateStatus checks if status is valid
func ValidateStatus(s Status) bool {
	_, ok := validStatuses[s]
	return ok
}

// ValidatePeriod checks if period is valid
func ValidatePeriod(p Period) bool {
	_, ok := validPeriods[p]
	return ok
}

// DefaultExchangeRate is the documented default conversion rate:
// source-currency units per one target-currency unit.
const DefaultExchangeRate = 87.0

// DateFormat is the only accepted snapshot date layout. Date-range queries
// compare dates lexicographically, which is correct only while every stored
// date is zero-padded in this exact form.
const DateFormat = "2006-01-02"

var (
	// ErrNotFound is returned when a snapshot ID does not exist in the store.
	ErrNotFound = errors.New("snapshot not found")
)

// ContentRow is one extracted row of the content-revenue report.
// Revenue is natively in target currency. Immutable after extraction.
type ContentRow struct {
	Slug               string  `json:"slug"`
	Views              int     `json:"views"`
	Revenue            float64 `json:"revenue"`
	RPM                float64 `json:"rpm"`
	CPM                float64 `json:"cpm"`
	Viewability        float64 `json:"viewability"`
	FillRate           float64 `json:"fillRate"`
	ImpressionsPerView float64 `json:"impressionsPerView"`
}

// SpendRow is one extracted data line of the ad-spend report: a single
// campaign's cost/click metrics against one landing-page URL. Rows for the
// same landing page are summed during reconciliation, not here.
type SpendRow struct {
	URL         string  `json:"url"`
	Campaign    string  `json:"campaign"`
	Clicks      int     `json:"clicks"`
	Impressions int     `json:"impressions"`
	Cost        float64 `json:"cost"` // source currency
}

// ReconciledURL is the unit of analysis: one record per distinct slug seen
// in either source, with the absent side zero-filled.
type ReconciledURL struct {
	Slug   string `json:"slug"`
	Status Status `json:"status"`

	// Content side.
	Views              int     `json:"views"`
	Revenue            float64 `json:"revenue"` // target currency
	RPM                float64 `json:"rpm"`
	CPM                float64 `json:"cpm"`
	Viewability        float64 `json:"viewability"`
	FillRate           float64 `json:"fillRate"`
	ImpressionsPerView float64 `json:"impressionsPerView"`

	// Spend side, aggregated across all campaigns targeting the slug.
	Campaigns   []string `json:"campaigns"`
	Clicks      int      `json:"clicks"`
	Impressions int      `json:"impressions"`
	CostSource  float64  `json:"costSource"`
	CostTarget  float64  `json:"costTarget"`
	HasSpend    bool     `json:"hasSpend"`

	// Derived.
	Profit          float64 `json:"profit"`
	ROI             float64 `json:"roi"` // percent; 999 = unbounded sentinel
	RevenuePerClick float64 `json:"revenuePerClick"`
	CostPerClick    float64 `json:"costPerClick"`
}

// Totals holds precomputed sums over every ReconciledURL in a snapshot.
type Totals struct {
	ContentRevenue   float64 `json:"contentRevenue"`
	SpendSource      float64 `json:"spendSource"`
	SpendTarget      float64 `json:"spendTarget"`
	Clicks           int     `json:"clicks"`
	Impressions      int     `json:"impressions"`
	TotalProfit      float64 `json:"totalProfit"`
	URLCount         int     `json:"urlCount"`
	SpendingURLCount int     `json:"spendingUrlCount"`
}

// Add accumulates another Totals value into t.
func (t *Totals) Add(o Totals) {
	t.ContentRevenue += o.ContentRevenue
	t.SpendSource += o.SpendSource
	t.SpendTarget += o.SpendTarget
	t.Clicks += o.Clicks
	t.Impressions += o.Impressions
	t.TotalProfit += o.TotalProfit
	t.URLCount += o.URLCount
	t.SpendingURLCount += o.SpendingURLCount
}

// Snapshot is the immutable record of one import event. The exchange rate
// in effect at import time is baked into CostTarget on every URL; snapshots
// are never revalued when settings later change.
type Snapshot struct {
	ID        string          `json:"id"`
	Label     string          `json:"label"`
	Date      string          `json:"date"` // YYYY-MM-DD, user-supplied, drives all time bucketing
	Period    Period          `json:"period"`
	CreatedAt time.Time       `json:"createdAt"`
	URLs      []ReconciledURL `json:"urls"`
	Totals    Totals          `json:"totals"`
}

// Month returns the calendar year-month bucket key (YYYY-MM) of the
// snapshot's user-supplied date.
func (s *Snapshot) Month() string {
	if len(s.Date) < 7 {
		return s.Date
	}
	return s.Date[:7]
}

// URL returns the reconciled record for slug, if present.
func (s *Snapshot) URL(slug string) (ReconciledURL, bool) {
	for _, u := range s.URLs {
		if u.Slug == slug {
			return u, true
		}
	}
	return ReconciledURL{}, false
}

// Settings is the single process-wide configuration value consulted at
// reconciliation time.
type Settings struct {
	ExchangeRate float64 `json:"exchangeRate"`
}

// DefaultSettings returns settings with the documented default rate.
func DefaultSettings() Settings {
	return Settings{ExchangeRate: DefaultExchangeRate}
}

// Validate checks that the settings value is usable for conversion.
func (s Settings) Validate() error {
	if s.ExchangeRate <= 0 {
		return fmt.Errorf("exchange rate must be positive, got %v", s.ExchangeRate)
	}
	return nil
}
