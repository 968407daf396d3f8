// Package validate enforces the input-boundary formats and the structural
// invariants of a loaded snapshot collection.
package validate

import (
	"fmt"
	"math"
	"time"

	"github.com/rumor-ml/commons.systems/adrecon/internal/domain"
)

// Date checks for the exact zero-padded YYYY-MM-DD layout. Date-range
// queries compare dates as strings, so any other layout would silently
// corrupt range results; it is rejected here at the boundary instead.
func Date(s string) error {
	if len(s) != len(domain.DateFormat) {
		return fmt.Errorf("date %q must be in YYYY-MM-DD format", s)
	}
	if _, err := time.Parse(domain.DateFormat, s); err != nil {
		return fmt.Errorf("date %q must be in YYYY-MM-DD format: %w", s, err)
	}
	return nil
}

// Period checks period against the fixed enum.
func Period(s string) error {
	if !domain.ValidatePeriod(domain.Period(s)) {
		return fmt.Errorf("period %q must be one of daily, weekly, monthly, bi-monthly, quarterly, yearly", s)
	}
	return nil
}

// Rate checks that an exchange rate is usable.
func Rate(f float64) error {
	if f <= 0 || math.IsNaN(f) || math.IsInf(f, 0) {
		return fmt.Errorf("exchange rate must be a positive number, got %v", f)
	}
	return nil
}

const totalsTolerance = 1e-6

// StoreInvariants checks a snapshot collection for the invariants every
// consumer assumes: unique snapshot IDs, one record per slug within a
// snapshot, valid dates and periods, and totals that match the URL sums.
// It is used as a corruption check when loading persisted state.
func StoreInvariants(snaps []domain.Snapshot) error {
	ids := make(map[string]struct{}, len(snaps))
	for _, s := range snaps {
		if s.ID == "" {
			return fmt.Errorf("snapshot with empty ID")
		}
		if _, dup := ids[s.ID]; dup {
			return fmt.Errorf("duplicate snapshot ID %s", s.ID)
		}
		ids[s.ID] = struct{}{}

		if err := Date(s.Date); err != nil {
			return fmt.Errorf("snapshot %s: %w", s.ID, err)
		}
		if !domain.ValidatePeriod(s.Period) {
			return fmt.Errorf("snapshot %s: invalid period %q", s.ID, s.Period)
		}

		slugs := make(map[string]struct{}, len(s.URLs))
		var sum domain.Totals
		for _, u := range s.URLs {
			if _, dup := slugs[u.Slug]; dup {
				return fmt.Errorf("snapshot %s: duplicate slug %q", s.ID, u.Slug)
			}
			slugs[u.Slug] = struct{}{}

			sum.ContentRevenue += u.Revenue
			sum.SpendSource += u.CostSource
			sum.SpendTarget += u.CostTarget
			sum.Clicks += u.Clicks
			sum.Impressions += u.Impressions
			sum.TotalProfit += u.Profit
			sum.URLCount++
			if u.HasSpend {
				sum.SpendingURLCount++
			}
		}

		if err := totalsMatch(s.Totals, sum); err != nil {
			return fmt.Errorf("snapshot %s: %w", s.ID, err)
		}
	}
	return nil
}

func totalsMatch(stored, computed domain.Totals) error {
	if stored.URLCount != computed.URLCount ||
		stored.SpendingURLCount != computed.SpendingURLCount ||
		stored.Clicks != computed.Clicks ||
		stored.Impressions != computed.Impressions {
		return fmt.Errorf("totals counts do not match URL sums")
	}
	for _, pair := range [][2]float64{
		{stored.ContentRevenue, computed.ContentRevenue},
		{stored.SpendSource, computed.SpendSource},
		{stored.SpendTarget, computed.SpendTarget},
		{stored.TotalProfit, computed.TotalProfit},
	} {
		if math.Abs(pair[0]-pair[1]) > totalsTolerance {
			return fmt.Errorf("totals do not match URL sums (stored %v, computed %v)", pair[0], pair[1])
		}
	}
	return nil
}
