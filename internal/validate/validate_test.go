package validate

import (
	"testing"

	"github.com/rumor-ml/commons.systems/adrecon/internal/domain"
)

func TestDate(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		wantErr bool
	}{
		{"valid", "2025-03-01", false},
		{"valid end of year", "2025-12-31", false},
		{"missing zero padding", "2025-3-1", true},
		{"slashes", "2025/03/01", true},
		{"reversed", "01-03-2025", true},
		{"nonsense month", "2025-13-01", true},
		{"empty", "", true},
		{"date time", "2025-03-01T00:00:00", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Date(tt.in)
			if (err != nil) != tt.wantErr {
				t.Errorf("Date(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
		})
	}
}

func TestPeriod(t *testing.T) {
	for _, p := range []string{"daily", "weekly", "monthly", "bi-monthly", "quarterly", "yearly"} {
		if err := Period(p); err != nil {
			t.Errorf("Period(%q) unexpected error: %v", p, err)
		}
	}
	for _, p := range []string{"", "Monthly", "fortnightly"} {
		if err := Period(p); err == nil {
			t.Errorf("Period(%q) expected error", p)
		}
	}
}

func TestRate(t *testing.T) {
	if err := Rate(87); err != nil {
		t.Errorf("Rate(87) unexpected error: %v", err)
	}
	for _, r := range []float64{0, -1} {
		if err := Rate(r); err == nil {
			t.Errorf("Rate(%v) expected error", r)
		}
	}
}

func validSnapshot(id string) domain.Snapshot {
	return domain.Snapshot{
		ID:     id,
		Date:   "2025-03-01",
		Period: domain.PeriodMonthly,
		URLs: []domain.ReconciledURL{
			{Slug: "a", Revenue: 100, CostSource: 870, CostTarget: 10, Profit: 90, Clicks: 5, Impressions: 50, HasSpend: true},
		},
		Totals: domain.Totals{
			ContentRevenue: 100, SpendSource: 870, SpendTarget: 10,
			Clicks: 5, Impressions: 50, TotalProfit: 90,
			URLCount: 1, SpendingURLCount: 1,
		},
	}
}

func TestStoreInvariantsValid(t *testing.T) {
	snaps := []domain.Snapshot{validSnapshot("snap-1"), validSnapshot("snap-2")}
	if err := StoreInvariants(snaps); err != nil {
		t.Errorf("StoreInvariants() unexpected error: %v", err)
	}
	if err := StoreInvariants(nil); err != nil {
		t.Errorf("StoreInvariants(nil) unexpected error: %v", err)
	}
}

func TestStoreInvariantsDuplicateID(t *testing.T) {
	snaps := []domain.Snapshot{validSnapshot("snap-1"), validSnapshot("snap-1")}
	if err := StoreInvariants(snaps); err == nil {
		t.Error("StoreInvariants() expected duplicate-ID error")
	}
}

func TestStoreInvariantsDuplicateSlug(t *testing.T) {
	s := validSnapshot("snap-1")
	s.URLs = append(s.URLs, s.URLs[0])
	if err := StoreInvariants([]domain.Snapshot{s}); err == nil {
		t.Error("StoreInvariants() expected duplicate-slug error")
	}
}

func TestStoreInvariantsTotalsMismatch(t *testing.T) {
	s := validSnapshot("snap-1")
	s.Totals.TotalProfit = 12345
	if err := StoreInvariants([]domain.Snapshot{s}); err == nil {
		t.Error("StoreInvariants() expected totals mismatch error")
	}
}

func TestStoreInvariantsBadDate(t *testing.T) {
	s := validSnapshot("snap-1")
	s.Date = "2025-3-1"
	if err := StoreInvariants([]domain.Snapshot{s}); err == nil {
		t.Error("StoreInvariants() expected date format error")
	}
}
