package domain

import (
	"encoding/json"
	"testing"
	"time"
)

func TestValidateStatus(t *testing.T) {
	valid := []Status{StatusProfitable, StatusImproving, StatusLosing, StatusTurnOff}
	for _, s := range valid {
		if !ValidateStatus(s) {
			t.Errorf("ValidateStatus(%q) = false, want true", s)
		}
	}

	invalid := []Status{"", "PROFITABLE", "turnoff", "unknown"}
	for _, s := range invalid {
		if ValidateStatus(s) {
			t.Errorf("ValidateStatus(%q) = true, want false", s)
		}
	}
}

func TestValidatePeriod(t *testing.T) {
	valid := []Period{PeriodDaily, PeriodWeekly, PeriodMonthly, PeriodBiMonthly, PeriodQuarterly, PeriodYearly}
	for _, p := range valid {
		if !ValidatePeriod(p) {
			t.Errorf("ValidatePeriod(%q) = false, want true", p)
		}
	}

	if ValidatePeriod("bimonthly") {
		t.Error("ValidatePeriod(\"bimonthly\") = true, want false")
	}
	if ValidatePeriod("") {
		t.Error("ValidatePeriod(\"\") = true, want false")
	}
}

func TestTotalsAdd(t *testing.T) {
	a := Totals{ContentRevenue: 100, SpendSource: 870, SpendTarget: 10, Clicks: 5, Impressions: 50, TotalProfit: 90, URLCount: 2, SpendingURLCount: 1}
	b := Totals{ContentRevenue: 50, SpendSource: 435, SpendTarget: 5, Clicks: 3, Impressions: 30, TotalProfit: 45, URLCount: 1, SpendingURLCount: 1}

	a.Add(b)

	if a.ContentRevenue != 150 {
		t.Errorf("ContentRevenue = %v, want 150", a.ContentRevenue)
	}
	if a.SpendSource != 1305 {
		t.Errorf("SpendSource = %v, want 1305", a.SpendSource)
	}
	if a.Clicks != 8 || a.Impressions != 80 {
		t.Errorf("Clicks/Impressions = %d/%d, want 8/80", a.Clicks, a.Impressions)
	}
	if a.URLCount != 3 || a.SpendingURLCount != 2 {
		t.Errorf("URLCount/SpendingURLCount = %d/%d, want 3/2", a.URLCount, a.SpendingURLCount)
	}
}

func TestSnapshotMonth(t *testing.T) {
	tests := []struct {
		date string
		want string
	}{
		{"2025-03-15", "2025-03"},
		{"2025-12-01", "2025-12"},
		{"", ""},
		{"2025", "2025"},
	}

	for _, tt := range tests {
		s := Snapshot{Date: tt.date}
		if got := s.Month(); got != tt.want {
			t.Errorf("Month() for date %q = %q, want %q", tt.date, got, tt.want)
		}
	}
}

func TestSnapshotURL(t *testing.T) {
	s := Snapshot{URLs: []ReconciledURL{
		{Slug: "hello", Profit: 10},
		{Slug: "world", Profit: -5},
	}}

	u, ok := s.URL("world")
	if !ok {
		t.Fatal("URL(\"world\") not found")
	}
	if u.Profit != -5 {
		t.Errorf("Profit = %v, want -5", u.Profit)
	}

	if _, ok := s.URL("absent"); ok {
		t.Error("URL(\"absent\") found, want missing")
	}
}

func TestSnapshotJSONRoundTrip(t *testing.T) {
	snap := Snapshot{
		ID:        "snap-20250301T120000-abcd1234",
		Label:     "March import",
		Date:      "2025-03-01",
		Period:    PeriodMonthly,
		CreatedAt: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
		URLs: []ReconciledURL{{
			Slug:      "hello",
			Status:    StatusImproving,
			Revenue:   100,
			Campaigns: []string{"Campaign A", "Campaign B"},
			Clicks:    5,
			HasSpend:  true,
		}},
		Totals: Totals{ContentRevenue: 100, URLCount: 1, SpendingURLCount: 1},
	}

	data, err := json.Marshal(&snap)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	var got Snapshot
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}

	if got.ID != snap.ID || got.Date != snap.Date || got.Period != snap.Period {
		t.Errorf("round trip metadata mismatch: got %+v", got)
	}
	if len(got.URLs) != 1 || got.URLs[0].Slug != "hello" || len(got.URLs[0].Campaigns) != 2 {
		t.Errorf("round trip URLs mismatch: got %+v", got.URLs)
	}
}

func TestSettingsValidate(t *testing.T) {
	if err := DefaultSettings().Validate(); err != nil {
		t.Errorf("DefaultSettings().Validate() error = %v", err)
	}
	if DefaultSettings().ExchangeRate != 87 {
		t.Errorf("default rate = %v, want 87", DefaultSettings().ExchangeRate)
	}

	for _, rate := range []float64{0, -1} {
		if err := (Settings{ExchangeRate: rate}).Validate(); err == nil {
			t.Errorf("Validate() with rate %v expected error", rate)
		}
	}
}
