// Package output renders reconciled data as CSV for spreadsheet workflows.
//
// Every field is double-quote wrapped regardless of content, and the column
// order of each export variant is fixed — downstream spreadsheets reference
// columns by position. Exports reproduce the values computed during
// reconciliation or aggregation; nothing is re-derived here.
package output

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/rumor-ml/commons.systems/adrecon/internal/aggregate"
	"github.com/rumor-ml/commons.systems/adrecon/internal/domain"
)

var snapshotHeader = []string{
	"Slug", "Status", "Views", "Revenue", "RPM", "CPM", "Viewability",
	"Fill Rate", "Impressions/View", "Campaigns", "Clicks", "Impressions",
	"Cost (source)", "Cost (target)", "Revenue/Click", "Cost/Click",
	"ROI %", "Profit",
}

var rangeHeader = []string{
	"Slug", "Status", "Trend", "Appearances", "Months Active", "Revenue",
	"Cost (source)", "Cost (target)", "Clicks", "Impressions",
	"Revenue/Click", "Cost/Click", "ROI %", "Profit", "Campaigns",
}

// Snapshot renders every URL of a snapshot, one row each, in snapshot order.
func Snapshot(snap domain.Snapshot) string {
	rows := make([][]string, 0, len(snap.URLs)+1)
	rows = append(rows, snapshotHeader)
	for _, u := range snap.URLs {
		rows = append(rows, snapshotRow(u, true))
	}
	return render(rows)
}

// StatusBucket renders only the URLs with the given status. The status
// column is dropped: the bucket is a single status by construction.
func StatusBucket(snap domain.Snapshot, status domain.Status) string {
	header := make([]string, 0, len(snapshotHeader)-1)
	for _, h := range snapshotHeader {
		if h != "Status" {
			header = append(header, h)
		}
	}

	rows := [][]string{header}
	for _, u := range snap.URLs {
		if u.Status == status {
			rows = append(rows, snapshotRow(u, false))
		}
	}
	return render(rows)
}

// Range renders an aggregated date-range result, one row per RangeURL.
func Range(res aggregate.RangeResult) string {
	rows := make([][]string, 0, len(res.URLs)+1)
	rows = append(rows, rangeHeader)
	for _, u := range res.URLs {
		rows = append(rows, []string{
			u.Slug,
			string(u.Status),
			string(u.Trend),
			itoa(u.Appearances),
			strings.Join(u.MonthsActive, "; "),
			money(u.Revenue),
			money(u.CostSource),
			money(u.CostTarget),
			itoa(u.Clicks),
			itoa(u.Impressions),
			money(u.RevenuePerClick),
			money(u.CostPerClick),
			percent(u.ROI),
			money(u.Profit),
			strings.Join(u.Campaigns, "; "),
		})
	}
	return render(rows)
}

func snapshotRow(u domain.ReconciledURL, withStatus bool) []string {
	row := []string{u.Slug}
	if withStatus {
		row = append(row, string(u.Status))
	}
	return append(row,
		itoa(u.Views),
		money(u.Revenue),
		money(u.RPM),
		money(u.CPM),
		percent(u.Viewability),
		percent(u.FillRate),
		money(u.ImpressionsPerView),
		strings.Join(u.Campaigns, "; "),
		itoa(u.Clicks),
		itoa(u.Impressions),
		money(u.CostSource),
		money(u.CostTarget),
		money(u.RevenuePerClick),
		money(u.CostPerClick),
		percent(u.ROI),
		money(u.Profit),
	)
}

// render joins rows into CSV text with every field quoted. Embedded quotes
// are doubled per RFC 4180 so spreadsheet imports stay intact.
func render(rows [][]string) string {
	var b strings.Builder
	for i, row := range rows {
		if i > 0 {
			b.WriteByte('\n')
		}
		for j, field := range row {
			if j > 0 {
				b.WriteByte(',')
			}
			b.WriteByte('"')
			b.WriteString(strings.ReplaceAll(field, `"`, `""`))
			b.WriteByte('"')
		}
	}
	return b.String()
}

func itoa(n int) string {
	return strconv.Itoa(n)
}

// money formats a decimal with the 2-place precision used for currency.
func money(f float64) string {
	return fmt.Sprintf("%.2f", f)
}

// percent formats with the 1-place precision used for percentages.
func percent(f float64) string {
	return fmt.Sprintf("%.1f", f)
}
