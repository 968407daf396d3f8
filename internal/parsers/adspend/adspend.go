// Package adspend extracts typed rows from the ad-spend campaign CSV export.
//
// The export puts an arbitrary report preamble before the header, and most
// export tools append summary footer lines. The header is therefore located
// by marker scan, and only lines beginning with "https://" are treated as
// data rows — footers never start with a URL scheme.
package adspend

import (
	"strings"

	"github.com/rumor-ml/commons.systems/adrecon/internal/csvtext"
	"github.com/rumor-ml/commons.systems/adrecon/internal/domain"
	"github.com/rumor-ml/commons.systems/adrecon/internal/parser"
)

const (
	markerLandingPage = "Landing page"
	markerCost        = "Cost"
	markerClicks      = "Clicks"

	dataPrefix = "https://"
)

// Column names matched exactly against the located header line.
const (
	colLandingPage = "Landing page"
	colCampaign    = "Campaign"
	colClicks      = "Clicks"
	colImpressions = "Impr."
	colCost        = "Cost"
)

// Extractor implements ad-spend CSV parsing with a stateless design.
type Extractor struct{}

var instance = &Extractor{}

// New returns the shared ad-spend extractor instance.
func New() *Extractor {
	return instance
}

// Name returns the extractor identifier
func (e *Extractor) Name() string {
	return "adspend"
}

// CanExtract reports whether a header line is locatable in the text.
func (e *Extractor) CanExtract(text string) bool {
	return findHeader(csvtext.Lines(text)) >= 0
}

// findHeader locates the header line. A line containing all three required
// markers wins; this disambiguates the real header from a report title line
// that happens to contain one marker alone. Failing that, the first line
// containing the landing-page marker with more than five comma-separated
// fields is used. Returns -1 if no candidate exists.
func findHeader(lines []string) int {
	for i, line := range lines {
		if strings.Contains(line, markerLandingPage) &&
			strings.Contains(line, markerCost) &&
			strings.Contains(line, markerClicks) {
			return i
		}
	}
	for i, line := range lines {
		if strings.Contains(line, markerLandingPage) && len(csvtext.SplitLine(line)) > 5 {
			return i
		}
	}
	return -1
}

// Extract parses the spend CSV. An unlocatable header yields zero rows, not
// an error: an absent or mismatched file is a valid input state and the
// reconciliation proceeds content-only.
func (e *Extractor) Extract(text string) parser.Result {
	lines := csvtext.Lines(text)

	headerIdx := findHeader(lines)
	if headerIdx < 0 {
		return parser.Result{}
	}

	header := csvtext.SplitLine(lines[headerIdx])
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[h] = i
	}

	res := parser.Result{HeaderFound: true}
	for _, line := range lines[headerIdx+1:] {
		if !strings.HasPrefix(strings.TrimSpace(line), dataPrefix) {
			continue
		}

		fields := csvtext.SplitLine(line)
		field := func(name string) string {
			idx, ok := cols[name]
			if !ok || idx >= len(fields) {
				return ""
			}
			return fields[idx]
		}
		num := func(name string) float64 {
			n, warn := csvtext.ToNumberWarn(field(name))
			if warn {
				res.Warnings++
			}
			return n
		}

		row := domain.SpendRow{
			URL:         field(colLandingPage),
			Campaign:    field(colCampaign),
			Clicks:      int(num(colClicks)),
			Impressions: int(num(colImpressions)),
			Cost:        num(colCost),
		}
		res.SpendRows = append(res.SpendRows, row)
	}

	res.RowCount = len(res.SpendRows)
	return res
}
