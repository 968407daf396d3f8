// Package content extracts typed rows from the content-revenue CSV export.
package content

import (
	"strings"

	"github.com/rumor-ml/commons.systems/adrecon/internal/csvtext"
	"github.com/rumor-ml/commons.systems/adrecon/internal/domain"
	"github.com/rumor-ml/commons.systems/adrecon/internal/parser"
	"github.com/rumor-ml/commons.systems/adrecon/internal/transform"
)

// Extractor implements content-revenue CSV parsing with a stateless design.
type Extractor struct{}

var instance = &Extractor{}

// New returns the shared content extractor instance.
func New() *Extractor {
	return instance
}

// Name returns the extractor identifier
func (e *Extractor) Name() string {
	return "content"
}

// canonicalHeader lowercases a header cell and strips every
// non-alphanumeric rune, so "Fill Rate" and "fill_rate" both match
// "fillrate".
func canonicalHeader(h string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(h) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// CanExtract reports whether line 1 carries a slug column. The content
// export always has its header on the first line, so no header search
// happens here or in Extract.
func (e *Extractor) CanExtract(text string) bool {
	lines := csvtext.Lines(text)
	if len(lines) == 0 {
		return false
	}
	return headerIndex(csvtext.SplitLine(lines[0]), "slug") >= 0
}

func headerIndex(header []string, key string) int {
	for i, h := range header {
		if canonicalHeader(h) == key {
			return i
		}
	}
	return -1
}

// Extract parses the content CSV. The header is always line 1; data rows
// missing a slug are dropped silently.
func (e *Extractor) Extract(text string) parser.Result {
	lines := csvtext.Lines(text)
	if len(lines) == 0 {
		return parser.Result{}
	}

	header := csvtext.SplitLine(lines[0])
	cols := make(map[string]int, len(header))
	for i, h := range header {
		if key := canonicalHeader(h); key != "" {
			cols[key] = i
		}
	}

	slugIdx, ok := cols["slug"]
	if !ok {
		return parser.Result{}
	}

	res := parser.Result{HeaderFound: true}
	for _, line := range lines[1:] {
		fields := csvtext.SplitLine(line)
		field := func(key string) string {
			idx, ok := cols[key]
			if !ok || idx >= len(fields) {
				return ""
			}
			return fields[idx]
		}
		num := func(key string) float64 {
			n, warn := csvtext.ToNumberWarn(field(key))
			if warn {
				res.Warnings++
			}
			return n
		}

		if slugIdx >= len(fields) {
			continue
		}
		slug := transform.NormalizeSlug(fields[slugIdx])
		if slug == "" {
			continue
		}

		row := domain.ContentRow{
			Slug:               slug,
			Views:              int(num("views")),
			Revenue:            num("revenue"),
			RPM:                num("rpm"),
			CPM:                num("cpm"),
			Viewability:        num("viewability"),
			FillRate:           num("fillrate"),
			ImpressionsPerView: num(impressionsKey(cols)),
		}
		res.ContentRows = append(res.ContentRows, row)
	}

	res.RowCount = len(res.ContentRows)
	return res
}

// impressionsKey picks whichever impressions-per-view header variant the
// export used ("Impressions per Gap View", "Impressions/View", ...).
func impressionsKey(cols map[string]int) string {
	for key := range cols {
		if strings.HasPrefix(key, "impressionsper") {
			return key
		}
	}
	return "impressionsperview"
}
