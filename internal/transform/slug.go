// Package transform provides slug normalization and deterministic-ish
// identifier generation for snapshots.
package transform

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// NormalizeSlug trims whitespace and strips one leading and one trailing
// slash. Idempotent: applying it twice yields the same result as once.
// Examples: "/foo/" → "foo", "foo" → "foo", "/" → "".
func NormalizeSlug(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "/")
	s = strings.TrimSuffix(s, "/")
	return s
}

// SlugFromURL extracts the normalized path slug from a full landing-page
// URL by stripping the scheme and host, then normalizing. A bare host with
// no path yields the empty slug.
// Example: "https://site.com/hello/" → "hello".
func SlugFromURL(u string) string {
	s := strings.TrimSpace(u)
	for _, scheme := range []string{"https://", "http://"} {
		if strings.HasPrefix(s, scheme) {
			s = s[len(scheme):]
			if idx := strings.Index(s, "/"); idx >= 0 {
				s = s[idx:]
			} else {
				s = ""
			}
			break
		}
	}
	return NormalizeSlug(s)
}

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// SlugifyLabel converts a snapshot label to a filename-safe slug.
// Examples: "March Import" → "march-import", "café stats" → "cafe-stats".
// Labels with no usable characters fall back to "snapshot".
func SlugifyLabel(label string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	normalized, _, err := transform.String(t, label)
	if err != nil {
		normalized = label
	}

	slug := strings.ToLower(normalized)
	slug = nonAlnum.ReplaceAllString(slug, "-")
	slug = strings.Trim(slug, "-")

	if slug == "" {
		return "snapshot"
	}
	return slug
}

// NewSnapshotID creates a unique snapshot identifier derived from the
// creation instant plus a random fragment.
// Format: "snap-YYYYMMDDTHHMMSS-{8 hex chars}".
func NewSnapshotID(now time.Time) string {
	frag := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("snap-%s-%s", now.UTC().Format("20060102T150405"), frag)
}
