// Package csvtext provides the low-level text handling shared by both CSV
// extractors: whole-text normalization, quote-aware line splitting, and
// tolerant numeric coercion.
//
// The splitter is deliberately not RFC 4180: a doubled quote inside a quoted
// field is left as-is, and quoted fields cannot span physical lines. Both
// export formats in scope never produce either construct.
package csvtext

import (
	"strconv"
	"strings"
)

// NormalizeText strips a leading byte-order mark, normalizes all line
// terminators to "\n", and trims surrounding whitespace from the whole text.
func NormalizeText(text string) string {
	text = strings.TrimPrefix(text, "\uFEFF")
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	return strings.TrimSpace(text)
}

// Lines returns the non-blank lines of normalized text, in order.
func Lines(text string) []string {
	var out []string
	for _, line := range strings.Split(NormalizeText(text), "\n") {
		if strings.TrimSpace(line) != "" {
			out = append(out, line)
		}
	}
	return out
}

// SplitLine splits one physical line on commas that fall outside
// double-quote-delimited spans. Each field is trimmed of surrounding
// whitespace; a field wrapped in one matching quote pair has that pair
// removed. Inner doubled quotes are not unescaped.
func SplitLine(line string) []string {
	var fields []string
	var b strings.Builder
	inQuotes := false

	for _, r := range line {
		switch {
		case r == '"':
			inQuotes = !inQuotes
			b.WriteRune(r)
		case r == ',' && !inQuotes:
			fields = append(fields, cleanField(b.String()))
			b.Reset()
		default:
			b.WriteRune(r)
		}
	}
	fields = append(fields, cleanField(b.String()))
	return fields
}

func cleanField(f string) string {
	f = strings.TrimSpace(f)
	if len(f) >= 2 && f[0] == '"' && f[len(f)-1] == '"' {
		f = strings.TrimSpace(f[1 : len(f)-1])
	}
	return f
}

// ToNumber coerces a currency/percentage-formatted cell to a number.
// Currency symbols, percent signs, quotes, commas, and whitespace are
// stripped; the literal placeholder "--" collapses to zero. Anything that
// still fails to parse yields zero. ToNumber never fails: malformed cells
// degrade silently rather than aborting an import.
func ToNumber(raw string) float64 {
	n, _ := ToNumberWarn(raw)
	return n
}

// ToNumberWarn is ToNumber plus a flag reporting whether a non-empty,
// non-placeholder cell was coerced to zero because it did not parse. The
// flag feeds diagnostic counters only; coercion itself still succeeds.
func ToNumberWarn(raw string) (float64, bool) {
	cleaned := strings.TrimSpace(raw)
	if cleaned == "" {
		return 0, false
	}

	replacer := strings.NewReplacer(
		"$", "", "₹", "", "%", "", `"`, "", "'", "", ",", "", " ", "", "\t", "",
	)
	cleaned = replacer.Replace(cleaned)
	if cleaned == "" || cleaned == "--" {
		return 0, false
	}

	n, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, true
	}
	return n, false
}
