package parser

import "github.com/rumor-ml/commons.systems/adrecon/internal/domain"

// Extractor is the strategy interface for the source-specific CSV
// extractors. Implementations are stateless and safe for concurrent use.
type Extractor interface {
	// Name returns the extractor identifier (e.g. "content", "adspend").
	Name() string

	// CanExtract reports whether the text looks like this extractor's
	// dialect. Used by the registry to auto-classify uploaded files.
	CanExtract(text string) bool

	// Extract parses the whole CSV text into typed rows. Extraction never
	// fails: an unlocatable header or all-malformed rows yield an empty
	// Result instead of an error (absent or garbled input is a valid state).
	Extract(text string) Result
}

// Result carries extracted rows plus the diagnostics callers need to tell
// "file not provided" apart from "non-empty file that parsed to nothing".
// Exactly one of ContentRows/SpendRows is populated, matching the extractor.
type Result struct {
	ContentRows []domain.ContentRow
	SpendRows   []domain.SpendRow

	// RowCount is the number of rows kept. A zero count for non-empty
	// input with HeaderFound=false signals a likely format mismatch.
	RowCount    int
	HeaderFound bool

	// Warnings counts non-empty numeric cells that coerced to zero.
	Warnings int
}
