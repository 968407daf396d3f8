// Package registry holds the built-in CSV extractors and sniffs which
// dialect a given text belongs to.
package registry

import (
	"fmt"

	"github.com/rumor-ml/commons.systems/adrecon/internal/parser"
	"github.com/rumor-ml/commons.systems/adrecon/internal/parsers/adspend"
	"github.com/rumor-ml/commons.systems/adrecon/internal/parsers/content"
)

// Registry holds all registered extractors
type Registry struct {
	extractors []parser.Extractor
}

// New creates a registry with all built-in extractors
func New() *Registry {
	return &Registry{
		extractors: []parser.Extractor{
			content.New(),
			adspend.New(),
		},
	}
}

// Register adds a custom extractor (for extensibility)
func (r *Registry) Register(e parser.Extractor) {
	r.extractors = append(r.extractors, e)
}

// Detect returns the first extractor whose CanExtract matches the text.
// The content extractor is consulted first: its check requires an exact
// slug header on line 1 and cannot false-positive on a spend export.
func (r *Registry) Detect(text string) (parser.Extractor, error) {
	for _, e := range r.extractors {
		if e.CanExtract(text) {
			return e, nil
		}
	}
	return nil, fmt.Errorf("no extractor recognizes this CSV")
}

// ListExtractors returns the names of all registered extractors
func (r *Registry) ListExtractors() []string {
	names := make([]string, len(r.extractors))
	for i, e := range r.extractors {
		names[i] = e.Name()
	}
	return names
}
