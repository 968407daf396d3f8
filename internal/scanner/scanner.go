// Package scanner finds and classifies CSV exports under a directory so the
// CLI can import a content/spend pair without the caller naming both files.
package scanner

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rumor-ml/commons.systems/adrecon/internal/registry"
)

// Scanner walks a directory tree and classifies CSV files
type Scanner struct {
	rootDir  string
	registry *registry.Registry
}

// New creates a new scanner for the given root directory
func New(rootDir string, reg *registry.Registry) *Scanner {
	return &Scanner{rootDir: rootDir, registry: reg}
}

// ScanResult represents a found file with its detected kind
type ScanResult struct {
	Path string
	Kind string // extractor name, or "" when no extractor matched
}

// Pairing is the outcome of a scan: the newest file of each kind plus
// everything the registry could not place.
type Pairing struct {
	ContentPath  string
	SpendPath    string
	Unclassified []string
}

// Scan walks the directory tree and classifies every CSV file it finds.
func (s *Scanner) Scan() ([]ScanResult, error) {
	var results []ScanResult

	rootDir := s.expandHome(s.rootDir)

	err := filepath.Walk(rootDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		if strings.ToLower(filepath.Ext(path)) != ".csv" {
			return nil
		}

		data, readErr := os.ReadFile(path)
		if readErr != nil {
			return fmt.Errorf("read %s: %w", path, readErr)
		}

		kind := ""
		if extractor, detectErr := s.registry.Detect(string(data)); detectErr == nil {
			kind = extractor.Name()
		}

		results = append(results, ScanResult{Path: path, Kind: kind})
		return nil
	})

	if err != nil {
		return nil, fmt.Errorf("scan failed: %w", err)
	}

	return results, nil
}

// Pair picks the content and spend file to import from scan results. When a
// kind has several candidates the lexicographically last file name wins,
// which favors date-suffixed exports like report-2025-03.csv.
func Pair(results []ScanResult) (Pairing, error) {
	var pairing Pairing

	for _, r := range results {
		switch r.Kind {
		case "content":
			if pairing.ContentPath == "" || base(r.Path) > base(pairing.ContentPath) {
				pairing.ContentPath = r.Path
			}
		case "adspend":
			if pairing.SpendPath == "" || base(r.Path) > base(pairing.SpendPath) {
				pairing.SpendPath = r.Path
			}
		default:
			pairing.Unclassified = append(pairing.Unclassified, r.Path)
		}
	}
	sort.Strings(pairing.Unclassified)

	if pairing.ContentPath == "" {
		return pairing, fmt.Errorf("no content CSV found")
	}
	if pairing.SpendPath == "" {
		return pairing, fmt.Errorf("no ad spend CSV found")
	}
	return pairing, nil
}

func base(path string) string {
	return filepath.Base(path)
}

// expandHome expands ~ to home directory
func (s *Scanner) expandHome(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, path[2:])
	}
	return path
}
