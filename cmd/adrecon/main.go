package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/rumor-ml/commons.systems/adrecon/internal/config"
	"github.com/rumor-ml/commons.systems/adrecon/internal/dedup"
	"github.com/rumor-ml/commons.systems/adrecon/internal/domain"
	"github.com/rumor-ml/commons.systems/adrecon/internal/output"
	"github.com/rumor-ml/commons.systems/adrecon/internal/parsers/adspend"
	"github.com/rumor-ml/commons.systems/adrecon/internal/parsers/content"
	"github.com/rumor-ml/commons.systems/adrecon/internal/reconcile"
	"github.com/rumor-ml/commons.systems/adrecon/internal/registry"
	"github.com/rumor-ml/commons.systems/adrecon/internal/scanner"
	"github.com/rumor-ml/commons.systems/adrecon/internal/server"
	"github.com/rumor-ml/commons.systems/adrecon/internal/storage"
	"github.com/rumor-ml/commons.systems/adrecon/internal/store"
	"github.com/rumor-ml/commons.systems/adrecon/internal/transform"
	"github.com/rumor-ml/commons.systems/adrecon/internal/ui"
	"github.com/rumor-ml/commons.systems/adrecon/internal/validate"
)

const (
	version = "0.1.0"
)

var (
	// Global flags
	versionFlag = flag.Bool("version", false, "Show version")
	configFile  = flag.String("config", "", "YAML config file")
	dataPath    = flag.String("data", "", "SQLite data file (default adrecon.db)")
	verbose     = flag.Bool("verbose", false, "Show detailed logs")

	// Import flags
	contentFile = flag.String("content", "", "Content revenue CSV file")
	spendFile   = flag.String("spend", "", "Ad spend CSV file")
	inputDir    = flag.String("input", "", "Directory to scan for a content/spend CSV pair")
	label       = flag.String("label", "", "Snapshot label (default derived from import time)")
	date        = flag.String("date", "", "Snapshot date, YYYY-MM-DD (default today)")
	period      = flag.String("period", "", "Reporting period: daily, weekly, monthly, bi-monthly, quarterly, yearly")
	rateFlag    = flag.Float64("rate", 0, "Exchange rate override, source units per target unit")
	exportCSV   = flag.Bool("export", false, "Write the snapshot CSV next to the data file")
	dryRun      = flag.Bool("dry-run", false, "Parse and reconcile without persisting")

	// Server flags
	serve = flag.Bool("serve", false, "Run the HTTP API server")
	port  = flag.Int("port", 0, "HTTP port (default 8080)")
)

func main() {
	flag.Usage = func() {
		fmt.Fprint(os.Stderr, `adrecon - Content revenue vs ad spend reconciliation

Usage:
  adrecon [flags]

Flags:
`)
		flag.PrintDefaults()
		fmt.Fprint(os.Stderr, `
Examples:
  # Import one content/spend CSV pair
  adrecon -content revenue.csv -spend ads.csv -label "March" -date 2025-03-01

  # Scan a directory for the newest pair
  adrecon -input ~/reports -export

  # Preview without writing
  adrecon -content revenue.csv -spend ads.csv -dry-run -verbose

  # Run the API server
  adrecon -serve -port 8080 -data adrecon.db

`)
	}

	flag.Parse()

	if *versionFlag {
		fmt.Printf("adrecon version %s\n", version)
		os.Exit(0)
	}

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	cfg, err := config.Load(*configFile)
	if err != nil {
		return err
	}
	// Explicit flags beat config and environment.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "rate":
			cfg.ExchangeRate = *rateFlag
		case "port":
			cfg.Port = *port
		case "data":
			cfg.DataPath = *dataPath
		}
	})
	if err := cfg.Validate(); err != nil {
		return err
	}

	if *serve {
		return runServer(ctx, cfg)
	}
	return runImport(ctx, cfg)
}

func runServer(ctx context.Context, cfg config.Config) error {
	blob, err := storage.OpenSQLite(cfg.DataPath)
	if err != nil {
		return fmt.Errorf("open data file %s: %w", cfg.DataPath, err)
	}

	srv, err := server.New(ctx, blob)
	if err != nil {
		blob.Close()
		return err
	}
	defer srv.Close()

	addr := fmt.Sprintf(":%d", cfg.Port)
	log.Printf("adrecon listening on %s (data: %s)", addr, cfg.DataPath)
	return http.ListenAndServe(addr, srv.Handler())
}

func runImport(ctx context.Context, cfg config.Config) error {
	if *inputDir == "" && *contentFile == "" && *spendFile == "" {
		return errors.New("nothing to import: pass -content/-spend files or -input directory")
	}
	if *inputDir != "" && (*contentFile != "" || *spendFile != "") {
		return errors.New("-input cannot be combined with -content/-spend")
	}
	if *date != "" {
		if err := validate.Date(*date); err != nil {
			return err
		}
	}
	if *period != "" {
		if err := validate.Period(*period); err != nil {
			return err
		}
	}
	if err := validate.Rate(cfg.ExchangeRate); err != nil {
		return err
	}

	if !*verbose {
		ui.Header("Reconciling Revenue and Ad Spend")
		ui.Step(1, 4, "Reading input files")
	}

	contentText, spendText, err := readInputs()
	if err != nil {
		return err
	}

	if !*verbose {
		ui.Step(2, 4, "Parsing CSV exports")
	} else {
		fmt.Fprintf(os.Stderr, "Parsing content CSV (%d bytes), spend CSV (%d bytes)\n",
			len(contentText), len(spendText))
	}

	contentResult := content.New().Extract(contentText)
	spendResult := adspend.New().Extract(spendText)

	if contentText != "" && !contentResult.HeaderFound {
		ui.Warning("Content CSV header not recognized; 0 rows extracted")
	}
	if spendText != "" && !spendResult.HeaderFound {
		ui.Warning("Ad spend CSV markers not found; 0 rows extracted")
	}
	if w := contentResult.Warnings + spendResult.Warnings; w > 0 && *verbose {
		fmt.Fprintf(os.Stderr, "%d numeric cells coerced to zero\n", w)
	}

	if !*verbose {
		ui.Step(3, 4, "Reconciling URLs")
	}

	snap, err := reconcile.Build(contentResult.ContentRows, spendResult.SpendRows, cfg.ExchangeRate, reconcile.Meta{
		Label:  *label,
		Date:   *date,
		Period: domain.Period(*period),
	})
	if err != nil {
		return err
	}

	if *verbose {
		fmt.Fprintf(os.Stderr, "Reconciled %d URLs (%d with spend), profit %.2f\n",
			snap.Totals.URLCount, snap.Totals.SpendingURLCount, snap.Totals.TotalProfit)
	}

	if *dryRun {
		fmt.Printf("Dry run complete. Would import %d content rows and %d spend rows into snapshot %q (%s, %s).\n",
			contentResult.RowCount, spendResult.RowCount, snap.Label, snap.Date, snap.Period)
		return nil
	}

	if !*verbose {
		ui.Step(4, 4, "Persisting snapshot")
	}

	blob, err := storage.OpenSQLite(cfg.DataPath)
	if err != nil {
		return fmt.Errorf("open data file %s: %w", cfg.DataPath, err)
	}
	defer blob.Close()

	st := store.New()
	if err := st.Load(ctx, blob); err != nil {
		return err
	}
	imports, err := dedup.Load(ctx, blob)
	if err != nil {
		return err
	}

	fingerprint := dedup.Fingerprint(contentText, spendText)
	if rec, seen := imports.Check(fingerprint); seen {
		ui.Warning(fmt.Sprintf("These exact files were imported before (snapshot %s, %s); importing anyway",
			rec.SnapshotID, rec.FirstSeen.Format(time.RFC3339)))
	}

	st.AddFront(snap)
	if err := st.Save(ctx, blob); err != nil {
		return fmt.Errorf("persist snapshot: %w", err)
	}
	imports.Observe(fingerprint, snap.ID, snap.CreatedAt)
	if err := imports.Save(ctx, blob); err != nil {
		fmt.Fprintf(os.Stderr, "WARNING: could not persist import fingerprints: %v\n", err)
	}

	if *exportCSV {
		name := transform.SlugifyLabel(snap.Label) + ".csv"
		path := filepath.Join(filepath.Dir(cfg.DataPath), name)
		if err := os.WriteFile(path, []byte(output.Snapshot(snap)), 0644); err != nil {
			return fmt.Errorf("write export %s: %w", path, err)
		}
		if *verbose {
			fmt.Fprintf(os.Stderr, "Wrote export %s\n", path)
		} else {
			ui.Info(fmt.Sprintf("Export written to %s", path))
		}
	}

	if !*verbose {
		ui.Success(fmt.Sprintf("Snapshot %s saved: %d URLs, profit %.2f", snap.ID,
			snap.Totals.URLCount, snap.Totals.TotalProfit))
	} else {
		fmt.Fprintf(os.Stderr, "Snapshot %s saved (store now holds %d snapshots)\n", snap.ID, st.Len())
	}
	return nil
}

// readInputs returns the content and spend CSV texts, either from the
// explicitly named files or from a directory scan.
func readInputs() (contentText, spendText string, err error) {
	if *inputDir != "" {
		s := scanner.New(*inputDir, registry.New())
		results, err := s.Scan()
		if err != nil {
			return "", "", err
		}
		pairing, err := scanner.Pair(results)
		if err != nil {
			return "", "", fmt.Errorf("no usable CSV pair in %s: %w", *inputDir, err)
		}
		for _, p := range pairing.Unclassified {
			if *verbose {
				fmt.Fprintf(os.Stderr, "Skipping unrecognized CSV %s\n", p)
			}
		}
		if *verbose {
			fmt.Fprintf(os.Stderr, "Using content: %s\n", pairing.ContentPath)
			fmt.Fprintf(os.Stderr, "Using spend:   %s\n", pairing.SpendPath)
		}
		contentData, err := os.ReadFile(pairing.ContentPath)
		if err != nil {
			return "", "", fmt.Errorf("read content file: %w", err)
		}
		spendData, err := os.ReadFile(pairing.SpendPath)
		if err != nil {
			return "", "", fmt.Errorf("read spend file: %w", err)
		}
		return string(contentData), string(spendData), nil
	}

	if *contentFile != "" {
		data, err := os.ReadFile(*contentFile)
		if err != nil {
			return "", "", fmt.Errorf("read content file: %w", err)
		}
		contentText = string(data)
	}
	if *spendFile != "" {
		data, err := os.ReadFile(*spendFile)
		if err != nil {
			return "", "", fmt.Errorf("read spend file: %w", err)
		}
		spendText = string(data)
	}
	return contentText, spendText, nil
}
