// Package handlers implements the HTTP API over the snapshot store:
// imports, rollup queries, CSV exports, and settings.
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/rumor-ml/commons.systems/adrecon/internal/aggregate"
	"github.com/rumor-ml/commons.systems/adrecon/internal/dedup"
	"github.com/rumor-ml/commons.systems/adrecon/internal/domain"
	"github.com/rumor-ml/commons.systems/adrecon/internal/output"
	"github.com/rumor-ml/commons.systems/adrecon/internal/parsers/adspend"
	"github.com/rumor-ml/commons.systems/adrecon/internal/parsers/content"
	"github.com/rumor-ml/commons.systems/adrecon/internal/reconcile"
	"github.com/rumor-ml/commons.systems/adrecon/internal/store"
	"github.com/rumor-ml/commons.systems/adrecon/internal/storage"
	"github.com/rumor-ml/commons.systems/adrecon/internal/transform"
	"github.com/rumor-ml/commons.systems/adrecon/internal/validate"
)

// APIHandler handles API requests. The store carries its own lock; the
// handler's mutex serializes import/settings mutations so the in-memory
// state and its persisted blob cannot diverge under concurrent writes.
type APIHandler struct {
	store *store.Store
	blob  storage.Blob

	mu       sync.Mutex
	settings domain.Settings
	imports  *dedup.State
}

// NewAPIHandler creates a new API handler over loaded state.
func NewAPIHandler(st *store.Store, blob storage.Blob, settings domain.Settings, imports *dedup.State) *APIHandler {
	return &APIHandler{store: st, blob: blob, settings: settings, imports: imports}
}

// HealthCheck handles GET /health
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"})
}

// SnapshotSummary is the list-view projection of a snapshot: everything
// but the per-URL records.
type SnapshotSummary struct {
	ID        string        `json:"id"`
	Label     string        `json:"label"`
	Date      string        `json:"date"`
	Period    domain.Period `json:"period"`
	CreatedAt time.Time     `json:"createdAt"`
	Totals    domain.Totals `json:"totals"`
}

// ListSnapshots handles GET /api/snapshots
func (h *APIHandler) ListSnapshots(w http.ResponseWriter, r *http.Request) {
	snaps := h.store.List()
	summaries := make([]SnapshotSummary, len(snaps))
	for i, s := range snaps {
		summaries[i] = SnapshotSummary{
			ID:        s.ID,
			Label:     s.Label,
			Date:      s.Date,
			Period:    s.Period,
			CreatedAt: s.CreatedAt,
			Totals:    s.Totals,
		}
	}
	writeJSON(w, summaries)
}

// ImportRequest is the POST /api/snapshots body. Both CSV texts are
// optional individually: an empty side reconciles as zero-filled.
type ImportRequest struct {
	ContentCSV string `json:"contentCsv"`
	SpendCSV   string `json:"spendCsv"`
	Label      string `json:"label"`
	Date       string `json:"date"`
	Period     string `json:"period"`
}

// ImportReport carries parse diagnostics alongside the created snapshot.
type ImportReport struct {
	ContentRows     int    `json:"contentRows"`
	SpendRows       int    `json:"spendRows"`
	Warnings        int    `json:"warnings"`
	DuplicateImport bool   `json:"duplicateImport"`
	DuplicateOf     string `json:"duplicateOf,omitempty"`
	ContentMismatch bool   `json:"contentMismatch"`
	SpendMismatch   bool   `json:"spendMismatch"`
}

// ImportResponse is the POST /api/snapshots response body.
type ImportResponse struct {
	Snapshot domain.Snapshot `json:"snapshot"`
	Report   ImportReport    `json:"report"`
}

// ImportSnapshot handles POST /api/snapshots
func (h *APIHandler) ImportSnapshot(w http.ResponseWriter, r *http.Request) {
	var req ImportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON body", http.StatusBadRequest)
		return
	}
	if req.ContentCSV == "" && req.SpendCSV == "" {
		http.Error(w, "At least one of contentCsv, spendCsv is required", http.StatusBadRequest)
		return
	}
	if req.Date != "" {
		if err := validate.Date(req.Date); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	}
	if req.Period != "" {
		if err := validate.Period(req.Period); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	}

	contentResult := content.New().Extract(req.ContentCSV)
	spendResult := adspend.New().Extract(req.SpendCSV)

	h.mu.Lock()
	defer h.mu.Unlock()

	report := ImportReport{
		ContentRows:     contentResult.RowCount,
		SpendRows:       spendResult.RowCount,
		Warnings:        contentResult.Warnings + spendResult.Warnings,
		ContentMismatch: req.ContentCSV != "" && !contentResult.HeaderFound,
		SpendMismatch:   req.SpendCSV != "" && !spendResult.HeaderFound,
	}

	fingerprint := dedup.Fingerprint(req.ContentCSV, req.SpendCSV)
	if rec, seen := h.imports.Check(fingerprint); seen {
		report.DuplicateImport = true
		report.DuplicateOf = rec.SnapshotID
	}

	snap, err := reconcile.Build(contentResult.ContentRows, spendResult.SpendRows, h.settings.ExchangeRate, reconcile.Meta{
		Label:  req.Label,
		Date:   req.Date,
		Period: domain.Period(req.Period),
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	h.store.AddFront(snap)
	if err := h.store.Save(r.Context(), h.blob); err != nil {
		// Roll the in-memory add back so a retry starts clean.
		if rmErr := h.store.Remove(snap.ID); rmErr != nil {
			log.Printf("ERROR: rollback of %s failed: %v", snap.ID, rmErr)
		}
		log.Printf("ERROR: persist snapshots: %v", err)
		http.Error(w, "Failed to persist snapshot", http.StatusInternalServerError)
		return
	}

	h.imports.Observe(fingerprint, snap.ID, snap.CreatedAt)
	if err := h.imports.Save(r.Context(), h.blob); err != nil {
		// Fingerprint loss only weakens future duplicate warnings.
		log.Printf("WARN: persist import state: %v", err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(ImportResponse{Snapshot: snap, Report: report}); err != nil {
		log.Printf("ERROR: Failed to encode import response: %v", err)
	}
}

// GetSnapshot handles GET /api/snapshots/{id}
func (h *APIHandler) GetSnapshot(w http.ResponseWriter, r *http.Request) {
	snap, err := h.store.Get(r.PathValue("id"))
	if err != nil {
		http.Error(w, "Snapshot not found", http.StatusNotFound)
		return
	}
	writeJSON(w, snap)
}

// DeleteSnapshot handles DELETE /api/snapshots/{id}
func (h *APIHandler) DeleteSnapshot(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()

	id := r.PathValue("id")
	if err := h.store.Remove(id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			http.Error(w, "Snapshot not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Failed to delete snapshot", http.StatusInternalServerError)
		return
	}
	if err := h.store.Save(r.Context(), h.blob); err != nil {
		log.Printf("ERROR: persist snapshots after delete of %s: %v", id, err)
		http.Error(w, "Failed to persist deletion", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetTrend handles GET /api/trend
func (h *APIHandler) GetTrend(w http.ResponseWriter, r *http.Request) {
	buckets := aggregate.MonthlyTrend(h.store.List())
	if buckets == nil {
		buckets = []aggregate.MonthBucket{}
	}
	writeJSON(w, buckets)
}

// GetRange handles GET /api/range?from=&to=[&status=&q=&sort=]
// status/q/sort filter the URL list only; totals stay pre-filter.
func (h *APIHandler) GetRange(w http.ResponseWriter, r *http.Request) {
	from, to := r.URL.Query().Get("from"), r.URL.Query().Get("to")
	if err := validate.Date(from); err != nil {
		http.Error(w, fmt.Sprintf("from: %v", err), http.StatusBadRequest)
		return
	}
	if err := validate.Date(to); err != nil {
		http.Error(w, fmt.Sprintf("to: %v", err), http.StatusBadRequest)
		return
	}

	status := domain.Status(r.URL.Query().Get("status"))
	if status != "" && !domain.ValidateStatus(status) {
		http.Error(w, fmt.Sprintf("unknown status %q", status), http.StatusBadRequest)
		return
	}

	result := aggregate.DateRange(h.store.List(), from, to)
	result.URLs = aggregate.FilterRange(result.URLs, status, r.URL.Query().Get("q"), r.URL.Query().Get("sort"))
	writeJSON(w, result)
}

// GetHistory handles GET /api/history?slug=
func (h *APIHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	slug := transform.NormalizeSlug(r.URL.Query().Get("slug"))
	if slug == "" {
		http.Error(w, "slug parameter is required", http.StatusBadRequest)
		return
	}
	points := aggregate.URLHistory(h.store.List(), slug)
	if points == nil {
		points = []aggregate.HistoryPoint{}
	}
	writeJSON(w, points)
}

// ExportSnapshot handles GET /api/export/snapshots/{id}[?status=]
func (h *APIHandler) ExportSnapshot(w http.ResponseWriter, r *http.Request) {
	snap, err := h.store.Get(r.PathValue("id"))
	if err != nil {
		http.Error(w, "Snapshot not found", http.StatusNotFound)
		return
	}

	name := transform.SlugifyLabel(snap.Label)
	var body string
	if raw := r.URL.Query().Get("status"); raw != "" {
		status := domain.Status(raw)
		if !domain.ValidateStatus(status) {
			http.Error(w, fmt.Sprintf("unknown status %q", status), http.StatusBadRequest)
			return
		}
		body = output.StatusBucket(snap, status)
		name = name + "-" + string(status)
	} else {
		body = output.Snapshot(snap)
	}

	writeCSV(w, name+".csv", body)
}

// ExportRange handles GET /api/export/range?from=&to=
func (h *APIHandler) ExportRange(w http.ResponseWriter, r *http.Request) {
	from, to := r.URL.Query().Get("from"), r.URL.Query().Get("to")
	if err := validate.Date(from); err != nil {
		http.Error(w, fmt.Sprintf("from: %v", err), http.StatusBadRequest)
		return
	}
	if err := validate.Date(to); err != nil {
		http.Error(w, fmt.Sprintf("to: %v", err), http.StatusBadRequest)
		return
	}

	result := aggregate.DateRange(h.store.List(), from, to)
	writeCSV(w, fmt.Sprintf("range-%s-%s.csv", from, to), output.Range(result))
}

// GetSettings handles GET /api/settings
func (h *APIHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	settings := h.settings
	h.mu.Unlock()
	writeJSON(w, settings)
}

// PutSettings handles PUT /api/settings. Rate changes apply to future
// imports only; stored snapshots keep the rate they were created under.
func (h *APIHandler) PutSettings(w http.ResponseWriter, r *http.Request) {
	var settings domain.Settings
	if err := json.NewDecoder(r.Body).Decode(&settings); err != nil {
		http.Error(w, "Invalid JSON body", http.StatusBadRequest)
		return
	}
	if err := settings.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if err := store.SaveSettings(r.Context(), h.blob, settings); err != nil {
		log.Printf("ERROR: persist settings: %v", err)
		http.Error(w, "Failed to persist settings", http.StatusInternalServerError)
		return
	}
	h.settings = settings
	writeJSON(w, settings)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("ERROR: Failed to encode response: %v", err)
	}
}

func writeCSV(w http.ResponseWriter, filename, body string) {
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	if _, err := w.Write([]byte(body)); err != nil {
		log.Printf("ERROR: Failed to write CSV export: %v", err)
	}
}
