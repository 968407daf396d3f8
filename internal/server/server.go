// Package server wires the HTTP API: storage-backed state, routes, and
// middleware.
package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/rumor-ml/commons.systems/adrecon/internal/dedup"
	"github.com/rumor-ml/commons.systems/adrecon/internal/domain"
	"github.com/rumor-ml/commons.systems/adrecon/internal/handlers"
	"github.com/rumor-ml/commons.systems/adrecon/internal/middleware"
	"github.com/rumor-ml/commons.systems/adrecon/internal/storage"
	"github.com/rumor-ml/commons.systems/adrecon/internal/store"
)

// Server represents the reconciliation API server
type Server struct {
	blob storage.Blob
	mux  *http.ServeMux
}

// New creates a server over the given blob store, loading all persisted
// state up front. The server owns the blob afterwards; Close releases it.
func New(ctx context.Context, blob storage.Blob) (*Server, error) {
	st := store.New()
	if err := st.Load(ctx, blob); err != nil {
		return nil, fmt.Errorf("load snapshots: %w", err)
	}

	settings, err := store.LoadSettings(ctx, blob)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}

	imports, err := dedup.Load(ctx, blob)
	if err != nil {
		return nil, fmt.Errorf("load import state: %w", err)
	}

	s := &Server{
		blob: blob,
		mux:  http.NewServeMux(),
	}
	s.setupRoutes(st, settings, imports)
	return s, nil
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes(st *store.Store, settings domain.Settings, imports *dedup.State) {
	s.mux.HandleFunc("GET /health", handlers.HealthCheck)

	api := handlers.NewAPIHandler(st, s.blob, settings, imports)

	s.mux.HandleFunc("GET /api/snapshots", api.ListSnapshots)
	s.mux.HandleFunc("POST /api/snapshots", api.ImportSnapshot)
	s.mux.HandleFunc("GET /api/snapshots/{id}", api.GetSnapshot)
	s.mux.HandleFunc("DELETE /api/snapshots/{id}", api.DeleteSnapshot)

	s.mux.HandleFunc("GET /api/trend", api.GetTrend)
	s.mux.HandleFunc("GET /api/range", api.GetRange)
	s.mux.HandleFunc("GET /api/history", api.GetHistory)

	s.mux.HandleFunc("GET /api/export/snapshots/{id}", api.ExportSnapshot)
	s.mux.HandleFunc("GET /api/export/range", api.ExportRange)

	s.mux.HandleFunc("GET /api/settings", api.GetSettings)
	s.mux.HandleFunc("PUT /api/settings", api.PutSettings)
}

// Handler returns the HTTP handler
func (s *Server) Handler() http.Handler {
	return middleware.CORS(s.mux)
}

// Close closes the server resources
func (s *Server) Close() error {
	return s.blob.Close()
}
