// Copyright (c) 2025 Lux Partners Limited
// SPDX-License-Identifier: MIT

// Package api exposes query results over REST and websocket. It is a thin
// consumer of the claims pipeline: it holds the latest report and registry
// snapshot and serves them; all computation lives in the claims package.
package api

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"

	"github.com/moveyield/claimscan/claims"
	"github.com/moveyield/claimscan/market"
	"github.com/moveyield/claimscan/registry"
	"github.com/moveyield/claimscan/sui"
)

// Server serves claim query results.
type Server struct {
	sim        *claims.Simulator
	reader     *market.Reader
	discoverer *registry.Discoverer
	hub        *Hub
	router     *mux.Router

	mu       sync.RWMutex
	snapshot *registry.Snapshot
	report   *claims.Report
}

// NewServer wires a server around the given pipeline pieces and an initial
// registry snapshot.
func NewServer(sim *claims.Simulator, reader *market.Reader, disc *registry.Discoverer, snap *registry.Snapshot) *Server {
	s := &Server{
		sim:        sim,
		reader:     reader,
		discoverer: disc,
		hub:        NewHub(),
		router:     mux.NewRouter(),
		snapshot:   snap,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")

	api := s.router.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/results", s.handleResults).Methods("GET")
	api.HandleFunc("/results/{address}", s.handleAddressResults).Methods("GET")
	api.HandleFunc("/registry", s.handleRegistry).Methods("GET")
	api.HandleFunc("/query", s.handleQuery).Methods("POST")
	api.HandleFunc("/registry/refresh", s.handleRefresh).Methods("POST")

	s.router.HandleFunc("/ws", s.hub.handleWS)
}

// Handler returns the HTTP handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start runs the hub and blocks serving HTTP until the listener fails.
func (s *Server) Start(ctx context.Context, listen string) error {
	go s.hub.Run(ctx)

	srv := &http.Server{
		Addr:         listen,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	log.Printf("api: listening on %s", listen)
	err := srv.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Snapshot returns the current registry snapshot.
func (s *Server) Snapshot() *registry.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot
}

// SetReport stores a report produced outside the server (the CLI's initial
// run) so it is immediately servable.
func (s *Server) SetReport(r *claims.Report) {
	s.mu.Lock()
	s.report = r
	s.mu.Unlock()
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("api: encode response: %v", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleResults(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	report := s.report
	s.mu.RUnlock()
	if report == nil {
		s.writeError(w, http.StatusNotFound, "no query has run yet")
		return
	}
	s.writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleAddressResults(w http.ResponseWriter, r *http.Request) {
	address := mux.Vars(r)["address"]

	s.mu.RLock()
	report := s.report
	s.mu.RUnlock()
	if report == nil {
		s.writeError(w, http.StatusNotFound, "no query has run yet")
		return
	}

	rows, ok := report.Results[address]
	if !ok {
		// A failed simulation and a zero-balance address both land here;
		// the failed flag is the only distinction offered.
		failed := false
		for _, f := range report.Failed {
			if f == address {
				failed = true
				break
			}
		}
		s.writeJSON(w, http.StatusOK, map[string]interface{}{
			"address": address,
			"rows":    []claims.Row{},
			"failed":  failed,
		})
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"address": address,
		"rows":    rows,
		"failed":  false,
	})
}

// handleRegistry serves the lookup maps with display names, for
// informational rendering.
func (s *Server) handleRegistry(w http.ResponseWriter, r *http.Request) {
	snap := s.Snapshot()

	markets := snap.Markets()
	names := make(map[string]string, len(markets))
	for asset := range markets {
		names[asset] = sui.DisplayName(asset)
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"markets":  markets,
		"decimals": snap.DecimalsMap(),
		"names":    names,
	})
}

type queryRequest struct {
	Addresses []string `json:"addresses"`
	Assets    []string `json:"assets"`
}

// handleQuery runs a query synchronously and returns the report. Progress is
// streamed to websocket subscribers as each address completes.
func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "malformed request: "+err.Error())
		return
	}

	agg := claims.NewAggregator(s.sim, s.reader, s.Snapshot())
	agg.OnProgress = func(addr string, rows []claims.Row, err error) {
		msg := Message{Type: "address_result", Address: addr, Rows: rows}
		if err != nil {
			msg.Type = "address_failed"
			msg.Error = err.Error()
		}
		s.hub.Broadcast(msg)
	}

	report, err := agg.Run(r.Context(), req.Addresses, req.Assets)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.SetReport(report)
	s.writeJSON(w, http.StatusOK, report)
}

// handleRefresh rediscovers the registry and merges the result over the
// current snapshot, new entries winning.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Assets []string `json:"assets"`
	}
	// An empty body is a plain refresh with no decimal candidates.
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
		s.writeError(w, http.StatusBadRequest, "malformed request: "+err.Error())
		return
	}

	fresh := s.discoverer.Discover(r.Context(), req.Assets)

	s.mu.Lock()
	s.snapshot = s.snapshot.Merge(fresh)
	snap := s.snapshot
	s.mu.Unlock()

	s.writeJSON(w, http.StatusOK, map[string]int{
		"markets":  len(snap.Markets()),
		"decimals": len(snap.DecimalsMap()),
	})
}
