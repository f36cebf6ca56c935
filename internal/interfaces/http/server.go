// Package http serves the read-only operational surface: liveness and
// Prometheus metrics. It never exposes pipeline controls.
package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/mirrorx/tokenradar/internal/telemetry/metrics"
)

// HealthSource reports the pipeline's view of its own liveness.
type HealthSource func() HealthStatus

// HealthStatus is the /health response body.
type HealthStatus struct {
	Status        string    `json:"status"`
	LastCycleAt   time.Time `json:"last_cycle_at"`
	LastCycleOK   bool      `json:"last_cycle_ok"`
	TrackedIDs    int       `json:"tracked_ids"`
	ActiveProfile string    `json:"active_profile"`
}

// Server is the ops HTTP server.
type Server struct {
	server *http.Server
}

// NewServer wires /health and /metrics on the given address.
func NewServer(addr string, reg *metrics.Registry, health HealthSource) *Server {
	router := mux.NewRouter()

	router.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		status := health()
		code := http.StatusOK
		if status.Status != "ok" {
			code = http.StatusServiceUnavailable
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		json.NewEncoder(w).Encode(status) //nolint:errcheck
	}).Methods("GET")

	router.Handle("/metrics", promhttp.HandlerFor(reg.Gatherer(), promhttp.HandlerOpts{})).Methods("GET")

	return &Server{
		server: &http.Server{
			Addr:         addr,
			Handler:      router,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
	}
}

// Start serves until the context ends, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) {
	go func() {
		log.Info().Str("addr", s.server.Addr).Msg("Ops server listening")
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("Ops server failed")
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.server.Shutdown(shutdownCtx); err != nil {
			log.Warn().Err(err).Msg("Ops server shutdown not clean")
		}
	}()
}
