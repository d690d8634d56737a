// Package api is the HTTP surface of the gateway: endpoint handlers,
// request/response mapping, and the error-to-status translation.
package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ritunjaym/vector-catalog-service/internal/backend"
	"github.com/ritunjaym/vector-catalog-service/internal/health"
	"github.com/ritunjaym/vector-catalog-service/internal/middleware"
	"github.com/ritunjaym/vector-catalog-service/internal/search"
)

// Server maps the HTTP API onto the orchestrator and the admin
// pass-throughs.
type Server struct {
	orchestrator *search.Orchestrator
	index        *backend.IndexClient
	checker      *health.Checker
	limiter      *middleware.FixedWindowLimiter
	logger       *slog.Logger
}

// NewServer wires the handlers; all collaborators are injected.
func NewServer(
	orchestrator *search.Orchestrator,
	index *backend.IndexClient,
	checker *health.Checker,
	limiter *middleware.FixedWindowLimiter,
) *Server {
	return &Server{
		orchestrator: orchestrator,
		index:        index,
		checker:      checker,
		limiter:      limiter,
		logger:       slog.Default().With("component", "api"),
	}
}

// Handler builds the full route tree. Health and metrics sit outside the
// rate limiter; everything under /api/v1 is admission-controlled.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()

	r.Use(middleware.CorrelationID)
	r.Use(middleware.RequestLogging)
	r.Use(s.recoverPanics)

	r.HandleFunc("/health/live", s.handleLive).Methods("GET")
	r.HandleFunc("/health/ready", s.handleReady).Methods("GET")
	r.Handle("/metrics", promhttp.Handler()).Methods("GET")

	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(s.limiter.Middleware)
	api.HandleFunc("/search", s.handleSearch).Methods("POST")
	api.HandleFunc("/index/info", s.handleIndexInfo).Methods("GET")
	api.HandleFunc("/index/reload", s.handleIndexReload).Methods("POST")
	api.HandleFunc("/cache/warmup", s.handleCacheWarmup).Methods("POST")
	api.HandleFunc("/cache", s.handleCacheInvalidate).Methods("DELETE")

	return r
}

// recoverPanics converts an uncaught panic into a 503 problem body with
// the correlation id instead of a bare 500.
func (s *Server) recoverPanics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.logger.Error("panic in handler", "path", r.URL.Path, "panic", rec)
				writeProblem(w, r, http.StatusServiceUnavailable, "Service Unavailable", "unexpected internal error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}
