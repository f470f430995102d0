// Package debugserver mounts an optional, opt-in HTTP surface for inspecting
// a running engine. It never exposes the key/value API itself, only
// Prometheus metrics and a point-in-time stats dump, so the storage engine
// keeps its no-network-protocol boundary.
package debugserver

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mnohosten/lsmkv/pkg/lsm"
)

// statsSource is the subset of *lsm.Engine the debug server depends on,
// narrowed so tests can stand in a fake without opening a real engine.
type statsSource interface {
	Stats() map[string]interface{}
	Metrics() *lsm.Metrics
}

// Server is a small read-only HTTP surface over a running engine.
type Server struct {
	engine  statsSource
	router  *chi.Mux
	httpSrv *http.Server
}

// New builds a debug server bound to addr. The engine is not opened or
// closed by the server; the caller owns its lifecycle.
func New(addr string, engine statsSource) *Server {
	s := &Server{
		engine: engine,
		router: chi.NewRouter(),
	}

	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.Recoverer)

	s.router.Handle("/metrics", promhttp.HandlerFor(engine.Metrics().Registry(), promhttp.HandlerOpts{}))
	s.router.Get("/stats", s.handleStats)

	s.httpSrv = &http.Server{
		Addr:    addr,
		Handler: s.router,
	}
	return s
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.engine.Stats()); err != nil {
		http.Error(w, fmt.Sprintf("encode stats: %v", err), http.StatusInternalServerError)
	}
}

// ListenAndServe starts the server and blocks until it stops or errors.
func (s *Server) ListenAndServe() error {
	return s.httpSrv.ListenAndServe()
}

// Handler exposes the underlying router, e.g. for httptest.NewServer.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Close shuts the server down immediately, without waiting for in-flight
// requests to drain.
func (s *Server) Close() error {
	return s.httpSrv.Close()
}
