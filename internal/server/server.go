// Package server exposes the ops HTTP surface: health, version, prometheus
// metrics and read-only progress reports.
package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/brk3/habitbot/internal/storage"
)

type Server struct {
	store storage.Store
	loc   *time.Location
	now   func() time.Time
}

func New(store storage.Store, loc *time.Location) *Server {
	if loc == nil {
		loc = time.Local
	}
	return &Server{store: store, loc: loc, now: time.Now}
}

func writeJSON(w http.ResponseWriter, code int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	return json.NewEncoder(w).Encode(v)
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)
	r.Use(metricsMiddleware)

	r.Get("/healthz", s.healthz)
	r.Get("/version", s.getVersionInfo)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/users/{chat_id}/report", s.getUserReport)
	return r
}
