// Package server exposes the corpus database over HTTP. It owns routing,
// status mapping, and CORS; all corpus semantics live behind port.Database.
package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/xigt/sleipnir/internal/domain"
	"github.com/xigt/sleipnir/internal/port"
)

// Service is the HTTP face of a corpus database.
type Service struct {
	db         port.Database
	logger     *slog.Logger
	corsOrigin string
}

// New creates a Service. An empty corsOrigin disables CORS headers.
func New(db port.Database, logger *slog.Logger, corsOrigin string) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{db: db, logger: logger, corsOrigin: corsOrigin}
}

// Handler builds the router.
func (s *Service) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)
	if s.corsOrigin != "" {
		r.Use(s.cors)
	}

	r.Route("/v1", func(r chi.Router) {
		r.Get("/corpora", s.handleListCorpora)
		r.Post("/corpora", s.handleAddCorpus)
		r.Route("/corpora/{corpusID}", func(r chi.Router) {
			r.Get("/", s.handleGetCorpus)
			r.Delete("/", s.handleDeleteCorpus)
			r.Get("/summary", s.handleCorpusSummary)
			r.Get("/igts", s.handleGetIgts)
			r.Post("/igts", s.handleAddIgt)
			r.Get("/igts/{igtID}", s.handleGetIgt)
			r.Put("/igts/{igtID}", s.handleSetIgt)
			r.Delete("/igts/{igtID}", s.handleDeleteIgt)
		})
	})
	return r
}

func (s *Service) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start))
	})
}

func (s *Service) cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", s.corsOrigin)
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type,Accept,Authorization")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,OPTIONS")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Service) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("write response failed", "error", err)
	}
}

// writeError translates database error kinds into HTTP statuses:
// validation 400, not found 404, conflict 409, everything else 500.
func (s *Service) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrConflict):
		status = http.StatusConflict
	}
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "error", err)
	}
	s.writeJSON(w, status, map[string]string{"message": err.Error()})
}
