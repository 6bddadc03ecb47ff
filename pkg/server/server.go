// Package server exposes the router over HTTP: POST /api/route runs the
// pipeline for a task, GET /api/skills lists the indexed documents. Handlers
// are stateless over the shared index snapshot store.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/faion-net/skillrouter/pkg/index"
	"github.com/faion-net/skillrouter/pkg/logger"
	"github.com/faion-net/skillrouter/pkg/router"
	"github.com/faion-net/skillrouter/pkg/types/routing"
)

const maxTaskBytes = 64 * 1024

// Server serves the routing API.
type Server struct {
	router   *mux.Router
	skills   router.SnapshotProvider
	pipeline *router.Router
	listen   string
	httpSrv  *http.Server
}

// RouteRequest is the POST /api/route payload.
type RouteRequest struct {
	Task       string `json:"task"`
	DomainHint string `json:"domain_hint,omitempty"`
}

// New creates a Server over the given snapshot provider and pipeline.
func New(listen string, snapshots router.SnapshotProvider, pipeline *router.Router) (*Server, error) {
	if listen == "" {
		return nil, errors.New("server needs a listen address")
	}
	if pipeline == nil {
		return nil, errors.New("server needs a router")
	}

	s := &Server{
		router:   mux.NewRouter(),
		skills:   snapshots,
		pipeline: pipeline,
		listen:   listen,
	}
	s.setupRoutes()
	return s, nil
}

func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/route", s.handleRoute).Methods("POST")
	api.HandleFunc("/skills", s.handleListSkills).Methods("GET")
	api.HandleFunc("/skills/{id}", s.handleGetSkill).Methods("GET")

	s.router.HandleFunc("/healthz", s.handleHealth).Methods("GET")

	s.router.Use(s.loggingMiddleware)
}

// Handler returns the HTTP handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves until ctx is canceled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	s.httpSrv = &http.Server{
		Addr:    s.listen,
		Handler: s.router,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	logger.G(ctx).WithField("listen", s.listen).Info("routing API listening")

	select {
	case err := <-errCh:
		return errors.Wrap(err, "serving routing API")
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return errors.Wrap(s.httpSrv.Shutdown(shutdownCtx), "shutting down routing API")
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log := logger.G(r.Context()).
			WithField("request_id", uuid.NewString()).
			WithField("method", r.Method).
			WithField("path", r.URL.Path)
		ctx := logger.WithLogger(r.Context(), log)

		start := time.Now()
		next.ServeHTTP(w, r.WithContext(ctx))
		log.WithField("duration", time.Since(start)).Debug("request handled")
	})
}

func (s *Server) handleRoute(w http.ResponseWriter, r *http.Request) {
	var req RouteRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxTaskBytes)).Decode(&req); err != nil {
		s.writeError(r.Context(), w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	var hint routing.Domain
	if req.DomainHint != "" {
		parsed, err := routing.ParseDomain(req.DomainHint)
		if err != nil {
			s.writeError(r.Context(), w, http.StatusBadRequest, "invalid domain hint", err)
			return
		}
		hint = parsed
	}

	decision, err := s.pipeline.Route(r.Context(), req.Task, hint)
	if err != nil {
		s.writeError(r.Context(), w, http.StatusInternalServerError, "routing failed", err)
		return
	}

	s.writeJSON(r.Context(), w, decision)
}

func (s *Server) handleListSkills(w http.ResponseWriter, r *http.Request) {
	snapshot := s.skills.Current()
	if snapshot == nil {
		s.writeError(r.Context(), w, http.StatusServiceUnavailable, "index not ready", nil)
		return
	}
	s.writeJSON(r.Context(), w, snapshot.All())
}

func (s *Server) handleGetSkill(w http.ResponseWriter, r *http.Request) {
	snapshot := s.skills.Current()
	if snapshot == nil {
		s.writeError(r.Context(), w, http.StatusServiceUnavailable, "index not ready", nil)
		return
	}

	id := mux.Vars(r)["id"]
	doc, err := snapshot.Get(id)
	if err != nil {
		if errors.Is(err, index.ErrNotFound) {
			s.writeError(r.Context(), w, http.StatusNotFound, "skill not found", nil)
			return
		}
		s.writeError(r.Context(), w, http.StatusInternalServerError, "lookup failed", err)
		return
	}
	s.writeJSON(r.Context(), w, doc)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := map[string]any{"status": "ok"}
	if snapshot := s.skills.Current(); snapshot != nil {
		status["documents"] = snapshot.Len()
	}
	s.writeJSON(r.Context(), w, status)
}

func (s *Server) writeJSON(ctx context.Context, w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.G(ctx).WithError(err).Error("failed to encode JSON response")
	}
}

func (s *Server) writeError(ctx context.Context, w http.ResponseWriter, status int, message string, err error) {
	if err != nil {
		logger.G(ctx).WithError(err).Warn(message)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error":  message,
		"status": status,
	})
}
