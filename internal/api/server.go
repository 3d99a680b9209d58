package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vietddude/nkiru/internal/analytics"
	"github.com/vietddude/nkiru/internal/core/apperr"
	"github.com/vietddude/nkiru/internal/core/domain"
	"github.com/vietddude/nkiru/internal/service"
)

// HealthCheck reports the state of one dependency. A nil error is healthy.
type HealthCheck func(ctx context.Context) error

// Deps are what the server needs to answer requests.
type Deps struct {
	Contacts *service.ContactService
	Projects *service.ProjectService
	Sink     analytics.Sink
	Checks   map[string]HealthCheck
	Details  func() any
}

// Server exposes the site API, health and metrics over HTTP.
type Server struct {
	deps   Deps
	server *http.Server
	log    *slog.Logger
}

// NewServer creates a new API server.
func NewServer(deps Deps, port int) *Server {
	if deps.Sink == nil {
		deps.Sink = analytics.Nop{}
	}
	mux := http.NewServeMux()
	s := &Server{
		deps: deps,
		server: &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: mux,
		},
		log: slog.Default().With("component", "api"),
	}

	mux.HandleFunc("POST /api/contact", s.handleSubmitContact)
	mux.HandleFunc("GET /api/projects", s.handleListProjects)
	mux.HandleFunc("POST /api/projects", s.handleCreateProject)
	mux.HandleFunc("GET /api/projects/{id}", s.handleGetProject)
	mux.HandleFunc("PATCH /api/projects/{id}", s.handleUpdateProject)
	mux.HandleFunc("DELETE /api/projects/{id}", s.handleDeleteProject)
	mux.HandleFunc("POST /api/events", s.handleTrackEvent)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /health/detailed", s.handleDetailed)
	mux.Handle("GET /metrics", promhttp.Handler())

	return s
}

// Handler returns the router; tests drive it through httptest.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	return s.server.ListenAndServe()
}

// Stop stops the HTTP server.
func (s *Server) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Server) handleSubmitContact(w http.ResponseWriter, r *http.Request) {
	var form service.ContactForm
	if !s.decode(w, r, &form) {
		return
	}
	contact, err := s.deps.Contacts.Submit(r.Context(), form)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, contact)
}

func (s *Server) handleListProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := s.deps.Projects.List(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, projects)
}

func (s *Server) handleGetProject(w http.ResponseWriter, r *http.Request) {
	project, err := s.deps.Projects.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.deps.Sink.Track(r.Context(), analytics.ProjectView(project.Title))
	writeJSON(w, http.StatusOK, project)
}

func (s *Server) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	var in domain.ProjectInsert
	if !s.decode(w, r, &in) {
		return
	}
	project, err := s.deps.Projects.Create(r.Context(), in)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, project)
}

func (s *Server) handleUpdateProject(w http.ResponseWriter, r *http.Request) {
	var u domain.ProjectUpdate
	if !s.decode(w, r, &u) {
		return
	}
	project, err := s.deps.Projects.Update(r.Context(), r.PathValue("id"), u)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, project)
}

func (s *Server) handleDeleteProject(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Projects.Delete(r.Context(), r.PathValue("id")); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleTrackEvent(w http.ResponseWriter, r *http.Request) {
	var event domain.AnalyticsEvent
	if !s.decode(w, r, &event) {
		return
	}
	if event.Name == "" {
		s.writeError(w, apperr.Invalid("Event name is required"))
		return
	}
	s.deps.Sink.Track(r.Context(), analytics.Event(event.Name, event.Params))
	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	report := make(map[string]string, len(s.deps.Checks))
	healthy := true
	for name, check := range s.deps.Checks {
		if err := check(r.Context()); err != nil {
			healthy = false
			report[name] = err.Error()
			continue
		}
		report[name] = "ok"
	}

	status := http.StatusOK
	report["status"] = "healthy"
	if !healthy {
		status = http.StatusServiceUnavailable
		report["status"] = "critical"
	}
	writeJSON(w, status, report)
}

func (s *Server) handleDetailed(w http.ResponseWriter, r *http.Request) {
	if s.deps.Details == nil {
		writeJSON(w, http.StatusOK, map[string]any{})
		return
	}
	writeJSON(w, http.StatusOK, s.deps.Details())
}

// errorResponse is what visitors' browsers receive on failure.
type errorResponse struct {
	Category  apperr.Category `json:"category"`
	Message   string          `json:"message"`
	Retryable bool            `json:"retryable"`
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	e := apperr.Classify(err)
	status := e.HTTPStatus
	if status == 0 {
		switch e.Category {
		case apperr.CategoryNetwork:
			status = http.StatusBadGateway
		case apperr.CategoryClient:
			status = http.StatusBadRequest
		default:
			status = http.StatusInternalServerError
		}
	}
	writeJSON(w, status, errorResponse{
		Category:  e.Category,
		Message:   e.UserMessage,
		Retryable: e.Retryable,
	})
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, dest any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dest); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.writeError(w, apperr.Invalid("Request body is too large"))
			return false
		}
		s.writeError(w, apperr.Invalid("Request body must be valid JSON"))
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
