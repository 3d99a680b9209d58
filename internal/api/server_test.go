package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/vietddude/nkiru/internal/core/domain"
	"github.com/vietddude/nkiru/internal/core/retry"
	"github.com/vietddude/nkiru/internal/infra/storage/memory"
	"github.com/vietddude/nkiru/internal/service"
)

type recordingSink struct {
	mu     sync.Mutex
	events []domain.AnalyticsEvent
}

func (r *recordingSink) Track(ctx context.Context, e domain.AnalyticsEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recordingSink) has(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.events {
		if e.Name == name {
			return true
		}
	}
	return false
}

func newTestServer(t *testing.T, checks map[string]HealthCheck) (*Server, *recordingSink) {
	t.Helper()
	store := memory.NewMemoryStorage()
	sink := &recordingSink{}
	opts := service.Options{
		Policy: retry.Policy{MaxAttempts: 2, InitialDelay: time.Millisecond, BackoffMultiplier: 2},
		Sink:   sink,
	}
	s := NewServer(Deps{
		Contacts: service.NewContactService(memory.NewContactRepo(store), opts),
		Projects: service.NewProjectService(memory.NewProjectRepo(store), opts),
		Sink:     sink,
		Checks:   checks,
	}, 0)
	return s, sink
}

func do(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestSubmitContact(t *testing.T) {
	s, sink := newTestServer(t, nil)

	rec := do(t, s, http.MethodPost, "/api/contact",
		`{"name":"Ada","email":"ada@example.com","message":"Hello"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body)
	}
	var c domain.Contact
	if err := json.NewDecoder(rec.Body).Decode(&c); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if c.ID == "" || c.Email != "ada@example.com" {
		t.Errorf("unexpected contact: %+v", c)
	}
	if !sink.has("form_submit_success") {
		t.Error("form_submit_success was not tracked")
	}
}

func TestSubmitContact_ValidationIs400(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"missing name", `{"email":"a@b.co","message":"hi"}`, "Name is required"},
		{"bad email", `{"name":"A","email":"nope","message":"hi"}`, "Please enter a valid email address"},
		{"missing message", `{"name":"A","email":"a@b.co"}`, "Message is required"},
		{"malformed json", `{"name":`, "Request body must be valid JSON"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := newTestServer(t, nil)
			rec := do(t, s, http.MethodPost, "/api/contact", tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", rec.Code)
			}
			var resp errorResponse
			if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if resp.Message != tt.want || resp.Retryable {
				t.Errorf("unexpected response: %+v", resp)
			}
		})
	}
}

func TestProjectsCRUD(t *testing.T) {
	s, sink := newTestServer(t, nil)

	rec := do(t, s, http.MethodPost, "/api/projects",
		`{"title":"Portal","description":"Client portal","technologies":["go"]}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d: %s", rec.Code, rec.Body)
	}
	var created domain.Project
	_ = json.NewDecoder(rec.Body).Decode(&created)
	if created.Status != domain.ProjectStatusActive {
		t.Errorf("default status = %q", created.Status)
	}

	rec = do(t, s, http.MethodGet, "/api/projects/"+created.ID, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("get: expected 200, got %d", rec.Code)
	}
	if !sink.has("project_view") {
		t.Error("project_view was not tracked")
	}

	rec = do(t, s, http.MethodPatch, "/api/projects/"+created.ID, `{"status":"completed"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("update: expected 200, got %d: %s", rec.Code, rec.Body)
	}
	var updated domain.Project
	_ = json.NewDecoder(rec.Body).Decode(&updated)
	if updated.Status != domain.ProjectStatusCompleted || updated.Title != "Portal" {
		t.Errorf("unexpected update: %+v", updated)
	}

	rec = do(t, s, http.MethodGet, "/api/projects", "")
	var list []domain.Project
	_ = json.NewDecoder(rec.Body).Decode(&list)
	if len(list) != 1 {
		t.Errorf("expected 1 project, got %d", len(list))
	}

	if rec = do(t, s, http.MethodDelete, "/api/projects/"+created.ID, ""); rec.Code != http.StatusNoContent {
		t.Fatalf("delete: expected 204, got %d", rec.Code)
	}
	if rec = do(t, s, http.MethodGet, "/api/projects/"+created.ID, ""); rec.Code != http.StatusNotFound {
		t.Errorf("get after delete: expected 404, got %d", rec.Code)
	}
}

func TestGetProject_MalformedIDIs404(t *testing.T) {
	s, _ := newTestServer(t, nil)
	rec := do(t, s, http.MethodGet, "/api/projects/abc", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d: %s", rec.Code, rec.Body)
	}
	var resp errorResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Category != "NOT_FOUND" || resp.Retryable {
		t.Errorf("unexpected response: %+v", resp)
	}
}

func TestListProjects_EmptyIsArray(t *testing.T) {
	s, _ := newTestServer(t, nil)
	rec := do(t, s, http.MethodGet, "/api/projects", "")
	if strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Errorf("expected [], got %q", rec.Body.String())
	}
}

func TestTrackEvent(t *testing.T) {
	s, sink := newTestServer(t, nil)

	rec := do(t, s, http.MethodPost, "/api/events", `{"name":"scroll","params":{"value":50}}`)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", rec.Code)
	}
	if !sink.has("scroll") {
		t.Error("event was not forwarded")
	}

	if rec = do(t, s, http.MethodPost, "/api/events", `{"params":{}}`); rec.Code != http.StatusBadRequest {
		t.Errorf("nameless event: expected 400, got %d", rec.Code)
	}
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t, map[string]HealthCheck{
		"backend": func(ctx context.Context) error { return nil },
	})
	if rec := do(t, s, http.MethodGet, "/health", ""); rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}

	s, _ = newTestServer(t, map[string]HealthCheck{
		"backend": func(ctx context.Context) error { return errors.New("connection refused") },
	})
	rec := do(t, s, http.MethodGet, "/health", "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
	var report map[string]string
	_ = json.NewDecoder(rec.Body).Decode(&report)
	if report["backend"] != "connection refused" || report["status"] != "critical" {
		t.Errorf("unexpected report: %v", report)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	s, _ := newTestServer(t, nil)
	rec := do(t, s, http.MethodGet, "/metrics", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "go_goroutines") {
		t.Error("metrics output missing default collectors")
	}
}
