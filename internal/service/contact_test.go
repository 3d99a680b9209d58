package service

import (
	"context"
	"errors"
	"testing"

	"github.com/vietddude/nkiru/internal/core/apperr"
)

var validForm = ContactForm{
	Name:    "  Ada Lovelace ",
	Email:   "ada@example.com",
	Company: " ",
	Message: "We need a new site.",
}

func TestContactForm_Validate(t *testing.T) {
	tests := []struct {
		name string
		form ContactForm
		want string
	}{
		{"valid", validForm, ""},
		{"missing name", ContactForm{Email: "a@b.co", Message: "hi"}, "Name is required"},
		{"missing email", ContactForm{Name: "A", Message: "hi"}, "Email is required"},
		{"bad email", ContactForm{Name: "A", Email: "not-an-email", Message: "hi"}, "Please enter a valid email address"},
		{"email without tld", ContactForm{Name: "A", Email: "a@b", Message: "hi"}, "Please enter a valid email address"},
		{"missing message", ContactForm{Name: "A", Email: "a@b.co", Message: "  "}, "Message is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.form.Validate()
			if tt.want == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("expected validation error")
			}
			if err.Category != apperr.CategoryValidation || err.UserMessage != tt.want {
				t.Errorf("got %s %q, want VALIDATION %q", err.Category, err.UserMessage, tt.want)
			}
		})
	}
}

func TestSubmit_InvalidEmailNeverReachesBackend(t *testing.T) {
	repo := &flakyContacts{}
	sink := &recordingSink{}
	svc := NewContactService(repo, testOptions(sink))

	form := validForm
	form.Email = "ada@@example"
	contact, err := svc.Submit(context.Background(), form)
	if contact != nil {
		t.Error("invalid submission must not return data")
	}
	e, ok := apperr.As(err)
	if !ok || e.Category != apperr.CategoryValidation || e.Retryable {
		t.Fatalf("expected non-retryable validation error, got %v", err)
	}
	if repo.creates != 0 {
		t.Errorf("backend was called %d times", repo.creates)
	}
	if names := sink.names(); len(names) != 1 || names[0] != "form_submit_error" {
		t.Errorf("tracked %v", names)
	}
}

func TestSubmit_Success(t *testing.T) {
	repo := &flakyContacts{}
	sink := &recordingSink{}
	svc := NewContactService(repo, testOptions(sink))

	form := validForm
	form.ServiceInterest = "Data Analytics"
	contact, err := svc.Submit(context.Background(), form)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if contact == nil || contact.Name != "Ada Lovelace" {
		t.Fatalf("unexpected contact: %+v", contact)
	}
	if repo.stored[0].Company != nil {
		t.Error("blank company should be stored as null")
	}
	want := []string{"form_submit_success", "contact_attempt", "service_interest"}
	got := sink.names()
	if len(got) != len(want) {
		t.Fatalf("tracked %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("event %d = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestSubmit_RetriesNetworkFailures(t *testing.T) {
	repo := &flakyContacts{failures: 2, err: apperr.TransportError(errors.New("connection reset"))}
	svc := NewContactService(repo, testOptions(&recordingSink{}))

	contact, err := svc.Submit(context.Background(), validForm)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if contact == nil {
		t.Fatal("expected data")
	}
	if repo.creates != 3 {
		t.Errorf("backend called %d times, want 3", repo.creates)
	}
}

func TestSubmit_DoesNotRetryNonRetryable(t *testing.T) {
	dup := &apperr.BackendError{Kind: apperr.KindResponse, Code: "23505", Message: "duplicate key"}
	repo := &flakyContacts{failures: 10, err: dup}
	sink := &recordingSink{}
	svc := NewContactService(repo, testOptions(sink))

	contact, err := svc.Submit(context.Background(), validForm)
	if contact != nil {
		t.Error("failed submission must not return data")
	}
	e, ok := apperr.As(err)
	if !ok {
		t.Fatalf("expected classified error, got %T", err)
	}
	if e.Category != apperr.CategoryValidation || e.HTTPStatus != 400 {
		t.Errorf("got %s/%d", e.Category, e.HTTPStatus)
	}
	if e.UserMessage != "This data already exists." {
		t.Errorf("UserMessage = %q", e.UserMessage)
	}
	if repo.creates != 1 {
		t.Errorf("backend called %d times, want 1", repo.creates)
	}
	names := sink.names()
	if len(names) != 2 || names[0] != "exception" || names[1] != "form_submit_error" {
		t.Errorf("tracked %v", names)
	}
}

func TestSubmit_ExhaustedRetriesReturnLastError(t *testing.T) {
	repo := &flakyContacts{failures: 10, err: errors.New("Network request failed")}
	svc := NewContactService(repo, testOptions(&recordingSink{}))

	_, err := svc.Submit(context.Background(), validForm)
	e, ok := apperr.As(err)
	if !ok || e.Category != apperr.CategoryNetwork {
		t.Fatalf("expected NETWORK error, got %v", err)
	}
	if repo.creates != 3 {
		t.Errorf("backend called %d times, want 3", repo.creates)
	}
	if !errors.Is(err, repo.err) {
		t.Error("classified error should wrap the backend error")
	}
}

func TestSubmit_RetriesUnrecognizedErrors(t *testing.T) {
	repo := &flakyContacts{failures: 10, err: errors.New("sql: Scan error on column index 0")}
	svc := NewContactService(repo, testOptions(&recordingSink{}))

	_, err := svc.Submit(context.Background(), validForm)
	e, ok := apperr.As(err)
	if !ok || e.Category != apperr.CategoryServer || !e.Retryable {
		t.Fatalf("expected retryable SERVER error, got %v", err)
	}
	if repo.creates != 3 {
		t.Errorf("backend called %d times, want 3", repo.creates)
	}
}

func TestDelete_MalformedID(t *testing.T) {
	repo := &flakyContacts{}
	svc := NewContactService(repo, testOptions(&recordingSink{}))

	e, ok := apperr.As(svc.Delete(context.Background(), "abc"))
	if !ok || e.Category != apperr.CategoryNotFound || e.Retryable {
		t.Errorf("expected NOT_FOUND, got %v", e)
	}
	if repo.deletes != 0 {
		t.Errorf("backend called %d times, want 0", repo.deletes)
	}
}

func TestConnection(t *testing.T) {
	ok := NewContactService(&flakyContacts{}, testOptions(&recordingSink{}))
	if st := ok.Connection(context.Background()); !st.Connected {
		t.Errorf("expected connected, got %+v", st)
	}

	down := NewContactService(&flakyContacts{failures: 1, err: errors.New("dial tcp: refused")}, testOptions(&recordingSink{}))
	st := down.Connection(context.Background())
	if st.Connected || st.Error == "" {
		t.Errorf("expected disconnected with error, got %+v", st)
	}
}
