package apperr

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
)

func TestClassify_CodeTable(t *testing.T) {
	tests := []struct {
		code       string
		category   Category
		status     int
		retryable  bool
		userPrefix string
	}{
		{"23505", CategoryValidation, 400, false, "This data already exists."},
		{"PGRST301", CategoryValidation, 400, false, "This data already exists."},
		{"42501", CategoryAuthorization, 403, false, ""},
		{"PGRST116", CategoryAuthorization, 403, false, ""},
		{"42P01", CategoryNotFound, 404, false, ""},
		{"PGRST106", CategoryNotFound, 404, false, ""},
		{"PGRST204", CategoryNotFound, 404, false, "The requested item was not found."},
	}

	for _, tt := range tests {
		err := &BackendError{Kind: KindResponse, Code: tt.code, Message: "boom"}
		got := Classify(err)
		if got.Category != tt.category {
			t.Errorf("Classify(%s).Category = %s, want %s", tt.code, got.Category, tt.category)
		}
		if got.HTTPStatus != tt.status {
			t.Errorf("Classify(%s).HTTPStatus = %d, want %d", tt.code, got.HTTPStatus, tt.status)
		}
		if got.Retryable != tt.retryable {
			t.Errorf("Classify(%s).Retryable = %v, want %v", tt.code, got.Retryable, tt.retryable)
		}
		if got.UserMessage == "" {
			t.Errorf("Classify(%s).UserMessage is empty", tt.code)
		}
		if tt.userPrefix != "" && got.UserMessage != tt.userPrefix {
			t.Errorf("Classify(%s).UserMessage = %q, want %q", tt.code, got.UserMessage, tt.userPrefix)
		}
		if got.Context["code"] != tt.code {
			t.Errorf("Classify(%s) context code = %v", tt.code, got.Context["code"])
		}
		if !errors.Is(got, err) {
			t.Errorf("Classify(%s) does not wrap the original error", tt.code)
		}
	}
}

func TestClassify_NetworkMessage(t *testing.T) {
	got := Classify(errors.New("Network request failed"))
	if got.Category != CategoryNetwork {
		t.Fatalf("category = %s, want NETWORK", got.Category)
	}
	if !got.Retryable {
		t.Error("network errors must be retryable")
	}
	if got.HTTPStatus != 0 {
		t.Errorf("network errors carry no status, got %d", got.HTTPStatus)
	}
}

func TestClassify_TransportBackendError(t *testing.T) {
	got := Classify(TransportError(errors.New("dial tcp: connection refused")))
	if got.Category != CategoryNetwork || !got.Retryable {
		t.Fatalf("got %s retryable=%v, want NETWORK retryable", got.Category, got.Retryable)
	}
}

func TestClassify_Unrecognized(t *testing.T) {
	inputs := []error{
		errors.New("something odd"),
		errors.New(""),
		&BackendError{Kind: KindResponse, Status: 502, Code: "XX000", Message: "internal"},
		fmt.Errorf("wrapped: %w", errors.New("weird")),
	}
	for _, in := range inputs {
		got := Classify(in)
		if got.Category != CategoryServer {
			t.Errorf("Classify(%q).Category = %s, want SERVER", in, got.Category)
		}
		if got.HTTPStatus != 500 {
			t.Errorf("Classify(%q).HTTPStatus = %d, want 500", in, got.HTTPStatus)
		}
		if got.UserMessage == "" {
			t.Errorf("Classify(%q).UserMessage is empty", in)
		}
		if !got.Retryable {
			t.Errorf("Classify(%q) should be retryable", in)
		}
	}
}

func TestClassify_Idempotent(t *testing.T) {
	first := Classify(&BackendError{Kind: KindResponse, Code: "23505", Message: "dup"})
	second := Classify(first)
	if first != second {
		t.Fatal("re-classifying must return the same value")
	}

	wrapped := fmt.Errorf("create contact: %w", first)
	if Classify(wrapped) != first {
		t.Fatal("classified error found in chain must be returned unchanged")
	}
}

func TestClassify_Nil(t *testing.T) {
	if Classify(nil) != nil {
		t.Fatal("Classify(nil) must be nil")
	}
}

func TestClassify_DeadlineExceeded(t *testing.T) {
	got := Classify(fmt.Errorf("select projects: %w", context.DeadlineExceeded))
	if got.Category != CategoryNetwork {
		t.Fatalf("category = %s, want NETWORK", got.Category)
	}
}

func TestRetryable(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{Validation("bad", nil), false},
		{Network("down", nil), true},
		{Server("oops", nil), true},
		{Auth("denied", nil), false},
		{NotFound("gone", nil), false},
		{&BackendError{Kind: KindResponse, Code: "23505"}, false},
		{&BackendError{Kind: KindTransport, Message: "reset"}, true},
		{errors.New("i/o timeout"), true},
		{errors.New("connection reset by peer"), true},
		{errors.New("bad input"), false},
		{context.Canceled, false},
	}
	for _, tt := range tests {
		if got := Retryable(tt.err); got != tt.want {
			t.Errorf("Retryable(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}

func TestDefaultUserMessages(t *testing.T) {
	categories := []Category{
		CategoryNetwork, CategoryValidation, CategoryAuthentication, CategoryAuthorization,
		CategoryNotFound, CategoryServer, CategoryClient, CategoryUnknown,
	}
	seen := map[string]bool{}
	for _, c := range categories {
		msg := New(c, 0, "x", "", nil, nil).UserMessage
		if msg == "" {
			t.Errorf("%s has no default user message", c)
		}
		seen[msg] = true
	}
	if len(seen) != len(categories) {
		t.Errorf("expected distinct default messages, got %d for %d categories", len(seen), len(categories))
	}
}

func TestUserMessage(t *testing.T) {
	if got := UserMessage(Invalid("Email is required")); got != "Email is required" {
		t.Errorf("UserMessage = %q", got)
	}
	if got := UserMessage(errors.New("raw")); got != CategoryUnknown.DefaultUserMessage() {
		t.Errorf("UserMessage(raw) = %q", got)
	}
}

func TestAnalytics(t *testing.T) {
	got := Analytics(errors.New("gtag missing"))
	if got.Category != CategoryClient || got.Retryable {
		t.Fatalf("got %s retryable=%v, want CLIENT non-retryable", got.Category, got.Retryable)
	}
	if got.UserMessage != "Analytics tracking is temporarily unavailable." {
		t.Errorf("UserMessage = %q", got.UserMessage)
	}
	if Analytics(nil).Message != "Analytics tracking failed" {
		t.Error("nil cause should use the default message")
	}
}

func TestError_MarshalJSON(t *testing.T) {
	e := Classify(&BackendError{Kind: KindResponse, Code: "42501", Message: "denied"})
	data, err := json.Marshal(e)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out["category"] != "AUTHORIZATION" || out["status"] != float64(403) {
		t.Errorf("unexpected payload: %s", data)
	}
}

func TestClassify_Canceled(t *testing.T) {
	got := Classify(context.Canceled)
	if got.Category != CategoryClient || got.Retryable {
		t.Fatalf("got %s retryable=%v, want CLIENT non-retryable", got.Category, got.Retryable)
	}
}
