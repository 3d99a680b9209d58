package apperr

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// Category groups errors by how the site should react to them.
type Category string

const (
	CategoryNetwork        Category = "NETWORK"
	CategoryValidation     Category = "VALIDATION"
	CategoryAuthentication Category = "AUTHENTICATION"
	CategoryAuthorization  Category = "AUTHORIZATION"
	CategoryNotFound       Category = "NOT_FOUND"
	CategoryServer         Category = "SERVER"
	CategoryClient         Category = "CLIENT"
	CategoryUnknown        Category = "UNKNOWN"
)

// DefaultUserMessage returns the message shown to visitors when none was supplied.
func (c Category) DefaultUserMessage() string {
	switch c {
	case CategoryNetwork:
		return "Network connection failed. Please check your internet connection and try again."
	case CategoryValidation:
		return "Please check your input and try again."
	case CategoryAuthentication:
		return "Please log in to continue."
	case CategoryAuthorization:
		return "You do not have permission to perform this action."
	case CategoryNotFound:
		return "The requested resource was not found."
	case CategoryServer:
		return "Server error occurred. Please try again later."
	case CategoryClient:
		return "An error occurred. Please try again."
	default:
		return "An unexpected error occurred. Please try again."
	}
}

// Retryable reports whether errors of this category may be attempted again.
func (c Category) Retryable() bool {
	return c == CategoryNetwork || c == CategoryServer
}

// Error is a classified error. It is immutable once built.
type Error struct {
	Category    Category
	HTTPStatus  int // 0 when no status applies
	Message     string
	UserMessage string
	Retryable   bool
	Context     map[string]any
	Timestamp   time.Time
	Cause       error
}

// New builds a classified error. An empty userMessage is replaced with the
// category default.
func New(
	category Category,
	status int,
	message string,
	userMessage string,
	cause error,
	context map[string]any,
) *Error {
	if userMessage == "" {
		userMessage = category.DefaultUserMessage()
	}
	return &Error{
		Category:    category,
		HTTPStatus:  status,
		Message:     message,
		UserMessage: userMessage,
		Retryable:   category.Retryable(),
		Context:     context,
		Timestamp:   time.Now(),
		Cause:       cause,
	}
}

func (e *Error) Error() string {
	if e.HTTPStatus != 0 {
		return fmt.Sprintf("%s (%d): %s", e.Category, e.HTTPStatus, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Category, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// MarshalJSON renders the error for structured logs and API responses.
func (e *Error) MarshalJSON() ([]byte, error) {
	out := struct {
		Category    Category       `json:"category"`
		HTTPStatus  int            `json:"status,omitempty"`
		Message     string         `json:"message"`
		UserMessage string         `json:"user_message"`
		Retryable   bool           `json:"retryable"`
		Context     map[string]any `json:"context,omitempty"`
		Timestamp   string         `json:"timestamp"`
	}{
		Category:    e.Category,
		HTTPStatus:  e.HTTPStatus,
		Message:     e.Message,
		UserMessage: e.UserMessage,
		Retryable:   e.Retryable,
		Context:     e.Context,
		Timestamp:   e.Timestamp.UTC().Format(time.RFC3339),
	}
	return json.Marshal(out)
}

// LogValue lets slog print the classification instead of only the message.
func (e *Error) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.String("category", string(e.Category)),
		slog.String("message", e.Message),
		slog.Bool("retryable", e.Retryable),
	}
	if e.HTTPStatus != 0 {
		attrs = append(attrs, slog.Int("status", e.HTTPStatus))
	}
	if code, ok := e.Context["code"].(string); ok && code != "" {
		attrs = append(attrs, slog.String("code", code))
	}
	return slog.GroupValue(attrs...)
}

func Network(message string, context map[string]any) *Error {
	return New(CategoryNetwork, 0, message, "", nil, context)
}

func Validation(message string, context map[string]any) *Error {
	return New(CategoryValidation, 400, message, "", nil, context)
}

// Invalid is a validation error whose message is also the user-facing guidance.
func Invalid(message string) *Error {
	return New(CategoryValidation, 400, message, message, nil, nil)
}

func Auth(message string, context map[string]any) *Error {
	return New(CategoryAuthentication, 401, message, "", nil, context)
}

func NotFound(message string, context map[string]any) *Error {
	return New(CategoryNotFound, 404, message, "", nil, context)
}

func Server(message string, context map[string]any) *Error {
	return New(CategoryServer, 500, message, "", nil, context)
}

// As returns the classified error in err's chain, if any.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}
