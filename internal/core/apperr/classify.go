package apperr

import (
	"context"
	"errors"
	"strings"
)

type codeRule struct {
	category    Category
	status      int
	userMessage string
}

// Codes are owned by the backend (PostgREST and Postgres SQLSTATE).
var codeTable = map[string]codeRule{
	"PGRST301": {CategoryValidation, 400, "This data already exists."},
	"23505":    {CategoryValidation, 400, "This data already exists."}, // unique_violation
	"PGRST116": {CategoryAuthorization, 403, ""},
	"42501":    {CategoryAuthorization, 403, ""}, // insufficient_privilege
	"PGRST106": {CategoryNotFound, 404, ""},
	"42P01":    {CategoryNotFound, 404, ""}, // undefined_table
	"PGRST204": {CategoryNotFound, 404, "The requested item was not found."},
}

// Classify maps err to a classified error. An error that is already
// classified is returned unchanged. Classify never panics; a nil err yields nil.
func Classify(err error) *Error {
	if err == nil {
		return nil
	}
	if e, ok := As(err); ok {
		return e
	}

	message := err.Error()
	if message == "" {
		message = "Unknown backend error"
	}

	if errors.Is(err, context.Canceled) {
		return New(CategoryClient, 0, message, "The request was cancelled.", err, nil)
	}

	var be *BackendError
	if errors.As(err, &be) {
		ctx := map[string]any{
			"kind": be.Kind.String(),
		}
		if be.Code != "" {
			ctx["code"] = be.Code
		}
		if be.Details != "" {
			ctx["details"] = be.Details
		}
		if be.Hint != "" {
			ctx["hint"] = be.Hint
		}
		if be.Status != 0 {
			ctx["backend_status"] = be.Status
		}
		if be.Message != "" {
			message = be.Message
		}

		if rule, ok := codeTable[be.Code]; ok {
			return New(rule.category, rule.status, message, rule.userMessage, err, ctx)
		}
		if be.Kind == KindTransport {
			return New(CategoryNetwork, 0, message, "", err, ctx)
		}
		return fallback(message, err, ctx)
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return New(CategoryNetwork, 0, message, "", err, nil)
	}
	return fallback(message, err, nil)
}

func fallback(message string, cause error, ctx map[string]any) *Error {
	if strings.Contains(strings.ToLower(message), "network") {
		return New(CategoryNetwork, 0, message, "", cause, ctx)
	}
	return New(CategoryServer, 500, message, "", cause, ctx)
}

// Retryable reports whether err may be attempted again. Classified errors
// answer by category; anything else is judged by its message.
func Retryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	if e, ok := As(err); ok {
		return e.Retryable
	}
	var be *BackendError
	if errors.As(err, &be) {
		return Classify(be).Retryable
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "network") ||
		strings.Contains(s, "timeout") ||
		strings.Contains(s, "connection")
}

// UserMessage returns the visitor-facing text for err.
func UserMessage(err error) string {
	if e, ok := As(err); ok {
		return e.UserMessage
	}
	return CategoryUnknown.DefaultUserMessage()
}

// Analytics classifies a failed analytics delivery. These are never shown
// to visitors and never retried.
func Analytics(err error) *Error {
	if e, ok := As(err); ok {
		return e
	}
	message := "Analytics tracking failed"
	if err != nil && err.Error() != "" {
		message = err.Error()
	}
	return New(
		CategoryClient,
		0,
		message,
		"Analytics tracking is temporarily unavailable.",
		err,
		map[string]any{"service": "analytics"},
	)
}
