// Package service holds the data-access functions the HTTP API calls. Every
// backend call runs through the retry executor and every failure leaves this
// package as a classified *apperr.Error.
package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vietddude/nkiru/internal/analytics"
	"github.com/vietddude/nkiru/internal/core/apperr"
	"github.com/vietddude/nkiru/internal/core/retry"
	"github.com/vietddude/nkiru/internal/metrics"
)

// Options are shared by all services.
type Options struct {
	Policy retry.Policy
	Sink   analytics.Sink
	Logger *slog.Logger

	// RetryOptions are appended to every retry.Do call; tests use it to
	// swap the sleeper.
	RetryOptions []retry.Option
}

type backend struct {
	policy retry.Policy
	sink   analytics.Sink
	log    *slog.Logger
	opts   []retry.Option
}

func newBackend(o Options, component string) backend {
	policy := o.Policy
	if policy.MaxAttempts == 0 {
		policy = retry.DefaultPolicy
	}
	sink := o.Sink
	if sink == nil {
		sink = analytics.Nop{}
	}
	log := o.Logger
	if log == nil {
		log = slog.Default()
	}
	return backend{
		policy: policy,
		sink:   sink,
		log:    log.With("component", component),
		opts:   o.RetryOptions,
	}
}

// checkID rejects ids no row can have. Blank ids are invalid input; ids
// that are not UUIDs cannot exist, so they are reported as not found
// without asking the backend.
func checkID(kind, id string) error {
	if strings.TrimSpace(id) == "" {
		return apperr.Invalid(kind + " id is required")
	}
	if _, err := uuid.Parse(id); err != nil {
		return apperr.NotFound(kind+" id is not a valid UUID", map[string]any{"id": id})
	}
	return nil
}

// retryable uses the classification the caller receives.
func retryable(err error) bool {
	return apperr.Classify(err).Retryable
}

// call runs fn with retries. Only errors that classify as retryable are
// attempted again.
func call[T any](ctx context.Context, b backend, table, op string, fn retry.Operation[T]) (T, error) {
	opts := append([]retry.Option{
		retry.RetryIf(retryable),
		retry.OnRetry(func(attempt int, delay time.Duration, err error) {
			metrics.RetryAttemptsTotal.WithLabelValues(table + "." + op).Inc()
			b.log.Warn("Retrying backend call",
				"table", table,
				"op", op,
				"attempt", attempt,
				"max_attempts", b.policy.MaxAttempts,
				"delay", delay,
				"error", err,
			)
		}),
	}, b.opts...)

	result, err := retry.Do(ctx, b.policy, fn, opts...)
	if err != nil {
		var zero T
		return zero, b.fail(ctx, table, op, err)
	}
	return result, nil
}

// fail classifies err, records it and reports it to analytics.
func (b backend) fail(ctx context.Context, table, op string, err error) *apperr.Error {
	classified := apperr.Classify(err)
	metrics.BackendErrorsTotal.WithLabelValues(table, string(classified.Category)).Inc()
	b.log.Error("Backend call failed", "table", table, "op", op, "error", classified)
	b.sink.Track(ctx, analytics.Exception(classified))
	return classified
}
