package retry

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"
)

// Policy defines retry behavior.
type Policy struct {
	MaxAttempts       int           `yaml:"max_attempts"`
	InitialDelay      time.Duration `yaml:"initial_delay"`
	BackoffMultiplier float64       `yaml:"backoff_multiplier"`
	MaxDelay          time.Duration `yaml:"max_delay"` // 0 = uncapped
}

// DefaultPolicy matches what the site has always used for backend calls.
var DefaultPolicy = Policy{
	MaxAttempts:       3,
	InitialDelay:      1 * time.Second,
	BackoffMultiplier: 2.0,
}

// Validate checks the policy bounds.
func (p Policy) Validate() error {
	if p.MaxAttempts < 1 {
		return fmt.Errorf("max attempts must be >= 1, got %d", p.MaxAttempts)
	}
	if p.InitialDelay < 0 {
		return fmt.Errorf("initial delay must not be negative, got %s", p.InitialDelay)
	}
	if p.BackoffMultiplier <= 1 {
		return fmt.Errorf("backoff multiplier must be > 1, got %g", p.BackoffMultiplier)
	}
	if p.MaxDelay < 0 {
		return fmt.Errorf("max delay must not be negative, got %s", p.MaxDelay)
	}
	return nil
}

// Delay returns the wait before attempt k (1-based). Attempt 1 has none;
// attempt k >= 2 waits InitialDelay * BackoffMultiplier^(k-2).
func (p Policy) Delay(attempt int) time.Duration {
	if attempt < 2 {
		return 0
	}
	delay := float64(p.InitialDelay) * math.Pow(p.BackoffMultiplier, float64(attempt-2))
	if p.MaxDelay > 0 && delay > float64(p.MaxDelay) {
		delay = float64(p.MaxDelay)
	}
	if delay > math.MaxInt64 {
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(delay)
}

// Operation is a unit of work that is re-executed in full on every attempt.
type Operation[T any] func(ctx context.Context) (T, error)

// Sleeper waits for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

type options struct {
	retryIf func(error) bool
	onRetry func(attempt int, delay time.Duration, err error)
	sleep   Sleeper
}

// Option customizes a single Do call.
type Option func(*options)

// RetryIf stops retrying as soon as fn reports an error as not eligible.
// Without it every failure is retried.
func RetryIf(fn func(error) bool) Option {
	return func(o *options) {
		o.retryIf = fn
	}
}

// OnRetry is called before each wait with the attempt that is about to run.
func OnRetry(fn func(attempt int, delay time.Duration, err error)) Option {
	return func(o *options) {
		o.onRetry = fn
	}
}

// WithSleeper replaces the timer-based wait.
func WithSleeper(s Sleeper) Option {
	return func(o *options) {
		o.sleep = s
	}
}

// ErrInvalidPolicy is returned before any attempt when the policy is unusable.
var ErrInvalidPolicy = errors.New("invalid retry policy")

// Do executes op with exponential backoff. On success the result is returned
// at once. When the last attempt fails, its error is returned as is. A
// cancelled ctx aborts a pending wait and returns ctx.Err().
func Do[T any](ctx context.Context, policy Policy, op Operation[T], opts ...Option) (T, error) {
	var zero T
	if err := policy.Validate(); err != nil {
		return zero, fmt.Errorf("%w: %v", ErrInvalidPolicy, err)
	}

	o := options{sleep: sleepContext}
	for _, opt := range opts {
		opt(&o)
	}

	var lastErr error
	for attempt := 1; attempt <= policy.MaxAttempts; attempt++ {
		if attempt > 1 {
			delay := policy.Delay(attempt)
			if o.onRetry != nil {
				o.onRetry(attempt, delay, lastErr)
			}
			if err := o.sleep(ctx, delay); err != nil {
				return zero, err
			}
		}

		result, err := op(ctx)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if o.retryIf != nil && !o.retryIf(err) {
			break
		}
		if ctx.Err() != nil {
			break
		}
	}

	return zero, lastErr
}
