package service

import (
	"context"
	"sync"
	"time"

	"github.com/vietddude/nkiru/internal/core/domain"
	"github.com/vietddude/nkiru/internal/core/retry"
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

func (r *recordingSink) names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	for i, e := range r.events {
		out[i] = e.Name
	}
	return out
}

func noSleep(ctx context.Context, d time.Duration) error {
	return ctx.Err()
}

func testOptions(sink *recordingSink) Options {
	return Options{
		Policy:       retry.Policy{MaxAttempts: 3, InitialDelay: time.Second, BackoffMultiplier: 2},
		Sink:         sink,
		RetryOptions: []retry.Option{retry.WithSleeper(noSleep)},
	}
}

// flakyContacts fails the first failures calls to Create with err.
type flakyContacts struct {
	mu       sync.Mutex
	failures int
	err      error
	creates  int
	deletes  int
	stored   []domain.ContactInsert
}

func (f *flakyContacts) Create(ctx context.Context, c domain.ContactInsert) (*domain.Contact, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creates++
	if f.creates <= f.failures {
		return nil, f.err
	}
	f.stored = append(f.stored, c)
	return &domain.Contact{
		ID:        "c1",
		Name:      c.Name,
		Email:     c.Email,
		Company:   c.Company,
		Message:   c.Message,
		CreatedAt: time.Now(),
	}, nil
}

func (f *flakyContacts) List(ctx context.Context) ([]*domain.Contact, error) {
	return nil, nil
}

func (f *flakyContacts) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes++
	return nil
}

func (f *flakyContacts) Count(ctx context.Context) (int64, error) {
	if f.err != nil && f.failures > 0 {
		return 0, f.err
	}
	return int64(len(f.stored)), nil
}
