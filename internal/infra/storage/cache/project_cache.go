package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/vietddude/nkiru/internal/core/domain"
	"github.com/vietddude/nkiru/internal/infra/storage"
	"github.com/vietddude/nkiru/internal/metrics"
)

// Store is the byte cache the repository writes through. The Redis client
// satisfies it.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
}

const listKey = "projects:list"

func itemKey(id string) string {
	return "projects:item:" + id
}

// ProjectRepo is a read-through cache in front of another ProjectRepository.
// Cache failures are logged and the call falls through to the backend.
type ProjectRepo struct {
	next  storage.ProjectRepository
	cache Store
	ttl   time.Duration
	log   *slog.Logger
}

// NewProjectRepo wraps next. A zero ttl defaults to five minutes.
func NewProjectRepo(next storage.ProjectRepository, cache Store, ttl time.Duration) *ProjectRepo {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &ProjectRepo{
		next:  next,
		cache: cache,
		ttl:   ttl,
		log:   slog.Default().With("component", "project_cache"),
	}
}

func (r *ProjectRepo) List(ctx context.Context) ([]*domain.Project, error) {
	var cached []*domain.Project
	if r.load(ctx, listKey, &cached) {
		return cached, nil
	}
	projects, err := r.next.List(ctx)
	if err != nil {
		return nil, err
	}
	r.store(ctx, listKey, projects)
	return projects, nil
}

func (r *ProjectRepo) Get(ctx context.Context, id string) (*domain.Project, error) {
	var cached domain.Project
	if r.load(ctx, itemKey(id), &cached) {
		return &cached, nil
	}
	p, err := r.next.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	r.store(ctx, itemKey(id), p)
	return p, nil
}

func (r *ProjectRepo) Create(ctx context.Context, in domain.ProjectInsert) (*domain.Project, error) {
	p, err := r.next.Create(ctx, in)
	if err != nil {
		return nil, err
	}
	r.invalidate(ctx)
	return p, nil
}

func (r *ProjectRepo) Update(ctx context.Context, id string, u domain.ProjectUpdate) (*domain.Project, error) {
	p, err := r.next.Update(ctx, id, u)
	if err != nil {
		return nil, err
	}
	r.invalidate(ctx, itemKey(id))
	return p, nil
}

func (r *ProjectRepo) Delete(ctx context.Context, id string) error {
	if err := r.next.Delete(ctx, id); err != nil {
		return err
	}
	r.invalidate(ctx, itemKey(id))
	return nil
}

func (r *ProjectRepo) load(ctx context.Context, key string, dest any) bool {
	data, found, err := r.cache.Get(ctx, key)
	if err != nil {
		metrics.ProjectCacheTotal.WithLabelValues("error").Inc()
		r.log.Warn("Cache read failed", "key", key, "error", err)
		return false
	}
	if !found {
		metrics.ProjectCacheTotal.WithLabelValues("miss").Inc()
		return false
	}
	if err := json.Unmarshal(data, dest); err != nil {
		metrics.ProjectCacheTotal.WithLabelValues("error").Inc()
		r.log.Warn("Dropping undecodable cache entry", "key", key, "error", err)
		_ = r.cache.Del(ctx, key)
		return false
	}
	metrics.ProjectCacheTotal.WithLabelValues("hit").Inc()
	return true
}

func (r *ProjectRepo) store(ctx context.Context, key string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := r.cache.Set(ctx, key, data, r.ttl); err != nil {
		r.log.Warn("Cache write failed", "key", key, "error", err)
	}
}

func (r *ProjectRepo) invalidate(ctx context.Context, extra ...string) {
	keys := append([]string{listKey}, extra...)
	if err := r.cache.Del(ctx, keys...); err != nil {
		r.log.Warn("Cache invalidation failed", "keys", keys, "error", err)
	}
}
