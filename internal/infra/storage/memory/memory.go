package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vietddude/nkiru/internal/core/domain"
	"github.com/vietddude/nkiru/internal/infra/storage"
)

// MemoryStorage keeps rows in process; used for local development and tests.
type MemoryStorage struct {
	contacts map[string]*domain.Contact
	projects map[string]*domain.Project
	mu       sync.RWMutex
	now      func() time.Time
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		contacts: make(map[string]*domain.Contact),
		projects: make(map[string]*domain.Project),
		now:      time.Now,
	}
}

// -----------------------------------------------------------------------------
// Contact Repository
// -----------------------------------------------------------------------------

type ContactRepo struct {
	store *MemoryStorage
}

func NewContactRepo(store *MemoryStorage) *ContactRepo {
	return &ContactRepo{store: store}
}

func (r *ContactRepo) Create(ctx context.Context, in domain.ContactInsert) (*domain.Contact, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	c := &domain.Contact{
		ID:        uuid.New().String(),
		Name:      in.Name,
		Email:     in.Email,
		Company:   in.Company,
		Message:   in.Message,
		CreatedAt: r.store.now(),
	}
	r.store.contacts[c.ID] = c
	cp := *c
	return &cp, nil
}

func (r *ContactRepo) List(ctx context.Context) ([]*domain.Contact, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	out := make([]*domain.Contact, 0, len(r.store.contacts))
	for _, c := range r.store.contacts {
		cp := *c
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *ContactRepo) Delete(ctx context.Context, id string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	delete(r.store.contacts, id)
	return nil
}

func (r *ContactRepo) Count(ctx context.Context) (int64, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	return int64(len(r.store.contacts)), nil
}

// -----------------------------------------------------------------------------
// Project Repository
// -----------------------------------------------------------------------------

type ProjectRepo struct {
	store *MemoryStorage
}

func NewProjectRepo(store *MemoryStorage) *ProjectRepo {
	return &ProjectRepo{store: store}
}

func (r *ProjectRepo) List(ctx context.Context) ([]*domain.Project, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	out := make([]*domain.Project, 0, len(r.store.projects))
	for _, p := range r.store.projects {
		out = append(out, copyProject(p))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *ProjectRepo) Get(ctx context.Context, id string) (*domain.Project, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	p, ok := r.store.projects[id]
	if !ok {
		return nil, storage.NotFound(storage.TableProjects, id)
	}
	return copyProject(p), nil
}

func (r *ProjectRepo) Create(ctx context.Context, in domain.ProjectInsert) (*domain.Project, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	now := r.store.now()
	status := in.Status
	if status == "" {
		status = domain.ProjectStatusActive
	}
	p := &domain.Project{
		ID:           uuid.New().String(),
		Title:        in.Title,
		Description:  in.Description,
		ImageURL:     in.ImageURL,
		Technologies: append([]string{}, in.Technologies...),
		Client:       in.Client,
		Status:       status,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	r.store.projects[p.ID] = p
	return copyProject(p), nil
}

func (r *ProjectRepo) Update(ctx context.Context, id string, u domain.ProjectUpdate) (*domain.Project, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	p, ok := r.store.projects[id]
	if !ok {
		return nil, storage.NotFound(storage.TableProjects, id)
	}
	u.Apply(p)
	if u.UpdatedAt == nil {
		p.UpdatedAt = r.store.now()
	}
	return copyProject(p), nil
}

func (r *ProjectRepo) Delete(ctx context.Context, id string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	delete(r.store.projects, id)
	return nil
}

func copyProject(p *domain.Project) *domain.Project {
	cp := *p
	cp.Technologies = append([]string{}, p.Technologies...)
	return &cp
}
