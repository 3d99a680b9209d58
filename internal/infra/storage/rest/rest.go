package rest

import (
	"context"
	"fmt"
	"net/url"

	"github.com/vietddude/nkiru/internal/core/domain"
	"github.com/vietddude/nkiru/internal/infra/postgrest"
	"github.com/vietddude/nkiru/internal/infra/storage"
)

var newestFirst = url.Values{
	"select": {"*"},
	"order":  {"created_at.desc"},
}

// ContactRepo implements storage.ContactRepository over the hosted REST API.
type ContactRepo struct {
	client *postgrest.Client
}

// NewContactRepo creates a new REST contact repository.
func NewContactRepo(client *postgrest.Client) *ContactRepo {
	return &ContactRepo{client: client}
}

// Create inserts a contact and returns the stored row.
func (r *ContactRepo) Create(ctx context.Context, c domain.ContactInsert) (*domain.Contact, error) {
	var rows []*domain.Contact
	if err := r.client.Insert(ctx, storage.TableContacts, []domain.ContactInsert{c}, &rows); err != nil {
		return nil, err
	}
	if len(rows) != 1 {
		return nil, fmt.Errorf("insert contact: expected 1 row, got %d", len(rows))
	}
	return rows[0], nil
}

// List returns all contacts, newest first.
func (r *ContactRepo) List(ctx context.Context) ([]*domain.Contact, error) {
	var rows []*domain.Contact
	if err := r.client.Select(ctx, storage.TableContacts, newestFirst, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// Delete removes a contact by id.
func (r *ContactRepo) Delete(ctx context.Context, id string) error {
	return r.client.Delete(ctx, storage.TableContacts, postgrest.Eq("id", id))
}

// Count returns the exact number of contacts.
func (r *ContactRepo) Count(ctx context.Context) (int64, error) {
	return r.client.Count(ctx, storage.TableContacts)
}

// ProjectRepo implements storage.ProjectRepository over the hosted REST API.
type ProjectRepo struct {
	client *postgrest.Client
}

// NewProjectRepo creates a new REST project repository.
func NewProjectRepo(client *postgrest.Client) *ProjectRepo {
	return &ProjectRepo{client: client}
}

func (r *ProjectRepo) List(ctx context.Context) ([]*domain.Project, error) {
	var rows []*domain.Project
	if err := r.client.Select(ctx, storage.TableProjects, newestFirst, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// Get filters by id instead of asking for a single object, so a missing row
// reads as not found rather than as a cardinality error.
func (r *ProjectRepo) Get(ctx context.Context, id string) (*domain.Project, error) {
	q := postgrest.Eq("id", id)
	q.Set("select", "*")
	var rows []*domain.Project
	if err := r.client.Select(ctx, storage.TableProjects, q, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, storage.NotFound(storage.TableProjects, id)
	}
	return rows[0], nil
}

func (r *ProjectRepo) Create(ctx context.Context, p domain.ProjectInsert) (*domain.Project, error) {
	var rows []*domain.Project
	if err := r.client.Insert(ctx, storage.TableProjects, []domain.ProjectInsert{p}, &rows); err != nil {
		return nil, err
	}
	if len(rows) != 1 {
		return nil, fmt.Errorf("insert project: expected 1 row, got %d", len(rows))
	}
	return rows[0], nil
}

func (r *ProjectRepo) Update(ctx context.Context, id string, u domain.ProjectUpdate) (*domain.Project, error) {
	var rows []*domain.Project
	if err := r.client.Update(ctx, storage.TableProjects, postgrest.Eq("id", id), u, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, storage.NotFound(storage.TableProjects, id)
	}
	return rows[0], nil
}

func (r *ProjectRepo) Delete(ctx context.Context, id string) error {
	return r.client.Delete(ctx, storage.TableProjects, postgrest.Eq("id", id))
}
