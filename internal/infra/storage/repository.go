package storage

import (
	"context"
	"errors"

	"github.com/vietddude/nkiru/internal/core/apperr"
	"github.com/vietddude/nkiru/internal/core/domain"
)

var (
	// ErrNotFound is returned when a row doesn't exist
	ErrNotFound = errors.New("row not found")
)

// NotFound reports a missing row the way the hosted backend does, so every
// store classifies it identically.
func NotFound(table, id string) error {
	return &apperr.BackendError{
		Kind:    apperr.KindResponse,
		Status:  404,
		Code:    "PGRST204",
		Message: table + " row " + id + " not found",
		Err:     ErrNotFound,
	}
}

// Table names shared by every backend.
const (
	TableContacts = "contacts"
	TableProjects = "projects"
)

// ContactRepository handles contact storage operations
type ContactRepository interface {
	// Create inserts a contact and returns the stored row
	Create(ctx context.Context, c domain.ContactInsert) (*domain.Contact, error)

	// List returns all contacts, newest first
	List(ctx context.Context) ([]*domain.Contact, error)

	// Delete removes a contact by id
	Delete(ctx context.Context, id string) error

	// Count returns the number of contacts; used as a connection probe
	Count(ctx context.Context) (int64, error)
}

// ProjectRepository handles project storage operations
type ProjectRepository interface {
	// List returns all projects, newest first
	List(ctx context.Context) ([]*domain.Project, error)

	// Get retrieves a project by id
	Get(ctx context.Context, id string) (*domain.Project, error)

	// Create inserts a project and returns the stored row
	Create(ctx context.Context, p domain.ProjectInsert) (*domain.Project, error)

	// Update applies a partial update and returns the stored row
	Update(ctx context.Context, id string, u domain.ProjectUpdate) (*domain.Project, error)

	// Delete removes a project by id
	Delete(ctx context.Context, id string) error
}
