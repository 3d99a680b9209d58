package postgres

import (
	"context"

	"github.com/google/uuid"

	"github.com/vietddude/nkiru/internal/core/domain"
)

// ContactRepo implements storage.ContactRepository using PostgreSQL.
type ContactRepo struct {
	db *DB
}

// NewContactRepo creates a new PostgreSQL contact repository.
func NewContactRepo(db *DB) *ContactRepo {
	return &ContactRepo{db: db}
}

// Create saves a contact to the database.
func (r *ContactRepo) Create(ctx context.Context, in domain.ContactInsert) (*domain.Contact, error) {
	var c domain.Contact
	err := r.db.QueryRowxContext(ctx, `
		INSERT INTO contacts (id, name, email, company, message)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, name, email, company, message, created_at`,
		uuid.New().String(), in.Name, in.Email, in.Company, in.Message,
	).StructScan(&c)
	if err != nil {
		return nil, translateError(err)
	}
	return &c, nil
}

// List retrieves all contacts, newest first.
func (r *ContactRepo) List(ctx context.Context) ([]*domain.Contact, error) {
	var contacts []*domain.Contact
	err := r.db.SelectContext(ctx, &contacts, `
		SELECT id, name, email, company, message, created_at
		FROM contacts
		ORDER BY created_at DESC`)
	if err != nil {
		return nil, translateError(err)
	}
	return contacts, nil
}

// Delete removes a contact.
func (r *ContactRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM contacts WHERE id = $1`, id)
	return translateError(err)
}

// Count returns the number of stored contacts.
func (r *ContactRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.GetContext(ctx, &n, `SELECT count(*) FROM contacts`); err != nil {
		return 0, translateError(err)
	}
	return n, nil
}
