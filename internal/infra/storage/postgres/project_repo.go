package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/vietddude/nkiru/internal/core/domain"
	"github.com/vietddude/nkiru/internal/infra/storage"
)

const projectColumns = `id, title, description, image_url, technologies, client, status, created_at, updated_at`

type projectRow struct {
	ID           string         `db:"id"`
	Title        string         `db:"title"`
	Description  string         `db:"description"`
	ImageURL     *string        `db:"image_url"`
	Technologies pq.StringArray `db:"technologies"`
	Client       *string        `db:"client"`
	Status       string         `db:"status"`
	CreatedAt    time.Time      `db:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at"`
}

func (r projectRow) toDomain() *domain.Project {
	techs := []string(r.Technologies)
	if techs == nil {
		techs = []string{}
	}
	return &domain.Project{
		ID:           r.ID,
		Title:        r.Title,
		Description:  r.Description,
		ImageURL:     r.ImageURL,
		Technologies: techs,
		Client:       r.Client,
		Status:       domain.ProjectStatus(r.Status),
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

// ProjectRepo implements storage.ProjectRepository using PostgreSQL.
type ProjectRepo struct {
	db *DB
}

// NewProjectRepo creates a new PostgreSQL project repository.
func NewProjectRepo(db *DB) *ProjectRepo {
	return &ProjectRepo{db: db}
}

func (r *ProjectRepo) List(ctx context.Context) ([]*domain.Project, error) {
	var rows []projectRow
	err := r.db.SelectContext(ctx, &rows,
		`SELECT `+projectColumns+` FROM projects ORDER BY created_at DESC`)
	if err != nil {
		return nil, translateError(err)
	}
	projects := make([]*domain.Project, 0, len(rows))
	for _, row := range rows {
		projects = append(projects, row.toDomain())
	}
	return projects, nil
}

func (r *ProjectRepo) Get(ctx context.Context, id string) (*domain.Project, error) {
	var row projectRow
	err := r.db.GetContext(ctx, &row,
		`SELECT `+projectColumns+` FROM projects WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.NotFound(storage.TableProjects, id)
	}
	if err != nil {
		return nil, translateError(err)
	}
	return row.toDomain(), nil
}

func (r *ProjectRepo) Create(ctx context.Context, in domain.ProjectInsert) (*domain.Project, error) {
	status := in.Status
	if status == "" {
		status = domain.ProjectStatusActive
	}
	techs := in.Technologies
	if techs == nil {
		techs = []string{}
	}

	var row projectRow
	err := r.db.QueryRowxContext(ctx, `
		INSERT INTO projects (id, title, description, image_url, technologies, client, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+projectColumns,
		uuid.New().String(), in.Title, in.Description, in.ImageURL,
		pq.Array(techs), in.Client, string(status),
	).StructScan(&row)
	if err != nil {
		return nil, translateError(err)
	}
	return row.toDomain(), nil
}

// Update builds the SET clause from the fields present in u.
func (r *ProjectRepo) Update(ctx context.Context, id string, u domain.ProjectUpdate) (*domain.Project, error) {
	var (
		sets []string
		args []any
	)
	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if u.Title != nil {
		add("title", *u.Title)
	}
	if u.Description != nil {
		add("description", *u.Description)
	}
	if u.ImageURL != nil {
		add("image_url", *u.ImageURL)
	}
	if u.Technologies != nil {
		add("technologies", pq.Array(*u.Technologies))
	}
	if u.Client != nil {
		add("client", *u.Client)
	}
	if u.Status != nil {
		add("status", string(*u.Status))
	}
	if u.UpdatedAt != nil {
		add("updated_at", *u.UpdatedAt)
	} else {
		sets = append(sets, "updated_at = now()")
	}

	args = append(args, id)
	query := fmt.Sprintf(`UPDATE projects SET %s WHERE id = $%d RETURNING %s`,
		strings.Join(sets, ", "), len(args), projectColumns)

	var row projectRow
	err := r.db.QueryRowxContext(ctx, query, args...).StructScan(&row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.NotFound(storage.TableProjects, id)
	}
	if err != nil {
		return nil, translateError(err)
	}
	return row.toDomain(), nil
}

func (r *ProjectRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM projects WHERE id = $1`, id)
	return translateError(err)
}
