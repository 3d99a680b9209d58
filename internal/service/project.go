package service

import (
	"context"
	"strings"

	"github.com/vietddude/nkiru/internal/core/apperr"
	"github.com/vietddude/nkiru/internal/core/domain"
	"github.com/vietddude/nkiru/internal/infra/storage"
)

// ProjectService manages portfolio entries.
type ProjectService struct {
	repo storage.ProjectRepository
	backend
}

// NewProjectService creates a new project service.
func NewProjectService(repo storage.ProjectRepository, opts Options) *ProjectService {
	return &ProjectService{repo: repo, backend: newBackend(opts, "projects")}
}

func (s *ProjectService) List(ctx context.Context) ([]*domain.Project, error) {
	projects, err := call(ctx, s.backend, storage.TableProjects, "select", s.repo.List)
	if err != nil {
		return nil, err
	}
	if projects == nil {
		projects = []*domain.Project{}
	}
	return projects, nil
}

func (s *ProjectService) Get(ctx context.Context, id string) (*domain.Project, error) {
	if err := checkID("Project", id); err != nil {
		return nil, err
	}
	return call(ctx, s.backend, storage.TableProjects, "select",
		func(ctx context.Context) (*domain.Project, error) {
			return s.repo.Get(ctx, id)
		})
}

func (s *ProjectService) Create(ctx context.Context, in domain.ProjectInsert) (*domain.Project, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	in.Technologies = cleanTechnologies(in.Technologies)
	if in.Title == "" {
		return nil, apperr.Invalid("Title is required")
	}
	if in.Description == "" {
		return nil, apperr.Invalid("Description is required")
	}
	if in.Status == "" {
		in.Status = domain.ProjectStatusActive
	}
	if _, err := domain.ParseProjectStatus(string(in.Status)); err != nil {
		return nil, apperr.Invalid("Status must be active, completed or archived")
	}

	return call(ctx, s.backend, storage.TableProjects, "insert",
		func(ctx context.Context) (*domain.Project, error) {
			return s.repo.Create(ctx, in)
		})
}

func (s *ProjectService) Update(ctx context.Context, id string, u domain.ProjectUpdate) (*domain.Project, error) {
	if err := checkID("Project", id); err != nil {
		return nil, err
	}
	if u.Title != nil {
		title := strings.TrimSpace(*u.Title)
		if title == "" {
			return nil, apperr.Invalid("Title must not be empty")
		}
		u.Title = &title
	}
	if u.Description != nil {
		desc := strings.TrimSpace(*u.Description)
		if desc == "" {
			return nil, apperr.Invalid("Description must not be empty")
		}
		u.Description = &desc
	}
	if u.Status != nil {
		if _, err := domain.ParseProjectStatus(string(*u.Status)); err != nil {
			return nil, apperr.Invalid("Status must be active, completed or archived")
		}
	}
	if u.Technologies != nil {
		techs := cleanTechnologies(*u.Technologies)
		u.Technologies = &techs
	}

	return call(ctx, s.backend, storage.TableProjects, "update",
		func(ctx context.Context) (*domain.Project, error) {
			return s.repo.Update(ctx, id, u)
		})
}

func (s *ProjectService) Delete(ctx context.Context, id string) error {
	if err := checkID("Project", id); err != nil {
		return err
	}
	_, err := call(ctx, s.backend, storage.TableProjects, "delete",
		func(ctx context.Context) (struct{}, error) {
			return struct{}{}, s.repo.Delete(ctx, id)
		})
	return err
}

func cleanTechnologies(in []string) []string {
	out := make([]string, 0, len(in))
	for _, t := range in {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}
