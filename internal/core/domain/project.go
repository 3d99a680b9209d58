package domain

import (
	"fmt"
	"time"
)

type ProjectStatus string

const (
	ProjectStatusActive    ProjectStatus = "active"
	ProjectStatusCompleted ProjectStatus = "completed"
	ProjectStatusArchived  ProjectStatus = "archived"
)

// ParseProjectStatus accepts the three known statuses.
func ParseProjectStatus(s string) (ProjectStatus, error) {
	switch ProjectStatus(s) {
	case ProjectStatusActive, ProjectStatusCompleted, ProjectStatusArchived:
		return ProjectStatus(s), nil
	default:
		return "", fmt.Errorf("unknown project status %q", s)
	}
}

// Project is a portfolio entry shown on the Projects page.
type Project struct {
	ID           string        `json:"id"           db:"id"`
	Title        string        `json:"title"        db:"title"`
	Description  string        `json:"description"  db:"description"`
	ImageURL     *string       `json:"image_url"    db:"image_url"`
	Technologies []string      `json:"technologies" db:"-"`
	Client       *string       `json:"client"       db:"client"`
	Status       ProjectStatus `json:"status"       db:"status"`
	CreatedAt    time.Time     `json:"created_at"   db:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"   db:"updated_at"`
}

// ProjectInsert holds the columns set on creation. Status defaults to active.
type ProjectInsert struct {
	Title        string        `json:"title"`
	Description  string        `json:"description"`
	ImageURL     *string       `json:"image_url,omitempty"`
	Technologies []string      `json:"technologies"`
	Client       *string       `json:"client,omitempty"`
	Status       ProjectStatus `json:"status,omitempty"`
}

// ProjectUpdate is a partial update; nil fields are left untouched.
type ProjectUpdate struct {
	Title        *string        `json:"title,omitempty"`
	Description  *string        `json:"description,omitempty"`
	ImageURL     *string        `json:"image_url,omitempty"`
	Technologies *[]string      `json:"technologies,omitempty"`
	Client       *string        `json:"client,omitempty"`
	Status       *ProjectStatus `json:"status,omitempty"`
	UpdatedAt    *time.Time     `json:"updated_at,omitempty"`
}

// Apply copies the set fields of u onto p.
func (u ProjectUpdate) Apply(p *Project) {
	if u.Title != nil {
		p.Title = *u.Title
	}
	if u.Description != nil {
		p.Description = *u.Description
	}
	if u.ImageURL != nil {
		p.ImageURL = u.ImageURL
	}
	if u.Technologies != nil {
		p.Technologies = append([]string(nil), (*u.Technologies)...)
	}
	if u.Client != nil {
		p.Client = u.Client
	}
	if u.Status != nil {
		p.Status = *u.Status
	}
	if u.UpdatedAt != nil {
		p.UpdatedAt = *u.UpdatedAt
	}
}
