package domain

import (
	"time"
)

// Contact is a stored contact-form submission.
type Contact struct {
	ID        string    `json:"id"         db:"id"`
	Name      string    `json:"name"       db:"name"`
	Email     string    `json:"email"      db:"email"`
	Company   *string   `json:"company"    db:"company"`
	Message   string    `json:"message"    db:"message"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// ContactInsert holds the columns a visitor may set.
type ContactInsert struct {
	Name    string  `json:"name"`
	Email   string  `json:"email"`
	Company *string `json:"company,omitempty"`
	Message string  `json:"message"`
}
