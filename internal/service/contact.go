package service

import (
	"context"
	"regexp"
	"strings"

	"github.com/vietddude/nkiru/internal/analytics"
	"github.com/vietddude/nkiru/internal/core/apperr"
	"github.com/vietddude/nkiru/internal/core/domain"
	"github.com/vietddude/nkiru/internal/infra/storage"
	"github.com/vietddude/nkiru/internal/metrics"
)

const contactFormName = "contact_form"

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ContactForm is what a visitor submits.
type ContactForm struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Company         string `json:"company"`
	Message         string `json:"message"`
	ServiceInterest string `json:"service_interest"`
}

// Validate checks the form locally. The first problem found is returned as
// a validation error whose user message is the inline guidance.
func (f ContactForm) Validate() *apperr.Error {
	switch {
	case strings.TrimSpace(f.Name) == "":
		return apperr.Invalid("Name is required")
	case strings.TrimSpace(f.Email) == "":
		return apperr.Invalid("Email is required")
	case !emailPattern.MatchString(strings.TrimSpace(f.Email)):
		return apperr.Invalid("Please enter a valid email address")
	case strings.TrimSpace(f.Message) == "":
		return apperr.Invalid("Message is required")
	}
	return nil
}

func (f ContactForm) insert() domain.ContactInsert {
	in := domain.ContactInsert{
		Name:    strings.TrimSpace(f.Name),
		Email:   strings.TrimSpace(f.Email),
		Message: strings.TrimSpace(f.Message),
	}
	if company := strings.TrimSpace(f.Company); company != "" {
		in.Company = &company
	}
	return in
}

// ConnectionStatus is the result of a backend reachability probe.
type ConnectionStatus struct {
	Connected bool   `json:"connected"`
	Error     string `json:"error,omitempty"`
}

// ContactService handles contact-form submissions.
type ContactService struct {
	repo storage.ContactRepository
	backend
}

// NewContactService creates a new contact service.
func NewContactService(repo storage.ContactRepository, opts Options) *ContactService {
	return &ContactService{repo: repo, backend: newBackend(opts, "contacts")}
}

// Submit validates the form and stores it. Invalid forms never reach the
// backend.
func (s *ContactService) Submit(ctx context.Context, form ContactForm) (*domain.Contact, error) {
	if verr := form.Validate(); verr != nil {
		metrics.ContactSubmissionsTotal.WithLabelValues("invalid").Inc()
		s.sink.Track(ctx, analytics.FormSubmission(contactFormName, false))
		return nil, verr
	}

	in := form.insert()
	contact, err := call(ctx, s.backend, storage.TableContacts, "insert",
		func(ctx context.Context) (*domain.Contact, error) {
			return s.repo.Create(ctx, in)
		})
	if err != nil {
		metrics.ContactSubmissionsTotal.WithLabelValues("failed").Inc()
		s.sink.Track(ctx, analytics.FormSubmission(contactFormName, false))
		return nil, err
	}

	metrics.ContactSubmissionsTotal.WithLabelValues("ok").Inc()
	s.sink.Track(ctx, analytics.FormSubmission(contactFormName, true))
	s.sink.Track(ctx, analytics.Contact(analytics.ContactForm))
	if form.ServiceInterest != "" {
		s.sink.Track(ctx, analytics.ServiceInterest(form.ServiceInterest))
	}
	s.log.Info("Contact submitted", "id", contact.ID)
	return contact, nil
}

// List returns all contacts, newest first.
func (s *ContactService) List(ctx context.Context) ([]*domain.Contact, error) {
	contacts, err := call(ctx, s.backend, storage.TableContacts, "select", s.repo.List)
	if err != nil {
		return nil, err
	}
	if contacts == nil {
		contacts = []*domain.Contact{}
	}
	return contacts, nil
}

// Delete removes a contact.
func (s *ContactService) Delete(ctx context.Context, id string) error {
	if err := checkID("Contact", id); err != nil {
		return err
	}
	_, err := call(ctx, s.backend, storage.TableContacts, "delete",
		func(ctx context.Context) (struct{}, error) {
			return struct{}{}, s.repo.Delete(ctx, id)
		})
	return err
}

// Connection probes the backend once, without retries.
func (s *ContactService) Connection(ctx context.Context) ConnectionStatus {
	if _, err := s.repo.Count(ctx); err != nil {
		return ConnectionStatus{Connected: false, Error: apperr.Classify(err).Message}
	}
	return ConnectionStatus{Connected: true}
}
