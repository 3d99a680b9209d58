package analytics

import (
	"fmt"

	"github.com/vietddude/nkiru/internal/core/apperr"
	"github.com/vietddude/nkiru/internal/core/domain"
)

// Event builds a custom event.
func Event(name string, params map[string]any) domain.AnalyticsEvent {
	return domain.AnalyticsEvent{Name: name, Params: params}
}

// categorized mirrors the action/category/label/value event shape.
func categorized(action, category, label string, value *int) domain.AnalyticsEvent {
	params := map[string]any{
		"event_category": category,
		"event_label":    label,
	}
	if value != nil {
		params["value"] = *value
	}
	return domain.AnalyticsEvent{Name: action, Params: params}
}

func PageView(path, title, location string) domain.AnalyticsEvent {
	return domain.AnalyticsEvent{
		Name: "page_view",
		Params: map[string]any{
			"page_title":    title,
			"page_location": location,
			"page_path":     path,
		},
	}
}

func ButtonClick(button, location string) domain.AnalyticsEvent {
	label := button
	if location != "" {
		label = button + " - " + location
	}
	return categorized("click", "engagement", label, nil)
}

func FormSubmission(form string, success bool) domain.AnalyticsEvent {
	action := "form_submit_success"
	if !success {
		action = "form_submit_error"
	}
	return categorized(action, "form", form, nil)
}

// ContactMethod is how a visitor reached out.
type ContactMethod string

const (
	ContactEmail ContactMethod = "email"
	ContactPhone ContactMethod = "phone"
	ContactForm  ContactMethod = "form"
	ContactChat  ContactMethod = "chat"
)

func Contact(method ContactMethod) domain.AnalyticsEvent {
	return categorized("contact_attempt", "lead_generation", string(method), nil)
}

func ServiceInterest(service string) domain.AnalyticsEvent {
	return categorized("service_interest", "engagement", service, nil)
}

func ProjectView(project string) domain.AnalyticsEvent {
	return categorized("project_view", "engagement", project, nil)
}

func ScrollDepth(percentage int) domain.AnalyticsEvent {
	return categorized("scroll", "engagement", fmt.Sprintf("%d%%", percentage), &percentage)
}

// Exception reports a handled error. It is never fatal.
func Exception(err error) domain.AnalyticsEvent {
	errorType := string(apperr.CategoryUnknown)
	if e, ok := apperr.As(err); ok {
		errorType = string(e.Category)
	}
	return domain.AnalyticsEvent{
		Name: "exception",
		Params: map[string]any{
			"description": err.Error(),
			"fatal":       false,
			"error_type":  errorType,
		},
	}
}
