package domain

// AnalyticsEvent is a named user action with free-form parameters.
type AnalyticsEvent struct {
	Name   string         `json:"name"`
	Params map[string]any `json:"params,omitempty"`
}
