package models

import "time"

// ServiceKinds maps the accepted service selections to their display names.
// Unknown values are rejected during validation.
var ServiceKinds = map[string]string{
	"ai-development":   "AI Development",
	"web-development":  "Web Development",
	"digital-strategy": "Digital Strategy",
	"brand-identity":   "Brand Identity",
	"consultation":     "General Consultation",
}

// ContactRequest represents one untrusted contact form submission.
// Bound from form-encoded or multipart posts (JSON also accepted).
type ContactRequest struct {
	Name      string `form:"name" json:"name"`
	Email     string `form:"email" json:"email"`
	Company   string `form:"company" json:"company"`
	Service   string `form:"service" json:"service"`
	Message   string `form:"message" json:"message"`
	CSRFToken string `form:"csrf_token" json:"csrf_token"`
}

// RequestMeta carries the request context the pipeline needs, extracted
// explicitly from the HTTP layer so the service never reads ambient state.
type RequestMeta struct {
	ClientIP  string
	Origin    string
	Referer   string
	UserAgent string
}

// Submission holds the sanitized (trimmed and HTML-escaped) form fields
// plus request metadata. Built once per request and never mutated.
type Submission struct {
	Name       string
	Email      string
	Company    string
	Service    string
	Message    string
	ClientIP   string
	UserAgent  string
	ReceivedAt time.Time
}

// ServiceDisplayName returns the human-readable name of the selected service.
func (s *Submission) ServiceDisplayName() string {
	return ServiceKinds[s.Service]
}

// ContactResponse is the JSON payload returned for every contact request.
// Internal failure kinds are never serialized; callers only see success
// plus a human-readable message.
type ContactResponse struct {
	Success   bool           `json:"success"`
	Message   string         `json:"message"`
	Data      map[string]any `json:"data,omitempty"`
	Timestamp string         `json:"timestamp"`
}
