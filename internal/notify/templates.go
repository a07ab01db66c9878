package notify

import (
	"bytes"
	"fmt"
	"text/template"
)

// Renderer renders small text templates with strict missing-key semantics.
type Renderer struct{}

func (Renderer) Render(name, tmpl string, data any) (string, error) {
	if tmpl == "" {
		return "", fmt.Errorf("notify: template text required")
	}
	t, err := template.New(name).Option("missingkey=error").Parse(tmpl)
	if err != nil {
		return "", fmt.Errorf("notify: parse %s: %w", name, err)
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("notify: execute %s: %w", name, err)
	}
	return buf.String(), nil
}

// Templates holds the subject and body text for each office notification.
type Templates struct {
	BookingSubject string
	BookingBody    string
	ContactSubject string
	ContactBody    string
}

// DefaultTemplates are used for any empty field of NotifierConfig.Templates.
var DefaultTemplates = Templates{
	BookingSubject: `New service request: {{.Request.ServiceType}} ({{.UrgencyLabel}})`,
	BookingBody: `A new service request was submitted on the website.

Reference:  {{.ID}}
Received:   {{.ReceivedAt}}

Service:    {{.Request.ServiceType}}
Urgency:    {{.UrgencyLabel}}

Name:       {{.Request.FirstName}} {{.Request.LastName}}
Email:      {{.Request.Email}}
Phone:      {{.Request.Phone}}
Address:    {{.Request.Address}}, {{.Request.City}}

Preferred:  {{.Request.PreferredDate}}, {{.Request.PreferredTime}}
{{- if .Request.Notes}}

Notes:
{{.Request.Notes}}
{{- end}}
`,
	ContactSubject: `Website message: {{.Request.Subject}} from {{.Request.FirstName}} {{.Request.LastName}}`,
	ContactBody: `A new message was sent through the contact form.

Reference:  {{.ID}}
Received:   {{.ReceivedAt}}

Name:       {{.Request.FirstName}} {{.Request.LastName}}
Email:      {{.Request.Email}}
{{- if .Request.Phone}}
Phone:      {{.Request.Phone}}
{{- end}}
Subject:    {{.Request.Subject}}

{{.Request.Message}}
`,
}

func (t Templates) withDefaults() Templates {
	if t.BookingSubject == "" {
		t.BookingSubject = DefaultTemplates.BookingSubject
	}
	if t.BookingBody == "" {
		t.BookingBody = DefaultTemplates.BookingBody
	}
	if t.ContactSubject == "" {
		t.ContactSubject = DefaultTemplates.ContactSubject
	}
	if t.ContactBody == "" {
		t.ContactBody = DefaultTemplates.ContactBody
	}
	return t
}
