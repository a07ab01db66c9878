// Package contact validates the general contact form and forwards accepted
// messages to intake.
package contact

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/cappsac/capps-site/internal/forms"
)

const (
	FieldFirstName = "firstName"
	FieldLastName  = "lastName"
	FieldEmail     = "email"
	FieldPhone     = "phone"
	FieldSubject   = "subject"
	FieldMessage   = "message"
)

// Fields lists the form inputs in display order.
var Fields = []string{FieldFirstName, FieldLastName, FieldEmail, FieldPhone, FieldSubject, FieldMessage}

var (
	// ErrIntakeRequired is returned when Submit has nowhere to send the message.
	ErrIntakeRequired = errors.New("contact: intake collaborator required")
)

// Request is a contact form submission.
type Request struct {
	FirstName string `json:"firstName" validate:"min=2"`
	LastName  string `json:"lastName" validate:"min=2"`
	Email     string `json:"email" validate:"required,email"`
	Phone     string `json:"phone,omitempty"`
	Subject   string `json:"subject" validate:"required,subject"`
	Message   string `json:"message" validate:"min=10"`
}

// FromValues builds a trimmed request from form or JSON input. Unknown keys are ignored.
func FromValues(values map[string]string) Request {
	get := func(k string) string { return strings.TrimSpace(values[k]) }
	return Request{
		FirstName: get(FieldFirstName),
		LastName:  get(FieldLastName),
		Email:     get(FieldEmail),
		Phone:     get(FieldPhone),
		Subject:   get(FieldSubject),
		Message:   get(FieldMessage),
	}
}

// Values is the inverse of FromValues, used to re-render a rejected form.
func (r Request) Values() map[string]string {
	return map[string]string{
		FieldFirstName: r.FirstName,
		FieldLastName:  r.LastName,
		FieldEmail:     r.Email,
		FieldPhone:     r.Phone,
		FieldSubject:   r.Subject,
		FieldMessage:   r.Message,
	}
}

// FullName joins the name fields.
func (r Request) FullName() string {
	return r.FirstName + " " + r.LastName
}

// Submission is a frozen contact request.
type Submission struct {
	ID          string    `json:"id"`
	Request     Request   `json:"request"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// Intake receives accepted contact messages.
type Intake interface {
	SubmitContact(ctx context.Context, sub Submission) error
}

var messages = forms.Messages{
	ByField: map[string]string{
		FieldFirstName: "First name is required",
		FieldLastName:  "Last name is required",
		FieldEmail:     "Please enter a valid email address",
		FieldSubject:   "Please select a subject",
		FieldMessage:   "Please provide a brief message",
	},
}

// Form validates contact requests against the configured subjects.
type Form struct {
	validate *validator.Validate
	subjects []string
	now      func() time.Time
}

// NewForm returns a form accepting the given subjects. A nil clock uses time.Now.
func NewForm(subjects []string, now func() time.Time) *Form {
	if now == nil {
		now = time.Now
	}
	f := &Form{
		validate: forms.NewValidator(),
		subjects: slices.Clone(subjects),
		now:      now,
	}
	_ = f.validate.RegisterValidation("subject", func(fl validator.FieldLevel) bool {
		return slices.Contains(f.subjects, fl.Field().String())
	})
	return f
}

// Subjects returns the accepted subjects.
func (f *Form) Subjects() []string {
	return slices.Clone(f.subjects)
}

// Validate returns forms.FieldErrors when req is not acceptable.
func (f *Form) Validate(ctx context.Context, req Request) error {
	return forms.Translate(f.validate.StructCtx(ctx, req), messages)
}

// Submit validates req and forwards a frozen copy to intake.
func (f *Form) Submit(ctx context.Context, req Request, intake Intake) (Submission, error) {
	if intake == nil {
		return Submission{}, ErrIntakeRequired
	}
	if err := f.Validate(ctx, req); err != nil {
		return Submission{}, err
	}
	sub := Submission{
		ID:          uuid.NewString(),
		Request:     req,
		SubmittedAt: f.now().UTC(),
	}
	if err := intake.SubmitContact(ctx, sub); err != nil {
		return Submission{}, fmt.Errorf("contact: forward to intake: %w", err)
	}
	return sub, nil
}
