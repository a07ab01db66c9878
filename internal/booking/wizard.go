package booking

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/cappsac/capps-site/internal/forms"
)

// Step is a wizard position, 1 through 4.
type Step int

const (
	StepService Step = iota + 1
	StepContact
	StepSchedule
	StepReview
)

// FirstStep and LastStep bound the wizard.
const (
	FirstStep = StepService
	LastStep  = StepReview
)

// StepInfo describes a step for the step indicator.
type StepInfo struct {
	Step  Step   `json:"step"`
	Label string `json:"label"`
	Title string `json:"title"`
}

// Steps lists the wizard in order.
var Steps = []StepInfo{
	{StepService, "Service", "What do you need?"},
	{StepContact, "Contact", "Your information"},
	{StepSchedule, "Schedule", "Preferred timing"},
	{StepReview, "Review", "Confirm details"},
}

var stepFields = map[Step][]string{
	StepService:  {FieldServiceType, FieldUrgency},
	StepContact:  {FieldFirstName, FieldLastName, FieldEmail, FieldPhone, FieldAddress, FieldCity},
	StepSchedule: {FieldPreferredDate, FieldPreferredTime, FieldNotes},
}

// Fields returns the inputs shown on the step.
func (s Step) Fields() []string {
	return append([]string(nil), stepFields[s]...)
}

// Info returns the indicator entry for the step.
func (s Step) Info() StepInfo {
	if s < FirstStep || s > LastStep {
		return StepInfo{Step: s}
	}
	return Steps[s-1]
}

// Direction records which way the last transition went.
type Direction string

const (
	Forward  Direction = "forward"
	Backward Direction = "backward"
)

// State is the wizard position.
type State struct {
	CurrentStep Step      `json:"current_step"`
	Direction   Direction `json:"direction"`
	Submitted   bool      `json:"submitted"`
}

// Intake receives finalized bookings.
type Intake interface {
	SubmitBooking(ctx context.Context, sub Submission) error
}

// Snapshot is the serialisable form of a wizard.
type Snapshot struct {
	State        State       `json:"state"`
	Request      Request     `json:"request"`
	SubmissionID string      `json:"submission_id,omitempty"`
	Submission   *Submission `json:"submission,omitempty"`
}

// Wizard walks a visitor through the four booking steps. A Wizard is owned
// by one caller at a time and is not safe for concurrent use.
type Wizard struct {
	schema       *Schema
	state        State
	req          Request
	submissionID string
	submission   *Submission
}

// NewWizard returns a wizard on step 1 with an empty request. The id its
// submission will carry is fixed here, so every submit attempt of one wizard
// reaches intake under the same id.
func NewWizard(schema *Schema) *Wizard {
	return &Wizard{
		schema:       schema,
		state:        State{CurrentStep: FirstStep, Direction: Forward},
		submissionID: uuid.NewString(),
	}
}

// Restore rebuilds a wizard from a snapshot, clamping an out-of-range step.
func Restore(schema *Schema, snap Snapshot) *Wizard {
	w := &Wizard{schema: schema, state: snap.State, req: snap.Request, submissionID: snap.SubmissionID}
	if w.submissionID == "" {
		w.submissionID = uuid.NewString()
	}
	if w.state.CurrentStep < FirstStep {
		w.state.CurrentStep = FirstStep
	}
	if w.state.CurrentStep > LastStep {
		w.state.CurrentStep = LastStep
	}
	if w.state.Direction == "" {
		w.state.Direction = Forward
	}
	if snap.Submission != nil {
		sub := *snap.Submission
		w.submission = &sub
		w.state.Submitted = true
	}
	return w
}

// Snapshot captures the wizard for storage.
func (w *Wizard) Snapshot() Snapshot {
	snap := Snapshot{State: w.state, Request: w.req, SubmissionID: w.submissionID}
	if w.submission != nil {
		sub := *w.submission
		snap.Submission = &sub
	}
	return snap
}

func (w *Wizard) State() State { return w.state }

// Request returns a copy of the values captured so far.
func (w *Wizard) Request() Request { return w.req }

// Submission returns the frozen request once submitted.
func (w *Wizard) Submission() (Submission, bool) {
	if w.submission == nil {
		return Submission{}, false
	}
	return *w.submission, true
}

// Set captures field values. Unknown fields are rejected before any value is applied.
func (w *Wizard) Set(values map[string]string) error {
	if w.state.Submitted {
		return ErrAlreadySubmitted
	}
	for field := range values {
		if _, ok := structFields[field]; !ok {
			return &UnknownFieldError{Field: field}
		}
	}
	for field, value := range values {
		if err := w.req.Set(field, value); err != nil {
			return err
		}
	}
	return nil
}

// Advance validates the current step and moves forward on success. It is a
// no-op on the review step. Validation failures come back as
// forms.FieldErrors and leave the state untouched.
func (w *Wizard) Advance(ctx context.Context) error {
	if w.state.Submitted {
		return ErrAlreadySubmitted
	}
	if w.state.CurrentStep >= LastStep {
		return nil
	}
	if err := w.schema.ValidateFields(ctx, w.req, w.state.CurrentStep.Fields()...); err != nil {
		return err
	}
	w.state.Direction = Forward
	w.state.CurrentStep++
	return nil
}

// Retreat moves back one step without validating. It is a no-op on step 1.
func (w *Wizard) Retreat() error {
	if w.state.Submitted {
		return ErrAlreadySubmitted
	}
	if w.state.CurrentStep <= FirstStep {
		return nil
	}
	w.state.Direction = Backward
	w.state.CurrentStep--
	return nil
}

// Submit validates the whole request and hands a frozen copy to intake. The
// wizard becomes terminal only after intake accepts it. Retries after a
// failure reuse the wizard's submission id.
func (w *Wizard) Submit(ctx context.Context, intake Intake) (Submission, error) {
	if w.state.Submitted {
		return Submission{}, ErrAlreadySubmitted
	}
	if w.state.CurrentStep != StepReview {
		return Submission{}, ErrNotOnReviewStep
	}
	if intake == nil {
		return Submission{}, ErrIntakeRequired
	}
	if err := w.schema.Validate(ctx, w.req); err != nil {
		return Submission{}, err
	}

	sub := Submission{
		ID:          w.submissionID,
		Request:     w.req,
		SubmittedAt: w.schema.Now().UTC(),
	}
	if err := intake.SubmitBooking(ctx, sub); err != nil {
		return Submission{}, fmt.Errorf("booking: forward to intake: %w", err)
	}
	w.submission = &sub
	w.state.Submitted = true
	return sub, nil
}

// ReviewRow is one line of the confirmation table.
type ReviewRow struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Review returns the confirmation table built from the captured values.
func (w *Wizard) Review() []ReviewRow {
	r := w.req
	return []ReviewRow{
		{"Service", r.ServiceType},
		{"Urgency", string(r.Urgency)},
		{"Name", r.FullName()},
		{"Email", r.Email},
		{"Phone", r.Phone},
		{"Address", r.FullAddress()},
		{"Date", r.PreferredDate},
		{"Time", r.PreferredTime},
	}
}

// IsValidationError reports whether err is a visitor-correctable field failure.
func IsValidationError(err error) bool {
	var unknown *UnknownFieldError
	if errors.As(err, &unknown) {
		return true
	}
	_, ok := forms.AsFieldErrors(err)
	return ok
}
