package booking

import (
	"strings"
	"time"
)

// Urgency is how soon the visitor needs service.
type Urgency string

const (
	UrgencyEmergency Urgency = "emergency"
	UrgencyUrgent    Urgency = "urgent"
	UrgencySoon      Urgency = "soon"
	UrgencyScheduled Urgency = "scheduled"
	UrgencyPlanning  Urgency = "planning"
)

// Valid reports whether u is one of the known urgencies.
func (u Urgency) Valid() bool {
	switch u {
	case UrgencyEmergency, UrgencyUrgent, UrgencySoon, UrgencyScheduled, UrgencyPlanning:
		return true
	}
	return false
}

// Field names match the form inputs and the JSON API.
const (
	FieldServiceType   = "serviceType"
	FieldUrgency       = "urgency"
	FieldFirstName     = "firstName"
	FieldLastName      = "lastName"
	FieldEmail         = "email"
	FieldPhone         = "phone"
	FieldAddress       = "address"
	FieldCity          = "city"
	FieldPreferredDate = "preferredDate"
	FieldPreferredTime = "preferredTime"
	FieldNotes         = "notes"
)

// Request is the booking being assembled by the wizard.
type Request struct {
	ServiceType   string  `json:"serviceType" validate:"required"`
	Urgency       Urgency `json:"urgency" validate:"required,urgency"`
	FirstName     string  `json:"firstName" validate:"min=2"`
	LastName      string  `json:"lastName" validate:"min=2"`
	Email         string  `json:"email" validate:"required,email"`
	Phone         string  `json:"phone" validate:"min=10"`
	Address       string  `json:"address" validate:"min=5"`
	City          string  `json:"city" validate:"min=2"`
	PreferredDate string  `json:"preferredDate" validate:"required,isodate,notpast"`
	PreferredTime string  `json:"preferredTime" validate:"required,timeslot"`
	Notes         string  `json:"notes,omitempty"`
}

// structFields maps input names to Go field names for partial validation.
var structFields = map[string]string{
	FieldServiceType:   "ServiceType",
	FieldUrgency:       "Urgency",
	FieldFirstName:     "FirstName",
	FieldLastName:      "LastName",
	FieldEmail:         "Email",
	FieldPhone:         "Phone",
	FieldAddress:       "Address",
	FieldCity:          "City",
	FieldPreferredDate: "PreferredDate",
	FieldPreferredTime: "PreferredTime",
	FieldNotes:         "Notes",
}

// Get returns the captured value of field.
func (r *Request) Get(field string) (string, bool) {
	p := r.ptr(field)
	if p != nil {
		return *p, true
	}
	if field == FieldUrgency {
		return string(r.Urgency), true
	}
	return "", false
}

// Set captures a trimmed value for field.
func (r *Request) Set(field, value string) error {
	value = strings.TrimSpace(value)
	if field == FieldUrgency {
		r.Urgency = Urgency(value)
		return nil
	}
	p := r.ptr(field)
	if p == nil {
		return &UnknownFieldError{Field: field}
	}
	*p = value
	return nil
}

func (r *Request) ptr(field string) *string {
	switch field {
	case FieldServiceType:
		return &r.ServiceType
	case FieldFirstName:
		return &r.FirstName
	case FieldLastName:
		return &r.LastName
	case FieldEmail:
		return &r.Email
	case FieldPhone:
		return &r.Phone
	case FieldAddress:
		return &r.Address
	case FieldCity:
		return &r.City
	case FieldPreferredDate:
		return &r.PreferredDate
	case FieldPreferredTime:
		return &r.PreferredTime
	case FieldNotes:
		return &r.Notes
	}
	return nil
}

// FullName is the review rendering of the name fields.
func (r Request) FullName() string {
	return r.FirstName + " " + r.LastName
}

// FullAddress is the review rendering of the address fields.
func (r Request) FullAddress() string {
	return r.Address + ", " + r.City
}

// Submission is the frozen request handed to the intake system.
type Submission struct {
	ID          string    `json:"id"`
	Request     Request   `json:"request"`
	SubmittedAt time.Time `json:"submitted_at"`
}
