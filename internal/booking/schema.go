package booking

import (
	"context"
	"slices"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/cappsac/capps-site/internal/forms"
)

var messages = forms.Messages{
	ByField: map[string]string{
		FieldServiceType:   "Please select a service",
		FieldUrgency:       "Please select urgency",
		FieldFirstName:     "First name is required",
		FieldLastName:      "Last name is required",
		FieldEmail:         "Please enter a valid email address",
		FieldPhone:         "Please enter a valid phone number",
		FieldAddress:       "Service address is required",
		FieldCity:          "City is required",
		FieldPreferredDate: "Please select a date",
		FieldPreferredTime: "Please select a time",
	},
	ByTag: map[string]map[string]string{
		FieldPreferredDate: {"notpast": "Please select today or a later date"},
	},
}

// SchemaConfig carries the values the schema checks against.
type SchemaConfig struct {
	TimeSlots []string
	Location  *time.Location
	Now       func() time.Time
}

// Schema validates booking requests, either a step at a time or in full.
type Schema struct {
	validate  *validator.Validate
	timeSlots []string
	loc       *time.Location
	now       func() time.Time
}

// NewSchema builds a schema for the configured time windows.
func NewSchema(cfg SchemaConfig) *Schema {
	s := &Schema{
		validate:  forms.NewValidator(),
		timeSlots: slices.Clone(cfg.TimeSlots),
		loc:       cfg.Location,
		now:       cfg.Now,
	}
	if s.loc == nil {
		s.loc = time.UTC
	}
	if s.now == nil {
		s.now = time.Now
	}
	// Registration only fails on empty tags or nil funcs.
	_ = s.validate.RegisterValidation("urgency", func(fl validator.FieldLevel) bool {
		return Urgency(fl.Field().String()).Valid()
	})
	_ = s.validate.RegisterValidation("timeslot", func(fl validator.FieldLevel) bool {
		return slices.Contains(s.timeSlots, fl.Field().String())
	})
	_ = s.validate.RegisterValidation("isodate", func(fl validator.FieldLevel) bool {
		_, err := forms.ParseDate(fl.Field().String(), s.loc)
		return err == nil
	})
	_ = s.validate.RegisterValidation("notpast", func(fl validator.FieldLevel) bool {
		d, err := forms.ParseDate(fl.Field().String(), s.loc)
		if err != nil {
			return false
		}
		return !d.Before(s.Today())
	})
	return s
}

// Now is the schema's clock.
func (s *Schema) Now() time.Time {
	return s.now()
}

// Today is midnight of the current date in the site timezone.
func (s *Schema) Today() time.Time {
	return forms.StartOfDay(s.now(), s.loc)
}

// MinDate is the earliest selectable date, formatted for a date input.
func (s *Schema) MinDate() string {
	return s.Today().Format(forms.DateLayout)
}

// TimeSlots returns the accepted time windows.
func (s *Schema) TimeSlots() []string {
	return slices.Clone(s.timeSlots)
}

// ValidateFields checks only the named fields. It returns forms.FieldErrors
// when any of them fail.
func (s *Schema) ValidateFields(ctx context.Context, req Request, fields ...string) error {
	if len(fields) == 0 {
		return nil
	}
	names := make([]string, 0, len(fields))
	for _, f := range fields {
		if name, ok := structFields[f]; ok {
			names = append(names, name)
		}
	}
	return forms.Translate(s.validate.StructPartialCtx(ctx, req, names...), messages)
}

// Validate checks the whole request.
func (s *Schema) Validate(ctx context.Context, req Request) error {
	return forms.Translate(s.validate.StructCtx(ctx, req), messages)
}
