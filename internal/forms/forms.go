// Package forms holds the validation plumbing shared by the public forms:
// a validator that reports fields by their JSON names and the FieldErrors
// type rendered inline next to each input.
package forms

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// DateLayout is the wire format of date inputs.
const DateLayout = "2006-01-02"

// FieldErrors maps a field's JSON name to the message shown to the visitor.
type FieldErrors map[string]string

func (e FieldErrors) Error() string {
	if len(e) == 0 {
		return "forms: no field errors"
	}
	keys := e.Fields()
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e[k])
	}
	return "forms: invalid fields: " + strings.Join(parts, "; ")
}

// Fields returns the failing field names in sorted order.
func (e FieldErrors) Fields() []string {
	keys := make([]string, 0, len(e))
	for k := range e {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Has reports whether field failed.
func (e FieldErrors) Has(field string) bool {
	_, ok := e[field]
	return ok
}

// AsFieldErrors extracts FieldErrors from err.
func AsFieldErrors(err error) (FieldErrors, bool) {
	var fe FieldErrors
	if errors.As(err, &fe) {
		return fe, true
	}
	return nil, false
}

// Messages maps validator failures onto visitor-facing text. ByTag wins over
// ByField so a field can carry a sharper message for one rule.
type Messages struct {
	ByField map[string]string
	ByTag   map[string]map[string]string
}

func (m Messages) lookup(field, tag string) string {
	if tags, ok := m.ByTag[field]; ok {
		if msg, ok := tags[tag]; ok {
			return msg
		}
	}
	if msg, ok := m.ByField[field]; ok {
		return msg
	}
	return fmt.Sprintf("%s is invalid", field)
}

// NewValidator returns a validator that names fields by their json tag.
func NewValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

// Translate turns validator errors into FieldErrors and passes anything else through.
func Translate(err error, msgs Messages) error {
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	out := make(FieldErrors, len(verrs))
	for _, fe := range verrs {
		if _, seen := out[fe.Field()]; seen {
			continue
		}
		out[fe.Field()] = msgs.lookup(fe.Field(), fe.Tag())
	}
	return out
}

// ParseDate parses a date input in loc.
func ParseDate(value string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	return time.ParseInLocation(DateLayout, strings.TrimSpace(value), loc)
}

// StartOfDay truncates t to midnight in loc.
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}
