package web

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cappsac/capps-site/internal/intake"
)

var validContact = map[string]string{
	"firstName": "Sam",
	"lastName":  "Ortiz",
	"email":     "sam@example.com",
	"subject":   "Request a Quote",
	"message":   "Need a quote for a new heat pump.",
}

func TestContactFormSubmit(t *testing.T) {
	site := newTestSite(t)

	rec := site.postForm(t, "/contact", nil, validContact)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/contact?sent=1", rec.Header().Get("Location"))
	require.Len(t, site.intake.contacts, 1)
	assert.Equal(t, "Request a Quote", site.intake.contacts[0].Request.Subject)
	assert.Empty(t, site.intake.contacts[0].Request.Phone, "phone is optional")

	assert.Contains(t, site.get(t, "/contact?sent=1", nil).Body.String(), "Message Sent")
}

func TestContactFormErrors(t *testing.T) {
	site := newTestSite(t)
	values := map[string]string{"firstName": "Sam", "message": "short"}

	rec := site.postForm(t, "/contact", nil, values)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Please select a subject")
	assert.Contains(t, body, "Please provide a brief message")
	assert.Contains(t, body, "Please enter a valid email address")
	assert.Contains(t, body, `value="Sam"`)
	assert.Empty(t, site.intake.contacts)
}

func TestContactFormIntakeFailures(t *testing.T) {
	site := newTestSite(t)

	site.intake.err = intake.ErrThrottled
	rec := site.postForm(t, "/contact", nil, validContact)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	site.intake.err = errors.New("db down")
	rec = site.postForm(t, "/contact", nil, validContact)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "try again")
}
