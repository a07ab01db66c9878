package web

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/cappsac/capps-site/internal/contact"
	"github.com/cappsac/capps-site/internal/forms"
	"github.com/cappsac/capps-site/internal/intake"
)

type contactView struct {
	Sent     bool
	Request  contact.Request
	Subjects []string
	Errors   forms.FieldErrors
	Notice   string
}

func (h *Handler) renderContact(w http.ResponseWriter, r *http.Request, status int, v contactView) {
	v.Subjects = h.contact.Subjects()
	h.render(w, r, status, pageContact, "Contact", v)
}

// ContactPage handles GET /contact.
func (h *Handler) ContactPage(w http.ResponseWriter, r *http.Request) {
	h.renderContact(w, r, http.StatusOK, contactView{Sent: r.URL.Query().Get("sent") != ""})
}

// ContactSubmit handles POST /contact.
func (h *Handler) ContactSubmit(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form submission", http.StatusBadRequest)
		return
	}
	req := contact.FromValues(formValues(r.PostForm, contact.Fields))

	_, err := h.submitContact(r, req)
	switch {
	case err == nil:
		http.Redirect(w, r, "/contact?sent=1", http.StatusSeeOther)
	case errors.Is(err, intake.ErrThrottled):
		h.renderContact(w, r, http.StatusTooManyRequests, contactView{Request: req, Notice: h.throttledMessage()})
	default:
		if fe, ok := forms.AsFieldErrors(err); ok {
			h.renderContact(w, r, http.StatusUnprocessableEntity, contactView{Request: req, Errors: fe})
			return
		}
		h.renderContact(w, r, http.StatusInternalServerError, contactView{Request: req, Notice: h.retryMessage()})
	}
}

func (h *Handler) submitContact(r *http.Request, req contact.Request) (contact.Submission, error) {
	sub, err := h.contact.Submit(r.Context(), req, h.intake)
	h.metrics.ObserveContact(outcome(err))
	switch {
	case err == nil:
		h.logger.Info("contact message submitted", "submission_id", sub.ID, "subject", sub.Request.Subject)
	case !errors.Is(err, intake.ErrThrottled):
		if _, ok := forms.AsFieldErrors(err); !ok {
			h.logger.Error("contact submission failed", "error", err)
		}
	}
	return sub, err
}

func formValues(form url.Values, fields []string) map[string]string {
	values := make(map[string]string, len(fields))
	for _, f := range fields {
		values[f] = form.Get(f)
	}
	return values
}
