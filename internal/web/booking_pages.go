package web

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/cappsac/capps-site/internal/booking"
	"github.com/cappsac/capps-site/internal/content"
	"github.com/cappsac/capps-site/internal/forms"
	"github.com/cappsac/capps-site/internal/intake"
	"github.com/cappsac/capps-site/internal/session"
)

// SessionCookie carries the booking session id for the HTML flow.
const SessionCookie = "booking_session"

const expiredNotice = "Your booking session expired, so we started a new one."

type stepView struct {
	Info      booking.StepInfo
	Completed bool
	Current   bool
}

type bookView struct {
	Steps     []stepView
	StepCount int
	Info      booking.StepInfo
	Direction booking.Direction
	Request   booking.Request
	Review    []booking.ReviewRow
	Errors    forms.FieldErrors
	Notice    string

	ServiceTypes   []string
	UrgencyOptions []content.Option
	TimeSlots      []string
	MinDate        string

	Submission *booking.Submission
}

func (h *Handler) newBookView(wz *booking.Wizard, errs forms.FieldErrors, notice string) bookView {
	state := wz.State()
	v := bookView{
		StepCount:      len(booking.Steps),
		Info:           state.CurrentStep.Info(),
		Direction:      state.Direction,
		Request:        wz.Request(),
		Errors:         errs,
		Notice:         notice,
		ServiceTypes:   h.catalog.ServiceTypes,
		UrgencyOptions: h.catalog.UrgencyOptions,
		TimeSlots:      h.schema.TimeSlots(),
		MinDate:        h.schema.MinDate(),
	}
	for _, info := range booking.Steps {
		v.Steps = append(v.Steps, stepView{
			Info:      info,
			Completed: info.Step < state.CurrentStep,
			Current:   info.Step == state.CurrentStep,
		})
	}
	if state.CurrentStep == booking.StepReview {
		v.Review = wz.Review()
	}
	if sub, ok := wz.Submission(); ok {
		v.Submission = &sub
	}
	return v
}

func (h *Handler) renderBook(w http.ResponseWriter, r *http.Request, status int, wz *booking.Wizard, errs forms.FieldErrors, notice string) {
	h.render(w, r, status, pageBook, "Book Service", h.newBookView(wz, errs, notice))
}

func (h *Handler) setSessionCookie(w http.ResponseWriter, id string) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    id,
		Path:     "/",
		MaxAge:   int(h.sessionTTL.Seconds()),
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *Handler) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

func sessionIDFromCookie(r *http.Request) string {
	c, err := r.Cookie(SessionCookie)
	if err != nil {
		return ""
	}
	return c.Value
}

// BookPage handles GET /book. It shows the current step, or the
// confirmation once submitted, starting a session when there is none.
func (h *Handler) BookPage(w http.ResponseWriter, r *http.Request) {
	notice := ""
	if r.URL.Query().Get("expired") != "" {
		notice = expiredNotice
	}
	if id := sessionIDFromCookie(r); id != "" {
		wz, err := h.sessions.Get(r.Context(), id)
		switch {
		case err == nil:
			h.renderBook(w, r, http.StatusOK, wz, nil, notice)
			return
		case errors.Is(err, session.ErrNotFound):
			notice = expiredNotice
		default:
			h.renderError(w, r, err)
			return
		}
	}

	id, snap, err := h.sessions.Create(r.Context())
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	h.setSessionCookie(w, id)
	h.renderBook(w, r, http.StatusOK, booking.Restore(h.schema, snap), nil, notice)
}

// BookNext handles POST /book/next: capture the step's inputs and advance.
func (h *Handler) BookNext(w http.ResponseWriter, r *http.Request) {
	h.bookStep(w, r, "advance", func(wz *booking.Wizard) error { return wz.Advance(r.Context()) })
}

// BookBack handles POST /book/back: keep the step's inputs and go back without validating.
func (h *Handler) BookBack(w http.ResponseWriter, r *http.Request) {
	h.bookStep(w, r, "retreat", func(wz *booking.Wizard) error { return wz.Retreat() })
}

// BookSubmit handles POST /book/submit.
func (h *Handler) BookSubmit(w http.ResponseWriter, r *http.Request) {
	h.bookStep(w, r, "submit", h.submitOp(r))
}

// BookRestart handles POST /book/restart: forget the session and start over.
func (h *Handler) BookRestart(w http.ResponseWriter, r *http.Request) {
	if id := sessionIDFromCookie(r); id != "" {
		if err := h.sessions.Delete(r.Context(), id); err != nil {
			h.logger.Warn("failed to delete booking session", "error", err)
		}
	}
	h.clearSessionCookie(w)
	http.Redirect(w, r, "/book", http.StatusSeeOther)
}

func (h *Handler) bookStep(w http.ResponseWriter, r *http.Request, name string, op func(*booking.Wizard) error) {
	id := sessionIDFromCookie(r)
	if id == "" {
		http.Redirect(w, r, "/book", http.StatusSeeOther)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form submission", http.StatusBadRequest)
		return
	}

	// Only the inputs of the step being shown are taken from the post.
	wz, err := h.runWizard(r, id, name, nil, func(wz *booking.Wizard) error {
		if values := stepValues(r.PostForm, wz.State().CurrentStep); len(values) > 0 {
			if err := wz.Set(values); err != nil {
				return err
			}
		}
		return op(wz)
	})
	if err == nil {
		http.Redirect(w, r, "/book", http.StatusSeeOther)
		return
	}

	switch {
	case errors.Is(err, session.ErrNotFound):
		http.Redirect(w, r, "/book?expired=1", http.StatusSeeOther)
	case errors.Is(err, booking.ErrAlreadySubmitted), errors.Is(err, booking.ErrNotOnReviewStep):
		http.Redirect(w, r, "/book", http.StatusSeeOther)
	case wz == nil:
		h.renderError(w, r, err)
	default:
		if fe, ok := fieldErrorsOf(err); ok {
			h.renderBook(w, r, http.StatusUnprocessableEntity, wz, fe, "")
			return
		}
		if errors.Is(err, intake.ErrThrottled) {
			h.renderBook(w, r, http.StatusTooManyRequests, wz, nil, h.throttledMessage())
			return
		}
		h.logger.Error("booking step failed", "error", err, "operation", name)
		h.renderBook(w, r, http.StatusInternalServerError, wz, nil, h.retryMessage())
	}
}

// stepValues picks the posted inputs that belong to step.
func stepValues(form url.Values, step booking.Step) map[string]string {
	values := make(map[string]string)
	for _, field := range step.Fields() {
		if _, ok := form[field]; ok {
			values[field] = form.Get(field)
		}
	}
	return values
}
