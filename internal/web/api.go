package web

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/cappsac/capps-site/internal/booking"
	"github.com/cappsac/capps-site/internal/contact"
	"github.com/cappsac/capps-site/internal/content"
	"github.com/cappsac/capps-site/internal/intake"
	"github.com/cappsac/capps-site/internal/session"
)

// WizardResponse is the JSON view of a booking session.
type WizardResponse struct {
	SessionID  string              `json:"session_id"`
	State      booking.State       `json:"state"`
	Step       booking.StepInfo    `json:"step"`
	Fields     []string            `json:"fields"`
	Values     booking.Request     `json:"values"`
	Review     []booking.ReviewRow `json:"review,omitempty"`
	Submission *booking.Submission `json:"submission,omitempty"`
}

func newWizardResponse(id string, wz *booking.Wizard) WizardResponse {
	state := wz.State()
	resp := WizardResponse{
		SessionID: id,
		State:     state,
		Step:      state.CurrentStep.Info(),
		Fields:    state.CurrentStep.Fields(),
		Values:    wz.Request(),
	}
	if resp.Fields == nil {
		resp.Fields = []string{}
	}
	if state.CurrentStep == booking.StepReview {
		resp.Review = wz.Review()
	}
	if sub, ok := wz.Submission(); ok {
		resp.Submission = &sub
	}
	return resp
}

// decodeValues reads an optional JSON object of field values. An empty body yields nil.
func decodeValues(w http.ResponseWriter, r *http.Request) (map[string]string, error) {
	var values map[string]string
	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&values)
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	return values, err
}

// CreateBooking handles POST /api/bookings.
func (h *Handler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	id, snap, err := h.sessions.Create(r.Context())
	if err != nil {
		h.logger.Error("failed to create booking session", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create booking session")
		return
	}
	writeJSON(w, http.StatusCreated, newWizardResponse(id, booking.Restore(h.schema, snap)))
}

// GetBooking handles GET /api/bookings/{sessionID}.
func (h *Handler) GetBooking(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")
	wz, err := h.sessions.Get(r.Context(), id)
	if err != nil {
		h.writeWizardError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newWizardResponse(id, wz))
}

// UpdateBooking handles PATCH /api/bookings/{sessionID}: capture field values.
func (h *Handler) UpdateBooking(w http.ResponseWriter, r *http.Request) {
	h.apiWizard(w, r, "set", nil)
}

// AdvanceBooking handles POST /api/bookings/{sessionID}/advance. A JSON body
// of field values, when present, is captured first.
func (h *Handler) AdvanceBooking(w http.ResponseWriter, r *http.Request) {
	h.apiWizard(w, r, "advance", func(wz *booking.Wizard) error { return wz.Advance(r.Context()) })
}

// RetreatBooking handles POST /api/bookings/{sessionID}/retreat.
func (h *Handler) RetreatBooking(w http.ResponseWriter, r *http.Request) {
	h.apiWizard(w, r, "retreat", func(wz *booking.Wizard) error { return wz.Retreat() })
}

// SubmitBooking handles POST /api/bookings/{sessionID}/submit.
func (h *Handler) SubmitBooking(w http.ResponseWriter, r *http.Request) {
	h.apiWizard(w, r, "submit", h.submitOp(r))
}

func (h *Handler) apiWizard(w http.ResponseWriter, r *http.Request, name string, op func(*booking.Wizard) error) {
	id := chi.URLParam(r, "sessionID")
	values, err := decodeValues(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	wz, err := h.runWizard(r, id, name, values, op)
	if err != nil {
		h.writeWizardError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newWizardResponse(id, wz))
}

func (h *Handler) writeWizardError(w http.ResponseWriter, err error) {
	if fe, ok := fieldErrorsOf(err); ok {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"errors": fe})
		return
	}
	switch {
	case errors.Is(err, session.ErrNotFound):
		writeError(w, http.StatusNotFound, "booking session not found")
	case errors.Is(err, booking.ErrAlreadySubmitted), errors.Is(err, booking.ErrNotOnReviewStep):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, intake.ErrThrottled):
		writeError(w, http.StatusTooManyRequests, h.throttledMessage())
	default:
		h.logger.Error("booking operation failed", "error", err)
		writeError(w, http.StatusInternalServerError, h.retryMessage())
	}
}

// ContactResponse acknowledges an accepted contact message.
type ContactResponse struct {
	ID          string    `json:"id"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// SubmitContactAPI handles POST /api/contact.
func (h *Handler) SubmitContactAPI(w http.ResponseWriter, r *http.Request) {
	values, err := decodeValues(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	sub, err := h.submitContact(r, contact.FromValues(values))
	if err != nil {
		h.writeWizardError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, ContactResponse{ID: sub.ID, SubmittedAt: sub.SubmittedAt})
}

// ListServices handles GET /api/content/services.
func (h *Handler) ListServices(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"services": h.catalog.Services})
}

// GetService handles GET /api/content/services/{slug}.
func (h *Handler) GetService(w http.ResponseWriter, r *http.Request) {
	svc, err := h.catalog.LookupService(chi.URLParam(r, "slug"))
	if err != nil {
		writeError(w, http.StatusNotFound, "service not found")
		return
	}
	writeJSON(w, http.StatusOK, svc)
}

// TestimonialsResponse is a filtered testimonial list with its count.
type TestimonialsResponse struct {
	Filter       string                `json:"filter"`
	Count        int                   `json:"count"`
	Testimonials []content.Testimonial `json:"testimonials"`
}

// ListTestimonials handles GET /api/content/testimonials?service=.
func (h *Handler) ListTestimonials(w http.ResponseWriter, r *http.Request) {
	filter := r.URL.Query().Get("service")
	if filter == "" {
		filter = content.FilterAll
	}
	list := h.catalog.FilterTestimonials(filter)
	writeJSON(w, http.StatusOK, TestimonialsResponse{Filter: filter, Count: len(list), Testimonials: list})
}

// BookingOptions handles GET /api/content/booking-options.
func (h *Handler) BookingOptions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"steps":            booking.Steps,
		"service_types":    h.catalog.ServiceTypes,
		"urgency_options":  h.catalog.UrgencyOptions,
		"time_slots":       h.schema.TimeSlots(),
		"min_date":         h.schema.MinDate(),
		"contact_subjects": h.contact.Subjects(),
	})
}

// SiteInfo handles GET /api/content/site.
func (h *Handler) SiteInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"company":          h.catalog.Company,
		"tel_href":         h.catalog.TelHref(),
		"nav_links":        h.catalog.NavLinks,
		"business_hours":   h.catalog.BusinessHours,
		"review_filters":   h.catalog.ReviewFilters,
		"rating_platforms": h.catalog.RatingPlatforms,
	})
}
