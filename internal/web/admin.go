package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/cappsac/capps-site/internal/booking"
	"github.com/cappsac/capps-site/internal/contact"
	httpmiddleware "github.com/cappsac/capps-site/internal/http/middleware"
	"github.com/cappsac/capps-site/internal/intake"
	"github.com/cappsac/capps-site/pkg/logging"
)

// SubmissionStore reads stored submissions for office staff.
type SubmissionStore interface {
	GetBooking(ctx context.Context, id string) (booking.Submission, error)
	ListBookings(ctx context.Context, opts intake.ListOptions) ([]booking.Submission, error)
	ListContacts(ctx context.Context, opts intake.ListOptions) ([]contact.Submission, error)
}

// ThrottleResetter lifts a visitor's submission limit.
type ThrottleResetter interface {
	ResetThrottle(ctx context.Context, email, phone string) error
}

// AdminHandler serves the office's submission endpoints.
type AdminHandler struct {
	store    SubmissionStore
	throttle ThrottleResetter
	logger   *logging.Logger
}

// NewAdminHandler builds the admin endpoints. When store also implements
// ThrottleResetter the throttle reset endpoint is enabled.
func NewAdminHandler(store SubmissionStore, logger *logging.Logger) *AdminHandler {
	if logger == nil {
		logger = logging.Default()
	}
	h := &AdminHandler{store: store, logger: logger.Component("admin")}
	if t, ok := store.(ThrottleResetter); ok {
		h.throttle = t
	}
	return h
}

type listBookingsResponse struct {
	Bookings []booking.Submission `json:"bookings"`
	Count    int                  `json:"count"`
	Limit    int                  `json:"limit"`
	Offset   int                  `json:"offset"`
}

type listContactsResponse struct {
	Contacts []contact.Submission `json:"contacts"`
	Count    int                  `json:"count"`
	Limit    int                  `json:"limit"`
	Offset   int                  `json:"offset"`
}

// ListBookings handles GET /admin/bookings?limit=&offset=.
func (h *AdminHandler) ListBookings(w http.ResponseWriter, r *http.Request) {
	opts := listOptions(r)
	list, err := h.store.ListBookings(r.Context(), opts)
	if err != nil {
		h.logger.Error("failed to list bookings", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list bookings")
		return
	}
	writeJSON(w, http.StatusOK, listBookingsResponse{Bookings: list, Count: len(list), Limit: opts.Limit, Offset: opts.Offset})
}

// GetBooking handles GET /admin/bookings/{id}.
func (h *AdminHandler) GetBooking(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	sub, err := h.store.GetBooking(r.Context(), id)
	if errors.Is(err, intake.ErrNotFound) {
		writeError(w, http.StatusNotFound, "booking not found")
		return
	}
	if err != nil {
		h.logger.Error("failed to get booking", "error", err, "id", id)
		writeError(w, http.StatusInternalServerError, "failed to get booking")
		return
	}
	writeJSON(w, http.StatusOK, sub)
}

// ListContacts handles GET /admin/contacts?limit=&offset=.
func (h *AdminHandler) ListContacts(w http.ResponseWriter, r *http.Request) {
	opts := listOptions(r)
	list, err := h.store.ListContacts(r.Context(), opts)
	if err != nil {
		h.logger.Error("failed to list contacts", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list contact messages")
		return
	}
	writeJSON(w, http.StatusOK, listContactsResponse{Contacts: list, Count: len(list), Limit: opts.Limit, Offset: opts.Offset})
}

type resetThrottleRequest struct {
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// ResetThrottle handles POST /admin/throttle/reset, for visitors who call the
// office after being told they have submitted too many requests.
func (h *AdminHandler) ResetThrottle(w http.ResponseWriter, r *http.Request) {
	if h.throttle == nil {
		writeError(w, http.StatusNotImplemented, "throttle reset not available")
		return
	}
	var req resetThrottleRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Email) == "" && strings.TrimSpace(req.Phone) == "" {
		writeError(w, http.StatusBadRequest, "email or phone is required")
		return
	}
	if err := h.throttle.ResetThrottle(r.Context(), req.Email, req.Phone); err != nil {
		h.logger.Error("failed to reset throttle", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to reset throttle")
		return
	}
	if claims, ok := httpmiddleware.AdminClaimsFromContext(r.Context()); ok {
		h.logger.Info("submission throttle reset", "by", claims.Subject)
	}
	w.WriteHeader(http.StatusNoContent)
}

func listOptions(r *http.Request) intake.ListOptions {
	opts := intake.ListOptions{Limit: intake.DefaultListLimit}
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 && v <= intake.MaxListLimit {
		opts.Limit = v
	}
	if v, err := strconv.Atoi(r.URL.Query().Get("offset")); err == nil && v >= 0 {
		opts.Offset = v
	}
	return opts
}
