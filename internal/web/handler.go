// Package web serves the marketing pages, the server-side booking wizard
// and contact form, and their JSON API equivalents.
package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/cappsac/capps-site/internal/booking"
	"github.com/cappsac/capps-site/internal/contact"
	"github.com/cappsac/capps-site/internal/content"
	"github.com/cappsac/capps-site/internal/forms"
	"github.com/cappsac/capps-site/internal/intake"
	"github.com/cappsac/capps-site/internal/observability/metrics"
	"github.com/cappsac/capps-site/internal/session"
	"github.com/cappsac/capps-site/pkg/logging"
)

const maxBodyBytes = 64 << 10

// Intake accepts finalized bookings and contact messages.
type Intake interface {
	booking.Intake
	contact.Intake
}

// Config carries the collaborators the handlers need.
type Config struct {
	Catalog  *content.Catalog
	Schema   *booking.Schema
	Sessions *session.Manager
	Contact  *contact.Form
	Intake   Intake
	Metrics  *metrics.WizardMetrics
	Logger   *logging.Logger

	CookieSecure bool
	SessionTTL   time.Duration
}

// Handler serves the public site and its JSON API.
type Handler struct {
	catalog  *content.Catalog
	schema   *booking.Schema
	sessions *session.Manager
	contact  *contact.Form
	intake   Intake
	metrics  *metrics.WizardMetrics
	logger   *logging.Logger
	renderer *Renderer

	cookieSecure bool
	sessionTTL   time.Duration
}

func NewHandler(cfg Config) (*Handler, error) {
	if cfg.Catalog == nil || cfg.Schema == nil || cfg.Sessions == nil || cfg.Contact == nil || cfg.Intake == nil {
		return nil, errors.New("web: catalog, schema, sessions, contact form and intake are required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	renderer, err := NewRenderer(cfg.Catalog)
	if err != nil {
		return nil, err
	}
	ttl := cfg.SessionTTL
	if ttl <= 0 {
		ttl = session.DefaultTTL
	}
	return &Handler{
		catalog:      cfg.Catalog,
		schema:       cfg.Schema,
		sessions:     cfg.Sessions,
		contact:      cfg.Contact,
		intake:       cfg.Intake,
		metrics:      cfg.Metrics,
		logger:       logger.Component("web"),
		renderer:     renderer,
		cookieSecure: cfg.CookieSecure,
		sessionTTL:   ttl,
	}, nil
}

// outcome buckets an operation result for metrics.
func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case booking.IsValidationError(err):
		return "invalid"
	case errors.Is(err, intake.ErrThrottled):
		return "throttled"
	case errors.Is(err, booking.ErrAlreadySubmitted), errors.Is(err, booking.ErrNotOnReviewStep):
		return "rejected"
	default:
		return "error"
	}
}

// runWizard applies values and then op to the stored wizard under the
// session lock. The wizard is returned even when op fails so the caller can
// re-render what the visitor entered.
func (h *Handler) runWizard(r *http.Request, id, name string, values map[string]string, op func(*booking.Wizard) error) (*booking.Wizard, error) {
	var step booking.Step
	w, err := h.sessions.Update(r.Context(), id, func(w *booking.Wizard) error {
		step = w.State().CurrentStep
		if len(values) > 0 {
			if err := w.Set(values); err != nil {
				return err
			}
		}
		if op == nil {
			return nil
		}
		return op(w)
	})
	if errors.Is(err, session.ErrNotFound) {
		return nil, err
	}
	h.metrics.ObserveTransition(name, int(step), outcome(err))
	if fe, ok := forms.AsFieldErrors(err); ok {
		h.metrics.ObserveRejectedFields(fe.Fields())
	}
	return w, err
}

func (h *Handler) submitOp(r *http.Request) func(*booking.Wizard) error {
	return func(w *booking.Wizard) error {
		sub, err := w.Submit(r.Context(), h.intake)
		if err == nil {
			h.logger.Info("booking submitted", "submission_id", sub.ID, "urgency", sub.Request.Urgency)
		}
		return err
	}
}

func (h *Handler) throttledMessage() string {
	return "We've received several requests from you recently. Please call us at " + h.catalog.Company.PhoneDisplay + " and we'll help right away."
}

func (h *Handler) retryMessage() string {
	return "We couldn't send your request just now. Please try again, or call us at " + h.catalog.Company.PhoneDisplay + "."
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// fieldErrorsOf converts validation failures into the field map returned to visitors.
func fieldErrorsOf(err error) (forms.FieldErrors, bool) {
	if fe, ok := forms.AsFieldErrors(err); ok {
		return fe, true
	}
	var unknown *booking.UnknownFieldError
	if errors.As(err, &unknown) {
		return forms.FieldErrors{unknown.Field: "Unknown field"}, true
	}
	return nil, false
}
