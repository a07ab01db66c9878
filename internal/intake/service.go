package intake

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/cappsac/capps-site/internal/archive"
	"github.com/cappsac/capps-site/internal/booking"
	"github.com/cappsac/capps-site/internal/contact"
	"github.com/cappsac/capps-site/internal/events"
	"github.com/cappsac/capps-site/internal/observability/metrics"
	"github.com/cappsac/capps-site/pkg/logging"
)

var tracer = otel.Tracer("capps.internal.intake")

const (
	kindBooking = "booking"
	kindContact = "contact"

	publishTimeout = 5 * time.Second
)

// Service is the intake collaborator handed to the wizard and contact form.
// A submission counts as received once the repository has it; the queue
// event that follows is best-effort.
type Service struct {
	repo      Repository
	publisher *Publisher
	throttle  *Throttle
	metrics   *metrics.IntakeMetrics
	logger    *logging.Logger
	now       func() time.Time
}

// ServiceOption customizes the service.
type ServiceOption func(*Service)

// WithPublisher sends a submitted event for each stored submission.
func WithPublisher(p *Publisher) ServiceOption {
	return func(s *Service) { s.publisher = p }
}

// WithThrottle rejects floods from one email or phone.
func WithThrottle(t *Throttle) ServiceOption {
	return func(s *Service) { s.throttle = t }
}

func WithMetrics(m *metrics.IntakeMetrics) ServiceOption {
	return func(s *Service) { s.metrics = m }
}

func NewService(repo Repository, logger *logging.Logger, opts ...ServiceOption) *Service {
	if repo == nil {
		panic("intake: repository required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	s := &Service{repo: repo, logger: logger.Component("intake"), now: time.Now}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// SubmitBooking records a finalized booking and announces it.
func (s *Service) SubmitBooking(ctx context.Context, sub booking.Submission) error {
	ctx, span := tracer.Start(ctx, "intake.submit_booking")
	defer span.End()
	span.SetAttributes(
		attribute.String("intake.submission_id", sub.ID),
		attribute.String("intake.urgency", string(sub.Request.Urgency)),
	)
	start := s.now()

	// A retried submit of the same wizard was already received and announced.
	if _, err := s.repo.GetBooking(ctx, sub.ID); err == nil {
		s.logger.Info("booking already received", "submission_id", sub.ID)
		return nil
	} else if !errors.Is(err, ErrNotFound) {
		s.logger.Warn("failed to check for existing booking", "error", err, "submission_id", sub.ID)
	}

	if s.throttled(ctx, kindBooking, archive.NormalizeEmail(sub.Request.Email), archive.NormalizePhone(sub.Request.Phone)) {
		s.metrics.ObserveSubmission(kindBooking, "throttled", s.since(start))
		span.SetStatus(codes.Error, "throttled")
		return ErrThrottled
	}

	if err := s.repo.SaveBooking(ctx, sub); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "store failed")
		s.metrics.ObserveSubmission(kindBooking, "error", s.since(start))
		s.logger.Error("failed to store booking", "error", err, "submission_id", sub.ID)
		return fmt.Errorf("intake: submit booking: %w", err)
	}
	s.metrics.ObserveSubmission(kindBooking, "stored", s.since(start))
	s.logger.Info("booking received",
		"submission_id", sub.ID,
		"service_type", sub.Request.ServiceType,
		"urgency", sub.Request.Urgency,
		"email", archive.MaskEmail(sub.Request.Email),
		"phone", archive.MaskPhone(sub.Request.Phone),
	)

	s.publish(ctx, kindBooking+":"+sub.ID, events.BookingSubmittedV1{Submission: sub})
	return nil
}

// SubmitContact records a contact message and announces it.
func (s *Service) SubmitContact(ctx context.Context, sub contact.Submission) error {
	ctx, span := tracer.Start(ctx, "intake.submit_contact")
	defer span.End()
	span.SetAttributes(
		attribute.String("intake.submission_id", sub.ID),
		attribute.String("intake.subject", sub.Request.Subject),
	)
	start := s.now()

	if s.throttled(ctx, kindContact, archive.NormalizeEmail(sub.Request.Email), archive.NormalizePhone(sub.Request.Phone)) {
		s.metrics.ObserveSubmission(kindContact, "throttled", s.since(start))
		span.SetStatus(codes.Error, "throttled")
		return ErrThrottled
	}

	if err := s.repo.SaveContact(ctx, sub); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "store failed")
		s.metrics.ObserveSubmission(kindContact, "error", s.since(start))
		s.logger.Error("failed to store contact message", "error", err, "submission_id", sub.ID)
		return fmt.Errorf("intake: submit contact: %w", err)
	}
	s.metrics.ObserveSubmission(kindContact, "stored", s.since(start))
	s.logger.Info("contact message received",
		"submission_id", sub.ID,
		"subject", sub.Request.Subject,
		"email", archive.MaskEmail(sub.Request.Email),
	)

	s.publish(ctx, kindContact+":"+sub.ID, events.ContactSubmittedV1{Submission: sub})
	return nil
}

// GetBooking returns a stored booking.
func (s *Service) GetBooking(ctx context.Context, id string) (booking.Submission, error) {
	return s.repo.GetBooking(ctx, id)
}

// ListBookings returns stored bookings, newest first.
func (s *Service) ListBookings(ctx context.Context, opts ListOptions) ([]booking.Submission, error) {
	return s.repo.ListBookings(ctx, opts)
}

// ListContacts returns stored contact messages, newest first.
func (s *Service) ListContacts(ctx context.Context, opts ListOptions) ([]contact.Submission, error) {
	return s.repo.ListContacts(ctx, opts)
}

// ResetThrottle lifts the submission limit of both kinds for a visitor, as
// identified by email, phone or both. It is a no-op without a throttle.
func (s *Service) ResetThrottle(ctx context.Context, email, phone string) error {
	if s.throttle == nil {
		return nil
	}
	for _, kind := range []string{kindBooking, kindContact} {
		for _, c := range []string{archive.NormalizeEmail(email), archive.NormalizePhone(phone)} {
			if c == "" {
				continue
			}
			if err := s.throttle.Reset(ctx, kind, c); err != nil {
				return fmt.Errorf("intake: reset %s throttle: %w", kind, err)
			}
		}
	}
	return nil
}

func (s *Service) throttled(ctx context.Context, kind string, contacts ...string) bool {
	if s.throttle == nil {
		return false
	}
	blocked := false
	for _, c := range contacts {
		if c == "" {
			continue
		}
		if !s.throttle.Check(ctx, kind, c).Allowed {
			blocked = true
		}
	}
	return blocked
}

func (s *Service) publish(ctx context.Context, aggregate string, evt events.CanonicalEvent) {
	if s.publisher == nil {
		return
	}
	// Publish even if the visitor disconnects once the record is stored.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	_, err := s.publisher.Publish(ctx, aggregate, middleware.GetReqID(ctx), evt)
	s.metrics.ObserveDelivery("queue", err)
	if err != nil {
		s.logger.Error("failed to publish intake event", "error", err, "aggregate", aggregate)
	}
}

func (s *Service) since(start time.Time) float64 {
	return s.now().Sub(start).Seconds()
}
