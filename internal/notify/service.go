package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/cappsac/capps-site/internal/booking"
	"github.com/cappsac/capps-site/internal/contact"
	"github.com/cappsac/capps-site/pkg/logging"
)

const receivedLayout = "Monday, January 2, 2006 at 3:04 PM MST"

// NotifierConfig configures office notifications.
type NotifierConfig struct {
	OfficeEmail  string
	Location     *time.Location
	UrgencyLabel func(value string) string
	Templates    Templates
}

// Notifier emails the office about new bookings and contact messages.
type Notifier struct {
	email     EmailSender
	renderer  Renderer
	to        string
	loc       *time.Location
	urgency   func(string) string
	templates Templates
	logger    *logging.Logger
}

func NewNotifier(email EmailSender, cfg NotifierConfig, logger *logging.Logger) *Notifier {
	if logger == nil {
		logger = logging.Default()
	}
	if email == nil {
		email = NewStubEmailSender(logger)
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.UrgencyLabel == nil {
		cfg.UrgencyLabel = func(v string) string { return v }
	}
	return &Notifier{
		email:     email,
		to:        cfg.OfficeEmail,
		loc:       cfg.Location,
		urgency:   cfg.UrgencyLabel,
		templates: cfg.Templates.withDefaults(),
		logger:    logger.Component("notify"),
	}
}

type bookingView struct {
	ID           string
	Request      booking.Request
	UrgencyLabel string
	ReceivedAt   string
}

type contactView struct {
	ID         string
	Request    contact.Request
	ReceivedAt string
}

// NotifyBooking sends the office a summary of sub with the visitor as reply-to.
func (n *Notifier) NotifyBooking(ctx context.Context, sub booking.Submission) error {
	view := bookingView{
		ID:           sub.ID,
		Request:      sub.Request,
		UrgencyLabel: n.urgency(string(sub.Request.Urgency)),
		ReceivedAt:   sub.SubmittedAt.In(n.loc).Format(receivedLayout),
	}
	return n.send(ctx, "booking", sub.ID, sub.Request.Email, n.templates.BookingSubject, n.templates.BookingBody, view)
}

// NotifyContact sends the office a contact form message.
func (n *Notifier) NotifyContact(ctx context.Context, sub contact.Submission) error {
	view := contactView{
		ID:         sub.ID,
		Request:    sub.Request,
		ReceivedAt: sub.SubmittedAt.In(n.loc).Format(receivedLayout),
	}
	return n.send(ctx, "contact", sub.ID, sub.Request.Email, n.templates.ContactSubject, n.templates.ContactBody, view)
}

func (n *Notifier) send(ctx context.Context, kind, id, replyTo, subjectTmpl, bodyTmpl string, view any) error {
	if n.to == "" {
		n.logger.Debug("office email not configured, skipping notification", "kind", kind, "id", id)
		return nil
	}
	subject, err := n.renderer.Render(kind+"_subject", subjectTmpl, view)
	if err != nil {
		return err
	}
	body, err := n.renderer.Render(kind+"_body", bodyTmpl, view)
	if err != nil {
		return err
	}
	msg := EmailMessage{
		To:           n.to,
		ReplyTo:      replyTo,
		Subject:      subject,
		Body:         body,
		Category:     kind,
		SubmissionID: id,
	}
	if err := n.email.Send(ctx, msg); err != nil {
		return fmt.Errorf("notify: %s %s: %w", kind, id, err)
	}
	return nil
}
