package notify

import (
	"context"
	"fmt"
	"html"
	"sync"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/cappsac/capps-site/pkg/logging"
)

// EmailSender defines the interface for sending emails.
// Implementations can be swapped (SendGrid, SES, SMTP) without changing callers.
type EmailSender interface {
	Send(ctx context.Context, msg EmailMessage) error
}

// EmailMessage is one office notification.
type EmailMessage struct {
	To      string
	ToName  string
	ReplyTo string
	Subject string
	Body    string // plain text
	HTML    string // optional

	// Category ("booking" or "contact") and SubmissionID are attached as
	// provider tags so deliveries can be traced back to the stored record.
	Category     string
	SubmissionID string
}

// DefaultFromName is used when no sender name is configured.
const DefaultFromName = "Capps Heating & Air"

// SendGridSender sends emails via SendGrid API.
type SendGridSender struct {
	client    *sendgrid.Client
	fromEmail string
	fromName  string
	logger    *logging.Logger
}

// SendGridConfig holds configuration for SendGrid.
type SendGridConfig struct {
	APIKey    string
	FromEmail string
	FromName  string
}

// NewSendGridSender creates a new SendGrid email sender.
func NewSendGridSender(cfg SendGridConfig, logger *logging.Logger) *SendGridSender {
	if cfg.APIKey == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.FromName == "" {
		cfg.FromName = DefaultFromName
	}
	return &SendGridSender{
		client:    sendgrid.NewSendClient(cfg.APIKey),
		fromEmail: cfg.FromEmail,
		fromName:  cfg.FromName,
		logger:    logger,
	}
}

// Send sends an email via SendGrid.
func (s *SendGridSender) Send(ctx context.Context, msg EmailMessage) error {
	if s.client == nil {
		return fmt.Errorf("notify: sendgrid client not configured")
	}

	from := mail.NewEmail(s.fromName, s.fromEmail)
	to := mail.NewEmail(msg.ToName, msg.To)

	htmlBody := msg.HTML
	if htmlBody == "" {
		htmlBody = textToHTML(msg.Body)
	}
	message := mail.NewSingleEmail(from, msg.Subject, to, msg.Body, htmlBody)
	if msg.ReplyTo != "" {
		message.SetReplyTo(mail.NewEmail("", msg.ReplyTo))
	}
	if msg.Category != "" {
		message.AddCategories(msg.Category)
	}
	if msg.SubmissionID != "" {
		message.SetCustomArg("submission_id", msg.SubmissionID)
	}

	response, err := s.client.SendWithContext(ctx, message)
	if err != nil {
		s.logger.Error("sendgrid send failed", "error", err, "category", msg.Category, "submission_id", msg.SubmissionID)
		return fmt.Errorf("notify: sendgrid send failed: %w", err)
	}

	if response.StatusCode >= 400 {
		s.logger.Error("sendgrid returned error status", "status", response.StatusCode, "body", response.Body, "submission_id", msg.SubmissionID)
		return &StatusError{Provider: "sendgrid", StatusCode: response.StatusCode}
	}

	s.logger.Info("office notified via sendgrid", "category", msg.Category, "submission_id", msg.SubmissionID, "status", response.StatusCode)
	return nil
}

// StatusError reports a rejected provider response.
type StatusError struct {
	Provider   string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("notify: %s returned status %d", e.Provider, e.StatusCode)
}

// StubEmailSender logs instead of sending. It keeps what it would have sent.
type StubEmailSender struct {
	logger *logging.Logger

	mu   sync.Mutex
	sent []EmailMessage
}

// NewStubEmailSender creates a stub email sender that logs but doesn't send.
func NewStubEmailSender(logger *logging.Logger) *StubEmailSender {
	if logger == nil {
		logger = logging.Default()
	}
	return &StubEmailSender{logger: logger}
}

// Send logs the email but doesn't actually send it.
func (s *StubEmailSender) Send(ctx context.Context, msg EmailMessage) error {
	s.mu.Lock()
	s.sent = append(s.sent, msg)
	s.mu.Unlock()
	s.logger.Info("stub email sender: would send email", "to", msg.To, "subject", msg.Subject, "category", msg.Category)
	return nil
}

// Sent returns a copy of every message passed to Send.
func (s *StubEmailSender) Sent() []EmailMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]EmailMessage(nil), s.sent...)
}

func textToHTML(body string) string {
	return "<pre style=\"font-family:sans-serif\">" + html.EscapeString(body) + "</pre>"
}
