package notify

import (
	"strings"

	"github.com/cappsac/capps-site/pkg/logging"
)

// SenderOptions selects an email transport.
type SenderOptions struct {
	Provider string // auto|sendgrid|ses|stub
	SendGrid SendGridConfig
	SES      SESConfig
	SESAPI   SESAPI
}

// NewEmailSender picks a transport. In auto mode SendGrid wins when it has an
// API key and sender, then SES when it has a client and sender. Anything
// unconfigured falls back to the stub so the caller always gets a sender.
func NewEmailSender(opts SenderOptions, logger *logging.Logger) EmailSender {
	if logger == nil {
		logger = logging.Default()
	}
	provider := strings.ToLower(strings.TrimSpace(opts.Provider))

	sendgridReady := opts.SendGrid.APIKey != "" && opts.SendGrid.FromEmail != ""
	sesReady := opts.SESAPI != nil && opts.SES.FromEmail != ""

	switch {
	case (provider == "" || provider == "auto" || provider == "sendgrid") && sendgridReady:
		logger.Info("sendgrid email sender initialized for notifications")
		return NewSendGridSender(opts.SendGrid, logger)
	case (provider == "" || provider == "auto" || provider == "ses") && sesReady:
		logger.Info("ses email sender initialized for notifications")
		return NewSESSender(opts.SESAPI, opts.SES, logger)
	}
	if provider != "stub" {
		logger.Warn("email notifications disabled: no configured provider", "provider", provider)
	}
	return NewStubEmailSender(logger)
}
