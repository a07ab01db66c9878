package bootstrap

import (
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"

	"github.com/cappsac/capps-site/internal/archive"
	appconfig "github.com/cappsac/capps-site/internal/config"
	"github.com/cappsac/capps-site/internal/content"
	"github.com/cappsac/capps-site/internal/notify"
	"github.com/cappsac/capps-site/pkg/logging"
)

// BuildNotifier wires the office notifier on the configured email transport.
// SES is only offered when awsCfg is non-nil.
func BuildNotifier(cfg *appconfig.Config, awsCfg *aws.Config, catalog *content.Catalog, loc *time.Location, logger *logging.Logger) *notify.Notifier {
	opts := notify.SenderOptions{
		Provider: cfg.EmailProvider,
		SendGrid: notify.SendGridConfig{
			APIKey:    cfg.SendGridAPIKey,
			FromEmail: cfg.SendGridFromEmail,
			FromName:  cfg.SendGridFromName,
		},
		SES: notify.SESConfig{
			FromEmail:        cfg.SESFromEmail,
			FromName:         cfg.SendGridFromName,
			ConfigurationSet: cfg.SESConfigSet,
		},
	}
	if awsCfg != nil && cfg.SESFromEmail != "" {
		opts.SESAPI = sesv2.NewFromConfig(*awsCfg)
	}

	return notify.NewNotifier(notify.NewEmailSender(opts, logger), notify.NotifierConfig{
		OfficeEmail:  cfg.IntakeNotifyEmail,
		Location:     loc,
		UrgencyLabel: catalog.UrgencyLabel,
	}, logger)
}

// BuildArchiveStore returns the S3 archive, or nil when no bucket is set.
func BuildArchiveStore(cfg *appconfig.Config, awsCfg *aws.Config, logger *logging.Logger) *archive.Store {
	if cfg.IntakeArchiveBucket == "" || awsCfg == nil {
		return nil
	}
	client := s3.NewFromConfig(*awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.AWSEndpointOverride != ""
	})
	return archive.NewStore(client, cfg.IntakeArchiveBucket, logger)
}
