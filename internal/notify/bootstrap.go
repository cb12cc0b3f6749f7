package notify

import (
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"

	appconfig "github.com/eclinicgh/telehealth-platform/internal/config"
	"github.com/eclinicgh/telehealth-platform/pkg/logging"
)

// BuildEmailSender picks the configured email provider. Both binaries share
// this wiring so a provider switch is one env var.
func BuildEmailSender(cfg *appconfig.Config, awsCfg aws.Config, logger *logging.Logger) EmailSender {
	switch cfg.EmailProvider {
	case "sendgrid":
		if sender := NewSendGridSender(SendGridConfig{
			APIKey:    cfg.SendGridAPIKey,
			FromEmail: cfg.SendGridFromEmail,
			FromName:  cfg.SendGridFromName,
		}, logger); sender != nil {
			logger.Info("email sender initialized", "provider", "sendgrid")
			return sender
		}
		logger.Warn("sendgrid selected but not configured; falling back to stub sender")
	case "ses":
		if sender := NewSESSender(sesv2.NewFromConfig(awsCfg), SESConfig{
			FromEmail: cfg.SESFromEmail,
			FromName:  cfg.SESFromName,
		}, logger); sender != nil && cfg.SESFromEmail != "" {
			logger.Info("email sender initialized", "provider", "ses")
			return sender
		}
		logger.Warn("ses selected but SES_FROM_EMAIL not set; falling back to stub sender")
	}
	return NewStubEmailSender(logger)
}
