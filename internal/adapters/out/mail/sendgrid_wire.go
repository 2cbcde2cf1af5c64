package mail

import (
	"strings"

	"go.uber.org/zap"
)

// SendGridConfig is the subset of storefront config the mailer needs.
type SendGridConfig struct {
	APIKey    string
	From      string
	StoreName string
}

// NewOrderMailerWithSendGrid wires OrderMailer to SendGrid. It returns nil
// when the API key or sender is missing so callers can skip confirmations.
func NewOrderMailerWithSendGrid(cfg SendGridConfig, logger *zap.Logger) *OrderMailer {
	if logger == nil {
		logger = zap.NewNop()
	}
	log := logger.Named("mail")

	if strings.TrimSpace(cfg.APIKey) == "" {
		log.Warn("SENDGRID_API_KEY is empty; order confirmations disabled")
		return nil
	}
	if strings.TrimSpace(cfg.From) == "" {
		log.Warn("SENDGRID_FROM is empty; order confirmations disabled")
		return nil
	}

	client := NewSendGridClient(cfg.APIKey, cfg.StoreName, logger)
	mailer := NewOrderMailer(client, cfg.From, cfg.StoreName)

	log.Info("order mailer initialized", zap.String("from", cfg.From))
	return mailer
}
