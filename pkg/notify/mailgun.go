package notify

import (
	"context"
	"fmt"
	"time"

	mailgun "github.com/mailgun/mailgun-go/v3"
	"github.com/rs/zerolog"
)

const sendTimeout = 10 * time.Second

// Notifier delivers operator-facing alerts outside the cloud event log.
type Notifier interface {
	Alert(ctx context.Context, subject, message string) error
}

// MailgunNotifier sends alert emails through the Mailgun API.
type MailgunNotifier struct {
	mg         mailgun.Mailgun
	sender     string
	recipients []string
	logger     zerolog.Logger
}

// NewMailgunNotifier creates a Mailgun-backed notifier.
func NewMailgunNotifier(domain, apiKey, sender string, recipients []string, logger zerolog.Logger) *MailgunNotifier {
	return &MailgunNotifier{
		mg:         mailgun.NewMailgun(domain, apiKey),
		sender:     sender,
		recipients: recipients,
		logger:     logger,
	}
}

// Alert sends one email to every configured recipient.
func (n *MailgunNotifier) Alert(ctx context.Context, subject, message string) error {
	msg := n.mg.NewMessage(n.sender, subject, message, n.recipients...)

	ctx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	resp, id, err := n.mg.Send(ctx, msg)
	if err != nil {
		return fmt.Errorf("failed to send alert email: %w", err)
	}
	if id == "" {
		return fmt.Errorf("alert email rejected: %s", resp)
	}

	n.logger.Debug().Str("id", id).Msg("Alert email sent")
	return nil
}
