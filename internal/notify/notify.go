// Package notify delivers transactional email to customers.
package notify

import (
	"context"

	"go.uber.org/zap"
)

// Email is a plain text message to a single recipient
type Email struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// Notifier delivers an email or hands it off for delivery
type Notifier interface {
	Notify(ctx context.Context, email Email) error
}

// LogMailer records emails in the log instead of sending them.
// It is used when no SMTP server is configured.
type LogMailer struct {
	logger *zap.Logger
}

func NewLogMailer(logger *zap.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

func (m *LogMailer) Notify(ctx context.Context, email Email) error {
	m.logger.Info("Email not sent, no SMTP server configured",
		zap.String("to", email.To),
		zap.String("subject", email.Subject),
		zap.String("body", email.Body),
	)
	return nil
}
