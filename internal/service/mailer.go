package service

import (
	"context"
	"log/slog"
	"time"
)

// PasswordResetMessage is the content of a password reset email.
type PasswordResetMessage struct {
	To        string
	Name      string
	Token     string
	ExpiresAt time.Time
}

// Mailer delivers account emails.
type Mailer interface {
	SendPasswordReset(ctx context.Context, msg PasswordResetMessage) error
}

// LogMailer records outgoing mail in the log instead of sending it.
// The reset token itself is never logged.
type LogMailer struct {
	logger *slog.Logger
}

// NewLogMailer creates a LogMailer.
func NewLogMailer(logger *slog.Logger) *LogMailer {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogMailer{logger: logger.With("component", "mailer")}
}

// SendPasswordReset implements Mailer.
func (m *LogMailer) SendPasswordReset(ctx context.Context, msg PasswordResetMessage) error {
	m.logger.InfoContext(ctx, "password reset email queued",
		"to", msg.To,
		"expires_at", msg.ExpiresAt.UTC().Format(time.RFC3339),
	)
	return nil
}
