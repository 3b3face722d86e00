package services

import (
	"context"

	"github.com/bookclub/api/pkg/logger"
)

// Mailer delivers password reset links.
type Mailer interface {
	SendPasswordReset(ctx context.Context, email, link string) error
}

// LogMailer writes the reset link to the log instead of sending mail.
type LogMailer struct{}

func (LogMailer) SendPasswordReset(_ context.Context, email, link string) error {
	logger.Info("password_reset_link", map[string]interface{}{
		"email": email,
		"link":  link,
	})
	return nil
}
