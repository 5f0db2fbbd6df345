// Package mailer sends transactional email, currently only the
// password reset link.
package mailer

import (
	"fmt"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

// Sender delivers transactional mail. Tests substitute a fake.
type Sender interface {
	SendPasswordReset(to, resetLink string) error
}

// SMTPSender sends mail through an SMTP relay via gomail.
type SMTPSender struct {
	dialer *gomail.Dialer
	from   string
	logger *zap.Logger
}

// NewSMTPSender creates a sender for the given relay credentials.
func NewSMTPSender(host string, port int, user, pass, from string, logger *zap.Logger) *SMTPSender {
	return &SMTPSender{
		dialer: gomail.NewDialer(host, port, user, pass),
		from:   from,
		logger: logger,
	}
}

// SendPasswordReset emails the reset link to the user. The link is
// valid for 15 minutes, matching the reset token TTL.
func (s *SMTPSender) SendPasswordReset(to, resetLink string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", "Smart Home password reset")
	m.SetBody("text/html", fmt.Sprintf(
		"<p>You requested a password reset.</p>"+
			"<p>Click <a href=%q>here</a> to set a new password. The link is valid for 15 minutes.</p>",
		resetLink))

	if err := s.dialer.DialAndSend(m); err != nil {
		s.logger.Error("Failed to send reset email", zap.String("to", to), zap.Error(err))
		return fmt.Errorf("failed to send reset email: %w", err)
	}

	s.logger.Info("Sent password reset email", zap.String("to", to))
	return nil
}
