package mailer

import (
	"fmt"
	"net/smtp"
	"strings"

	"github.com/embassy-gov/portal-api/pkg/config"
)

// Mailer delivers transactional mail. Send failures are reported to the caller
// but must never change an HTTP response in the reset flow.
type Mailer interface {
	SendPasswordReset(to, token string) error
}

// SMTPMailer sends mail through a plain SMTP relay.
type SMTPMailer struct {
	cfg config.SMTPConfig
}

// NewSMTP builds an SMTP-backed mailer.
func NewSMTP(cfg config.SMTPConfig) *SMTPMailer {
	return &SMTPMailer{cfg: cfg}
}

// SendPasswordReset delivers the reset token to the recipient.
func (m *SMTPMailer) SendPasswordReset(to, token string) error {
	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)

	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}

	msg := strings.Join([]string{
		"From: " + m.cfg.From,
		"To: " + to,
		"Subject: Password reset request",
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=utf-8",
		"",
		"A password reset was requested for your account.",
		"",
		"Reset token: " + token,
		"",
		"The token expires in 30 minutes. If you did not request this, ignore this message.",
	}, "\r\n")

	if err := smtp.SendMail(addr, auth, m.cfg.From, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("send password reset mail: %w", err)
	}
	return nil
}

// Noop discards all mail. Used when SMTP is not configured and in tests.
type Noop struct{}

// SendPasswordReset does nothing.
func (Noop) SendPasswordReset(string, string) error { return nil }
