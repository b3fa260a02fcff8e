package email

import (
	"context"
	"errors"
	"fmt"
	"net/mail"

	"referral-backend/config"
	"referral-backend/internal/domain"

	"gopkg.in/gomail.v2"
)

// SMTPMailer sends mail through the configured SMTP relay.
type SMTPMailer struct {
	dialer    *gomail.Dialer
	fromEmail string
	fromName  string
}

// NewSMTPMailer creates a mailer with the Brevo-style SMTP configuration
func NewSMTPMailer(cfg *config.Config) *SMTPMailer {
	return &SMTPMailer{
		dialer:    gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword),
		fromEmail: cfg.SMTPFromEmail,
		fromName:  "ReferKaro",
	}
}

// IsConfigured checks if SMTP credentials are present
func (m *SMTPMailer) IsConfigured() bool {
	return m.dialer.Host != "" && m.dialer.Username != "" && m.dialer.Password != ""
}

func (m *SMTPMailer) Send(ctx context.Context, msg domain.MailMessage) error {
	if !m.IsConfigured() {
		return errors.New("email service not configured")
	}
	if _, err := mail.ParseAddress(msg.To); err != nil {
		return fmt.Errorf("invalid recipient %q: %w", msg.To, err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	gm := gomail.NewMessage()
	gm.SetAddressHeader("From", m.fromEmail, m.fromName)
	gm.SetHeader("To", msg.To)
	gm.SetHeader("Subject", msg.Subject)
	if msg.ReplyTo != "" {
		gm.SetHeader("Reply-To", msg.ReplyTo)
	}
	gm.SetBody("text/html", msg.HTML)

	if err := m.dialer.DialAndSend(gm); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}
