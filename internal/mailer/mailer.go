package mailer

import (
	"fmt"
	"net/smtp"
	"strings"
)

// Mailer delivers a single email message synchronously.
type Mailer interface {
	Send(to []string, subject, body string) error
}

// Notifier accepts a message for best-effort background delivery.
type Notifier interface {
	Enqueue(to []string, subject, body string)
}

// Config holds the outbound SMTP settings.
type Config struct {
	SMTPHost  string
	SMTPPort  string
	FromName  string
	FromEmail string
	Username  string
	Password  string
}

// SMTPMailer sends plain-text mail over SMTP with PLAIN auth.
type SMTPMailer struct {
	cfg Config
}

func NewSMTPMailer(cfg Config) *SMTPMailer {
	return &SMTPMailer{cfg: cfg}
}

func (m *SMTPMailer) Send(to []string, subject, body string) error {
	if len(to) == 0 {
		return fmt.Errorf("no recipients provided")
	}

	headers := make(map[string]string)
	headers["From"] = fmt.Sprintf("%s <%s>", m.cfg.FromName, m.cfg.FromEmail)
	headers["To"] = strings.Join(to, ", ")
	headers["Subject"] = subject
	headers["Content-Type"] = "text/plain; charset=UTF-8"

	var msg strings.Builder
	for key, value := range headers {
		msg.WriteString(fmt.Sprintf("%s: %s\r\n", key, value))
	}
	msg.WriteString("\r\n")
	msg.WriteString(body)

	auth := smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.SMTPHost)
	addr := fmt.Sprintf("%s:%s", m.cfg.SMTPHost, m.cfg.SMTPPort)

	if err := smtp.SendMail(addr, auth, m.cfg.FromEmail, to, []byte(msg.String())); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}
