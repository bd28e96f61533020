// internal/app/system/mailer/mailer.go
package mailer

import (
	"bytes"
	"fmt"
	"net/smtp"

	"go.uber.org/zap"
)

// Email is a single outbound message.
type Email struct {
	To       string
	Subject  string
	TextBody string
	HTMLBody string
}

// Config holds SMTP settings. Leave Host empty to run in log-only mode,
// where messages are logged instead of sent (useful in development).
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	FromName string
}

// Mailer sends email over SMTP.
type Mailer struct {
	config Config
	server string
	auth   smtp.Auth
	log    *zap.Logger
}

// New creates a mailer from the given config.
func New(config Config, logger *zap.Logger) *Mailer {
	m := &Mailer{
		config: config,
		server: fmt.Sprintf("%s:%d", config.Host, config.Port),
		log:    logger,
	}
	if config.Username != "" {
		m.auth = smtp.PlainAuth("", config.Username, config.Password, config.Host)
	}
	return m
}

// IsConfigured reports whether the mailer can actually send.
func (m *Mailer) IsConfigured() bool {
	return m.config.Host != "" && m.config.Port != 0 && m.config.From != ""
}

// Send delivers the email. In log-only mode the message is logged at info
// level and Send returns nil.
func (m *Mailer) Send(e Email) error {
	if !m.IsConfigured() {
		m.log.Info("mailer not configured; logging email instead of sending",
			zap.String("to", e.To),
			zap.String("subject", e.Subject),
			zap.String("text_body", e.TextBody))
		return nil
	}

	from := m.config.From
	if m.config.FromName != "" {
		from = fmt.Sprintf("%s <%s>", m.config.FromName, m.config.From)
	}

	var msg bytes.Buffer
	fmt.Fprintf(&msg, "To: %s\r\n", e.To)
	fmt.Fprintf(&msg, "From: %s\r\n", from)
	fmt.Fprintf(&msg, "Subject: %s\r\n", e.Subject)
	fmt.Fprintf(&msg, "MIME-Version: 1.0\r\n")

	if e.HTMLBody != "" {
		const boundary = "boundary-topichub"
		fmt.Fprintf(&msg, "Content-Type: multipart/alternative; boundary=%q\r\n\r\n", boundary)
		fmt.Fprintf(&msg, "--%s\r\n", boundary)
		fmt.Fprintf(&msg, "Content-Type: text/plain; charset=UTF-8\r\n\r\n")
		fmt.Fprintf(&msg, "%s\r\n", e.TextBody)
		fmt.Fprintf(&msg, "--%s\r\n", boundary)
		fmt.Fprintf(&msg, "Content-Type: text/html; charset=UTF-8\r\n\r\n")
		fmt.Fprintf(&msg, "%s\r\n", e.HTMLBody)
		fmt.Fprintf(&msg, "--%s--\r\n", boundary)
	} else {
		fmt.Fprintf(&msg, "Content-Type: text/plain; charset=UTF-8\r\n\r\n")
		fmt.Fprintf(&msg, "%s", e.TextBody)
	}

	if err := smtp.SendMail(m.server, m.auth, m.config.From, []string{e.To}, msg.Bytes()); err != nil {
		return fmt.Errorf("mailer: send to %s: %w", e.To, err)
	}
	return nil
}
