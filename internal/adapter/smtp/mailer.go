// Package smtp provides an SMTP-based mailer for invitation delivery.
package smtp

import (
	"context"
	"fmt"
	"net/smtp"
	"time"

	"github.com/hgrguric/idgate/internal/config"
	"github.com/hgrguric/idgate/internal/port/notifier"
)

// Mailer sends email via SMTP. It implements notifier.Mailer.
type Mailer struct {
	cfg config.SMTP
}

// NewMailer creates a new SMTP mailer from config. A mailer with no host
// is unconfigured and refuses to send.
func NewMailer(cfg config.SMTP) *Mailer {
	return &Mailer{cfg: cfg}
}

// Name returns the mailer identifier.
func (m *Mailer) Name() string {
	return "smtp"
}

// Configured reports whether the mailer has an SMTP host to talk to.
func (m *Mailer) Configured() bool {
	return m.cfg.Host != ""
}

// Send delivers a message. Delivery is bounded by the configured timeout
// so a stalled SMTP server cannot hold the caller indefinitely.
func (m *Mailer) Send(ctx context.Context, msg notifier.Message) error {
	if !m.Configured() {
		return notifier.ErrNotConfigured
	}

	timeout := m.cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)
	payload := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/html; charset=UTF-8\r\n\r\n%s",
		m.cfg.From, msg.To, msg.Subject, msg.HTML)

	var auth smtp.Auth
	if m.cfg.User != "" {
		auth = smtp.PlainAuth("", m.cfg.User, m.cfg.Pass, m.cfg.Host)
	}

	done := make(chan error, 1)
	go func() {
		done <- smtp.SendMail(addr, auth, m.cfg.From, []string{msg.To}, []byte(payload))
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("smtp send to %s: %w", msg.To, err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("smtp send to %s: %w", msg.To, ctx.Err())
	}
}
