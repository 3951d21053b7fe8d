// Package notifier defines the outbound mail port (interface) and registry.
package notifier

import (
	"context"
	"errors"
)

// ErrNotConfigured is returned when a mailer is not properly configured.
var ErrNotConfigured = errors.New("notifier: not configured")

// Message is an outbound email payload. The body is HTML.
type Message struct {
	To      string
	Subject string
	HTML    string
}

// Mailer is the port interface for sending email.
type Mailer interface {
	// Name returns the unique identifier for this mailer (e.g. "smtp").
	Name() string

	// Send delivers a message. Implementations bound delivery with a
	// timeout; failure is surfaced to the caller synchronously.
	Send(ctx context.Context, msg Message) error
}
