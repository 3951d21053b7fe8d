// Package messagequeue defines the audit event publication port.
package messagequeue

import "context"

// Publisher is the port interface for emitting audit events. Subjects
// follow "entity.action" naming, e.g. "invite.accepted".
type Publisher interface {
	Publish(ctx context.Context, subject string, data []byte) error
	Close() error
}

// Nop is a Publisher that discards all events. Used when no event stream
// is configured.
type Nop struct{}

func (Nop) Publish(context.Context, string, []byte) error { return nil }
func (Nop) Close() error                                  { return nil }
