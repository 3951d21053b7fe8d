// Package invite defines the email invitation domain model.
package invite

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/mail"
	"time"
)

// DefaultValidDays is used when an invite is created with a non-positive
// validity period.
const DefaultValidDays = 7

// Status values derived from an invite's stored state and the clock.
const (
	StatusPending  = "pending"
	StatusAccepted = "accepted"
	StatusExpired  = "expired"
)

// Invite is a single-use, time-limited onboarding token. A nil TenantID
// invites a global user; RoleName, when set, is granted on acceptance.
type Invite struct {
	ID         string     `json:"id"`
	Email      string     `json:"email"`
	TenantID   *string    `json:"tenant_id,omitempty"`
	RoleName   string     `json:"role_name,omitempty"`
	Token      string     `json:"-"` // unguessable, never listed
	ExpiresAt  time.Time  `json:"expires_at"`
	AcceptedAt *time.Time `json:"accepted_at,omitempty"`
	Notified   bool       `json:"notified"`
	CreatedBy  string     `json:"created_by"`
	CreatedAt  time.Time  `json:"created_at"`
}

// Status derives the invite's lifecycle state at the given instant.
// Expiry is a read-time computation, never stored.
func (i *Invite) Status(now time.Time) string {
	switch {
	case i.AcceptedAt != nil:
		return StatusAccepted
	case !now.Before(i.ExpiresAt):
		return StatusExpired
	default:
		return StatusPending
	}
}

// Redeemable reports whether the invite can still be accepted.
func (i *Invite) Redeemable(now time.Time) bool {
	return i.Status(now) == StatusPending
}

// NewToken produces a 64-character lower-case hex token from 256 bits of
// randomness.
func NewToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("invite token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// CreateRequest is the input for creating a new invite.
type CreateRequest struct {
	Email     string  `json:"email"`
	TenantID  *string `json:"tenant_id,omitempty"`
	RoleName  string  `json:"role_name,omitempty"`
	ValidDays int     `json:"valid_days,omitempty"`
}

// Validate checks that the CreateRequest has all required fields.
func (r *CreateRequest) Validate() error {
	if r.Email == "" {
		return errors.New("email is required")
	}
	if _, err := mail.ParseAddress(r.Email); err != nil {
		return errors.New("invalid email format")
	}
	return nil
}

// ExpiryFrom computes the invite expiry for the requested validity period,
// falling back to DefaultValidDays for non-positive values.
func (r *CreateRequest) ExpiryFrom(createdAt time.Time) time.Time {
	days := r.ValidDays
	if days <= 0 {
		days = DefaultValidDays
	}
	return createdAt.AddDate(0, 0, days)
}

// AcceptRequest is the input for redeeming an invite.
type AcceptRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

// ListFilter narrows invite listings.
type ListFilter struct {
	Query    string  // free-text match on email
	TenantID *string // restrict to one tenant
	Status   string  // pending (default), accepted, expired, all
}
