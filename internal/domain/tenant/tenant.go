// Package tenant defines the tenant domain model for multi-tenancy.
package tenant

import (
	"errors"
	"strings"
	"time"
)

// Tenant represents an isolated organizational scope resolved by hostname.
type Tenant struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Hostname  string    `json:"hostname"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CreateRequest holds the fields required to create a new tenant.
type CreateRequest struct {
	Name     string `json:"name"`
	Hostname string `json:"hostname"`
}

// Validate checks that the CreateRequest has all required fields.
func (r *CreateRequest) Validate() error {
	if r.Name == "" {
		return errors.New("name is required")
	}
	if r.Hostname == "" {
		return errors.New("hostname is required")
	}
	return validateHostname(r.Hostname)
}

// UpdateRequest holds the fields that can be updated on a tenant.
// Nil pointers leave the current value unchanged.
type UpdateRequest struct {
	Name     string `json:"name,omitempty"`
	Hostname string `json:"hostname,omitempty"`
	Active   *bool  `json:"active,omitempty"`
}

// Validate checks the UpdateRequest fields that were supplied.
func (r *UpdateRequest) Validate() error {
	if r.Hostname != "" {
		return validateHostname(r.Hostname)
	}
	return nil
}

// NormalizeHostname canonicalizes a hostname for storage and comparison:
// lower-cased, surrounding whitespace removed, port stripped.
func NormalizeHostname(host string) string {
	h := strings.ToLower(strings.TrimSpace(host))
	switch {
	case strings.HasPrefix(h, "["):
		// Bracketed IPv6 literal, possibly with port, e.g. "[::1]:8080".
		if i := strings.LastIndex(h, "]:"); i >= 0 {
			h = h[:i+1]
		}
	case strings.Count(h, ":") == 1:
		// Exactly one colon marks a port; a bare IPv6 literal has more.
		h = h[:strings.Index(h, ":")]
	}
	return h
}

func validateHostname(host string) error {
	h := NormalizeHostname(host)
	if h == "" {
		return errors.New("hostname is required")
	}
	if strings.ContainsAny(h, " /\\?#@") {
		return errors.New("hostname contains invalid characters")
	}
	return nil
}
