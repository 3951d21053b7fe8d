// Package user defines the user domain model for authentication and authorization.
package user

import (
	"errors"
	"net/mail"
	"slices"
	"time"
)

// Role names. GlobalAdmin bypasses all tenant scoping; TenantAdmin is
// restricted to its own tenant.
const (
	RoleGlobalAdmin = "GlobalAdmin"
	RoleTenantAdmin = "TenantAdmin"
)

// User represents a registered account. A nil TenantID denotes a global
// user not bound to any tenant.
type User struct {
	ID             string     `json:"id"`
	Email          string     `json:"email"`
	Name           string     `json:"name"`
	PasswordHash   string     `json:"-"` // never serialized
	TenantID       *string    `json:"tenant_id,omitempty"`
	Roles          []string   `json:"roles"`
	EmailConfirmed bool       `json:"email_confirmed"`
	FailedAttempts int        `json:"-"`
	LockedUntil    *time.Time `json:"-"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// HasRole reports whether the user holds the named role.
func (u *User) HasRole(role string) bool {
	return slices.Contains(u.Roles, role)
}

// IsLockedOut reports whether the account is locked at the given instant.
// A locked account is rejected at authentication regardless of credentials.
func (u *User) IsLockedOut(now time.Time) bool {
	return u.LockedUntil != nil && now.Before(*u.LockedUntil)
}

// CreateRequest is the input for provisioning a new user.
// A nil TenantID creates a global user; handlers decide the default.
type CreateRequest struct {
	Email    string   `json:"email"`
	Name     string   `json:"name"`
	Password string   `json:"password"`
	TenantID *string  `json:"tenant_id,omitempty"`
	Roles    []string `json:"roles,omitempty"`
}

// Validate checks that the CreateRequest has all required fields.
func (r *CreateRequest) Validate() error {
	if r.Email == "" {
		return errors.New("email is required")
	}
	if _, err := mail.ParseAddress(r.Email); err != nil {
		return errors.New("invalid email format")
	}
	if err := ValidatePassword(r.Password); err != nil {
		return err
	}
	return nil
}

// ValidatePassword enforces the minimum credential policy.
func ValidatePassword(password string) error {
	if password == "" {
		return errors.New("password is required")
	}
	if len(password) < 8 {
		return errors.New("password must be at least 8 characters")
	}
	return nil
}

// LoginRequest is the input for user authentication.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate checks that the LoginRequest has all required fields.
func (r *LoginRequest) Validate() error {
	if r.Email == "" {
		return errors.New("email is required")
	}
	if r.Password == "" {
		return errors.New("password is required")
	}
	return nil
}

// LoginResponse is returned after successful authentication.
type LoginResponse struct {
	SessionToken string `json:"session_token"`
	ExpiresIn    int    `json:"expires_in"` // seconds until the session expires
	User         User   `json:"user"`
}

// ResetPasswordRequest is the input for an administrative password reset.
type ResetPasswordRequest struct {
	NewPassword string `json:"new_password"`
}

// UpdateRolesRequest replaces a user's role memberships.
type UpdateRolesRequest struct {
	Roles []string `json:"roles"`
}
