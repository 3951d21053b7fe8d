// Package database defines the database store port (interface).
package database

import (
	"context"
	"time"

	"github.com/hgrguric/idgate/internal/domain/invite"
	"github.com/hgrguric/idgate/internal/domain/tenant"
	"github.com/hgrguric/idgate/internal/domain/user"
)

// TenantDirectory is the read side consulted by the tenant resolver on
// every request.
type TenantDirectory interface {
	// FindActiveTenantByHostname resolves a normalized hostname to an
	// active tenant. Inactive or unknown hostnames return ErrNotFound.
	FindActiveTenantByHostname(ctx context.Context, hostname string) (*tenant.Tenant, error)
}

// TenantDirectoryByID is the lookup used by claims augmentation to attach
// a tenant's display name to the principal.
type TenantDirectoryByID interface {
	GetTenant(ctx context.Context, id string) (*tenant.Tenant, error)
}

// AuthCode is a stored single-use authorization code bound to a principal
// snapshot.
type AuthCode struct {
	Code        string
	ClientID    string
	RedirectURI string
	Principal   []byte // serialized claims.Principal
	Scopes      []string
	ExpiresAt   time.Time
	CreatedAt   time.Time
}

// Store is the port interface for database operations.
type Store interface {
	TenantDirectory

	// Tenants
	CreateTenant(ctx context.Context, req tenant.CreateRequest) (*tenant.Tenant, error)
	GetTenant(ctx context.Context, id string) (*tenant.Tenant, error)
	ListTenants(ctx context.Context) ([]tenant.Tenant, error)
	UpdateTenant(ctx context.Context, t *tenant.Tenant) error
	HostnameTaken(ctx context.Context, hostname, excludeID string) (bool, error)

	// Users
	CreateUser(ctx context.Context, u *user.User) error
	GetUser(ctx context.Context, id string) (*user.User, error)
	GetUserByEmail(ctx context.Context, email string) (*user.User, error)
	ListUsers(ctx context.Context, tenantID *string) ([]user.User, error)
	UpdateUser(ctx context.Context, u *user.User) error
	DeleteUser(ctx context.Context, id string) error

	// Invites
	CreateInvite(ctx context.Context, inv *invite.Invite) error
	GetInvite(ctx context.Context, id string) (*invite.Invite, error)
	GetInviteByToken(ctx context.Context, token string) (*invite.Invite, error)
	ListInvites(ctx context.Context, filter invite.ListFilter) ([]invite.Invite, error)
	MarkInviteNotified(ctx context.Context, id string, notified bool) error
	// MarkInviteAccepted stamps the acceptance time iff the invite is
	// still unaccepted and unexpired. Exactly one concurrent caller
	// succeeds; the rest get ErrNotFound.
	MarkInviteAccepted(ctx context.Context, token string, acceptedAt time.Time) (*invite.Invite, error)
	DeleteInvite(ctx context.Context, id string) error

	// Authorization codes
	CreateAuthCode(ctx context.Context, code *AuthCode) error
	// ConsumeAuthCode deletes and returns an unexpired code. Single-use:
	// a second concurrent consumption gets ErrNotFound.
	ConsumeAuthCode(ctx context.Context, code string) (*AuthCode, error)
}
