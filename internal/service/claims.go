package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/hgrguric/idgate/internal/domain"
	"github.com/hgrguric/idgate/internal/domain/claims"
	"github.com/hgrguric/idgate/internal/domain/user"
	"github.com/hgrguric/idgate/internal/port/database"
)

// ClaimsBuilder produces the claim set embedded in a session principal.
// Evaluated at sign-in and on explicit refresh, never per-request.
type ClaimsBuilder struct {
	dir database.TenantDirectoryByID
}

// NewClaimsBuilder creates a ClaimsBuilder backed by the tenant directory.
func NewClaimsBuilder(dir database.TenantDirectoryByID) *ClaimsBuilder {
	return &ClaimsBuilder{dir: dir}
}

// BuildPrincipal maps a user record to its full claim set: subject, name,
// email, role memberships, and for tenant-bound users the tenant id plus
// the tenant's display name when it resolves. Global users get no tenant
// claims at all. A pure function of the user record and one tenant
// directory lookup; the same input always yields the same claim set.
func (b *ClaimsBuilder) BuildPrincipal(ctx context.Context, u *user.User) (*claims.Principal, error) {
	name := u.Name
	if name == "" {
		name = u.Email
	}

	p := &claims.Principal{
		Subject: u.ID,
		Name:    name,
		Email:   u.Email,
		Roles:   append([]string(nil), u.Roles...),
	}

	if u.TenantID == nil {
		return p, nil
	}

	p.TenantID = *u.TenantID

	t, err := b.dir.GetTenant(ctx, *u.TenantID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			// Dangling tenant reference: keep the id claim, skip the name.
			return p, nil
		}
		return nil, fmt.Errorf("resolve tenant name: %w", err)
	}
	p.TenantName = t.Name

	return p, nil
}
