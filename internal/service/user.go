package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/hgrguric/idgate/internal/domain"
	"github.com/hgrguric/idgate/internal/domain/claims"
	"github.com/hgrguric/idgate/internal/domain/user"
	"github.com/hgrguric/idgate/internal/port/database"
	"github.com/hgrguric/idgate/internal/port/messagequeue"
)

// UserService administers tenant-scoped users. Every operation takes the
// calling principal and applies CanActOnTenant; cross-tenant attempts are
// rejected as forbidden, never silently filtered.
type UserService struct {
	store  database.Store
	auth   *AuthService
	events messagequeue.Publisher
}

// NewUserService creates a new user administration service.
func NewUserService(store database.Store, auth *AuthService, events messagequeue.Publisher) *UserService {
	return &UserService{store: store, auth: auth, events: events}
}

// List returns the users the caller may see: all users for a GlobalAdmin,
// the caller's own tenant for a TenantAdmin.
func (s *UserService) List(ctx context.Context, caller *claims.Principal) ([]user.User, error) {
	if caller.HasRole(user.RoleGlobalAdmin) {
		return s.store.ListUsers(ctx, nil)
	}
	if !caller.HasTenant() {
		return nil, domain.ErrForbidden
	}
	tid := caller.TenantID
	return s.store.ListUsers(ctx, &tid)
}

// Create provisions a user in the caller's scope. When the request names
// no tenant, the new user defaults to the acting admin's own tenant; a
// GlobalAdmin without a tenant creates a global user instead.
func (s *UserService) Create(ctx context.Context, caller *claims.Principal, req user.CreateRequest) (*user.User, error) {
	if req.TenantID == nil && caller.HasTenant() {
		tid := caller.TenantID
		req.TenantID = &tid
	}
	if !CanActOnTenant(caller, req.TenantID) {
		return nil, domain.ErrForbidden
	}
	// Only a GlobalAdmin can mint other admins.
	for _, r := range req.Roles {
		if r == user.RoleGlobalAdmin && !caller.HasRole(user.RoleGlobalAdmin) {
			return nil, domain.ErrForbidden
		}
	}

	u, err := s.auth.CreateAccount(ctx, &req)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, "user.created", u)
	return u, nil
}

// Get returns one user, subject to tenant scoping.
func (s *UserService) Get(ctx context.Context, caller *claims.Principal, id string) (*user.User, error) {
	u, err := s.store.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanActOnTenant(caller, u.TenantID) {
		return nil, domain.ErrForbidden
	}
	return u, nil
}

// UpdateRoles replaces a user's role memberships, subject to tenant
// scoping. Granting GlobalAdmin requires holding it.
func (s *UserService) UpdateRoles(ctx context.Context, caller *claims.Principal, id string, roles []string) (*user.User, error) {
	u, err := s.store.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanActOnTenant(caller, u.TenantID) {
		return nil, domain.ErrForbidden
	}
	for _, r := range roles {
		if r == user.RoleGlobalAdmin && !caller.HasRole(user.RoleGlobalAdmin) {
			return nil, domain.ErrForbidden
		}
	}

	u.Roles = append([]string(nil), roles...)
	if err := s.store.UpdateUser(ctx, u); err != nil {
		return nil, fmt.Errorf("update roles: %w", err)
	}

	s.publish(ctx, "user.roles_updated", u)
	return u, nil
}

// ResetPassword performs an administrative credential reset, subject to
// tenant scoping. No credential is mutated on a forbidden target.
func (s *UserService) ResetPassword(ctx context.Context, caller *claims.Principal, id, newPassword string) error {
	u, err := s.store.GetUser(ctx, id)
	if err != nil {
		return err
	}
	if !CanActOnTenant(caller, u.TenantID) {
		return domain.ErrForbidden
	}

	if err := s.auth.ResetCredential(ctx, u.ID, newPassword); err != nil {
		return err
	}

	s.publish(ctx, "user.password_reset", u)
	return nil
}

// Delete removes a user, subject to tenant scoping.
func (s *UserService) Delete(ctx context.Context, caller *claims.Principal, id string) error {
	u, err := s.store.GetUser(ctx, id)
	if err != nil {
		return err
	}
	if !CanActOnTenant(caller, u.TenantID) {
		return domain.ErrForbidden
	}
	if err := s.store.DeleteUser(ctx, id); err != nil {
		return err
	}
	s.publish(ctx, "user.deleted", u)
	return nil
}

func (s *UserService) publish(ctx context.Context, subject string, u *user.User) {
	data, err := json.Marshal(u)
	if err != nil {
		return
	}
	if err := s.events.Publish(ctx, subject, data); err != nil {
		slog.Warn("audit event publish failed", "subject", subject, "error", err)
	}
}
