package service

import (
	"github.com/hgrguric/idgate/internal/domain/claims"
	"github.com/hgrguric/idgate/internal/domain/user"
)

// CanActOnTenant is the single tenant-scoping predicate applied by every
// tenant-scoped handler. A GlobalAdmin may act on any tenant, including
// the nil "global" scope. A TenantAdmin may only act on records whose
// tenant equals its own tenant claim. Everyone else is denied.
//
// targetTenantID is nil for records not bound to any tenant.
func CanActOnTenant(caller *claims.Principal, targetTenantID *string) bool {
	if caller == nil {
		return false
	}
	if caller.HasRole(user.RoleGlobalAdmin) {
		return true
	}
	if !caller.HasRole(user.RoleTenantAdmin) {
		return false
	}
	if !caller.HasTenant() || targetTenantID == nil {
		return false
	}
	return caller.TenantID == *targetTenantID
}
