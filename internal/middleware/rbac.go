package middleware

import (
	"net/http"

	"github.com/hgrguric/idgate/internal/domain/user"
)

// RequireRole returns middleware that restricts access to principals
// holding one of the given roles.
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p := PrincipalFromContext(r.Context())
			if p == nil {
				http.Error(w, `{"error":"authorization required"}`, http.StatusUnauthorized)
				return
			}

			ok := false
			for _, role := range p.Roles {
				if allowed[role] {
					ok = true
					break
				}
			}
			if !ok {
				http.Error(w, `{"error":"forbidden"}`, http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// GlobalAdminOnly gates routes reserved for cross-tenant administrators.
func GlobalAdminOnly(next http.Handler) http.Handler {
	return RequireRole(user.RoleGlobalAdmin)(next)
}

// TenantAdminOrGlobal gates routes open to tenant-scoped administrators.
// Per-record tenant scoping is enforced inside handlers via
// service.CanActOnTenant.
func TenantAdminOrGlobal(next http.Handler) http.Handler {
	return RequireRole(user.RoleGlobalAdmin, user.RoleTenantAdmin)(next)
}
