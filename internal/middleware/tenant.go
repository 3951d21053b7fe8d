package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/hgrguric/idgate/internal/domain"
	"github.com/hgrguric/idgate/internal/domain/tenant"
	"github.com/hgrguric/idgate/internal/port/database"
)

type tenantCtxKey struct{}

// ResolvedTenant is the per-request tenant context published by the
// resolver. It lives only for the lifetime of one request.
type ResolvedTenant struct {
	ID   string
	Name string
}

// DefaultExemptPaths are the fixed path prefixes that bypass tenant
// resolution: static assets, the interactive auth UI, the token endpoints
// (identity comes from the principal there) and health checks.
var DefaultExemptPaths = []string{
	"/static/",
	"/auth/",
	"/connect/",
	"/invite/accept",
	"/favicon.ico",
	"/health",
}

// ResolveTenant returns middleware that maps the request hostname to an
// active tenant and publishes it into the request context. Requests under
// an exempt prefix pass through with no tenant context. Unresolved or
// inactive hostnames are terminal: the pipeline halts with a 404 and no
// downstream handler runs.
func ResolveTenant(dir database.TenantDirectory, exempt []string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			path := strings.ToLower(r.URL.Path)
			for _, prefix := range exempt {
				if strings.HasPrefix(path, prefix) {
					next.ServeHTTP(w, r)
					return
				}
			}

			host := tenant.NormalizeHostname(r.Host)
			t, err := dir.FindActiveTenantByHostname(r.Context(), host)
			if err != nil {
				if !errors.Is(err, domain.ErrNotFound) {
					slog.Error("tenant resolution failed", "host", host, "error", err)
					http.Error(w, "tenant lookup failed", http.StatusInternalServerError)
					return
				}
				http.Error(w, "tenant not found or deactivated", http.StatusNotFound)
				return
			}

			ctx := context.WithValue(r.Context(), tenantCtxKey{}, &ResolvedTenant{
				ID:   t.ID,
				Name: t.Name,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// TenantFromContext returns the tenant resolved for this request, or nil
// on exempt paths where no resolution ran.
func TenantFromContext(ctx context.Context) *ResolvedTenant {
	t, _ := ctx.Value(tenantCtxKey{}).(*ResolvedTenant)
	return t
}

// TenantIDFromContext returns the resolved tenant ID, or "" when absent.
func TenantIDFromContext(ctx context.Context) string {
	if t := TenantFromContext(ctx); t != nil {
		return t.ID
	}
	return ""
}
