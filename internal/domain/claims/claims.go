// Package claims defines the authenticated principal and its claim set.
package claims

// Standard claim names emitted into session and issued tokens.
const (
	ClaimSubject    = "sub"
	ClaimName       = "name"
	ClaimEmail      = "email"
	ClaimRole       = "role"
	ClaimTenantID   = "tenant_id"
	ClaimTenantName = "tenant_name"
	// ClaimTenant is the single tenant claim name used inside issued
	// access and identity tokens.
	ClaimTenant = "tenant"
)

// Principal is the authenticated identity's asserted attributes for one
// session. TenantID and TenantName are empty for global users; no sentinel
// values are ever emitted.
type Principal struct {
	Subject    string   `json:"sub"`
	Name       string   `json:"name"`
	Email      string   `json:"email,omitempty"`
	Roles      []string `json:"roles,omitempty"`
	TenantID   string   `json:"tenant_id,omitempty"`
	TenantName string   `json:"tenant_name,omitempty"`
}

// HasRole reports whether the principal holds the named role.
func (p *Principal) HasRole(role string) bool {
	for _, r := range p.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// HasTenant reports whether the principal is bound to a tenant.
func (p *Principal) HasTenant() bool {
	return p.TenantID != ""
}
