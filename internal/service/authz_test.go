package service

import (
	"testing"

	"github.com/hgrguric/idgate/internal/domain/claims"
	"github.com/hgrguric/idgate/internal/domain/user"
)

func TestCanActOnTenant(t *testing.T) {
	tidA := "tenant-a"
	tidB := "tenant-b"

	tests := []struct {
		name   string
		caller *claims.Principal
		target *string
		want   bool
	}{
		{"nil caller", nil, &tidA, false},
		{"global admin on any tenant", globalAdmin(), &tidA, true},
		{"global admin on global scope", globalAdmin(), nil, true},
		{"tenant admin on own tenant", tenantAdmin(tidA), &tidA, true},
		{"tenant admin on other tenant", tenantAdmin(tidA), &tidB, false},
		{"tenant admin on global scope", tenantAdmin(tidA), nil, false},
		{"plain user on own tenant", &claims.Principal{Subject: "u", TenantID: tidA}, &tidA, false},
		{"tenant admin without tenant binding", &claims.Principal{
			Subject: "u", Roles: []string{user.RoleTenantAdmin},
		}, &tidA, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanActOnTenant(tt.caller, tt.target); got != tt.want {
				t.Errorf("CanActOnTenant() = %v, want %v", got, tt.want)
			}
		})
	}
}
