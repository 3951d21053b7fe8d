package service

import (
	"context"
	"sync"

	"github.com/hgrguric/idgate/internal/domain/claims"
	"github.com/hgrguric/idgate/internal/domain/tenant"
	"github.com/hgrguric/idgate/internal/domain/user"
	"github.com/hgrguric/idgate/internal/port/notifier"
)

func tenantCreate(name, hostname string) tenant.CreateRequest {
	return tenant.CreateRequest{Name: name, Hostname: hostname}
}

func globalAdmin() *claims.Principal {
	return &claims.Principal{
		Subject: "global-admin-id",
		Name:    "Global Admin",
		Email:   "global@example.com",
		Roles:   []string{user.RoleGlobalAdmin},
	}
}

func tenantAdmin(tenantID string) *claims.Principal {
	return &claims.Principal{
		Subject:  "tenant-admin-id",
		Name:     "Tenant Admin",
		Email:    "tenantadmin@example.com",
		Roles:    []string{user.RoleTenantAdmin},
		TenantID: tenantID,
	}
}

// mockMailer records sent messages; fail makes every send error.
type mockMailer struct {
	mu   sync.Mutex
	sent []notifier.Message
	fail bool
}

func (m *mockMailer) Name() string { return "mock" }

func (m *mockMailer) Send(_ context.Context, msg notifier.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return notifier.ErrNotConfigured
	}
	m.sent = append(m.sent, msg)
	return nil
}

func (m *mockMailer) sentCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}
