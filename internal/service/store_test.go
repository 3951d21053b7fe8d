package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hgrguric/idgate/internal/domain"
	"github.com/hgrguric/idgate/internal/domain/invite"
	"github.com/hgrguric/idgate/internal/domain/tenant"
	"github.com/hgrguric/idgate/internal/domain/user"
	"github.com/hgrguric/idgate/internal/port/database"
)

// mockStore implements database.Store in memory. The mutex matters: the
// invite redemption tests hit it from multiple goroutines.
type mockStore struct {
	mu      sync.Mutex
	tenants []tenant.Tenant
	users   []user.User
	invites []invite.Invite
	codes   map[string]database.AuthCode
}

func newMockStore() *mockStore {
	return &mockStore{codes: make(map[string]database.AuthCode)}
}

// --- Tenants ---

func (m *mockStore) CreateTenant(_ context.Context, req tenant.CreateRequest) (*tenant.Tenant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now().UTC()
	t := tenant.Tenant{
		ID:        uuid.NewString(),
		Name:      req.Name,
		Hostname:  tenant.NormalizeHostname(req.Hostname),
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	m.tenants = append(m.tenants, t)
	return &t, nil
}

func (m *mockStore) GetTenant(_ context.Context, id string) (*tenant.Tenant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.tenants {
		if m.tenants[i].ID == id {
			t := m.tenants[i]
			return &t, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockStore) FindActiveTenantByHostname(_ context.Context, hostname string) (*tenant.Tenant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.tenants {
		if strings.EqualFold(m.tenants[i].Hostname, hostname) && m.tenants[i].Active {
			t := m.tenants[i]
			return &t, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockStore) ListTenants(_ context.Context) ([]tenant.Tenant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]tenant.Tenant(nil), m.tenants...), nil
}

func (m *mockStore) UpdateTenant(_ context.Context, t *tenant.Tenant) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.tenants {
		if m.tenants[i].ID == t.ID {
			m.tenants[i] = *t
			return nil
		}
	}
	return domain.ErrNotFound
}

func (m *mockStore) HostnameTaken(_ context.Context, hostname, excludeID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.tenants {
		if strings.EqualFold(m.tenants[i].Hostname, hostname) && m.tenants[i].ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

// --- Users ---

func (m *mockStore) CreateUser(_ context.Context, u *user.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.users {
		if strings.EqualFold(m.users[i].Email, u.Email) {
			return domain.ErrConflict
		}
	}
	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now
	m.users = append(m.users, *u)
	return nil
}

func (m *mockStore) GetUser(_ context.Context, id string) (*user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.users {
		if m.users[i].ID == id {
			u := m.users[i]
			return &u, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockStore) GetUserByEmail(_ context.Context, email string) (*user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.users {
		if strings.EqualFold(m.users[i].Email, email) {
			u := m.users[i]
			return &u, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockStore) ListUsers(_ context.Context, tenantID *string) ([]user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if tenantID == nil {
		return append([]user.User(nil), m.users...), nil
	}
	var out []user.User
	for i := range m.users {
		if m.users[i].TenantID != nil && *m.users[i].TenantID == *tenantID {
			out = append(out, m.users[i])
		}
	}
	return out, nil
}

func (m *mockStore) UpdateUser(_ context.Context, u *user.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.users {
		if m.users[i].ID == u.ID {
			u.UpdatedAt = time.Now().UTC()
			m.users[i] = *u
			return nil
		}
	}
	return domain.ErrNotFound
}

func (m *mockStore) DeleteUser(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.users {
		if m.users[i].ID == id {
			m.users = append(m.users[:i], m.users[i+1:]...)
			return nil
		}
	}
	return domain.ErrNotFound
}

// --- Invites ---

func (m *mockStore) CreateInvite(_ context.Context, inv *invite.Invite) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.invites = append(m.invites, *inv)
	return nil
}

func (m *mockStore) GetInvite(_ context.Context, id string) (*invite.Invite, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.invites {
		if m.invites[i].ID == id {
			inv := m.invites[i]
			return &inv, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockStore) GetInviteByToken(_ context.Context, token string) (*invite.Invite, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.invites {
		if m.invites[i].Token == token {
			inv := m.invites[i]
			return &inv, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockStore) ListInvites(_ context.Context, filter invite.ListFilter) ([]invite.Invite, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	var out []invite.Invite
	for i := range m.invites {
		inv := m.invites[i]
		if filter.Query != "" && !strings.Contains(strings.ToLower(inv.Email), strings.ToLower(filter.Query)) {
			continue
		}
		if filter.TenantID != nil && (inv.TenantID == nil || *inv.TenantID != *filter.TenantID) {
			continue
		}
		status := filter.Status
		if status == "" {
			status = invite.StatusPending
		}
		if status != "all" && inv.Status(now) != status {
			continue
		}
		out = append(out, inv)
	}
	return out, nil
}

func (m *mockStore) MarkInviteNotified(_ context.Context, id string, notified bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.invites {
		if m.invites[i].ID == id {
			m.invites[i].Notified = notified
			return nil
		}
	}
	return domain.ErrNotFound
}

func (m *mockStore) MarkInviteAccepted(_ context.Context, token string, acceptedAt time.Time) (*invite.Invite, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.invites {
		if m.invites[i].Token == token && m.invites[i].AcceptedAt == nil && acceptedAt.Before(m.invites[i].ExpiresAt) {
			at := acceptedAt
			m.invites[i].AcceptedAt = &at
			inv := m.invites[i]
			return &inv, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockStore) DeleteInvite(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.invites {
		if m.invites[i].ID == id {
			m.invites = append(m.invites[:i], m.invites[i+1:]...)
			return nil
		}
	}
	return domain.ErrNotFound
}

// --- Authorization codes ---

func (m *mockStore) CreateAuthCode(_ context.Context, code *database.AuthCode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.codes[code.Code] = *code
	return nil
}

func (m *mockStore) ConsumeAuthCode(_ context.Context, code string) (*database.AuthCode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ac, ok := m.codes[code]
	if !ok || !time.Now().Before(ac.ExpiresAt) {
		return nil, domain.ErrNotFound
	}
	delete(m.codes, code)
	return &ac, nil
}
