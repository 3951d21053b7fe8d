package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/hgrguric/idgate/internal/domain"
	"github.com/hgrguric/idgate/internal/domain/tenant"
	"github.com/hgrguric/idgate/internal/port/database"
	"github.com/hgrguric/idgate/internal/port/messagequeue"
)

// TenantService manages the tenant directory. All mutations are reserved
// for global administrators; the handlers enforce that via route policy.
type TenantService struct {
	store  database.Store
	events messagequeue.Publisher
}

// NewTenantService creates a new tenant directory service.
func NewTenantService(store database.Store, events messagequeue.Publisher) *TenantService {
	return &TenantService{store: store, events: events}
}

// Create adds a tenant after normalizing and uniqueness-checking its
// hostname. Hostname comparison is case-insensitive.
func (s *TenantService) Create(ctx context.Context, req tenant.CreateRequest) (*tenant.Tenant, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrValidation, err)
	}
	req.Hostname = tenant.NormalizeHostname(req.Hostname)

	taken, err := s.store.HostnameTaken(ctx, req.Hostname, "")
	if err != nil {
		return nil, fmt.Errorf("check hostname: %w", err)
	}
	if taken {
		return nil, fmt.Errorf("%w: hostname already exists", domain.ErrConflict)
	}

	t, err := s.store.CreateTenant(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("create tenant: %w", err)
	}

	s.publish(ctx, "tenant.created", t)
	return t, nil
}

// Get returns one tenant by id.
func (s *TenantService) Get(ctx context.Context, id string) (*tenant.Tenant, error) {
	return s.store.GetTenant(ctx, id)
}

// List returns all tenants.
func (s *TenantService) List(ctx context.Context) ([]tenant.Tenant, error) {
	return s.store.ListTenants(ctx)
}

// Update applies rename, hostname change and activation toggles. A
// hostname change re-runs the case-insensitive uniqueness check against
// every other tenant.
func (s *TenantService) Update(ctx context.Context, id string, req tenant.UpdateRequest) (*tenant.Tenant, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrValidation, err)
	}

	t, err := s.store.GetTenant(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != "" {
		t.Name = req.Name
	}
	if req.Hostname != "" {
		hostname := tenant.NormalizeHostname(req.Hostname)
		taken, err := s.store.HostnameTaken(ctx, hostname, id)
		if err != nil {
			return nil, fmt.Errorf("check hostname: %w", err)
		}
		if taken {
			return nil, fmt.Errorf("%w: hostname already exists", domain.ErrConflict)
		}
		t.Hostname = hostname
	}
	if req.Active != nil {
		t.Active = *req.Active
	}

	if err := s.store.UpdateTenant(ctx, t); err != nil {
		return nil, fmt.Errorf("update tenant: %w", err)
	}

	s.publish(ctx, "tenant.updated", t)
	return t, nil
}

func (s *TenantService) publish(ctx context.Context, subject string, t *tenant.Tenant) {
	data, err := json.Marshal(t)
	if err != nil {
		return
	}
	if err := s.events.Publish(ctx, subject, data); err != nil {
		slog.Warn("audit event publish failed", "subject", subject, "error", err)
	}
}
