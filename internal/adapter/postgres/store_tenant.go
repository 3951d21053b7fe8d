package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/hgrguric/idgate/internal/domain"
	"github.com/hgrguric/idgate/internal/domain/tenant"
)

const tenantColumns = `id, name, hostname, active, created_at, updated_at`

// --- Tenant CRUD ---

func (s *Store) CreateTenant(ctx context.Context, req tenant.CreateRequest) (*tenant.Tenant, error) {
	var t tenant.Tenant
	err := s.pool.QueryRow(ctx,
		`INSERT INTO tenants (name, hostname) VALUES ($1, $2)
		 RETURNING `+tenantColumns,
		req.Name, tenant.NormalizeHostname(req.Hostname),
	).Scan(&t.ID, &t.Name, &t.Hostname, &t.Active, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("create tenant: %w", err)
	}
	return &t, nil
}

func (s *Store) GetTenant(ctx context.Context, id string) (*tenant.Tenant, error) {
	var t tenant.Tenant
	err := s.pool.QueryRow(ctx,
		`SELECT `+tenantColumns+` FROM tenants WHERE id = $1`, id,
	).Scan(&t.ID, &t.Name, &t.Hostname, &t.Active, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("get tenant %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get tenant %s: %w", id, err)
	}
	return &t, nil
}

// FindActiveTenantByHostname is consulted on every scoped request; the
// lookup is always fresh, never cached.
func (s *Store) FindActiveTenantByHostname(ctx context.Context, hostname string) (*tenant.Tenant, error) {
	var t tenant.Tenant
	err := s.pool.QueryRow(ctx,
		`SELECT `+tenantColumns+` FROM tenants
		 WHERE lower(hostname) = lower($1) AND active`, hostname,
	).Scan(&t.ID, &t.Name, &t.Hostname, &t.Active, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("find tenant by hostname %s: %w", hostname, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("find tenant by hostname %s: %w", hostname, err)
	}
	return &t, nil
}

func (s *Store) ListTenants(ctx context.Context) ([]tenant.Tenant, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+tenantColumns+` FROM tenants ORDER BY created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("list tenants: %w", err)
	}
	defer rows.Close()

	var tenants []tenant.Tenant
	for rows.Next() {
		var t tenant.Tenant
		if err := rows.Scan(&t.ID, &t.Name, &t.Hostname, &t.Active, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan tenant: %w", err)
		}
		tenants = append(tenants, t)
	}
	return tenants, rows.Err()
}

func (s *Store) UpdateTenant(ctx context.Context, t *tenant.Tenant) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE tenants SET name = $2, hostname = $3, active = $4, updated_at = now()
		 WHERE id = $1`,
		t.ID, t.Name, t.Hostname, t.Active)
	if err != nil {
		return fmt.Errorf("update tenant %s: %w", t.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update tenant %s: %w", t.ID, domain.ErrNotFound)
	}
	return nil
}

// HostnameTaken reports whether another tenant already claims the hostname.
func (s *Store) HostnameTaken(ctx context.Context, hostname, excludeID string) (bool, error) {
	var taken bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (
		   SELECT 1 FROM tenants
		   WHERE lower(hostname) = lower($1) AND id::text <> $2
		 )`, hostname, excludeID,
	).Scan(&taken)
	if err != nil {
		return false, fmt.Errorf("check hostname %s: %w", hostname, err)
	}
	return taken, nil
}
