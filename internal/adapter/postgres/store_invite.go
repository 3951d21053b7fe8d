package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/hgrguric/idgate/internal/domain"
	"github.com/hgrguric/idgate/internal/domain/invite"
)

const inviteColumns = `id, email, tenant_id, role_name, token, expires_at, accepted_at, notified, created_by, created_at`

func (s *Store) CreateInvite(ctx context.Context, inv *invite.Invite) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO invites (id, email, tenant_id, role_name, token, expires_at, accepted_at, notified, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		inv.ID, inv.Email, inv.TenantID, inv.RoleName, inv.Token, inv.ExpiresAt, inv.AcceptedAt, inv.Notified, inv.CreatedBy, inv.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create invite: %w", err)
	}
	return nil
}

func (s *Store) GetInvite(ctx context.Context, id string) (*invite.Invite, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+inviteColumns+` FROM invites WHERE id = $1`, id)

	inv, err := scanInvite(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("get invite %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get invite: %w", err)
	}
	return inv, nil
}

func (s *Store) GetInviteByToken(ctx context.Context, token string) (*invite.Invite, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+inviteColumns+` FROM invites WHERE token = $1`, token)

	inv, err := scanInvite(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("get invite by token: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get invite by token: %w", err)
	}
	return inv, nil
}

func (s *Store) ListInvites(ctx context.Context, filter invite.ListFilter) ([]invite.Invite, error) {
	query := `SELECT ` + inviteColumns + ` FROM invites WHERE 1=1`
	var args []any

	if filter.Query != "" {
		args = append(args, "%"+filter.Query+"%")
		query += fmt.Sprintf(` AND email ILIKE $%d`, len(args))
	}
	if filter.TenantID != nil {
		args = append(args, *filter.TenantID)
		query += fmt.Sprintf(` AND tenant_id = $%d`, len(args))
	}
	switch filter.Status {
	case invite.StatusAccepted:
		query += ` AND accepted_at IS NOT NULL`
	case invite.StatusExpired:
		query += ` AND accepted_at IS NULL AND expires_at <= now()`
	case invite.StatusPending, "":
		query += ` AND accepted_at IS NULL AND expires_at > now()`
	case "all":
		// no status restriction
	default:
		return nil, fmt.Errorf("list invites: unknown status %q: %w", filter.Status, domain.ErrValidation)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list invites: %w", err)
	}
	defer rows.Close()

	var invites []invite.Invite
	for rows.Next() {
		inv, err := scanInvite(rows)
		if err != nil {
			return nil, fmt.Errorf("scan invite: %w", err)
		}
		invites = append(invites, *inv)
	}
	return invites, rows.Err()
}

func (s *Store) MarkInviteNotified(ctx context.Context, id string, notified bool) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE invites SET notified = $2 WHERE id = $1`, id, notified)
	if err != nil {
		return fmt.Errorf("mark invite notified %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("mark invite notified %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

// MarkInviteAccepted stamps acceptance only while the invite is pending.
// The conditional update is the serialization point: of any number of
// concurrent redemptions exactly one sees the row, the rest get
// domain.ErrNotFound.
func (s *Store) MarkInviteAccepted(ctx context.Context, token string, acceptedAt time.Time) (*invite.Invite, error) {
	row := s.pool.QueryRow(ctx,
		`UPDATE invites SET accepted_at = $2
		 WHERE token = $1 AND accepted_at IS NULL AND expires_at > $2
		 RETURNING `+inviteColumns,
		token, acceptedAt)

	inv, err := scanInvite(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("accept invite: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("accept invite: %w", err)
	}
	return inv, nil
}

func (s *Store) DeleteInvite(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM invites WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete invite: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("delete invite %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

func scanInvite(row pgx.Row) (*invite.Invite, error) {
	var inv invite.Invite
	err := row.Scan(&inv.ID, &inv.Email, &inv.TenantID, &inv.RoleName, &inv.Token, &inv.ExpiresAt, &inv.AcceptedAt, &inv.Notified, &inv.CreatedBy, &inv.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &inv, nil
}
