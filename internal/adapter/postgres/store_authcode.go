package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/hgrguric/idgate/internal/domain"
	"github.com/hgrguric/idgate/internal/port/database"
)

func (s *Store) CreateAuthCode(ctx context.Context, code *database.AuthCode) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO auth_codes (code, client_id, redirect_uri, principal, scopes, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		code.Code, code.ClientID, code.RedirectURI, code.Principal, code.Scopes, code.ExpiresAt, code.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create auth code: %w", err)
	}
	return nil
}

// ConsumeAuthCode deletes and returns an unexpired code in one statement,
// so a code can be redeemed at most once.
func (s *Store) ConsumeAuthCode(ctx context.Context, code string) (*database.AuthCode, error) {
	var ac database.AuthCode
	err := s.pool.QueryRow(ctx,
		`DELETE FROM auth_codes
		 WHERE code = $1 AND expires_at > now()
		 RETURNING code, client_id, redirect_uri, principal, scopes, expires_at, created_at`,
		code,
	).Scan(&ac.Code, &ac.ClientID, &ac.RedirectURI, &ac.Principal, &ac.Scopes, &ac.ExpiresAt, &ac.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("consume auth code: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("consume auth code: %w", err)
	}
	return &ac, nil
}

// PurgeExpiredAuthCodes removes stale codes; intended for a periodic sweep.
func (s *Store) PurgeExpiredAuthCodes(ctx context.Context) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM auth_codes WHERE expires_at <= now()`)
	if err != nil {
		return 0, fmt.Errorf("purge auth codes: %w", err)
	}
	return tag.RowsAffected(), nil
}
