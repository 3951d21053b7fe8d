package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/hgrguric/idgate/internal/config"
	"github.com/hgrguric/idgate/internal/domain"
	"github.com/hgrguric/idgate/internal/domain/claims"
	"github.com/hgrguric/idgate/internal/domain/user"
	"github.com/hgrguric/idgate/internal/port/database"
)

// ErrInvalidCredentials is returned for any authentication failure the
// caller should not be able to distinguish.
var ErrInvalidCredentials = errors.New("invalid credentials")

// ErrLockedOut is returned while an account's lockout window is open.
var ErrLockedOut = errors.New("account temporarily locked")

// AuthService handles authentication, lockout, session tokens and the
// credential operations consumed by invite redemption.
type AuthService struct {
	store   database.Store
	builder *ClaimsBuilder
	cfg     *config.Auth
	secret  []byte
	now     func() time.Time
}

// NewAuthService creates a new authentication service.
func NewAuthService(store database.Store, builder *ClaimsBuilder, cfg *config.Auth) *AuthService {
	return &AuthService{
		store:   store,
		builder: builder,
		cfg:     cfg,
		secret:  []byte(cfg.SessionSecret),
		now:     time.Now,
	}
}

// sessionClaims is the JWT payload carrying the principal's claim set.
type sessionClaims struct {
	jwt.RegisteredClaims
	Name       string   `json:"name,omitempty"`
	Email      string   `json:"email,omitempty"`
	Roles      []string `json:"roles,omitempty"`
	TenantID   string   `json:"tenant_id,omitempty"`
	TenantName string   `json:"tenant_name,omitempty"`
}

// Login authenticates a user and returns a signed session token whose
// claim set was produced by claims augmentation. A locked-out account is
// rejected before the credential is even checked.
func (s *AuthService) Login(ctx context.Context, req user.LoginRequest) (*user.LoginResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrValidation, err)
	}

	u, err := s.store.GetUserByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	now := s.now()
	if u.IsLockedOut(now) {
		return nil, ErrLockedOut
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)); err != nil {
		s.recordFailedAttempt(ctx, u, now)
		return nil, ErrInvalidCredentials
	}

	if u.FailedAttempts > 0 || u.LockedUntil != nil {
		u.FailedAttempts = 0
		u.LockedUntil = nil
		if err := s.store.UpdateUser(ctx, u); err != nil {
			slog.Warn("failed to clear lockout counter", "user_id", u.ID, "error", err)
		}
	}

	token, err := s.issueSession(ctx, u)
	if err != nil {
		return nil, err
	}

	return &user.LoginResponse{
		SessionToken: token,
		ExpiresIn:    int(s.cfg.SessionExpiry.Seconds()),
		User:         *u,
	}, nil
}

// RefreshSession re-runs claims augmentation for the user and returns a
// fresh session token reflecting the current user/tenant state.
func (s *AuthService) RefreshSession(ctx context.Context, userID string) (string, error) {
	u, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("get user: %w", err)
	}
	return s.issueSession(ctx, u)
}

func (s *AuthService) issueSession(ctx context.Context, u *user.User) (string, error) {
	p, err := s.builder.BuildPrincipal(ctx, u)
	if err != nil {
		return "", fmt.Errorf("build claims: %w", err)
	}

	now := s.now()
	sc := sessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.Subject,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.SessionExpiry)),
		},
		Name:       p.Name,
		Email:      p.Email,
		Roles:      p.Roles,
		TenantID:   p.TenantID,
		TenantName: p.TenantName,
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, sc).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign session: %w", err)
	}
	return token, nil
}

// ValidateSession verifies a session token and returns the embedded
// principal.
func (s *AuthService) ValidateSession(token string) (*claims.Principal, error) {
	var sc sessionClaims
	parsed, err := jwt.ParseWithClaims(token, &sc, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse session: %w", err)
	}
	if !parsed.Valid {
		return nil, errors.New("invalid session token")
	}

	return &claims.Principal{
		Subject:    sc.Subject,
		Name:       sc.Name,
		Email:      sc.Email,
		Roles:      sc.Roles,
		TenantID:   sc.TenantID,
		TenantName: sc.TenantName,
	}, nil
}

// CreateAccount provisions a new user with a bcrypt-hashed password.
func (s *AuthService) CreateAccount(ctx context.Context, req *user.CreateRequest) (*user.User, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrValidation, err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.cfg.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := &user.User{
		ID:           uuid.NewString(),
		Email:        req.Email,
		Name:         req.Name,
		PasswordHash: string(hash),
		TenantID:     req.TenantID,
		Roles:        append([]string(nil), req.Roles...),
	}

	if err := s.store.CreateUser(ctx, u); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

// ResetCredential replaces a user's password hash and clears any lockout.
func (s *AuthService) ResetCredential(ctx context.Context, userID, newPassword string) error {
	if err := user.ValidatePassword(newPassword); err != nil {
		return fmt.Errorf("%w: %s", domain.ErrValidation, err)
	}

	u, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("get user: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), s.cfg.BcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	u.PasswordHash = string(hash)
	u.FailedAttempts = 0
	u.LockedUntil = nil
	if err := s.store.UpdateUser(ctx, u); err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	return nil
}

// recordFailedAttempt bumps the failure counter and opens the lockout
// window at the configured threshold.
func (s *AuthService) recordFailedAttempt(ctx context.Context, u *user.User, now time.Time) {
	u.FailedAttempts++
	if u.FailedAttempts >= s.cfg.LockoutThreshold {
		locked := now.Add(s.cfg.LockoutDuration)
		u.LockedUntil = &locked
		u.FailedAttempts = 0
		slog.Warn("account locked after repeated failures", "user_id", u.ID, "until", locked)
	}
	if err := s.store.UpdateUser(ctx, u); err != nil {
		slog.Warn("failed to record login failure", "user_id", u.ID, "error", err)
	}
}
