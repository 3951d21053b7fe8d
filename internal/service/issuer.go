package service

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/hgrguric/idgate/internal/config"
	"github.com/hgrguric/idgate/internal/domain"
	"github.com/hgrguric/idgate/internal/domain/claims"
	"github.com/hgrguric/idgate/internal/port/database"
)

// DefaultScopes is the minimal scope set applied when an authorization
// request names none.
var DefaultScopes = []string{"openid", "profile", "email"}

// Issuer-side failures.
var (
	ErrUnknownClient   = errors.New("unknown client")
	ErrBadRedirect     = errors.New("redirect_uri not registered for client")
	ErrBadClientSecret = errors.New("invalid client secret")
	ErrInvalidCode     = errors.New("invalid or expired authorization code")
	// ErrNoPrincipal is fatal: token issuance without an authenticated
	// authorization context must never degrade to an anonymous token.
	ErrNoPrincipal = errors.New("no authenticated principal for token issuance")
)

// AuthorizeRequest is a parsed authorization request.
type AuthorizeRequest struct {
	ClientID    string
	RedirectURI string
	Scopes      []string
	State       string
}

// TokenResponse is the token endpoint payload.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	IDToken     string `json:"id_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
	Scope       string `json:"scope"`
}

// IssuerService adapts the signed-in principal's claim set into issued
// access and identity tokens. Cryptography and encoding are delegated to
// the JWT library; this layer only selects and routes claims.
type IssuerService struct {
	store   database.Store
	cfg     *config.Issuer
	key     []byte
	issuer  string
	clients map[string]config.Client
	now     func() time.Time
}

// NewIssuerService creates a token issuance adapter. issuerURL becomes
// the iss claim of every issued token.
func NewIssuerService(store database.Store, cfg *config.Issuer, issuerURL string) *IssuerService {
	clients := make(map[string]config.Client, len(cfg.Clients))
	for _, c := range cfg.Clients {
		clients[c.ID] = c
	}
	return &IssuerService{
		store:   store,
		cfg:     cfg,
		key:     []byte(cfg.SigningKey),
		issuer:  issuerURL,
		clients: clients,
		now:     time.Now,
	}
}

// ValidateAuthorizeRequest checks the client and redirect URI before any
// interaction with the caller.
func (s *IssuerService) ValidateAuthorizeRequest(req AuthorizeRequest) error {
	c, ok := s.clients[req.ClientID]
	if !ok {
		return ErrUnknownClient
	}
	for _, uri := range c.RedirectURIs {
		if uri == req.RedirectURI {
			return nil
		}
	}
	return ErrBadRedirect
}

// Authorize mints a single-use authorization code bound to the
// principal's claim snapshot and the negotiated scopes. Requested scopes
// are honored verbatim; an empty request falls back to DefaultScopes.
func (s *IssuerService) Authorize(ctx context.Context, p *claims.Principal, req AuthorizeRequest) (string, error) {
	if p == nil {
		return "", ErrNoPrincipal
	}
	if err := s.ValidateAuthorizeRequest(req); err != nil {
		return "", err
	}

	scopes := req.Scopes
	if len(scopes) == 0 {
		scopes = DefaultScopes
	}

	snapshot, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("marshal principal: %w", err)
	}

	code := uuid.NewString() + uuid.NewString()
	now := s.now().UTC()
	if err := s.store.CreateAuthCode(ctx, &database.AuthCode{
		Code:        code,
		ClientID:    req.ClientID,
		RedirectURI: req.RedirectURI,
		Principal:   snapshot,
		Scopes:      scopes,
		ExpiresAt:   now.Add(s.cfg.CodeTTL),
		CreatedAt:   now,
	}); err != nil {
		return "", fmt.Errorf("store auth code: %w", err)
	}

	return code, nil
}

// Exchange redeems an authorization code for an access token and an ID
// token. The code is single-use; concurrent redemptions see ErrInvalidCode.
func (s *IssuerService) Exchange(ctx context.Context, clientID, clientSecret, code, redirectURI string) (*TokenResponse, error) {
	c, ok := s.clients[clientID]
	if !ok {
		return nil, ErrUnknownClient
	}
	if subtle.ConstantTimeCompare([]byte(c.Secret), []byte(clientSecret)) != 1 {
		return nil, ErrBadClientSecret
	}

	ac, err := s.store.ConsumeAuthCode(ctx, code)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, ErrInvalidCode
		}
		return nil, fmt.Errorf("consume auth code: %w", err)
	}
	if ac.ClientID != clientID || ac.RedirectURI != redirectURI {
		return nil, ErrInvalidCode
	}

	var p claims.Principal
	if err := json.Unmarshal(ac.Principal, &p); err != nil {
		return nil, fmt.Errorf("decode principal: %w", err)
	}
	if p.Subject == "" {
		return nil, ErrNoPrincipal
	}

	access, err := s.mintToken(&p, clientID, ac.Scopes, s.cfg.AccessTokenTTL)
	if err != nil {
		return nil, err
	}
	idToken, err := s.mintToken(&p, clientID, nil, s.cfg.IDTokenTTL)
	if err != nil {
		return nil, err
	}

	return &TokenResponse{
		AccessToken: access,
		IDToken:     idToken,
		TokenType:   "Bearer",
		ExpiresIn:   int(s.cfg.AccessTokenTTL.Seconds()),
		Scope:       strings.Join(ac.Scopes, " "),
	}, nil
}

// issuedClaims is the payload shared by access and identity tokens:
// subject, name, email, every role, and the tenant claim when the
// principal carries one.
type issuedClaims struct {
	jwt.RegisteredClaims
	Name   string   `json:"name,omitempty"`
	Email  string   `json:"email,omitempty"`
	Roles  []string `json:"role,omitempty"`
	Tenant string   `json:"tenant,omitempty"`
	Scope  string   `json:"scope,omitempty"`
}

func (s *IssuerService) mintToken(p *claims.Principal, audience string, scopes []string, ttl time.Duration) (string, error) {
	now := s.now()
	ic := issuedClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   p.Subject,
			Audience:  jwt.ClaimStrings{audience},
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Name:   p.Name,
		Email:  p.Email,
		Roles:  p.Roles,
		Tenant: p.TenantID,
		Scope:  strings.Join(scopes, " "),
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, ic).SignedString(s.key)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return token, nil
}

// ValidateAccessToken verifies an issued access token and reconstructs
// the principal for the userinfo endpoint.
func (s *IssuerService) ValidateAccessToken(token string) (*claims.Principal, error) {
	var ic issuedClaims
	parsed, err := jwt.ParseWithClaims(token, &ic, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.key, nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}
	if !parsed.Valid {
		return nil, errors.New("invalid token")
	}

	return &claims.Principal{
		Subject:  ic.Subject,
		Name:     ic.Name,
		Email:    ic.Email,
		Roles:    ic.Roles,
		TenantID: ic.Tenant,
	}, nil
}
