package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/hgrguric/idgate/internal/domain/claims"
)

type principalCtxKey struct{}

// SessionCookieName carries the signed session token for browser flows.
const SessionCookieName = "idgate_session"

// SessionValidator verifies a session token and returns the principal
// embedded at sign-in time.
type SessionValidator interface {
	ValidateSession(token string) (*claims.Principal, error)
}

// Auth returns middleware that resolves the authenticated principal from
// an Authorization bearer header or the session cookie. Requests without
// valid credentials are rejected; mount it only on protected routes.
func Auth(sessions SessionValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				if c, err := r.Cookie(SessionCookieName); err == nil {
					token = c.Value
				}
			}
			if token == "" {
				http.Error(w, `{"error":"authorization required"}`, http.StatusUnauthorized)
				return
			}

			p, err := sessions.ValidateSession(token)
			if err != nil {
				http.Error(w, `{"error":"invalid session"}`, http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), principalCtxKey{}, p)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalAuth resolves the principal when credentials are present but
// lets anonymous requests through. Used by the authorize endpoint, which
// redirects anonymous callers to interactive sign-in itself.
func OptionalAuth(sessions SessionValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				if c, err := r.Cookie(SessionCookieName); err == nil {
					token = c.Value
				}
			}
			if token != "" {
				if p, err := sessions.ValidateSession(token); err == nil {
					r = r.WithContext(context.WithValue(r.Context(), principalCtxKey{}, p))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// PrincipalFromContext returns the authenticated principal, or nil.
func PrincipalFromContext(ctx context.Context) *claims.Principal {
	p, _ := ctx.Value(principalCtxKey{}).(*claims.Principal)
	return p
}

// WithPrincipal stores a principal in ctx. Exported for handler tests.
func WithPrincipal(ctx context.Context, p *claims.Principal) context.Context {
	return context.WithValue(ctx, principalCtxKey{}, p)
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if h == "" {
		return ""
	}
	token := strings.TrimPrefix(h, "Bearer ")
	if token == h {
		return ""
	}
	return token
}
