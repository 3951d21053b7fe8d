package http

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/hgrguric/idgate/internal/domain"
	"github.com/hgrguric/idgate/internal/domain/user"
	"github.com/hgrguric/idgate/internal/middleware"
	"github.com/hgrguric/idgate/internal/service"
)

func (h *Handlers) setSessionCookie(w http.ResponseWriter, token string, maxAge time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(maxAge / time.Second),
	})
}

// Login handles POST /auth/login
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[user.LoginRequest](w, r)
	if !ok {
		return
	}

	resp, err := h.Auth.Login(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrValidation):
			writeDomainError(w, err, "invalid request")
		case errors.Is(err, service.ErrLockedOut):
			writeError(w, http.StatusLocked, "account temporarily locked")
		case errors.Is(err, service.ErrInvalidCredentials):
			slog.Debug("login failed", "email", req.Email)
			writeError(w, http.StatusUnauthorized, "invalid credentials")
		default:
			writeInternalError(w, err)
		}
		return
	}

	h.setSessionCookie(w, resp.SessionToken, h.Cfg.Auth.SessionExpiry)
	writeJSON(w, http.StatusOK, resp)
}

// Logout handles POST /auth/logout
func (h *Handlers) Logout(w http.ResponseWriter, _ *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
	writeJSON(w, http.StatusOK, map[string]string{"status": "logged_out"})
}

// Me handles GET /auth/me
func (h *Handlers) Me(w http.ResponseWriter, r *http.Request) {
	p := middleware.PrincipalFromContext(r.Context())
	if p == nil {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// RefreshClaims handles POST /auth/refresh-claims. It re-runs claims
// augmentation against current user and tenant state and rotates the
// session token.
func (h *Handlers) RefreshClaims(w http.ResponseWriter, r *http.Request) {
	p := middleware.PrincipalFromContext(r.Context())
	if p == nil {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	token, err := h.Auth.RefreshSession(r.Context(), p.Subject)
	if err != nil {
		writeDomainError(w, err, "user not found")
		return
	}

	h.setSessionCookie(w, token, h.Cfg.Auth.SessionExpiry)
	writeJSON(w, http.StatusOK, map[string]any{
		"session_token": token,
		"expires_in":    int(h.Cfg.Auth.SessionExpiry.Seconds()),
	})
}
