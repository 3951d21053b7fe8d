package http

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/hgrguric/idgate/internal/domain/claims"
	"github.com/hgrguric/idgate/internal/middleware"
	"github.com/hgrguric/idgate/internal/service"
)

// oauthError is the error payload shape token clients expect.
type oauthError struct {
	Error       string `json:"error"`
	Description string `json:"error_description,omitempty"`
}

func writeOAuthError(w http.ResponseWriter, status int, code, description string) {
	writeJSON(w, status, oauthError{Error: code, Description: description})
}

// Authorize handles GET/POST /connect/authorize. An anonymous caller is
// sent to the login page with the full original request preserved in
// return_to, so the flow resumes exactly where it started after sign-in.
func (h *Handlers) Authorize(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeOAuthError(w, http.StatusBadRequest, "invalid_request", "malformed request")
		return
	}

	p := middleware.PrincipalFromContext(r.Context())
	if p == nil {
		returnTo := r.URL.Path
		if enc := r.Form.Encode(); enc != "" {
			returnTo += "?" + enc
		}
		http.Redirect(w, r, "/auth/login?return_to="+url.QueryEscape(returnTo), http.StatusFound)
		return
	}

	req := service.AuthorizeRequest{
		ClientID:    r.Form.Get("client_id"),
		RedirectURI: r.Form.Get("redirect_uri"),
		State:       r.Form.Get("state"),
	}
	if scope := r.Form.Get("scope"); scope != "" {
		req.Scopes = strings.Fields(scope)
	}

	code, err := h.Issuer.Authorize(r.Context(), p, req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUnknownClient):
			writeOAuthError(w, http.StatusBadRequest, "invalid_client", "unknown client")
		case errors.Is(err, service.ErrBadRedirect):
			// Never redirect to an unregistered URI.
			writeOAuthError(w, http.StatusBadRequest, "invalid_request", "redirect_uri not registered")
		default:
			writeInternalError(w, err)
		}
		return
	}

	dest, err := url.Parse(req.RedirectURI)
	if err != nil {
		writeOAuthError(w, http.StatusBadRequest, "invalid_request", "malformed redirect_uri")
		return
	}
	q := dest.Query()
	q.Set("code", code)
	if req.State != "" {
		q.Set("state", req.State)
	}
	dest.RawQuery = q.Encode()
	http.Redirect(w, r, dest.String(), http.StatusFound)
}

// Token handles POST /connect/token. Client credentials arrive via HTTP
// basic auth or form fields.
func (h *Handlers) Token(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeOAuthError(w, http.StatusBadRequest, "invalid_request", "malformed request")
		return
	}

	if grant := r.Form.Get("grant_type"); grant != "authorization_code" {
		writeOAuthError(w, http.StatusBadRequest, "unsupported_grant_type", "only authorization_code is supported")
		return
	}

	clientID, clientSecret, ok := r.BasicAuth()
	if !ok {
		clientID = r.Form.Get("client_id")
		clientSecret = r.Form.Get("client_secret")
	}

	resp, err := h.Issuer.Exchange(r.Context(), clientID, clientSecret,
		r.Form.Get("code"), r.Form.Get("redirect_uri"))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUnknownClient), errors.Is(err, service.ErrBadClientSecret):
			writeOAuthError(w, http.StatusUnauthorized, "invalid_client", "client authentication failed")
		case errors.Is(err, service.ErrInvalidCode):
			writeOAuthError(w, http.StatusBadRequest, "invalid_grant", "invalid or expired authorization code")
		default:
			writeInternalError(w, err)
		}
		return
	}

	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, http.StatusOK, resp)
}

// Userinfo handles GET /connect/userinfo using a bearer access token.
func (h *Handlers) Userinfo(w http.ResponseWriter, r *http.Request) {
	auth := r.Header.Get("Authorization")
	token := strings.TrimPrefix(auth, "Bearer ")
	if token == "" || token == auth {
		w.Header().Set("WWW-Authenticate", "Bearer")
		writeOAuthError(w, http.StatusUnauthorized, "invalid_token", "missing bearer token")
		return
	}

	p, err := h.Issuer.ValidateAccessToken(token)
	if err != nil {
		w.Header().Set("WWW-Authenticate", "Bearer error=\"invalid_token\"")
		writeOAuthError(w, http.StatusUnauthorized, "invalid_token", "token validation failed")
		return
	}

	info := map[string]any{
		claims.ClaimSubject: p.Subject,
		claims.ClaimName:    p.Name,
	}
	if p.Email != "" {
		info[claims.ClaimEmail] = p.Email
	}
	if len(p.Roles) > 0 {
		info[claims.ClaimRole] = p.Roles
	}
	if p.TenantID != "" {
		info[claims.ClaimTenant] = p.TenantID
	}
	writeJSON(w, http.StatusOK, info)
}
