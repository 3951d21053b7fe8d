package http

import (
	"net/http"

	"github.com/hgrguric/idgate/internal/domain/user"
	"github.com/hgrguric/idgate/internal/middleware"
)

// ListUsers handles GET /api/v1/users
func (h *Handlers) ListUsers(w http.ResponseWriter, r *http.Request) {
	p := middleware.PrincipalFromContext(r.Context())
	users, err := h.Users.List(r.Context(), p)
	if err != nil {
		writeDomainError(w, err, "users not found")
		return
	}
	writeJSON(w, http.StatusOK, users)
}

// CreateUser handles POST /api/v1/users
func (h *Handlers) CreateUser(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[user.CreateRequest](w, r)
	if !ok {
		return
	}

	p := middleware.PrincipalFromContext(r.Context())
	u, err := h.Users.Create(r.Context(), p, req)
	if err != nil {
		writeDomainError(w, err, "user not found")
		return
	}
	writeJSON(w, http.StatusCreated, u)
}

// GetUser handles GET /api/v1/users/{id}
func (h *Handlers) GetUser(w http.ResponseWriter, r *http.Request) {
	p := middleware.PrincipalFromContext(r.Context())
	u, err := h.Users.Get(r.Context(), p, urlParam(r, "id"))
	if err != nil {
		writeDomainError(w, err, "user not found")
		return
	}
	writeJSON(w, http.StatusOK, u)
}

// UpdateUserRoles handles PUT /api/v1/users/{id}/roles
func (h *Handlers) UpdateUserRoles(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[user.UpdateRolesRequest](w, r)
	if !ok {
		return
	}

	p := middleware.PrincipalFromContext(r.Context())
	u, err := h.Users.UpdateRoles(r.Context(), p, urlParam(r, "id"), req.Roles)
	if err != nil {
		writeDomainError(w, err, "user not found")
		return
	}
	writeJSON(w, http.StatusOK, u)
}

// ResetUserPassword handles POST /api/v1/users/{id}/reset-password
func (h *Handlers) ResetUserPassword(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[user.ResetPasswordRequest](w, r)
	if !ok {
		return
	}

	p := middleware.PrincipalFromContext(r.Context())
	if err := h.Users.ResetPassword(r.Context(), p, urlParam(r, "id"), req.NewPassword); err != nil {
		writeDomainError(w, err, "user not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "password_reset"})
}

// DeleteUser handles DELETE /api/v1/users/{id}
func (h *Handlers) DeleteUser(w http.ResponseWriter, r *http.Request) {
	p := middleware.PrincipalFromContext(r.Context())
	if err := h.Users.Delete(r.Context(), p, urlParam(r, "id")); err != nil {
		writeDomainError(w, err, "user not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
