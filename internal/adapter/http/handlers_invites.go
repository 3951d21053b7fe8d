package http

import (
	"errors"
	"net/http"

	"github.com/hgrguric/idgate/internal/domain/invite"
	"github.com/hgrguric/idgate/internal/middleware"
	"github.com/hgrguric/idgate/internal/service"
)

// ListInvites handles GET /api/v1/invites with optional q, tenant_id and
// status query parameters.
func (h *Handlers) ListInvites(w http.ResponseWriter, r *http.Request) {
	filter := invite.ListFilter{
		Query:  r.URL.Query().Get("q"),
		Status: r.URL.Query().Get("status"),
	}
	if tid := r.URL.Query().Get("tenant_id"); tid != "" {
		filter.TenantID = &tid
	}

	p := middleware.PrincipalFromContext(r.Context())
	invites, err := h.Invites.List(r.Context(), p, filter)
	if err != nil {
		writeDomainError(w, err, "invites not found")
		return
	}
	writeJSON(w, http.StatusOK, invites)
}

// CreateInvite handles POST /api/v1/invites
func (h *Handlers) CreateInvite(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[invite.CreateRequest](w, r)
	if !ok {
		return
	}

	p := middleware.PrincipalFromContext(r.Context())
	inv, err := h.Invites.Create(r.Context(), p, req)
	if err != nil {
		writeDomainError(w, err, "invite not found")
		return
	}
	writeJSON(w, http.StatusCreated, inv)
}

// ResendInvite handles POST /api/v1/invites/{id}/resend
func (h *Handlers) ResendInvite(w http.ResponseWriter, r *http.Request) {
	p := middleware.PrincipalFromContext(r.Context())
	inv, err := h.Invites.Resend(r.Context(), p, urlParam(r, "id"))
	if err != nil {
		writeDomainError(w, err, "invite not found")
		return
	}
	writeJSON(w, http.StatusOK, inv)
}

// DeleteInvite handles DELETE /api/v1/invites/{id}
func (h *Handlers) DeleteInvite(w http.ResponseWriter, r *http.Request) {
	p := middleware.PrincipalFromContext(r.Context())
	if err := h.Invites.Delete(r.Context(), p, urlParam(r, "id")); err != nil {
		writeDomainError(w, err, "invite not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// writeInviteError maps each terminal invite state to its own status so
// the accept page can render a distinct message.
func writeInviteError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrInviteNotFound):
		writeError(w, http.StatusNotFound, "invite not found")
	case errors.Is(err, service.ErrInviteAccepted):
		writeError(w, http.StatusConflict, "invite already accepted")
	case errors.Is(err, service.ErrInviteExpired):
		writeError(w, http.StatusGone, "invite expired")
	default:
		writeDomainError(w, err, "invite not found")
	}
}

// InspectInvite handles GET /invite/accept?token=... It is public: the
// token itself is the credential.
func (h *Handlers) InspectInvite(w http.ResponseWriter, r *http.Request) {
	inv, err := h.Invites.Inspect(r.Context(), r.URL.Query().Get("token"))
	if err != nil {
		writeInviteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"email":      inv.Email,
		"role_name":  inv.RoleName,
		"expires_at": inv.ExpiresAt,
	})
}

// AcceptInvite handles POST /invite/accept
func (h *Handlers) AcceptInvite(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[invite.AcceptRequest](w, r)
	if !ok {
		return
	}

	u, err := h.Invites.Accept(r.Context(), req)
	if err != nil {
		writeInviteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}
