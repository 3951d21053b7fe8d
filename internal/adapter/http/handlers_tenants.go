package http

import (
	"net/http"

	"github.com/hgrguric/idgate/internal/domain/tenant"
)

// ListTenants handles GET /api/v1/tenants
func (h *Handlers) ListTenants(w http.ResponseWriter, r *http.Request) {
	tenants, err := h.Tenants.List(r.Context())
	if err != nil {
		writeInternalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tenants)
}

// CreateTenant handles POST /api/v1/tenants
func (h *Handlers) CreateTenant(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[tenant.CreateRequest](w, r)
	if !ok {
		return
	}

	t, err := h.Tenants.Create(r.Context(), req)
	if err != nil {
		writeDomainError(w, err, "tenant not found")
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

// GetTenant handles GET /api/v1/tenants/{id}
func (h *Handlers) GetTenant(w http.ResponseWriter, r *http.Request) {
	t, err := h.Tenants.Get(r.Context(), urlParam(r, "id"))
	if err != nil {
		writeDomainError(w, err, "tenant not found")
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// UpdateTenant handles PUT /api/v1/tenants/{id}
func (h *Handlers) UpdateTenant(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[tenant.UpdateRequest](w, r)
	if !ok {
		return
	}

	t, err := h.Tenants.Update(r.Context(), urlParam(r, "id"), req)
	if err != nil {
		writeDomainError(w, err, "tenant not found")
		return
	}
	writeJSON(w, http.StatusOK, t)
}
