package middleware_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/hgrguric/idgate/internal/domain"
	"github.com/hgrguric/idgate/internal/domain/tenant"
	"github.com/hgrguric/idgate/internal/middleware"
)

// mapDirectory resolves hostnames from a fixed map.
type mapDirectory map[string]*tenant.Tenant

func (d mapDirectory) FindActiveTenantByHostname(_ context.Context, hostname string) (*tenant.Tenant, error) {
	if t, ok := d[hostname]; ok && t.Active {
		return t, nil
	}
	return nil, domain.ErrNotFound
}

// errDirectory fails every lookup with a non-NotFound error.
type errDirectory struct{}

func (errDirectory) FindActiveTenantByHostname(context.Context, string) (*tenant.Tenant, error) {
	return nil, errors.New("connection refused")
}

func resolverFixture() http.Handler {
	dir := mapDirectory{
		"acme.example.com": {ID: "t1", Name: "Acme", Hostname: "acme.example.com", Active: true},
	}
	return middleware.ResolveTenant(dir, middleware.DefaultExemptPaths)(
		http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))
}

func TestResolveTenant_KnownHostname(t *testing.T) {
	dir := mapDirectory{
		"acme.example.com": {ID: "t1", Name: "Acme", Hostname: "acme.example.com", Active: true},
	}

	var seen *middleware.ResolvedTenant
	h := middleware.ResolveTenant(dir, middleware.DefaultExemptPaths)(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = middleware.TenantFromContext(r.Context())
			w.WriteHeader(http.StatusOK)
		}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users", nil)
	req.Host = "ACME.Example.com:8443" // mixed case with port
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if seen == nil || seen.ID != "t1" || seen.Name != "Acme" {
		t.Errorf("resolved tenant = %+v, want t1/Acme", seen)
	}
}

func TestResolveTenant_UnknownHostname(t *testing.T) {
	h := resolverFixture()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users", nil)
	req.Host = "ghost.example.com"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "tenant not found or deactivated") {
		t.Errorf("body = %q, want the terminal tenant message", rec.Body.String())
	}
}

func TestResolveTenant_DeactivatedTenant(t *testing.T) {
	dir := mapDirectory{
		"off.example.com": {ID: "t2", Name: "Off", Hostname: "off.example.com", Active: false},
	}
	h := middleware.ResolveTenant(dir, nil)(
		http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users", nil)
	req.Host = "off.example.com"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404 for deactivated tenant", rec.Code)
	}
}

func TestResolveTenant_LookupError(t *testing.T) {
	h := middleware.ResolveTenant(errDirectory{}, nil)(
		http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users", nil)
	req.Host = "acme.example.com"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500 on lookup failure", rec.Code)
	}
}

func TestResolveTenant_ExemptPrefixes(t *testing.T) {
	h := resolverFixture()

	for _, path := range []string{
		"/static/app.css",
		"/auth/login",
		"/connect/token",
		"/invite/accept",
		"/favicon.ico",
		"/health",
	} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.Host = "ghost.example.com" // would 404 if resolution ran
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Errorf("path %s: status = %d, want 200 (exempt)", path, rec.Code)
		}
	}
}

func TestResolveTenant_ExemptPathHasNoTenantContext(t *testing.T) {
	dir := mapDirectory{
		"acme.example.com": {ID: "t1", Name: "Acme", Hostname: "acme.example.com", Active: true},
	}

	var seen *middleware.ResolvedTenant
	h := middleware.ResolveTenant(dir, middleware.DefaultExemptPaths)(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = middleware.TenantFromContext(r.Context())
			w.WriteHeader(http.StatusOK)
		}))

	req := httptest.NewRequest(http.MethodGet, "/auth/login", nil)
	req.Host = "acme.example.com"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if seen != nil {
		t.Errorf("exempt path carries tenant context %+v, want none", seen)
	}
	if middleware.TenantIDFromContext(req.Context()) != "" {
		t.Error("TenantIDFromContext on bare context should be empty")
	}
}
