package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hgrguric/idgate/internal/middleware"
)

// MountRoutes registers all routes on the given chi router. Tenant
// resolution is applied router-wide in main; everything here assumes it
// already ran (or was exempted).
func MountRoutes(r chi.Router, h *Handlers, rl *middleware.RateLimiter) {
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// Sign-in surface. Login and invite redemption are credential-guessing
	// targets, so both sit behind the rate limiter.
	r.Route("/auth", func(r chi.Router) {
		r.With(rl.Handler).Post("/login", h.Login)
		r.Post("/logout", h.Logout)
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(h.Auth))
			r.Get("/me", h.Me)
			r.Post("/refresh-claims", h.RefreshClaims)
		})
	})

	// Token issuance surface.
	r.Route("/connect", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(middleware.OptionalAuth(h.Auth))
			r.Get("/authorize", h.Authorize)
			r.Post("/authorize", h.Authorize)
		})
		r.Post("/token", h.Token)
		r.Get("/userinfo", h.Userinfo)
	})

	// Public invite redemption; the token is the credential.
	r.Get("/invite/accept", h.InspectInvite)
	r.With(rl.Handler).Post("/invite/accept", h.AcceptInvite)

	// Administrative API.
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(h.Auth))

		r.Group(func(r chi.Router) {
			r.Use(middleware.GlobalAdminOnly)
			r.Get("/tenants", h.ListTenants)
			r.Post("/tenants", h.CreateTenant)
			r.Get("/tenants/{id}", h.GetTenant)
			r.Put("/tenants/{id}", h.UpdateTenant)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.TenantAdminOrGlobal)

			r.Get("/users", h.ListUsers)
			r.Post("/users", h.CreateUser)
			r.Get("/users/{id}", h.GetUser)
			r.Put("/users/{id}/roles", h.UpdateUserRoles)
			r.Post("/users/{id}/reset-password", h.ResetUserPassword)
			r.Delete("/users/{id}", h.DeleteUser)

			r.Get("/invites", h.ListInvites)
			r.Post("/invites", h.CreateInvite)
			r.Post("/invites/{id}/resend", h.ResendInvite)
			r.Delete("/invites/{id}", h.DeleteInvite)
		})
	})
}
