// Package http wires the HTTP handlers to the service layer.
package http

import (
	"github.com/hgrguric/idgate/internal/config"
	"github.com/hgrguric/idgate/internal/service"
)

// Handlers holds the HTTP handler dependencies.
type Handlers struct {
	Auth    *service.AuthService
	Tenants *service.TenantService
	Users   *service.UserService
	Invites *service.InviteService
	Issuer  *service.IssuerService
	Cfg     *config.Config
}
