package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hgrguric/idgate/internal/domain"
	"github.com/hgrguric/idgate/internal/domain/claims"
	"github.com/hgrguric/idgate/internal/domain/invite"
	"github.com/hgrguric/idgate/internal/domain/user"
	"github.com/hgrguric/idgate/internal/port/database"
	"github.com/hgrguric/idgate/internal/port/messagequeue"
	"github.com/hgrguric/idgate/internal/port/notifier"
)

// Invite redemption failures. Each maps to a distinct terminal view.
var (
	ErrInviteNotFound = errors.New("invite not found")
	ErrInviteAccepted = errors.New("invite already accepted")
	ErrInviteExpired  = errors.New("invite expired")
)

// InviteService manages the invitation lifecycle: creation with email
// notification, resend, deletion, and single-use redemption.
type InviteService struct {
	store   database.Store
	auth    *AuthService
	mailer  notifier.Mailer
	events  messagequeue.Publisher
	baseURL string
	now     func() time.Time
}

// NewInviteService creates a new invitation service. baseURL is the
// scheme+host used to build accept links.
func NewInviteService(store database.Store, auth *AuthService, mailer notifier.Mailer, events messagequeue.Publisher, baseURL string) *InviteService {
	return &InviteService{
		store:   store,
		auth:    auth,
		mailer:  mailer,
		events:  events,
		baseURL: baseURL,
		now:     time.Now,
	}
}

// Create stores a new invite and dispatches the notification email. The
// invite row persists even when dispatch fails; the Notified flag makes
// the unnotified state visible so an admin can resend. When the request
// names no tenant the invite defaults to the acting admin's own tenant.
func (s *InviteService) Create(ctx context.Context, caller *claims.Principal, req invite.CreateRequest) (*invite.Invite, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrValidation, err)
	}

	if req.TenantID == nil && caller.HasTenant() {
		tid := caller.TenantID
		req.TenantID = &tid
	}
	if !CanActOnTenant(caller, req.TenantID) {
		return nil, domain.ErrForbidden
	}
	// Only a GlobalAdmin can mint other admins.
	if req.RoleName == user.RoleGlobalAdmin && !caller.HasRole(user.RoleGlobalAdmin) {
		return nil, domain.ErrForbidden
	}

	token, err := invite.NewToken()
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	inv := &invite.Invite{
		ID:        uuid.NewString(),
		Email:     req.Email,
		TenantID:  req.TenantID,
		RoleName:  req.RoleName,
		Token:     token,
		ExpiresAt: req.ExpiryFrom(now),
		CreatedBy: caller.Email,
		CreatedAt: now,
	}

	if err := s.store.CreateInvite(ctx, inv); err != nil {
		return nil, fmt.Errorf("create invite: %w", err)
	}

	if err := s.sendInviteMail(ctx, inv, "Your idgate invitation"); err != nil {
		slog.Warn("invite mail dispatch failed", "invite_id", inv.ID, "error", err)
	} else {
		inv.Notified = true
		if err := s.store.MarkInviteNotified(ctx, inv.ID, true); err != nil {
			slog.Warn("failed to record invite notification", "invite_id", inv.ID, "error", err)
		}
	}

	s.publish(ctx, "invite.created", inv)
	return inv, nil
}

// List returns invites matching the filter, restricted to the caller's
// scope. A TenantAdmin asking for another tenant is rejected, not
// silently narrowed.
func (s *InviteService) List(ctx context.Context, caller *claims.Principal, filter invite.ListFilter) ([]invite.Invite, error) {
	if !caller.HasRole(user.RoleGlobalAdmin) {
		if !caller.HasTenant() {
			return nil, domain.ErrForbidden
		}
		if filter.TenantID != nil && *filter.TenantID != caller.TenantID {
			return nil, domain.ErrForbidden
		}
		tid := caller.TenantID
		filter.TenantID = &tid
	}
	return s.store.ListInvites(ctx, filter)
}

// Resend re-dispatches the notification for a pending invite. The token
// and expiry are not rotated.
func (s *InviteService) Resend(ctx context.Context, caller *claims.Principal, id string) (*invite.Invite, error) {
	inv, err := s.store.GetInvite(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanActOnTenant(caller, inv.TenantID) {
		return nil, domain.ErrForbidden
	}
	if inv.AcceptedAt != nil {
		return nil, ErrInviteAccepted
	}

	if err := s.sendInviteMail(ctx, inv, "Reminder: your idgate invitation"); err != nil {
		return nil, fmt.Errorf("resend invite: %w", err)
	}
	if !inv.Notified {
		inv.Notified = true
		if err := s.store.MarkInviteNotified(ctx, inv.ID, true); err != nil {
			slog.Warn("failed to record invite notification", "invite_id", inv.ID, "error", err)
		}
	}

	s.publish(ctx, "invite.resent", inv)
	return inv, nil
}

// Delete removes an invite, subject to tenant scoping.
func (s *InviteService) Delete(ctx context.Context, caller *claims.Principal, id string) error {
	inv, err := s.store.GetInvite(ctx, id)
	if err != nil {
		return err
	}
	if !CanActOnTenant(caller, inv.TenantID) {
		return domain.ErrForbidden
	}
	if err := s.store.DeleteInvite(ctx, id); err != nil {
		return err
	}
	s.publish(ctx, "invite.deleted", inv)
	return nil
}

// Inspect resolves a presented token to its invite for the accept form,
// mapping each terminal state to its own error.
func (s *InviteService) Inspect(ctx context.Context, token string) (*invite.Invite, error) {
	if token == "" {
		return nil, ErrInviteNotFound
	}
	inv, err := s.store.GetInviteByToken(ctx, token)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, ErrInviteNotFound
		}
		return nil, err
	}
	switch inv.Status(s.now()) {
	case invite.StatusAccepted:
		return nil, ErrInviteAccepted
	case invite.StatusExpired:
		return nil, ErrInviteExpired
	}
	return inv, nil
}

// Accept redeems an invite exactly once. The conditional acceptance
// stamp in the store is the serialization point: under concurrent
// redemption exactly one caller passes it, so at most one credential
// side effect ever happens. An existing account with the invite's email
// gets a credential reset; otherwise a new account is provisioned bound
// to the invite's tenant and optional role.
func (s *InviteService) Accept(ctx context.Context, req invite.AcceptRequest) (*user.User, error) {
	inv, err := s.Inspect(ctx, req.Token)
	if err != nil {
		return nil, err
	}
	if err := user.ValidatePassword(req.Password); err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrValidation, err)
	}

	// Claim the token before any credential mutation. Losing the race
	// here means another request already redeemed it.
	inv, err = s.store.MarkInviteAccepted(ctx, req.Token, s.now().UTC())
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, ErrInviteAccepted
		}
		return nil, fmt.Errorf("accept invite: %w", err)
	}

	existing, err := s.store.GetUserByEmail(ctx, inv.Email)
	switch {
	case err == nil:
		if err := s.auth.ResetCredential(ctx, existing.ID, req.Password); err != nil {
			return nil, err
		}
		// Re-read after the reset; writing the pre-reset struct back
		// would restore the old password hash.
		existing, err = s.store.GetUser(ctx, existing.ID)
		if err != nil {
			return nil, fmt.Errorf("reload account: %w", err)
		}
		if !existing.EmailConfirmed {
			existing.EmailConfirmed = true
			if err := s.store.UpdateUser(ctx, existing); err != nil {
				slog.Warn("failed to confirm email on acceptance", "user_id", existing.ID, "error", err)
			}
		}
		s.publish(ctx, "invite.accepted", inv)
		return existing, nil

	case errors.Is(err, domain.ErrNotFound):
		var roles []string
		if inv.RoleName != "" && s.grantAllowed(ctx, inv) {
			roles = []string{inv.RoleName}
		}
		u, err := s.auth.CreateAccount(ctx, &user.CreateRequest{
			Email:    inv.Email,
			Name:     inv.Email,
			Password: req.Password,
			TenantID: inv.TenantID,
			Roles:    roles,
		})
		if err != nil {
			return nil, err
		}
		u.EmailConfirmed = true
		if err := s.store.UpdateUser(ctx, u); err != nil {
			slog.Warn("failed to confirm email on acceptance", "user_id", u.ID, "error", err)
		}
		s.publish(ctx, "invite.accepted", inv)
		return u, nil

	default:
		return nil, fmt.Errorf("lookup account: %w", err)
	}
}

// grantAllowed re-checks the role an invite carries at redemption time.
// GlobalAdmin is conferred only while the invite's creator still holds
// it; a stale invite falls back to a plain account.
func (s *InviteService) grantAllowed(ctx context.Context, inv *invite.Invite) bool {
	if inv.RoleName != user.RoleGlobalAdmin {
		return true
	}
	creator, err := s.store.GetUserByEmail(ctx, inv.CreatedBy)
	if err != nil {
		return false
	}
	return creator.HasRole(user.RoleGlobalAdmin)
}

// AcceptURL builds the public redemption link for an invite token.
func (s *InviteService) AcceptURL(token string) string {
	return fmt.Sprintf("%s/invite/accept?token=%s", s.baseURL, token)
}

func (s *InviteService) sendInviteMail(ctx context.Context, inv *invite.Invite, subject string) error {
	acceptURL := s.AcceptURL(inv.Token)
	expires := inv.ExpiresAt.UTC().Format("2006-01-02 15:04")

	body := fmt.Sprintf(`<table width="100%%" cellpadding="0" cellspacing="0" style="background:#f6f8fb;padding:24px;font-family:sans-serif">
  <tr><td align="center">
    <table width="600" cellpadding="0" cellspacing="0" style="background:#fff;border-radius:12px;overflow:hidden">
      <tr><td style="background:#0d6efd;color:#fff;padding:16px 24px;font-size:18px;font-weight:600">idgate invitation</td></tr>
      <tr><td style="padding:24px;color:#333">
        <p style="margin:0 0 16px">You have been invited to <strong>idgate</strong>. Use the button below to activate your account and set a password.</p>
        <p style="margin:0 0 4px"><strong>Email:</strong> %s</p>
        <p style="margin:0 0 16px"><strong>Valid until:</strong> %s UTC</p>
        <p style="margin:0 0 16px;text-align:center">
          <a href="%s" style="display:inline-block;background:#0d6efd;color:#fff;text-decoration:none;padding:12px 20px;border-radius:8px;font-weight:600">Activate account</a>
        </p>
        <p style="word-break:break-all;font-size:12px;color:#666">%s</p>
      </td></tr>
    </table>
  </td></tr>
</table>`, html.EscapeString(inv.Email), expires, acceptURL, acceptURL)

	return s.mailer.Send(ctx, notifier.Message{
		To:      inv.Email,
		Subject: subject,
		HTML:    body,
	})
}

func (s *InviteService) publish(ctx context.Context, subject string, inv *invite.Invite) {
	data, err := json.Marshal(inv)
	if err != nil {
		return
	}
	if err := s.events.Publish(ctx, subject, data); err != nil {
		slog.Warn("audit event publish failed", "subject", subject, "error", err)
	}
}
