package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"eventhub/internal/adapters/auth"
	"eventhub/internal/domain"
)

const (
	invitationTTL        = 7 * 24 * time.Hour
	maxInviteMessage     = 1000
	invitationAcceptPath = "/invitations/accept?token="
)

type invitationService struct {
	invitations    domain.InvitationRepository
	users          domain.UserRepository
	email          domain.EmailService
	audit          domain.AuditService
	appBaseURL     string
	logger         *slog.Logger
	contextTimeout time.Duration
}

func NewInvitationService(
	invitations domain.InvitationRepository,
	users domain.UserRepository,
	email domain.EmailService,
	audit domain.AuditService,
	appBaseURL string,
	logger *slog.Logger,
	timeout time.Duration,
) domain.InvitationService {
	return &invitationService{
		invitations:    invitations,
		users:          users,
		email:          email,
		audit:          audit,
		appBaseURL:     appBaseURL,
		logger:         logger.With("component", "invitations"),
		contextTimeout: timeout,
	}
}

func (s *invitationService) Create(ctx context.Context, caller domain.Principal, email, message string, role domain.UserRole) (*domain.Invitation, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	email, err := validEmail(email)
	if err != nil {
		return nil, err
	}
	if role == "" {
		role = domain.RoleUser
	}
	if !role.Valid() {
		return nil, domain.Invalid(fmt.Sprintf("unknown role %q", role))
	}
	if role == domain.RoleAdmin && !caller.IsAdmin() {
		return nil, domain.ErrForbidden
	}
	message = strings.TrimSpace(message)
	if len(message) > maxInviteMessage {
		return nil, domain.Invalid(fmt.Sprintf("message must be at most %d characters", maxInviteMessage))
	}

	inviter, err := s.users.GetByID(ctx, caller.UserID)
	if err != nil {
		return nil, fmt.Errorf("get inviter: %w", err)
	}
	if inviter.Email == email {
		return nil, domain.Invalid("you cannot invite yourself")
	}
	if _, err := s.invitations.FindPending(ctx, caller.UserID, email); err == nil {
		return nil, fmt.Errorf("pending invitation for %s: %w", email, domain.ErrConflict)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("find pending invitation: %w", err)
	}

	token, err := auth.NewOpaqueToken()
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	inv := &domain.Invitation{
		InviterID: caller.UserID,
		Email:     email,
		Token:     auth.HashToken(token),
		Role:      role,
		Status:    domain.InvitationPending,
		Message:   message,
		ExpiresAt: now.Add(invitationTTL),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.invitations.Create(ctx, inv); err != nil {
		return nil, fmt.Errorf("create invitation: %w", err)
	}

	err = s.email.SendInvitation(ctx, &domain.InvitationEmailData{
		Email:         email,
		InviterName:   inviter.Name,
		Message:       message,
		AcceptURL:     s.appBaseURL + invitationAcceptPath + url.QueryEscape(token),
		ExpiresInDays: int(invitationTTL.Hours() / 24),
	})
	if err != nil {
		s.logger.Error("send invitation email", "invitation_id", inv.ID, "error", err)
	}
	s.audit.Record(ctx, &caller.UserID, domain.AuditInvitationCreate, "invitation", inv.ID, map[string]any{"email": email, "role": role})
	return inv, nil
}

// Accept binds a pending invitation to the caller and grants its role.
func (s *invitationService) Accept(ctx context.Context, caller domain.Principal, token string) (*domain.Invitation, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	token = strings.TrimSpace(token)
	if token == "" {
		return nil, domain.Invalid("token is required")
	}
	inv, err := s.invitations.GetByToken(ctx, auth.HashToken(token))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.Invalid("invalid invitation token")
		}
		return nil, fmt.Errorf("get invitation: %w", err)
	}
	if inv.Status != domain.InvitationPending {
		return nil, domain.Invalid(fmt.Sprintf("invitation is %s", inv.Status))
	}
	now := time.Now().UTC()
	if !inv.ExpiresAt.After(now) {
		if err := s.invitations.UpdateStatus(ctx, inv.ID, domain.InvitationExpired); err != nil {
			s.logger.Warn("mark invitation expired", "invitation_id", inv.ID, "error", err)
		}
		return nil, domain.ErrTokenExpired
	}

	user, err := s.users.GetByID(ctx, caller.UserID)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if user.Email != inv.Email {
		return nil, domain.ErrForbidden
	}

	accepted, err := s.invitations.Accept(ctx, inv.ID, user.ID, now)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.Invalid("invitation is no longer pending")
		}
		return nil, fmt.Errorf("accept invitation: %w", err)
	}
	if inv.Role == domain.RoleAdmin && user.Role != domain.RoleAdmin {
		if err := s.users.SetRole(ctx, user.ID, inv.Role); err != nil {
			return nil, fmt.Errorf("grant role: %w", err)
		}
	}
	s.audit.Record(ctx, &user.ID, domain.AuditInvitationAccept, "invitation", inv.ID, map[string]any{"role": inv.Role})
	return accepted, nil
}

func (s *invitationService) Revoke(ctx context.Context, caller domain.Principal, invitationID string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	inv, err := s.invitations.GetByID(ctx, invitationID)
	if err != nil {
		return err
	}
	if inv.InviterID != caller.UserID {
		return domain.ErrForbidden
	}
	if inv.Status != domain.InvitationPending {
		return domain.Invalid(fmt.Sprintf("invitation is %s", inv.Status))
	}
	if err := s.invitations.UpdateStatus(ctx, invitationID, domain.InvitationRevoked); err != nil {
		return err
	}
	s.audit.Record(ctx, &caller.UserID, domain.AuditInvitationRevoke, "invitation", invitationID, nil)
	return nil
}

func (s *invitationService) ListSent(ctx context.Context, caller domain.Principal, params domain.PaginationParams) ([]*domain.Invitation, int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	return s.invitations.ListByInviter(ctx, caller.UserID, params)
}

// ListReceived lists invitations addressed to the caller's current email.
func (s *invitationService) ListReceived(ctx context.Context, caller domain.Principal, params domain.PaginationParams) ([]*domain.Invitation, int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	user, err := s.users.GetByID(ctx, caller.UserID)
	if err != nil {
		return nil, 0, fmt.Errorf("get user: %w", err)
	}
	return s.invitations.ListByEmail(ctx, user.Email, params)
}
