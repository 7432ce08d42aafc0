package domain

import (
	"context"
	"time"
)

// InvitationStatus is the state of an invitation.
type InvitationStatus string

const (
	InvitationPending  InvitationStatus = "pending"
	InvitationAccepted InvitationStatus = "accepted"
	InvitationRevoked  InvitationStatus = "revoked"
	InvitationExpired  InvitationStatus = "expired"
)

// Invitation is sent by a user (inviter) to an email address. Once accepted, InviteeID
// points at the user who accepted it. Token holds the SHA-256 of the mailed secret.
// swagger:model Invitation
type Invitation struct {
	ID         string           `json:"id"`
	InviterID  string           `json:"inviter_id"`
	InviteeID  *string          `json:"invitee_id"`
	Email      string           `json:"email"`
	Token      string           `json:"-"`
	Role       UserRole         `json:"role"`
	Status     InvitationStatus `json:"status"`
	Message    string           `json:"message"`
	ExpiresAt  time.Time        `json:"expires_at"`
	AcceptedAt *time.Time       `json:"accepted_at"`
	CreatedAt  time.Time        `json:"created_at"`
	UpdatedAt  time.Time        `json:"updated_at"`
}

// InvitationRepository defines storage operations for invitations.
type InvitationRepository interface {
	Create(ctx context.Context, inv *Invitation) error
	GetByID(ctx context.Context, id string) (*Invitation, error)
	GetByToken(ctx context.Context, tokenHash string) (*Invitation, error)
	FindPending(ctx context.Context, inviterID, email string) (*Invitation, error)
	ListByInviter(ctx context.Context, inviterID string, params PaginationParams) ([]*Invitation, int, error)
	ListByEmail(ctx context.Context, email string, params PaginationParams) ([]*Invitation, int, error)
	// Accept moves a pending invitation to accepted. Returns ErrNotFound if it is not pending.
	Accept(ctx context.Context, id, inviteeID string, at time.Time) (*Invitation, error)
	UpdateStatus(ctx context.Context, id string, status InvitationStatus) error
	ExpirePending(ctx context.Context, now time.Time) (int64, error)
}

// InvitationService defines invitation workflows.
type InvitationService interface {
	Create(ctx context.Context, caller Principal, email, message string, role UserRole) (*Invitation, error)
	Accept(ctx context.Context, caller Principal, token string) (*Invitation, error)
	Revoke(ctx context.Context, caller Principal, invitationID string) error
	ListSent(ctx context.Context, caller Principal, params PaginationParams) ([]*Invitation, int, error)
	ListReceived(ctx context.Context, caller Principal, params PaginationParams) ([]*Invitation, int, error)
}
