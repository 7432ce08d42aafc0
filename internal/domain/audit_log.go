package domain

import (
	"context"
	"encoding/json"
	"time"
)

// Audit actions recorded by the services.
const (
	AuditUserSignup       = "user.signup"
	AuditUserLogin        = "user.login"
	AuditUserUpdate       = "user.update"
	AuditUserDelete       = "user.delete"
	AuditEmailVerified    = "user.email_verified"
	AuditEventCreate      = "event.create"
	AuditEventUpdate      = "event.update"
	AuditEventPublish     = "event.publish"
	AuditEventCancel      = "event.cancel"
	AuditEventDelete      = "event.delete"
	AuditConsentUpdate    = "consent.update"
	AuditInvitationCreate = "invitation.create"
	AuditInvitationAccept = "invitation.accept"
	AuditInvitationRevoke = "invitation.revoke"
	AuditWaitlistNotify   = "waitlist.notify"
	AuditVenueChange      = "venue.change"
	AuditCategoryChange   = "category.change"
)

// AuditLog is an append-only record of a change made in the system.
// swagger:model AuditLog
type AuditLog struct {
	ID         string          `json:"id"`
	UserID     *string         `json:"user_id"`
	Action     string          `json:"action"`
	EntityType string          `json:"entity_type"`
	EntityID   string          `json:"entity_id"`
	Metadata   json.RawMessage `json:"metadata" swaggertype:"object"`
	IPAddress  string          `json:"ip_address"`
	CreatedAt  time.Time       `json:"created_at"`
}

// AuditFilter narrows audit log listings.
type AuditFilter struct {
	UserID     string
	EntityType string
	EntityID   string
	Action     string
	Since      *time.Time
}

// AuditLogRepository defines storage for audit logs.
type AuditLogRepository interface {
	Create(ctx context.Context, entry *AuditLog) error
	List(ctx context.Context, filter AuditFilter, params PaginationParams) ([]*AuditLog, int, error)
}

// AuditService records and lists audit entries. Record never fails the caller.
type AuditService interface {
	Record(ctx context.Context, userID *string, action, entityType, entityID string, metadata map[string]any)
	List(ctx context.Context, caller Principal, filter AuditFilter, params PaginationParams) ([]*AuditLog, int, error)
}
