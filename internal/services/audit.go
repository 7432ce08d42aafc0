package services

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"eventhub/internal/domain"
)

type auditService struct {
	repo           domain.AuditLogRepository
	logger         *slog.Logger
	contextTimeout time.Duration
}

// NewAuditService returns an AuditService. Record never fails the caller;
// write errors are logged.
func NewAuditService(repo domain.AuditLogRepository, logger *slog.Logger, timeout time.Duration) domain.AuditService {
	return &auditService{repo: repo, logger: logger.With("component", "audit"), contextTimeout: timeout}
}

func (s *auditService) Record(ctx context.Context, userID *string, action, entityType, entityID string, metadata map[string]any) {
	// The audit write outlives a cancelled request.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.contextTimeout)
	defer cancel()

	raw := json.RawMessage("{}")
	if len(metadata) > 0 {
		b, err := json.Marshal(metadata)
		if err != nil {
			s.logger.Error("marshal audit metadata", "action", action, "error", err)
		} else {
			raw = b
		}
	}
	entry := &domain.AuditLog{
		UserID:     userID,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Metadata:   raw,
		IPAddress:  domain.ClientIP(ctx),
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, entry); err != nil {
		s.logger.Error("write audit log", "action", action, "entity_type", entityType, "entity_id", entityID, "error", err)
	}
}

func (s *auditService) List(ctx context.Context, caller domain.Principal, filter domain.AuditFilter, params domain.PaginationParams) ([]*domain.AuditLog, int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if !caller.IsAdmin() {
		return nil, 0, domain.ErrForbidden
	}
	return s.repo.List(ctx, filter, params)
}

// userRef is a helper for the *string user id Record expects.
func userRef(id string) *string {
	if id == "" {
		return nil
	}
	return &id
}
