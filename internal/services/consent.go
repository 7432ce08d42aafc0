package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"eventhub/internal/domain"
)

type consentService struct {
	repo           domain.ConsentRepository
	audit          domain.AuditService
	logger         *slog.Logger
	contextTimeout time.Duration
}

func NewConsentService(repo domain.ConsentRepository, audit domain.AuditService, logger *slog.Logger, timeout time.Duration) domain.ConsentService {
	return &consentService{repo: repo, audit: audit, logger: logger.With("component", "consents"), contextTimeout: timeout}
}

func validConsentType(t domain.ConsentType) error {
	if !t.Valid() {
		return domain.Invalid(fmt.Sprintf("unknown consent type %q", t))
	}
	return nil
}

// Set records the user's choice for one consent type. Required consents
// cannot be withdrawn; the account has to be deleted instead.
func (s *consentService) Set(ctx context.Context, userID string, t domain.ConsentType, granted bool, version, ipAddress string) (*domain.Consent, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if err := validConsentType(t); err != nil {
		return nil, err
	}
	if t.Required() && !granted {
		return nil, domain.Invalid(fmt.Sprintf("%s cannot be withdrawn", t))
	}
	version = strings.TrimSpace(version)
	if version == "" {
		version = currentPolicyVersion
	}
	if ipAddress == "" {
		ipAddress = domain.ClientIP(ctx)
	}

	now := time.Now().UTC()
	c := &domain.Consent{
		UserID:    userID,
		Type:      t,
		Granted:   granted,
		Version:   version,
		IPAddress: ipAddress,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Upsert(ctx, c); err != nil {
		return nil, fmt.Errorf("upsert consent: %w", err)
	}
	s.audit.Record(ctx, &userID, domain.AuditConsentUpdate, "consent", c.ID, map[string]any{
		"type":    t,
		"granted": granted,
		"version": version,
	})
	return c, nil
}

func (s *consentService) Get(ctx context.Context, userID string, t domain.ConsentType) (*domain.Consent, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if err := validConsentType(t); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, userID, t)
}

func (s *consentService) List(ctx context.Context, userID string) ([]*domain.Consent, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	return s.repo.ListByUserID(ctx, userID)
}
