package domain

import (
	"context"
	"time"
)

// ConsentType identifies what the user consented to. Each user has at most one consent per type.
type ConsentType string

const (
	ConsentTerms     ConsentType = "terms_of_service"
	ConsentPrivacy   ConsentType = "privacy_policy"
	ConsentMarketing ConsentType = "marketing_emails"
	ConsentAnalytics ConsentType = "analytics"
)

// Valid reports whether t is a known consent type.
func (t ConsentType) Valid() bool {
	switch t {
	case ConsentTerms, ConsentPrivacy, ConsentMarketing, ConsentAnalytics:
		return true
	}
	return false
}

// Required reports whether the consent cannot be withdrawn while the account exists.
func (t ConsentType) Required() bool {
	return t == ConsentTerms
}

// Consent records a user's decision for one ConsentType.
// swagger:model Consent
type Consent struct {
	ID        string      `json:"id"`
	UserID    string      `json:"user_id"`
	Type      ConsentType `json:"type"`
	Granted   bool        `json:"granted"`
	Version   string      `json:"version"`
	IPAddress string      `json:"ip_address"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// ConsentRepository defines storage for consents.
type ConsentRepository interface {
	// Upsert inserts the consent or updates the existing (user_id, type) row, filling ID and timestamps.
	Upsert(ctx context.Context, c *Consent) error
	Get(ctx context.Context, userID string, t ConsentType) (*Consent, error)
	ListByUserID(ctx context.Context, userID string) ([]*Consent, error)
}

// ConsentService defines consent management for the current user.
type ConsentService interface {
	Set(ctx context.Context, userID string, t ConsentType, granted bool, version, ipAddress string) (*Consent, error)
	Get(ctx context.Context, userID string, t ConsentType) (*Consent, error)
	List(ctx context.Context, userID string) ([]*Consent, error)
}
