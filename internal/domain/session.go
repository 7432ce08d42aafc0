package domain

import (
	"context"
	"time"
)

// Session is a login session. Token holds the SHA-256 of the session secret, never the secret itself.
// swagger:model Session
type Session struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	Token      string    `json:"-"`
	UserAgent  string    `json:"user_agent"`
	IPAddress  string    `json:"ip_address"`
	ExpiresAt  time.Time `json:"expires_at"`
	CreatedAt  time.Time `json:"created_at"`
	LastSeenAt time.Time `json:"last_seen_at"`
}

// NewSession returns a new Session. ID is typically set by the repository on create.
func NewSession(userID, tokenHash, userAgent, ipAddress string, expiresAt, createdAt time.Time) *Session {
	return &Session{
		UserID:     userID,
		Token:      tokenHash,
		UserAgent:  userAgent,
		IPAddress:  ipAddress,
		ExpiresAt:  expiresAt,
		CreatedAt:  createdAt,
		LastSeenAt: createdAt,
	}
}

// Expired reports whether the session is expired at now.
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.After(now)
}

// SessionRepository defines the interface for login session storage
type SessionRepository interface {
	Create(ctx context.Context, s *Session) error
	GetByID(ctx context.Context, id string) (*Session, error)
	GetByToken(ctx context.Context, tokenHash string) (*Session, error)
	ListByUserID(ctx context.Context, userID string) ([]*Session, error)
	Touch(ctx context.Context, id string, at time.Time) error
	Delete(ctx context.Context, id string) error
	DeleteByUserID(ctx context.Context, userID, keepSessionID string) (int64, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
