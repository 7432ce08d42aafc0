package domain

import (
	"context"
	"time"
)

// EmailVerification is a pending or completed proof of email ownership.
// Token holds the SHA-256 of the secret that was mailed out.
type EmailVerification struct {
	ID         string     `json:"id"`
	UserID     *string    `json:"user_id"`
	Email      string     `json:"email"`
	Token      string     `json:"-"`
	ExpiresAt  time.Time  `json:"expires_at"`
	VerifiedAt *time.Time `json:"verified_at"`
	CreatedAt  time.Time  `json:"created_at"`
}

// EmailVerificationRepository defines storage for email verifications.
type EmailVerificationRepository interface {
	Create(ctx context.Context, v *EmailVerification) error
	GetByToken(ctx context.Context, tokenHash string) (*EmailVerification, error)
	MarkVerified(ctx context.Context, id string, at time.Time) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
