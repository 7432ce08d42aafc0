package services

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"eventhub/internal/adapters/auth"
	"eventhub/internal/domain"
)

const verificationTTL = 24 * time.Hour

// verificationIssuer creates email verification tokens and mails the link.
// It is shared by signup, resend and email change.
type verificationIssuer struct {
	repo       domain.EmailVerificationRepository
	email      domain.EmailService
	appBaseURL string
}

func (v *verificationIssuer) issue(ctx context.Context, user *domain.User) error {
	token, err := auth.NewOpaqueToken()
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	rec := &domain.EmailVerification{
		UserID:    &user.ID,
		Email:     user.Email,
		Token:     auth.HashToken(token),
		ExpiresAt: now.Add(verificationTTL),
		CreatedAt: now,
	}
	if err := v.repo.Create(ctx, rec); err != nil {
		return fmt.Errorf("create email verification: %w", err)
	}
	return v.email.SendVerification(ctx, &domain.VerificationEmailData{
		Email:          user.Email,
		Name:           user.Name,
		VerifyURL:      v.appBaseURL + "/verify-email?token=" + url.QueryEscape(token),
		ExpiresInHours: int(verificationTTL.Hours()),
	})
}
