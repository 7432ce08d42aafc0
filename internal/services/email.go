package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"eventhub/internal/domain"
)

type emailService struct {
	mailer         domain.Mailer
	renderer       domain.EmailTemplateRenderer
	logger         *slog.Logger
	contextTimeout time.Duration
}

// NewEmailService returns an EmailService that renders templates and hands them to mailer.
func NewEmailService(mailer domain.Mailer, renderer domain.EmailTemplateRenderer, logger *slog.Logger, timeout time.Duration) domain.EmailService {
	return &emailService{mailer: mailer, renderer: renderer, logger: logger.With("component", "email"), contextTimeout: timeout}
}

func (s *emailService) send(ctx context.Context, template, to string, data any) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	subject, htmlBody, textBody, err := s.renderer.Render(template, data)
	if err != nil {
		return fmt.Errorf("failed to render %s template: %w", template, err)
	}
	if err := s.mailer.Send(ctx, to, subject, htmlBody, textBody); err != nil {
		return fmt.Errorf("failed to send %s email: %w", template, err)
	}
	s.logger.Debug("email sent", "template", template, "to", to)
	return nil
}

func (s *emailService) SendWelcome(ctx context.Context, data *domain.WelcomeEmailData) error {
	if data == nil {
		return fmt.Errorf("welcome email data is nil")
	}
	return s.send(ctx, "welcome", data.Email, data)
}

func (s *emailService) SendVerification(ctx context.Context, data *domain.VerificationEmailData) error {
	if data == nil {
		return fmt.Errorf("verification email data is nil")
	}
	return s.send(ctx, "verify_email", data.Email, data)
}

func (s *emailService) SendInvitation(ctx context.Context, data *domain.InvitationEmailData) error {
	if data == nil {
		return fmt.Errorf("invitation email data is nil")
	}
	return s.send(ctx, "invitation", data.Email, data)
}

func (s *emailService) SendWaitlistSpot(ctx context.Context, data *domain.WaitlistSpotEmailData) error {
	if data == nil {
		return fmt.Errorf("waitlist email data is nil")
	}
	return s.send(ctx, "waitlist_spot", data.Email, data)
}
