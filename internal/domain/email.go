package domain

import "context"

// Mailer defines the contract for sending emails (infrastructure port).
type Mailer interface {
	Send(ctx context.Context, to, subject, html, text string) error
}

// EmailTemplateRenderer renders email content from a named template with the given data.
type EmailTemplateRenderer interface {
	Render(templateName string, data any) (subject, htmlBody, textBody string, err error)
}

// WelcomeEmailData holds data for the welcome email.
type WelcomeEmailData struct {
	Email string
	Name  string
}

// VerificationEmailData holds data for the email verification message.
type VerificationEmailData struct {
	Email          string
	Name           string
	VerifyURL      string
	ExpiresInHours int
}

// InvitationEmailData holds data for an invitation email.
type InvitationEmailData struct {
	Email         string
	InviterName   string
	Message       string
	AcceptURL     string
	ExpiresInDays int
}

// WaitlistSpotEmailData holds data for the "a spot opened up" email.
type WaitlistSpotEmailData struct {
	Email      string
	Name       string
	EventTitle string
	EventURL   string
	Position   int
}

// EmailService defines the contract for sending domain-level emails.
type EmailService interface {
	SendWelcome(ctx context.Context, data *WelcomeEmailData) error
	SendVerification(ctx context.Context, data *VerificationEmailData) error
	SendInvitation(ctx context.Context, data *InvitationEmailData) error
	SendWaitlistSpot(ctx context.Context, data *WaitlistSpotEmailData) error
}
