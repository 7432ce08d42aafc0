package email

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventhub/internal/domain"
)

func TestTemplateRenderer_Render(t *testing.T) {
	r, err := NewTemplateRenderer()
	require.NoError(t, err)

	tests := []struct {
		name        string
		template    string
		data        any
		wantSubject string
		wantHTML    string
		wantText    string
	}{
		{
			name:        "welcome",
			template:    TemplateWelcome,
			data:        &domain.WelcomeEmailData{Email: "a@example.com", Name: "Ada"},
			wantSubject: "Welcome to Eventhub, Ada",
			wantHTML:    "<strong>a@example.com</strong>",
			wantText:    "Hi Ada,",
		},
		{
			name:        "verify email",
			template:    TemplateVerifyEmail,
			data:        &domain.VerificationEmailData{Email: "a@example.com", Name: "Ada", VerifyURL: "https://app/verify?token=abc", ExpiresInHours: 24},
			wantSubject: "Confirm your email address",
			wantHTML:    `href="https://app/verify?token=abc"`,
			wantText:    "expires in 24 hours",
		},
		{
			name:        "invitation escapes html",
			template:    TemplateInvitation,
			data:        &domain.InvitationEmailData{Email: "b@example.com", InviterName: "Ada", Message: "<b>join</b>", AcceptURL: "https://app/accept", ExpiresInDays: 7},
			wantSubject: "Ada invited you to Eventhub",
			wantHTML:    "&lt;b&gt;join&lt;/b&gt;",
			wantText:    "<b>join</b>",
		},
		{
			name:        "waitlist spot without name",
			template:    TemplateWaitlistSpot,
			data:        &domain.WaitlistSpotEmailData{Email: "c@example.com", EventTitle: "Go Conf", EventURL: "https://app/events/go-conf", Position: 3},
			wantSubject: "A spot opened up for Go Conf",
			wantHTML:    "number 3",
			wantText:    "Hi there,",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			subject, html, text, err := r.Render(tt.template, tt.data)
			require.NoError(t, err)
			assert.Equal(t, tt.wantSubject, subject)
			assert.Contains(t, html, tt.wantHTML)
			assert.Contains(t, text, tt.wantText)
		})
	}
}

func TestTemplateRenderer_UnknownTemplate(t *testing.T) {
	r, err := NewTemplateRenderer()
	require.NoError(t, err)

	_, _, _, err = r.Render("does_not_exist", nil)
	assert.Error(t, err)
}
