package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventhub/internal/adapters/auth"
	"eventhub/internal/domain"
)

type invitationFixture struct {
	invitations *fakeInvitationRepo
	users       *fakeUserRepo
	email       *fakeEmailService
	svc         domain.InvitationService
	inviter     *domain.User
	invitee     *domain.User
}

func newInvitationFixture() *invitationFixture {
	f := &invitationFixture{
		invitations: newFakeInvitationRepo(),
		users:       newFakeUserRepo(),
		email:       &fakeEmailService{},
	}
	f.svc = NewInvitationService(f.invitations, f.users, f.email, &fakeAudit{}, "https://app.test", discardLogger(), testTimeout)
	f.inviter = f.users.add(&domain.User{ID: owner.UserID, Email: "host@x.io", Name: "Host"})
	f.invitee = f.users.add(&domain.User{ID: stranger.UserID, Email: "guest@x.io", Name: "Guest"})
	return f
}

func TestInvitationService_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("stores hashed token and mails the link", func(t *testing.T) {
		f := newInvitationFixture()
		inv, err := f.svc.Create(ctx, owner, " Guest@X.io ", "join us", "")
		require.NoError(t, err)
		assert.Equal(t, "guest@x.io", inv.Email)
		assert.Equal(t, domain.RoleUser, inv.Role)
		assert.Equal(t, domain.InvitationPending, inv.Status)
		assert.WithinDuration(t, time.Now().Add(invitationTTL), inv.ExpiresAt, time.Minute)

		require.Len(t, f.email.invitations, 1)
		sent := f.email.invitations[0]
		assert.Equal(t, "Host", sent.InviterName)
		assert.Equal(t, 7, sent.ExpiresInDays)
		require.True(t, strings.HasPrefix(sent.AcceptURL, "https://app.test/invitations/accept?token="))
		token := tokenFromURL(t, sent.AcceptURL)
		assert.Equal(t, auth.HashToken(token), inv.Token)
	})

	tests := []struct {
		name   string
		caller domain.Principal
		email  string
		role   domain.UserRole
		want   error
	}{
		{"self invite", owner, "HOST@x.io", "", domain.ErrInvalidInput},
		{"bad email", owner, "nope", "", domain.ErrInvalidInput},
		{"unknown role", owner, "z@x.io", "superuser", domain.ErrInvalidInput},
		{"admin role needs admin", owner, "z@x.io", domain.RoleAdmin, domain.ErrForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newInvitationFixture()
			_, err := f.svc.Create(ctx, tt.caller, tt.email, "", tt.role)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	t.Run("duplicate pending invite", func(t *testing.T) {
		f := newInvitationFixture()
		_, err := f.svc.Create(ctx, owner, "z@x.io", "", "")
		require.NoError(t, err)
		_, err = f.svc.Create(ctx, owner, "z@x.io", "", "")
		assert.ErrorIs(t, err, domain.ErrConflict)
	})
}

func TestInvitationService_Accept(t *testing.T) {
	ctx := context.Background()

	create := func(t *testing.T, f *invitationFixture, caller domain.Principal, role domain.UserRole) (*domain.Invitation, string) {
		inv, err := f.svc.Create(ctx, caller, "guest@x.io", "", role)
		require.NoError(t, err)
		return inv, tokenFromURL(t, f.email.invitations[len(f.email.invitations)-1].AcceptURL)
	}

	t.Run("accepts and grants role", func(t *testing.T) {
		f := newInvitationFixture()
		f.users.add(&domain.User{ID: admin.UserID, Email: "root@x.io", Role: domain.RoleAdmin})
		_, token := create(t, f, admin, domain.RoleAdmin)

		inv, err := f.svc.Accept(ctx, stranger, token)
		require.NoError(t, err)
		assert.Equal(t, domain.InvitationAccepted, inv.Status)
		require.NotNil(t, inv.InviteeID)
		assert.Equal(t, stranger.UserID, *inv.InviteeID)

		u, _ := f.users.GetByID(ctx, stranger.UserID)
		assert.Equal(t, domain.RoleAdmin, u.Role)

		_, err = f.svc.Accept(ctx, stranger, token)
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("email must match", func(t *testing.T) {
		f := newInvitationFixture()
		_, token := create(t, f, owner, "")
		_, err := f.svc.Accept(ctx, owner, token)
		assert.ErrorIs(t, err, domain.ErrForbidden)
	})

	t.Run("expired invitation is marked", func(t *testing.T) {
		f := newInvitationFixture()
		inv, token := create(t, f, owner, "")
		f.invitations.byID[inv.ID].ExpiresAt = time.Now().Add(-time.Hour)

		_, err := f.svc.Accept(ctx, stranger, token)
		assert.ErrorIs(t, err, domain.ErrTokenExpired)
		assert.Equal(t, domain.InvitationExpired, f.invitations.byID[inv.ID].Status)
	})

	t.Run("unknown token", func(t *testing.T) {
		f := newInvitationFixture()
		_, err := f.svc.Accept(ctx, stranger, "bogus")
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})
}

func TestInvitationService_RevokeAndList(t *testing.T) {
	ctx := context.Background()
	f := newInvitationFixture()
	inv, err := f.svc.Create(ctx, owner, "guest@x.io", "", "")
	require.NoError(t, err)

	sent, total, err := f.svc.ListSent(ctx, owner, domain.PaginationParams{})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, inv.ID, sent[0].ID)

	received, total, err := f.svc.ListReceived(ctx, stranger, domain.PaginationParams{})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, inv.ID, received[0].ID)

	assert.ErrorIs(t, f.svc.Revoke(ctx, stranger, inv.ID), domain.ErrForbidden)
	require.NoError(t, f.svc.Revoke(ctx, owner, inv.ID))
	assert.ErrorIs(t, f.svc.Revoke(ctx, owner, inv.ID), domain.ErrInvalidInput)
	assert.ErrorIs(t, f.svc.Revoke(ctx, owner, "missing"), domain.ErrNotFound)

	_, err = f.svc.Create(ctx, owner, "guest@x.io", "", "")
	assert.NoError(t, err, "a revoked invite does not block a new one")
}
