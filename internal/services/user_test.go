package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventhub/internal/domain"
)

func newTestUserService() (domain.UserService, *fakeUserRepo, *fakeSessionRepo, *fakeEmailService) {
	users := newFakeUserRepo()
	sessions := newFakeSessionRepo()
	email := &fakeEmailService{}
	svc := NewUserService(users, sessions, &fakeVerificationRepo{}, fakePasswordHasher{}, email, &fakeAudit{},
		"https://app.test", discardLogger(), testTimeout)
	return svc, users, sessions, email
}

func TestUserService_Update(t *testing.T) {
	ctx := context.Background()
	svc, users, _, email := newTestUserService()
	verified := time.Now()
	u := users.add(&domain.User{Email: "a@b.io", Name: "Ada", EmailVerifiedAt: &verified})
	users.add(&domain.User{Email: "taken@b.io"})

	t.Run("name only keeps verification", func(t *testing.T) {
		got, err := svc.Update(ctx, u.ID, ptr("  Ada L "), nil)
		require.NoError(t, err)
		assert.Equal(t, "Ada L", got.Name)
		assert.NotNil(t, got.EmailVerifiedAt)
		assert.Empty(t, email.verifications)
	})

	t.Run("empty name", func(t *testing.T) {
		_, err := svc.Update(ctx, u.ID, ptr(" "), nil)
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("duplicate email", func(t *testing.T) {
		_, err := svc.Update(ctx, u.ID, nil, ptr("TAKEN@b.io"))
		assert.ErrorIs(t, err, domain.ErrDuplicateEmail)
	})

	t.Run("email change clears verification and resends", func(t *testing.T) {
		got, err := svc.Update(ctx, u.ID, nil, ptr("New@B.io"))
		require.NoError(t, err)
		assert.Equal(t, "new@b.io", got.Email)
		assert.Nil(t, got.EmailVerifiedAt)
		require.Len(t, email.verifications, 1)
		assert.Equal(t, "new@b.io", email.verifications[0].Email)
	})

	t.Run("unknown user", func(t *testing.T) {
		_, err := svc.Update(ctx, "missing", ptr("x"), nil)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestUserService_ChangePassword(t *testing.T) {
	ctx := context.Background()
	svc, users, sessions, _ := newTestUserService()
	u := users.add(&domain.User{Email: "a@b.io", PasswordHash: "hash:salt:password1", Salt: "salt"})
	other := users.add(&domain.User{Email: "b@b.io"})
	now := time.Now()
	current := domain.NewSession(u.ID, "h1", "ua", "ip", now.Add(time.Hour), now)
	stolen := domain.NewSession(u.ID, "h2", "ua", "ip", now.Add(time.Hour), now)
	unrelated := domain.NewSession(other.ID, "h3", "ua", "ip", now.Add(time.Hour), now)
	for _, s := range []*domain.Session{current, stolen, unrelated} {
		require.NoError(t, sessions.Create(ctx, s))
	}
	caller := domain.Principal{UserID: u.ID, SessionID: current.ID, Role: domain.RoleUser}

	assert.ErrorIs(t, svc.ChangePassword(ctx, caller, "password1", "short"), domain.ErrInvalidInput)
	assert.ErrorIs(t, svc.ChangePassword(ctx, caller, "wrong-old", "password2"), domain.ErrInvalidCredentials)
	require.Len(t, sessions.byID, 3, "failed attempts revoke nothing")

	require.NoError(t, svc.ChangePassword(ctx, caller, "password1", "password2"))
	stored, _ := users.GetByID(ctx, u.ID)
	assert.Equal(t, "hash:salt:password2", stored.PasswordHash)

	_, err := sessions.GetByID(ctx, current.ID)
	assert.NoError(t, err, "current session survives")
	_, err = sessions.GetByID(ctx, stolen.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = sessions.GetByID(ctx, unrelated.ID)
	assert.NoError(t, err)
}

func TestUserService_Sessions(t *testing.T) {
	ctx := context.Background()
	svc, users, sessions, _ := newTestUserService()
	u := users.add(&domain.User{Email: "a@b.io"})
	other := users.add(&domain.User{Email: "b@b.io"})
	now := time.Now()
	mine := domain.NewSession(u.ID, "h1", "ua", "ip", now.Add(time.Hour), now)
	theirs := domain.NewSession(other.ID, "h2", "ua", "ip", now.Add(time.Hour), now)
	require.NoError(t, sessions.Create(ctx, mine))
	require.NoError(t, sessions.Create(ctx, theirs))

	list, err := svc.ListSessions(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, mine.ID, list[0].ID)

	assert.ErrorIs(t, svc.RevokeSession(ctx, u.ID, theirs.ID), domain.ErrNotFound)
	require.NoError(t, svc.RevokeSession(ctx, u.ID, mine.ID))
	_, err = sessions.GetByID(ctx, mine.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUserService_DeleteAndList(t *testing.T) {
	ctx := context.Background()
	svc, users, _, _ := newTestUserService()
	u := users.add(&domain.User{Email: "a@b.io"})
	users.add(&domain.User{Email: "root@b.io", Role: domain.RoleAdmin})

	_, _, err := svc.List(ctx, domain.Principal{UserID: u.ID, Role: domain.RoleUser}, domain.UserFilter{}, domain.PaginationParams{})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	admin := domain.Principal{UserID: "admin", Role: domain.RoleAdmin}
	_, _, err = svc.List(ctx, admin, domain.UserFilter{Role: "owner"}, domain.PaginationParams{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	list, total, err := svc.List(ctx, admin, domain.UserFilter{Role: domain.RoleAdmin}, domain.PaginationParams{})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, "root@b.io", list[0].Email)

	require.NoError(t, svc.Delete(ctx, u.ID))
	assert.ErrorIs(t, svc.Delete(ctx, u.ID), domain.ErrUserNotFound)
}
