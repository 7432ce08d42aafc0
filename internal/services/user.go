package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"eventhub/internal/domain"
)

type userService struct {
	users          domain.UserRepository
	sessions       domain.SessionRepository
	hasher         domain.PasswordHasher
	audit          domain.AuditService
	verifier       *verificationIssuer
	logger         *slog.Logger
	contextTimeout time.Duration
}

// NewUserService creates a UserService.
func NewUserService(
	users domain.UserRepository,
	sessions domain.SessionRepository,
	verifications domain.EmailVerificationRepository,
	hasher domain.PasswordHasher,
	email domain.EmailService,
	audit domain.AuditService,
	appBaseURL string,
	logger *slog.Logger,
	timeout time.Duration,
) domain.UserService {
	return &userService{
		users:          users,
		sessions:       sessions,
		hasher:         hasher,
		audit:          audit,
		verifier:       &verificationIssuer{repo: verifications, email: email, appBaseURL: appBaseURL},
		logger:         logger.With("component", "users"),
		contextTimeout: timeout,
	}
}

func (s *userService) GetByID(ctx context.Context, id string) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	return s.users.GetByID(ctx, id)
}

// Update changes name and/or email. A new email drops the verified flag and
// sends a fresh verification link.
func (s *userService) Update(ctx context.Context, userID string, name, email *string) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	changed := map[string]any{}
	if name != nil {
		n := strings.TrimSpace(*name)
		if n == "" {
			return nil, domain.Invalid("name cannot be empty")
		}
		if n != user.Name {
			user.Name = n
			changed["name"] = n
		}
	}
	emailChanged := false
	if email != nil {
		e, err := validEmail(*email)
		if err != nil {
			return nil, err
		}
		if e != user.Email {
			user.Email = e
			user.EmailVerifiedAt = nil
			emailChanged = true
			changed["email"] = e
		}
	}
	if len(changed) == 0 {
		return user, nil
	}

	user.UpdatedAt = time.Now().UTC()
	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	if emailChanged {
		if err := s.verifier.issue(ctx, user); err != nil {
			s.logger.Error("send verification email", "user_id", user.ID, "error", err)
		}
	}
	s.audit.Record(ctx, &user.ID, domain.AuditUserUpdate, "user", user.ID, changed)
	return user, nil
}

// ChangePassword also signs out every other session of the user.
func (s *userService) ChangePassword(ctx context.Context, caller domain.Principal, oldPassword, newPassword string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	userID := caller.UserID
	if len(newPassword) < minPasswordLen {
		return domain.Invalid(fmt.Sprintf("password must be at least %d characters", minPasswordLen))
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if err := s.hasher.Compare(user.PasswordHash, user.Salt, oldPassword); err != nil {
		return domain.ErrInvalidCredentials
	}
	salt, err := s.hasher.GenerateSalt()
	if err != nil {
		return err
	}
	hash, err := s.hasher.Hash(salt, newPassword)
	if err != nil {
		return err
	}
	if err := s.users.UpdatePassword(ctx, userID, hash, salt); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	revoked, err := s.sessions.DeleteByUserID(ctx, userID, caller.SessionID)
	if err != nil {
		return fmt.Errorf("revoke sessions: %w", err)
	}
	s.audit.Record(ctx, &userID, domain.AuditUserUpdate, "user", userID, map[string]any{"password": "changed", "sessions_revoked": revoked})
	return nil
}

// Delete removes the account; sessions, consents and owned events go with it.
func (s *userService) Delete(ctx context.Context, userID string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if err := s.users.Delete(ctx, userID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrUserNotFound
		}
		return fmt.Errorf("delete user: %w", err)
	}
	s.audit.Record(ctx, nil, domain.AuditUserDelete, "user", userID, nil)
	return nil
}

func (s *userService) ListSessions(ctx context.Context, userID string) ([]*domain.Session, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	return s.sessions.ListByUserID(ctx, userID)
}

func (s *userService) RevokeSession(ctx context.Context, userID, sessionID string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	sess, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return err
	}
	if sess.UserID != userID {
		return domain.ErrNotFound
	}
	return s.sessions.Delete(ctx, sessionID)
}

func (s *userService) List(ctx context.Context, caller domain.Principal, filter domain.UserFilter, params domain.PaginationParams) ([]*domain.User, int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if !caller.IsAdmin() {
		return nil, 0, domain.ErrForbidden
	}
	if filter.Role != "" && !filter.Role.Valid() {
		return nil, 0, domain.Invalid("unknown role")
	}
	return s.users.List(ctx, filter, params)
}
