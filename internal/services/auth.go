package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"eventhub/internal/adapters/auth"
	"eventhub/internal/domain"
)

// AuthConfig carries token lifetimes and the link base for emails.
type AuthConfig struct {
	JWTExpiry  time.Duration
	SessionTTL time.Duration
	AppBaseURL string
}

type authService struct {
	users          domain.UserRepository
	sessions       domain.SessionRepository
	verifications  domain.EmailVerificationRepository
	hasher         domain.PasswordHasher
	issuer         domain.TokenIssuer
	parser         domain.TokenParser
	email          domain.EmailService
	audit          domain.AuditService
	verifier       *verificationIssuer
	cfg            AuthConfig
	logger         *slog.Logger
	contextTimeout time.Duration
}

// NewAuthService creates an AuthService. issuer and parser are usually the same JWT manager.
func NewAuthService(
	users domain.UserRepository,
	sessions domain.SessionRepository,
	verifications domain.EmailVerificationRepository,
	hasher domain.PasswordHasher,
	issuer domain.TokenIssuer,
	parser domain.TokenParser,
	email domain.EmailService,
	audit domain.AuditService,
	cfg AuthConfig,
	logger *slog.Logger,
	timeout time.Duration,
) domain.AuthService {
	return &authService{
		users:          users,
		sessions:       sessions,
		verifications:  verifications,
		hasher:         hasher,
		issuer:         issuer,
		parser:         parser,
		email:          email,
		audit:          audit,
		verifier:       &verificationIssuer{repo: verifications, email: email, appBaseURL: cfg.AppBaseURL},
		cfg:            cfg,
		logger:         logger.With("component", "auth"),
		contextTimeout: timeout,
	}
}

func (s *authService) SignUp(ctx context.Context, in domain.SignUpInput) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	email, err := validEmail(in.Email)
	if err != nil {
		return nil, err
	}
	if len(in.Password) < minPasswordLen {
		return nil, domain.Invalid(fmt.Sprintf("password must be at least %d characters", minPasswordLen))
	}
	if !in.AcceptTerms {
		return nil, domain.Invalid("terms of service must be accepted")
	}

	salt, err := s.hasher.GenerateSalt()
	if err != nil {
		return nil, err
	}
	hash, err := s.hasher.Hash(salt, in.Password)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	user := domain.NewUser(email, strings.TrimSpace(in.Name), hash, salt, domain.RoleUser, now, now)
	var consents []*domain.Consent
	for _, t := range []domain.ConsentType{domain.ConsentTerms, domain.ConsentPrivacy} {
		consents = append(consents, &domain.Consent{
			Type:      t,
			Granted:   true,
			Version:   currentPolicyVersion,
			IPAddress: in.IPAddress,
			CreatedAt: now,
			UpdatedAt: now,
		})
	}
	if err := s.users.CreateWithConsents(ctx, user, consents); err != nil {
		if errors.Is(err, domain.ErrDuplicateEmail) {
			return nil, domain.ErrDuplicateEmail
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	if err := s.verifier.issue(ctx, user); err != nil {
		s.logger.Error("send verification email", "user_id", user.ID, "error", err)
	}
	if err := s.email.SendWelcome(ctx, &domain.WelcomeEmailData{Email: user.Email, Name: user.Name}); err != nil {
		s.logger.Error("send welcome email", "user_id", user.ID, "error", err)
	}
	s.audit.Record(ctx, &user.ID, domain.AuditUserSignup, "user", user.ID, nil)

	return user, nil
}

func (s *authService) Login(ctx context.Context, email, password, userAgent, ipAddress string) (*domain.LoginResult, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	user, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	if err := s.hasher.Compare(user.PasswordHash, user.Salt, password); err != nil {
		return nil, domain.ErrInvalidCredentials
	}

	secret, err := auth.NewOpaqueToken()
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	session := domain.NewSession(user.ID, auth.HashToken(secret), userAgent, ipAddress, now.Add(s.cfg.SessionTTL), now)
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	expiry := s.cfg.JWTExpiry
	if s.cfg.SessionTTL < expiry {
		expiry = s.cfg.SessionTTL
	}
	token, err := s.issuer.Issue(domain.TokenClaims{
		UserID:    user.ID,
		SessionID: session.ID,
		TokenID:   secret,
		Email:     user.Email,
		Role:      user.Role,
	}, expiry)
	if err != nil {
		return nil, err
	}
	s.audit.Record(ctx, &user.ID, domain.AuditUserLogin, "session", session.ID, map[string]any{"user_agent": userAgent})

	return &domain.LoginResult{
		Token:     token,
		TokenType: "Bearer",
		ExpiresAt: now.Add(expiry),
		User:      user,
	}, nil
}

func (s *authService) Logout(ctx context.Context, sessionID string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if err := s.sessions.Delete(ctx, sessionID); err != nil && !errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// Verify checks the bearer token and the session behind it. The role comes
// from the current user row so role changes apply without a new login.
func (s *authService) Verify(ctx context.Context, token string) (domain.Principal, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	claims, err := s.parser.Parse(token)
	if err != nil {
		return domain.Principal{}, err
	}
	session, err := s.sessions.GetByToken(ctx, auth.HashToken(claims.TokenID))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Principal{}, domain.ErrUnauthorized
		}
		return domain.Principal{}, fmt.Errorf("get session: %w", err)
	}
	now := time.Now()
	if session.ID != claims.SessionID || session.UserID != claims.UserID || session.Expired(now) {
		return domain.Principal{}, domain.ErrUnauthorized
	}
	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Principal{}, domain.ErrUnauthorized
		}
		return domain.Principal{}, fmt.Errorf("get user: %w", err)
	}
	if now.Sub(session.LastSeenAt) > time.Minute {
		if err := s.sessions.Touch(ctx, session.ID, now.UTC()); err != nil {
			s.logger.Warn("touch session", "session_id", session.ID, "error", err)
		}
	}
	return domain.Principal{UserID: user.ID, SessionID: session.ID, Role: user.Role}, nil
}

func (s *authService) RequestEmailVerification(ctx context.Context, userID string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if user.EmailVerifiedAt != nil {
		return domain.Invalid("email is already verified")
	}
	return s.verifier.issue(ctx, user)
}

func (s *authService) VerifyEmail(ctx context.Context, token string) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if token == "" {
		return nil, domain.Invalid("token is required")
	}
	v, err := s.verifications.GetByToken(ctx, auth.HashToken(token))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.Invalid("invalid verification token")
		}
		return nil, fmt.Errorf("get verification: %w", err)
	}
	if v.VerifiedAt != nil {
		return nil, domain.Invalid("verification token already used")
	}
	now := time.Now().UTC()
	if !v.ExpiresAt.After(now) {
		return nil, domain.ErrTokenExpired
	}
	if v.UserID == nil {
		return nil, domain.Invalid("invalid verification token")
	}
	user, err := s.users.GetByID(ctx, *v.UserID)
	if err != nil {
		return nil, err
	}
	if user.Email != v.Email {
		// The address changed after this link was sent.
		return nil, domain.Invalid("verification token no longer matches the account email")
	}

	if err := s.verifications.MarkVerified(ctx, v.ID, now); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.Invalid("verification token already used")
		}
		return nil, fmt.Errorf("mark verified: %w", err)
	}
	if err := s.users.SetEmailVerified(ctx, user.ID, &now); err != nil {
		return nil, fmt.Errorf("set email verified: %w", err)
	}
	user.EmailVerifiedAt = &now
	s.audit.Record(ctx, &user.ID, domain.AuditEmailVerified, "user", user.ID, map[string]any{"email": user.Email})
	return user, nil
}
