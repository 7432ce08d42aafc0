package domain

import (
	"context"
	"time"
)

// Principal is the authenticated caller resolved from a bearer token.
type Principal struct {
	UserID    string
	SessionID string
	Role      UserRole
}

// IsAdmin reports whether the principal carries the admin role.
func (p Principal) IsAdmin() bool { return p.Role == RoleAdmin }

// PasswordHasher handles salt generation, hashing, and verification.
// Implementations may use bcrypt, argon2, etc.
type PasswordHasher interface {
	GenerateSalt() (string, error)
	Hash(salt, password string) (hash string, err error)
	Compare(hash, salt, password string) error
}

// TokenClaims are the values carried inside an access token.
// TokenID is the session secret whose SHA-256 is stored on the session row.
type TokenClaims struct {
	UserID    string
	SessionID string
	TokenID   string
	Email     string
	Role      UserRole
}

// TokenIssuer issues tokens (e.g. JWT) for an authenticated session.
type TokenIssuer interface {
	Issue(claims TokenClaims, expiry time.Duration) (string, error)
}

// TokenParser validates a token signature and expiry and returns its claims.
type TokenParser interface {
	Parse(token string) (*TokenClaims, error)
}

// TokenVerifier verifies a bearer token and returns the authenticated principal.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (Principal, error)
}

// LoginResult is returned by a successful login.
type LoginResult struct {
	Token     string    `json:"token"`
	TokenType string    `json:"token_type"`
	ExpiresAt time.Time `json:"expires_at"`
	User      *User     `json:"user"`
}

// SignUpInput carries the fields accepted on registration.
type SignUpInput struct {
	Email       string
	Password    string
	Name        string
	AcceptTerms bool
	IPAddress   string
}

// AuthService defines registration, login and email verification.
type AuthService interface {
	TokenVerifier
	SignUp(ctx context.Context, in SignUpInput) (*User, error)
	Login(ctx context.Context, email, password, userAgent, ipAddress string) (*LoginResult, error)
	Logout(ctx context.Context, sessionID string) error
	RequestEmailVerification(ctx context.Context, userID string) error
	VerifyEmail(ctx context.Context, token string) (*User, error)
}
