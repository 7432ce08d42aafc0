package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"eventhub/internal/domain"
)

type jwtClaims struct {
	jwt.RegisteredClaims
	SessionID string `json:"sid"`
	Email     string `json:"email"`
	Role      string `json:"role"`
}

// JWTManager signs and parses HS256 access tokens.
type JWTManager struct {
	secret []byte
	now    func() time.Time
}

var (
	_ domain.TokenIssuer = (*JWTManager)(nil)
	_ domain.TokenParser = (*JWTManager)(nil)
)

func NewJWTManager(secret string) *JWTManager {
	return &JWTManager{secret: []byte(secret), now: time.Now}
}

func (m *JWTManager) Issue(c domain.TokenClaims, expiry time.Duration) (string, error) {
	now := m.now()
	claims := jwtClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   c.UserID,
			ID:        c.TokenID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiry)),
		},
		SessionID: c.SessionID,
		Email:     c.Email,
		Role:      string(c.Role),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return tokenString, nil
}

// Parse validates signature and expiry. Expired tokens return
// domain.ErrTokenExpired, anything else that fails returns domain.ErrUnauthorized.
func (m *JWTManager) Parse(tokenString string) (*domain.TokenClaims, error) {
	claims := &jwtClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, domain.ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrUnauthorized, err)
	}
	if claims.Subject == "" || claims.SessionID == "" || claims.ID == "" {
		return nil, fmt.Errorf("%w: missing subject or session", domain.ErrUnauthorized)
	}
	return &domain.TokenClaims{
		UserID:    claims.Subject,
		SessionID: claims.SessionID,
		TokenID:   claims.ID,
		Email:     claims.Email,
		Role:      domain.UserRole(claims.Role),
	}, nil
}
