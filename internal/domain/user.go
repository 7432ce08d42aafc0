package domain

import (
	"context"
	"fmt"
	"time"
)

// Sentinel errors for user operations.
var (
	ErrUserNotFound   = fmt.Errorf("user %w", ErrNotFound)
	ErrDuplicateEmail = fmt.Errorf("email already in use: %w", ErrConflict)
)

// UserRole is the application-wide role of a user.
type UserRole string

const (
	RoleUser  UserRole = "user"
	RoleAdmin UserRole = "admin"
)

// Valid reports whether r is a known role.
func (r UserRole) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// User represents a registered user
// swagger:model User
type User struct {
	ID              string     `json:"id"`
	Email           string     `json:"email"`
	Name            string     `json:"name"`
	PasswordHash    string     `json:"-"`
	Salt            string     `json:"-"`
	Role            UserRole   `json:"role"`
	EmailVerifiedAt *time.Time `json:"email_verified_at"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// NewUser returns a new User with the given fields. ID is typically set by the repository on create.
func NewUser(email, name, passwordHash, salt string, role UserRole, createdAt, updatedAt time.Time) *User {
	return &User{
		Email:        email,
		Name:         name,
		PasswordHash: passwordHash,
		Salt:         salt,
		Role:         role,
		CreatedAt:    createdAt,
		UpdatedAt:    updatedAt,
	}
}

// IsAdmin reports whether the user has the admin role.
func (u *User) IsAdmin() bool { return u.Role == RoleAdmin }

// UserFilter narrows user listings.
type UserFilter struct {
	Search string
	Role   UserRole
}

// UserRepository defines the interface for user storage
type UserRepository interface {
	CreateWithConsents(ctx context.Context, user *User, consents []*Consent) error
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByID(ctx context.Context, id string) (*User, error)
	Update(ctx context.Context, user *User) error
	UpdatePassword(ctx context.Context, userID, passwordHash, salt string) error
	SetEmailVerified(ctx context.Context, userID string, at *time.Time) error
	SetRole(ctx context.Context, userID string, role UserRole) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter UserFilter, params PaginationParams) ([]*User, int, error)
}

// UserService defines the business logic for user profiles.
type UserService interface {
	GetByID(ctx context.Context, id string) (*User, error)
	Update(ctx context.Context, userID string, name, email *string) (*User, error)
	ChangePassword(ctx context.Context, caller Principal, oldPassword, newPassword string) error
	Delete(ctx context.Context, userID string) error
	ListSessions(ctx context.Context, userID string) ([]*Session, error)
	RevokeSession(ctx context.Context, userID, sessionID string) error
	List(ctx context.Context, caller Principal, filter UserFilter, params PaginationParams) ([]*User, int, error)
}
