package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"eventhub/internal/domain"
)

const userColumns = `id, email, name, password_hash, salt, role, email_verified_at, created_at, updated_at`

type userRepository struct {
	DB *sql.DB
}

// NewUserRepository returns a domain.UserRepository implemented with Postgres.
func NewUserRepository(db *sql.DB) domain.UserRepository {
	return &userRepository{DB: db}
}

func scanUser(s scanner) (*domain.User, error) {
	u := &domain.User{}
	err := s.Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.Salt, &u.Role, &u.EmailVerifiedAt, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return u, nil
}

// userErr is mapErr with user specific sentinels.
func userErr(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrUserNotFound
	}
	return mapErr(err, domain.ErrDuplicateEmail)
}

const insertUserQuery = `
	INSERT INTO users (email, name, password_hash, salt, role, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
	RETURNING id
`

func insertUser(ctx context.Context, q rowQuerier, u *domain.User) error {
	err := q.QueryRowContext(ctx, insertUserQuery, u.Email, u.Name, u.PasswordHash, u.Salt, u.Role, u.CreatedAt, u.UpdatedAt).Scan(&u.ID)
	return mapErr(err, domain.ErrDuplicateEmail)
}

// CreateWithConsents inserts the user and its consents in one transaction.
// Each consent's UserID is set to the new user's ID.
func (r *userRepository) CreateWithConsents(ctx context.Context, u *domain.User, consents []*domain.Consent) error {
	return withTx(ctx, r.DB, func(tx *sql.Tx) error {
		if err := insertUser(ctx, tx, u); err != nil {
			return err
		}
		for _, c := range consents {
			c.UserID = u.ID
			if err := upsertConsent(ctx, tx, c); err != nil {
				return fmt.Errorf("record %s consent: %w", c.Type, err)
			}
		}
		return nil
	})
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	u, err := scanUser(r.DB.QueryRowContext(ctx, query, email))
	if err != nil {
		return nil, userErr(err)
	}
	return u, nil
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	u, err := scanUser(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, userErr(err)
	}
	return u, nil
}

func (r *userRepository) Update(ctx context.Context, u *domain.User) error {
	query := `
		UPDATE users
		SET name = $1, email = $2, email_verified_at = $3, updated_at = $4
		WHERE id = $5
	`
	res, err := r.DB.ExecContext(ctx, query, u.Name, u.Email, u.EmailVerifiedAt, u.UpdatedAt, u.ID)
	if err != nil {
		return userErr(err)
	}
	rows, _ := res.RowsAffected()
	if rows == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (r *userRepository) UpdatePassword(ctx context.Context, userID, passwordHash, salt string) error {
	query := `UPDATE users SET password_hash = $1, salt = $2, updated_at = NOW() WHERE id = $3`
	return execAffected(r.DB.ExecContext(ctx, query, passwordHash, salt, userID))
}

func (r *userRepository) SetEmailVerified(ctx context.Context, userID string, at *time.Time) error {
	query := `UPDATE users SET email_verified_at = $1, updated_at = NOW() WHERE id = $2`
	return execAffected(r.DB.ExecContext(ctx, query, at, userID))
}

func (r *userRepository) SetRole(ctx context.Context, userID string, role domain.UserRole) error {
	query := `UPDATE users SET role = $1, updated_at = NOW() WHERE id = $2`
	return execAffected(r.DB.ExecContext(ctx, query, role, userID))
}

func (r *userRepository) Delete(ctx context.Context, id string) error {
	return execAffected(r.DB.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id))
}

func (r *userRepository) List(ctx context.Context, filter domain.UserFilter, params domain.PaginationParams) ([]*domain.User, int, error) {
	var args queryArgs
	var where whereClause
	if filter.Search != "" {
		p := args.bind(likePattern(filter.Search))
		where = append(where, "(email ILIKE "+p+" OR name ILIKE "+p+")")
	}
	if filter.Role != "" {
		where = append(where, "role = "+args.bind(filter.Role))
	}

	var total int
	if err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`+where.String(), args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + userColumns + ` FROM users` + where.String() + ` ORDER BY created_at DESC` + pageClause(&args, params)
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	users := make([]*domain.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		users = append(users, u)
	}
	return users, total, rows.Err()
}
