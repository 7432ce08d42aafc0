package postgres

import (
	"context"
	"database/sql"
	"time"

	"eventhub/internal/domain"
)

type emailVerificationRepository struct {
	DB *sql.DB
}

// NewEmailVerificationRepository returns a domain.EmailVerificationRepository implemented with Postgres.
func NewEmailVerificationRepository(db *sql.DB) domain.EmailVerificationRepository {
	return &emailVerificationRepository{DB: db}
}

func (r *emailVerificationRepository) Create(ctx context.Context, v *domain.EmailVerification) error {
	query := `
		INSERT INTO email_verifications (user_id, email, token, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`
	err := r.DB.QueryRowContext(ctx, query, v.UserID, v.Email, v.Token, v.ExpiresAt, v.CreatedAt).Scan(&v.ID)
	return mapErr(err, domain.ErrConflict)
}

func (r *emailVerificationRepository) GetByToken(ctx context.Context, tokenHash string) (*domain.EmailVerification, error) {
	query := `
		SELECT id, user_id, email, token, expires_at, verified_at, created_at
		FROM email_verifications
		WHERE token = $1
	`
	v := &domain.EmailVerification{}
	err := r.DB.QueryRowContext(ctx, query, tokenHash).Scan(&v.ID, &v.UserID, &v.Email, &v.Token, &v.ExpiresAt, &v.VerifiedAt, &v.CreatedAt)
	if err != nil {
		return nil, mapErr(err, nil)
	}
	return v, nil
}

// MarkVerified only succeeds once per verification.
func (r *emailVerificationRepository) MarkVerified(ctx context.Context, id string, at time.Time) error {
	return execAffected(r.DB.ExecContext(ctx,
		`UPDATE email_verifications SET verified_at = $1 WHERE id = $2 AND verified_at IS NULL`, at, id))
}

func (r *emailVerificationRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM email_verifications WHERE expires_at <= $1 AND verified_at IS NULL`, now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
