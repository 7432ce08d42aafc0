package postgres

import (
	"context"
	"database/sql"
	"time"

	"eventhub/internal/domain"
)

const sessionColumns = `id, user_id, token, user_agent, ip_address, expires_at, created_at, last_seen_at`

type sessionRepository struct {
	DB *sql.DB
}

// NewSessionRepository returns a domain.SessionRepository implemented with Postgres.
func NewSessionRepository(db *sql.DB) domain.SessionRepository {
	return &sessionRepository{DB: db}
}

func scanSession(s scanner) (*domain.Session, error) {
	sess := &domain.Session{}
	if err := s.Scan(&sess.ID, &sess.UserID, &sess.Token, &sess.UserAgent, &sess.IPAddress, &sess.ExpiresAt, &sess.CreatedAt, &sess.LastSeenAt); err != nil {
		return nil, err
	}
	return sess, nil
}

func (r *sessionRepository) Create(ctx context.Context, s *domain.Session) error {
	query := `
		INSERT INTO sessions (user_id, token, user_agent, ip_address, expires_at, created_at, last_seen_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`
	err := r.DB.QueryRowContext(ctx, query, s.UserID, s.Token, s.UserAgent, s.IPAddress, s.ExpiresAt, s.CreatedAt, s.LastSeenAt).Scan(&s.ID)
	return mapErr(err, domain.ErrConflict)
}

func (r *sessionRepository) GetByID(ctx context.Context, id string) (*domain.Session, error) {
	s, err := scanSession(r.DB.QueryRowContext(ctx, `SELECT `+sessionColumns+` FROM sessions WHERE id = $1`, id))
	if err != nil {
		return nil, mapErr(err, nil)
	}
	return s, nil
}

// GetByToken only returns sessions that have not expired yet.
func (r *sessionRepository) GetByToken(ctx context.Context, tokenHash string) (*domain.Session, error) {
	s, err := scanSession(r.DB.QueryRowContext(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE token = $1 AND expires_at > NOW()`, tokenHash))
	if err != nil {
		return nil, mapErr(err, nil)
	}
	return s, nil
}

func (r *sessionRepository) ListByUserID(ctx context.Context, userID string) ([]*domain.Session, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE user_id = $1 AND expires_at > NOW() ORDER BY last_seen_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sessions := make([]*domain.Session, 0)
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

func (r *sessionRepository) Touch(ctx context.Context, id string, at time.Time) error {
	return execAffected(r.DB.ExecContext(ctx, `UPDATE sessions SET last_seen_at = $1 WHERE id = $2`, at, id))
}

func (r *sessionRepository) Delete(ctx context.Context, id string) error {
	return execAffected(r.DB.ExecContext(ctx, `DELETE FROM sessions WHERE id = $1`, id))
}

// DeleteByUserID revokes every session of the user except keepSessionID.
// An empty keepSessionID revokes them all.
func (r *sessionRepository) DeleteByUserID(ctx context.Context, userID, keepSessionID string) (int64, error) {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM sessions WHERE user_id = $1 AND id::text <> $2`, userID, keepSessionID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *sessionRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
