package postgres

import (
	"context"
	"database/sql"

	"eventhub/internal/domain"
)

const consentColumns = `id, user_id, type, granted, version, ip_address, created_at, updated_at`

type consentRepository struct {
	DB *sql.DB
}

// NewConsentRepository returns a domain.ConsentRepository implemented with Postgres.
func NewConsentRepository(db *sql.DB) domain.ConsentRepository {
	return &consentRepository{DB: db}
}

func scanConsent(s scanner) (*domain.Consent, error) {
	c := &domain.Consent{}
	if err := s.Scan(&c.ID, &c.UserID, &c.Type, &c.Granted, &c.Version, &c.IPAddress, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	return c, nil
}

const upsertConsentQuery = `
	INSERT INTO consents (user_id, type, granted, version, ip_address, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
	ON CONFLICT (user_id, type) DO UPDATE
	SET granted = EXCLUDED.granted,
	    version = EXCLUDED.version,
	    ip_address = EXCLUDED.ip_address,
	    updated_at = EXCLUDED.updated_at
	RETURNING id, created_at
`

func upsertConsent(ctx context.Context, q rowQuerier, c *domain.Consent) error {
	err := q.QueryRowContext(ctx, upsertConsentQuery, c.UserID, c.Type, c.Granted, c.Version, c.IPAddress, c.CreatedAt, c.UpdatedAt).Scan(&c.ID, &c.CreatedAt)
	return mapErr(err, nil)
}

// Upsert inserts or replaces the user's decision for c.Type. created_at is kept
// from the first decision.
func (r *consentRepository) Upsert(ctx context.Context, c *domain.Consent) error {
	return upsertConsent(ctx, r.DB, c)
}

func (r *consentRepository) Get(ctx context.Context, userID string, t domain.ConsentType) (*domain.Consent, error) {
	c, err := scanConsent(r.DB.QueryRowContext(ctx,
		`SELECT `+consentColumns+` FROM consents WHERE user_id = $1 AND type = $2`, userID, t))
	if err != nil {
		return nil, mapErr(err, nil)
	}
	return c, nil
}

func (r *consentRepository) ListByUserID(ctx context.Context, userID string) ([]*domain.Consent, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT `+consentColumns+` FROM consents WHERE user_id = $1 ORDER BY type`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	consents := make([]*domain.Consent, 0)
	for rows.Next() {
		c, err := scanConsent(rows)
		if err != nil {
			return nil, err
		}
		consents = append(consents, c)
	}
	return consents, rows.Err()
}
