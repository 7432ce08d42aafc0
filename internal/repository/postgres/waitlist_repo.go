package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"eventhub/internal/domain"
)

const waitlistColumns = `id, event_id, user_id, email, name, position, status, notified_at, created_at, updated_at`

type waitlistRepository struct {
	DB *sql.DB
}

// NewWaitlistRepository returns a domain.WaitlistRepository implemented with Postgres.
func NewWaitlistRepository(db *sql.DB) domain.WaitlistRepository {
	return &waitlistRepository{DB: db}
}

func scanWaitlistEntry(s scanner) (*domain.WaitlistEntry, error) {
	e := &domain.WaitlistEntry{}
	if err := s.Scan(&e.ID, &e.EventID, &e.UserID, &e.Email, &e.Name, &e.Position, &e.Status, &e.NotifiedAt, &e.CreatedAt, &e.UpdatedAt); err != nil {
		return nil, err
	}
	return e, nil
}

func collectWaitlist(rows *sql.Rows) ([]*domain.WaitlistEntry, error) {
	defer rows.Close()
	entries := make([]*domain.WaitlistEntry, 0)
	for rows.Next() {
		e, err := scanWaitlistEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

const waitlistEmailKey = "waitlist_entries_email_event_id_key"

// Create appends the entry to the end of the event's queue. Inserts for the
// same event are serialised by a transaction-scoped advisory lock so that two
// joins never compute the same position.
func (r *waitlistRepository) Create(ctx context.Context, e *domain.WaitlistEntry) error {
	query := `
		INSERT INTO waitlist_entries (event_id, user_id, email, name, position, status, created_at, updated_at)
		SELECT $1, $2, $3, $4, COALESCE(MAX(position), 0) + 1, $5, $6, $7
		FROM waitlist_entries WHERE event_id = $1
		RETURNING id, position
	`
	err := withTx(ctx, r.DB, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, e.EventID); err != nil {
			return err
		}
		return tx.QueryRowContext(ctx, query, e.EventID, e.UserID, e.Email, e.Name, e.Status, e.CreatedAt, e.UpdatedAt).Scan(&e.ID, &e.Position)
	})
	if isUniqueViolation(err) && violatedConstraint(err) != waitlistEmailKey {
		return fmt.Errorf("allocate waitlist position: %w", err)
	}
	return mapErr(err, domain.ErrAlreadyOnWaitlist)
}

func (r *waitlistRepository) GetByID(ctx context.Context, id string) (*domain.WaitlistEntry, error) {
	e, err := scanWaitlistEntry(r.DB.QueryRowContext(ctx, `SELECT `+waitlistColumns+` FROM waitlist_entries WHERE id = $1`, id))
	if err != nil {
		return nil, mapErr(err, nil)
	}
	return e, nil
}

func (r *waitlistRepository) GetByEventAndEmail(ctx context.Context, eventID, email string) (*domain.WaitlistEntry, error) {
	e, err := scanWaitlistEntry(r.DB.QueryRowContext(ctx,
		`SELECT `+waitlistColumns+` FROM waitlist_entries WHERE event_id = $1 AND email = $2`, eventID, email))
	if err != nil {
		return nil, mapErr(err, nil)
	}
	return e, nil
}

func (r *waitlistRepository) ListByEventID(ctx context.Context, eventID string, status domain.WaitlistStatus, params domain.PaginationParams) ([]*domain.WaitlistEntry, int, error) {
	var args queryArgs
	where := whereClause{"event_id = " + args.bind(eventID)}
	if status != "" {
		where = append(where, "status = "+args.bind(status))
	}

	var total int
	if err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM waitlist_entries`+where.String(), args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.DB.QueryContext(ctx, `SELECT `+waitlistColumns+` FROM waitlist_entries`+where.String()+` ORDER BY position`+pageClause(&args, params), args...)
	if err != nil {
		return nil, 0, err
	}
	entries, err := collectWaitlist(rows)
	if err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}

func (r *waitlistRepository) ListByUserID(ctx context.Context, userID string) ([]*domain.WaitlistEntry, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT `+waitlistColumns+` FROM waitlist_entries WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	return collectWaitlist(rows)
}

func (r *waitlistRepository) CountByEventID(ctx context.Context, eventID string, status domain.WaitlistStatus) (int, error) {
	var args queryArgs
	where := whereClause{"event_id = " + args.bind(eventID)}
	if status != "" {
		where = append(where, "status = "+args.bind(status))
	}
	var n int
	err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM waitlist_entries`+where.String(), args...).Scan(&n)
	return n, err
}

func (r *waitlistRepository) NextWaiting(ctx context.Context, eventID string, n int) ([]*domain.WaitlistEntry, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT `+waitlistColumns+` FROM waitlist_entries WHERE event_id = $1 AND status = $2 ORDER BY position LIMIT $3`,
		eventID, domain.WaitlistWaiting, n)
	if err != nil {
		return nil, err
	}
	return collectWaitlist(rows)
}

func (r *waitlistRepository) MarkNotified(ctx context.Context, ids []string, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := r.DB.ExecContext(ctx,
		`UPDATE waitlist_entries SET status = $1, notified_at = $2, updated_at = $2 WHERE id = ANY($3)`,
		domain.WaitlistNotified, at, stringArray(ids))
	return err
}

func (r *waitlistRepository) UpdateStatus(ctx context.Context, id string, status domain.WaitlistStatus) (*domain.WaitlistEntry, error) {
	e, err := scanWaitlistEntry(r.DB.QueryRowContext(ctx,
		`UPDATE waitlist_entries SET status = $1, updated_at = NOW() WHERE id = $2 RETURNING `+waitlistColumns, status, id))
	if err != nil {
		return nil, mapErr(err, nil)
	}
	return e, nil
}

func (r *waitlistRepository) Requeue(ctx context.Context, eventID, id string) (*domain.WaitlistEntry, error) {
	query := `
		UPDATE waitlist_entries
		SET status = $3, notified_at = NULL, updated_at = NOW(),
		    position = (SELECT COALESCE(MAX(position), 0) + 1 FROM waitlist_entries WHERE event_id = $1)
		WHERE id = $2 AND event_id = $1
		RETURNING ` + waitlistColumns
	var e *domain.WaitlistEntry
	err := withTx(ctx, r.DB, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, eventID); err != nil {
			return err
		}
		var err error
		e, err = scanWaitlistEntry(tx.QueryRowContext(ctx, query, eventID, id, domain.WaitlistWaiting))
		return err
	})
	if err != nil {
		return nil, mapErr(err, nil)
	}
	return e, nil
}
