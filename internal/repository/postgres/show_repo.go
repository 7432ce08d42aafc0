package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"eventhub/internal/domain"
)

const showColumns = `id, event_id, title, starts_at, ends_at, price, currency, seats_total, created_at, updated_at`

type showRepository struct {
	DB *sql.DB
}

// NewShowRepository returns a domain.ShowRepository implemented with Postgres.
func NewShowRepository(db *sql.DB) domain.ShowRepository {
	return &showRepository{DB: db}
}

func scanShow(s scanner) (*domain.Show, error) {
	sh := &domain.Show{}
	if err := s.Scan(&sh.ID, &sh.EventID, &sh.Title, &sh.StartsAt, &sh.EndsAt, &sh.Price, &sh.Currency, &sh.SeatsTotal, &sh.CreatedAt, &sh.UpdatedAt); err != nil {
		return nil, err
	}
	sh.Currency = strings.TrimSpace(sh.Currency)
	return sh, nil
}

func (r *showRepository) Create(ctx context.Context, s *domain.Show) error {
	query := `
		INSERT INTO shows (event_id, title, starts_at, ends_at, price, currency, seats_total, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`
	err := r.DB.QueryRowContext(ctx, query, s.EventID, s.Title, s.StartsAt, s.EndsAt, s.Price, s.Currency, s.SeatsTotal, s.CreatedAt, s.UpdatedAt).Scan(&s.ID)
	return mapErr(err, domain.ErrConflict)
}

func (r *showRepository) GetByID(ctx context.Context, id string) (*domain.Show, error) {
	s, err := scanShow(r.DB.QueryRowContext(ctx, `SELECT `+showColumns+` FROM shows WHERE id = $1`, id))
	if err != nil {
		return nil, mapErr(err, nil)
	}
	return s, nil
}

func (r *showRepository) ListByEventID(ctx context.Context, eventID string) ([]*domain.Show, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT `+showColumns+` FROM shows WHERE event_id = $1 ORDER BY starts_at, id`, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	shows := make([]*domain.Show, 0)
	for rows.Next() {
		s, err := scanShow(rows)
		if err != nil {
			return nil, err
		}
		shows = append(shows, s)
	}
	return shows, rows.Err()
}

func (r *showRepository) Update(ctx context.Context, id string, upd domain.ShowUpdate) (*domain.Show, error) {
	var args queryArgs
	setClauses := []string{"updated_at = NOW()"}
	if upd.Title != nil {
		setClauses = append(setClauses, "title = "+args.bind(*upd.Title))
	}
	if upd.StartsAt != nil {
		setClauses = append(setClauses, "starts_at = "+args.bind(*upd.StartsAt))
	}
	if upd.EndsAt != nil {
		setClauses = append(setClauses, "ends_at = "+args.bind(*upd.EndsAt))
	}
	if upd.Price != nil {
		setClauses = append(setClauses, "price = "+args.bind(*upd.Price))
	}
	if upd.Currency != nil {
		setClauses = append(setClauses, "currency = "+args.bind(*upd.Currency))
	}
	if upd.SeatsTotal != nil {
		setClauses = append(setClauses, "seats_total = "+args.bind(*upd.SeatsTotal))
	}
	query := fmt.Sprintf(`UPDATE shows SET %s WHERE id = %s RETURNING %s`, strings.Join(setClauses, ", "), args.bind(id), showColumns)
	s, err := scanShow(r.DB.QueryRowContext(ctx, query, args...))
	if err != nil {
		return nil, mapErr(err, nil)
	}
	return s, nil
}

func (r *showRepository) Delete(ctx context.Context, id string) error {
	return execAffected(r.DB.ExecContext(ctx, `DELETE FROM shows WHERE id = $1`, id))
}

// PriceSummary aggregates ticket prices for an event. Min, max and avg are
// zero when the event has no shows.
func (r *showRepository) PriceSummary(ctx context.Context, eventID string) (*domain.PriceSummary, error) {
	query := `
		SELECT COUNT(*), MIN(price), MAX(price), AVG(price), COALESCE(SUM(seats_total), 0)
		FROM shows WHERE event_id = $1
	`
	var (
		sum             domain.PriceSummary
		minP, maxP, avg decimal.NullDecimal
	)
	if err := r.DB.QueryRowContext(ctx, query, eventID).Scan(&sum.Count, &minP, &maxP, &avg, &sum.Seats); err != nil {
		return nil, err
	}
	sum.Min = minP.Decimal
	sum.Max = maxP.Decimal
	sum.Avg = avg.Decimal.Round(2)
	return &sum, nil
}
