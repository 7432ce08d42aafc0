package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"eventhub/internal/domain"
)

const eventColumns = `id, owner_id, venue_id, category_id, title, slug, description, starts_at, ends_at, capacity, status, waitlist_enabled, created_at, updated_at`

type eventRepository struct {
	DB *sql.DB
}

func NewEventRepository(db *sql.DB) domain.EventRepository {
	return &eventRepository{
		DB: db,
	}
}

func scanEvent(s scanner) (*domain.Event, error) {
	e := &domain.Event{}
	err := s.Scan(
		&e.ID, &e.OwnerID, &e.VenueID, &e.CategoryID, &e.Title, &e.Slug, &e.Description,
		&e.StartsAt, &e.EndsAt, &e.Capacity, &e.Status, &e.WaitlistEnabled, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return e, nil
}

func (r *eventRepository) Create(ctx context.Context, e *domain.Event) error {
	query := `
		INSERT INTO events (owner_id, venue_id, category_id, title, slug, description, starts_at, ends_at, capacity, status, waitlist_enabled, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id
	`
	err := r.DB.QueryRowContext(ctx, query,
		e.OwnerID, e.VenueID, e.CategoryID, e.Title, e.Slug, e.Description,
		e.StartsAt, e.EndsAt, e.Capacity, e.Status, e.WaitlistEnabled, e.CreatedAt, e.UpdatedAt,
	).Scan(&e.ID)
	return mapErr(err, domain.ErrSlugTaken)
}

func (r *eventRepository) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	e, err := scanEvent(r.DB.QueryRowContext(ctx, `SELECT `+eventColumns+` FROM events WHERE id = $1`, id))
	if err != nil {
		return nil, mapErr(err, nil)
	}
	return e, nil
}

func (r *eventRepository) GetBySlug(ctx context.Context, slug string) (*domain.Event, error) {
	slug = strings.ToLower(strings.TrimSpace(slug))
	e, err := scanEvent(r.DB.QueryRowContext(ctx, `SELECT `+eventColumns+` FROM events WHERE slug = $1`, slug))
	if err != nil {
		return nil, mapErr(err, nil)
	}
	return e, nil
}

func (r *eventRepository) SlugExists(ctx context.Context, slug string) (bool, error) {
	var exists bool
	err := r.DB.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM events WHERE slug = $1)`, slug).Scan(&exists)
	return exists, err
}

var eventSortColumns = map[domain.EventSortField]string{
	domain.EventSortStartsAt:  "starts_at",
	domain.EventSortCreatedAt: "created_at",
	domain.EventSortTitle:     "title",
}

func eventWhere(args *queryArgs, f domain.EventFilter) whereClause {
	var where whereClause
	if f.OwnerID != "" {
		where = append(where, "owner_id = "+args.bind(f.OwnerID))
	}
	if f.VenueID != "" {
		where = append(where, "venue_id = "+args.bind(f.VenueID))
	}
	if f.CategoryID != "" {
		where = append(where, "category_id = "+args.bind(f.CategoryID))
	}
	if len(f.Statuses) > 0 {
		statuses := make([]string, len(f.Statuses))
		for i, s := range f.Statuses {
			statuses[i] = string(s)
		}
		where = append(where, "status = ANY("+args.bind(stringArray(statuses))+")")
	}
	if f.Search != "" {
		p := args.bind(likePattern(f.Search))
		where = append(where, "(title ILIKE "+p+" OR description ILIKE "+p+")")
	}
	if f.StartsAfter != nil {
		where = append(where, "starts_at >= "+args.bind(*f.StartsAfter))
	}
	if f.StartsBefore != nil {
		where = append(where, "starts_at < "+args.bind(*f.StartsBefore))
	}
	return where
}

func (r *eventRepository) List(ctx context.Context, f domain.EventFilter, params domain.PaginationParams) ([]*domain.Event, int, error) {
	var args queryArgs
	where := eventWhere(&args, f)

	var total int
	if err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM events`+where.String(), args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	col, ok := eventSortColumns[f.SortBy]
	if !ok {
		col = "starts_at"
	}
	dir := "ASC"
	if f.SortDir == domain.SortDesc {
		dir = "DESC"
	}
	query := fmt.Sprintf(`SELECT %s FROM events%s ORDER BY %s %s, id%s`, eventColumns, where.String(), col, dir, pageClause(&args, params))
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	events := make([]*domain.Event, 0)
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, 0, err
		}
		events = append(events, e)
	}
	return events, total, rows.Err()
}

func (r *eventRepository) Update(ctx context.Context, id string, upd domain.EventUpdate) (*domain.Event, error) {
	if upd.Empty() {
		// No fields to update; just fetch current row
		return r.GetByID(ctx, id)
	}
	var args queryArgs
	setClauses := []string{"updated_at = NOW()"}
	if upd.Title != nil {
		setClauses = append(setClauses, "title = "+args.bind(*upd.Title))
	}
	if upd.Description != nil {
		setClauses = append(setClauses, "description = "+args.bind(*upd.Description))
	}
	if upd.VenueID != nil {
		setClauses = append(setClauses, "venue_id = "+args.bind(nullIfEmpty(*upd.VenueID)))
	}
	if upd.CategoryID != nil {
		setClauses = append(setClauses, "category_id = "+args.bind(nullIfEmpty(*upd.CategoryID)))
	}
	if upd.StartsAt != nil {
		setClauses = append(setClauses, "starts_at = "+args.bind(*upd.StartsAt))
	}
	if upd.EndsAt != nil {
		setClauses = append(setClauses, "ends_at = "+args.bind(*upd.EndsAt))
	}
	if upd.Capacity != nil {
		setClauses = append(setClauses, "capacity = "+args.bind(*upd.Capacity))
	}
	if upd.WaitlistEnabled != nil {
		setClauses = append(setClauses, "waitlist_enabled = "+args.bind(*upd.WaitlistEnabled))
	}
	query := fmt.Sprintf(`
		UPDATE events SET %s
		WHERE id = %s
		RETURNING %s
	`, strings.Join(setClauses, ", "), args.bind(id), eventColumns)
	e, err := scanEvent(r.DB.QueryRowContext(ctx, query, args...))
	if err != nil {
		return nil, mapErr(err, domain.ErrSlugTaken)
	}
	return e, nil
}

func (r *eventRepository) SetStatus(ctx context.Context, id string, status domain.EventStatus) (*domain.Event, error) {
	query := `
		UPDATE events SET status = $1, updated_at = NOW()
		WHERE id = $2
		RETURNING ` + eventColumns
	e, err := scanEvent(r.DB.QueryRowContext(ctx, query, status, id))
	if err != nil {
		return nil, mapErr(err, nil)
	}
	return e, nil
}

func (r *eventRepository) Delete(ctx context.Context, id string) error {
	return execAffected(r.DB.ExecContext(ctx, `DELETE FROM events WHERE id = $1`, id))
}

func (r *eventRepository) CountByStatus(ctx context.Context, ownerID string) ([]domain.StatusCount, error) {
	var args queryArgs
	var where whereClause
	if ownerID != "" {
		where = append(where, "owner_id = "+args.bind(ownerID))
	}
	rows, err := r.DB.QueryContext(ctx, `SELECT status, COUNT(*) FROM events`+where.String()+` GROUP BY status ORDER BY status`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	counts := make([]domain.StatusCount, 0)
	for rows.Next() {
		var c domain.StatusCount
		if err := rows.Scan(&c.Status, &c.Count); err != nil {
			return nil, err
		}
		counts = append(counts, c)
	}
	return counts, rows.Err()
}

func (r *eventRepository) CountByCategory(ctx context.Context, ownerID string) ([]domain.CategoryCount, error) {
	var args queryArgs
	var where whereClause
	if ownerID != "" {
		where = append(where, "e.owner_id = "+args.bind(ownerID))
	}
	query := `
		SELECT e.category_id, COALESCE(c.name, ''), COUNT(*)
		FROM events e
		LEFT JOIN categories c ON c.id = e.category_id` + where.String() + `
		GROUP BY e.category_id, c.name
		ORDER BY COUNT(*) DESC, c.name`
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	counts := make([]domain.CategoryCount, 0)
	for rows.Next() {
		var c domain.CategoryCount
		if err := rows.Scan(&c.CategoryID, &c.CategoryName, &c.Count); err != nil {
			return nil, err
		}
		counts = append(counts, c)
	}
	return counts, rows.Err()
}
