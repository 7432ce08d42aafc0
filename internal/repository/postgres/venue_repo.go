package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"eventhub/internal/domain"
)

const venueColumns = `id, name, address, city, country, capacity, latitude, longitude, created_at, updated_at`

type venueRepository struct {
	DB *sql.DB
}

// NewVenueRepository returns a domain.VenueRepository implemented with Postgres.
func NewVenueRepository(db *sql.DB) domain.VenueRepository {
	return &venueRepository{DB: db}
}

func scanVenue(s scanner) (*domain.Venue, error) {
	v := &domain.Venue{}
	if err := s.Scan(&v.ID, &v.Name, &v.Address, &v.City, &v.Country, &v.Capacity, &v.Latitude, &v.Longitude, &v.CreatedAt, &v.UpdatedAt); err != nil {
		return nil, err
	}
	return v, nil
}

func (r *venueRepository) Create(ctx context.Context, v *domain.Venue) error {
	query := `
		INSERT INTO venues (name, address, city, country, capacity, latitude, longitude, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`
	err := r.DB.QueryRowContext(ctx, query, v.Name, v.Address, v.City, v.Country, v.Capacity, v.Latitude, v.Longitude, v.CreatedAt, v.UpdatedAt).Scan(&v.ID)
	return mapErr(err, domain.ErrConflict)
}

func (r *venueRepository) GetByID(ctx context.Context, id string) (*domain.Venue, error) {
	v, err := scanVenue(r.DB.QueryRowContext(ctx, `SELECT `+venueColumns+` FROM venues WHERE id = $1`, id))
	if err != nil {
		return nil, mapErr(err, nil)
	}
	return v, nil
}

func (r *venueRepository) GetByName(ctx context.Context, name string) (*domain.Venue, error) {
	v, err := scanVenue(r.DB.QueryRowContext(ctx, `SELECT `+venueColumns+` FROM venues WHERE name = $1`, name))
	if err != nil {
		return nil, mapErr(err, nil)
	}
	return v, nil
}

func (r *venueRepository) List(ctx context.Context, f domain.VenueFilter, params domain.PaginationParams) ([]*domain.Venue, int, error) {
	var args queryArgs
	var where whereClause
	if f.Search != "" {
		p := args.bind(likePattern(f.Search))
		where = append(where, "(name ILIKE "+p+" OR address ILIKE "+p+")")
	}
	if f.City != "" {
		where = append(where, "LOWER(city) = LOWER("+args.bind(f.City)+")")
	}

	var total int
	if err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM venues`+where.String(), args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.DB.QueryContext(ctx, `SELECT `+venueColumns+` FROM venues`+where.String()+` ORDER BY name`+pageClause(&args, params), args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	venues := make([]*domain.Venue, 0)
	for rows.Next() {
		v, err := scanVenue(rows)
		if err != nil {
			return nil, 0, err
		}
		venues = append(venues, v)
	}
	return venues, total, rows.Err()
}

func (r *venueRepository) Update(ctx context.Context, id string, upd domain.VenueUpdate) (*domain.Venue, error) {
	var args queryArgs
	setClauses := []string{"updated_at = NOW()"}
	if upd.Name != nil {
		setClauses = append(setClauses, "name = "+args.bind(*upd.Name))
	}
	if upd.Address != nil {
		setClauses = append(setClauses, "address = "+args.bind(*upd.Address))
	}
	if upd.City != nil {
		setClauses = append(setClauses, "city = "+args.bind(*upd.City))
	}
	if upd.Country != nil {
		setClauses = append(setClauses, "country = "+args.bind(*upd.Country))
	}
	if upd.Capacity != nil {
		setClauses = append(setClauses, "capacity = "+args.bind(*upd.Capacity))
	}
	if upd.Latitude != nil {
		setClauses = append(setClauses, "latitude = "+args.bind(*upd.Latitude))
	}
	if upd.Longitude != nil {
		setClauses = append(setClauses, "longitude = "+args.bind(*upd.Longitude))
	}
	query := fmt.Sprintf(`UPDATE venues SET %s WHERE id = %s RETURNING %s`, strings.Join(setClauses, ", "), args.bind(id), venueColumns)
	v, err := scanVenue(r.DB.QueryRowContext(ctx, query, args...))
	if err != nil {
		return nil, mapErr(err, domain.ErrConflict)
	}
	return v, nil
}

func (r *venueRepository) Delete(ctx context.Context, id string) error {
	return execAffected(r.DB.ExecContext(ctx, `DELETE FROM venues WHERE id = $1`, id))
}

// CountEvents reports how many events reference the venue.
func (r *venueRepository) CountEvents(ctx context.Context, id string) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM events WHERE venue_id = $1`, id).Scan(&n)
	return n, err
}
