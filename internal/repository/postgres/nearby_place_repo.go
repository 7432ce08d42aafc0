package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"eventhub/internal/domain"
)

const nearbyPlaceColumns = `id, event_id, name, kind, address, latitude, longitude, distance_meters, url, created_at, updated_at`

type nearbyPlaceRepository struct {
	DB *sql.DB
}

// NewNearbyPlaceRepository returns a domain.NearbyPlaceRepository implemented with Postgres.
func NewNearbyPlaceRepository(db *sql.DB) domain.NearbyPlaceRepository {
	return &nearbyPlaceRepository{DB: db}
}

func scanNearbyPlace(s scanner) (*domain.NearbyPlace, error) {
	p := &domain.NearbyPlace{}
	if err := s.Scan(&p.ID, &p.EventID, &p.Name, &p.Kind, &p.Address, &p.Latitude, &p.Longitude, &p.DistanceMeters, &p.URL, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	return p, nil
}

func (r *nearbyPlaceRepository) Create(ctx context.Context, p *domain.NearbyPlace) error {
	query := `
		INSERT INTO nearby_places (event_id, name, kind, address, latitude, longitude, distance_meters, url, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id
	`
	err := r.DB.QueryRowContext(ctx, query, p.EventID, p.Name, p.Kind, p.Address, p.Latitude, p.Longitude, p.DistanceMeters, p.URL, p.CreatedAt, p.UpdatedAt).Scan(&p.ID)
	return mapErr(err, domain.ErrConflict)
}

func (r *nearbyPlaceRepository) GetByID(ctx context.Context, id string) (*domain.NearbyPlace, error) {
	p, err := scanNearbyPlace(r.DB.QueryRowContext(ctx, `SELECT `+nearbyPlaceColumns+` FROM nearby_places WHERE id = $1`, id))
	if err != nil {
		return nil, mapErr(err, nil)
	}
	return p, nil
}

// ListByEventID returns the closest places first; places without a known
// distance sort last.
func (r *nearbyPlaceRepository) ListByEventID(ctx context.Context, eventID string, kind domain.PlaceKind) ([]*domain.NearbyPlace, error) {
	var args queryArgs
	where := whereClause{"event_id = " + args.bind(eventID)}
	if kind != "" {
		where = append(where, "kind = "+args.bind(kind))
	}
	rows, err := r.DB.QueryContext(ctx,
		`SELECT `+nearbyPlaceColumns+` FROM nearby_places`+where.String()+` ORDER BY distance_meters ASC NULLS LAST, name`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	places := make([]*domain.NearbyPlace, 0)
	for rows.Next() {
		p, err := scanNearbyPlace(rows)
		if err != nil {
			return nil, err
		}
		places = append(places, p)
	}
	return places, rows.Err()
}

func (r *nearbyPlaceRepository) Update(ctx context.Context, id string, upd domain.NearbyPlaceUpdate) (*domain.NearbyPlace, error) {
	var args queryArgs
	setClauses := []string{"updated_at = NOW()"}
	if upd.Name != nil {
		setClauses = append(setClauses, "name = "+args.bind(*upd.Name))
	}
	if upd.Kind != nil {
		setClauses = append(setClauses, "kind = "+args.bind(*upd.Kind))
	}
	if upd.Address != nil {
		setClauses = append(setClauses, "address = "+args.bind(*upd.Address))
	}
	if upd.Latitude != nil {
		setClauses = append(setClauses, "latitude = "+args.bind(*upd.Latitude))
	}
	if upd.Longitude != nil {
		setClauses = append(setClauses, "longitude = "+args.bind(*upd.Longitude))
	}
	if upd.DistanceMeters != nil {
		setClauses = append(setClauses, "distance_meters = "+args.bind(*upd.DistanceMeters))
	}
	if upd.URL != nil {
		setClauses = append(setClauses, "url = "+args.bind(*upd.URL))
	}
	query := fmt.Sprintf(`UPDATE nearby_places SET %s WHERE id = %s RETURNING %s`, strings.Join(setClauses, ", "), args.bind(id), nearbyPlaceColumns)
	p, err := scanNearbyPlace(r.DB.QueryRowContext(ctx, query, args...))
	if err != nil {
		return nil, mapErr(err, nil)
	}
	return p, nil
}

func (r *nearbyPlaceRepository) Delete(ctx context.Context, id string) error {
	return execAffected(r.DB.ExecContext(ctx, `DELETE FROM nearby_places WHERE id = $1`, id))
}
