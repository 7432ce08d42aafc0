package domain

import (
	"context"
	"time"
)

// Venue is a physical location that hosts events.
// swagger:model Venue
type Venue struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Address   string    `json:"address"`
	City      string    `json:"city"`
	Country   string    `json:"country"`
	Capacity  int       `json:"capacity"`
	Latitude  *float64  `json:"latitude"`
	Longitude *float64  `json:"longitude"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// HasCoordinates reports whether both latitude and longitude are set.
func (v *Venue) HasCoordinates() bool {
	return v.Latitude != nil && v.Longitude != nil
}

// VenueFilter narrows venue listings.
type VenueFilter struct {
	Search string
	City   string
}

// VenueUpdate holds the optional fields of a partial venue update.
type VenueUpdate struct {
	Name      *string
	Address   *string
	City      *string
	Country   *string
	Capacity  *int
	Latitude  *float64
	Longitude *float64
}

// VenueRepository defines storage for venues.
type VenueRepository interface {
	Create(ctx context.Context, v *Venue) error
	GetByID(ctx context.Context, id string) (*Venue, error)
	GetByName(ctx context.Context, name string) (*Venue, error)
	List(ctx context.Context, filter VenueFilter, params PaginationParams) ([]*Venue, int, error)
	Update(ctx context.Context, id string, upd VenueUpdate) (*Venue, error)
	Delete(ctx context.Context, id string) error
	CountEvents(ctx context.Context, id string) (int, error)
}

// VenueService defines venue management. Writes require the admin role.
type VenueService interface {
	Create(ctx context.Context, caller Principal, v *Venue) error
	Get(ctx context.Context, id string) (*Venue, error)
	List(ctx context.Context, filter VenueFilter, params PaginationParams) ([]*Venue, int, error)
	Update(ctx context.Context, caller Principal, id string, upd VenueUpdate) (*Venue, error)
	Delete(ctx context.Context, caller Principal, id string) error
}
