package domain

import (
	"context"
	"time"
)

// PlaceKind classifies a nearby place.
type PlaceKind string

const (
	PlaceRestaurant PlaceKind = "restaurant"
	PlaceBar        PlaceKind = "bar"
	PlaceCafe       PlaceKind = "cafe"
	PlaceHotel      PlaceKind = "hotel"
	PlaceParking    PlaceKind = "parking"
	PlaceTransit    PlaceKind = "transit"
	PlaceOther      PlaceKind = "other"
)

// Valid reports whether k is a known kind.
func (k PlaceKind) Valid() bool {
	switch k {
	case PlaceRestaurant, PlaceBar, PlaceCafe, PlaceHotel, PlaceParking, PlaceTransit, PlaceOther:
		return true
	}
	return false
}

// NearbyPlace is a point of interest recommended to attendees of an event.
// swagger:model NearbyPlace
type NearbyPlace struct {
	ID             string    `json:"id"`
	EventID        string    `json:"event_id"`
	Name           string    `json:"name"`
	Kind           PlaceKind `json:"kind"`
	Address        string    `json:"address"`
	Latitude       *float64  `json:"latitude"`
	Longitude      *float64  `json:"longitude"`
	DistanceMeters *int      `json:"distance_meters"`
	URL            string    `json:"url"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// NearbyPlaceUpdate holds the optional fields of a partial update.
type NearbyPlaceUpdate struct {
	Name           *string
	Kind           *PlaceKind
	Address        *string
	Latitude       *float64
	Longitude      *float64
	DistanceMeters *int
	URL            *string
}

// NearbyPlaceRepository defines storage for nearby places.
type NearbyPlaceRepository interface {
	Create(ctx context.Context, p *NearbyPlace) error
	GetByID(ctx context.Context, id string) (*NearbyPlace, error)
	ListByEventID(ctx context.Context, eventID string, kind PlaceKind) ([]*NearbyPlace, error)
	Update(ctx context.Context, id string, upd NearbyPlaceUpdate) (*NearbyPlace, error)
	Delete(ctx context.Context, id string) error
}

// NearbyPlaceService defines nearby place management under an event.
type NearbyPlaceService interface {
	Create(ctx context.Context, caller Principal, p *NearbyPlace) error
	List(ctx context.Context, caller *Principal, eventID string, kind PlaceKind) ([]*NearbyPlace, error)
	Update(ctx context.Context, caller Principal, eventID, placeID string, upd NearbyPlaceUpdate) (*NearbyPlace, error)
	Delete(ctx context.Context, caller Principal, eventID, placeID string) error
}
