package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"eventhub/internal/domain"
)

type nearbyPlaceService struct {
	places         domain.NearbyPlaceRepository
	events         domain.EventRepository
	venues         domain.VenueRepository
	logger         *slog.Logger
	contextTimeout time.Duration
}

func NewNearbyPlaceService(places domain.NearbyPlaceRepository, events domain.EventRepository, venues domain.VenueRepository, logger *slog.Logger, timeout time.Duration) domain.NearbyPlaceService {
	return &nearbyPlaceService{places: places, events: events, venues: venues, logger: logger.With("component", "nearby_places"), contextTimeout: timeout}
}

func validPlaceURL(raw string) error {
	if raw == "" {
		return nil
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return domain.Invalid("url must be an absolute http(s) URL")
	}
	return nil
}

// distanceFromVenue computes the distance between the event's venue and the
// given point. It returns nil when either side has no coordinates.
func (s *nearbyPlaceService) distanceFromVenue(ctx context.Context, e *domain.Event, lat, lng *float64) *int {
	if e.VenueID == nil || lat == nil || lng == nil {
		return nil
	}
	v, err := s.venues.GetByID(ctx, *e.VenueID)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			s.logger.Warn("load venue for distance", "venue_id", *e.VenueID, "error", err)
		}
		return nil
	}
	if !v.HasCoordinates() {
		return nil
	}
	d := haversineMeters(*v.Latitude, *v.Longitude, *lat, *lng)
	return &d
}

func (s *nearbyPlaceService) Create(ctx context.Context, caller domain.Principal, p *domain.NearbyPlace) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	e, err := loadManageableEvent(ctx, s.events, caller, p.EventID)
	if err != nil {
		return err
	}
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" {
		return domain.Invalid("name is required")
	}
	if p.Kind == "" {
		p.Kind = domain.PlaceOther
	}
	if !p.Kind.Valid() {
		return domain.Invalid(fmt.Sprintf("unknown kind %q", p.Kind))
	}
	if err := validCoordinates(p.Latitude, p.Longitude); err != nil {
		return err
	}
	p.URL = strings.TrimSpace(p.URL)
	if err := validPlaceURL(p.URL); err != nil {
		return err
	}
	if p.DistanceMeters != nil && *p.DistanceMeters < 0 {
		return domain.Invalid("distance_meters cannot be negative")
	}
	if p.DistanceMeters == nil {
		p.DistanceMeters = s.distanceFromVenue(ctx, e, p.Latitude, p.Longitude)
	}

	now := time.Now().UTC()
	p.CreatedAt, p.UpdatedAt = now, now
	if err := s.places.Create(ctx, p); err != nil {
		return fmt.Errorf("create nearby place: %w", err)
	}
	return nil
}

func (s *nearbyPlaceService) List(ctx context.Context, caller *domain.Principal, eventID string, kind domain.PlaceKind) ([]*domain.NearbyPlace, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if kind != "" && !kind.Valid() {
		return nil, domain.Invalid(fmt.Sprintf("unknown kind %q", kind))
	}
	if _, err := loadVisibleEvent(ctx, s.events, caller, eventID); err != nil {
		return nil, err
	}
	return s.places.ListByEventID(ctx, eventID, kind)
}

func (s *nearbyPlaceService) loadPlace(ctx context.Context, eventID, placeID string) (*domain.NearbyPlace, error) {
	p, err := s.places.GetByID(ctx, placeID)
	if err != nil {
		return nil, err
	}
	if p.EventID != eventID {
		return nil, domain.ErrNotFound
	}
	return p, nil
}

// Update recomputes the distance when coordinates move and no explicit distance is given.
func (s *nearbyPlaceService) Update(ctx context.Context, caller domain.Principal, eventID, placeID string, upd domain.NearbyPlaceUpdate) (*domain.NearbyPlace, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	e, err := loadManageableEvent(ctx, s.events, caller, eventID)
	if err != nil {
		return nil, err
	}
	current, err := s.loadPlace(ctx, eventID, placeID)
	if err != nil {
		return nil, err
	}

	if upd.Name != nil {
		n := strings.TrimSpace(*upd.Name)
		if n == "" {
			return nil, domain.Invalid("name cannot be empty")
		}
		upd.Name = &n
	}
	if upd.Kind != nil && !upd.Kind.Valid() {
		return nil, domain.Invalid(fmt.Sprintf("unknown kind %q", *upd.Kind))
	}
	if upd.URL != nil {
		u := strings.TrimSpace(*upd.URL)
		if err := validPlaceURL(u); err != nil {
			return nil, err
		}
		upd.URL = &u
	}
	if upd.DistanceMeters != nil && *upd.DistanceMeters < 0 {
		return nil, domain.Invalid("distance_meters cannot be negative")
	}

	lat, lng := current.Latitude, current.Longitude
	if upd.Latitude != nil {
		lat = upd.Latitude
	}
	if upd.Longitude != nil {
		lng = upd.Longitude
	}
	if err := validCoordinates(lat, lng); err != nil {
		return nil, err
	}
	moved := upd.Latitude != nil || upd.Longitude != nil
	if moved && upd.DistanceMeters == nil {
		upd.DistanceMeters = s.distanceFromVenue(ctx, e, lat, lng)
	}

	return s.places.Update(ctx, placeID, upd)
}

func (s *nearbyPlaceService) Delete(ctx context.Context, caller domain.Principal, eventID, placeID string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if _, err := loadManageableEvent(ctx, s.events, caller, eventID); err != nil {
		return err
	}
	if _, err := s.loadPlace(ctx, eventID, placeID); err != nil {
		return err
	}
	return s.places.Delete(ctx, placeID)
}
