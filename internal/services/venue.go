package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"eventhub/internal/domain"
)

type venueService struct {
	repo           domain.VenueRepository
	audit          domain.AuditService
	logger         *slog.Logger
	contextTimeout time.Duration
}

func NewVenueService(repo domain.VenueRepository, audit domain.AuditService, logger *slog.Logger, timeout time.Duration) domain.VenueService {
	return &venueService{repo: repo, audit: audit, logger: logger.With("component", "venues"), contextTimeout: timeout}
}

func (s *venueService) Create(ctx context.Context, caller domain.Principal, v *domain.Venue) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if !caller.IsAdmin() {
		return domain.ErrForbidden
	}
	v.Name = strings.TrimSpace(v.Name)
	if v.Name == "" {
		return domain.Invalid("name is required")
	}
	if v.Capacity < 0 {
		return domain.Invalid("capacity cannot be negative")
	}
	if err := validCoordinates(v.Latitude, v.Longitude); err != nil {
		return err
	}
	v.Address = strings.TrimSpace(v.Address)
	v.City = strings.TrimSpace(v.City)
	v.Country = strings.TrimSpace(v.Country)

	now := time.Now().UTC()
	v.CreatedAt, v.UpdatedAt = now, now
	if err := s.repo.Create(ctx, v); err != nil {
		return fmt.Errorf("create venue: %w", err)
	}
	s.audit.Record(ctx, &caller.UserID, domain.AuditVenueChange, "venue", v.ID, map[string]any{"op": "create", "name": v.Name})
	return nil
}

func (s *venueService) Get(ctx context.Context, id string) (*domain.Venue, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	return s.repo.GetByID(ctx, id)
}

func (s *venueService) List(ctx context.Context, filter domain.VenueFilter, params domain.PaginationParams) ([]*domain.Venue, int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	filter.Search = strings.TrimSpace(filter.Search)
	filter.City = strings.TrimSpace(filter.City)
	return s.repo.List(ctx, filter, params)
}

func (s *venueService) Update(ctx context.Context, caller domain.Principal, id string, upd domain.VenueUpdate) (*domain.Venue, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if !caller.IsAdmin() {
		return nil, domain.ErrForbidden
	}
	if upd.Name != nil {
		n := strings.TrimSpace(*upd.Name)
		if n == "" {
			return nil, domain.Invalid("name cannot be empty")
		}
		upd.Name = &n
	}
	if upd.Capacity != nil && *upd.Capacity < 0 {
		return nil, domain.Invalid("capacity cannot be negative")
	}

	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
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

	v, err := s.repo.Update(ctx, id, upd)
	if err != nil {
		return nil, err
	}
	s.audit.Record(ctx, &caller.UserID, domain.AuditVenueChange, "venue", id, map[string]any{"op": "update"})
	return v, nil
}

// Delete removes the venue. Events held there keep existing with no venue.
func (s *venueService) Delete(ctx context.Context, caller domain.Principal, id string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if !caller.IsAdmin() {
		return domain.ErrForbidden
	}
	n, err := s.repo.CountEvents(ctx, id)
	if err != nil {
		return fmt.Errorf("count venue events: %w", err)
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	if n > 0 {
		s.logger.Info("venue deleted with events attached", "venue_id", id, "events", n)
	}
	s.audit.Record(ctx, &caller.UserID, domain.AuditVenueChange, "venue", id, map[string]any{"op": "delete", "detached_events": n})
	return nil
}
