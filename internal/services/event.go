package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"eventhub/internal/domain"
	"eventhub/internal/slug"
)

// maxSlugAttempts bounds the -2, -3, ... suffixes tried for a generated slug.
const maxSlugAttempts = 20

type eventService struct {
	events         domain.EventRepository
	venues         domain.VenueRepository
	categories     domain.CategoryRepository
	cache          domain.EventCache
	audit          domain.AuditService
	logger         *slog.Logger
	contextTimeout time.Duration
}

func NewEventService(
	events domain.EventRepository,
	venues domain.VenueRepository,
	categories domain.CategoryRepository,
	cache domain.EventCache,
	audit domain.AuditService,
	logger *slog.Logger,
	timeout time.Duration,
) domain.EventService {
	return &eventService{
		events:         events,
		venues:         venues,
		categories:     categories,
		cache:          cache,
		audit:          audit,
		logger:         logger.With("component", "events"),
		contextTimeout: timeout,
	}
}

func (s *eventService) Create(ctx context.Context, caller domain.Principal, in domain.CreateEventInput) (*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	title := strings.TrimSpace(in.Title)
	if err := validateTitle(title); err != nil {
		return nil, err
	}
	if in.StartsAt.IsZero() {
		return nil, domain.Invalid("starts_at is required")
	}
	if in.EndsAt != nil && !in.EndsAt.After(in.StartsAt) {
		return nil, domain.Invalid("ends_at must be after starts_at")
	}
	if in.Capacity < 0 {
		return nil, domain.Invalid("capacity cannot be negative")
	}
	if err := s.checkRefs(ctx, in.VenueID, in.CategoryID); err != nil {
		return nil, err
	}

	eventSlug, err := s.pickSlug(ctx, in.Slug, title)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	e := domain.NewEvent(caller.UserID, title, eventSlug, in.StartsAt.UTC(), now, now)
	e.Description = strings.TrimSpace(in.Description)
	e.VenueID = emptyToNil(in.VenueID)
	e.CategoryID = emptyToNil(in.CategoryID)
	e.EndsAt = in.EndsAt
	e.Capacity = in.Capacity
	e.WaitlistEnabled = in.WaitlistEnabled

	if err := s.events.Create(ctx, e); err != nil {
		if errors.Is(err, domain.ErrSlugTaken) {
			return nil, domain.ErrSlugTaken
		}
		return nil, fmt.Errorf("create event: %w", err)
	}
	s.audit.Record(ctx, &caller.UserID, domain.AuditEventCreate, "event", e.ID, map[string]any{"slug": e.Slug, "title": e.Title})
	return e, nil
}

func validateTitle(title string) error {
	if title == "" {
		return domain.Invalid("title is required")
	}
	if len(title) > maxTitleLen {
		return domain.Invalid(fmt.Sprintf("title must be at most %d characters", maxTitleLen))
	}
	return nil
}

func emptyToNil(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}

// pickSlug validates an explicit slug or derives one from the title,
// appending -2 .. -20 until a free one is found.
func (s *eventService) pickSlug(ctx context.Context, explicit, title string) (string, error) {
	if explicit = strings.ToLower(strings.TrimSpace(explicit)); explicit != "" {
		if !slug.Valid(explicit) {
			return "", domain.Invalid("slug may only contain lowercase letters, digits and single hyphens")
		}
		taken, err := s.events.SlugExists(ctx, explicit)
		if err != nil {
			return "", fmt.Errorf("check slug: %w", err)
		}
		if taken {
			return "", domain.ErrSlugTaken
		}
		return explicit, nil
	}

	base := slug.Make(title)
	if base == "" {
		base = "event"
	}
	for i := 1; i <= maxSlugAttempts; i++ {
		candidate := base
		if i > 1 {
			candidate = slug.WithSuffix(base, i)
		}
		taken, err := s.events.SlugExists(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("check slug: %w", err)
		}
		if !taken {
			return candidate, nil
		}
	}
	return "", domain.ErrSlugTaken
}

// checkRefs verifies that referenced venue and category exist. Empty ids mean "none".
func (s *eventService) checkRefs(ctx context.Context, venueID, categoryID *string) error {
	if venueID != nil && strings.TrimSpace(*venueID) != "" {
		if _, err := s.venues.GetByID(ctx, strings.TrimSpace(*venueID)); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return domain.Invalid("venue does not exist")
			}
			return fmt.Errorf("get venue: %w", err)
		}
	}
	if categoryID != nil && strings.TrimSpace(*categoryID) != "" {
		if _, err := s.categories.GetByID(ctx, strings.TrimSpace(*categoryID)); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return domain.Invalid("category does not exist")
			}
			return fmt.Errorf("get category: %w", err)
		}
	}
	return nil
}

func (s *eventService) Get(ctx context.Context, caller *domain.Principal, id string) (*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	return loadVisibleEvent(ctx, s.events, caller, id)
}

// GetBySlug reads through the cache. Only published events are cached.
func (s *eventService) GetBySlug(ctx context.Context, caller *domain.Principal, eventSlug string) (*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	eventSlug = strings.ToLower(strings.TrimSpace(eventSlug))
	cached, err := s.cache.Get(ctx, eventSlug)
	if err == nil {
		return cached, nil
	}
	if !errors.Is(err, domain.ErrCacheMiss) {
		s.logger.Warn("event cache read failed", "slug", eventSlug, "error", err)
	}

	e, err := s.events.GetBySlug(ctx, eventSlug)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	if !e.VisibleTo(caller) {
		return nil, domain.ErrNotFound
	}
	if e.Status == domain.EventPublished {
		if err := s.cache.Set(ctx, e); err != nil {
			s.logger.Warn("event cache write failed", "slug", eventSlug, "error", err)
		}
	}
	return e, nil
}

// List shows published events by default. Other statuses are only listed for
// admins or for the caller's own events.
func (s *eventService) List(ctx context.Context, caller *domain.Principal, filter domain.EventFilter, params domain.PaginationParams) ([]*domain.Event, int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	for _, st := range filter.Statuses {
		if !st.Valid() {
			return nil, 0, domain.Invalid(fmt.Sprintf("unknown status %q", st))
		}
	}
	privileged := caller != nil && (caller.IsAdmin() || (filter.OwnerID != "" && filter.OwnerID == caller.UserID))
	if !privileged {
		if len(filter.Statuses) == 0 {
			filter.Statuses = []domain.EventStatus{domain.EventPublished}
		}
		for _, st := range filter.Statuses {
			if st != domain.EventPublished {
				return nil, 0, domain.ErrForbidden
			}
		}
	}
	if filter.StartsAfter != nil && filter.StartsBefore != nil && !filter.StartsBefore.After(*filter.StartsAfter) {
		return nil, 0, domain.Invalid("starts_before must be after starts_after")
	}
	return s.events.List(ctx, filter, params)
}

func (s *eventService) Update(ctx context.Context, caller domain.Principal, id string, upd domain.EventUpdate) (*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	e, err := loadManageableEvent(ctx, s.events, caller, id)
	if err != nil {
		return nil, err
	}
	if upd.Title != nil {
		t := strings.TrimSpace(*upd.Title)
		if err := validateTitle(t); err != nil {
			return nil, err
		}
		upd.Title = &t
	}
	if upd.Capacity != nil && *upd.Capacity < 0 {
		return nil, domain.Invalid("capacity cannot be negative")
	}
	startsAt := e.StartsAt
	if upd.StartsAt != nil {
		startsAt = *upd.StartsAt
	}
	endsAt := e.EndsAt
	if upd.EndsAt != nil {
		endsAt = upd.EndsAt
	}
	if endsAt != nil && !endsAt.After(startsAt) {
		return nil, domain.Invalid("ends_at must be after starts_at")
	}
	if err := s.checkRefs(ctx, upd.VenueID, upd.CategoryID); err != nil {
		return nil, err
	}

	updated, err := s.events.Update(ctx, id, upd)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, e.Slug)
	s.audit.Record(ctx, &caller.UserID, domain.AuditEventUpdate, "event", id, nil)
	return updated, nil
}

func (s *eventService) Publish(ctx context.Context, caller domain.Principal, id string) (*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	e, err := loadManageableEvent(ctx, s.events, caller, id)
	if err != nil {
		return nil, err
	}
	switch e.Status {
	case domain.EventPublished:
		return e, nil
	case domain.EventCancelled:
		return nil, domain.Invalid("cancelled events cannot be published")
	}
	updated, err := s.events.SetStatus(ctx, id, domain.EventPublished)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, e.Slug)
	s.audit.Record(ctx, &caller.UserID, domain.AuditEventPublish, "event", id, nil)
	return updated, nil
}

// Cancel marks the event cancelled and drops it from the cache. Nobody is notified.
func (s *eventService) Cancel(ctx context.Context, caller domain.Principal, id string) (*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	e, err := loadManageableEvent(ctx, s.events, caller, id)
	if err != nil {
		return nil, err
	}
	if e.Status == domain.EventCancelled {
		return e, nil
	}
	updated, err := s.events.SetStatus(ctx, id, domain.EventCancelled)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, e.Slug)
	s.audit.Record(ctx, &caller.UserID, domain.AuditEventCancel, "event", id, map[string]any{"previous_status": e.Status})
	return updated, nil
}

func (s *eventService) Delete(ctx context.Context, caller domain.Principal, id string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	e, err := loadManageableEvent(ctx, s.events, caller, id)
	if err != nil {
		return err
	}
	if err := s.events.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx, e.Slug)
	s.audit.Record(ctx, &caller.UserID, domain.AuditEventDelete, "event", id, map[string]any{"slug": e.Slug})
	return nil
}

// Stats counts the caller's events, or every event for admins.
func (s *eventService) Stats(ctx context.Context, caller domain.Principal) (*domain.EventStats, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	ownerID := caller.UserID
	if caller.IsAdmin() {
		ownerID = ""
	}
	byStatus, err := s.events.CountByStatus(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("count by status: %w", err)
	}
	byCategory, err := s.events.CountByCategory(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("count by category: %w", err)
	}
	stats := &domain.EventStats{ByStatus: byStatus, ByCategory: byCategory}
	for _, c := range byStatus {
		stats.Total += c.Count
	}
	return stats, nil
}

func (s *eventService) invalidate(ctx context.Context, eventSlug string) {
	if err := s.cache.Delete(ctx, eventSlug); err != nil {
		s.logger.Warn("event cache delete failed", "slug", eventSlug, "error", err)
	}
}
