package domain

import (
	"context"
	"fmt"
	"time"
)

// ErrSlugTaken is returned when an event slug is already used by another event.
var ErrSlugTaken = fmt.Errorf("slug already taken: %w", ErrConflict)

// EventStatus is the publication state of an event.
type EventStatus string

const (
	EventDraft     EventStatus = "draft"
	EventPublished EventStatus = "published"
	EventCancelled EventStatus = "cancelled"
)

// Valid reports whether s is a known status.
func (s EventStatus) Valid() bool {
	switch s {
	case EventDraft, EventPublished, EventCancelled:
		return true
	}
	return false
}

// Event represents an event hosted by a user, optionally at a venue and in a category.
// swagger:model Event
type Event struct {
	ID              string      `json:"id"`
	OwnerID         string      `json:"owner_id"`
	VenueID         *string     `json:"venue_id"`
	CategoryID      *string     `json:"category_id"`
	Title           string      `json:"title"`
	Slug            string      `json:"slug"`
	Description     string      `json:"description"`
	StartsAt        time.Time   `json:"starts_at"`
	EndsAt          *time.Time  `json:"ends_at"`
	Capacity        int         `json:"capacity"`
	Status          EventStatus `json:"status"`
	WaitlistEnabled bool        `json:"waitlist_enabled"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
}

// NewEvent returns a new draft Event. ID is typically set by the repository on create.
func NewEvent(ownerID, title, slug string, startsAt, createdAt, updatedAt time.Time) *Event {
	return &Event{
		OwnerID:   ownerID,
		Title:     title,
		Slug:      slug,
		StartsAt:  startsAt,
		Status:    EventDraft,
		CreatedAt: createdAt,
		UpdatedAt: updatedAt,
	}
}

// VisibleTo reports whether the event can be read by the given principal.
// Published events are public; drafts and cancelled events only to the owner and admins.
func (e *Event) VisibleTo(p *Principal) bool {
	if e.Status == EventPublished {
		return true
	}
	return p != nil && (p.UserID == e.OwnerID || p.IsAdmin())
}

// ManageableBy reports whether the principal may modify the event.
func (e *Event) ManageableBy(p Principal) bool {
	return p.UserID == e.OwnerID || p.IsAdmin()
}

// EventSortField selects the ORDER BY column for event listings.
type EventSortField string

const (
	EventSortStartsAt  EventSortField = "starts_at"
	EventSortCreatedAt EventSortField = "created_at"
	EventSortTitle     EventSortField = "title"
)

// EventFilter narrows event listings. Zero values mean "no constraint".
type EventFilter struct {
	OwnerID      string
	VenueID      string
	CategoryID   string
	Statuses     []EventStatus
	Search       string
	StartsAfter  *time.Time
	StartsBefore *time.Time
	SortBy       EventSortField
	SortDir      SortDirection
}

// EventUpdate holds the optional fields of a partial event update.
type EventUpdate struct {
	Title           *string
	Description     *string
	VenueID         *string
	CategoryID      *string
	StartsAt        *time.Time
	EndsAt          *time.Time
	Capacity        *int
	WaitlistEnabled *bool
}

// Empty reports whether no field is set.
func (u EventUpdate) Empty() bool {
	return u.Title == nil && u.Description == nil && u.VenueID == nil && u.CategoryID == nil &&
		u.StartsAt == nil && u.EndsAt == nil && u.Capacity == nil && u.WaitlistEnabled == nil
}

// StatusCount is one row of a GROUP BY status aggregate.
type StatusCount struct {
	Status EventStatus `json:"status"`
	Count  int         `json:"count"`
}

// CategoryCount is one row of a GROUP BY category aggregate. CategoryID is nil for uncategorised events.
type CategoryCount struct {
	CategoryID   *string `json:"category_id"`
	CategoryName string  `json:"category_name"`
	Count        int     `json:"count"`
}

// EventStats aggregates event counts.
type EventStats struct {
	Total      int             `json:"total"`
	ByStatus   []StatusCount   `json:"by_status"`
	ByCategory []CategoryCount `json:"by_category"`
}

// EventRepository defines the interface for event storage
type EventRepository interface {
	Create(ctx context.Context, event *Event) error
	GetByID(ctx context.Context, id string) (*Event, error)
	GetBySlug(ctx context.Context, slug string) (*Event, error)
	SlugExists(ctx context.Context, slug string) (bool, error)
	List(ctx context.Context, filter EventFilter, params PaginationParams) ([]*Event, int, error)
	Update(ctx context.Context, id string, upd EventUpdate) (*Event, error)
	SetStatus(ctx context.Context, id string, status EventStatus) (*Event, error)
	Delete(ctx context.Context, id string) error
	CountByStatus(ctx context.Context, ownerID string) ([]StatusCount, error)
	CountByCategory(ctx context.Context, ownerID string) ([]CategoryCount, error)
}

// CreateEventInput carries the fields accepted when creating an event.
type CreateEventInput struct {
	Title           string
	Slug            string
	Description     string
	VenueID         *string
	CategoryID      *string
	StartsAt        time.Time
	EndsAt          *time.Time
	Capacity        int
	WaitlistEnabled bool
}

// EventService defines the business logic for events.
type EventService interface {
	Create(ctx context.Context, caller Principal, in CreateEventInput) (*Event, error)
	Get(ctx context.Context, caller *Principal, id string) (*Event, error)
	GetBySlug(ctx context.Context, caller *Principal, slug string) (*Event, error)
	List(ctx context.Context, caller *Principal, filter EventFilter, params PaginationParams) ([]*Event, int, error)
	Update(ctx context.Context, caller Principal, id string, upd EventUpdate) (*Event, error)
	Publish(ctx context.Context, caller Principal, id string) (*Event, error)
	Cancel(ctx context.Context, caller Principal, id string) (*Event, error)
	Delete(ctx context.Context, caller Principal, id string) error
	Stats(ctx context.Context, caller Principal) (*EventStats, error)
}
