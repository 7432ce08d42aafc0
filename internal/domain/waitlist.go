package domain

import (
	"context"
	"fmt"
	"time"
)

// ErrAlreadyOnWaitlist is returned when the email is already on the event's waitlist.
var ErrAlreadyOnWaitlist = fmt.Errorf("already on waitlist: %w", ErrConflict)

// WaitlistStatus is the state of a waitlist entry.
type WaitlistStatus string

const (
	WaitlistWaiting   WaitlistStatus = "waiting"
	WaitlistNotified  WaitlistStatus = "notified"
	WaitlistConverted WaitlistStatus = "converted"
	WaitlistCancelled WaitlistStatus = "cancelled"
)

// Valid reports whether s is a known status.
func (s WaitlistStatus) Valid() bool {
	switch s {
	case WaitlistWaiting, WaitlistNotified, WaitlistConverted, WaitlistCancelled:
		return true
	}
	return false
}

// WaitlistEntry is a person waiting for a spot at an event.
// Positions are assigned in join order and never renumbered.
// swagger:model WaitlistEntry
type WaitlistEntry struct {
	ID         string         `json:"id"`
	EventID    string         `json:"event_id"`
	UserID     *string        `json:"user_id"`
	Email      string         `json:"email"`
	Name       string         `json:"name"`
	Position   int            `json:"position"`
	Status     WaitlistStatus `json:"status"`
	NotifiedAt *time.Time     `json:"notified_at"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

// NewWaitlistEntry creates a waiting entry. ID and Position are set by the repository on create.
func NewWaitlistEntry(eventID string, userID *string, email, name string, createdAt, updatedAt time.Time) *WaitlistEntry {
	return &WaitlistEntry{
		EventID:   eventID,
		UserID:    userID,
		Email:     email,
		Name:      name,
		Status:    WaitlistWaiting,
		CreatedAt: createdAt,
		UpdatedAt: updatedAt,
	}
}

// WaitlistEntryWithEvent bundles an entry with its event.
type WaitlistEntryWithEvent struct {
	Entry *WaitlistEntry `json:"entry"`
	Event *Event         `json:"event"`
}

// WaitlistRepository defines storage operations for waitlist entries.
type WaitlistRepository interface {
	Create(ctx context.Context, entry *WaitlistEntry) error
	GetByID(ctx context.Context, id string) (*WaitlistEntry, error)
	GetByEventAndEmail(ctx context.Context, eventID, email string) (*WaitlistEntry, error)
	ListByEventID(ctx context.Context, eventID string, status WaitlistStatus, params PaginationParams) ([]*WaitlistEntry, int, error)
	ListByUserID(ctx context.Context, userID string) ([]*WaitlistEntry, error)
	CountByEventID(ctx context.Context, eventID string, status WaitlistStatus) (int, error)
	NextWaiting(ctx context.Context, eventID string, n int) ([]*WaitlistEntry, error)
	MarkNotified(ctx context.Context, ids []string, at time.Time) error
	UpdateStatus(ctx context.Context, id string, status WaitlistStatus) (*WaitlistEntry, error)
	// Requeue puts a cancelled entry back to waiting at the end of the queue.
	Requeue(ctx context.Context, eventID, id string) (*WaitlistEntry, error)
}

// NotifyResult reports the outcome of notifying waitlisted people.
type NotifyResult struct {
	Notified []*WaitlistEntry `json:"notified"`
	Failed   []string         `json:"failed"`
	Waiting  int              `json:"waiting"`
}

// WaitlistService defines waitlist operations.
type WaitlistService interface {
	Join(ctx context.Context, caller *Principal, eventID, email, name string) (*WaitlistEntry, error)
	Leave(ctx context.Context, caller Principal, eventID, entryID string) error
	List(ctx context.Context, caller Principal, eventID string, status WaitlistStatus, params PaginationParams) ([]*WaitlistEntry, int, error)
	ListMine(ctx context.Context, userID string) ([]*WaitlistEntryWithEvent, error)
	NotifyNext(ctx context.Context, caller Principal, eventID string, n int) (*NotifyResult, error)
	Convert(ctx context.Context, caller Principal, eventID, entryID string) (*WaitlistEntry, error)
}
