package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Show is a single performance or time slot of an event.
// swagger:model Show
type Show struct {
	ID         string          `json:"id"`
	EventID    string          `json:"event_id"`
	Title      string          `json:"title"`
	StartsAt   time.Time       `json:"starts_at"`
	EndsAt     *time.Time      `json:"ends_at"`
	Price      decimal.Decimal `json:"price" swaggertype:"string"`
	Currency   string          `json:"currency"`
	SeatsTotal int             `json:"seats_total"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// ShowUpdate holds the optional fields of a partial show update.
type ShowUpdate struct {
	Title      *string
	StartsAt   *time.Time
	EndsAt     *time.Time
	Price      *decimal.Decimal
	Currency   *string
	SeatsTotal *int
}

// PriceSummary aggregates show prices of an event. Min, Max and Avg are zero when Count is 0.
type PriceSummary struct {
	Count int             `json:"count"`
	Min   decimal.Decimal `json:"min" swaggertype:"string"`
	Max   decimal.Decimal `json:"max" swaggertype:"string"`
	Avg   decimal.Decimal `json:"avg" swaggertype:"string"`
	Seats int             `json:"seats"`
}

// ShowRepository defines storage for shows.
type ShowRepository interface {
	Create(ctx context.Context, s *Show) error
	GetByID(ctx context.Context, id string) (*Show, error)
	ListByEventID(ctx context.Context, eventID string) ([]*Show, error)
	Update(ctx context.Context, id string, upd ShowUpdate) (*Show, error)
	Delete(ctx context.Context, id string) error
	PriceSummary(ctx context.Context, eventID string) (*PriceSummary, error)
}

// ShowService defines show management under an event.
type ShowService interface {
	Create(ctx context.Context, caller Principal, s *Show) error
	List(ctx context.Context, caller *Principal, eventID string) ([]*Show, error)
	Update(ctx context.Context, caller Principal, eventID, showID string, upd ShowUpdate) (*Show, error)
	Delete(ctx context.Context, caller Principal, eventID, showID string) error
	PriceSummary(ctx context.Context, caller *Principal, eventID string) (*PriceSummary, error)
}
