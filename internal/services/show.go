package services

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"eventhub/internal/domain"
)

const defaultCurrency = "USD"

var currencyRegexp = regexp.MustCompile(`^[A-Z]{3}$`)

type showService struct {
	shows          domain.ShowRepository
	events         domain.EventRepository
	logger         *slog.Logger
	contextTimeout time.Duration
}

func NewShowService(shows domain.ShowRepository, events domain.EventRepository, logger *slog.Logger, timeout time.Duration) domain.ShowService {
	return &showService{shows: shows, events: events, logger: logger.With("component", "shows"), contextTimeout: timeout}
}

func normalizeCurrency(c string) (string, error) {
	c = strings.ToUpper(strings.TrimSpace(c))
	if c == "" {
		return defaultCurrency, nil
	}
	if !currencyRegexp.MatchString(c) {
		return "", domain.Invalid("currency must be a 3-letter ISO code")
	}
	return c, nil
}

func normalizePrice(p decimal.Decimal) (decimal.Decimal, error) {
	if p.IsNegative() {
		return decimal.Zero, domain.Invalid("price cannot be negative")
	}
	return p.Round(2), nil
}

// checkShowTimes requires a show to start no earlier than its event and to end after it starts.
func checkShowTimes(e *domain.Event, startsAt time.Time, endsAt *time.Time) error {
	if startsAt.IsZero() {
		return domain.Invalid("starts_at is required")
	}
	if startsAt.Before(e.StartsAt) {
		return domain.Invalid("show cannot start before the event")
	}
	if endsAt != nil && !endsAt.After(startsAt) {
		return domain.Invalid("ends_at must be after starts_at")
	}
	return nil
}

func (s *showService) Create(ctx context.Context, caller domain.Principal, show *domain.Show) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	e, err := loadManageableEvent(ctx, s.events, caller, show.EventID)
	if err != nil {
		return err
	}
	show.Title = strings.TrimSpace(show.Title)
	if err := validateTitle(show.Title); err != nil {
		return err
	}
	if err := checkShowTimes(e, show.StartsAt, show.EndsAt); err != nil {
		return err
	}
	if show.SeatsTotal < 0 {
		return domain.Invalid("seats_total cannot be negative")
	}
	if show.Price, err = normalizePrice(show.Price); err != nil {
		return err
	}
	if show.Currency, err = normalizeCurrency(show.Currency); err != nil {
		return err
	}

	now := time.Now().UTC()
	show.CreatedAt, show.UpdatedAt = now, now
	if err := s.shows.Create(ctx, show); err != nil {
		return fmt.Errorf("create show: %w", err)
	}
	return nil
}

func (s *showService) List(ctx context.Context, caller *domain.Principal, eventID string) ([]*domain.Show, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if _, err := loadVisibleEvent(ctx, s.events, caller, eventID); err != nil {
		return nil, err
	}
	return s.shows.ListByEventID(ctx, eventID)
}

// loadShow returns the show only when it belongs to eventID.
func (s *showService) loadShow(ctx context.Context, eventID, showID string) (*domain.Show, error) {
	show, err := s.shows.GetByID(ctx, showID)
	if err != nil {
		return nil, err
	}
	if show.EventID != eventID {
		return nil, domain.ErrNotFound
	}
	return show, nil
}

func (s *showService) Update(ctx context.Context, caller domain.Principal, eventID, showID string, upd domain.ShowUpdate) (*domain.Show, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	e, err := loadManageableEvent(ctx, s.events, caller, eventID)
	if err != nil {
		return nil, err
	}
	show, err := s.loadShow(ctx, eventID, showID)
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
	startsAt, endsAt := show.StartsAt, show.EndsAt
	if upd.StartsAt != nil {
		startsAt = *upd.StartsAt
	}
	if upd.EndsAt != nil {
		endsAt = upd.EndsAt
	}
	if upd.StartsAt != nil || upd.EndsAt != nil {
		if err := checkShowTimes(e, startsAt, endsAt); err != nil {
			return nil, err
		}
	}
	if upd.Price != nil {
		p, err := normalizePrice(*upd.Price)
		if err != nil {
			return nil, err
		}
		upd.Price = &p
	}
	if upd.Currency != nil {
		c, err := normalizeCurrency(*upd.Currency)
		if err != nil {
			return nil, err
		}
		upd.Currency = &c
	}
	if upd.SeatsTotal != nil && *upd.SeatsTotal < 0 {
		return nil, domain.Invalid("seats_total cannot be negative")
	}
	return s.shows.Update(ctx, showID, upd)
}

func (s *showService) Delete(ctx context.Context, caller domain.Principal, eventID, showID string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if _, err := loadManageableEvent(ctx, s.events, caller, eventID); err != nil {
		return err
	}
	if _, err := s.loadShow(ctx, eventID, showID); err != nil {
		return err
	}
	return s.shows.Delete(ctx, showID)
}

func (s *showService) PriceSummary(ctx context.Context, caller *domain.Principal, eventID string) (*domain.PriceSummary, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if _, err := loadVisibleEvent(ctx, s.events, caller, eventID); err != nil {
		return nil, err
	}
	return s.shows.PriceSummary(ctx, eventID)
}
