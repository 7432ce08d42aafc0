package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"eventhub/internal/domain"
	"eventhub/internal/metrics"
)

const maxNotifyBatch = 100

type waitlistService struct {
	waitlist       domain.WaitlistRepository
	events         domain.EventRepository
	users          domain.UserRepository
	email          domain.EmailService
	audit          domain.AuditService
	appBaseURL     string
	logger         *slog.Logger
	contextTimeout time.Duration
}

func NewWaitlistService(
	waitlist domain.WaitlistRepository,
	events domain.EventRepository,
	users domain.UserRepository,
	email domain.EmailService,
	audit domain.AuditService,
	appBaseURL string,
	logger *slog.Logger,
	timeout time.Duration,
) domain.WaitlistService {
	return &waitlistService{
		waitlist:       waitlist,
		events:         events,
		users:          users,
		email:          email,
		audit:          audit,
		appBaseURL:     appBaseURL,
		logger:         logger.With("component", "waitlist"),
		contextTimeout: timeout,
	}
}

// Join adds the caller (or an anonymous email) to the waitlist of a published event.
// A logged-in caller defaults to their own email and name. Someone who left
// earlier rejoins at the end of the queue.
func (s *waitlistService) Join(ctx context.Context, caller *domain.Principal, eventID, email, name string) (*domain.WaitlistEntry, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	e, err := loadVisibleEvent(ctx, s.events, caller, eventID)
	if err != nil {
		return nil, err
	}
	if e.Status != domain.EventPublished {
		return nil, domain.Invalid("event is not open for registration")
	}
	if !e.WaitlistEnabled {
		return nil, domain.Invalid("event has no waitlist")
	}

	var userID *string
	name = strings.TrimSpace(name)
	if caller != nil {
		u, err := s.users.GetByID(ctx, caller.UserID)
		if err != nil {
			return nil, fmt.Errorf("get user: %w", err)
		}
		userID = &u.ID
		if strings.TrimSpace(email) == "" {
			email = u.Email
		}
		if name == "" {
			name = u.Name
		}
	}
	if email, err = validEmail(email); err != nil {
		return nil, err
	}

	existing, err := s.waitlist.GetByEventAndEmail(ctx, eventID, email)
	switch {
	case err == nil && existing.Status == domain.WaitlistCancelled:
		entry, err := s.waitlist.Requeue(ctx, eventID, existing.ID)
		if err != nil {
			return nil, fmt.Errorf("requeue waitlist entry: %w", err)
		}
		return entry, nil
	case err == nil:
		return nil, domain.ErrAlreadyOnWaitlist
	case !errors.Is(err, domain.ErrNotFound):
		return nil, fmt.Errorf("get waitlist entry: %w", err)
	}

	now := time.Now().UTC()
	entry := domain.NewWaitlistEntry(eventID, userID, email, name, now, now)
	if err := s.waitlist.Create(ctx, entry); err != nil {
		if errors.Is(err, domain.ErrAlreadyOnWaitlist) {
			return nil, domain.ErrAlreadyOnWaitlist
		}
		return nil, fmt.Errorf("create waitlist entry: %w", err)
	}
	return entry, nil
}

// loadEntry returns the entry only when it belongs to eventID.
func (s *waitlistService) loadEntry(ctx context.Context, eventID, entryID string) (*domain.WaitlistEntry, error) {
	entry, err := s.waitlist.GetByID(ctx, entryID)
	if err != nil {
		return nil, err
	}
	if entry.EventID != eventID {
		return nil, domain.ErrNotFound
	}
	return entry, nil
}

// Leave cancels an entry. The person on the list, the event owner and admins may do so.
// Positions of the remaining entries are kept.
func (s *waitlistService) Leave(ctx context.Context, caller domain.Principal, eventID, entryID string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	entry, err := s.loadEntry(ctx, eventID, entryID)
	if err != nil {
		return err
	}
	self := entry.UserID != nil && *entry.UserID == caller.UserID
	if !self {
		e, err := loadVisibleEvent(ctx, s.events, &caller, eventID)
		if err != nil {
			return err
		}
		if !e.ManageableBy(caller) {
			return domain.ErrForbidden
		}
	}
	switch entry.Status {
	case domain.WaitlistCancelled:
		return nil
	case domain.WaitlistConverted:
		return domain.Invalid("entry was already converted")
	}
	_, err = s.waitlist.UpdateStatus(ctx, entryID, domain.WaitlistCancelled)
	return err
}

func (s *waitlistService) List(ctx context.Context, caller domain.Principal, eventID string, status domain.WaitlistStatus, params domain.PaginationParams) ([]*domain.WaitlistEntry, int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if status != "" && !status.Valid() {
		return nil, 0, domain.Invalid(fmt.Sprintf("unknown status %q", status))
	}
	if _, err := loadManageableEvent(ctx, s.events, caller, eventID); err != nil {
		return nil, 0, err
	}
	return s.waitlist.ListByEventID(ctx, eventID, status, params)
}

// ListMine returns the caller's entries with their events. Entries whose event
// has since been removed are skipped.
func (s *waitlistService) ListMine(ctx context.Context, userID string) ([]*domain.WaitlistEntryWithEvent, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	entries, err := s.waitlist.ListByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list waitlist entries: %w", err)
	}
	out := make([]*domain.WaitlistEntryWithEvent, 0, len(entries))
	for _, entry := range entries {
		e, err := s.events.GetByID(ctx, entry.EventID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				continue
			}
			return nil, fmt.Errorf("get event: %w", err)
		}
		out = append(out, &domain.WaitlistEntryWithEvent{Entry: entry, Event: e})
	}
	return out, nil
}

// NotifyNext marks the next n waiting entries notified and emails them. Mail
// failures are logged and listed in the result; they do not fail the call.
func (s *waitlistService) NotifyNext(ctx context.Context, caller domain.Principal, eventID string, n int) (*domain.NotifyResult, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if n <= 0 {
		n = 1
	}
	if n > maxNotifyBatch {
		return nil, domain.Invalid(fmt.Sprintf("at most %d entries can be notified at once", maxNotifyBatch))
	}
	e, err := loadManageableEvent(ctx, s.events, caller, eventID)
	if err != nil {
		return nil, err
	}
	if e.Status != domain.EventPublished {
		return nil, domain.Invalid("event is not published")
	}

	next, err := s.waitlist.NextWaiting(ctx, eventID, n)
	if err != nil {
		return nil, fmt.Errorf("next waiting: %w", err)
	}
	result := &domain.NotifyResult{Notified: make([]*domain.WaitlistEntry, 0, len(next)), Failed: []string{}}
	if len(next) == 0 {
		return result, nil
	}

	now := time.Now().UTC()
	ids := make([]string, len(next))
	for i, entry := range next {
		ids[i] = entry.ID
	}
	if err := s.waitlist.MarkNotified(ctx, ids, now); err != nil {
		return nil, fmt.Errorf("mark notified: %w", err)
	}

	eventURL := s.appBaseURL + "/events/" + e.Slug
	for _, entry := range next {
		entry.Status = domain.WaitlistNotified
		entry.NotifiedAt = &now
		result.Notified = append(result.Notified, entry)

		err := s.email.SendWaitlistSpot(ctx, &domain.WaitlistSpotEmailData{
			Email:      entry.Email,
			Name:       entry.Name,
			EventTitle: e.Title,
			EventURL:   eventURL,
			Position:   entry.Position,
		})
		if err != nil {
			s.logger.Error("send waitlist email", "entry_id", entry.ID, "event_id", eventID, "error", err)
			metrics.WaitlistNotifications.WithLabelValues("failed").Inc()
			result.Failed = append(result.Failed, entry.ID)
			continue
		}
		metrics.WaitlistNotifications.WithLabelValues("sent").Inc()
	}

	if result.Waiting, err = s.waitlist.CountByEventID(ctx, eventID, domain.WaitlistWaiting); err != nil {
		s.logger.Warn("count waiting entries", "event_id", eventID, "error", err)
	}

	s.audit.Record(ctx, &caller.UserID, domain.AuditWaitlistNotify, "event", eventID, map[string]any{
		"notified": len(result.Notified),
		"failed":   len(result.Failed),
		"waiting":  result.Waiting,
	})
	return result, nil
}

func (s *waitlistService) Convert(ctx context.Context, caller domain.Principal, eventID, entryID string) (*domain.WaitlistEntry, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if _, err := loadManageableEvent(ctx, s.events, caller, eventID); err != nil {
		return nil, err
	}
	entry, err := s.loadEntry(ctx, eventID, entryID)
	if err != nil {
		return nil, err
	}
	switch entry.Status {
	case domain.WaitlistConverted:
		return entry, nil
	case domain.WaitlistCancelled:
		return nil, domain.Invalid("entry was cancelled")
	}
	return s.waitlist.UpdateStatus(ctx, entryID, domain.WaitlistConverted)
}
