package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"eventhub/internal/domain"
)

const (
	minPasswordLen = 8
	maxTitleLen    = 200

	// currentPolicyVersion is recorded with consents given at signup.
	currentPolicyVersion = "2025-01"
)

var emailRegexp = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// validEmail normalizes email and checks its format.
func validEmail(email string) (string, error) {
	email = normalizeEmail(email)
	if !emailRegexp.MatchString(email) {
		return "", domain.Invalid("invalid email format")
	}
	return email, nil
}

// loadVisibleEvent returns the event when caller may read it. Hidden events
// are reported as not found.
func loadVisibleEvent(ctx context.Context, events domain.EventRepository, caller *domain.Principal, id string) (*domain.Event, error) {
	e, err := events.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	if !e.VisibleTo(caller) {
		return nil, domain.ErrNotFound
	}
	return e, nil
}

// loadManageableEvent returns the event when caller owns it or is an admin.
func loadManageableEvent(ctx context.Context, events domain.EventRepository, caller domain.Principal, id string) (*domain.Event, error) {
	e, err := loadVisibleEvent(ctx, events, &caller, id)
	if err != nil {
		return nil, err
	}
	if !e.ManageableBy(caller) {
		return nil, domain.ErrForbidden
	}
	return e, nil
}

func validCoordinates(lat, lng *float64) error {
	if (lat == nil) != (lng == nil) {
		return domain.Invalid("latitude and longitude must be given together")
	}
	if lat != nil && (*lat < -90 || *lat > 90) {
		return domain.Invalid("latitude must be between -90 and 90")
	}
	if lng != nil && (*lng < -180 || *lng > 180) {
		return domain.Invalid("longitude must be between -180 and 180")
	}
	return nil
}
