package domain

import (
	"context"
	"errors"
)

// ErrCacheMiss is returned by caches when the key is absent.
var ErrCacheMiss = errors.New("cache miss")

// EventCache caches published events by slug.
type EventCache interface {
	Get(ctx context.Context, slug string) (*Event, error)
	Set(ctx context.Context, event *Event) error
	Delete(ctx context.Context, slug string) error
}
