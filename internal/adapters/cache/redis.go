// Package cache provides the Redis backed read-through cache for public events.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"eventhub/internal/domain"
	"eventhub/internal/metrics"
)

const eventKeyPrefix = "eventhub:event:slug:"

// NewRedisClient parses a redis:// URL, applies pool settings and pings the server.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	opts.PoolSize = 50
	opts.MinIdleConns = 5
	opts.MaxRetries = 3

	client := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

type redisEventCache struct {
	client redis.Cmdable
	ttl    time.Duration
	logger *slog.Logger
}

// NewEventCache returns a domain.EventCache storing events as JSON keyed by slug.
func NewEventCache(client redis.Cmdable, ttl time.Duration, logger *slog.Logger) domain.EventCache {
	return &redisEventCache{client: client, ttl: ttl, logger: logger.With("component", "event_cache")}
}

func eventKey(slug string) string {
	return eventKeyPrefix + slug
}

func (c *redisEventCache) Get(ctx context.Context, slug string) (*domain.Event, error) {
	raw, err := c.client.Get(ctx, eventKey(slug)).Bytes()
	if errors.Is(err, redis.Nil) {
		metrics.CacheRequests.WithLabelValues("miss").Inc()
		return nil, domain.ErrCacheMiss
	}
	if err != nil {
		metrics.CacheRequests.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("cache get: %w", err)
	}
	var e domain.Event
	if err := json.Unmarshal(raw, &e); err != nil {
		// A payload we cannot decode is treated as a miss and evicted.
		c.logger.Warn("dropping undecodable cache entry", "slug", slug, "error", err)
		_ = c.client.Del(ctx, eventKey(slug)).Err()
		metrics.CacheRequests.WithLabelValues("miss").Inc()
		return nil, domain.ErrCacheMiss
	}
	metrics.CacheRequests.WithLabelValues("hit").Inc()
	return &e, nil
}

func (c *redisEventCache) Set(ctx context.Context, e *domain.Event) error {
	raw, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("cache marshal: %w", err)
	}
	if err := c.client.Set(ctx, eventKey(e.Slug), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache set: %w", err)
	}
	return nil
}

func (c *redisEventCache) Delete(ctx context.Context, slug string) error {
	if err := c.client.Del(ctx, eventKey(slug)).Err(); err != nil {
		return fmt.Errorf("cache delete: %w", err)
	}
	return nil
}

type noopEventCache struct{}

// NewNoopEventCache is used when Redis is not configured; every Get misses.
func NewNoopEventCache() domain.EventCache {
	return noopEventCache{}
}

func (noopEventCache) Get(context.Context, string) (*domain.Event, error) {
	return nil, domain.ErrCacheMiss
}

func (noopEventCache) Set(context.Context, *domain.Event) error { return nil }

func (noopEventCache) Delete(context.Context, string) error { return nil }
