package gcal

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/knakajima/slotpicker/services/interview-service/internal/availability"
	"github.com/redis/go-redis/v9"
)

// Service fronts the client with a short-lived Redis cache so that a user
// re-submitting the form does not hit the Google API on every request. With
// a nil cache it degrades to direct fetches.
type Service struct {
	client *Client
	cache  *Cache
	logger *slog.Logger
}

func NewService(client *Client, cache *Cache, logger *slog.Logger) *Service {
	return &Service{client: client, cache: cache, logger: logger}
}

func (s *Service) Events(ctx context.Context, email string, refresh bool) ([]availability.CalendarEvent, error) {
	if s.cache != nil && !refresh {
		if events, ok := s.cache.Get(ctx, email); ok {
			return events, nil
		}
	}
	events, err := s.client.Events(ctx, email)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		s.cache.Set(ctx, email, events)
	}
	return events, nil
}

type Cache struct {
	rdb    *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

func NewCache(rdb *redis.Client, ttl time.Duration, logger *slog.Logger) *Cache {
	if ttl <= 0 {
		ttl = 2 * time.Minute
	}
	return &Cache{rdb: rdb, ttl: ttl, logger: logger}
}

func cacheKey(email string) string {
	return "calendar:events:" + email
}

// Get is best-effort: a Redis failure means a cache miss, never an error.
func (c *Cache) Get(ctx context.Context, email string) ([]availability.CalendarEvent, bool) {
	raw, err := c.rdb.Get(ctx, cacheKey(email)).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("calendar cache read failed", "err", err)
		}
		return nil, false
	}
	var events []availability.CalendarEvent
	if err := json.Unmarshal(raw, &events); err != nil {
		c.logger.Warn("calendar cache entry corrupt", "err", err)
		return nil, false
	}
	return events, true
}

func (c *Cache) Set(ctx context.Context, email string, events []availability.CalendarEvent) {
	raw, err := json.Marshal(events)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, cacheKey(email), raw, c.ttl).Err(); err != nil {
		c.logger.Warn("calendar cache write failed", "err", err)
	}
}

func (c *Cache) Invalidate(ctx context.Context, email string) {
	if err := c.rdb.Del(ctx, cacheKey(email)).Err(); err != nil {
		c.logger.Warn("calendar cache invalidation failed", "err", err)
	}
}
