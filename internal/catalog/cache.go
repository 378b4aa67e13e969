package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

const listingVersionKey = "catalog:listing:version"

// CacheObserver records cache hits and misses.
type CacheObserver interface {
	ObserveListingCache(hit bool)
}

// ListingCache stores product and category listings in Redis under a
// version number. Invalidate bumps the version so every cached listing
// becomes unreachable at once, on every instance sharing the Redis.
type ListingCache struct {
	client   *redis.Client
	ttl      time.Duration
	logger   *slog.Logger
	observer CacheObserver
	group    singleflight.Group
}

// NewListingCache builds the cache. A nil client disables caching.
func NewListingCache(client *redis.Client, ttl time.Duration, logger *slog.Logger, observer CacheObserver) *ListingCache {
	if logger == nil {
		logger = slog.Default()
	}
	return &ListingCache{client: client, ttl: ttl, logger: logger, observer: observer}
}

// Version returns the current listing version, initialising it when missing.
func (c *ListingCache) Version(ctx context.Context) (int64, error) {
	if c == nil || c.client == nil {
		return 0, nil
	}
	ver, err := c.client.Get(ctx, listingVersionKey).Int64()
	if errors.Is(err, redis.Nil) {
		if err := c.client.SetNX(ctx, listingVersionKey, 1, 0).Err(); err != nil {
			return 0, err
		}
		return c.client.Get(ctx, listingVersionKey).Int64()
	}
	return ver, err
}

// Invalidate marks every cached listing stale.
func (c *ListingCache) Invalidate(ctx context.Context) error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Incr(ctx, listingVersionKey).Err()
}

// Fetch loads name from the cache or populates it with loader. Concurrent
// misses for the same key share a single loader call. Redis failures fall
// back to the loader.
func Fetch[T any](ctx context.Context, c *ListingCache, name string, loader func(context.Context) (T, error)) (T, error) {
	if c == nil || c.client == nil {
		return loader(ctx)
	}
	ver, err := c.Version(ctx)
	if err != nil {
		c.logger.Warn("listing cache version", slog.Any("error", err))
		return loader(ctx)
	}
	key := fmt.Sprintf("catalog:listing:%s:%d", name, ver)

	var zero T
	payload, err := c.client.Get(ctx, key).Bytes()
	if err == nil {
		var cached T
		if err := json.Unmarshal(payload, &cached); err == nil {
			c.observe(true)
			return cached, nil
		}
	} else if !errors.Is(err, redis.Nil) {
		c.logger.Warn("listing cache get", slog.String("key", key), slog.Any("error", err))
	}
	c.observe(false)

	value, err, _ := c.group.Do(key, func() (interface{}, error) {
		loaded, err := loader(ctx)
		if err != nil {
			return nil, err
		}
		raw, err := json.Marshal(loaded)
		if err == nil {
			if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
				c.logger.Warn("listing cache set", slog.String("key", key), slog.Any("error", err))
			}
		}
		return loaded, nil
	})
	if err != nil {
		return zero, err
	}
	return value.(T), nil
}

func (c *ListingCache) observe(hit bool) {
	if c.observer != nil {
		c.observer.ObserveListingCache(hit)
	}
}
