// Package cache stores normalized listings in Redis between fetch cycles.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/maauso/jobfeed-api/internal/aggregator"
	"github.com/maauso/jobfeed-api/internal/listing"
)

// KeyPrefix namespaces every listing entry.
const KeyPrefix = "jobfeed:listings:"

// DefaultTTL is used when no positive TTL is configured.
const DefaultTTL = 5 * time.Minute

// Compile-time check that RedisCache implements aggregator.Cache.
var _ aggregator.Cache = (*RedisCache)(nil)

// NewRedisClient parses redisURL and verifies connectivity.
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("redis.ParseURL: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return client, nil
}

// RedisCache implements aggregator.Cache with JSON values and a fixed TTL.
type RedisCache struct {
	client redis.Cmdable
	ttl    time.Duration
}

// NewRedisCache creates a RedisCache.
func NewRedisCache(client redis.Cmdable, ttl time.Duration) *RedisCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisCache{client: client, ttl: ttl}
}

// Get returns the cached listings for key. A missing entry is not an error.
func (c *RedisCache) Get(ctx context.Context, key string) ([]listing.JobListing, bool, error) {
	data, err := c.client.Get(ctx, KeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get: %w", err)
	}

	var listings []listing.JobListing
	if err := json.Unmarshal(data, &listings); err != nil {
		return nil, false, fmt.Errorf("decode cached listings: %w", err)
	}
	return listings, true, nil
}

// Set stores listings under key until the TTL expires.
func (c *RedisCache) Set(ctx context.Context, key string, listings []listing.JobListing) error {
	if listings == nil {
		listings = []listing.JobListing{}
	}
	data, err := json.Marshal(listings)
	if err != nil {
		return fmt.Errorf("encode listings: %w", err)
	}
	if err := c.client.Set(ctx, KeyPrefix+key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}
