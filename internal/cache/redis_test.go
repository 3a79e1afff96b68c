package cache

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maauso/jobfeed-api/internal/listing"
)

// setupRedis connects to TEST_REDIS_URL and skips the test when it is unset.
func setupRedis(t *testing.T) *redis.Client {
	t.Helper()
	url := os.Getenv("TEST_REDIS_URL")
	if url == "" {
		t.Skip("TEST_REDIS_URL not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	client, err := NewRedisClient(ctx, url)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestRedisCache_SetGet(t *testing.T) {
	client := setupRedis(t)
	c := NewRedisCache(client, time.Minute)
	ctx := context.Background()
	key := fmt.Sprintf("test|%d", time.Now().UnixNano())
	t.Cleanup(func() { client.Del(context.Background(), KeyPrefix+key) })

	_, ok, err := c.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)

	want := []listing.JobListing{{Title: "Senior Engineer", Source: "Portal", Company: "Acme"}}
	require.NoError(t, c.Set(ctx, key, want))

	got, ok, err := c.Get(ctx, key)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, want, got)

	ttl, err := client.TTL(ctx, KeyPrefix+key).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))
	assert.LessOrEqual(t, ttl, time.Minute)
}

func TestRedisCache_EmptyListIsAHit(t *testing.T) {
	client := setupRedis(t)
	c := NewRedisCache(client, time.Minute)
	ctx := context.Background()
	key := fmt.Sprintf("empty|%d", time.Now().UnixNano())
	t.Cleanup(func() { client.Del(context.Background(), KeyPrefix+key) })

	require.NoError(t, c.Set(ctx, key, nil))

	got, ok, err := c.Get(ctx, key)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, got)
}

func TestRedisCache_CorruptEntry(t *testing.T) {
	client := setupRedis(t)
	c := NewRedisCache(client, time.Minute)
	ctx := context.Background()
	key := fmt.Sprintf("corrupt|%d", time.Now().UnixNano())
	t.Cleanup(func() { client.Del(context.Background(), KeyPrefix+key) })

	require.NoError(t, client.Set(ctx, KeyPrefix+key, "not json", time.Minute).Err())

	_, ok, err := c.Get(ctx, key)
	assert.Error(t, err)
	assert.False(t, ok)
}

func TestRedisCache_Unreachable(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { _ = client.Close() })
	c := NewRedisCache(client, 0)

	_, ok, err := c.Get(context.Background(), "k")
	assert.Error(t, err)
	assert.False(t, ok)

	assert.Error(t, c.Set(context.Background(), "k", []listing.JobListing{{Title: "x"}}))
}

func TestNewRedisClient_InvalidURL(t *testing.T) {
	_, err := NewRedisClient(context.Background(), "not-a-redis-url")
	assert.Error(t, err)
}

func TestNewRedisCache_DefaultTTL(t *testing.T) {
	c := NewRedisCache(nil, 0)
	assert.Equal(t, DefaultTTL, c.ttl)
}
