package cache

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrMiss is returned by Get when the key does not exist.
var ErrMiss = errors.New("cache miss")

type RedisCache struct {
	client *redis.Client
}

func NewRedisCache(redisURL string) (*RedisCache, error) {
	// Parse redis URL (redis://host:port or redis://host:port/db)
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opts)

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	log.Printf("Connected to Redis at %s", redisURL)
	return NewFromClient(client), nil
}

// NewFromClient wraps an existing client.
func NewFromClient(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, error) {
	b, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrMiss
	}
	return b, err
}

func (c *RedisCache) Delete(ctx context.Context, key string) error {
	return c.client.Del(ctx, key).Err()
}

var setMaxScript = redis.NewScript(`
local cur = tonumber(redis.call("GET", KEYS[1]) or "")
if cur and cur >= tonumber(ARGV[1]) then
	return 0
end
redis.call("SET", KEYS[1], ARGV[1], "PX", ARGV[2])
return 1
`)

// SetMax stores value under key unless the key already holds a number at
// least as large. The stored value never moves backwards.
func (c *RedisCache) SetMax(ctx context.Context, key string, value int64, ttl time.Duration) error {
	return setMaxScript.Run(ctx, c.client, []string{key}, value, ttl.Milliseconds()).Err()
}

// Incr increments the counter at key and (re)arms its expiry to ttl on the
// first increment of a window.
func (c *RedisCache) Incr(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	pipe := c.client.Pipeline()

	incr := pipe.Incr(ctx, key)
	pipe.ExpireNX(ctx, key, ttl)

	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}

	return incr.Val(), nil
}

func (c *RedisCache) TTL(ctx context.Context, key string) (time.Duration, error) {
	return c.client.TTL(ctx, key).Result()
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

// TokenVersionKey is the key caching a user's access-token version.
func TokenVersionKey(userID int64) string {
	return fmt.Sprintf("token_version:%d", userID)
}

// RateKey is the counter key for one client and action.
// Format: "rate:client:action" (e.g., "rate:42:report_submit")
func RateKey(clientID, action string) string {
	return fmt.Sprintf("rate:%s:%s", clientID, action)
}
