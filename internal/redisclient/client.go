package redisclient

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// Client wraps Redis for read-through entity caching and the auth
// endpoint rate limiter. Inventory is never served from here; Postgres
// is the single writer of stock.
type Client struct {
	rdb *redis.Client
}

// NewClient creates a new Redis client
func NewClient(addr, password string, db int) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Client{rdb: rdb}, nil
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}

// GetCached loads a cached JSON value into dest. Returns false on a
// cache miss.
func (c *Client) GetCached(ctx context.Context, key string, dest interface{}) (bool, error) {
	data, err := c.rdb.Get(ctx, key).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal([]byte(data), dest); err != nil {
		return false, fmt.Errorf("failed to decode cached value: %w", err)
	}
	return true, nil
}

// SetCached stores a JSON value with a TTL
func (c *Client) SetCached(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode value: %w", err)
	}
	return c.rdb.Set(ctx, key, data, ttl).Err()
}

// Invalidate drops cached keys
func (c *Client) Invalidate(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return c.rdb.Del(ctx, keys...).Err()
}

const revokedKeyPrefix = "auth:revoked:"

// RevokeToken marks a token as signed out until its own expiry; after
// that the key is pointless and the TTL drops it.
func (c *Client) RevokeToken(ctx context.Context, token string, ttl time.Duration) error {
	return c.rdb.Set(ctx, revokedKeyPrefix+token, "1", ttl).Err()
}

// IsTokenRevoked reports whether a token has been signed out
func (c *Client) IsTokenRevoked(ctx context.Context, token string) (bool, error) {
	n, err := c.rdb.Exists(ctx, revokedKeyPrefix+token).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// IncrWindow implements a fixed-window counter: the first increment in
// a window starts the expiry clock.
func (c *Client) IncrWindow(ctx context.Context, key string, window time.Duration) (int64, error) {
	count, err := c.rdb.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	if count == 1 {
		if err := c.rdb.Expire(ctx, key, window).Err(); err != nil {
			return count, err
		}
	}
	return count, nil
}
