package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// TokenCache implements ports.TokenCache using Redis. A single key holds
// the current gateway access token; the TTL set alongside it keeps the
// cache from ever serving a token past its lifetime.
type TokenCache struct {
	client *goredis.Client
	key    string
}

// NewTokenCache creates a new Redis-backed token cache.
func NewTokenCache(client *goredis.Client) *TokenCache {
	return &TokenCache{
		client: client,
		key:    "daraja:access_token",
	}
}

// Get retrieves the cached access token.
// Returns "", nil when no token is cached.
func (c *TokenCache) Get(ctx context.Context) (string, error) {
	val, err := c.client.Get(ctx, c.key).Result()
	if err != nil {
		if err == goredis.Nil {
			return "", nil
		}
		return "", fmt.Errorf("redis token get: %w", err)
	}
	return val, nil
}

// Set stores an access token with the given TTL.
func (c *TokenCache) Set(ctx context.Context, token string, ttl time.Duration) error {
	if err := c.client.Set(ctx, c.key, token, ttl).Err(); err != nil {
		return fmt.Errorf("redis token set: %w", err)
	}
	return nil
}
