package redisrepo

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const blacklistPrefix = "token_blacklist:"

// TokenCache stores revoked JWTs in Redis until their natural expiry.
// Logout writes here; the auth middleware checks here.
type TokenCache struct {
	client *redis.Client
	logger *zap.Logger
}

// NewTokenCache connects to Redis and verifies the connection.
func NewTokenCache(redisURL string, logger *zap.Logger) (*TokenCache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.Info("Successfully connected to Redis")
	return &TokenCache{client: client, logger: logger}, nil
}

// Blacklist marks a token as revoked. The TTL should be the remaining
// lifetime of the token; entries expire with the token itself.
func (c *TokenCache) Blacklist(token string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil // already expired, nothing to revoke
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := c.client.Set(ctx, blacklistPrefix+token, "revoked", ttl).Err(); err != nil {
		c.logger.Error("Failed to blacklist token", zap.Error(err))
		return fmt.Errorf("failed to blacklist token: %w", err)
	}
	return nil
}

// IsBlacklisted reports whether a token has been revoked.
func (c *TokenCache) IsBlacklisted(token string) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	n, err := c.client.Exists(ctx, blacklistPrefix+token).Result()
	if err != nil {
		c.logger.Error("Failed to check token blacklist", zap.Error(err))
		return false, fmt.Errorf("failed to check token blacklist: %w", err)
	}
	return n > 0, nil
}

// Close releases the underlying Redis connection.
func (c *TokenCache) Close() error {
	return c.client.Close()
}
