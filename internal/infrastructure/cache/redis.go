package cache

import (
	"context"
	"fmt"
	"time"

	"scan-review-service/config"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

func NewRedisClient(cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// Test connection
	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logrus.Info("Successfully connected to Redis")

	return client, nil
}

// RevokedTokenKeyPrefix prefixes denylist entries, keyed by token id (jti)
const RevokedTokenKeyPrefix = "revoked_token:"

// TokenDenylist stores identity-provider token ids that must no longer be accepted
type TokenDenylist struct {
	client *redis.Client
}

func NewTokenDenylist(client *redis.Client) *TokenDenylist {
	return &TokenDenylist{client: client}
}

// IsRevoked checks if the token id has been revoked
func (d *TokenDenylist) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	exists, err := d.client.Exists(ctx, RevokedTokenKeyPrefix+tokenID).Result()
	if err != nil {
		return false, err
	}
	return exists > 0, nil
}

// Revoke adds the token id to the denylist until the token would have expired anyway
func (d *TokenDenylist) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	return d.client.Set(ctx, RevokedTokenKeyPrefix+tokenID, "1", ttl).Err()
}
