// Package revocation keeps a short-lived registry of revoked token hashes so
// a token already denied once is refused without re-resolving its claims.
// Only SHA-256 hashes are stored; claims never leave the evaluation.
package revocation

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type Registry interface {
	Revoke(ctx context.Context, tokenHash string, ttl time.Duration) error
	IsRevoked(ctx context.Context, tokenHash string) (bool, error)
}

type redisRegistry struct {
	client *redis.Client
}

func NewRedisClient(url string, poolSize int) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	opt.PoolSize = poolSize

	client := redis.NewClient(opt)

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return client, nil
}

func NewRegistry(client *redis.Client) Registry {
	return &redisRegistry{client: client}
}

func (r *redisRegistry) Revoke(ctx context.Context, tokenHash string, ttl time.Duration) error {
	key := fmt.Sprintf("gate:revoked:%s", tokenHash)
	if err := r.client.Set(ctx, key, "1", ttl).Err(); err != nil {
		return fmt.Errorf("failed to record revoked token: %w", err)
	}
	return nil
}

func (r *redisRegistry) IsRevoked(ctx context.Context, tokenHash string) (bool, error) {
	key := fmt.Sprintf("gate:revoked:%s", tokenHash)
	err := r.client.Get(ctx, key).Err()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to query revoked token: %w", err)
	}
	return true, nil
}

// HashToken derives the registry key material for a token.
func HashToken(token string) string {
	hash := sha256.Sum256([]byte(token))
	return hex.EncodeToString(hash[:])
}
