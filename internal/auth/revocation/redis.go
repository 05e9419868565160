package revocation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const revokedKeyPrefix = "paperflow:revoked:"

// Redis is a Redis-backed revocation list for deployments with more than
// one instance, where revocation state must be shared.
type Redis struct {
	client *redis.Client
}

// NewRedis constructs a Redis-backed revocation list.
func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client}
}

// Revoke marks a jti revoked with an expiry matching the token lifetime.
func (r *Redis) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	if jti == "" {
		return nil
	}
	if err := r.client.Set(ctx, revokedKeyPrefix+jti, "1", ttl).Err(); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

// IsRevoked reports whether a jti is currently revoked.
func (r *Redis) IsRevoked(ctx context.Context, jti string) (bool, error) {
	err := r.client.Get(ctx, revokedKeyPrefix+jti).Err()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("revocation lookup: %w", err)
	}
	return true, nil
}
