package revocation

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis is a Registry backed by Redis, for multi-instance deployments.
// Entries are keyed "revoked:<session_id>" with TTL equal to the time until
// the token's own expiry, so Redis prunes the deny-list by itself.
type Redis struct {
	client *redis.Client
	prefix string
}

// NewRedis returns a Redis-backed registry using the given client.
func NewRedis(client *redis.Client) *Redis {
	return &Redis{
		client: client,
		prefix: "revoked:",
	}
}

func (r *Redis) key(sessionID string) string {
	return r.prefix + sessionID
}

// Revoke records the session until its token expiry. Already-expired
// sessions are skipped. Idempotent.
func (r *Redis) Revoke(ctx context.Context, sessionID string, expiresAt time.Time) error {
	if sessionID == "" {
		return nil
	}
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}
	return r.client.Set(ctx, r.key(sessionID), "1", ttl).Err()
}

// IsRevoked reports membership. Returns the error on Redis failure so the
// guard can fail closed.
func (r *Redis) IsRevoked(ctx context.Context, sessionID string) (bool, error) {
	n, err := r.client.Exists(ctx, r.key(sessionID)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
