package sessions

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// package-level Redis client used for the logout blacklist (optional)
var blacklistClient *redis.Client

// SetBlacklistClient configures the Redis client used for blacklist
// operations. Safe to call with nil to disable blacklist features; logout
// then degrades to clearing the cookie client-side only.
func SetBlacklistClient(c *redis.Client) {
	blacklistClient = c
}

// BlacklistSessionToken stores the token in the Redis blacklist with TTL, so
// a logged-out session cookie stops working before its JWT expiry. If no
// Redis client is configured this is a no-op and returns nil.
func BlacklistSessionToken(ctx context.Context, token string, ttl time.Duration) error {
	if blacklistClient == nil {
		return nil
	}
	key := "blacklist:session:" + token
	return blacklistClient.Set(ctx, key, "1", ttl).Err()
}

// IsSessionTokenBlacklisted returns true when the token exists in the Redis
// blacklist. If no Redis client is configured, returns (false, nil).
func IsSessionTokenBlacklisted(ctx context.Context, token string) (bool, error) {
	if blacklistClient == nil {
		return false, nil
	}
	key := "blacklist:session:" + token
	exists, err := blacklistClient.Exists(ctx, key).Result()
	if err != nil {
		return false, err
	}
	return exists > 0, nil
}
