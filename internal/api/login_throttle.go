package api

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis keys for login throttling. The rate key buckets attempts per
// IP+email per clock hour; the fail counter and the lock it arms share the
// configured lock TTL.
const (
	loginRateKeyPrefix = "rate:login:"
	loginFailKeyPrefix = "lock:login:fail:"
	loginLockKeyPrefix = "lock:login:"
)

func loginRateKey(ip, email string, now time.Time) string {
	return loginRateKeyPrefix + ip + ":" + email + ":" + now.UTC().Format("2006010215")
}

func loginFailKey(email string) string {
	return loginFailKeyPrefix + email
}

func loginLockKey(email string) string {
	return loginLockKeyPrefix + email
}

// loginCounter is the slice of the redis client the throttle needs.
type loginCounter interface {
	Incr(ctx context.Context, key string) *redis.IntCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
}

// countLoginAttempt bumps a throttle counter, arming its TTL on first use so
// abandoned buckets expire on their own.
func countLoginAttempt(ctx context.Context, client loginCounter, key string, ttl time.Duration) (int64, error) {
	count, err := client.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	if count == 1 {
		_ = client.Expire(ctx, key, ttl).Err()
	}
	return count, nil
}
