package api

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

type fakeLoginCounter struct {
	counts  map[string]int64
	expires map[string]time.Duration
}

func newFakeLoginCounter() *fakeLoginCounter {
	return &fakeLoginCounter{
		counts:  map[string]int64{},
		expires: map[string]time.Duration{},
	}
}

func (f *fakeLoginCounter) Incr(ctx context.Context, key string) *redis.IntCmd {
	f.counts[key]++
	cmd := redis.NewIntCmd(ctx)
	cmd.SetVal(f.counts[key])
	return cmd
}

func (f *fakeLoginCounter) Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd {
	f.expires[key] = expiration
	cmd := redis.NewBoolCmd(ctx)
	cmd.SetVal(true)
	return cmd
}

func TestCountLoginAttempt(t *testing.T) {
	ctx := context.Background()
	counter := newFakeLoginCounter()
	key := loginFailKey("fan@example.com")

	for want := int64(1); want <= 3; want++ {
		got, err := countLoginAttempt(ctx, counter, key, 15*time.Minute)
		if err != nil {
			t.Fatalf("count attempt %d: %v", want, err)
		}
		if got != want {
			t.Fatalf("count = %d, want %d", got, want)
		}
	}

	// The TTL is armed exactly once, on the first increment.
	if ttl, ok := counter.expires[key]; !ok || ttl != 15*time.Minute {
		t.Fatalf("expire = %v (set %v), want 15m set once", ttl, ok)
	}
}

func TestLoginThrottleKeys(t *testing.T) {
	at := time.Date(2026, 8, 29, 14, 30, 0, 0, time.UTC)
	if got := loginRateKey("10.0.0.1", "fan@example.com", at); got != "rate:login:10.0.0.1:fan@example.com:2026082914" {
		t.Fatalf("rate key = %q", got)
	}
	if got := loginFailKey("fan@example.com"); got != "lock:login:fail:fan@example.com" {
		t.Fatalf("fail key = %q", got)
	}
	if got := loginLockKey("fan@example.com"); got != "lock:login:fan@example.com" {
		t.Fatalf("lock key = %q", got)
	}
}
