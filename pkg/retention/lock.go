package retention

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
)

// lockKey is the single key contended across pods; every retention sweep
// guards the same critical section, so one key covers all of it.
const lockKey = "meetingscribe:retention:sweep-lock"

// Locker elects a single winner across pods for one sweep round. Grounded
// on iamprashant-voice-ai's RTPPortAllocator: a bare *redis.Client plus an
// atomic, TTL-bounded operation, rather than a heavier clustering library.
type Locker interface {
	// TryAcquire attempts to claim key for ttl. If acquired, release must
	// be called (with a context safe to use even after ctx is done) to
	// free the lock early; otherwise it expires on its own after ttl.
	TryAcquire(ctx context.Context, key string, ttl time.Duration) (acquired bool, release func(context.Context), err error)
}

// RedisLocker implements Locker with Redis SET...NX EX, the standard
// single-instance distributed-lock idiom (good enough here: losing the
// lock early just means two pods sweep once, which is harmless since
// every sweep operation is idempotent).
type RedisLocker struct {
	client *redis.Client
	token  string // unique per-process, so one pod never releases another's lock
}

// NewRedisLocker builds a RedisLocker. token should be unique per process;
// NewLockerFromConfig derives one automatically from hostname:pid.
func NewRedisLocker(client *redis.Client, token string) *RedisLocker {
	return &RedisLocker{client: client, token: token}
}

// NewLockerFromConfig builds a RedisLocker from RedisConfig, or returns a
// true nil Locker interface (disabling the lock) if AddrEnv is unset or
// empty. Returning the interface type, not *RedisLocker, matters here: a
// nil *RedisLocker boxed into a Locker is a non-nil interface, which would
// defeat Service's "s.locker != nil" guard. Mirrors notify.NewWebhookSender's
// "cfg may describe a disabled feature" shape.
func NewLockerFromConfig(addrEnv string) Locker {
	addr := os.Getenv(addrEnv)
	if addr == "" {
		return nil
	}
	hostname, _ := os.Hostname()
	token := fmt.Sprintf("%s:%d", hostname, os.Getpid())
	return NewRedisLocker(redis.NewClient(&redis.Options{Addr: addr}), token)
}

// TryAcquire implements Locker.
func (l *RedisLocker) TryAcquire(ctx context.Context, key string, ttl time.Duration) (bool, func(context.Context), error) {
	acquired, err := l.client.SetNX(ctx, key, l.token, ttl).Result()
	if err != nil {
		return false, nil, fmt.Errorf("acquire retention lock: %w", err)
	}
	if !acquired {
		return false, nil, nil
	}
	release := func(releaseCtx context.Context) {
		// Only delete if we still hold it: a Lua-free best-effort check-then-
		// delete is fine here since losing the race just leaves the key to
		// expire on its own TTL.
		if val, err := l.client.Get(releaseCtx, key).Result(); err == nil && val == l.token {
			l.client.Del(releaseCtx, key)
		}
	}
	return true, release, nil
}
