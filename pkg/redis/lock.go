package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ErrLockNotAcquired is returned when a lock stays held by someone else for the whole wait.
var ErrLockNotAcquired = errors.New("lock not acquired")

const lockRetryInterval = 25 * time.Millisecond

// releaseScript deletes the key only if it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

// Locker serializes work per key across processes with SET NX PX.
type Locker struct {
	client *Client
	prefix string
	ttl    time.Duration
	wait   time.Duration
}

// NewLocker creates a locker. ttl bounds how long a crashed holder blocks the key;
// wait bounds how long Lock polls for a held key.
func NewLocker(client *Client, prefix string, ttl, wait time.Duration) *Locker {
	return &Locker{client: client, prefix: prefix, ttl: ttl, wait: wait}
}

// Lock acquires key and returns its release func.
func (l *Locker) Lock(ctx context.Context, key string) (func(), error) {
	full := l.prefix + key
	token := uuid.NewString()
	deadline := time.Now().Add(l.wait)
	for {
		ok, err := l.client.SetNX(ctx, full, token, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("lock %s: %w", full, err)
		}
		if ok {
			break
		}
		if time.Now().After(deadline) {
			return nil, ErrLockNotAcquired
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(lockRetryInterval):
		}
	}
	return func() {
		// release with a fresh context so a cancelled request still frees the key
		rctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		if err := releaseScript.Run(rctx, l.client, []string{full}, token).Err(); err != nil {
			l.client.logger.Warn("lock release failed", zap.String("key", full), zap.Error(err))
		}
	}, nil
}
