// Package redis provides a Redis-backed ports.DistributedLocker so that
// destructive serialization holds across engine replicas, not just within
// one process.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	backend "github.com/redis/go-redis/v9"

	"github.com/aretw0/pergola/pkg/ports"
)

// ErrLockAcquire is returned when the lock cannot be acquired.
var ErrLockAcquire = errors.New("failed to acquire distributed lock")

// retryInterval is the polling cadence between acquisition attempts.
const retryInterval = 100 * time.Millisecond

// releaseScript deletes the lock key only when the stored token matches,
// so a lock that expired and was re-acquired elsewhere is never released
// by the previous holder.
const releaseScript = `
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
else
	return 0
end
`

// Locker implements ports.DistributedLocker using Redis SET NX PX with a
// per-acquisition token and a check-and-delete release.
type Locker struct {
	client *backend.Client
	prefix string
}

// NewLocker creates a Redis locker. Keys are stored as "<prefix>lock:<key>".
func NewLocker(client *backend.Client, prefix string) *Locker {
	return &Locker{
		client: client,
		prefix: prefix,
	}
}

// Lock acquires the lock for key, polling until the context fires. The ttl
// bounds how long a crashed holder can block others.
func (l *Locker) Lock(ctx context.Context, key string, ttl time.Duration) (ports.UnlockFunc, error) {
	lockKey := l.prefix + "lock:" + key
	token := uuid.NewString()

	ticker := time.NewTicker(retryInterval)
	defer ticker.Stop()

	for {
		ok, err := l.client.SetNX(ctx, lockKey, token, ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("redis error acquiring lock: %w", err)
		}
		if ok {
			return func(ctx context.Context) error {
				return l.client.Eval(ctx, releaseScript, []string{lockKey}, token).Err()
			}, nil
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w for %q: %w", ErrLockAcquire, key, context.Cause(ctx))
		case <-ticker.C:
		}
	}
}
