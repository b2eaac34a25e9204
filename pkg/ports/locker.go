package ports

import (
	"context"
	"time"
)

// UnlockFunc is a function that releases a distributed lock.
type UnlockFunc func(ctx context.Context) error

// DistributedLocker defines the interface for cross-process concurrency
// control. When attached to the mutation serializer, destructive actions are
// additionally guarded across replicas, not just within this process.
type DistributedLocker interface {
	// Lock attempts to acquire a distributed lock for the given key.
	// It blocks until the lock is acquired or the context is canceled.
	// The TTL bounds how long a crashed holder can keep the key locked.
	// Returns an UnlockFunc that MUST be called to release the lock.
	Lock(ctx context.Context, key string, ttl time.Duration) (UnlockFunc, error)
}
