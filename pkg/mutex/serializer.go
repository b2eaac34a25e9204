// Package mutex implements the mutation serializer: keyed FIFO queues that
// guarantee units of work sharing a key execute strictly one at a time, in
// submission order, with automatic cleanup of idle keys.
//
// The serializer protects destructive tool actions from concurrent or
// duplicated agent calls. Unrelated keys never wait on each other, a failing
// unit never blocks its successors, and a context fired while a unit is still
// queued rejects only that unit.
package mutex

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/pergola/internal/logging"
	"github.com/aretw0/pergola/pkg/domain"
	"github.com/aretw0/pergola/pkg/ports"
)

// DefaultLockTTL bounds how long a crashed replica can hold a distributed
// lock when a DistributedLocker is attached.
const DefaultLockTTL = 30 * time.Second

// entry holds the chain tail and the waiter count for one key.
type entry struct {
	tail    chan struct{} // closed when the most recently enqueued unit settles
	waiters int
}

// Serializer executes units of work sharing a key strictly one at a time,
// in FIFO submission order. Entries are created lazily on first use of a key
// and removed once the last waiter leaves, so repeated use of the same key
// never leaks memory.
//
// The internal mutex guards only the key->tail map swap; units of work run
// outside any lock, so independent keys proceed in parallel.
type Serializer struct {
	mu      sync.Mutex
	entries map[string]*entry

	locker  ports.DistributedLocker // optional cross-replica lock
	lockTTL time.Duration
	logger  *slog.Logger
}

// Option configures the Serializer.
type Option func(*Serializer)

// WithLocker attaches a distributed locker. Each unit of work additionally
// acquires a cross-process lock for its key before running.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(s *Serializer) {
		s.locker = locker
	}
}

// WithLockTTL overrides the distributed lock TTL (default 30s).
func WithLockTTL(ttl time.Duration) Option {
	return func(s *Serializer) {
		s.lockTTL = ttl
	}
}

// WithLogger configures a logger for deferred errors (lock release failures).
func WithLogger(logger *slog.Logger) Option {
	return func(s *Serializer) {
		s.logger = logger
	}
}

// New creates an empty Serializer.
func New(opts ...Option) *Serializer {
	s := &Serializer{
		entries: make(map[string]*entry),
		lockTTL: DefaultLockTTL,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// settled is the resolved placeholder used as the previous link for the
// first unit enqueued on a fresh key.
var settled = func() chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}()

// Do runs fn under the FIFO chain for key.
//
// Enqueueing atomically swaps the stored tail for a new link; the caller then
// waits for the previous link to settle (success, failure or panic all count
// as settled) before running. If ctx fires while still queued, Do returns a
// cancelled error without running fn; the unit currently executing and any
// later waiters are unaffected. A unit that has already been dequeued runs to
// completion even if ctx fires afterwards.
func (s *Serializer) Do(ctx context.Context, key string, fn func(ctx context.Context) (any, error)) (any, error) {
	s.mu.Lock()
	e, ok := s.entries[key]
	if !ok {
		e = &entry{tail: settled}
		s.entries[key] = e
	}
	prev := e.tail
	done := make(chan struct{})
	e.tail = done
	e.waiters++
	s.mu.Unlock()

	leave := func() {
		s.mu.Lock()
		e.waiters--
		if e.waiters <= 0 {
			delete(s.entries, key)
		}
		s.mu.Unlock()
	}

	// Wait for our turn. The non-blocking attempt first means a unit whose
	// slot is already free always runs, even if ctx fired concurrently:
	// dequeue wins over a late cancellation.
	select {
	case <-prev:
	default:
		select {
		case <-prev:
		case <-ctx.Done():
			// Settle our link only after the predecessor settles, so
			// successors keep their position in the chain.
			go func() {
				<-prev
				close(done)
			}()
			leave()
			return nil, domain.NewCancelled(ctx)
		}
	}

	// Settle the link no matter how fn exits; a panicking unit must never
	// deadlock the chain.
	defer leave()
	defer close(done)

	if s.locker != nil {
		unlock, err := s.locker.Lock(ctx, key, s.lockTTL)
		if err != nil {
			return nil, fmt.Errorf("failed to acquire distributed lock for %q: %w", key, err)
		}
		defer func() {
			if err := unlock(context.WithoutCancel(ctx)); err != nil {
				s.logger.Warn("failed to release distributed lock (will expire via TTL)",
					"key", key,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}

// Len reports the number of keys with live chains. Idle keys are garbage
// collected, so a quiescent serializer always reports 0.
func (s *Serializer) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
