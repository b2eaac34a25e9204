package mutex

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/pergola/pkg/domain"
)

// recorder collects completion order across goroutines.
type recorder struct {
	mu    sync.Mutex
	order []int
}

func (r *recorder) add(i int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.order = append(r.order, i)
}

func (r *recorder) snapshot() []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int(nil), r.order...)
}

func TestSerializer_FIFOPerKey(t *testing.T) {
	s := New()
	ctx := context.Background()
	rec := &recorder{}

	// Three concurrent units on one key with DECREASING internal delays.
	// Submission order must still equal completion order.
	var wg sync.WaitGroup
	for i := 1; i <= 3; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := s.Do(ctx, "users.delete", func(ctx context.Context) (any, error) {
				time.Sleep(time.Duration(50-i*10) * time.Millisecond)
				rec.add(i)
				return i, nil
			})
			require.NoError(t, err)
		}(i)
		// Stagger submissions so enqueue order is deterministic.
		time.Sleep(10 * time.Millisecond)
	}
	wg.Wait()

	assert.Equal(t, []int{1, 2, 3}, rec.snapshot())
	assert.Equal(t, 0, s.Len(), "idle keys must be garbage collected")
}

func TestSerializer_IndependentKeysRunInParallel(t *testing.T) {
	s := New()
	ctx := context.Background()

	slowStarted := make(chan struct{})
	release := make(chan struct{})

	go func() {
		_, _ = s.Do(ctx, "key-a", func(ctx context.Context) (any, error) {
			close(slowStarted)
			<-release
			return nil, nil
		})
	}()
	<-slowStarted

	// A fast unit on an unrelated key must not wait for key-a.
	done := make(chan struct{})
	go func() {
		_, err := s.Do(ctx, "key-b", func(ctx context.Context) (any, error) {
			return "fast", nil
		})
		require.NoError(t, err)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("unit on independent key was blocked by another key's chain")
	}
	close(release)
}

func TestSerializer_FailureDoesNotBlockSuccessors(t *testing.T) {
	s := New()
	ctx := context.Background()

	_, err := s.Do(ctx, "k", func(ctx context.Context) (any, error) {
		return nil, errors.New("boom")
	})
	require.EqualError(t, err, "boom")

	v, err := s.Do(ctx, "k", func(ctx context.Context) (any, error) {
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", v)
}

func TestSerializer_PanicSettlesLink(t *testing.T) {
	s := New()
	ctx := context.Background()

	func() {
		defer func() {
			require.NotNil(t, recover(), "panic should propagate to the caller")
		}()
		_, _ = s.Do(ctx, "k", func(ctx context.Context) (any, error) {
			panic("handler bug")
		})
	}()

	// The chain must not deadlock on the panicked predecessor.
	done := make(chan struct{})
	go func() {
		_, err := s.Do(ctx, "k", func(ctx context.Context) (any, error) { return nil, nil })
		require.NoError(t, err)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("successor deadlocked behind a panicked unit")
	}
	assert.Equal(t, 0, s.Len())
}

func TestSerializer_QueuedCancellation(t *testing.T) {
	s := New()
	rec := &recorder{}

	firstRunning := make(chan struct{})
	release := make(chan struct{})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, err := s.Do(context.Background(), "k", func(ctx context.Context) (any, error) {
			close(firstRunning)
			<-release
			rec.add(1)
			return nil, nil
		})
		require.NoError(t, err)
	}()
	<-firstRunning

	// Second unit queues behind the first, then its context fires.
	ctx2, cancel2 := context.WithCancel(context.Background())
	wg.Add(1)
	var second error
	go func() {
		defer wg.Done()
		_, second = s.Do(ctx2, "k", func(ctx context.Context) (any, error) {
			rec.add(2)
			return nil, nil
		})
	}()

	time.Sleep(20 * time.Millisecond)
	cancel2()
	time.Sleep(20 * time.Millisecond)

	// A third unit submitted after the cancelled one must still run.
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, err := s.Do(context.Background(), "k", func(ctx context.Context) (any, error) {
			rec.add(3)
			return nil, nil
		})
		require.NoError(t, err)
	}()

	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	require.Error(t, second)
	assert.ErrorIs(t, second, domain.ErrCancelled)
	assert.Equal(t, []int{1, 3}, rec.snapshot(), "cancelled unit must never run; neighbors unaffected")
	assert.Equal(t, 0, s.Len())
}

func TestSerializer_DequeuedUnitRunsDespiteLateCancel(t *testing.T) {
	s := New()

	// The key is idle, so the unit is dequeued immediately; a context that is
	// already cancelled at submission still wins the non-blocking turn check.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ran := false
	_, err := s.Do(ctx, "k", func(ctx context.Context) (any, error) {
		ran = true
		return nil, nil
	})
	require.NoError(t, err)
	assert.True(t, ran, "a dequeued unit always runs to completion")
}

func TestSerializer_NoLeakUnderChurn(t *testing.T) {
	s := New()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 200; i++ {
		key := fmt.Sprintf("key-%d", i%10)
		wg.Add(1)
		go func(key string) {
			defer wg.Done()
			_, _ = s.Do(ctx, key, func(ctx context.Context) (any, error) {
				return nil, nil
			})
		}(key)
	}
	wg.Wait()

	assert.Equal(t, 0, s.Len(), "no key survives its last consumer")
}

func TestSerializer_ReturnsUnitValue(t *testing.T) {
	s := New()

	v, err := s.Do(context.Background(), "k", func(ctx context.Context) (any, error) {
		return 42, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 42, v)
}
