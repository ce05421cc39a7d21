package keylock

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aretw0/mermaidviz/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_LockLifecycle(t *testing.T) {
	mgr := NewManager()
	ctx := context.Background()
	count := 10000

	for i := 0; i < count; i++ {
		key := fmt.Sprintf("key-%d", i)
		_ = mgr.WithLock(ctx, key, func(context.Context) error { return nil })
	}

	assert.Equal(t, 0, mgr.Active(), "locks should be released after use")
}

func TestManager_SerializesSameKey(t *testing.T) {
	mgr := NewManager()
	ctx := context.Background()

	var inside, maxInside int32
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := mgr.WithLock(ctx, "same", func(context.Context) error {
				n := atomic.AddInt32(&inside, 1)
				for {
					cur := atomic.LoadInt32(&maxInside)
					if n <= cur || atomic.CompareAndSwapInt32(&maxInside, cur, n) {
						break
					}
				}
				time.Sleep(5 * time.Millisecond)
				atomic.AddInt32(&inside, -1)
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), maxInside, "only one holder at a time")
	assert.Equal(t, 0, mgr.Active())
}

func TestManager_PropagatesError(t *testing.T) {
	mgr := NewManager()
	boom := errors.New("boom")

	err := mgr.WithLock(context.Background(), "k", func(context.Context) error { return boom })
	assert.ErrorIs(t, err, boom)
}

type stubLocker struct {
	locked, unlocked int
	err              error
}

func (s *stubLocker) Lock(ctx context.Context, key string, ttl time.Duration) (ports.UnlockFunc, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.locked++
	return func(context.Context) error {
		s.unlocked++
		return nil
	}, nil
}

func TestManager_DistributedLocker(t *testing.T) {
	locker := &stubLocker{}
	mgr := NewManager(WithLocker(locker), WithTTL(time.Second))

	require.NoError(t, mgr.WithLock(context.Background(), "k", func(context.Context) error { return nil }))
	assert.Equal(t, 1, locker.locked)
	assert.Equal(t, 1, locker.unlocked)
}

func TestManager_DistributedLockerFailure(t *testing.T) {
	locker := &stubLocker{err: errors.New("redis down")}
	mgr := NewManager(WithLocker(locker))

	called := false
	err := mgr.WithLock(context.Background(), "k", func(context.Context) error {
		called = true
		return nil
	})
	assert.Error(t, err)
	assert.False(t, called)
	assert.Equal(t, 0, mgr.Active())
}

func TestManager_WaiterHonorsContext(t *testing.T) {
	mgr := NewManager()

	held := make(chan struct{})
	releaseHolder := make(chan struct{})
	go func() {
		_ = mgr.WithLock(context.Background(), "k", func(context.Context) error {
			close(held)
			<-releaseHolder
			return nil
		})
	}()
	<-held

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	called := false
	err := mgr.WithLock(ctx, "k", func(context.Context) error {
		called = true
		return nil
	})

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.False(t, called)
	assert.Less(t, time.Since(start), 500*time.Millisecond, "waiter must not wait for the holder")
	assert.Equal(t, 1, mgr.Active(), "only the holder keeps a reference")

	close(releaseHolder)
	require.Eventually(t, func() bool { return mgr.Active() == 0 }, time.Second, 5*time.Millisecond)

	require.NoError(t, mgr.WithLock(context.Background(), "k", func(context.Context) error { return nil }))
}
