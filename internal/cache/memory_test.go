package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryGuardFirstAcquireWins(t *testing.T) {
	guard := NewMemoryReplayGuard()

	admitted, err := guard.Acquire(context.Background(), "req-1")
	require.NoError(t, err)
	assert.True(t, admitted)

	admitted, err = guard.Acquire(context.Background(), "req-1")
	require.NoError(t, err)
	assert.False(t, admitted)
}

func TestMemoryGuardDistinctKeys(t *testing.T) {
	guard := NewMemoryReplayGuard()

	for _, key := range []string{"req-1", "req-2", "payment-42"} {
		admitted, err := guard.Acquire(context.Background(), key)
		require.NoError(t, err)
		assert.True(t, admitted, "key %s", key)
	}
}

func TestMemoryGuardExpiry(t *testing.T) {
	guard := NewMemoryReplayGuard()
	current := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	guard.now = func() time.Time { return current }

	admitted, err := guard.Acquire(context.Background(), "req-1")
	require.NoError(t, err)
	require.True(t, admitted)

	current = current.Add(ReplayTTL - time.Second)
	admitted, _ = guard.Acquire(context.Background(), "req-1")
	assert.False(t, admitted)

	current = current.Add(2 * time.Second)
	admitted, _ = guard.Acquire(context.Background(), "req-1")
	assert.True(t, admitted)
}

func TestMemoryGuardSweepsExpired(t *testing.T) {
	guard := NewMemoryReplayGuard()
	current := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	guard.now = func() time.Time { return current }

	for _, key := range []string{"a", "b", "c"} {
		_, err := guard.Acquire(context.Background(), key)
		require.NoError(t, err)
	}

	current = current.Add(ReplayTTL + time.Second)
	_, err := guard.Acquire(context.Background(), "d")
	require.NoError(t, err)

	guard.mu.Lock()
	defer guard.mu.Unlock()
	assert.Len(t, guard.seen, 1)
}

func TestMemoryGuardConcurrentAcquire(t *testing.T) {
	guard := NewMemoryReplayGuard()

	const workers = 50
	var wg sync.WaitGroup
	admitted := make(chan bool, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := guard.Acquire(context.Background(), "req-1")
			assert.NoError(t, err)
			admitted <- ok
		}()
	}
	wg.Wait()
	close(admitted)

	wins := 0
	for ok := range admitted {
		if ok {
			wins++
		}
	}
	assert.Equal(t, 1, wins)
}
