package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryIdempotencyStore_MarkProcessed(t *testing.T) {
	store := NewInMemoryIdempotencyStore()
	defer store.Close()
	ctx := context.Background()

	fresh, err := store.MarkProcessed(ctx, "key-1", time.Minute)
	require.NoError(t, err)
	assert.True(t, fresh)

	again, err := store.MarkProcessed(ctx, "key-1", time.Minute)
	require.NoError(t, err)
	assert.False(t, again)

	other, err := store.MarkProcessed(ctx, "key-2", time.Minute)
	require.NoError(t, err)
	assert.True(t, other)
}

func TestInMemoryIdempotencyStore_IsProcessed(t *testing.T) {
	store := NewInMemoryIdempotencyStore()
	defer store.Close()
	ctx := context.Background()

	processed, err := store.IsProcessed(ctx, "unknown")
	require.NoError(t, err)
	assert.False(t, processed)

	_, err = store.MarkProcessed(ctx, "known", time.Minute)
	require.NoError(t, err)

	processed, err = store.IsProcessed(ctx, "known")
	require.NoError(t, err)
	assert.True(t, processed)
}

func TestInMemoryIdempotencyStore_Expiration(t *testing.T) {
	store := NewInMemoryIdempotencyStore()
	defer store.Close()
	ctx := context.Background()

	_, err := store.MarkProcessed(ctx, "short-lived", 10*time.Millisecond)
	require.NoError(t, err)

	time.Sleep(20 * time.Millisecond)

	processed, err := store.IsProcessed(ctx, "short-lived")
	require.NoError(t, err)
	assert.False(t, processed)

	// expired entries can be claimed again
	fresh, err := store.MarkProcessed(ctx, "short-lived", time.Minute)
	require.NoError(t, err)
	assert.True(t, fresh)
}

func TestInMemoryIdempotencyStore_ConcurrentClaims(t *testing.T) {
	store := NewInMemoryIdempotencyStore()
	defer store.Close()
	ctx := context.Background()

	var wins int64
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			fresh, err := store.MarkProcessed(ctx, "contested", time.Minute)
			if err == nil && fresh {
				atomic.AddInt64(&wins, 1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(1), wins)
}

func TestInMemoryIdempotencyStore_CloseIsIdempotent(t *testing.T) {
	store := NewInMemoryIdempotencyStore()
	require.NoError(t, store.Close())
	require.NoError(t, store.Close())
}

func TestInMemoryIdempotencyStore_Cleanup(t *testing.T) {
	store := NewInMemoryIdempotencyStore()
	defer store.Close()
	ctx := context.Background()

	_, err := store.MarkProcessed(ctx, "stale", 1*time.Millisecond)
	require.NoError(t, err)
	time.Sleep(5 * time.Millisecond)

	store.cleanup()
	assert.Equal(t, 0, store.Size())
}
