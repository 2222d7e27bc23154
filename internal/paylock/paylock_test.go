package paylock

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKey(t *testing.T) {
	assert.Equal(t, "paylock:rental:12:2025-11", Key(12, "2025-11"))
}

func TestLocalLocker(t *testing.T) {
	ctx := context.Background()
	l := NewLocalLocker()

	lock, err := l.Obtain(ctx, "a")
	require.NoError(t, err)

	_, err = l.Obtain(ctx, "a")
	assert.ErrorIs(t, err, ErrLocked)

	other, err := l.Obtain(ctx, "b")
	require.NoError(t, err)
	require.NoError(t, other.Release(ctx))

	require.NoError(t, lock.Release(ctx))
	require.NoError(t, lock.Release(ctx))

	again, err := l.Obtain(ctx, "a")
	require.NoError(t, err)
	assert.NoError(t, again.Release(ctx))
}

func TestLocalLockerConcurrent(t *testing.T) {
	ctx := context.Background()
	l := NewLocalLocker()

	var winners int32
	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			if _, err := l.Obtain(ctx, "same"); err == nil {
				atomic.AddInt32(&winners, 1)
			}
		}()
	}
	close(start)
	wg.Wait()
	assert.Equal(t, int32(1), winners)
}
