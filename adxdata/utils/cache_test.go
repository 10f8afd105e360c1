package utils

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestCachedExpiry(t *testing.T) {
	t.Parallel()

	current := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	c := NewCached[string](time.Hour)
	c.now = func() time.Time { return current }

	assert.True(t, c.IsExpired())

	c.Update("token")
	assert.False(t, c.IsExpired())
	assert.Equal(t, "token", c.Get())

	current = current.Add(time.Hour - time.Nanosecond)
	assert.False(t, c.IsExpired())

	// stale at exactly the refresh period
	current = current.Add(time.Nanosecond)
	assert.True(t, c.IsExpired())
}

func TestCachedRefreshFailureNotCached(t *testing.T) {
	t.Parallel()

	c := NewCached[int](time.Hour)

	_, err := c.GetOrRefresh(context.Background(), func(context.Context) (int, error) {
		return 0, assert.AnError
	})
	require.Error(t, err)
	assert.True(t, c.IsExpired())

	v, err := c.GetOrRefresh(context.Background(), func(context.Context) (int, error) {
		return 42, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 42, v)
	assert.False(t, c.IsExpired())
}

func TestCachedRefreshCoalesces(t *testing.T) {
	t.Parallel()

	const workers = 25

	c := NewCached[int](time.Hour)
	var refreshes atomic.Int32

	wg := sync.WaitGroup{}
	start := make(chan struct{})
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			v, err := c.GetOrRefresh(context.Background(), func(context.Context) (int, error) {
				refreshes.Add(1)
				return 7, nil
			})
			assert.NoError(t, err)
			assert.Equal(t, 7, v)
		}()
	}

	close(start)
	wg.Wait()

	assert.Equal(t, int32(1), refreshes.Load())
}
