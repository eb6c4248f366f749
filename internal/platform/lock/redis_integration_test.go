//go:build integration

package lock

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"binoqule/pkg/testutil/containers"
)

func newRedisLocker(t *testing.T, ttl time.Duration) (*Redis, *containers.RedisContainer) {
	t.Helper()
	rc := containers.NewRedisContainer(t)
	require.NoError(t, rc.FlushAll(context.Background()))
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewRedis(rc.Client, ttl, 10*time.Millisecond, logger), rc
}

func TestRedisLockSerializes(t *testing.T) {
	l, _ := newRedisLocker(t, 5*time.Second)
	var inside, maxInside atomic.Int32
	var wg sync.WaitGroup

	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := l.Lock(context.Background(), "team")
			if !assert.NoError(t, err) {
				return
			}
			defer release()
			n := inside.Add(1)
			if n > maxInside.Load() {
				maxInside.Store(n)
			}
			time.Sleep(5 * time.Millisecond)
			inside.Add(-1)
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), maxInside.Load())
}

func TestRedisLockHonoursContext(t *testing.T) {
	l, _ := newRedisLocker(t, 5*time.Second)
	release, err := l.Lock(context.Background(), "team")
	require.NoError(t, err)
	defer release()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = l.Lock(ctx, "team")
	require.ErrorIs(t, err, ErrNotAcquired)
}

func TestRedisReleaseKeepsForeignLock(t *testing.T) {
	l, rc := newRedisLocker(t, 100*time.Millisecond)
	ctx := context.Background()

	release, err := l.Lock(ctx, "team")
	require.NoError(t, err)

	// The lock expires and another holder takes it.
	time.Sleep(150 * time.Millisecond)
	release2, err := l.Lock(ctx, "team")
	require.NoError(t, err)
	defer release2()

	release()
	exists, err := rc.Client.Exists(ctx, keyPrefix+"team").Result()
	require.NoError(t, err)
	assert.Equal(t, int64(1), exists)
}
