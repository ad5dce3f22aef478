package throttle

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func TestKey(t *testing.T) {
	assert.Equal(t, "throttle:post_user:42", Key(ScopePostUser, "42"))
}

func TestMemoryLimiter_AllowsUpToLimit(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	l := NewMemoryLimiter(3, time.Minute)
	l.now = clock.now
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		d, err := l.Allow(ctx, "alice")
		require.NoError(t, err)
		assert.True(t, d.Allowed, "attempt %d", i+1)
	}

	d, err := l.Allow(ctx, "alice")
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Greater(t, d.RetryAfter, time.Duration(0))
	assert.LessOrEqual(t, d.RetryAfter, 20*time.Second)

	// other keys have their own bucket
	d, err = l.Allow(ctx, "bob")
	require.NoError(t, err)
	assert.True(t, d.Allowed)
}

func TestMemoryLimiter_RefillsOverWindow(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	l := NewMemoryLimiter(2, time.Minute)
	l.now = clock.now
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		d, _ := l.Allow(ctx, "alice")
		require.True(t, d.Allowed)
	}
	d, _ := l.Allow(ctx, "alice")
	require.False(t, d.Allowed)

	clock.advance(d.RetryAfter)
	d, err := l.Allow(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, d.Allowed)
}

func TestMemoryLimiter_RejectedAttemptsDoNotConsume(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	l := NewMemoryLimiter(1, time.Minute)
	l.now = clock.now
	ctx := context.Background()

	d, _ := l.Allow(ctx, "alice")
	require.True(t, d.Allowed)
	for i := 0; i < 5; i++ {
		d, _ = l.Allow(ctx, "alice")
		require.False(t, d.Allowed)
	}

	clock.advance(time.Minute)
	d, _ = l.Allow(ctx, "alice")
	assert.True(t, d.Allowed)
}

func TestMemoryLimiter_SweepsIdleKeys(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	l := NewMemoryLimiter(5, time.Minute)
	l.now = clock.now
	ctx := context.Background()

	_, _ = l.Allow(ctx, "alice")
	_, _ = l.Allow(ctx, "bob")
	assert.Equal(t, 2, l.size())

	clock.advance(2 * time.Minute)
	_, _ = l.Allow(ctx, "carol")
	assert.Equal(t, 1, l.size())
}

// Runs against a real server when REDIS_TEST_ADDR is set.
func TestRedisLimiter(t *testing.T) {
	addr := os.Getenv("REDIS_TEST_ADDR")
	if addr == "" {
		t.Skip("REDIS_TEST_ADDR not set, skipping redis limiter test")
	}

	client := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { client.Close() })
	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skip("Redis not available, skipping redis limiter test")
	}

	key := Key(ScopePostUser, t.Name())
	client.Del(ctx, key)
	t.Cleanup(func() { client.Del(context.Background(), key) })

	clock := &fakeClock{t: time.Now()}
	l := NewRedisLimiter(client, 2, time.Minute)
	l.now = clock.now

	for i := 0; i < 2; i++ {
		d, err := l.Allow(ctx, key)
		require.NoError(t, err)
		assert.True(t, d.Allowed)
		clock.advance(time.Second)
	}

	d, err := l.Allow(ctx, key)
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.InDelta(t, (58 * time.Second).Seconds(), d.RetryAfter.Seconds(), 1)

	clock.advance(59 * time.Second)
	d, err = l.Allow(ctx, key)
	require.NoError(t, err)
	assert.True(t, d.Allowed)
}
