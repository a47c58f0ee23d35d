package store

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func TestMemoryDenylist(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	d := NewMemoryDenylist()
	d.now = clock.Now

	revoked, err := d.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, d.Revoke(ctx, "jti-1", clock.Now().Add(time.Hour)))
	revoked, _ = d.IsRevoked(ctx, "jti-1")
	assert.True(t, revoked)

	clock.Advance(2 * time.Hour)
	revoked, _ = d.IsRevoked(ctx, "jti-1")
	assert.False(t, revoked, "entries lapse once the token has expired")
}

func TestMemoryDenylist_IgnoresExpiredTokens(t *testing.T) {
	ctx := context.Background()
	d := NewMemoryDenylist()

	require.NoError(t, d.Revoke(ctx, "old", time.Now().Add(-time.Minute)))
	assert.Empty(t, d.revoked)
}

func TestMemoryThrottle_LocksAfterMaxAttempts(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	th := NewMemoryThrottle(3, 15*time.Minute)
	th.now = clock.Now

	for i := 0; i < 2; i++ {
		require.NoError(t, th.RegisterFailure(ctx, "a@b.com"))
	}
	locked, err := th.Locked(ctx, "a@b.com")
	require.NoError(t, err)
	assert.False(t, locked)

	require.NoError(t, th.RegisterFailure(ctx, "a@b.com"))
	locked, _ = th.Locked(ctx, "a@b.com")
	assert.True(t, locked)

	other, _ := th.Locked(ctx, "c@d.com")
	assert.False(t, other)

	clock.Advance(15 * time.Minute)
	locked, _ = th.Locked(ctx, "a@b.com")
	assert.False(t, locked, "window elapsed")
}

func TestMemoryThrottle_WindowStartsAtFirstFailure(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	th := NewMemoryThrottle(2, 10*time.Minute)
	th.now = clock.Now

	require.NoError(t, th.RegisterFailure(ctx, "k"))
	clock.Advance(9 * time.Minute)
	require.NoError(t, th.RegisterFailure(ctx, "k"))
	locked, _ := th.Locked(ctx, "k")
	assert.True(t, locked)

	clock.Advance(time.Minute)
	locked, _ = th.Locked(ctx, "k")
	assert.False(t, locked)
}

func TestMemoryThrottle_Reset(t *testing.T) {
	ctx := context.Background()
	th := NewMemoryThrottle(1, time.Minute)

	require.NoError(t, th.RegisterFailure(ctx, "k"))
	locked, _ := th.Locked(ctx, "k")
	require.True(t, locked)

	require.NoError(t, th.Reset(ctx, "k"))
	locked, _ = th.Locked(ctx, "k")
	assert.False(t, locked)
}

func TestMemoryThrottle_Concurrent(t *testing.T) {
	ctx := context.Background()
	th := NewMemoryThrottle(100, time.Minute)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = th.RegisterFailure(ctx, "k")
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, th.failures["k"].count)
}
