// ABOUTME: Tests for the idempotency key cache.
// ABOUTME: Validates claims, release, TTL expiry, eviction, cleanup, and concurrency safety.

package idempotency

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func newTestCache(t *testing.T, ttl time.Duration, maxKeys int) (*Cache, *testClock) {
	t.Helper()
	clock := &testClock{t: time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)}
	c := newCache(ttl, maxKeys, clock.Now)
	t.Cleanup(c.Close)
	return c, clock
}

func TestCache_ClaimOnce(t *testing.T) {
	c, _ := newTestCache(t, time.Hour, 10)

	assert.True(t, c.Claim("k"))
	assert.False(t, c.Claim("k"), "second claim is a duplicate")
	assert.True(t, c.Seen("k"))
	assert.False(t, c.Seen("other"))
}

func TestCache_ReleaseAllowsRetry(t *testing.T) {
	c, _ := newTestCache(t, time.Hour, 10)

	require.True(t, c.Claim("k"))
	c.Release("k")

	assert.False(t, c.Seen("k"))
	assert.True(t, c.Claim("k"))
	assert.Equal(t, 1, c.Len())
}

func TestCache_ReleaseUnknownKey(t *testing.T) {
	c, _ := newTestCache(t, time.Hour, 10)
	c.Release("never-claimed")
	assert.Equal(t, 0, c.Len())
}

func TestCache_Expiry(t *testing.T) {
	c, clock := newTestCache(t, time.Minute, 10)

	require.True(t, c.Claim("k"))
	clock.Advance(59 * time.Second)
	assert.False(t, c.Claim("k"))

	clock.Advance(2 * time.Second)
	assert.False(t, c.Seen("k"))
	assert.True(t, c.Claim("k"), "expired key can be claimed again")
}

func TestCache_EvictsOldest(t *testing.T) {
	c, _ := newTestCache(t, time.Hour, 2)

	c.Claim("a")
	c.Claim("b")
	c.Claim("c")

	assert.Equal(t, 2, c.Len())
	assert.False(t, c.Seen("a"))
	assert.True(t, c.Seen("b"))
	assert.True(t, c.Seen("c"))
}

func TestCache_RunCleanup(t *testing.T) {
	c, clock := newTestCache(t, time.Minute, 10)

	c.Claim("old")
	clock.Advance(2 * time.Minute)
	c.Claim("new")

	c.runCleanup()

	assert.Equal(t, 1, c.Len())
	assert.True(t, c.Seen("new"))
}

func TestCache_Scope(t *testing.T) {
	c, _ := newTestCache(t, time.Hour, 10)

	assert.True(t, c.Claim(Scope("alice", "req-1")))
	assert.True(t, c.Claim(Scope("bob", "req-1")), "same key for another user is independent")
	assert.False(t, c.Claim(Scope("alice", "req-1")))
}

func TestCache_ConcurrentClaims(t *testing.T) {
	c, _ := newTestCache(t, time.Hour, 100)

	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if c.Claim("shared") {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), wins.Load())
}

func TestCache_CloseIdempotent(t *testing.T) {
	c := New(time.Minute, 10)
	c.Close()
	c.Close()
}
