// ABOUTME: Thread-safe TTL cache of Idempotency-Key values for create requests.
// ABOUTME: Keys are scoped per user; a failed create releases its key for retry.

package idempotency

import (
	"container/list"
	"sync"
	"time"
)

// Header is the request header carrying the client's idempotency key.
const Header = "Idempotency-Key"

type cacheEntry struct {
	claimedAt time.Time
	element   *list.Element
}

// Cache remembers claimed keys for a fixed TTL, holding at most maxKeys.
// The oldest claim is evicted first when full.
type Cache struct {
	mu      sync.Mutex
	claimed map[string]*cacheEntry
	order   *list.List // oldest at front
	ttl     time.Duration
	maxKeys int
	now     func() time.Time
	done    chan struct{}
	closed  bool
}

// New creates a cache and starts its cleanup goroutine.
func New(ttl time.Duration, maxKeys int) *Cache {
	return newCache(ttl, maxKeys, time.Now)
}

func newCache(ttl time.Duration, maxKeys int, now func() time.Time) *Cache {
	if maxKeys < 1 {
		maxKeys = 1
	}
	c := &Cache{
		claimed: make(map[string]*cacheEntry),
		order:   list.New(),
		ttl:     ttl,
		maxKeys: maxKeys,
		now:     now,
		done:    make(chan struct{}),
	}
	go c.cleanup()
	return c
}

// Scope joins a user ID and a client key so users cannot collide.
func Scope(userID, key string) string {
	return userID + ":" + key
}

// Claim records key and reports true if it was not already held.
// A false return means the request is a duplicate.
func (c *Cache) Claim(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if entry, ok := c.claimed[key]; ok {
		if now.Sub(entry.claimedAt) < c.ttl {
			return false
		}
		entry.claimedAt = now
		c.order.MoveToBack(entry.element)
		return true
	}

	if len(c.claimed) >= c.maxKeys {
		c.evictOldest()
	}

	c.claimed[key] = &cacheEntry{
		claimedAt: now,
		element:   c.order.PushBack(key),
	}
	return true
}

// Release forgets key so the client may retry with it.
func (c *Cache) Release(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if entry, ok := c.claimed[key]; ok {
		c.order.Remove(entry.element)
		delete(c.claimed, key)
	}
}

// Seen reports whether key is currently claimed.
func (c *Cache) Seen(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.claimed[key]
	return ok && c.now().Sub(entry.claimedAt) < c.ttl
}

// Len returns the number of stored keys, expired ones included until cleanup.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.claimed)
}

// evictOldest must be called with mu held.
func (c *Cache) evictOldest() {
	front := c.order.Front()
	if front == nil {
		return
	}
	key, _ := front.Value.(string)
	c.order.Remove(front)
	delete(c.claimed, key)
}

func (c *Cache) cleanup() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.runCleanup()
		case <-c.done:
			return
		}
	}
}

// runCleanup drops expired keys.
func (c *Cache) runCleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for key, entry := range c.claimed {
		if now.Sub(entry.claimedAt) >= c.ttl {
			c.order.Remove(entry.element)
			delete(c.claimed, key)
		}
	}
}

// Close stops the cleanup goroutine. It is safe to call multiple times.
func (c *Cache) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.closed {
		close(c.done)
		c.closed = true
	}
}
