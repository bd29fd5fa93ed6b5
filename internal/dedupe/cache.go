// ABOUTME: Thread-safe TTL cache remembering the result of recently processed inputs
// ABOUTME: Lets the upload handler answer identical re-uploads without re-indexing

package dedupe

import (
	"container/list"
	"sync"
	"time"
)

// entry stores a cached result with its insertion time and list position.
type entry[V any] struct {
	key       string
	value     V
	timestamp time.Time
	element   *list.Element
}

// Cache is a TTL-based, size-limited map from content keys to results.
// Insertion order is kept in a doubly-linked list so eviction is O(1).
type Cache[V any] struct {
	mu      sync.Mutex
	entries map[string]*entry[V]
	order   *list.List // keys, oldest at front
	ttl     time.Duration
	maxSize int
	done    chan struct{}
	closed  bool
}

// New creates a cache with the given TTL and maximum size.
// A background goroutine periodically removes expired entries until Close.
func New[V any](ttl time.Duration, maxSize int) *Cache[V] {
	if maxSize <= 0 {
		maxSize = 1
	}
	c := &Cache[V]{
		entries: make(map[string]*entry[V]),
		order:   list.New(),
		ttl:     ttl,
		maxSize: maxSize,
		done:    make(chan struct{}),
	}
	go c.cleanup()
	return c
}

// Get returns the result stored under key if it has not expired.
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	e, ok := c.entries[key]
	if !ok || time.Since(e.timestamp) >= c.ttl {
		return zero, false
	}
	return e.value, true
}

// Put stores value under key, refreshing its age. If the cache is full the
// oldest entry is evicted.
func (c *Cache[V]) Put(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	if e, ok := c.entries[key]; ok {
		e.value = value
		e.timestamp = now
		c.order.MoveToBack(e.element)
		return
	}

	if len(c.entries) >= c.maxSize {
		c.evictOldest()
	}

	e := &entry[V]{key: key, value: value, timestamp: now}
	e.element = c.order.PushBack(e)
	c.entries[key] = e
}

// Forget drops key.
func (c *Cache[V]) Forget(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		c.order.Remove(e.element)
		delete(c.entries, key)
	}
}

// Len returns the number of stored entries, expired ones included until
// the next cleanup.
func (c *Cache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// evictOldest removes the oldest entry. Must be called with mu held.
func (c *Cache[V]) evictOldest() {
	front := c.order.Front()
	if front == nil {
		return
	}
	e, _ := front.Value.(*entry[V])
	c.order.Remove(front)
	delete(c.entries, e.key)
}

func (c *Cache[V]) cleanup() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.removeExpired()
		case <-c.done:
			return
		}
	}
}

// removeExpired drops every entry older than the TTL.
func (c *Cache[V]) removeExpired() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for front := c.order.Front(); front != nil; {
		e, _ := front.Value.(*entry[V])
		if time.Since(e.timestamp) < c.ttl {
			// Entries behind this one are newer.
			return
		}
		next := front.Next()
		c.order.Remove(front)
		delete(c.entries, e.key)
		front = next
	}
}

// Close stops the background cleanup goroutine. It is safe to call multiple times.
func (c *Cache[V]) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.closed {
		close(c.done)
		c.closed = true
	}
}
