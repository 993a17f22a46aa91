// Package cache provides a time-bounded, size-bounded mapping from an
// operation fingerprint to a prior extraction result, with LRU eviction.
// The cache is process-local; deterministic keys let callers collapse
// repeated work on the same URL and options.
package cache

import (
	"container/list"
	"sync"
	"time"

	"github.com/use-agent/forage/models"
)

type entry struct {
	key        string
	value      *models.ExtractionResult
	insertedAt time.Time
}

// Cache is a bounded LRU with per-entry TTL. Safe for concurrent use.
type Cache struct {
	mu      sync.Mutex
	maxSize int
	ttl     time.Duration
	order   *list.List // front = most recently used
	items   map[string]*list.Element
	now     func() time.Time
}

// New creates a Cache holding at most maxSize entries, each live for ttl.
func New(maxSize int, ttl time.Duration) *Cache {
	if maxSize < 1 {
		maxSize = 1
	}
	return &Cache{
		maxSize: maxSize,
		ttl:     ttl,
		order:   list.New(),
		items:   make(map[string]*list.Element),
		now:     time.Now,
	}
}

// Get returns the value for key if present and not expired, promoting the
// entry to most-recently-used.
func (c *Cache) Get(key string) (*models.ExtractionResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[key]
	if !ok {
		return nil, false
	}
	e := el.Value.(*entry)
	if c.now().Sub(e.insertedAt) > c.ttl {
		c.order.Remove(el)
		delete(c.items, key)
		return nil, false
	}
	c.order.MoveToFront(el)
	return e.value, true
}

// Has reports whether Get(key) would succeed. Like Get, it promotes.
func (c *Cache) Has(key string) bool {
	_, ok := c.Get(key)
	return ok
}

// Set inserts value as most-recently-used with a fresh timestamp, replacing
// any existing entry for key and evicting the least-recently-used entry
// when at capacity.
func (c *Cache) Set(key string, value *models.ExtractionResult) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[key]; ok {
		c.order.Remove(el)
		delete(c.items, key)
	}
	if c.order.Len() >= c.maxSize {
		if oldest := c.order.Back(); oldest != nil {
			c.order.Remove(oldest)
			delete(c.items, oldest.Value.(*entry).key)
		}
	}
	el := c.order.PushFront(&entry{key: key, value: value, insertedAt: c.now()})
	c.items[key] = el
}

// Clear drops all entries.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.order.Init()
	c.items = make(map[string]*list.Element)
}

// Len returns the number of live entries (expired entries may still count
// until their next read).
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}
