// Package cache provides a small in-process TTL cache used by the store
// to avoid re-reading hot rows (places, services) on every hydration.
package cache

import (
	"container/list"
	"sync"
	"time"
)

// Config configures a Cache instance.
type Config struct {
	DefaultTTL      time.Duration
	CleanupInterval time.Duration
	MaxItems        int
	OnEviction      func(key string, value any)
}

type item struct {
	expiresAt time.Time
	element   *list.Element
	key       string
	value     any
}

// Cache is a TTL cache with LRU eviction and a background cleanup loop.
// All methods are safe for concurrent use.
type Cache struct {
	config Config
	items  map[string]*item
	order  *list.List
	stopCh chan struct{}
	once   sync.Once
	mu     sync.Mutex
}

// New creates a cache and starts its cleanup goroutine.
func New(config Config) *Cache {
	if config.DefaultTTL <= 0 {
		config.DefaultTTL = 10 * time.Minute
	}
	if config.CleanupInterval <= 0 {
		config.CleanupInterval = 5 * time.Minute
	}
	if config.MaxItems <= 0 {
		config.MaxItems = 1000
	}

	c := &Cache{
		config: config,
		items:  make(map[string]*item),
		order:  list.New(),
		stopCh: make(chan struct{}),
	}
	go c.cleanupLoop()
	return c
}

// Get returns the cached value for key, if present and not expired.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	it, ok := c.items[key]
	if !ok {
		return nil, false
	}
	if time.Now().After(it.expiresAt) {
		c.removeItem(it)
		return nil, false
	}
	c.order.MoveToFront(it.element)
	return it.value, true
}

// Set stores value under key using the default TTL.
func (c *Cache) Set(key string, value any) {
	c.SetWithTTL(key, value, c.config.DefaultTTL)
}

// SetWithTTL stores value under key with an explicit TTL.
func (c *Cache) SetWithTTL(key string, value any, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.config.DefaultTTL
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if it, ok := c.items[key]; ok {
		it.value = value
		it.expiresAt = time.Now().Add(ttl)
		c.order.MoveToFront(it.element)
		return
	}

	for len(c.items) >= c.config.MaxItems {
		oldest := c.order.Back()
		if oldest == nil {
			break
		}
		c.removeItem(oldest.Value.(*item))
	}

	it := &item{
		key:       key,
		value:     value,
		expiresAt: time.Now().Add(ttl),
	}
	it.element = c.order.PushFront(it)
	c.items[key] = it
}

// Delete removes key from the cache.
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if it, ok := c.items[key]; ok {
		c.removeItem(it)
	}
}

// Len returns the number of cached entries, including not-yet-collected
// expired ones.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Close stops the cleanup goroutine. The cache remains usable but no
// longer collects expired entries in the background.
func (c *Cache) Close() {
	c.once.Do(func() {
		close(c.stopCh)
	})
}

func (c *Cache) cleanupLoop() {
	ticker := time.NewTicker(c.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopCh:
			return
		case <-ticker.C:
			c.cleanupExpired()
		}
	}
}

func (c *Cache) cleanupExpired() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	var expired []*item
	for _, it := range c.items {
		if now.After(it.expiresAt) {
			expired = append(expired, it)
		}
	}
	for _, it := range expired {
		c.removeItem(it)
	}
}

// removeItem must be called with the lock held.
func (c *Cache) removeItem(it *item) {
	c.order.Remove(it.element)
	delete(c.items, it.key)
	if c.config.OnEviction != nil {
		c.config.OnEviction(it.key, it.value)
	}
}
