// Package cache keeps recently embedded queries so repeated searches
// skip the provider round trip.
package cache

import (
	"container/list"
	"sync"
	"time"
)

const (
	defaultCapacity = 512
	defaultTTL      = 10 * time.Minute
)

// EmbeddingCache is an LRU cache of query vectors keyed by embedding
// model and query text. Entries expire after a TTL so a model or
// corpus change does not serve stale vectors forever.
type EmbeddingCache struct {
	mu       sync.Mutex
	entries  map[string]*embeddingEntry
	order    *list.List
	capacity int
	ttl      time.Duration
}

type embeddingEntry struct {
	key       string
	vector    []float32
	expiresAt time.Time
	element   *list.Element
}

// NewEmbeddingCache creates a cache holding up to capacity vectors for
// at most ttl each. Non-positive values fall back to the defaults.
func NewEmbeddingCache(capacity int, ttl time.Duration) *EmbeddingCache {
	if capacity <= 0 {
		capacity = defaultCapacity
	}
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &EmbeddingCache{
		entries:  make(map[string]*embeddingEntry),
		order:    list.New(),
		capacity: capacity,
		ttl:      ttl,
	}
}

// Get returns the cached vector for the model and query, if present
// and not expired. A hit refreshes the entry's LRU position.
func (c *EmbeddingCache) Get(model, query string) ([]float32, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[cacheKey(model, query)]
	if !ok {
		return nil, false
	}
	if time.Now().After(e.expiresAt) {
		c.remove(e)
		return nil, false
	}
	c.order.MoveToFront(e.element)
	return e.vector, true
}

// Put stores the vector for the model and query, evicting the least
// recently used entries when the cache is full.
func (c *EmbeddingCache) Put(model, query string, vector []float32) {
	if len(vector) == 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	key := cacheKey(model, query)
	if e, ok := c.entries[key]; ok {
		e.vector = vector
		e.expiresAt = time.Now().Add(c.ttl)
		c.order.MoveToFront(e.element)
		return
	}

	for len(c.entries) >= c.capacity {
		oldest := c.order.Back()
		if oldest == nil {
			break
		}
		c.remove(oldest.Value.(*embeddingEntry))
	}

	e := &embeddingEntry{
		key:       key,
		vector:    vector,
		expiresAt: time.Now().Add(c.ttl),
	}
	e.element = c.order.PushFront(e)
	c.entries[key] = e
}

// Len reports how many entries are cached, expired ones included
// until they are touched or evicted.
func (c *EmbeddingCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// remove must be called with the lock held.
func (c *EmbeddingCache) remove(e *embeddingEntry) {
	c.order.Remove(e.element)
	delete(c.entries, e.key)
}

// cacheKey joins model and query with a separator neither can contain.
func cacheKey(model, query string) string {
	return model + "\x00" + query
}
