// Package memory provides in-memory implementations of the storage ports.
package memory

import (
	"container/list"
	"context"
	"sync"

	"github.com/felixgeelhaar/vigil/domain/cache"
)

// DefaultMaxSize is the default number of cached answers.
const DefaultMaxSize = 50

// ResponseCache is an in-memory implementation of cache.ResponseCache.
// Entries are evicted strictly in insertion order; reads never reorder them.
// All operations hold a single mutex.
type ResponseCache struct {
	entries   map[cache.Key]*list.Element
	order     *list.List // front is the oldest insertion
	maxSize   int
	seq       uint64
	mu        sync.Mutex
	hits      int64
	misses    int64
	evictions int64
	onEvict   func(cache.Entry)
}

// CacheOption configures the cache.
type CacheOption func(*ResponseCache)

// WithMaxSize sets the maximum number of entries. Non-positive sizes are ignored.
func WithMaxSize(size int) CacheOption {
	return func(c *ResponseCache) {
		if size > 0 {
			c.maxSize = size
		}
	}
}

// WithEvictionHook registers a callback invoked, under the cache lock, for every evicted entry.
func WithEvictionHook(fn func(cache.Entry)) CacheOption {
	return func(c *ResponseCache) {
		c.onEvict = fn
	}
}

// NewResponseCache creates a new in-memory FIFO response cache.
func NewResponseCache(opts ...CacheOption) *ResponseCache {
	c := &ResponseCache{
		entries: make(map[cache.Key]*list.Element),
		order:   list.New(),
		maxSize: DefaultMaxSize,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get retrieves an entry from the cache. It does not affect eviction order.
func (c *ResponseCache) Get(ctx context.Context, key cache.Key) (cache.Entry, bool, error) {
	if err := ctx.Err(); err != nil {
		return cache.Entry{}, false, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.entries[key]
	if !ok {
		c.misses++
		return cache.Entry{}, false, nil
	}

	c.hits++
	return *elem.Value.(*cache.Entry), true, nil
}

// Put stores value under key. An existing key is overwritten in place and
// keeps its insertion position. A new key evicts the oldest entry when full.
func (c *ResponseCache) Put(ctx context.Context, key cache.Key, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if key == "" {
		return cache.ErrInvalidKey
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.entries[key]; ok {
		elem.Value.(*cache.Entry).Value = value
		return nil
	}

	for len(c.entries) >= c.maxSize {
		c.evictOldest()
	}

	c.seq++
	entry := &cache.Entry{Key: key, Value: value, Seq: c.seq}
	c.entries[key] = c.order.PushBack(entry)
	return nil
}

// evictOldest removes the entry with the lowest sequence number.
// Must be called with lock held.
func (c *ResponseCache) evictOldest() {
	front := c.order.Front()
	if front == nil {
		return
	}
	entry := c.order.Remove(front).(*cache.Entry)
	delete(c.entries, entry.Key)
	c.evictions++
	if c.onEvict != nil {
		c.onEvict(*entry)
	}
}

// Keys returns the cached keys from oldest to newest insertion.
func (c *ResponseCache) Keys() []cache.Key {
	c.mu.Lock()
	defer c.mu.Unlock()

	keys := make([]cache.Key, 0, c.order.Len())
	for e := c.order.Front(); e != nil; e = e.Next() {
		keys = append(keys, e.Value.(*cache.Entry).Key)
	}
	return keys
}

// Stats returns cache statistics.
func (c *ResponseCache) Stats() cache.Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	return cache.Stats{
		Hits:      c.hits,
		Misses:    c.misses,
		Evictions: c.evictions,
		Size:      int64(len(c.entries)),
		MaxSize:   int64(c.maxSize),
	}
}

// Size returns the current number of entries.
func (c *ResponseCache) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Ensure ResponseCache implements cache.ResponseCache and cache.StatsProvider
var (
	_ cache.ResponseCache = (*ResponseCache)(nil)
	_ cache.StatsProvider = (*ResponseCache)(nil)
)
