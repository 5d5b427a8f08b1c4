// Package cache provides the domain interface for the orchestration response cache.
package cache

import (
	"context"
)

// ResponseCache is a bounded key to answer store.
// Implementations must evict in insertion order and keep a key's position
// when its value is overwritten.
type ResponseCache interface {
	// Get retrieves a cached entry by key.
	// Returns the entry, whether it was found, and any error.
	Get(ctx context.Context, key Key) (Entry, bool, error)

	// Put stores value under key, evicting the oldest inserted entry when full.
	Put(ctx context.Context, key Key, value string) error
}

// Entry is a cached answer.
type Entry struct {
	Key   Key
	Value string
	// Seq is the insertion sequence number. It is assigned once per key.
	Seq uint64
}

// Stats provides cache statistics.
type Stats struct {
	// Hits is the number of cache hits.
	Hits int64
	// Misses is the number of cache misses.
	Misses int64
	// Evictions is the number of entries removed to make room.
	Evictions int64
	// Size is the current number of entries.
	Size int64
	// MaxSize is the maximum number of entries.
	MaxSize int64
}

// StatsProvider is an optional interface for caches that support statistics.
type StatsProvider interface {
	// Stats returns current cache statistics.
	Stats() Stats
}
