package application

import (
	"sync"
	"time"
)

// Snapshot is a point-in-time view of orchestrator telemetry.
type Snapshot struct {
	LastLatency   time.Duration
	LastCacheHit  bool
	LastRequestAt time.Time
	Requests      int64
	CacheHits     int64
	Failures      int64
}

// HitRate returns the share of requests answered from the cache.
func (s Snapshot) HitRate() float64 {
	if s.Requests == 0 {
		return 0
	}
	return float64(s.CacheHits) / float64(s.Requests)
}

type recorder struct {
	mu   sync.Mutex
	snap Snapshot
}

func (r *recorder) record(at time.Time, latency time.Duration, cacheHit, failed bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.snap.LastLatency = latency
	r.snap.LastCacheHit = cacheHit
	r.snap.LastRequestAt = at
	r.snap.Requests++
	if cacheHit {
		r.snap.CacheHits++
	}
	if failed {
		r.snap.Failures++
	}
}

func (r *recorder) snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snap
}
