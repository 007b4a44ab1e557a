// Package ratelimit counts attempts per key over a sliding window.
package ratelimit

import (
	"time"

	"github.com/caasmo/notespieces/cache"
	"github.com/caasmo/notespieces/keylock"
)

// Limiter decides whether one more attempt under key is allowed. When it
// is not, the returned duration is the time until the oldest attempt
// leaves the window.
type Limiter interface {
	Allow(key string) (bool, time.Duration)
}

// Store keeps the attempt log of each key. Implementations backed by a
// shared server let several instances enforce one limit.
type Store interface {
	Load(key string) []time.Time
	Save(key string, hits []time.Time, ttl time.Duration)
}

// CacheStore keeps attempt logs in an in-process cache.
type CacheStore struct {
	cache cache.Cache[[]time.Time]
}

func NewCacheStore(c cache.Cache[[]time.Time]) *CacheStore {
	return &CacheStore{cache: c}
}

func (s *CacheStore) Load(key string) []time.Time {
	hits, _ := s.cache.Get(key)
	return hits
}

// Save blocks until the write is visible so the next Load of the same key
// sees it.
func (s *CacheStore) Save(key string, hits []time.Time, ttl time.Duration) {
	s.cache.SetWithTTL(key, hits, 1, ttl)
	s.cache.Wait()
}

// SlidingWindow allows Limit attempts per key within any Window long
// interval. Rejected attempts are not recorded.
type SlidingWindow struct {
	Limit  int
	Window time.Duration

	store Store
	locks *keylock.Locks
	now   func() time.Time
}

var _ Limiter = (*SlidingWindow)(nil)

func NewSlidingWindow(limit int, window time.Duration, store Store) *SlidingWindow {
	return &SlidingWindow{
		Limit:  limit,
		Window: window,
		store:  store,
		locks:  keylock.New(0),
		now:    time.Now,
	}
}

func (sw *SlidingWindow) Allow(key string) (bool, time.Duration) {
	unlock := sw.locks.Lock(key)
	defer unlock()

	now := sw.now()
	cutoff := now.Add(-sw.Window)

	stored := sw.store.Load(key)
	hits := make([]time.Time, 0, len(stored)+1)
	for _, t := range stored {
		if t.After(cutoff) {
			hits = append(hits, t)
		}
	}

	if len(hits) >= sw.Limit {
		return false, hits[0].Add(sw.Window).Sub(now)
	}

	hits = append(hits, now)
	sw.store.Save(key, hits, sw.Window)
	return true, 0
}

// Unlimited allows everything, it stands in when rate limiting is disabled.
type Unlimited struct{}

func (Unlimited) Allow(string) (bool, time.Duration) { return true, 0 }
