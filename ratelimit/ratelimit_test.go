package ratelimit

import (
	"sync"
	"testing"
	"time"

	"github.com/caasmo/notespieces/cache/ristretto"
)

// mapStore is a Store without buffering, to test the window logic alone.
type mapStore struct {
	mu   sync.Mutex
	hits map[string][]time.Time
}

func (m *mapStore) Load(key string) []time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.hits[key]
}

func (m *mapStore) Save(key string, hits []time.Time, ttl time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hits[key] = hits
}

func newTestWindow(limit int, window time.Duration) (*SlidingWindow, *time.Time) {
	sw := NewSlidingWindow(limit, window, &mapStore{hits: map[string][]time.Time{}})
	clock := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	sw.now = func() time.Time { return clock }
	return sw, &clock
}

func TestSlidingWindow(t *testing.T) {
	sw, clock := newTestWindow(3, time.Minute)

	for i := 0; i < 3; i++ {
		if ok, _ := sw.Allow("k"); !ok {
			t.Fatalf("attempt %d rejected", i+1)
		}
		*clock = clock.Add(10 * time.Second)
	}

	// t=30s, the first hit (t=0) leaves the window at t=60s
	ok, wait := sw.Allow("k")
	if ok {
		t.Fatal("fourth attempt allowed")
	}
	if wait != 30*time.Second {
		t.Errorf("wait = %v, want 30s", wait)
	}

	// other keys are independent
	if ok, _ := sw.Allow("other"); !ok {
		t.Error("independent key rejected")
	}

	*clock = clock.Add(30 * time.Second)
	if ok, _ := sw.Allow("k"); !ok {
		t.Error("attempt after the oldest hit expired was rejected")
	}
	if ok, _ := sw.Allow("k"); ok {
		t.Error("window should be full again")
	}
}

func TestSlidingWindowRejectedNotRecorded(t *testing.T) {
	sw, clock := newTestWindow(1, time.Minute)

	sw.Allow("k")
	for i := 0; i < 5; i++ {
		*clock = clock.Add(time.Second)
		sw.Allow("k")
	}

	*clock = clock.Add(55 * time.Second) // t=60s
	if ok, _ := sw.Allow("k"); !ok {
		t.Error("rejected attempts must not extend the window")
	}
}

func TestSlidingWindowConcurrent(t *testing.T) {
	sw := NewSlidingWindow(10, time.Hour, &mapStore{hits: map[string][]time.Time{}})

	var mu sync.Mutex
	allowed := 0
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ok, _ := sw.Allow("k"); ok {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if allowed != 10 {
		t.Errorf("allowed = %d, want 10", allowed)
	}
}

func TestCacheStore(t *testing.T) {
	c, err := ristretto.New[[]time.Time]("small")
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	sw := NewSlidingWindow(2, time.Minute, NewCacheStore(c))
	for i := 0; i < 2; i++ {
		if ok, _ := sw.Allow("ip:email"); !ok {
			t.Fatalf("attempt %d rejected", i+1)
		}
	}
	if ok, wait := sw.Allow("ip:email"); ok || wait <= 0 {
		t.Errorf("third attempt = (%v, %v), want rejection with wait", ok, wait)
	}
}

func TestUnlimited(t *testing.T) {
	var l Limiter = Unlimited{}
	for i := 0; i < 100; i++ {
		if ok, _ := l.Allow("k"); !ok {
			t.Fatal("Unlimited rejected")
		}
	}
}
