package cache

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestCache(size int, ttl time.Duration) (*LRUCache[string], *fakeClock) {
	clock := &fakeClock{t: time.Date(2025, 3, 15, 9, 0, 0, 0, time.UTC)}
	c := NewLRUCache[string](size, ttl)
	c.now = clock.now
	return c, clock
}

func TestLRUCache_GetSet(t *testing.T) {
	c, _ := newTestCache(2, time.Minute)

	c.Set("a", "1")
	c.Set("b", "2")
	if v, ok := c.Get("a"); !ok || v != "1" {
		t.Errorf("Get(a) = %v, %v, want 1, true", v, ok)
	}

	// "b" is now least recently used.
	c.Set("c", "3")
	if _, ok := c.Get("b"); ok {
		t.Error("b should have been evicted")
	}
	if c.Size() != 2 {
		t.Errorf("Size() = %d, want 2", c.Size())
	}

	c.Set("a", "updated")
	if v, _ := c.Get("a"); v != "updated" {
		t.Errorf("Get(a) = %v, want updated", v)
	}

	c.Delete("a")
	if _, ok := c.Get("a"); ok {
		t.Error("a should be deleted")
	}
}

func TestLRUCache_Expiry(t *testing.T) {
	c, clock := newTestCache(10, time.Minute)
	c.Set("evt-1", "done")
	c.Set("evt-2", "done")

	clock.advance(30 * time.Second)
	c.Set("evt-3", "done")
	clock.advance(45 * time.Second)

	if _, ok := c.Get("evt-1"); ok {
		t.Error("evt-1 should have expired")
	}
	if removed := c.CleanExpired(); removed != 1 {
		t.Errorf("CleanExpired() = %d, want 1", removed)
	}
	if c.Size() != 1 {
		t.Errorf("Size() = %d, want 1", c.Size())
	}
}

func TestLRUCache_SetIfAbsent(t *testing.T) {
	c, clock := newTestCache(10, time.Minute)

	if !c.SetIfAbsent("evt-1", "claimed") {
		t.Fatal("first claim should succeed")
	}
	if c.SetIfAbsent("evt-1", "again") {
		t.Error("second claim should fail while the entry is live")
	}

	clock.advance(2 * time.Minute)
	if !c.SetIfAbsent("evt-1", "reclaimed") {
		t.Error("claim should succeed after expiry")
	}
}

func TestLRUCache_ConcurrentClaims(t *testing.T) {
	c := NewLRUCache[struct{}](100, time.Minute)
	var wins int64
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if c.SetIfAbsent("evt-1", struct{}{}) {
				atomic.AddInt64(&wins, 1)
			}
		}()
	}
	wg.Wait()
	if wins != 1 {
		t.Errorf("exactly one claim should win, got %d", wins)
	}
}

func TestManager_CleanAll(t *testing.T) {
	m := NewManager()
	caches := make([]*LRUCache[string], 3)
	clocks := make([]*fakeClock, 3)
	for i := range caches {
		caches[i], clocks[i] = newTestCache(10, time.Minute)
		for j := 0; j <= i; j++ {
			caches[i].Set(fmt.Sprintf("k%d", j), "v")
		}
		clocks[i].advance(time.Hour)
		m.Register(caches[i])
	}

	if got := m.CleanAll(); got != 6 {
		t.Errorf("CleanAll() = %d, want 6", got)
	}
}
