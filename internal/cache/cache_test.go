package cache

import (
	"testing"
	"time"
)

func TestLRUEvictsOldest(t *testing.T) {
	c := NewLRU[int](2, time.Minute)
	c.Set("a", 1)
	c.Set("b", 2)
	c.Set("c", 3)

	if _, ok := c.Get("a"); ok {
		t.Fatal("oldest entry must be evicted at capacity")
	}
	if v, ok := c.Get("c"); !ok || v != 3 {
		t.Fatalf("expected c=3, got %v %v", v, ok)
	}
	if c.Size() != 2 {
		t.Fatalf("size = %d", c.Size())
	}
}

func TestTTLExpiry(t *testing.T) {
	c := NewLRU[string](10, time.Minute)
	now := time.Now()
	c.clock = func() time.Time { return now }

	c.Set("k", "v")
	if _, ok := c.Get("k"); !ok {
		t.Fatal("fresh entry must be served")
	}

	now = now.Add(2 * time.Minute)
	if _, ok := c.Get("k"); ok {
		t.Fatal("expired entry must not be served")
	}
	if c.Size() != 0 {
		t.Fatal("expired entry must be dropped on read")
	}
}

func TestFlushDropsEverything(t *testing.T) {
	c := NewLRU[int](10, time.Minute)
	c.Set("a", 1)
	c.Set("b", 2)
	c.Flush()
	if c.Size() != 0 {
		t.Fatalf("size after flush = %d", c.Size())
	}
	c.Set("c", 3)
	if v, ok := c.Get("c"); !ok || v != 3 {
		t.Fatal("cache must remain usable after flush")
	}
}

func TestCleanExpired(t *testing.T) {
	c := NewLRU[int](10, time.Minute)
	now := time.Now()
	c.clock = func() time.Time { return now }

	c.Set("a", 1)
	now = now.Add(30 * time.Second)
	c.Set("b", 2)
	now = now.Add(45 * time.Second)

	if n := c.CleanExpired(); n != 1 {
		t.Fatalf("expected 1 expired entry, got %d", n)
	}
	if _, ok := c.Get("b"); !ok {
		t.Fatal("live entry must survive cleanup")
	}
}
