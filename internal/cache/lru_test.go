package cache

import "testing"

func TestLRUCacheGetSet(t *testing.T) {
	c := NewLRUCache[int](2)

	c.Set("a", 1)
	c.Set("b", 2)
	if v, ok := c.Get("a"); !ok || v != 1 {
		t.Fatalf("expected a=1, got %v %v", v, ok)
	}

	// "b" is now least recently used and gets evicted.
	c.Set("c", 3)
	if _, ok := c.Get("b"); ok {
		t.Fatalf("expected b to be evicted")
	}
	if len(c.items) != 2 || c.lru.Len() != 2 {
		t.Fatalf("expected 2 entries, got %d/%d", len(c.items), c.lru.Len())
	}
}

func TestLRUCacheOverwrite(t *testing.T) {
	c := NewLRUCache[string](2)
	c.Set("k", "old")
	c.Set("k", "new")

	if v, _ := c.Get("k"); v != "new" {
		t.Fatalf("expected new, got %q", v)
	}
	if len(c.items) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(c.items))
	}
}

func TestLRUCacheMinimumSize(t *testing.T) {
	c := NewLRUCache[int](0)
	c.Set("a", 1)
	c.Set("b", 2)

	if _, ok := c.Get("a"); ok {
		t.Fatalf("expected a to be evicted from a single-entry cache")
	}
	if v, ok := c.Get("b"); !ok || v != 2 {
		t.Fatalf("expected b=2, got %v %v", v, ok)
	}
}

func TestLRUCachePurge(t *testing.T) {
	c := NewLRUCache[int](4)
	c.Set("a", 1)
	c.Set("b", 2)

	c.Purge()
	if _, ok := c.Get("a"); ok {
		t.Fatalf("expected a to be purged")
	}
	if len(c.items) != 0 || c.lru.Len() != 0 {
		t.Fatalf("expected empty cache after purge, got %d", len(c.items))
	}
	c.Set("d", 4)
	if v, ok := c.Get("d"); !ok || v != 4 {
		t.Fatalf("cache unusable after purge: %v %v", v, ok)
	}
}
