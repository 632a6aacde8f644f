package cache

import (
	"fmt"
	"testing"
	"time"
)

func TestCache_LRUEviction(t *testing.T) {
	// N > capacity distinct insertions evict exactly N-capacity entries, and
	// the evicted entries are the least recently used.
	const n = 100
	c := New[int](DefaultCapacity, 0)

	for i := 0; i < n; i++ {
		c.Add(fmt.Sprintf("k%03d", i), i)
	}

	if c.Len() != DefaultCapacity {
		t.Fatalf("len = %d, want %d", c.Len(), DefaultCapacity)
	}

	evicted := 0
	for i := 0; i < n; i++ {
		if _, ok := c.Peek(fmt.Sprintf("k%03d", i)); !ok {
			evicted++
			if i >= n-DefaultCapacity {
				t.Errorf("recently used key k%03d was evicted", i)
			}
		}
	}
	if evicted != n-DefaultCapacity {
		t.Errorf("evicted %d entries, want %d", evicted, n-DefaultCapacity)
	}
}

func TestCache_GetBumpsRecency(t *testing.T) {
	c := New[int](2, 0)
	c.Add("a", 1)
	c.Add("b", 2)

	// touching "a" makes "b" the LRU entry
	if _, ok := c.Get("a"); !ok {
		t.Fatal("entry a missing")
	}
	c.Add("c", 3)

	if _, ok := c.Peek("a"); !ok {
		t.Error("recently used entry a was evicted")
	}
	if _, ok := c.Peek("b"); ok {
		t.Error("least recently used entry b survived")
	}
}

func TestCache_TTLExpiry(t *testing.T) {
	c := New[int](DefaultCapacity, 50*time.Millisecond)
	c.Add("k", 42)

	if v, ok := c.Get("k"); !ok || v != 42 {
		t.Fatalf("Get before expiry = (%d, %t)", v, ok)
	}

	time.Sleep(80 * time.Millisecond)

	if _, ok := c.Get("k"); ok {
		t.Error("entry served after its TTL elapsed")
	}
}

func TestCache_PeekKeepsLRUOrder(t *testing.T) {
	// In-place mutation reads the cache with Peek, which must not advance
	// the entry's LRU position.
	c := New[*[]string](2, 0)
	a := &[]string{"t1"}
	c.Add("a", a)
	c.Add("b", &[]string{"t2"})

	if v, ok := c.Peek("a"); !ok {
		t.Fatal("entry a missing")
	} else {
		*v = append(*v, "t3")
	}

	c.Add("c", &[]string{"t4"})
	if _, ok := c.Peek("a"); ok {
		t.Error("peeked entry a treated as recently used")
	}

	if v, ok := c.Peek("b"); !ok || len(*v) != 1 {
		t.Errorf("entry b = %v", v)
	}
}

func TestCoverImagePath(t *testing.T) {
	got := CoverImagePath("/cache/image", "The Album", "Artist A, Artist B")
	want := "/cache/image/The Album-Artist A, Artist B-cover.jpg"
	if got != want {
		t.Errorf("CoverImagePath() = %q, want %q", got, want)
	}
}
