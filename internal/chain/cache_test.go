package chain

import (
	"sync"
	"testing"
)

func TestBoundedCacheResetsAtLimit(t *testing.T) {
	c := newBoundedCache[uint64, uint64](3)
	for i := uint64(0); i < 3; i++ {
		c.put(i, i*10)
	}
	if v, ok := c.get(2); !ok || v != 20 {
		t.Fatalf("expected cached value 20, got %d (%v)", v, ok)
	}

	c.put(3, 30)
	if c.len() != 1 {
		t.Fatalf("expected reset to a single entry, got %d", c.len())
	}
	if _, ok := c.get(0); ok {
		t.Fatalf("expected old entries to be dropped")
	}
	if v, ok := c.get(3); !ok || v != 30 {
		t.Fatalf("expected newest entry to survive, got %d (%v)", v, ok)
	}
}

func TestBoundedCacheConcurrentAccess(t *testing.T) {
	c := newBoundedCache[int, int](16)
	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				c.put(w*100+i, i)
				c.get(i)
			}
		}(w)
	}
	wg.Wait()
	if c.len() > 16 {
		t.Fatalf("cache exceeded its limit: %d", c.len())
	}
}
