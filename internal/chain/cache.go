package chain

import "sync"

// boundedCache is a concurrency-safe map that is reset once it reaches its
// limit. Block timestamps and senders are immutable, so a cold miss only
// costs one extra RPC call.
type boundedCache[K comparable, V any] struct {
	mu    sync.RWMutex
	limit int
	items map[K]V
}

func newBoundedCache[K comparable, V any](limit int) *boundedCache[K, V] {
	return &boundedCache[K, V]{limit: limit, items: make(map[K]V)}
}

func (c *boundedCache[K, V]) get(key K) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.items[key]
	return v, ok
}

func (c *boundedCache[K, V]) put(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.items) >= c.limit {
		clear(c.items)
	}
	c.items[key] = value
}

func (c *boundedCache[K, V]) len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}
