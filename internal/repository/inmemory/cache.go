package inmemory

import (
	"context"
	"sync"
	"time"
)

type ttlCache[V any] struct {
	mu    sync.RWMutex
	items map[string]ttlItem[V]
	now   func() time.Time
}

type ttlItem[V any] struct {
	value     V
	expiresAt time.Time
}

func newTTLCache[V any]() *ttlCache[V] {
	return &ttlCache[V]{
		items: make(map[string]ttlItem[V]),
		now:   time.Now,
	}
}

func (c *ttlCache[V]) get(key string) (V, bool) {
	now := c.now()

	c.mu.RLock()
	item, ok := c.items[key]
	c.mu.RUnlock()
	if !ok {
		var zero V
		return zero, false
	}

	if !item.expiresAt.After(now) {
		c.mu.Lock()
		item, ok = c.items[key]
		if ok && !item.expiresAt.After(now) {
			delete(c.items, key)
		}
		c.mu.Unlock()
		var zero V
		return zero, false
	}

	return item.value, true
}

func (c *ttlCache[V]) set(key string, value V, ttl time.Duration) {
	if ttl <= 0 {
		c.delete(key)
		return
	}

	c.mu.Lock()
	c.items[key] = ttlItem[V]{
		value:     value,
		expiresAt: c.now().Add(ttl),
	}
	c.mu.Unlock()
}

func (c *ttlCache[V]) delete(key string) {
	c.mu.Lock()
	delete(c.items, key)
	c.mu.Unlock()
}

func (c *ttlCache[V]) len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// sweep drops expired entries that were never read again.
func (c *ttlCache[V]) sweep() int {
	now := c.now()
	removed := 0

	c.mu.Lock()
	for key, item := range c.items {
		if !item.expiresAt.After(now) {
			delete(c.items, key)
			removed++
		}
	}
	c.mu.Unlock()

	return removed
}

func (c *ttlCache[V]) runSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.sweep()
		}
	}
}
