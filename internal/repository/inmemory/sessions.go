package inmemory

import (
	"context"
	"time"

	authdomain "truck-ledger-go/internal/domain/auth"
	syncdomain "truck-ledger-go/internal/domain/sync"
)

// ReconcilerCache holds live reconcilers per session with a sliding idle TTL.
type ReconcilerCache struct {
	cache *ttlCache[*syncdomain.Reconciler]
}

func NewReconcilerCache() *ReconcilerCache {
	return &ReconcilerCache{cache: newTTLCache[*syncdomain.Reconciler]()}
}

func (c *ReconcilerCache) Get(key string) (*syncdomain.Reconciler, bool) {
	return c.cache.get(key)
}

func (c *ReconcilerCache) Set(key string, reconciler *syncdomain.Reconciler, ttl time.Duration) {
	if reconciler == nil {
		c.cache.delete(key)
		return
	}
	c.cache.set(key, reconciler, ttl)
}

func (c *ReconcilerCache) Delete(key string) {
	c.cache.delete(key)
}

func (c *ReconcilerCache) Len() int {
	return c.cache.len()
}

// Run sweeps expired entries until ctx is done.
func (c *ReconcilerCache) Run(ctx context.Context, interval time.Duration) {
	c.cache.runSweeper(ctx, interval)
}

// SessionCache holds signed-in sessions. Values are copied in and out.
type SessionCache struct {
	cache *ttlCache[authdomain.Session]
}

func NewSessionCache() *SessionCache {
	return &SessionCache{cache: newTTLCache[authdomain.Session]()}
}

func (c *SessionCache) Get(id string) (*authdomain.Session, bool) {
	session, ok := c.cache.get(id)
	if !ok {
		return nil, false
	}
	return &session, true
}

func (c *SessionCache) Set(id string, session *authdomain.Session, ttl time.Duration) {
	if session == nil {
		c.cache.delete(id)
		return
	}
	c.cache.set(id, *session, ttl)
}

func (c *SessionCache) Delete(id string) {
	c.cache.delete(id)
}

func (c *SessionCache) Run(ctx context.Context, interval time.Duration) {
	c.cache.runSweeper(ctx, interval)
}
