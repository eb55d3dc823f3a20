package sync

import (
	"context"
	"errors"
	"testing"
	"time"

	"truck-ledger-go/internal/domain/ledger"
)

type fakeCache struct {
	items map[string]*Reconciler
	ttls  map[string]time.Duration
}

func newFakeCache() *fakeCache {
	return &fakeCache{items: make(map[string]*Reconciler), ttls: make(map[string]time.Duration)}
}

func (c *fakeCache) Get(key string) (*Reconciler, bool) {
	r, ok := c.items[key]
	return r, ok
}

func (c *fakeCache) Set(key string, reconciler *Reconciler, ttl time.Duration) {
	c.items[key] = reconciler
	c.ttls[key] = ttl
}

func (c *fakeCache) Delete(key string) {
	delete(c.items, key)
	delete(c.ttls, key)
}

func newTestManager(gateway Gateway, cache Cache) *Manager {
	return NewManager(Dependencies{
		Gateway:      gateway,
		Cache:        cache,
		IdleTTL:      time.Minute,
		StoreOptions: []ledger.Option{ledger.WithClock(fixedClock)},
	})
}

func TestManagerReusesSessionReconciler(t *testing.T) {
	gateway := newFakeGateway()
	cache := newFakeCache()
	manager := newTestManager(gateway, cache)
	ctx := context.Background()

	if _, err := manager.Run(ctx, "session-a", testCred, func(store *ledger.Store) error {
		return store.SetBaseline(1000)
	}); err != nil {
		t.Fatalf("run: %v", err)
	}
	outcome, err := manager.Run(ctx, "session-a", testCred, nil)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if outcome.Loaded {
		t.Fatalf("second run must not reload")
	}
	if gateway.loads != 1 {
		t.Fatalf("expected one load, got %d", gateway.loads)
	}
	if cache.ttls["session-a"] != time.Minute {
		t.Fatalf("expected sliding ttl, got %v", cache.ttls["session-a"])
	}
}

func TestManagerSeparateSessionsLoadIndependently(t *testing.T) {
	gateway := newFakeGateway()
	manager := newTestManager(gateway, newFakeCache())
	ctx := context.Background()

	_, _ = manager.Run(ctx, "session-a", testCred, func(store *ledger.Store) error {
		return store.SetBaseline(1000)
	})
	outcome, err := manager.Run(ctx, "session-b", testCred, nil)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !outcome.Loaded || *outcome.Record.Baseline != 1000 {
		t.Fatalf("second session must load the saved record, got %+v", outcome)
	}
}

func TestManagerReplacesReconcilerForDifferentUser(t *testing.T) {
	cache := newFakeCache()
	manager := newTestManager(newFakeGateway(), cache)
	ctx := context.Background()

	_, _ = manager.Run(ctx, "session-a", testCred, nil)
	other := Credential{UserID: "driver-2"}
	if _, err := manager.Run(ctx, "session-a", other, nil); err != nil {
		t.Fatalf("run: %v", err)
	}
	if cache.items["session-a"].UserID() != "driver-2" {
		t.Fatalf("expected reconciler for driver-2")
	}
}

func TestManagerForgetDropsSession(t *testing.T) {
	gateway := newFakeGateway()
	cache := newFakeCache()
	manager := newTestManager(gateway, cache)
	ctx := context.Background()

	_, _ = manager.Run(ctx, "session-a", testCred, nil)
	manager.Forget("session-a")
	if _, ok := cache.items["session-a"]; ok {
		t.Fatalf("expected session to be dropped")
	}
	_, _ = manager.Run(ctx, "session-a", testCred, nil)
	if gateway.loads != 2 {
		t.Fatalf("expected reload after forget, got %d loads", gateway.loads)
	}
}

func TestManagerResetRequiresConfirmation(t *testing.T) {
	gateway := newFakeGateway()
	manager := newTestManager(gateway, newFakeCache())

	if _, err := manager.Reset(context.Background(), "session-a", testCred, false); !errors.Is(err, ErrResetNotConfirm) {
		t.Fatalf("expected ErrResetNotConfirm, got %v", err)
	}
	if gateway.deletes != 0 {
		t.Fatalf("unconfirmed reset must not touch the gateway")
	}
	if _, err := manager.Reset(context.Background(), "session-a", testCred, true); err != nil {
		t.Fatalf("reset: %v", err)
	}
}

func TestManagerRequiresSessionKey(t *testing.T) {
	manager := newTestManager(newFakeGateway(), newFakeCache())
	if _, err := manager.Run(context.Background(), " ", testCred, nil); !errors.Is(err, ErrMissingSession) {
		t.Fatalf("expected ErrMissingSession, got %v", err)
	}
}
