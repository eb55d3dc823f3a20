package sync

import (
	"context"
	"strings"
	stdsync "sync"
	"time"

	"truck-ledger-go/internal/domain/ledger"
	"truck-ledger-go/pkg/logger"
)

const defaultIdleTTL = 2 * time.Hour

type Dependencies struct {
	Gateway Gateway
	Cache   Cache
	Logger  logger.Logger
	IdleTTL time.Duration
	// StoreOptions are applied to every Store the manager creates.
	StoreOptions []ledger.Option
}

// Manager hands out one Reconciler per session. An idle session is dropped
// after IdleTTL; its next request starts from a fresh load.
type Manager struct {
	mu      stdsync.Mutex
	gateway Gateway
	cache   Cache
	log     logger.Logger
	idleTTL time.Duration
	opts    []ledger.Option
}

func NewManager(deps Dependencies) *Manager {
	ttl := deps.IdleTTL
	if ttl <= 0 {
		ttl = defaultIdleTTL
	}
	log := deps.Logger
	if log == nil {
		log = logger.Nop()
	}
	return &Manager{
		gateway: deps.Gateway,
		cache:   deps.Cache,
		log:     log,
		idleTTL: ttl,
		opts:    deps.StoreOptions,
	}
}

// Run executes one interaction cycle for the session. fn may be nil for a
// read-only cycle.
func (m *Manager) Run(ctx context.Context, sessionKey string, cred Credential, fn func(*ledger.Store) error) (Outcome, error) {
	reconciler, err := m.reconciler(sessionKey, cred)
	if err != nil {
		return Outcome{}, err
	}
	return reconciler.Cycle(ctx, cred, fn)
}

func (m *Manager) Reset(ctx context.Context, sessionKey string, cred Credential, confirmed bool) (Outcome, error) {
	if !confirmed {
		return Outcome{}, ErrResetNotConfirm
	}
	reconciler, err := m.reconciler(sessionKey, cred)
	if err != nil {
		return Outcome{}, err
	}
	m.log.Info("sync.reset: clearing record", "user_id", cred.UserID)
	return reconciler.Reset(ctx, cred)
}

// Forget drops the session's reconciler. Unsaved changes are lost.
func (m *Manager) Forget(sessionKey string) {
	m.cache.Delete(sessionKey)
}

func (m *Manager) reconciler(sessionKey string, cred Credential) (*Reconciler, error) {
	sessionKey = strings.TrimSpace(sessionKey)
	if sessionKey == "" {
		return nil, ErrMissingSession
	}
	if cred.UserID == "" {
		return nil, ErrMissingUserID
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.cache.Get(sessionKey); ok && existing.UserID() == cred.UserID {
		m.cache.Set(sessionKey, existing, m.idleTTL)
		return existing, nil
	}

	reconciler := NewReconciler(cred.UserID, m.gateway, m.log, m.opts...)
	m.cache.Set(sessionKey, reconciler, m.idleTTL)
	m.log.Debug("sync.session: reconciler created", "user_id", cred.UserID)
	return reconciler, nil
}
