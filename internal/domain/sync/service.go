package sync

import (
	"context"
	stdsync "sync"

	"truck-ledger-go/internal/domain/ledger"
	"truck-ledger-go/pkg/logger"
)

// Reconciler owns one session's Record and decides when it is loaded from and
// flushed to the Gateway. Cycles are serialized; one runs at a time.
type Reconciler struct {
	mu          stdsync.Mutex
	userID      string
	gateway     Gateway
	store       *ledger.Store
	initialized bool
	log         logger.Logger
}

func NewReconciler(userID string, gateway Gateway, log logger.Logger, opts ...ledger.Option) *Reconciler {
	return &Reconciler{
		userID:  userID,
		gateway: gateway,
		store:   ledger.NewStore(opts...),
		log:     log.With("user_id", userID),
	}
}

func (r *Reconciler) UserID() string {
	return r.userID
}

func (r *Reconciler) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state()
}

// Cycle runs one interaction: load on first use, flush pending changes, apply
// fn, and flush again if fn left the Record dirty. A validation error from fn
// is returned as is; persistence problems become warnings.
func (r *Reconciler) Cycle(ctx context.Context, cred Credential, fn func(*ledger.Store) error) (Outcome, error) {
	if err := r.checkCredential(cred); err != nil {
		return Outcome{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	var outcome Outcome
	r.begin(ctx, cred, &outcome)

	if fn != nil {
		if err := fn(r.store); err != nil {
			outcome.Record = r.store.Record()
			outcome.State = r.state()
			return outcome, err
		}
		r.flush(ctx, cred, &outcome)
	}

	outcome.Record = r.store.Record()
	outcome.State = r.state()
	return outcome, nil
}

// Reset clears the Record, wipes the remote copy best-effort and saves the
// cleared Record so the remote matches the local copy.
func (r *Reconciler) Reset(ctx context.Context, cred Credential) (Outcome, error) {
	if err := r.checkCredential(cred); err != nil {
		return Outcome{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	var outcome Outcome
	cleared := r.store.Reset()
	r.initialized = true

	if err := r.gateway.Delete(ctx, cred); err != nil {
		r.log.BusinessError("sync.reset: delete remote copy failed", err)
		outcome.Warnings = append(outcome.Warnings, Warning{Code: WarningCodeDeleteFailed, Message: "could not delete the saved copy"})
	}

	if err := r.gateway.Save(ctx, cred, cleared); err != nil {
		r.log.BusinessError("sync.reset: save cleared record failed", err)
		outcome.Warnings = append(outcome.Warnings, Warning{Code: WarningCodeSaveFailed, Message: "changes kept locally but not saved"})
		// Left dirty so the next cycle saves the cleared Record again.
		r.store.MarkDirty()
	}

	outcome.Record = r.store.Record()
	outcome.State = r.state()
	return outcome, nil
}

func (r *Reconciler) begin(ctx context.Context, cred Credential, outcome *Outcome) {
	if !r.initialized {
		r.load(ctx, cred, outcome)
		r.initialized = true
	}
	if r.store.Dirty() {
		r.flush(ctx, cred, outcome)
	}
}

func (r *Reconciler) load(ctx context.Context, cred Credential, outcome *Outcome) {
	record, err := r.gateway.Load(ctx, cred)
	if err != nil {
		r.log.BusinessError("sync.load: load failed, starting fresh", err)
		outcome.Warnings = append(outcome.Warnings, Warning{Code: WarningCodeLoadFailed, Message: "no data found for user, starting fresh"})
		return
	}
	if record == nil {
		r.log.Debug("sync.load: no saved record")
		return
	}

	r.store.Replace(*record)
	outcome.Loaded = true
	r.log.Debug("sync.load: record loaded", "log_entries", len(record.Log))
}

func (r *Reconciler) flush(ctx context.Context, cred Credential, outcome *Outcome) {
	if !r.store.Dirty() {
		return
	}

	if err := r.gateway.Save(ctx, cred, r.store.Record()); err != nil {
		r.log.BusinessError("sync.flush: save failed, keeping local changes", err)
		outcome.Warnings = append(outcome.Warnings, Warning{Code: WarningCodeSaveFailed, Message: "changes kept locally but not saved"})
		return
	}
	r.store.MarkClean()
}

func (r *Reconciler) state() State {
	switch {
	case !r.initialized:
		return StateUninitialized
	case r.store.Dirty():
		return StateDirty
	default:
		return StateClean
	}
}

func (r *Reconciler) checkCredential(cred Credential) error {
	if cred.UserID == "" {
		return ErrMissingUserID
	}
	if cred.UserID != r.userID {
		return ErrUserMismatch
	}
	return nil
}
