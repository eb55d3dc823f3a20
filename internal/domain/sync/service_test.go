package sync

import (
	"context"
	"errors"
	"testing"
	"time"

	"truck-ledger-go/internal/domain/ledger"
	"truck-ledger-go/pkg/logger"
)

type fakeGateway struct {
	records   map[string]ledger.Record
	loadErr   error
	saveErr   error
	deleteErr error
	loads     int
	saves     int
	deletes   int
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{records: make(map[string]ledger.Record)}
}

func (g *fakeGateway) Load(ctx context.Context, cred Credential) (*ledger.Record, error) {
	g.loads++
	if g.loadErr != nil {
		return nil, g.loadErr
	}
	record, ok := g.records[cred.UserID]
	if !ok {
		return nil, nil
	}
	clone := record.Clone()
	return &clone, nil
}

func (g *fakeGateway) Save(ctx context.Context, cred Credential, record ledger.Record) error {
	g.saves++
	if g.saveErr != nil {
		return g.saveErr
	}
	g.records[cred.UserID] = record.Clone()
	return nil
}

func (g *fakeGateway) Delete(ctx context.Context, cred Credential) error {
	g.deletes++
	if g.deleteErr != nil {
		return g.deleteErr
	}
	delete(g.records, cred.UserID)
	return nil
}

var (
	testCred  = Credential{UserID: "driver-1", Token: "token"}
	errRemote = errors.New("remote unavailable")
)

func fixedClock() time.Time {
	return time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
}

func newTestReconciler(gateway Gateway) *Reconciler {
	return NewReconciler(testCred.UserID, gateway, logger.Nop(), ledger.WithClock(fixedClock))
}

func TestFirstCycleLoadsSavedRecord(t *testing.T) {
	gateway := newFakeGateway()
	saved := ledger.NewRecord()
	baseline := 150000.0
	saved.Baseline = &baseline
	saved.LastMileage = &baseline
	gateway.records[testCred.UserID] = saved

	reconciler := newTestReconciler(gateway)
	if reconciler.State() != StateUninitialized {
		t.Fatalf("expected uninitialized before the first cycle")
	}

	outcome, err := reconciler.Cycle(context.Background(), testCred, nil)
	if err != nil {
		t.Fatalf("cycle: %v", err)
	}
	if !outcome.Loaded || outcome.Record.Baseline == nil || *outcome.Record.Baseline != 150000 {
		t.Fatalf("expected loaded record, got %+v", outcome)
	}
	if outcome.State != StateClean {
		t.Fatalf("expected clean, got %s", outcome.State)
	}

	if _, err := reconciler.Cycle(context.Background(), testCred, nil); err != nil {
		t.Fatalf("second cycle: %v", err)
	}
	if gateway.loads != 1 {
		t.Fatalf("expected a single load, got %d", gateway.loads)
	}
	if gateway.saves != 0 {
		t.Fatalf("read-only cycles must not save, got %d", gateway.saves)
	}
}

func TestLoadFailureStartsFreshWithWarning(t *testing.T) {
	gateway := newFakeGateway()
	gateway.loadErr = errRemote

	outcome, err := newTestReconciler(gateway).Cycle(context.Background(), testCred, nil)
	if err != nil {
		t.Fatalf("cycle: %v", err)
	}
	if len(outcome.Warnings) != 1 || outcome.Warnings[0].Code != WarningCodeLoadFailed {
		t.Fatalf("expected load warning, got %+v", outcome.Warnings)
	}
	if outcome.Record.Baseline != nil || len(outcome.Record.Log) != 0 {
		t.Fatalf("expected default record, got %+v", outcome.Record)
	}
	if outcome.State != StateClean {
		t.Fatalf("expected clean, got %s", outcome.State)
	}
}

func TestMutationIsFlushedInSameCycle(t *testing.T) {
	gateway := newFakeGateway()
	reconciler := newTestReconciler(gateway)

	outcome, err := reconciler.Cycle(context.Background(), testCred, func(store *ledger.Store) error {
		return store.SetBaseline(150000)
	})
	if err != nil {
		t.Fatalf("cycle: %v", err)
	}
	if outcome.State != StateClean || len(outcome.Warnings) != 0 {
		t.Fatalf("expected clean without warnings, got %+v", outcome)
	}
	if gateway.saves != 1 {
		t.Fatalf("expected one save, got %d", gateway.saves)
	}
	if saved := gateway.records[testCred.UserID]; saved.Baseline == nil || *saved.Baseline != 150000 {
		t.Fatalf("remote copy not updated: %+v", saved)
	}
}

func TestSaveFailureKeepsLocalEditAndRetries(t *testing.T) {
	gateway := newFakeGateway()
	gateway.saveErr = errRemote
	reconciler := newTestReconciler(gateway)

	outcome, err := reconciler.Cycle(context.Background(), testCred, func(store *ledger.Store) error {
		_, err := store.AddExpense(ledger.ExpenseFields{Type: ledger.ExpenseTypeFuel, Description: "diesel", Amount: 40})
		return err
	})
	if err != nil {
		t.Fatalf("cycle: %v", err)
	}
	if outcome.State != StateDirty {
		t.Fatalf("expected dirty after failed save, got %s", outcome.State)
	}
	if len(outcome.Warnings) != 1 || outcome.Warnings[0].Code != WarningCodeSaveFailed {
		t.Fatalf("expected save warning, got %+v", outcome.Warnings)
	}
	if len(outcome.Record.Expenses) != 1 {
		t.Fatalf("local edit lost: %+v", outcome.Record.Expenses)
	}

	gateway.saveErr = nil
	outcome, err = reconciler.Cycle(context.Background(), testCred, nil)
	if err != nil {
		t.Fatalf("retry cycle: %v", err)
	}
	if outcome.State != StateClean || len(outcome.Warnings) != 0 {
		t.Fatalf("expected clean after retry, got %+v", outcome)
	}
	if len(gateway.records[testCred.UserID].Expenses) != 1 {
		t.Fatalf("retry did not persist the expense")
	}
}

func TestRejectedMutationStaysClean(t *testing.T) {
	gateway := newFakeGateway()
	reconciler := newTestReconciler(gateway)

	outcome, err := reconciler.Cycle(context.Background(), testCred, func(store *ledger.Store) error {
		return store.SetBaseline(-5)
	})
	if !errors.Is(err, ledger.ErrInvalidBaseline) {
		t.Fatalf("expected ErrInvalidBaseline, got %v", err)
	}
	if outcome.State != StateClean {
		t.Fatalf("expected clean, got %s", outcome.State)
	}
	if gateway.saves != 0 {
		t.Fatalf("rejected mutation must not save")
	}
}

func TestImportIsFlushed(t *testing.T) {
	source := ledger.NewStore(ledger.WithClock(fixedClock))
	_ = source.SetBaseline(1000)
	_, _ = source.ConfirmTrip(1100, 10, 40)
	data, err := source.Export()
	if err != nil {
		t.Fatalf("export: %v", err)
	}

	gateway := newFakeGateway()
	reconciler := newTestReconciler(gateway)
	outcome, err := reconciler.Cycle(context.Background(), testCred, func(store *ledger.Store) error {
		return store.Import(data)
	})
	if err != nil {
		t.Fatalf("cycle: %v", err)
	}
	if outcome.State != StateClean {
		t.Fatalf("expected clean, got %s", outcome.State)
	}
	if saved := gateway.records[testCred.UserID]; saved.TotalMiles != 100 {
		t.Fatalf("imported record not saved: %+v", saved)
	}
}

func TestResetThenFreshSessionSeesDefaults(t *testing.T) {
	gateway := newFakeGateway()
	reconciler := newTestReconciler(gateway)
	_, _ = reconciler.Cycle(context.Background(), testCred, func(store *ledger.Store) error {
		return store.SetBaseline(1000)
	})

	outcome, err := reconciler.Reset(context.Background(), testCred)
	if err != nil {
		t.Fatalf("reset: %v", err)
	}
	if outcome.Record.Baseline != nil || outcome.State != StateClean {
		t.Fatalf("unexpected reset outcome %+v", outcome)
	}
	if gateway.deletes != 1 {
		t.Fatalf("expected remote delete")
	}

	fresh := newTestReconciler(gateway)
	outcome, err = fresh.Cycle(context.Background(), testCred, nil)
	if err != nil {
		t.Fatalf("fresh cycle: %v", err)
	}
	if outcome.Record.Baseline != nil {
		t.Fatalf("fresh session must see defaults, got %+v", outcome.Record)
	}
}

func TestResetDeleteFailureIsWarning(t *testing.T) {
	gateway := newFakeGateway()
	gateway.deleteErr = errRemote

	outcome, err := newTestReconciler(gateway).Reset(context.Background(), testCred)
	if err != nil {
		t.Fatalf("reset: %v", err)
	}
	if len(outcome.Warnings) != 1 || outcome.Warnings[0].Code != WarningCodeDeleteFailed {
		t.Fatalf("expected delete warning, got %+v", outcome.Warnings)
	}
	if gateway.saves != 1 {
		t.Fatalf("cleared record must still be saved")
	}
}

func TestResetSaveFailureLeavesDirty(t *testing.T) {
	gateway := newFakeGateway()
	gateway.saveErr = errRemote

	outcome, err := newTestReconciler(gateway).Reset(context.Background(), testCred)
	if err != nil {
		t.Fatalf("reset: %v", err)
	}
	if outcome.State != StateDirty {
		t.Fatalf("expected dirty, got %s", outcome.State)
	}
}

func TestCredentialChecks(t *testing.T) {
	reconciler := newTestReconciler(newFakeGateway())

	if _, err := reconciler.Cycle(context.Background(), Credential{}, nil); !errors.Is(err, ErrMissingUserID) {
		t.Fatalf("expected ErrMissingUserID, got %v", err)
	}
	if _, err := reconciler.Cycle(context.Background(), Credential{UserID: "other"}, nil); !errors.Is(err, ErrUserMismatch) {
		t.Fatalf("expected ErrUserMismatch, got %v", err)
	}
}
