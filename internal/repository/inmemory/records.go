package inmemory

import (
	"context"
	"sync"

	"truck-ledger-go/internal/domain/ledger"
	syncdomain "truck-ledger-go/internal/domain/sync"
)

// RecordsRepository keeps Records in process memory. Everything is lost on
// restart; used for local development and tests.
type RecordsRepository struct {
	mu      sync.RWMutex
	records map[string]ledger.Record
}

func NewRecordsRepository() *RecordsRepository {
	return &RecordsRepository{records: make(map[string]ledger.Record)}
}

func (r *RecordsRepository) Load(ctx context.Context, cred syncdomain.Credential) (*ledger.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	record, ok := r.records[cred.UserID]
	if !ok {
		return nil, nil
	}
	clone := record.Clone()
	return &clone, nil
}

func (r *RecordsRepository) Save(ctx context.Context, cred syncdomain.Credential, record ledger.Record) error {
	r.mu.Lock()
	r.records[cred.UserID] = record.Clone()
	r.mu.Unlock()
	return nil
}

func (r *RecordsRepository) Delete(ctx context.Context, cred syncdomain.Credential) error {
	r.mu.Lock()
	delete(r.records, cred.UserID)
	r.mu.Unlock()
	return nil
}
