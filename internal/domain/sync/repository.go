package sync

import (
	"context"
	"time"

	"truck-ledger-go/internal/domain/ledger"
)

// Gateway is durable storage for one Record per user.
//
// Load returns (nil, nil) when no copy exists yet. Save overwrites the whole
// copy; there is no merge. Delete is best-effort and only used by reset.
type Gateway interface {
	Load(ctx context.Context, cred Credential) (*ledger.Record, error)
	Save(ctx context.Context, cred Credential, record ledger.Record) error
	Delete(ctx context.Context, cred Credential) error
}

// Cache keeps live reconcilers between requests, keyed by session.
type Cache interface {
	Get(key string) (*Reconciler, bool)
	Set(key string, reconciler *Reconciler, ttl time.Duration)
	Delete(key string)
}
