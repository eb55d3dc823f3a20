package file

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"truck-ledger-go/internal/domain/ledger"
	syncdomain "truck-ledger-go/internal/domain/sync"
)

// Repository keeps a single Record in a local JSON file. Every credential maps
// to the same file; this backend is for single-driver installs.
type Repository struct {
	mu   sync.Mutex
	path string
}

func NewRepository(path string) *Repository {
	return &Repository{path: path}
}

func (r *Repository) Load(ctx context.Context, _ syncdomain.Credential) (*ledger.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	data, err := os.ReadFile(r.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	record, err := ledger.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", r.path, err)
	}
	return &record, nil
}

// Save writes to a temporary file and renames it over the target so a crash
// never leaves a half-written document.
func (r *Repository) Save(ctx context.Context, _ syncdomain.Credential, record ledger.Record) error {
	payload, err := ledger.Encode(record)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	dir := filepath.Dir(r.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(r.path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(payload); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}

	if err := os.Rename(tmpName, r.path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}

func (r *Repository) Delete(ctx context.Context, _ syncdomain.Credential) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := os.Remove(r.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
