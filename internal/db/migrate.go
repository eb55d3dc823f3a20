package db

import (
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"
	"time"

	"gorm.io/gorm"

	"truck-ledger-go/pkg/logger"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

const migrationLockKey = "truck-ledger:migrate"

// Migrate applies the bundled SQL migrations in filename order. Each file runs
// in its own transaction under an advisory lock, so instances starting
// together apply it once.
func Migrate(db *gorm.DB, log logger.Logger) error {
	fsys, err := fs.Sub(migrationFiles, "migrations")
	if err != nil {
		return err
	}
	return migrate(db, fsys, log)
}

func migrate(db *gorm.DB, fsys fs.FS, log logger.Logger) error {
	names, err := migrationNames(fsys)
	if err != nil {
		return err
	}

	if err := ensureSchemaMigrations(db); err != nil {
		return err
	}

	for _, name := range names {
		applied, err := applyMigration(db, fsys, name)
		if err != nil {
			return err
		}
		if applied {
			log.Info("db.migrate: applied", "file", name)
		}
	}
	return nil
}

func migrationNames(fsys fs.FS) ([]string, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, err
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)
	return names, nil
}

func applyMigration(db *gorm.DB, fsys fs.FS, name string) (bool, error) {
	contents, err := fs.ReadFile(fsys, name)
	if err != nil {
		return false, err
	}
	sql := strings.TrimSpace(string(contents))

	applied := false
	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("SELECT pg_advisory_xact_lock(hashtext(?))", migrationLockKey).Error; err != nil {
			return err
		}
		done, err := isMigrationApplied(tx, name)
		if err != nil || done {
			return err
		}
		if sql != "" {
			if err := tx.Exec(sql).Error; err != nil {
				return fmt.Errorf("apply migration %s: %w", name, err)
			}
		}
		if err := recordMigration(tx, name); err != nil {
			return err
		}
		applied = true
		return nil
	})
	return applied, err
}

func ensureSchemaMigrations(db *gorm.DB) error {
	return db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			filename TEXT PRIMARY KEY,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
	`).Error
}

func isMigrationApplied(tx *gorm.DB, name string) (bool, error) {
	var count int64
	if err := tx.Raw("SELECT COUNT(1) FROM schema_migrations WHERE filename = ?", name).Scan(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func recordMigration(tx *gorm.DB, name string) error {
	return tx.Exec("INSERT INTO schema_migrations (filename, applied_at) VALUES (?, ?)", name, time.Now().UTC()).Error
}
