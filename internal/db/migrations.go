/*-------------------------------------------------------------------------
 *
 * migrations.go
 *    SQL migration runner for PerchAgent
 *
 * Applies the migration files shipped with the binary in lexical order.
 * This is the first-use bootstrap of the durable approval store.
 *
 * Copyright (c) 2024-2026, Perch Labs, Inc. <support@perchlabs.ai>
 *
 * IDENTIFICATION
 *    PerchAgent/internal/db/migrations.go
 *
 *-------------------------------------------------------------------------
 */

package db

import (
	"context"
	"fmt"
	"io/fs"
	"sort"

	"github.com/jmoiron/sqlx"
	"github.com/perchlabs/PerchAgent/internal/metrics"
)

/* MigrationRunner applies SQL migrations from a filesystem */
type MigrationRunner struct {
	db   *sqlx.DB
	fsys fs.FS
}

/* NewMigrationRunner creates a migration runner over the given filesystem */
func NewMigrationRunner(db *sqlx.DB, fsys fs.FS) *MigrationRunner {
	return &MigrationRunner{db: db, fsys: fsys}
}

/* Run applies all .sql files in lexical order. Statements use
 * IF NOT EXISTS, so re-running on an already-bootstrapped store is safe. */
func (m *MigrationRunner) Run(ctx context.Context) error {
	entries, err := fs.Glob(m.fsys, "*.sql")
	if err != nil {
		return fmt.Errorf("failed to list migrations: %w", err)
	}
	sort.Strings(entries)

	for _, name := range entries {
		data, err := fs.ReadFile(m.fsys, name)
		if err != nil {
			return fmt.Errorf("failed to read migration %s: %w", name, err)
		}

		if _, err := m.db.ExecContext(ctx, string(data)); err != nil {
			return fmt.Errorf("migration %s failed: %w", name, err)
		}

		metrics.InfoWithContext(ctx, "Applied migration", map[string]interface{}{
			"migration": name,
		})
	}

	return nil
}
