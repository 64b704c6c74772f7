package store

import (
	"context"
	"fmt"
	"time"

	"github.com/taskdock/taskdock/internal/types"
)

// A migration is a numbered group of DDL statements applied at most once.
// New steps are appended with the next id; completed steps are never
// re-executed because their id is recorded in the migrations table.
type migration struct {
	id         int64
	label      string
	statements []string
}

const migrationsTable = `CREATE TABLE IF NOT EXISTS migrations (
	id INTEGER PRIMARY KEY,
	applied_at TEXT NOT NULL
)`

var migrations = []migration{
	{
		id:    2,
		label: "002_tasks",
		statements: []string{
			`CREATE TABLE IF NOT EXISTS tasks (
				id TEXT PRIMARY KEY,
				title TEXT NOT NULL,
				description TEXT NULL,
				status TEXT NOT NULL,
				deadline TEXT NULL,
				priority TEXT NOT NULL,
				created_at TEXT NOT NULL,
				updated_at TEXT NOT NULL
			)`,
			`CREATE INDEX IF NOT EXISTS idx_tasks_status ON tasks(status)`,
			`CREATE INDEX IF NOT EXISTS idx_tasks_deadline ON tasks(deadline)`,
		},
	},
	{
		id:    3,
		label: "003_sync_queue",
		statements: []string{
			`CREATE TABLE IF NOT EXISTS sync_queue (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				entity_type TEXT NOT NULL,
				entity_id TEXT NOT NULL,
				operation TEXT NOT NULL,
				payload TEXT NULL,
				created_at TEXT NOT NULL,
				processed_at TEXT NULL
			)`,
			`CREATE INDEX IF NOT EXISTS idx_sync_queue_processed ON sync_queue(processed_at)`,
		},
	},
}

// Migrate brings the schema up to date. It is idempotent and safe to call
// on every process start: the tracking table is (re-)created unconditionally
// and each numbered step runs only if its id is not yet recorded.
//
// Any statement failure aborts the whole run; the process must not touch
// the store after a failed migration.
func (c *Conn) Migrate(ctx context.Context) error {
	if err := c.Execute(ctx, migrationsTable); err != nil {
		return fmt.Errorf("migration 001_migrations_table failed: %w", err)
	}

	for _, m := range migrations {
		applied, err := c.hasMigration(ctx, m.id)
		if err != nil {
			return err
		}
		if applied {
			continue
		}

		for _, stmt := range m.statements {
			if err := c.Execute(ctx, stmt); err != nil {
				return fmt.Errorf("migration %s failed at %q: %w", m.label, stmt, err)
			}
		}

		if err := c.markMigration(ctx, m.id); err != nil {
			return fmt.Errorf("migration %s failed to record: %w", m.label, err)
		}
	}

	return nil
}

func (c *Conn) hasMigration(ctx context.Context, id int64) (bool, error) {
	row, err := c.QueryOne(ctx, `SELECT id FROM migrations WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("failed to check migration %d: %w", id, err)
	}
	return row != nil, nil
}

func (c *Conn) markMigration(ctx context.Context, id int64) error {
	return c.Execute(ctx,
		`INSERT INTO migrations (id, applied_at) VALUES (?, ?)`,
		id, time.Now().UTC().Format(types.TimeFormat))
}
