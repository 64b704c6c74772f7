// Package store provides the local SQLite persistence layer for taskdock.
//
// The package is organized leaf-first:
//   - Conn is the database access adapter: a lazily-opened, exactly-once
//     shared connection exposing Execute / QueryAll / QueryOne over a
//     canonical Row representation.
//   - Migrate runs the numbered, idempotent schema migrations.
//   - TaskStore maps tasks to and from rows in the tasks table.
//   - QueueStore persists the sync outbox in the sync_queue table.
//
// The database runs in embedded mode (ncruces/go-sqlite3) with WAL enabled.
// All access funnels through the single shared connection; there is no pool.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

// ErrClosed is returned by every operation after Close.
var ErrClosed = errors.New("database connection is closed")

// Conn is the shared database handle. The underlying connection is opened
// lazily on first use; concurrent first-callers converge on the same single
// open attempt and observe the same result.
type Conn struct {
	path string

	once sync.Once
	db   *sql.DB
	err  error
}

// NewConn creates a handle for the database at path without opening it.
// The connection is established on the first Execute/QueryAll/QueryOne call.
func NewConn(path string) *Conn {
	return &Conn{path: path}
}

// Path returns the database file path this handle was created with.
func (c *Conn) Path() string {
	return c.path
}

// DB returns the underlying connection, opening it if necessary.
// Opening happens at most once per Conn; every caller sees the same
// connection or the same open error. After Close it returns ErrClosed.
func (c *Conn) DB() (*sql.DB, error) {
	c.once.Do(c.open)
	return c.db, c.err
}

func (c *Conn) open() {
	dir := filepath.Dir(c.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		c.err = fmt.Errorf("failed to create database directory: %w", err)
		return
	}

	db, err := sql.Open("sqlite3", "file:"+c.path)
	if err != nil {
		c.err = fmt.Errorf("failed to open database: %w", err)
		return
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		c.err = fmt.Errorf("failed to ping database: %w", err)
		return
	}

	// Single shared connection, no pooling.
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			c.err = fmt.Errorf("failed to apply %q: %w", pragma, err)
			return
		}
	}

	c.db = db
}

// Execute runs a statement whose result rows do not matter (DDL/DML).
func (c *Conn) Execute(ctx context.Context, query string, args ...any) error {
	db, err := c.DB()
	if err != nil {
		return err
	}
	if _, err := db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("execute failed: %w", err)
	}
	return nil
}

// QueryAll runs a query and returns every result row in canonical form.
// Driver-level scan shapes are normalized here, immediately after the raw
// query; callers above never see driver-specific value types.
func (c *Conn) QueryAll(ctx context.Context, query string, args ...any) ([]Row, error) {
	db, err := c.DB()
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	return scanRows(rows)
}

// QueryOne runs a query expected to yield at most one row, by appending a
// LIMIT 1 clause. Returns nil when no row matched.
func (c *Conn) QueryOne(ctx context.Context, query string, args ...any) (Row, error) {
	results, err := c.QueryAll(ctx, query+" LIMIT 1", args...)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}
	return results[0], nil
}

// Close closes the underlying connection if it was ever opened.
// Performs a WAL checkpoint so all changes land in the main database file.
// A closed Conn stays closed: later operations return ErrClosed.
func (c *Conn) Close() error {
	if c.db == nil {
		return nil
	}

	if _, err := c.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to checkpoint WAL: %v\n", err)
	}

	if err := c.db.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	c.db = nil
	c.err = ErrClosed
	return nil
}
