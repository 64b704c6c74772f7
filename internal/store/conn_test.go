package store

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"sync"
	"testing"
)

// testConn returns a Conn over a temporary database file.
func testConn(t *testing.T) *Conn {
	t.Helper()
	conn := NewConn(filepath.Join(t.TempDir(), "test.db"))
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

// migratedConn returns a Conn with the full schema applied.
func migratedConn(t *testing.T) *Conn {
	t.Helper()
	conn := testConn(t)
	if err := conn.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate() failed: %v", err)
	}
	return conn
}

// TestConn_LazyOpenOnce tests that concurrent first-callers converge on the
// same single connection.
func TestConn_LazyOpenOnce(t *testing.T) {
	conn := testConn(t)

	const callers = 16
	results := make([]*sql.DB, callers)
	var wg sync.WaitGroup
	wg.Add(callers)
	for i := 0; i < callers; i++ {
		go func(i int) {
			defer wg.Done()
			db, err := conn.DB()
			if err != nil {
				t.Errorf("DB() failed: %v", err)
				return
			}
			results[i] = db
		}(i)
	}
	wg.Wait()

	for i := 1; i < callers; i++ {
		if results[i] != results[0] {
			t.Fatalf("caller %d got a different connection", i)
		}
	}
}

// TestConn_OpenFailureShared tests that every caller observes the same open
// error when initialization fails.
func TestConn_OpenFailureShared(t *testing.T) {
	// A directory path is not a usable database file.
	conn := NewConn(t.TempDir())

	_, err1 := conn.DB()
	if err1 == nil {
		t.Fatal("expected open error for directory path, got nil")
	}

	_, err2 := conn.DB()
	if err2 == nil {
		t.Fatal("expected the cached open error on second call, got nil")
	}
}

// TestExecute_And_QueryAll tests basic statement execution and canonical
// row normalization.
func TestExecute_And_QueryAll(t *testing.T) {
	conn := testConn(t)
	ctx := context.Background()

	if err := conn.Execute(ctx, `CREATE TABLE kv (k TEXT PRIMARY KEY, v TEXT NULL, n INTEGER)`); err != nil {
		t.Fatalf("Execute(DDL) failed: %v", err)
	}
	if err := conn.Execute(ctx, `INSERT INTO kv (k, v, n) VALUES (?, ?, ?)`, "a", "one", 1); err != nil {
		t.Fatalf("Execute(INSERT) failed: %v", err)
	}
	if err := conn.Execute(ctx, `INSERT INTO kv (k, v, n) VALUES (?, NULL, ?)`, "b", 2); err != nil {
		t.Fatalf("Execute(INSERT) failed: %v", err)
	}

	rows, err := conn.QueryAll(ctx, `SELECT k, v, n FROM kv ORDER BY k`)
	if err != nil {
		t.Fatalf("QueryAll() failed: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("QueryAll() returned %d rows, want 2", len(rows))
	}

	if got := rows[0].String("k"); got != "a" {
		t.Errorf("k = %q, want 'a'", got)
	}
	if got := rows[0].Int64("n"); got != 1 {
		t.Errorf("n = %d, want 1", got)
	}
	if _, ok := rows[1].NullString("v"); ok {
		t.Error("NULL column reported as present")
	}
	if got := rows[1].String("v"); got != "" {
		t.Errorf("NULL column String() = %q, want \"\"", got)
	}
}

// TestQueryOne tests the row-or-nil contract.
func TestQueryOne(t *testing.T) {
	conn := testConn(t)
	ctx := context.Background()

	if err := conn.Execute(ctx, `CREATE TABLE kv (k TEXT PRIMARY KEY)`); err != nil {
		t.Fatalf("Execute(DDL) failed: %v", err)
	}

	row, err := conn.QueryOne(ctx, `SELECT k FROM kv WHERE k = ?`, "missing")
	if err != nil {
		t.Fatalf("QueryOne() failed: %v", err)
	}
	if row != nil {
		t.Fatalf("QueryOne() = %v, want nil for no match", row)
	}

	for _, k := range []string{"x", "y"} {
		if err := conn.Execute(ctx, `INSERT INTO kv (k) VALUES (?)`, k); err != nil {
			t.Fatalf("Execute(INSERT) failed: %v", err)
		}
	}

	// Multiple matches: LIMIT 1 keeps only the first.
	row, err = conn.QueryOne(ctx, `SELECT k FROM kv ORDER BY k`)
	if err != nil {
		t.Fatalf("QueryOne() failed: %v", err)
	}
	if row == nil {
		t.Fatal("QueryOne() = nil, want a row")
	}
	if got := row.String("k"); got != "x" {
		t.Errorf("k = %q, want 'x'", got)
	}
}

// TestClose_Idempotent tests that Close is safe to call twice.
func TestClose_Idempotent(t *testing.T) {
	conn := testConn(t)
	if _, err := conn.DB(); err != nil {
		t.Fatalf("DB() failed: %v", err)
	}
	if err := conn.Close(); err != nil {
		t.Errorf("Close() failed: %v", err)
	}
	if err := conn.Close(); err != nil {
		t.Errorf("Second Close() failed: %v", err)
	}
}

// TestConn_UseAfterClose tests that operations on a closed Conn fail with
// ErrClosed instead of dereferencing a nil handle.
func TestConn_UseAfterClose(t *testing.T) {
	conn := testConn(t)
	ctx := context.Background()

	if err := conn.Execute(ctx, `CREATE TABLE kv (k TEXT PRIMARY KEY)`); err != nil {
		t.Fatalf("Execute(DDL) failed: %v", err)
	}
	if err := conn.Close(); err != nil {
		t.Fatalf("Close() failed: %v", err)
	}

	if err := conn.Execute(ctx, `INSERT INTO kv (k) VALUES ('x')`); !errors.Is(err, ErrClosed) {
		t.Errorf("Execute after Close = %v, want ErrClosed", err)
	}
	if _, err := conn.QueryAll(ctx, `SELECT k FROM kv`); !errors.Is(err, ErrClosed) {
		t.Errorf("QueryAll after Close = %v, want ErrClosed", err)
	}
	if _, err := conn.QueryOne(ctx, `SELECT k FROM kv`); !errors.Is(err, ErrClosed) {
		t.Errorf("QueryOne after Close = %v, want ErrClosed", err)
	}
}
