package uow

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"voltz-ledger-go/internal/store"

	_ "github.com/mattn/go-sqlite3"
)

func setupTestDb(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	// One connection keeps every query on the same in-memory database
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(`CREATE TABLE counters (name TEXT PRIMARY KEY, value INTEGER NOT NULL)`); err != nil {
		t.Fatalf("Failed to create test schema: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func countRows(t *testing.T, db *sql.DB) int {
	t.Helper()
	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM counters`).Scan(&n); err != nil {
		t.Fatalf("Failed to count rows: %v", err)
	}
	return n
}

func insertCounter(ctx context.Context, scope store.Scope, name string) error {
	_, err := scope.ExecContext(ctx, `INSERT INTO counters (name, value) VALUES (?, 1)`, name)
	return err
}

func TestRun_CommitsAndRunsHooks(t *testing.T) {
	db := setupTestDb(t)
	m := NewManager(db)

	var hookRan bool
	err := m.Run(context.Background(), func(ctx context.Context, scope store.Scope) error {
		scope.AfterCommit(func(ctx context.Context) { hookRan = true })
		return insertCounter(ctx, scope, "a")
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if got := countRows(t, db); got != 1 {
		t.Errorf("Expected 1 committed row, got %d", got)
	}
	if !hookRan {
		t.Error("Expected after-commit hook to run")
	}
}

func TestRun_RollsBackOnError(t *testing.T) {
	db := setupTestDb(t)
	m := NewManager(db)
	boom := errors.New("boom")

	var hookRan bool
	err := m.Run(context.Background(), func(ctx context.Context, scope store.Scope) error {
		scope.AfterCommit(func(ctx context.Context) { hookRan = true })
		if err := insertCounter(ctx, scope, "a"); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("Expected boom, got %v", err)
	}
	if got := countRows(t, db); got != 0 {
		t.Errorf("Expected rollback to leave 0 rows, got %d", got)
	}
	if hookRan {
		t.Error("After-commit hook must not run on rollback")
	}
}

func TestRun_RetriesConcurrentModification(t *testing.T) {
	db := setupTestDb(t)
	m := NewManager(db, WithMaxAttempts(3), WithRetryBackoff(0))

	attempts := 0
	err := m.Run(context.Background(), func(ctx context.Context, scope store.Scope) error {
		attempts++
		if err := insertCounter(ctx, scope, "a"); err != nil {
			return err
		}
		if attempts < 2 {
			return fmt.Errorf("wallet w1: %w", store.ErrConcurrentModification)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if attempts != 2 {
		t.Errorf("Expected 2 attempts, got %d", attempts)
	}
	// The failed attempt was rolled back, so the insert is not duplicated
	if got := countRows(t, db); got != 1 {
		t.Errorf("Expected 1 row, got %d", got)
	}
}

func TestRun_GivesUpAfterMaxAttempts(t *testing.T) {
	db := setupTestDb(t)
	m := NewManager(db, WithMaxAttempts(2), WithRetryBackoff(0))

	attempts := 0
	err := m.Run(context.Background(), func(ctx context.Context, scope store.Scope) error {
		attempts++
		return store.ErrConcurrentModification
	})
	if !errors.Is(err, store.ErrConcurrentModification) {
		t.Fatalf("Expected ErrConcurrentModification, got %v", err)
	}
	if attempts != 2 {
		t.Errorf("Expected 2 attempts, got %d", attempts)
	}
}

func TestRun_DoesNotRetryBusinessErrors(t *testing.T) {
	db := setupTestDb(t)
	m := NewManager(db, WithMaxAttempts(5), WithRetryBackoff(0))

	attempts := 0
	err := m.Run(context.Background(), func(ctx context.Context, scope store.Scope) error {
		attempts++
		return store.ErrInsufficientFunds
	})
	if !errors.Is(err, store.ErrInsufficientFunds) {
		t.Fatalf("Expected ErrInsufficientFunds, got %v", err)
	}
	if attempts != 1 {
		t.Errorf("Expected 1 attempt, got %d", attempts)
	}
}

func TestRun_PanicRollsBack(t *testing.T) {
	db := setupTestDb(t)
	m := NewManager(db)

	func() {
		defer func() {
			if recover() == nil {
				t.Error("Expected panic to propagate")
			}
		}()
		_ = m.Run(context.Background(), func(ctx context.Context, scope store.Scope) error {
			if err := insertCounter(ctx, scope, "a"); err != nil {
				return err
			}
			panic("unexpected")
		})
	}()

	if got := countRows(t, db); got != 0 {
		t.Errorf("Expected panic to roll back, got %d rows", got)
	}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"concurrent modification", store.ErrConcurrentModification, true},
		{"wrapped concurrent modification", fmt.Errorf("update: %w", store.ErrConcurrentModification), true},
		{"insufficient funds", store.ErrInsufficientFunds, false},
		{"plain error", errors.New("boom"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isRetryable(tt.err); got != tt.want {
				t.Errorf("isRetryable(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}
