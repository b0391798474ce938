package uow

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"voltz-ledger-go/internal/store"

	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

const (
	defaultMaxAttempts  = 3
	defaultRetryBackoff = 25 * time.Millisecond
)

// Work is the body of one unit of work. Returning an error rolls back every
// write made through scope.
type Work func(ctx context.Context, scope store.Scope) error

// Manager owns the transaction lifecycle. Ledger operations never begin,
// commit or roll back on their own; they run inside Manager.Run.
type Manager struct {
	db           *sql.DB
	maxAttempts  int
	retryBackoff time.Duration
}

type Option func(*Manager)

func WithMaxAttempts(n int) Option {
	return func(m *Manager) {
		if n > 0 {
			m.maxAttempts = n
		}
	}
}

func WithRetryBackoff(d time.Duration) Option {
	return func(m *Manager) {
		if d >= 0 {
			m.retryBackoff = d
		}
	}
}

func NewManager(db *sql.DB, opts ...Option) *Manager {
	m := &Manager{
		db:           db,
		maxAttempts:  defaultMaxAttempts,
		retryBackoff: defaultRetryBackoff,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// txScope is the store.Scope handed to Work
type txScope struct {
	*sql.Tx
	hooks []func(ctx context.Context)
}

func (s *txScope) AfterCommit(fn func(ctx context.Context)) {
	s.hooks = append(s.hooks, fn)
}

// Run executes work in a single transaction. Optimistic-lock conflicts and
// transient lock errors restart the whole unit of work with linear backoff;
// any other error is returned unchanged after rollback.
func (m *Manager) Run(ctx context.Context, work Work) error {
	for attempt := 1; ; attempt++ {
		err := m.runOnce(ctx, work)
		if err == nil {
			return nil
		}
		if !isRetryable(err) || attempt >= m.maxAttempts {
			return err
		}

		zap.L().Warn("Retrying unit of work",
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", m.maxAttempts),
			zap.Error(err))

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(m.retryBackoff * time.Duration(attempt)):
		}
	}
}

func (m *Manager) runOnce(ctx context.Context, work Work) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	scope := &txScope{Tx: tx}

	defer func() {
		if p := recover(); p != nil {
			rollback(tx)
			panic(p)
		}
	}()

	if err := work(ctx, scope); err != nil {
		rollback(tx)
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	// Hooks must not be cut short by the caller cancelling right after commit
	hookCtx := context.WithoutCancel(ctx)
	for _, hook := range scope.hooks {
		hook(hookCtx)
	}
	return nil
}

func rollback(tx *sql.Tx) {
	if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		zap.L().Warn("Failed to roll back transaction", zap.Error(err))
	}
}

func isRetryable(err error) bool {
	if errors.Is(err, store.ErrConcurrentModification) {
		return true
	}
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code == sqlite3.ErrBusy || sqliteErr.Code == sqlite3.ErrLocked
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		// serialization_failure, deadlock_detected
		return pqErr.Code == "40001" || pqErr.Code == "40P01"
	}
	return false
}
