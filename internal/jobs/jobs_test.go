package jobs

import (
	"context"
	"database/sql"
	"testing"

	"voltz-ledger-go/internal/database"
	"voltz-ledger-go/internal/ledger"
	"voltz-ledger-go/internal/models"
	"voltz-ledger-go/internal/store"
	"voltz-ledger-go/internal/uow"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRunner(t *testing.T) (*JobRunner, *sql.DB) {
	t.Helper()
	db, err := sql.Open(database.DriverSQLite, ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)

	dbService, err := database.NewServiceWithDB(context.Background(), db, database.DriverSQLite)
	require.NoError(t, err)
	t.Cleanup(dbService.Close)

	manager := uow.NewManager(db)
	ledgerService := ledger.NewService(dbService)

	for _, owner := range []string{"company-1", "volunteer-1"} {
		err := manager.Run(context.Background(), func(ctx context.Context, scope store.Scope) error {
			wallet, err := ledgerService.CreateWallet(ctx, scope, owner)
			if err != nil {
				return err
			}
			_, err = ledgerService.CreditWallet(ctx, scope, wallet, models.NewVoltz(10), "seed")
			return err
		})
		require.NoError(t, err)
	}

	return NewJobRunner(manager, ledgerService, dbService), db
}

func TestReconcileAll_Clean(t *testing.T) {
	runner, _ := setupRunner(t)

	report, err := runner.ReconcileAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, report.Checked)
	assert.Empty(t, report.Mismatched)
	assert.Zero(t, report.Failed)
}

func TestReconcileAll_ReportsMismatch(t *testing.T) {
	runner, db := setupRunner(t)

	_, err := db.Exec(`UPDATE wallets SET balance = 1 WHERE owner_id = 'volunteer-1'`)
	require.NoError(t, err)

	report, err := runner.ReconcileAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, report.Checked)
	require.Len(t, report.Mismatched, 1)
	assert.Equal(t, models.NewVoltz(10), report.Mismatched[0].Balance)

	// The cron entry point logs instead of returning
	assert.NotPanics(t, runner.ReconcileWallets)
}

func TestScheduler_Registration(t *testing.T) {
	runner, _ := setupRunner(t)

	s, err := NewScheduler(runner, models.JobsConfig{ReconcileWallets: "0 */15 * * * *"})
	require.NoError(t, err)
	assert.True(t, s.IsRunning())
	s.Start()
	s.Stop()

	disabled, err := NewScheduler(runner, models.JobsConfig{})
	require.NoError(t, err)
	assert.False(t, disabled.IsRunning())

	_, err = NewScheduler(runner, models.JobsConfig{ReconcileWallets: "every now and then"})
	assert.Error(t, err)
}
