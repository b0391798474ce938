package jobs

import (
	"context"
	"errors"
	"time"

	"voltz-ledger-go/internal/ledger"
	"voltz-ledger-go/internal/models"
	"voltz-ledger-go/internal/store"
	"voltz-ledger-go/internal/uow"

	"go.uber.org/zap"
)

// JobRunner coordinates all scheduled jobs
type JobRunner struct {
	uow     *uow.Manager
	ledger  *ledger.Service
	wallets store.WalletStore
	timeout time.Duration
}

// NewJobRunner creates a new job runner with all dependencies
func NewJobRunner(manager *uow.Manager, ledgerService *ledger.Service, wallets store.WalletStore) *JobRunner {
	return &JobRunner{
		uow:     manager,
		ledger:  ledgerService,
		wallets: wallets,
		timeout: 5 * time.Minute,
	}
}

// ReconcileReport summarizes one reconciliation pass
type ReconcileReport struct {
	Checked    int
	Mismatched []models.WalletTotals
	Failed     int
}

// runWithRecovery wraps job execution with panic recovery
func (jr *JobRunner) runWithRecovery(jobName string, jobFunc func()) {
	defer func() {
		if r := recover(); r != nil {
			zap.L().Error("Job panicked", zap.String("job", jobName), zap.Any("panic", r))
		}
	}()

	zap.L().Info("Starting job", zap.String("job", jobName))
	jobFunc()
	zap.L().Info("Job completed", zap.String("job", jobName))
}

// ReconcileWallets is the cron entry point for ReconcileAll
func (jr *JobRunner) ReconcileWallets() {
	jr.runWithRecovery("ReconcileWallets", func() {
		ctx, cancel := context.WithTimeout(context.Background(), jr.timeout)
		defer cancel()

		report, err := jr.ReconcileAll(ctx)
		if err != nil {
			zap.L().Error("Wallet reconciliation aborted", zap.Error(err))
			return
		}
		zap.L().Info("Wallet reconciliation finished",
			zap.Int("checked", report.Checked),
			zap.Int("mismatched", len(report.Mismatched)),
			zap.Int("failed", report.Failed))
	})
}

// ReconcileAll recomputes every wallet from its entry log. Each wallet is
// checked in its own unit of work so one failure does not stop the pass.
func (jr *JobRunner) ReconcileAll(ctx context.Context) (*ReconcileReport, error) {
	var wallets []models.Wallet
	err := jr.uow.Run(ctx, func(ctx context.Context, scope store.Scope) error {
		var err error
		wallets, err = jr.wallets.ListWallets(ctx, scope)
		return err
	})
	if err != nil {
		return nil, err
	}

	report := &ReconcileReport{}
	for _, wallet := range wallets {
		var totals *models.WalletTotals
		err := jr.uow.Run(ctx, func(ctx context.Context, scope store.Scope) error {
			var err error
			totals, err = jr.ledger.ReconcileWallet(ctx, scope, wallet.Id)
			return err
		})
		report.Checked++

		switch {
		case err == nil:
		case errors.Is(err, store.ErrBalanceMismatch):
			report.Mismatched = append(report.Mismatched, *totals)
		default:
			report.Failed++
			zap.L().Error("Failed to reconcile wallet", zap.String("wallet_id", wallet.Id), zap.Error(err))
		}

		if ctx.Err() != nil {
			return report, ctx.Err()
		}
	}

	return report, nil
}
