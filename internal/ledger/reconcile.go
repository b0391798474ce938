package ledger

import (
	"context"
	"fmt"

	"voltz-ledger-go/internal/models"
	"voltz-ledger-go/internal/store"

	"go.uber.org/zap"
)

// ReconcileWallet recomputes the wallet from its entry log. The recomputed
// totals are returned together with ErrBalanceMismatch when the cached
// columns disagree with the history. The wallet row is locked so no movement
// can commit between reading it and summing its entries.
func (s *Service) ReconcileWallet(ctx context.Context, scope store.Scope, walletId string) (*models.WalletTotals, error) {
	wallet, err := s.store.LockWallet(ctx, scope, walletId)
	if err != nil {
		return nil, err
	}
	totals, err := s.store.ComputeWalletTotals(ctx, scope, walletId)
	if err != nil {
		return nil, err
	}

	if totals.Balance != wallet.Balance || totals.FoundationalVoltz != wallet.FoundationalVoltz {
		zap.L().Error("Wallet does not match ledger history",
			zap.String("wallet_id", walletId),
			zap.String("balance", wallet.Balance.String()),
			zap.String("ledger_balance", totals.Balance.String()),
			zap.String("foundational_voltz", wallet.FoundationalVoltz.String()),
			zap.String("ledger_foundational_voltz", totals.FoundationalVoltz.String()))
		return totals, fmt.Errorf("wallet %s cached %s/%s, ledger %s/%s: %w", walletId,
			wallet.Balance, wallet.FoundationalVoltz, totals.Balance, totals.FoundationalVoltz, store.ErrBalanceMismatch)
	}

	zap.L().Debug("Wallet reconciled", zap.String("wallet_id", walletId), zap.String("balance", wallet.Balance.String()))
	return totals, nil
}
