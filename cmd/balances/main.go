/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */


package main

import (
	"context"
	"errors"
	"flag"
	"fmt"

	"voltz-ledger-go/internal/common"
	"voltz-ledger-go/internal/config"
	"voltz-ledger-go/internal/models"
	"voltz-ledger-go/internal/store"

	"go.uber.org/zap"
)

type balanceStats struct {
	totalWallets int
	mismatched   int
	failed       int
	totalVoltz   models.Voltz
}

func printWallet(wallet models.Wallet, totals *models.WalletTotals, reconcileErr error, last bool) {
	common.PrintWalletHeader(wallet)
	common.PrintWalletRow("Balance", wallet.Balance, false)
	common.PrintWalletRow("Foundational", wallet.FoundationalVoltz, false)

	status := "OK"
	switch {
	case errors.Is(reconcileErr, store.ErrBalanceMismatch):
		status = fmt.Sprintf("MISMATCH (log says %s / %s)", totals.Balance, totals.FoundationalVoltz)
	case reconcileErr != nil:
		status = "ERROR: " + reconcileErr.Error()
	}
	common.PrintStatusRow("Reconciliation", status, last)
}

func processWallets(ctx context.Context, services *common.Services, wallets []models.Wallet, logger *zap.Logger) balanceStats {
	stats := balanceStats{}

	for _, wallet := range wallets {
		stats.totalWallets++
		stats.totalVoltz += wallet.Balance

		var totals *models.WalletTotals
		err := services.UnitOfWork.Run(ctx, func(ctx context.Context, scope store.Scope) error {
			var err error
			totals, err = services.Ledger.ReconcileWallet(ctx, scope, wallet.Id)
			return err
		})
		switch {
		case err == nil:
		case errors.Is(err, store.ErrBalanceMismatch):
			stats.mismatched++
		default:
			stats.failed++
			logger.Error("Failed to reconcile wallet",
				zap.String("wallet_id", wallet.Id),
				zap.String("owner_id", wallet.OwnerId),
				zap.Error(err))
		}

		printWallet(wallet, totals, err, services.Mirror == nil)

		if services.Mirror != nil {
			mirrored, err := services.Mirror.WalletBalances(ctx, wallet.Id)
			if err != nil {
				logger.Warn("Failed to read mirrored balances", zap.String("wallet_id", wallet.Id), zap.Error(err))
				common.PrintStatusRow("Formance mirror", "unavailable", true)
				continue
			}
			common.PrintStatusRow("Formance mirror", fmt.Sprintf("%s / %s", mirrored.Balance, mirrored.FoundationalVoltz), true)
		}
	}

	return stats
}

func main() {
	ctx := context.Background()

	logger, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	ownerFlag := flag.String("owner", "", "Filter by specific owner id (optional)")
	flag.Parse()

	logger.Info("Starting balance query")

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	logger.Info("Connecting to database",
		zap.String("driver", cfg.Database.Driver),
		zap.String("path", cfg.Database.Path))
	// Read-only report: nothing is posted, so events stay off
	cfg.Events.Brokers = nil
	services, err := common.InitializeServices(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to initialize services", zap.Error(err))
	}
	defer services.Close()

	wallets, err := common.InitializeWallets(ctx, services.UnitOfWork, services.DbService, *ownerFlag, logger)
	if err != nil {
		logger.Fatal("Failed to load wallets", zap.Error(err))
	}

	common.PrintHeader("VOLTZ WALLET REPORT")

	stats := processWallets(ctx, services, wallets, logger)

	summary := fmt.Sprintf("SUMMARY: %d wallets holding %s Voltz (%d mismatched, %d failed)",
		stats.totalWallets, stats.totalVoltz, stats.mismatched, stats.failed)
	common.PrintFooter(summary)

	logger.Info("Balance query completed",
		zap.Int("wallets", stats.totalWallets),
		zap.Int("mismatched", stats.mismatched),
		zap.Int("failed", stats.failed))
}
