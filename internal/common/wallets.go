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


package common

import (
	"context"
	"fmt"

	"voltz-ledger-go/internal/models"
	"voltz-ledger-go/internal/store"
	"voltz-ledger-go/internal/uow"

	"go.uber.org/zap"
)

// InitializeWallets retrieves wallets based on an optional owner filter.
// If ownerFilter is provided, returns the single wallet of that owner.
// If ownerFilter is empty, returns all wallets.
func InitializeWallets(ctx context.Context, manager *uow.Manager, walletStore store.WalletStore, ownerFilter string, logger *zap.Logger) ([]models.Wallet, error) {
	var wallets []models.Wallet

	err := manager.Run(ctx, func(ctx context.Context, scope store.Scope) error {
		if ownerFilter != "" {
			logger.Info("Looking up wallet by owner", zap.String("owner_id", ownerFilter))
			wallet, err := walletStore.GetWalletByOwnerId(ctx, scope, ownerFilter)
			if err != nil {
				return fmt.Errorf("wallet not found: %w", err)
			}
			wallets = []models.Wallet{*wallet}
			return nil
		}

		all, err := walletStore.ListWallets(ctx, scope)
		if err != nil {
			return fmt.Errorf("failed to get wallets: %w", err)
		}
		wallets = all
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Retrieved wallets", zap.Int("count", len(wallets)))
	return wallets, nil
}
