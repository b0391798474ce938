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

package api

import (
	"context"
	"fmt"
	"time"

	"voltz-ledger-go/internal/ledger"
	"voltz-ledger-go/internal/models"
	"voltz-ledger-go/internal/store"
	"voltz-ledger-go/internal/uow"

	"go.uber.org/zap"
)

// Pinger reports whether the backing database is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// WalletService composes ledger operations into the platform's business
// flows. Each method is one unit of work.
type WalletService struct {
	uow         *uow.Manager
	ledger      *ledger.Service
	redemptions store.RedemptionStore
	db          Pinger
	now         func() time.Time
}

func NewWalletService(manager *uow.Manager, ledgerService *ledger.Service, redemptions store.RedemptionStore, db Pinger) *WalletService {
	return &WalletService{
		uow:         manager,
		ledger:      ledgerService,
		redemptions: redemptions,
		db:          db,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

func (s *WalletService) HealthCheck(ctx context.Context) error {
	if err := s.db.Ping(ctx); err != nil {
		return fmt.Errorf("database health check failed: %w", err)
	}
	return nil
}

// OpenWallet creates the wallet of a newly approved user or NGO
func (s *WalletService) OpenWallet(ctx context.Context, ownerId string) (*models.WalletSummary, error) {
	if ownerId == "" {
		return nil, fmt.Errorf("owner_id is required")
	}

	var wallet *models.Wallet
	err := s.uow.Run(ctx, func(ctx context.Context, scope store.Scope) error {
		var err error
		wallet, err = s.ledger.CreateWallet(ctx, scope, ownerId)
		return err
	})
	if err != nil {
		zap.L().Error("Failed to open wallet", zap.String("owner_id", ownerId), zap.Error(err))
		return nil, err
	}

	return summarize(wallet), nil
}

func summarize(wallet *models.Wallet) *models.WalletSummary {
	return &models.WalletSummary{
		WalletId:          wallet.Id,
		OwnerId:           wallet.OwnerId,
		Balance:           wallet.Balance,
		FoundationalVoltz: wallet.FoundationalVoltz,
	}
}
