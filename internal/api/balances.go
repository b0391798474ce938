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

	"voltz-ledger-go/internal/models"
	"voltz-ledger-go/internal/store"

	"go.uber.org/zap"
)

// GetWalletSummary returns the current balances of an owner's wallet
func (s *WalletService) GetWalletSummary(ctx context.Context, ownerId string) (*models.WalletSummary, error) {
	if ownerId == "" {
		return nil, fmt.Errorf("owner_id is required")
	}

	var wallet *models.Wallet
	err := s.uow.Run(ctx, func(ctx context.Context, scope store.Scope) error {
		var err error
		wallet, err = s.ledger.GetWalletByOwnerId(ctx, scope, ownerId)
		return err
	})
	if err != nil {
		zap.L().Debug("Wallet summary lookup failed", zap.String("owner_id", ownerId), zap.Error(err))
		return nil, err
	}

	return summarize(wallet), nil
}

// GetHistory returns paginated ledger history for an owner, newest first
func (s *WalletService) GetHistory(ctx context.Context, ownerId string, limit, offset int) ([]models.EntryRecord, error) {
	if ownerId == "" {
		return nil, fmt.Errorf("owner_id is required")
	}

	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	var (
		wallet  *models.Wallet
		entries []models.LedgerEntry
	)
	err := s.uow.Run(ctx, func(ctx context.Context, scope store.Scope) error {
		var err error
		if wallet, err = s.ledger.GetWalletByOwnerId(ctx, scope, ownerId); err != nil {
			return err
		}
		entries, err = s.ledger.ListEntries(ctx, scope, wallet.Id, limit, offset)
		return err
	})
	if err != nil {
		zap.L().Error("Failed to get ledger history", zap.String("owner_id", ownerId), zap.Error(err))
		return nil, err
	}

	result := make([]models.EntryRecord, len(entries))
	for i, entry := range entries {
		direction := "in"
		if entry.SourceWalletId == wallet.Id {
			direction = "out"
		}
		result[i] = models.EntryRecord{
			Id:        entry.Id,
			Type:      entry.Type,
			Status:    entry.Status,
			Direction: direction,
			Amount:    entry.Amount,
			VoltzType: entry.VoltzType,
			DealId:    entry.Context.DealId,
			EventId:   entry.Context.EventId,
			CreatedAt: entry.CreatedAt,
		}
	}

	return result, nil
}
