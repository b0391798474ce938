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
	"errors"
	"fmt"

	"voltz-ledger-go/internal/ledger"
	"voltz-ledger-go/internal/models"
	"voltz-ledger-go/internal/store"

	"go.uber.org/zap"
)

// PurchaseVoltz credits a company wallet once the external payment identified
// by paymentRef has been confirmed. A repeated paymentRef is rejected with
// ErrDuplicateTransaction and credits nothing.
func (s *WalletService) PurchaseVoltz(ctx context.Context, ownerId string, amount models.Voltz, paymentRef string) (*models.OperationResult, error) {
	if ownerId == "" || paymentRef == "" || !amount.IsPositive() {
		return nil, fmt.Errorf("invalid purchase parameters: %w", store.ErrInvalidAmount)
	}

	zap.L().Info("Processing Voltz purchase",
		zap.String("owner_id", ownerId),
		zap.String("amount", amount.String()),
		zap.String("payment_ref", paymentRef))

	var (
		wallet *models.Wallet
		entry  *models.LedgerEntry
	)
	err := s.uow.Run(ctx, func(ctx context.Context, scope store.Scope) error {
		var err error
		if wallet, err = s.ledger.GetWalletByOwnerId(ctx, scope, ownerId); err != nil {
			return err
		}
		entry, err = s.ledger.CreditWalletWithRef(ctx, scope, wallet, amount, paymentRef, "Voltz purchase")
		return err
	})
	if err != nil {
		if errors.Is(err, store.ErrDuplicateTransaction) {
			zap.L().Info("Duplicate purchase detected",
				zap.String("owner_id", ownerId),
				zap.String("payment_ref", paymentRef))
		} else {
			zap.L().Error("Purchase processing failed",
				zap.String("owner_id", ownerId),
				zap.String("amount", amount.String()),
				zap.Error(err))
		}
		return nil, err
	}

	return result(entry, wallet), nil
}

// GrantVoltz is the operator credit used by seeding and the grant tool.
// Foundational grants only raise the wallet's foundational accumulator.
func (s *WalletService) GrantVoltz(ctx context.Context, ownerId string, amount models.Voltz, foundational bool, description string) (*models.OperationResult, error) {
	if ownerId == "" {
		return nil, fmt.Errorf("owner_id is required")
	}

	var (
		wallet *models.Wallet
		entry  *models.LedgerEntry
	)
	err := s.uow.Run(ctx, func(ctx context.Context, scope store.Scope) error {
		var err error
		if wallet, err = s.ledger.GetWalletByOwnerId(ctx, scope, ownerId); err != nil {
			return err
		}
		if foundational {
			entry, err = s.ledger.GrantFoundational(ctx, scope, wallet, amount, description)
		} else {
			entry, err = s.ledger.CreditWallet(ctx, scope, wallet, amount, description)
		}
		return err
	})
	if err != nil {
		logRejection("grant", ownerId, amount, err)
		return nil, err
	}

	zap.L().Info("Voltz granted",
		zap.String("owner_id", ownerId),
		zap.String("amount", amount.String()),
		zap.Bool("foundational", foundational),
		zap.String("entry_id", entry.Id))
	return result(entry, wallet), nil
}

// CompensateVolunteer pays a volunteer from the company or campaign manager
// wallet for an event.
func (s *WalletService) CompensateVolunteer(ctx context.Context, payerOwnerId, volunteerOwnerId string, amount models.Voltz, tags models.EntryContext) (*models.OperationResult, error) {
	return s.move(ctx, "compensation", payerOwnerId, volunteerOwnerId, amount, ledger.TransferParams{
		Type:        models.EntryTypeTransfer,
		Context:     tags,
		Description: "Volunteer compensation",
	})
}

// Donate moves Voltz from a user to an NGO
func (s *WalletService) Donate(ctx context.Context, donorOwnerId, ngoOwnerId string, amount models.Voltz, tags models.EntryContext) (*models.OperationResult, error) {
	return s.move(ctx, "donation", donorOwnerId, ngoOwnerId, amount, ledger.TransferParams{
		Type:        models.EntryTypeDonate,
		Context:     tags,
		Description: "Donation",
	})
}

func (s *WalletService) move(ctx context.Context, kind, fromOwnerId, toOwnerId string, amount models.Voltz, params ledger.TransferParams) (*models.OperationResult, error) {
	if fromOwnerId == "" || toOwnerId == "" {
		return nil, fmt.Errorf("%s requires both owners", kind)
	}

	var (
		source, target *models.Wallet
		entry          *models.LedgerEntry
	)
	err := s.uow.Run(ctx, func(ctx context.Context, scope store.Scope) error {
		var err error
		if source, err = s.ledger.GetWalletByOwnerId(ctx, scope, fromOwnerId); err != nil {
			return err
		}
		if target, err = s.ledger.GetWalletByOwnerId(ctx, scope, toOwnerId); err != nil {
			return err
		}
		entry, err = s.ledger.Transfer(ctx, scope, source, target, amount, params)
		return err
	})
	if err != nil {
		logRejection(kind, fromOwnerId, amount, err)
		return nil, err
	}

	return result(entry, source), nil
}

func result(entry *models.LedgerEntry, wallet *models.Wallet) *models.OperationResult {
	return &models.OperationResult{
		EntryId:    entry.Id,
		OwnerId:    wallet.OwnerId,
		Amount:     entry.Amount,
		Status:     entry.Status,
		NewBalance: wallet.Balance,
	}
}

// logRejection logs business rejections at Warn and everything else at Error
func logRejection(kind, ownerId string, amount models.Voltz, err error) {
	fields := []zap.Field{
		zap.String("operation", kind),
		zap.String("owner_id", ownerId),
		zap.String("amount", amount.String()),
		zap.Error(err),
	}
	switch {
	case errors.Is(err, store.ErrInsufficientFunds),
		errors.Is(err, store.ErrInvalidAmount),
		errors.Is(err, store.ErrSameWallet),
		errors.Is(err, store.ErrWalletNotFound):
		zap.L().Warn("Wallet operation rejected", fields...)
	default:
		zap.L().Error("Wallet operation failed", fields...)
	}
}
