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

package ledger

import (
	"context"
	"fmt"
	"math"
	"time"

	"voltz-ledger-go/internal/models"
	"voltz-ledger-go/internal/store"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Observer receives ledger events once the unit of work that produced them
// has committed. Observers cannot affect the committed state.
type Observer interface {
	Observe(ctx context.Context, event models.LedgerEvent)
}

// Service applies balance changes and records ledger entries. Every operation
// runs inside the caller's scope and never begins, commits or rolls back.
type Service struct {
	store     store.WalletStore
	observers []Observer
	now       func() time.Time
}

func NewService(walletStore store.WalletStore, observers ...Observer) *Service {
	return &Service{
		store:     walletStore,
		observers: observers,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// TransferParams carries the classification and provenance of a movement
// between two wallets.
type TransferParams struct {
	Type        models.EntryType // TRANSFER or DONATE; defaults to TRANSFER
	VoltzType   models.VoltzType // defaults to ORDINARY
	Context     models.EntryContext
	Description string
}

func (p TransferParams) withDefaults() (TransferParams, error) {
	if p.Type == "" {
		p.Type = models.EntryTypeTransfer
	}
	if p.VoltzType == "" {
		p.VoltzType = models.VoltzTypeOrdinary
	}
	if p.Type != models.EntryTypeTransfer && p.Type != models.EntryTypeDonate {
		return p, fmt.Errorf("unsupported entry type %s for a wallet-to-wallet movement", p.Type)
	}
	if p.VoltzType != models.VoltzTypeOrdinary && p.VoltzType != models.VoltzTypeFoundational {
		return p, fmt.Errorf("unsupported voltz type %s", p.VoltzType)
	}
	return p, nil
}

// CreateWallet opens a wallet with a zero balance for ownerId
func (s *Service) CreateWallet(ctx context.Context, scope store.Scope, ownerId string) (*models.Wallet, error) {
	if ownerId == "" {
		return nil, fmt.Errorf("owner id cannot be empty")
	}

	now := s.now()
	wallet := &models.Wallet{
		Id:        uuid.New().String(),
		OwnerId:   ownerId,
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.InsertWallet(ctx, scope, wallet); err != nil {
		return nil, err
	}

	zap.L().Info("Wallet created", zap.String("wallet_id", wallet.Id), zap.String("owner_id", ownerId))
	return wallet, nil
}

func (s *Service) GetWalletByOwnerId(ctx context.Context, scope store.Scope, ownerId string) (*models.Wallet, error) {
	return s.store.GetWalletByOwnerId(ctx, scope, ownerId)
}

func (s *Service) GetEntry(ctx context.Context, scope store.Scope, entryId string) (*models.LedgerEntry, error) {
	return s.store.GetEntry(ctx, scope, entryId)
}

// ListEntries returns the wallet's entries in either direction, newest first
func (s *Service) ListEntries(ctx context.Context, scope store.Scope, walletId string, limit, offset int) ([]models.LedgerEntry, error) {
	if limit <= 0 || offset < 0 {
		return nil, fmt.Errorf("invalid page: limit %d offset %d", limit, offset)
	}
	return s.store.ListEntries(ctx, scope, walletId, limit, offset)
}

// CreditWallet adds purchased Voltz to target. The entry has no source wallet.
func (s *Service) CreditWallet(ctx context.Context, scope store.Scope, target *models.Wallet, amount models.Voltz, description string) (*models.LedgerEntry, error) {
	return s.credit(ctx, scope, target, amount, "", description)
}

// CreditWalletWithRef is CreditWallet keyed by an external payment reference.
// A reference that was already credited fails with ErrDuplicateTransaction.
func (s *Service) CreditWalletWithRef(ctx context.Context, scope store.Scope, target *models.Wallet, amount models.Voltz, externalRef, description string) (*models.LedgerEntry, error) {
	if externalRef == "" {
		return nil, fmt.Errorf("external reference cannot be empty")
	}
	return s.credit(ctx, scope, target, amount, externalRef, description)
}

func (s *Service) credit(ctx context.Context, scope store.Scope, target *models.Wallet, amount models.Voltz, externalRef, description string) (*models.LedgerEntry, error) {
	if !amount.IsPositive() {
		return nil, fmt.Errorf("credit of %s: %w", amount, store.ErrInvalidAmount)
	}

	if externalRef != "" {
		existing, err := s.store.FindEntryByExternalRef(ctx, scope, externalRef)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			zap.L().Warn("Duplicate credit rejected",
				zap.String("external_ref", externalRef),
				zap.String("entry_id", existing.Id))
			return nil, fmt.Errorf("reference %s already credited by entry %s: %w", externalRef, existing.Id, store.ErrDuplicateTransaction)
		}
	}

	locked, err := s.store.LockWallet(ctx, scope, target.Id)
	if err != nil {
		return nil, err
	}
	if locked.Balance, err = addVoltz(locked.Balance, amount); err != nil {
		return nil, err
	}
	if err := s.store.UpdateWalletBalances(ctx, scope, locked); err != nil {
		return nil, err
	}

	now := s.now()
	entry := &models.LedgerEntry{
		Id:             uuid.New().String(),
		TargetWalletId: locked.Id,
		Amount:         amount,
		Type:           models.EntryTypePurchase,
		Status:         models.EntryStatusReleased,
		VoltzType:      models.VoltzTypeOrdinary,
		ExternalRef:    externalRef,
		Description:    description,
		CreatedAt:      now,
		UpdatedAt:      now,
		SettledAt:      &now,
	}
	if err := s.store.InsertEntry(ctx, scope, entry); err != nil {
		return nil, err
	}

	*target = *locked
	s.emit(scope, models.LedgerActionCredit, entry)

	zap.L().Info("Wallet credited",
		zap.String("wallet_id", locked.Id),
		zap.String("owner_id", locked.OwnerId),
		zap.String("entry_id", entry.Id),
		zap.String("amount", amount.String()),
		zap.String("balance", locked.Balance.String()))
	return entry, nil
}

// GrantFoundational adds to the wallet's lifetime foundational accumulator.
// The spendable balance is not touched.
func (s *Service) GrantFoundational(ctx context.Context, scope store.Scope, target *models.Wallet, amount models.Voltz, description string) (*models.LedgerEntry, error) {
	if !amount.IsPositive() {
		return nil, fmt.Errorf("foundational grant of %s: %w", amount, store.ErrInvalidAmount)
	}

	locked, err := s.store.LockWallet(ctx, scope, target.Id)
	if err != nil {
		return nil, err
	}
	if locked.FoundationalVoltz, err = addVoltz(locked.FoundationalVoltz, amount); err != nil {
		return nil, err
	}
	if err := s.store.UpdateWalletBalances(ctx, scope, locked); err != nil {
		return nil, err
	}

	now := s.now()
	entry := &models.LedgerEntry{
		Id:             uuid.New().String(),
		TargetWalletId: locked.Id,
		Amount:         amount,
		Type:           models.EntryTypePurchase,
		Status:         models.EntryStatusReleased,
		VoltzType:      models.VoltzTypeFoundational,
		Description:    description,
		CreatedAt:      now,
		UpdatedAt:      now,
		SettledAt:      &now,
	}
	if err := s.store.InsertEntry(ctx, scope, entry); err != nil {
		return nil, err
	}

	*target = *locked
	s.emit(scope, models.LedgerActionGrant, entry)

	zap.L().Info("Foundational Voltz granted",
		zap.String("wallet_id", locked.Id),
		zap.String("entry_id", entry.Id),
		zap.String("amount", amount.String()),
		zap.String("foundational_voltz", locked.FoundationalVoltz.String()))
	return entry, nil
}

// emit queues event delivery for after the scope commits
func (s *Service) emit(scope store.Scope, action models.LedgerAction, entry *models.LedgerEntry) {
	if len(s.observers) == 0 {
		return
	}
	event := models.LedgerEvent{Action: action, Entry: *entry, OccurredAt: s.now()}
	for _, observer := range s.observers {
		scope.AfterCommit(func(ctx context.Context) {
			observer.Observe(ctx, event)
		})
	}
}

func addVoltz(balance, amount models.Voltz) (models.Voltz, error) {
	if balance > models.Voltz(math.MaxInt64)-amount {
		return balance, fmt.Errorf("balance %s + %s overflows: %w", balance, amount, store.ErrInvalidAmount)
	}
	return balance + amount, nil
}
