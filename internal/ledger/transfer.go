package ledger

import (
	"context"
	"errors"
	"fmt"

	"voltz-ledger-go/internal/models"
	"voltz-ledger-go/internal/store"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Transfer moves amount from source to target immediately.
func (s *Service) Transfer(ctx context.Context, scope store.Scope, source, target *models.Wallet, amount models.Voltz, params TransferParams) (*models.LedgerEntry, error) {
	params, err := params.withDefaults()
	if err != nil {
		return nil, err
	}
	src, dst, err := s.lockForMovement(ctx, scope, source, target, amount)
	if err != nil {
		return nil, err
	}

	src.Balance -= amount
	if dst.Balance, err = addVoltz(dst.Balance, amount); err != nil {
		return nil, err
	}
	if err := s.updatePair(ctx, scope, src, dst); err != nil {
		return nil, err
	}

	now := s.now()
	entry := &models.LedgerEntry{
		Id:             uuid.New().String(),
		SourceWalletId: src.Id,
		TargetWalletId: dst.Id,
		Amount:         amount,
		Type:           params.Type,
		Status:         models.EntryStatusReleased,
		VoltzType:      params.VoltzType,
		Context:        params.Context,
		Description:    params.Description,
		CreatedAt:      now,
		UpdatedAt:      now,
		SettledAt:      &now,
	}
	if err := s.store.InsertEntry(ctx, scope, entry); err != nil {
		return nil, err
	}

	*source, *target = *src, *dst
	s.emit(scope, models.LedgerActionTransfer, entry)

	zap.L().Info("Voltz transferred",
		zap.String("entry_id", entry.Id),
		zap.String("source_wallet_id", src.Id),
		zap.String("target_wallet_id", dst.Id),
		zap.String("type", string(entry.Type)),
		zap.String("amount", amount.String()))
	return entry, nil
}

// HoldForRedemption debits source and parks amount in escrow. Nothing reaches
// target until SettleHold releases the entry.
func (s *Service) HoldForRedemption(ctx context.Context, scope store.Scope, source, target *models.Wallet, amount models.Voltz, params TransferParams) (*models.LedgerEntry, error) {
	params, err := params.withDefaults()
	if err != nil {
		return nil, err
	}
	src, dst, err := s.lockForMovement(ctx, scope, source, target, amount)
	if err != nil {
		return nil, err
	}

	src.Balance -= amount
	if err := s.store.UpdateWalletBalances(ctx, scope, src); err != nil {
		return nil, err
	}

	now := s.now()
	entry := &models.LedgerEntry{
		Id:             uuid.New().String(),
		SourceWalletId: src.Id,
		TargetWalletId: dst.Id,
		Amount:         amount,
		Type:           params.Type,
		Status:         models.EntryStatusHold,
		VoltzType:      params.VoltzType,
		Escrow:         true,
		Context:        params.Context,
		Description:    params.Description,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.store.InsertEntry(ctx, scope, entry); err != nil {
		return nil, err
	}

	*source, *target = *src, *dst
	s.emit(scope, models.LedgerActionHold, entry)

	zap.L().Info("Voltz held for redemption",
		zap.String("entry_id", entry.Id),
		zap.String("source_wallet_id", src.Id),
		zap.String("target_wallet_id", dst.Id),
		zap.String("deal_id", params.Context.DealId),
		zap.String("amount", amount.String()))
	return entry, nil
}

// SettleHold finishes a HOLD entry. RELEASED credits target, CANCELLED refunds
// source. Settling again with the same outcome is a no-op; a different outcome
// fails with ErrEntryAlreadySettled.
func (s *Service) SettleHold(ctx context.Context, scope store.Scope, source, target *models.Wallet, hold *models.LedgerEntry, outcome models.EntryStatus) error {
	if !outcome.IsTerminal() {
		return fmt.Errorf("outcome %q: %w", outcome, store.ErrInvalidOutcome)
	}

	entry, err := s.store.LockEntry(ctx, scope, hold.Id)
	if err != nil {
		return err
	}
	if !entry.Escrow {
		return fmt.Errorf("entry %s: %w", entry.Id, store.ErrNotEscrowEntry)
	}
	if entry.SourceWalletId != source.Id || entry.TargetWalletId != target.Id {
		return fmt.Errorf("entry %s moves %s -> %s: %w", entry.Id, entry.SourceWalletId, entry.TargetWalletId, store.ErrWalletMismatch)
	}
	if entry.Status.IsTerminal() {
		return s.settledAlready(hold, entry, outcome)
	}

	src, dst, err := s.lockPair(ctx, scope, source.Id, target.Id)
	if err != nil {
		return err
	}

	now := s.now()
	if err := s.store.TransitionEntryStatus(ctx, scope, entry.Id, models.EntryStatusHold, outcome, now); err != nil {
		if !errors.Is(err, store.ErrEntryAlreadySettled) {
			return err
		}
		current, getErr := s.store.GetEntry(ctx, scope, entry.Id)
		if getErr != nil {
			return getErr
		}
		return s.settledAlready(hold, current, outcome)
	}

	if outcome == models.EntryStatusReleased {
		if dst.Balance, err = addVoltz(dst.Balance, entry.Amount); err != nil {
			return err
		}
		err = s.store.UpdateWalletBalances(ctx, scope, dst)
	} else {
		if src.Balance, err = addVoltz(src.Balance, entry.Amount); err != nil {
			return err
		}
		err = s.store.UpdateWalletBalances(ctx, scope, src)
	}
	if err != nil {
		return err
	}

	entry.Status = outcome
	entry.UpdatedAt = now
	entry.SettledAt = &now
	*hold = *entry
	*source, *target = *src, *dst

	action := models.LedgerActionRelease
	if outcome == models.EntryStatusCancelled {
		action = models.LedgerActionCancel
	}
	s.emit(scope, action, entry)

	zap.L().Info("Hold settled",
		zap.String("entry_id", entry.Id),
		zap.String("status", string(outcome)),
		zap.String("amount", entry.Amount.String()))
	return nil
}

func (s *Service) settledAlready(hold, current *models.LedgerEntry, outcome models.EntryStatus) error {
	if current.Status != outcome {
		zap.L().Warn("Hold already settled with another outcome",
			zap.String("entry_id", current.Id),
			zap.String("status", string(current.Status)),
			zap.String("requested", string(outcome)))
		return fmt.Errorf("entry %s is %s: %w", current.Id, current.Status, store.ErrEntryAlreadySettled)
	}
	zap.L().Info("Hold already settled, nothing to do",
		zap.String("entry_id", current.Id),
		zap.String("status", string(current.Status)))
	*hold = *current
	return nil
}

// lockForMovement validates a wallet-to-wallet movement and returns both
// wallets locked, with source funded for amount.
func (s *Service) lockForMovement(ctx context.Context, scope store.Scope, source, target *models.Wallet, amount models.Voltz) (*models.Wallet, *models.Wallet, error) {
	if !amount.IsPositive() {
		return nil, nil, fmt.Errorf("movement of %s: %w", amount, store.ErrInvalidAmount)
	}
	if source.Id == target.Id {
		return nil, nil, fmt.Errorf("wallet %s: %w", source.Id, store.ErrSameWallet)
	}

	src, dst, err := s.lockPair(ctx, scope, source.Id, target.Id)
	if err != nil {
		return nil, nil, err
	}
	if src.Balance < amount {
		zap.L().Warn("Insufficient funds",
			zap.String("wallet_id", src.Id),
			zap.String("balance", src.Balance.String()),
			zap.String("amount", amount.String()))
		return nil, nil, fmt.Errorf("wallet %s has %s, needs %s: %w", src.Id, src.Balance, amount, store.ErrInsufficientFunds)
	}
	return src, dst, nil
}

// lockPair locks two wallets in ascending id order and returns them as (source, target)
func (s *Service) lockPair(ctx context.Context, scope store.Scope, sourceId, targetId string) (*models.Wallet, *models.Wallet, error) {
	firstId, secondId := sourceId, targetId
	if secondId < firstId {
		firstId, secondId = secondId, firstId
	}

	first, err := s.store.LockWallet(ctx, scope, firstId)
	if err != nil {
		return nil, nil, err
	}
	second, err := s.store.LockWallet(ctx, scope, secondId)
	if err != nil {
		return nil, nil, err
	}

	if first.Id == sourceId {
		return first, second, nil
	}
	return second, first, nil
}

func (s *Service) updatePair(ctx context.Context, scope store.Scope, src, dst *models.Wallet) error {
	if err := s.store.UpdateWalletBalances(ctx, scope, src); err != nil {
		return err
	}
	return s.store.UpdateWalletBalances(ctx, scope, dst)
}
