package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"voltz-ledger-go/internal/models"
	"voltz-ledger-go/internal/store"

	"go.uber.org/zap"
)

type rowScanner interface {
	Scan(dest ...any) error
}

func scanWallet(row rowScanner) (*models.Wallet, error) {
	var w models.Wallet
	var balance, foundational int64
	if err := row.Scan(&w.Id, &w.OwnerId, &balance, &foundational, &w.Version, &w.CreatedAt, &w.UpdatedAt); err != nil {
		return nil, err
	}
	w.Balance = models.Voltz(balance)
	w.FoundationalVoltz = models.Voltz(foundational)
	return &w, nil
}

func (s *Service) InsertWallet(ctx context.Context, scope store.Scope, wallet *models.Wallet) error {
	_, err := scope.ExecContext(ctx, s.dialect.q(queryInsertWallet),
		wallet.Id, wallet.OwnerId, int64(wallet.Balance), int64(wallet.FoundationalVoltz),
		wallet.Version, wallet.CreatedAt, wallet.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("wallet for owner %s already exists: %w", wallet.OwnerId, store.ErrDuplicateTransaction)
		}
		zap.L().Error("Failed to insert wallet", zap.String("owner_id", wallet.OwnerId), zap.Error(err))
		return fmt.Errorf("failed to insert wallet: %w", err)
	}
	zap.L().Debug("Wallet inserted", zap.String("wallet_id", wallet.Id), zap.String("owner_id", wallet.OwnerId))
	return nil
}

func (s *Service) GetWalletById(ctx context.Context, scope store.Scope, walletId string) (*models.Wallet, error) {
	return s.getWallet(ctx, scope, s.dialect.q(queryGetWalletById), walletId)
}

func (s *Service) GetWalletByOwnerId(ctx context.Context, scope store.Scope, ownerId string) (*models.Wallet, error) {
	return s.getWallet(ctx, scope, s.dialect.q(queryGetWalletByOwnerId), ownerId)
}

// LockWallet reads the wallet and holds its row lock until the scope ends
func (s *Service) LockWallet(ctx context.Context, scope store.Scope, walletId string) (*models.Wallet, error) {
	return s.getWallet(ctx, scope, s.dialect.forUpdate(queryGetWalletById), walletId)
}

func (s *Service) getWallet(ctx context.Context, scope store.Scope, query, key string) (*models.Wallet, error) {
	wallet, err := scanWallet(scope.QueryRowContext(ctx, query, key))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("wallet %s: %w", key, store.ErrWalletNotFound)
	}
	if err != nil {
		zap.L().Error("Failed to get wallet", zap.String("key", key), zap.Error(err))
		return nil, fmt.Errorf("failed to get wallet: %w", err)
	}
	return wallet, nil
}

// UpdateWalletBalances writes both balances guarded by the wallet version. On
// success the wallet's Version and UpdatedAt are advanced in place.
func (s *Service) UpdateWalletBalances(ctx context.Context, scope store.Scope, wallet *models.Wallet) error {
	if wallet.Balance < 0 || wallet.FoundationalVoltz < 0 {
		return fmt.Errorf("wallet %s: %w", wallet.Id, store.ErrInsufficientFunds)
	}

	now := time.Now().UTC()
	result, err := scope.ExecContext(ctx, s.dialect.q(queryUpdateWalletBalances),
		int64(wallet.Balance), int64(wallet.FoundationalVoltz), now, wallet.Id, wallet.Version)
	if err != nil {
		zap.L().Error("Failed to update wallet balances", zap.String("wallet_id", wallet.Id), zap.Error(err))
		return fmt.Errorf("failed to update wallet balances: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		zap.L().Warn("Wallet version conflict",
			zap.String("wallet_id", wallet.Id),
			zap.Int64("expected_version", wallet.Version))
		return fmt.Errorf("wallet %s: %w", wallet.Id, store.ErrConcurrentModification)
	}

	wallet.Version++
	wallet.UpdatedAt = now
	return nil
}

func (s *Service) ListWallets(ctx context.Context, scope store.Scope) ([]models.Wallet, error) {
	rows, err := scope.QueryContext(ctx, s.dialect.q(queryListWallets))
	if err != nil {
		zap.L().Error("Failed to list wallets", zap.Error(err))
		return nil, fmt.Errorf("failed to list wallets: %w", err)
	}
	defer closeRows(rows)

	var wallets []models.Wallet
	for rows.Next() {
		wallet, err := scanWallet(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan wallet: %w", err)
		}
		wallets = append(wallets, *wallet)
	}
	if err := rows.Err(); err != nil {
		zap.L().Error("Error during wallet row iteration", zap.Error(err))
		return nil, fmt.Errorf("error iterating wallet rows: %w", err)
	}

	zap.L().Debug("Retrieved wallets", zap.Int("count", len(wallets)))
	return wallets, nil
}
