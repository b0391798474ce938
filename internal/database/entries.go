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

func scanEntry(row rowScanner) (*models.LedgerEntry, error) {
	var e models.LedgerEntry
	var (
		source, dealId, eventId, managerId, externalRef sql.NullString
		entryType, status, voltzType                    string
		amount                                          int64
		settledAt                                       sql.NullTime
	)
	err := row.Scan(&e.Id, &source, &e.TargetWalletId, &amount, &entryType, &status, &voltzType, &e.Escrow,
		&dealId, &eventId, &managerId, &externalRef, &e.Description, &e.CreatedAt, &e.UpdatedAt, &settledAt)
	if err != nil {
		return nil, err
	}

	e.SourceWalletId = source.String
	e.Amount = models.Voltz(amount)
	e.Type = models.EntryType(entryType)
	e.Status = models.EntryStatus(status)
	e.VoltzType = models.VoltzType(voltzType)
	e.Context = models.EntryContext{
		DealId:            dealId.String,
		EventId:           eventId.String,
		CampaignManagerId: managerId.String,
	}
	e.ExternalRef = externalRef.String
	if settledAt.Valid {
		t := settledAt.Time
		e.SettledAt = &t
	}
	return &e, nil
}

func (s *Service) InsertEntry(ctx context.Context, scope store.Scope, entry *models.LedgerEntry) error {
	_, err := scope.ExecContext(ctx, s.dialect.q(queryInsertEntry),
		entry.Id,
		nullString(entry.SourceWalletId),
		entry.TargetWalletId,
		int64(entry.Amount),
		string(entry.Type),
		string(entry.Status),
		string(entry.VoltzType),
		entry.Escrow,
		nullString(entry.Context.DealId),
		nullString(entry.Context.EventId),
		nullString(entry.Context.CampaignManagerId),
		nullString(entry.ExternalRef),
		entry.Description,
		entry.CreatedAt,
		entry.UpdatedAt,
		nullTime(entry.SettledAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("entry %s (ref %q): %w", entry.Id, entry.ExternalRef, store.ErrDuplicateTransaction)
		}
		zap.L().Error("Failed to insert ledger entry", zap.String("entry_id", entry.Id), zap.Error(err))
		return fmt.Errorf("failed to insert ledger entry: %w", err)
	}

	zap.L().Debug("Ledger entry inserted",
		zap.String("entry_id", entry.Id),
		zap.String("type", string(entry.Type)),
		zap.String("status", string(entry.Status)),
		zap.String("amount", entry.Amount.String()))
	return nil
}

func (s *Service) GetEntry(ctx context.Context, scope store.Scope, entryId string) (*models.LedgerEntry, error) {
	return s.getEntry(ctx, scope, s.dialect.q(queryGetEntry), entryId)
}

// LockEntry reads the entry and holds its row lock until the scope ends
func (s *Service) LockEntry(ctx context.Context, scope store.Scope, entryId string) (*models.LedgerEntry, error) {
	return s.getEntry(ctx, scope, s.dialect.forUpdate(queryGetEntry), entryId)
}

// FindEntryByExternalRef returns nil without error when no entry carries the reference
func (s *Service) FindEntryByExternalRef(ctx context.Context, scope store.Scope, externalRef string) (*models.LedgerEntry, error) {
	entry, err := scanEntry(scope.QueryRowContext(ctx, s.dialect.q(queryFindEntryByExternalRef), externalRef))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		zap.L().Error("Failed to look up entry by reference", zap.String("external_ref", externalRef), zap.Error(err))
		return nil, fmt.Errorf("failed to look up entry by reference: %w", err)
	}
	return entry, nil
}

func (s *Service) getEntry(ctx context.Context, scope store.Scope, query, entryId string) (*models.LedgerEntry, error) {
	entry, err := scanEntry(scope.QueryRowContext(ctx, query, entryId))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("entry %s: %w", entryId, store.ErrEntryNotFound)
	}
	if err != nil {
		zap.L().Error("Failed to get ledger entry", zap.String("entry_id", entryId), zap.Error(err))
		return nil, fmt.Errorf("failed to get ledger entry: %w", err)
	}
	return entry, nil
}

// TransitionEntryStatus moves the entry from one status to another. It fails
// with ErrEntryAlreadySettled when the entry is no longer in the from status.
func (s *Service) TransitionEntryStatus(ctx context.Context, scope store.Scope, entryId string, from, to models.EntryStatus, at time.Time) error {
	var settledAt sql.NullTime
	if to.IsTerminal() {
		settledAt = sql.NullTime{Time: at, Valid: true}
	}

	result, err := scope.ExecContext(ctx, s.dialect.q(queryTransitionEntryStatus),
		string(to), at, settledAt, entryId, string(from))
	if err != nil {
		zap.L().Error("Failed to transition ledger entry", zap.String("entry_id", entryId), zap.Error(err))
		return fmt.Errorf("failed to transition ledger entry: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("entry %s is not %s: %w", entryId, from, store.ErrEntryAlreadySettled)
	}

	zap.L().Debug("Ledger entry transitioned",
		zap.String("entry_id", entryId),
		zap.String("from", string(from)),
		zap.String("to", string(to)))
	return nil
}

// ListEntries returns the wallet's entries in either direction, newest first
func (s *Service) ListEntries(ctx context.Context, scope store.Scope, walletId string, limit, offset int) ([]models.LedgerEntry, error) {
	rows, err := scope.QueryContext(ctx, s.dialect.q(queryListWalletEntries), walletId, walletId, limit, offset)
	if err != nil {
		zap.L().Error("Failed to list ledger entries", zap.String("wallet_id", walletId), zap.Error(err))
		return nil, fmt.Errorf("failed to list ledger entries: %w", err)
	}
	defer closeRows(rows)

	var entries []models.LedgerEntry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ledger entry: %w", err)
		}
		entries = append(entries, *entry)
	}
	if err := rows.Err(); err != nil {
		zap.L().Error("Error during ledger entry row iteration", zap.Error(err))
		return nil, fmt.Errorf("error iterating ledger entry rows: %w", err)
	}

	zap.L().Debug("Retrieved ledger entries", zap.String("wallet_id", walletId), zap.Int("count", len(entries)))
	return entries, nil
}

// ComputeWalletTotals recomputes both balances of a wallet from its entries
func (s *Service) ComputeWalletTotals(ctx context.Context, scope store.Scope, walletId string) (*models.WalletTotals, error) {
	var incoming, outgoing, foundational int64
	sums := []struct {
		name  string
		query string
		dest  *int64
	}{
		{"incoming", querySumIncoming, &incoming},
		{"outgoing", querySumOutgoing, &outgoing},
		{"foundational", querySumFoundational, &foundational},
	}
	for _, sum := range sums {
		if err := scope.QueryRowContext(ctx, s.dialect.q(sum.query), walletId).Scan(sum.dest); err != nil {
			zap.L().Error("Failed to sum ledger entries",
				zap.String("wallet_id", walletId),
				zap.String("sum", sum.name),
				zap.Error(err))
			return nil, fmt.Errorf("failed to sum %s entries: %w", sum.name, err)
		}
	}

	return &models.WalletTotals{
		WalletId:          walletId,
		Balance:           models.Voltz(incoming - outgoing),
		FoundationalVoltz: models.Voltz(foundational),
	}, nil
}
