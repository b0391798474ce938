package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"voltz-ledger-go/internal/models"
)

// Sentinel errors shared across all backend implementations.
var (
	ErrInsufficientFunds      = errors.New("insufficient funds")
	ErrInvalidAmount          = errors.New("amount must be positive")
	ErrSameWallet             = errors.New("source and target wallet must differ")
	ErrWalletNotFound         = errors.New("wallet not found")
	ErrEntryNotFound          = errors.New("ledger entry not found")
	ErrNotEscrowEntry         = errors.New("ledger entry was not created by a hold")
	ErrWalletMismatch         = errors.New("wallets do not match the ledger entry")
	ErrInvalidOutcome         = errors.New("settlement outcome must be RELEASED or CANCELLED")
	ErrEntryAlreadySettled    = errors.New("ledger entry already settled with a different outcome")
	ErrConcurrentModification = errors.New("concurrent modification detected")
	ErrDuplicateTransaction   = errors.New("duplicate transaction")
	ErrBalanceMismatch        = errors.New("balance does not match ledger history")
	ErrRedemptionNotFound     = errors.New("redemption request not found")
	ErrRedemptionNotPending   = errors.New("redemption request is not pending")
)

// Scope is one open unit of work. Every read and write of a ledger operation
// goes through the same scope so they commit or roll back together.
// *sql.Tx satisfies the query methods.
type Scope interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row

	// AfterCommit registers fn to run once the scope has committed.
	// It is never called when the scope rolls back.
	AfterCommit(fn func(ctx context.Context))
}

// WalletStore defines the persistence contract of the ledger. Implementations
// must lock the wallet row in LockWallet (or rely on a database-wide write
// lock) and guard every balance write with the wallet version.
type WalletStore interface {
	// --- Wallets ---
	InsertWallet(ctx context.Context, scope Scope, wallet *models.Wallet) error
	GetWalletById(ctx context.Context, scope Scope, walletId string) (*models.Wallet, error)
	GetWalletByOwnerId(ctx context.Context, scope Scope, ownerId string) (*models.Wallet, error)
	LockWallet(ctx context.Context, scope Scope, walletId string) (*models.Wallet, error)
	UpdateWalletBalances(ctx context.Context, scope Scope, wallet *models.Wallet) error
	ListWallets(ctx context.Context, scope Scope) ([]models.Wallet, error)

	// --- Entries ---
	InsertEntry(ctx context.Context, scope Scope, entry *models.LedgerEntry) error
	GetEntry(ctx context.Context, scope Scope, entryId string) (*models.LedgerEntry, error)
	LockEntry(ctx context.Context, scope Scope, entryId string) (*models.LedgerEntry, error)
	FindEntryByExternalRef(ctx context.Context, scope Scope, externalRef string) (*models.LedgerEntry, error)
	TransitionEntryStatus(ctx context.Context, scope Scope, entryId string, from, to models.EntryStatus, at time.Time) error
	ListEntries(ctx context.Context, scope Scope, walletId string, limit, offset int) ([]models.LedgerEntry, error)
	ComputeWalletTotals(ctx context.Context, scope Scope, walletId string) (*models.WalletTotals, error)
}

// RedemptionStore persists deal redemption requests for the orchestrators.
type RedemptionStore interface {
	InsertRedemption(ctx context.Context, scope Scope, req *models.RedemptionRequest) error
	LockRedemption(ctx context.Context, scope Scope, requestId string) (*models.RedemptionRequest, error)
	TransitionRedemptionStatus(ctx context.Context, scope Scope, requestId string, from, to models.RedemptionStatus, at time.Time) error
	ListPendingRedemptionsBefore(ctx context.Context, scope Scope, cutoff time.Time, limit int) ([]models.RedemptionRequest, error)
}
