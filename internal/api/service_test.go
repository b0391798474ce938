package api

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"voltz-ledger-go/internal/database"
	"voltz-ledger-go/internal/ledger"
	"voltz-ledger-go/internal/models"
	"voltz-ledger-go/internal/store"
	"voltz-ledger-go/internal/uow"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestService(t *testing.T) *WalletService {
	t.Helper()
	db, err := sql.Open(database.DriverSQLite, ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)

	dbService, err := database.NewServiceWithDB(context.Background(), db, database.DriverSQLite)
	require.NoError(t, err)
	t.Cleanup(dbService.Close)

	manager := uow.NewManager(db, uow.WithRetryBackoff(0))
	return NewWalletService(manager, ledger.NewService(dbService), dbService, dbService)
}

// setupPooledTestService uses a file database and a multi-connection pool so
// concurrent orchestrator calls really overlap.
func setupPooledTestService(t *testing.T) *WalletService {
	t.Helper()
	dbService, err := database.NewService(context.Background(), models.DatabaseConfig{
		Driver:       database.DriverSQLite,
		Path:         filepath.Join(t.TempDir(), "wallets.db"),
		MaxOpenConns: 8,
		MaxIdleConns: 8,
		PingTimeout:  5 * time.Second,
	})
	require.NoError(t, err)
	t.Cleanup(dbService.Close)

	manager := uow.NewManager(dbService.DB(), uow.WithMaxAttempts(10), uow.WithRetryBackoff(time.Millisecond))
	return NewWalletService(manager, ledger.NewService(dbService), dbService, dbService)
}

func openFunded(t *testing.T, svc *WalletService, ownerId string, whole int64) {
	t.Helper()
	_, err := svc.OpenWallet(context.Background(), ownerId)
	require.NoError(t, err)
	if whole > 0 {
		_, err = svc.PurchaseVoltz(context.Background(), ownerId, models.NewVoltz(whole), "seed-"+ownerId)
		require.NoError(t, err)
	}
}

func balanceOf(t *testing.T, svc *WalletService, ownerId string) models.Voltz {
	t.Helper()
	summary, err := svc.GetWalletSummary(context.Background(), ownerId)
	require.NoError(t, err)
	return summary.Balance
}

func TestHealthCheck(t *testing.T) {
	svc := setupTestService(t)
	assert.NoError(t, svc.HealthCheck(context.Background()))
}

func TestOpenWalletAndSummary(t *testing.T) {
	svc := setupTestService(t)
	ctx := context.Background()

	opened, err := svc.OpenWallet(ctx, "ngo-1")
	require.NoError(t, err)
	assert.Equal(t, "ngo-1", opened.OwnerId)
	assert.Equal(t, models.Voltz(0), opened.Balance)

	summary, err := svc.GetWalletSummary(ctx, "ngo-1")
	require.NoError(t, err)
	assert.Equal(t, opened.WalletId, summary.WalletId)

	_, err = svc.GetWalletSummary(ctx, "ghost")
	assert.ErrorIs(t, err, store.ErrWalletNotFound)

	_, err = svc.OpenWallet(ctx, "")
	assert.Error(t, err)
}

func TestPurchaseVoltz_IdempotentOnPaymentRef(t *testing.T) {
	svc := setupTestService(t)
	ctx := context.Background()
	openFunded(t, svc, "company-1", 0)

	res, err := svc.PurchaseVoltz(ctx, "company-1", models.NewVoltz(500), "pi_1")
	require.NoError(t, err)
	assert.Equal(t, models.NewVoltz(500), res.NewBalance)
	assert.Equal(t, models.EntryStatusReleased, res.Status)

	_, err = svc.PurchaseVoltz(ctx, "company-1", models.NewVoltz(500), "pi_1")
	assert.ErrorIs(t, err, store.ErrDuplicateTransaction)
	assert.Equal(t, models.NewVoltz(500), balanceOf(t, svc, "company-1"))

	_, err = svc.PurchaseVoltz(ctx, "company-1", 0, "pi_2")
	assert.ErrorIs(t, err, store.ErrInvalidAmount)
}

func TestGrantVoltz(t *testing.T) {
	svc := setupTestService(t)
	ctx := context.Background()
	openFunded(t, svc, "ngo-1", 0)

	res, err := svc.GrantVoltz(ctx, "ngo-1", models.NewVoltz(50), true, "Launch grant")
	require.NoError(t, err)
	assert.Equal(t, models.Voltz(0), res.NewBalance)

	res, err = svc.GrantVoltz(ctx, "ngo-1", models.NewVoltz(5), false, "Manual credit")
	require.NoError(t, err)
	assert.Equal(t, models.NewVoltz(5), res.NewBalance)

	summary, err := svc.GetWalletSummary(ctx, "ngo-1")
	require.NoError(t, err)
	assert.Equal(t, models.NewVoltz(50), summary.FoundationalVoltz)

	_, err = svc.GrantVoltz(ctx, "ghost", models.NewVoltz(1), false, "")
	assert.ErrorIs(t, err, store.ErrWalletNotFound)
}

func TestCompensateAndDonate(t *testing.T) {
	svc := setupTestService(t)
	ctx := context.Background()
	openFunded(t, svc, "company-1", 100)
	openFunded(t, svc, "volunteer-1", 0)
	openFunded(t, svc, "ngo-1", 0)

	res, err := svc.CompensateVolunteer(ctx, "company-1", "volunteer-1", models.NewVoltz(30),
		models.EntryContext{EventId: "event-1"})
	require.NoError(t, err)
	assert.Equal(t, models.NewVoltz(70), res.NewBalance)

	res, err = svc.Donate(ctx, "volunteer-1", "ngo-1", models.NewVoltz(10), models.EntryContext{})
	require.NoError(t, err)
	assert.Equal(t, models.NewVoltz(20), res.NewBalance)
	assert.Equal(t, models.NewVoltz(10), balanceOf(t, svc, "ngo-1"))

	_, err = svc.Donate(ctx, "volunteer-1", "ngo-1", models.NewVoltz(21), models.EntryContext{})
	assert.ErrorIs(t, err, store.ErrInsufficientFunds)

	history, err := svc.GetHistory(ctx, "volunteer-1", 0, 0)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, models.EntryTypeDonate, history[0].Type)
	assert.Equal(t, "out", history[0].Direction)
	assert.Equal(t, models.EntryTypeTransfer, history[1].Type)
	assert.Equal(t, "in", history[1].Direction)
	assert.Equal(t, "event-1", history[1].EventId)

	page, err := svc.GetHistory(ctx, "volunteer-1", 1, 1)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, history[1].Id, page[0].Id)
}

func TestRedemption_Accept(t *testing.T) {
	svc := setupTestService(t)
	ctx := context.Background()
	openFunded(t, svc, "volunteer-a", 100)
	openFunded(t, svc, "company-b", 0)

	req, err := svc.RequestRedemption(ctx, "volunteer-a", "company-b", "deal-1", models.NewVoltz(40))
	require.NoError(t, err)
	assert.Equal(t, models.RedemptionStatusPending, req.Status)
	assert.Equal(t, models.NewVoltz(60), req.VolunteerBalance)
	assert.Equal(t, models.Voltz(0), req.CompanyBalance)

	accepted, err := svc.AcceptRedemption(ctx, req.RequestId)
	require.NoError(t, err)
	assert.Equal(t, models.RedemptionStatusAccepted, accepted.Status)
	assert.Equal(t, models.NewVoltz(60), accepted.VolunteerBalance)
	assert.Equal(t, models.NewVoltz(40), accepted.CompanyBalance)

	_, err = svc.RejectRedemption(ctx, req.RequestId)
	assert.ErrorIs(t, err, store.ErrRedemptionNotPending)
	assert.Equal(t, models.NewVoltz(40), balanceOf(t, svc, "company-b"))
	assert.Equal(t, models.NewVoltz(60), balanceOf(t, svc, "volunteer-a"))
}

func TestRedemption_RejectAndExpireRefund(t *testing.T) {
	svc := setupTestService(t)
	ctx := context.Background()
	openFunded(t, svc, "volunteer-a", 100)
	openFunded(t, svc, "company-b", 0)

	first, err := svc.RequestRedemption(ctx, "volunteer-a", "company-b", "deal-1", models.NewVoltz(40))
	require.NoError(t, err)
	second, err := svc.RequestRedemption(ctx, "volunteer-a", "company-b", "deal-2", models.NewVoltz(50))
	require.NoError(t, err)
	assert.Equal(t, models.NewVoltz(10), balanceOf(t, svc, "volunteer-a"))

	rejected, err := svc.RejectRedemption(ctx, first.RequestId)
	require.NoError(t, err)
	assert.Equal(t, models.RedemptionStatusRejected, rejected.Status)
	assert.Equal(t, models.NewVoltz(50), rejected.VolunteerBalance)

	expired, err := svc.ExpireRedemption(ctx, second.RequestId)
	require.NoError(t, err)
	assert.Equal(t, models.RedemptionStatusExpired, expired.Status)
	assert.Equal(t, models.NewVoltz(100), expired.VolunteerBalance)
	assert.Equal(t, models.Voltz(0), expired.CompanyBalance)

	_, err = svc.AcceptRedemption(ctx, "missing")
	assert.ErrorIs(t, err, store.ErrRedemptionNotFound)
}

func TestRedemption_InsufficientFundsCreatesNothing(t *testing.T) {
	svc := setupTestService(t)
	ctx := context.Background()
	openFunded(t, svc, "volunteer-a", 10)
	openFunded(t, svc, "company-b", 0)

	_, err := svc.RequestRedemption(ctx, "volunteer-a", "company-b", "deal-1", models.NewVoltz(11))
	assert.ErrorIs(t, err, store.ErrInsufficientFunds)

	pending, err := svc.PendingRedemptionsBefore(ctx, time.Now().UTC().Add(time.Hour), 10)
	require.NoError(t, err)
	assert.Empty(t, pending)
	assert.Equal(t, models.NewVoltz(10), balanceOf(t, svc, "volunteer-a"))
}

func TestPendingRedemptionsBefore(t *testing.T) {
	svc := setupTestService(t)
	ctx := context.Background()
	openFunded(t, svc, "volunteer-a", 10)
	openFunded(t, svc, "company-b", 0)

	req, err := svc.RequestRedemption(ctx, "volunteer-a", "company-b", "deal-1", models.NewVoltz(1))
	require.NoError(t, err)

	pending, err := svc.PendingRedemptionsBefore(ctx, time.Now().UTC().Add(time.Minute), 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, req.RequestId, pending[0].Id)

	none, err := svc.PendingRedemptionsBefore(ctx, time.Now().UTC().Add(-time.Minute), 10)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestRedemption_ConcurrentRequestsNeverOverdraw(t *testing.T) {
	svc := setupPooledTestService(t)
	ctx := context.Background()
	openFunded(t, svc, "volunteer-a", 100)
	openFunded(t, svc, "company-b", 0)

	const workers = 20
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		accepted int
		rejected int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.RequestRedemption(ctx, "volunteer-a", "company-b", "deal-1", models.NewVoltz(30))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				accepted++
			case errors.Is(err, store.ErrInsufficientFunds):
				rejected++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 3, accepted)
	assert.Equal(t, workers-3, rejected)
	assert.Equal(t, models.NewVoltz(10), balanceOf(t, svc, "volunteer-a"))

	pending, err := svc.PendingRedemptionsBefore(ctx, time.Now().UTC().Add(time.Hour), 100)
	require.NoError(t, err)
	assert.Len(t, pending, 3)
}

func TestRedemption_ConcurrentAcceptAndReject(t *testing.T) {
	svc := setupPooledTestService(t)
	ctx := context.Background()
	openFunded(t, svc, "volunteer-a", 100)
	openFunded(t, svc, "company-b", 0)

	for round := 0; round < 5; round++ {
		req, err := svc.RequestRedemption(ctx, "volunteer-a", "company-b", "deal-race", models.NewVoltz(10))
		require.NoError(t, err)

		var (
			wg                   sync.WaitGroup
			acceptErr, rejectErr error
		)
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, acceptErr = svc.AcceptRedemption(ctx, req.RequestId)
		}()
		go func() {
			defer wg.Done()
			_, rejectErr = svc.RejectRedemption(ctx, req.RequestId)
		}()
		wg.Wait()

		// Exactly one settlement wins
		if acceptErr == nil {
			require.ErrorIs(t, rejectErr, store.ErrRedemptionNotPending)
		} else {
			require.ErrorIs(t, acceptErr, store.ErrRedemptionNotPending)
			require.NoError(t, rejectErr)
		}
	}

	volunteer := balanceOf(t, svc, "volunteer-a")
	company := balanceOf(t, svc, "company-b")
	assert.Equal(t, models.NewVoltz(100), volunteer+company)
	assert.Equal(t, models.Voltz(0), company%models.NewVoltz(10))
}
