package common

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"voltz-ledger-go/internal/api"
	"voltz-ledger-go/internal/database"
	"voltz-ledger-go/internal/ledger"
	"voltz-ledger-go/internal/models"
	"voltz-ledger-go/internal/uow"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

func writeSeedFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "wallets.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write seed file: %v", err)
	}
	return path
}

func setupTestServices(t *testing.T) (*database.Service, *uow.Manager, *api.WalletService) {
	t.Helper()
	db, err := sql.Open(database.DriverSQLite, ":memory:")
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	db.SetMaxOpenConns(1)

	dbService, err := database.NewServiceWithDB(context.Background(), db, database.DriverSQLite)
	if err != nil {
		t.Fatalf("failed to create database service: %v", err)
	}
	t.Cleanup(dbService.Close)

	manager := uow.NewManager(db, uow.WithRetryBackoff(0))
	wallets := api.NewWalletService(manager, ledger.NewService(dbService), dbService, dbService)
	return dbService, manager, wallets
}

func TestLoadWalletSeeds(t *testing.T) {
	path := writeSeedFile(t, `
wallets:
  - owner_id: company-acme
    opening_credit: "500"
  - owner_id: ngo-green
    foundational: "25.5"
  - owner_id: volunteer-1
`)
	seeds, err := LoadWalletSeeds(path)
	if err != nil {
		t.Fatalf("LoadWalletSeeds failed: %v", err)
	}
	if len(seeds) != 3 {
		t.Fatalf("expected 3 seeds, got %d", len(seeds))
	}
	if seeds[1].Foundational != "25.5" {
		t.Errorf("unexpected foundational %q", seeds[1].Foundational)
	}
}

func TestLoadWalletSeeds_Invalid(t *testing.T) {
	tests := map[string]string{
		"missing owner":  "wallets:\n  - opening_credit: \"1\"\n",
		"duplicate":      "wallets:\n  - owner_id: a\n  - owner_id: a\n",
		"bad amount":     "wallets:\n  - owner_id: a\n    opening_credit: \"ten\"\n",
		"too precise":    "wallets:\n  - owner_id: a\n    opening_credit: \"0.0001\"\n",
		"negative grant": "wallets:\n  - owner_id: a\n    foundational: \"-1\"\n",
		"not yaml":       "wallets: [",
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := LoadWalletSeeds(writeSeedFile(t, content)); err == nil {
				t.Error("expected error")
			}
		})
	}

	if _, err := LoadWalletSeeds(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestSeedWallets_Rerunnable(t *testing.T) {
	dbService, manager, wallets := setupTestServices(t)
	ctx := context.Background()
	seeds := []WalletSeed{
		{OwnerId: "company-acme", OpeningCredit: "500"},
		{OwnerId: "ngo-green", Foundational: "25"},
	}

	opened, err := SeedWallets(ctx, wallets, seeds)
	if err != nil {
		t.Fatalf("SeedWallets failed: %v", err)
	}
	if opened != 2 {
		t.Errorf("expected 2 wallets opened, got %d", opened)
	}

	opened, err = SeedWallets(ctx, wallets, seeds)
	if err != nil {
		t.Fatalf("second SeedWallets failed: %v", err)
	}
	if opened != 0 {
		t.Errorf("expected no new wallets, got %d", opened)
	}

	acme, err := wallets.GetWalletSummary(ctx, "company-acme")
	if err != nil {
		t.Fatalf("GetWalletSummary failed: %v", err)
	}
	if acme.Balance != models.NewVoltz(500) {
		t.Errorf("expected 500 after rerun, got %s", acme.Balance)
	}
	ngo, err := wallets.GetWalletSummary(ctx, "ngo-green")
	if err != nil {
		t.Fatalf("GetWalletSummary failed: %v", err)
	}
	if ngo.FoundationalVoltz != models.NewVoltz(25) || ngo.Balance != 0 {
		t.Errorf("unexpected ngo wallet %+v", ngo)
	}

	all, err := InitializeWallets(ctx, manager, dbService, "", zap.NewNop())
	if err != nil {
		t.Fatalf("InitializeWallets failed: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("expected 2 wallets, got %d", len(all))
	}

	one, err := InitializeWallets(ctx, manager, dbService, "ngo-green", zap.NewNop())
	if err != nil {
		t.Fatalf("InitializeWallets failed: %v", err)
	}
	if len(one) != 1 || one[0].OwnerId != "ngo-green" {
		t.Errorf("unexpected filtered wallets %+v", one)
	}

	if _, err := InitializeWallets(ctx, manager, dbService, "ghost", zap.NewNop()); err == nil {
		t.Error("expected error for unknown owner")
	}
}

func TestFormatWalletRow(t *testing.T) {
	row := FormatWalletRow("Balance", models.NewVoltz(12).String(), false)
	if !strings.HasPrefix(row, "│   Balance") || !strings.HasSuffix(row, "12\n") {
		t.Errorf("unexpected row %q", row)
	}
	last := FormatWalletRow("Reconciliation", "OK", true)
	if !strings.HasPrefix(last, "└  ") {
		t.Errorf("last row should close the box: %q", last)
	}
}

func TestShortId(t *testing.T) {
	if got := ShortId("0123456789abcdef"); got != "01234567..." {
		t.Errorf("ShortId = %q", got)
	}
	if got := ShortId("w1"); got != "w1" {
		t.Errorf("ShortId = %q", got)
	}
}

func TestIsIgnorableSyncError(t *testing.T) {
	if !isIgnorableSyncError(errSync("sync /dev/stderr: inappropriate ioctl for device")) {
		t.Error("expected stderr sync error to be ignorable")
	}
	if isIgnorableSyncError(errSync("disk full")) {
		t.Error("expected other errors to be reported")
	}
}

type errSync string

func (e errSync) Error() string { return string(e) }

func TestInitializeLogger_ReplacesNopGlobal(t *testing.T) {
	previous := zap.L()
	t.Cleanup(func() { zap.ReplaceGlobals(previous) })

	zap.ReplaceGlobals(zap.NewNop())
	if zap.L().Core().Enabled(zap.ErrorLevel) {
		t.Fatal("nop logger should not be enabled")
	}

	logger, cleanup := InitializeLogger()
	defer cleanup()
	if zap.L() != logger {
		t.Error("expected global logger to be replaced")
	}
	if !zap.L().Core().Enabled(zap.InfoLevel) {
		t.Error("expected info level to be enabled after initialization")
	}
}
