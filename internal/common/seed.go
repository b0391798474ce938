package common

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"voltz-ledger-go/internal/models"
	"voltz-ledger-go/internal/store"

	"go.uber.org/zap"
	"gopkg.in/yaml.v2"
)

// WalletSeed is one wallet to open during setup, with optional opening funds
type WalletSeed struct {
	OwnerId       string `yaml:"owner_id"`
	OpeningCredit string `yaml:"opening_credit"`
	Foundational  string `yaml:"foundational"`
}

type WalletSeedsConfig struct {
	Wallets []WalletSeed `yaml:"wallets"`
}

// WalletOpener is the orchestrator surface used for seeding
type WalletOpener interface {
	OpenWallet(ctx context.Context, ownerId string) (*models.WalletSummary, error)
	PurchaseVoltz(ctx context.Context, ownerId string, amount models.Voltz, paymentRef string) (*models.OperationResult, error)
	GrantVoltz(ctx context.Context, ownerId string, amount models.Voltz, foundational bool, description string) (*models.OperationResult, error)
}

func LoadWalletSeeds(seedFile string) ([]WalletSeed, error) {
	var seedPath string
	if filepath.IsAbs(seedFile) {
		seedPath = seedFile
	} else {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		seedPath = filepath.Join(wd, seedFile)
	}

	data, err := os.ReadFile(seedPath)
	if err != nil {
		return nil, fmt.Errorf("unable to read %s: %w", seedFile, err)
	}

	var config WalletSeedsConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("unable to parse %s: %w", seedFile, err)
	}

	seen := make(map[string]bool, len(config.Wallets))
	for i, seed := range config.Wallets {
		if seed.OwnerId == "" {
			return nil, fmt.Errorf("wallet at index %d missing owner_id", i)
		}
		if seen[seed.OwnerId] {
			return nil, fmt.Errorf("wallet at index %d duplicates owner_id %s", i, seed.OwnerId)
		}
		seen[seed.OwnerId] = true
		if _, err := seed.amounts(); err != nil {
			return nil, fmt.Errorf("wallet at index %d: %w", i, err)
		}
	}

	return config.Wallets, nil
}

type seedAmounts struct {
	credit       models.Voltz
	foundational models.Voltz
}

func (w WalletSeed) amounts() (seedAmounts, error) {
	var out seedAmounts
	var err error
	if w.OpeningCredit != "" {
		if out.credit, err = models.ParseVoltz(w.OpeningCredit); err != nil {
			return out, err
		}
	}
	if w.Foundational != "" {
		if out.foundational, err = models.ParseVoltz(w.Foundational); err != nil {
			return out, err
		}
	}
	if out.credit < 0 || out.foundational < 0 {
		return out, fmt.Errorf("seed amounts must not be negative")
	}
	return out, nil
}

// SeedWallets opens every seeded wallet. Opening credits use a fixed payment
// reference so rerunning setup never credits twice; foundational grants are
// only applied to wallets opened by this run.
func SeedWallets(ctx context.Context, wallets WalletOpener, seeds []WalletSeed) (int, error) {
	opened := 0
	for _, seed := range seeds {
		amounts, err := seed.amounts()
		if err != nil {
			return opened, err
		}

		created := true
		if _, err := wallets.OpenWallet(ctx, seed.OwnerId); err != nil {
			if !errors.Is(err, store.ErrDuplicateTransaction) {
				return opened, fmt.Errorf("failed to open wallet for %s: %w", seed.OwnerId, err)
			}
			created = false
			zap.L().Info("Wallet already exists", zap.String("owner_id", seed.OwnerId))
		}
		if created {
			opened++
		}

		if amounts.credit.IsPositive() {
			_, err := wallets.PurchaseVoltz(ctx, seed.OwnerId, amounts.credit, "seed:"+seed.OwnerId)
			if err != nil && !errors.Is(err, store.ErrDuplicateTransaction) {
				return opened, fmt.Errorf("failed to credit %s: %w", seed.OwnerId, err)
			}
		}
		if created && amounts.foundational.IsPositive() {
			if _, err := wallets.GrantVoltz(ctx, seed.OwnerId, amounts.foundational, true, "Seed foundational grant"); err != nil {
				return opened, fmt.Errorf("failed to grant foundational Voltz to %s: %w", seed.OwnerId, err)
			}
		}
	}
	return opened, nil
}
