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


package main

import (
	"context"
	"flag"

	"voltz-ledger-go/internal/common"
	"voltz-ledger-go/internal/config"

	"go.uber.org/zap"
)

func seedWallets(ctx context.Context, services *common.Services, seedFile string) {
	zap.L().Info("Loading wallet seeds", zap.String("file", seedFile))
	seeds, err := common.LoadWalletSeeds(seedFile)
	if err != nil {
		zap.L().Fatal("Failed to load wallet seeds", zap.Error(err))
	}
	zap.L().Info("Wallet seeds loaded", zap.Int("count", len(seeds)))

	opened, err := common.SeedWallets(ctx, services.Wallets, seeds)
	if err != nil {
		zap.L().Fatal("Wallet seeding failed",
			zap.Int("wallets_opened", opened),
			zap.Error(err))
	}

	zap.L().Info("Wallet seeding completed successfully",
		zap.Int("wallets_opened", opened),
		zap.Int("wallets_existing", len(seeds)-opened))
}

func main() {
	ctx := context.Background()

	_, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	initFlag := flag.Bool("init", false, "Only initialize the database schema")
	seedFlag := flag.String("seed", "", "Path to wallets.yaml (default: WALLETS_FILE)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		zap.L().Fatal("Failed to load config", zap.Error(err))
	}

	// Schema is created when the database service starts
	services, err := common.InitializeServices(ctx, cfg)
	if err != nil {
		zap.L().Fatal("Failed to initialize services", zap.Error(err))
	}
	defer services.Close()

	if *initFlag {
		zap.L().Info("Database initialized",
			zap.String("driver", cfg.Database.Driver),
			zap.String("path", cfg.Database.Path))
		return
	}

	seedFile := cfg.Database.SeedFile
	if *seedFlag != "" {
		seedFile = *seedFlag
	}
	seedWallets(ctx, services, seedFile)
}
