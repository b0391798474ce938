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
	"voltz-ledger-go/internal/models"

	"go.uber.org/zap"
)

func main() {
	ctx := context.Background()

	_, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	ownerFlag := flag.String("owner", "", "Owner id of the wallet to credit (required)")
	amountFlag := flag.String("amount", "", "Amount of Voltz, e.g. 12.5 (required)")
	foundationalFlag := flag.Bool("foundational", false, "Grant foundational Voltz instead of a spendable credit")
	refFlag := flag.String("ref", "", "External payment reference; makes the credit idempotent")
	descFlag := flag.String("description", "Administrative grant", "Entry description")
	openFlag := flag.Bool("open", false, "Open the wallet first if it does not exist")
	flag.Parse()

	if *ownerFlag == "" || *amountFlag == "" {
		flag.Usage()
		zap.L().Fatal("Both -owner and -amount are required")
	}
	if *foundationalFlag && *refFlag != "" {
		zap.L().Fatal("-ref cannot be combined with -foundational")
	}

	amount, err := models.ParseVoltz(*amountFlag)
	if err != nil {
		zap.L().Fatal("Invalid amount", zap.Error(err))
	}

	cfg, err := config.Load()
	if err != nil {
		zap.L().Fatal("Failed to load config", zap.Error(err))
	}

	services, err := common.InitializeServices(ctx, cfg)
	if err != nil {
		zap.L().Fatal("Failed to initialize services", zap.Error(err))
	}
	defer services.Close()

	if *openFlag {
		if _, err := services.Wallets.OpenWallet(ctx, *ownerFlag); err != nil {
			zap.L().Warn("Wallet not opened", zap.String("owner_id", *ownerFlag), zap.Error(err))
		}
	}

	var result *models.OperationResult
	if *refFlag != "" {
		result, err = services.Wallets.PurchaseVoltz(ctx, *ownerFlag, amount, *refFlag)
	} else {
		result, err = services.Wallets.GrantVoltz(ctx, *ownerFlag, amount, *foundationalFlag, *descFlag)
	}
	if err != nil {
		zap.L().Fatal("Grant failed",
			zap.String("owner_id", *ownerFlag),
			zap.String("amount", amount.String()),
			zap.Error(err))
	}

	summary, err := services.Wallets.GetWalletSummary(ctx, *ownerFlag)
	if err != nil {
		zap.L().Fatal("Failed to read wallet", zap.Error(err))
	}

	common.PrintHeader("VOLTZ GRANT")
	common.PrintStatusRow("Owner", summary.OwnerId, false)
	common.PrintStatusRow("Entry", common.ShortId(result.EntryId), false)
	common.PrintWalletRow("Amount", result.Amount, false)
	common.PrintWalletRow("Balance", summary.Balance, false)
	common.PrintWalletRow("Foundational", summary.FoundationalVoltz, true)
	common.PrintFooter("Grant committed")
}
