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
	"os"
	"os/signal"
	"syscall"
	"time"

	"voltz-ledger-go/internal/common"
	"voltz-ledger-go/internal/config"
	"voltz-ledger-go/internal/jobs"
	"voltz-ledger-go/internal/listener"

	"go.uber.org/zap"
)

func main() {
	_, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	cfg, err := config.Load()
	if err != nil {
		zap.L().Fatal("Failed to load configuration", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	zap.L().Info("Starting Voltz ledger worker")

	services, err := common.InitializeServices(ctx, cfg)
	if err != nil {
		zap.L().Fatal("Failed to initialize services", zap.Error(err))
	}
	defer services.Close()

	expiry := listener.NewRedemptionExpiryListener(listener.RedemptionExpiryListenerConfig{
		Redemptions:     services.Wallets,
		HoldTTL:         cfg.Redemption.HoldTTL,
		PollingInterval: cfg.Redemption.PollingInterval,
		CleanupInterval: cfg.Redemption.CleanupInterval,
		BatchSize:       cfg.Redemption.BatchSize,
	})
	if err := expiry.Start(ctx); err != nil {
		zap.L().Fatal("Failed to start redemption expiry listener", zap.Error(err))
	}

	scheduler, err := jobs.NewScheduler(services.JobRunner, cfg.Jobs)
	if err != nil {
		zap.L().Fatal("Failed to create scheduler", zap.Error(err))
	}
	scheduler.Start()

	zap.L().Info("Worker running",
		zap.Duration("hold_ttl", cfg.Redemption.HoldTTL),
		zap.String("reconcile_schedule", cfg.Jobs.ReconcileWallets))
	zap.L().Info("Press Ctrl+C to stop")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	zap.L().Info("Shutdown signal received, stopping worker...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	done := make(chan struct{})
	go func() {
		expiry.Stop()
		scheduler.Stop()
		close(done)
	}()

	select {
	case <-done:
		zap.L().Info("Worker stopped gracefully")
	case <-shutdownCtx.Done():
		zap.L().Warn("Forced shutdown after timeout")
	}
}
