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

package listener

import (
	"context"
	"errors"
	"fmt"
	"time"

	"voltz-ledger-go/internal/store"

	"go.uber.org/zap"
)

// Start begins the expiry polling process
func (d *RedemptionExpiryListener) Start(ctx context.Context) error {
	if d.pollingInterval <= 0 || d.cleanupInterval <= 0 {
		return fmt.Errorf("polling and cleanup intervals must be positive")
	}
	zap.L().Info("Starting redemption expiry listener")

	go d.pollLoop(ctx)
	go d.cleanupLoop(ctx)

	zap.L().Info("Redemption expiry listener started successfully",
		zap.Duration("polling_interval", d.pollingInterval),
		zap.Duration("hold_ttl", d.holdTTL))

	return nil
}

// Stop gracefully stops the listener
func (d *RedemptionExpiryListener) Stop() {
	zap.L().Info("Stopping redemption expiry listener")
	close(d.stopChan)
	<-d.doneChan
	zap.L().Info("Redemption expiry listener stopped")
}

// pollLoop runs the main polling loop
func (d *RedemptionExpiryListener) pollLoop(ctx context.Context) {
	defer close(d.doneChan)

	ticker := time.NewTicker(d.pollingInterval)
	defer ticker.Stop()

	d.expireStale(ctx)

	for {
		select {
		case <-ticker.C:
			d.expireStale(ctx)
		case <-d.stopChan:
			return
		case <-ctx.Done():
			return
		}
	}
}

// ANSI color helpers for console output.
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
)

// expireStale expires every PENDING request older than the hold TTL and
// returns how many were expired.
func (d *RedemptionExpiryListener) expireStale(ctx context.Context) int {
	cutoff := time.Now().UTC().Add(-d.holdTTL)

	pending, err := d.redemptions.PendingRedemptionsBefore(ctx, cutoff, d.batchSize)
	if err != nil {
		zap.L().Error("Failed to list pending redemptions", zap.Error(err))
		return 0
	}
	if len(pending) == 0 {
		return 0
	}

	fmt.Printf("\n%s[%s] Expiring %d redemption requests (ttl: %s)%s\n",
		colorCyan, time.Now().Format("15:04:05"), len(pending), d.holdTTL, colorReset)

	expired := 0
	for _, req := range pending {
		if d.isProcessed(req.Id) {
			continue
		}

		result, err := d.redemptions.ExpireRedemption(ctx, req.Id)
		switch {
		case err == nil:
			expired++
			d.markProcessed(req.Id)
			fmt.Printf("  %s✓ %s deal %s refunded %s%s\n",
				colorGreen, req.Id, req.DealId, req.Amount, colorReset)
			zap.L().Info("Redemption request expired",
				zap.String("request_id", req.Id),
				zap.String("deal_id", req.DealId),
				zap.String("owner_id", req.VolunteerOwnerId),
				zap.String("amount", req.Amount.String()),
				zap.String("balance", result.VolunteerBalance.String()))
		case errors.Is(err, store.ErrRedemptionNotPending), errors.Is(err, store.ErrEntryAlreadySettled):
			// Settled by the company between listing and expiring
			d.markProcessed(req.Id)
			fmt.Printf("  %s~ %s already settled%s\n", colorYellow, req.Id, colorReset)
		default:
			fmt.Printf("  %s✗ %s: %s%s\n", colorRed, req.Id, err, colorReset)
			zap.L().Error("Failed to expire redemption request",
				zap.String("request_id", req.Id),
				zap.Error(err))
		}
	}

	return expired
}
