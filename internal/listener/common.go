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
	"sync"
	"time"

	"voltz-ledger-go/internal/models"

	"go.uber.org/zap"
)

// RedemptionExpirer is the orchestrator surface the listener drives
type RedemptionExpirer interface {
	PendingRedemptionsBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.RedemptionRequest, error)
	ExpireRedemption(ctx context.Context, requestId string) (*models.RedemptionResult, error)
}

// RedemptionExpiryListenerConfig contains configuration for RedemptionExpiryListener
type RedemptionExpiryListenerConfig struct {
	Redemptions     RedemptionExpirer
	HoldTTL         time.Duration
	PollingInterval time.Duration
	CleanupInterval time.Duration
	BatchSize       int
}

// RedemptionExpiryListener refunds volunteers whose redemption requests were
// not answered within the hold TTL.
type RedemptionExpiryListener struct {
	redemptions RedemptionExpirer

	// Requests already expired or found settled by this process
	processedIds    map[string]time.Time
	mutex           sync.RWMutex
	holdTTL         time.Duration
	pollingInterval time.Duration
	cleanupInterval time.Duration
	batchSize       int

	// Control channels
	stopChan chan struct{}
	doneChan chan struct{}
}

// NewRedemptionExpiryListener creates a new expiry listener
func NewRedemptionExpiryListener(cfg RedemptionExpiryListenerConfig) *RedemptionExpiryListener {
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = 100
	}
	return &RedemptionExpiryListener{
		redemptions:     cfg.Redemptions,
		processedIds:    make(map[string]time.Time),
		holdTTL:         cfg.HoldTTL,
		pollingInterval: cfg.PollingInterval,
		cleanupInterval: cfg.CleanupInterval,
		batchSize:       batchSize,
		stopChan:        make(chan struct{}),
		doneChan:        make(chan struct{}),
	}
}

// isProcessed checks if we've already handled this request
func (d *RedemptionExpiryListener) isProcessed(requestId string) bool {
	d.mutex.RLock()
	defer d.mutex.RUnlock()

	_, exists := d.processedIds[requestId]
	return exists
}

// markProcessed marks a request as handled
func (d *RedemptionExpiryListener) markProcessed(requestId string) {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	d.processedIds[requestId] = time.Now()
}

// cleanupLoop periodically cleans old processed request IDs
func (d *RedemptionExpiryListener) cleanupLoop(ctx context.Context) {
	ticker := time.NewTicker(d.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			d.cleanupProcessed()
		case <-d.stopChan:
			return
		case <-ctx.Done():
			return
		}
	}
}

// cleanupProcessed removes entries older than one cleanup interval
func (d *RedemptionExpiryListener) cleanupProcessed() {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	cutoff := time.Now().Add(-d.cleanupInterval)
	cleaned := 0

	for requestId, processedTime := range d.processedIds {
		if processedTime.Before(cutoff) {
			delete(d.processedIds, requestId)
			cleaned++
		}
	}

	if cleaned > 0 {
		zap.L().Debug("Cleaned up processed redemption requests",
			zap.Int("cleaned", cleaned),
			zap.Int("remaining", len(d.processedIds)))
	}
}
