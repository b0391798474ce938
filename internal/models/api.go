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

package models

import "time"

// WalletSummary represents a wallet's balances as seen by an orchestrator
type WalletSummary struct {
	WalletId          string `json:"wallet_id"`
	OwnerId           string `json:"owner_id"`
	Balance           Voltz  `json:"balance"`
	FoundationalVoltz Voltz  `json:"foundational_voltz"`
}

// EntryRecord represents a ledger entry in the owner's history
type EntryRecord struct {
	Id        string      `json:"id"`
	Type      EntryType   `json:"type"`
	Status    EntryStatus `json:"status"`
	Direction string      `json:"direction"` // "in", "out"
	Amount    Voltz       `json:"amount"`
	VoltzType VoltzType   `json:"voltz_type"`
	DealId    string      `json:"deal_id,omitempty"`
	EventId   string      `json:"event_id,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
}

// OperationResult represents the result of a committed wallet operation
type OperationResult struct {
	EntryId    string      `json:"entry_id"`
	OwnerId    string      `json:"owner_id"`
	Amount     Voltz       `json:"amount"`
	Status     EntryStatus `json:"status"`
	NewBalance Voltz       `json:"new_balance"`
}

// RedemptionResult represents the state of a deal redemption after an orchestrator call
type RedemptionResult struct {
	RequestId        string           `json:"request_id"`
	HoldEntryId      string           `json:"hold_entry_id"`
	Status           RedemptionStatus `json:"status"`
	Amount           Voltz            `json:"amount"`
	VolunteerBalance Voltz            `json:"volunteer_balance"`
	CompanyBalance   Voltz            `json:"company_balance"`
}
