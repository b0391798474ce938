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

type EntryType string

const (
	EntryTypePurchase EntryType = "PURCHASE"
	EntryTypeTransfer EntryType = "TRANSFER"
	EntryTypeDonate   EntryType = "DONATE"
)

type EntryStatus string

const (
	EntryStatusHold      EntryStatus = "HOLD"
	EntryStatusReleased  EntryStatus = "RELEASED"
	EntryStatusCancelled EntryStatus = "CANCELLED"
)

// IsTerminal reports whether no further transition is allowed from s.
func (s EntryStatus) IsTerminal() bool {
	return s == EntryStatusReleased || s == EntryStatusCancelled
}

type VoltzType string

const (
	VoltzTypeOrdinary     VoltzType = "ORDINARY"
	VoltzTypeFoundational VoltzType = "FOUNDATIONAL"
)

// Wallet represents a user's Voltz balance holder (hot data)
type Wallet struct {
	Id                string    `db:"id"`
	OwnerId           string    `db:"owner_id"`
	Balance           Voltz     `db:"balance"`
	FoundationalVoltz Voltz     `db:"foundational_voltz"`
	Version           int64     `db:"version"`
	CreatedAt         time.Time `db:"created_at"`
	UpdatedAt         time.Time `db:"updated_at"`
}

// EntryContext holds the provenance tags of a ledger entry. The ledger never
// interprets them.
type EntryContext struct {
	DealId            string `db:"deal_id"`
	EventId           string `db:"event_id"`
	CampaignManagerId string `db:"campaign_manager_id"`
}

// LedgerEntry is one recorded movement of Voltz. SourceWalletId is empty for
// credits entering the system from outside.
type LedgerEntry struct {
	Id             string      `db:"id"`
	SourceWalletId string      `db:"source_wallet_id"`
	TargetWalletId string      `db:"target_wallet_id"`
	Amount         Voltz       `db:"amount"`
	Type           EntryType   `db:"type"`
	Status         EntryStatus `db:"status"`
	VoltzType      VoltzType   `db:"voltz_type"`
	Escrow         bool        `db:"escrow"`
	Context        EntryContext
	ExternalRef    string     `db:"external_ref"`
	Description    string     `db:"description"`
	CreatedAt      time.Time  `db:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at"`
	SettledAt      *time.Time `db:"settled_at"`
}

type RedemptionStatus string

const (
	RedemptionStatusPending  RedemptionStatus = "PENDING"
	RedemptionStatusAccepted RedemptionStatus = "ACCEPTED"
	RedemptionStatusRejected RedemptionStatus = "REJECTED"
	RedemptionStatusExpired  RedemptionStatus = "EXPIRED"
)

// RedemptionRequest tracks a volunteer's pending deal redemption and the HOLD
// entry backing it.
type RedemptionRequest struct {
	Id               string           `db:"id"`
	DealId           string           `db:"deal_id"`
	VolunteerOwnerId string           `db:"volunteer_owner_id"`
	CompanyOwnerId   string           `db:"company_owner_id"`
	HoldEntryId      string           `db:"hold_entry_id"`
	Amount           Voltz            `db:"amount"`
	Status           RedemptionStatus `db:"status"`
	CreatedAt        time.Time        `db:"created_at"`
	UpdatedAt        time.Time        `db:"updated_at"`
}

// WalletTotals is the wallet state recomputed from the entry log
type WalletTotals struct {
	WalletId          string
	Balance           Voltz
	FoundationalVoltz Voltz
}
