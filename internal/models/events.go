package models

import "time"

// LedgerAction names what a committed ledger operation did
type LedgerAction string

const (
	LedgerActionCredit   LedgerAction = "CREDIT"
	LedgerActionGrant    LedgerAction = "GRANT"
	LedgerActionTransfer LedgerAction = "TRANSFER"
	LedgerActionHold     LedgerAction = "HOLD"
	LedgerActionRelease  LedgerAction = "RELEASE"
	LedgerActionCancel   LedgerAction = "CANCEL"
)

// LedgerEvent is delivered to observers after the unit of work that produced
// it has committed.
type LedgerEvent struct {
	Action     LedgerAction
	Entry      LedgerEntry
	OccurredAt time.Time
}
