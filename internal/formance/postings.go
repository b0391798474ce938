package formance

import (
	"fmt"
	"strconv"

	"voltz-ledger-go/internal/models"

	"github.com/formancehq/formance-sdk-go/v3/pkg/models/shared"
)

// ---------------------------------------------------------------------------
// Numscript templates. Wallet balances live in @wallets:<id>, foundational
// grants in @wallets:<id>:foundational and open holds in @escrow:holds:<entry>.
// All metadata is set inside the script via set_tx_meta() so the Formance
// transaction is fully self-describing.
// ---------------------------------------------------------------------------

const entryMetaVars = `
  string $entry_id
  string $entry_type
  string $voltz_type
  string $amount_human
  string $deal_id
  string $event_id
  string $campaign_manager_id
  string $external_ref
}
`

const entryMeta = `
set_tx_meta("entry_id", $entry_id)
set_tx_meta("entry_type", $entry_type)
set_tx_meta("voltz_type", $voltz_type)
set_tx_meta("amount_human", $amount_human)
set_tx_meta("deal_id", $deal_id)
set_tx_meta("event_id", $event_id)
set_tx_meta("campaign_manager_id", $campaign_manager_id)
set_tx_meta("external_ref", $external_ref)
`

const numscriptCredit = `vars {
  asset $asset
  number $amount
  account $target_wallet_id` + entryMetaVars + `
send [$asset $amount] (
  source = @world
  destination = @wallets:$target_wallet_id
)

set_tx_meta("event_type", "voltz_credit")` + entryMeta

const numscriptGrant = `vars {
  asset $asset
  number $amount
  account $target_wallet_id` + entryMetaVars + `
send [$asset $amount] (
  source = @world
  destination = @wallets:$target_wallet_id:foundational
)

set_tx_meta("event_type", "voltz_foundational_grant")` + entryMeta

const numscriptTransfer = `vars {
  asset $asset
  number $amount
  account $source_wallet_id
  account $target_wallet_id` + entryMetaVars + `
send [$asset $amount] (
  source = @wallets:$source_wallet_id
  destination = @wallets:$target_wallet_id
)

set_tx_meta("event_type", "voltz_transfer")` + entryMeta

const numscriptHold = `vars {
  asset $asset
  number $amount
  account $source_wallet_id
  account $hold_id` + entryMetaVars + `
send [$asset $amount] (
  source = @wallets:$source_wallet_id
  destination = @escrow:holds:$hold_id
)

set_tx_meta("event_type", "voltz_hold")` + entryMeta

const numscriptRelease = `vars {
  asset $asset
  number $amount
  account $target_wallet_id
  account $hold_id` + entryMetaVars + `
send [$asset $amount] (
  source = @escrow:holds:$hold_id
  destination = @wallets:$target_wallet_id
)

set_tx_meta("event_type", "voltz_hold_released")` + entryMeta

const numscriptCancel = `vars {
  asset $asset
  number $amount
  account $source_wallet_id
  account $hold_id` + entryMetaVars + `
send [$asset $amount] (
  source = @escrow:holds:$hold_id
  destination = @wallets:$source_wallet_id
)

set_tx_meta("event_type", "voltz_hold_cancelled")` + entryMeta

// buildPosting maps a ledger event to its Formance transaction. The
// reference is derived from the entry id so replays conflict instead of
// double posting.
func buildPosting(event models.LedgerEvent) (shared.V2PostTransaction, error) {
	entry := event.Entry
	if !entry.Amount.IsPositive() {
		return shared.V2PostTransaction{}, fmt.Errorf("entry %s has non-positive amount %s", entry.Id, entry.Amount)
	}

	vars := map[string]string{
		"asset":               voltzAsset,
		"amount":              strconv.FormatInt(int64(entry.Amount), 10),
		"entry_id":            entry.Id,
		"entry_type":          string(entry.Type),
		"voltz_type":          string(entry.VoltzType),
		"amount_human":        entry.Amount.String(),
		"deal_id":             entry.Context.DealId,
		"event_id":            entry.Context.EventId,
		"campaign_manager_id": entry.Context.CampaignManagerId,
		"external_ref":        entry.ExternalRef,
	}

	var script, reference string
	switch event.Action {
	case models.LedgerActionCredit:
		script, reference = numscriptCredit, entry.Id
		vars["target_wallet_id"] = entry.TargetWalletId
	case models.LedgerActionGrant:
		script, reference = numscriptGrant, entry.Id
		vars["target_wallet_id"] = entry.TargetWalletId
	case models.LedgerActionTransfer:
		script, reference = numscriptTransfer, entry.Id
		vars["source_wallet_id"] = entry.SourceWalletId
		vars["target_wallet_id"] = entry.TargetWalletId
	case models.LedgerActionHold:
		script, reference = numscriptHold, entry.Id
		vars["source_wallet_id"] = entry.SourceWalletId
		vars["hold_id"] = entry.Id
	case models.LedgerActionRelease:
		script, reference = numscriptRelease, entry.Id+"-release"
		vars["target_wallet_id"] = entry.TargetWalletId
		vars["hold_id"] = entry.Id
	case models.LedgerActionCancel:
		script, reference = numscriptCancel, entry.Id+"-cancel"
		vars["source_wallet_id"] = entry.SourceWalletId
		vars["hold_id"] = entry.Id
	default:
		return shared.V2PostTransaction{}, fmt.Errorf("unsupported ledger action %q", event.Action)
	}

	posting := shared.V2PostTransaction{
		Reference: strPtr(reference),
		Script: &shared.V2PostTransactionScript{
			Plain: script,
			Vars:  vars,
		},
	}
	if !event.OccurredAt.IsZero() {
		ts := event.OccurredAt
		posting.Timestamp = &ts
	}
	return posting, nil
}
