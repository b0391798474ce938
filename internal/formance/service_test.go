package formance

import (
	"math/big"
	"strings"
	"testing"
	"time"

	"voltz-ledger-go/internal/models"

	"github.com/formancehq/formance-sdk-go/v3/pkg/models/shared"
)

// ---------- Unit tests for pure helpers (no Formance stack needed) ----------

func testEntry() models.LedgerEntry {
	return models.LedgerEntry{
		Id:             "entry-1",
		SourceWalletId: "wallet-a",
		TargetWalletId: "wallet-b",
		Amount:         12500,
		Type:           models.EntryTypeTransfer,
		Status:         models.EntryStatusHold,
		VoltzType:      models.VoltzTypeOrdinary,
		Escrow:         true,
		Context:        models.EntryContext{DealId: "deal-9"},
	}
}

func TestBuildPosting_Actions(t *testing.T) {
	tests := []struct {
		action     models.LedgerAction
		reference  string
		source     string
		target     string
		scriptPart string
	}{
		{models.LedgerActionCredit, "entry-1", "", "wallet-b", "source = @world"},
		{models.LedgerActionGrant, "entry-1", "", "wallet-b", "@wallets:$target_wallet_id:foundational"},
		{models.LedgerActionTransfer, "entry-1", "wallet-a", "wallet-b", "destination = @wallets:$target_wallet_id"},
		{models.LedgerActionHold, "entry-1", "wallet-a", "", "destination = @escrow:holds:$hold_id"},
		{models.LedgerActionRelease, "entry-1-release", "", "wallet-b", "source = @escrow:holds:$hold_id"},
		{models.LedgerActionCancel, "entry-1-cancel", "wallet-a", "", "destination = @wallets:$source_wallet_id"},
	}
	for _, tt := range tests {
		t.Run(string(tt.action), func(t *testing.T) {
			posting, err := buildPosting(models.LedgerEvent{Action: tt.action, Entry: testEntry()})
			if err != nil {
				t.Fatalf("buildPosting failed: %v", err)
			}
			if *posting.Reference != tt.reference {
				t.Errorf("reference = %q, want %q", *posting.Reference, tt.reference)
			}
			if !strings.Contains(posting.Script.Plain, tt.scriptPart) {
				t.Errorf("script does not contain %q:\n%s", tt.scriptPart, posting.Script.Plain)
			}
			vars := posting.Script.Vars
			if vars["asset"] != "VLTZ/3" || vars["amount"] != "12500" || vars["amount_human"] != "12.5" {
				t.Errorf("unexpected amount vars: %v", vars)
			}
			if vars["source_wallet_id"] != tt.source {
				t.Errorf("source_wallet_id = %q, want %q", vars["source_wallet_id"], tt.source)
			}
			if vars["target_wallet_id"] != tt.target {
				t.Errorf("target_wallet_id = %q, want %q", vars["target_wallet_id"], tt.target)
			}
			if vars["deal_id"] != "deal-9" {
				t.Errorf("deal_id = %q", vars["deal_id"])
			}
			if posting.Timestamp != nil {
				t.Errorf("expected no timestamp for zero OccurredAt")
			}
		})
	}
}

func TestBuildPosting_Timestamp(t *testing.T) {
	at := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	posting, err := buildPosting(models.LedgerEvent{Action: models.LedgerActionHold, Entry: testEntry(), OccurredAt: at})
	if err != nil {
		t.Fatalf("buildPosting failed: %v", err)
	}
	if posting.Timestamp == nil || !posting.Timestamp.Equal(at) {
		t.Errorf("expected timestamp %v, got %v", at, posting.Timestamp)
	}
}

func TestBuildPosting_Rejects(t *testing.T) {
	if _, err := buildPosting(models.LedgerEvent{Action: "BURN", Entry: testEntry()}); err == nil {
		t.Error("expected error for unknown action")
	}

	entry := testEntry()
	entry.Amount = 0
	if _, err := buildPosting(models.LedgerEvent{Action: models.LedgerActionCredit, Entry: entry}); err == nil {
		t.Error("expected error for zero amount")
	}
}

func TestNumscriptsDeclareEveryVar(t *testing.T) {
	for name, script := range map[string]string{
		"credit":   numscriptCredit,
		"grant":    numscriptGrant,
		"transfer": numscriptTransfer,
		"hold":     numscriptHold,
		"release":  numscriptRelease,
		"cancel":   numscriptCancel,
	} {
		if !strings.HasPrefix(script, "vars {") {
			t.Errorf("%s: script must start with a vars block", name)
		}
		if strings.Count(script, "{") != strings.Count(script, "}") {
			t.Errorf("%s: unbalanced braces", name)
		}
		if !strings.Contains(script, "string $external_ref") {
			t.Errorf("%s: missing metadata vars", name)
		}
	}
}

func TestVolumeBalance(t *testing.T) {
	vols := map[string]shared.V2Volume{
		"VLTZ/3": {Input: big.NewInt(5000), Output: big.NewInt(1500)},
		"USD/2":  {Input: big.NewInt(1), Output: big.NewInt(0), Balance: big.NewInt(1)},
	}
	if got := volumeBalance(vols, "VLTZ/3"); got == nil || got.Int64() != 3500 {
		t.Errorf("expected 3500, got %v", got)
	}
	if got := volumeBalance(vols, "USD/2"); got == nil || got.Int64() != 1 {
		t.Errorf("expected explicit balance 1, got %v", got)
	}
	if got := volumeBalance(vols, "EUR/2"); got != nil {
		t.Errorf("expected nil for unknown asset, got %v", got)
	}
}

func TestVoltzFromBigInt(t *testing.T) {
	v, err := voltzFromBigInt(big.NewInt(40000))
	if err != nil || v != models.NewVoltz(40) {
		t.Errorf("expected 40 Voltz, got %s (%v)", v, err)
	}

	huge := new(big.Int).Lsh(big.NewInt(1), 70)
	if _, err := voltzFromBigInt(huge); err == nil {
		t.Error("expected out of range error")
	}
}

func TestIsConflictError(t *testing.T) {
	// nil error should not be a conflict
	if isConflictError(nil) {
		t.Error("nil should not be a conflict error")
	}
	if isNotFoundError(nil) {
		t.Error("nil should not be a not-found error")
	}
}
