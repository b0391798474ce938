package formance

import (
	"context"
	"fmt"
	"math/big"

	"voltz-ledger-go/internal/models"

	v3 "github.com/formancehq/formance-sdk-go/v3"
	"github.com/formancehq/formance-sdk-go/v3/pkg/models/operations"
	"github.com/formancehq/formance-sdk-go/v3/pkg/models/shared"
	"go.uber.org/zap"
)

// WalletBalances returns the mirrored spendable and foundational balances of
// a wallet, for cross-checking against the local database.
func (s *Service) WalletBalances(ctx context.Context, walletId string) (*models.WalletTotals, error) {
	zap.L().Debug("Getting wallet balances from Formance", zap.String("wallet_id", walletId))

	balance, err := s.accountBalance(ctx, walletAddress(walletId))
	if err != nil {
		return nil, err
	}
	foundational, err := s.accountBalance(ctx, walletAddress(walletId)+":foundational")
	if err != nil {
		return nil, err
	}

	return &models.WalletTotals{
		WalletId:          walletId,
		Balance:           balance,
		FoundationalVoltz: foundational,
	}, nil
}

// accountBalance reads the VLTZ balance of one account; unknown accounts are empty
func (s *Service) accountBalance(ctx context.Context, address string) (models.Voltz, error) {
	resp, err := s.client.Ledger.V2.GetAccount(ctx, operations.V2GetAccountRequest{
		Ledger:  s.ledger,
		Address: address,
		Expand:  v3.Pointer("volumes"),
	})
	if err != nil {
		if isNotFoundError(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to get account %s: %w", address, err)
	}

	bal := volumeBalance(resp.V2AccountResponse.Data.Volumes, voltzAsset)
	if bal == nil {
		return 0, nil
	}
	return voltzFromBigInt(bal)
}

func walletAddress(walletId string) string {
	return "wallets:" + walletId
}

// volumeBalance extracts the balance for a specific asset from volumes.
func volumeBalance(vols map[string]shared.V2Volume, fAsset string) *big.Int {
	vol, ok := vols[fAsset]
	if !ok {
		return nil
	}
	if vol.Balance != nil {
		return vol.Balance
	}
	if vol.Input == nil {
		return nil
	}
	result := new(big.Int).Set(vol.Input)
	if vol.Output != nil {
		result.Sub(result, vol.Output)
	}
	return result
}

// voltzFromBigInt converts a milli-Voltz amount from the ledger
func voltzFromBigInt(raw *big.Int) (models.Voltz, error) {
	if !raw.IsInt64() {
		return 0, fmt.Errorf("balance %s is out of range", raw.String())
	}
	return models.Voltz(raw.Int64()), nil
}
