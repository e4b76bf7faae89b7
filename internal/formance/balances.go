package formance

import (
	"context"
	"fmt"
	"math/big"

	v3 "github.com/formancehq/formance-sdk-go/v3"
	"github.com/formancehq/formance-sdk-go/v3/pkg/models/operations"
	"github.com/formancehq/formance-sdk-go/v3/pkg/models/shared"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// PaidOut returns the total journaled as paid out from an account. Operators
// compare it with the withdraws the store reports as settled.
func (s *Service) PaidOut(ctx context.Context, accountId string) (decimal.Decimal, error) {
	zap.L().Debug("Getting paid out total from Formance", zap.String("account_id", accountId))

	resp, err := s.client.Ledger.V2.GetAccount(ctx, operations.V2GetAccountRequest{
		Ledger:  s.ledger,
		Address: bankAccount(accountId),
		Expand:  v3.Pointer("volumes"),
	})
	if err != nil {
		if isNotFoundError(err) {
			return decimal.Zero, nil
		}
		return decimal.Zero, fmt.Errorf("failed to get account volumes: %w", err)
	}

	return outputVolume(resp.V2AccountResponse.Data.Volumes), nil
}

// outputVolume extracts the BRL output of an account's volumes.
func outputVolume(vols map[string]shared.V2Volume) decimal.Decimal {
	vol, ok := vols[brlAsset]
	if !ok || vol.Output == nil {
		return decimal.Zero
	}
	return fromMinorUnits(vol.Output)
}

func fromMinorUnits(raw *big.Int) decimal.Decimal {
	if raw == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(raw, -brlPrecision)
}
