package formance

import (
	"context"
	"fmt"
	"time"

	"pix-withdraw-go/internal/models"

	"github.com/formancehq/formance-sdk-go/v3/pkg/models/operations"
	"github.com/formancehq/formance-sdk-go/v3/pkg/models/shared"
	"go.uber.org/zap"
)

// numscriptPixPayout moves an executed withdraw out of the customer's bank
// account. The bank account is not funded in the ledger, the local store
// holds the authoritative balance, hence the overdraft.
const numscriptPixPayout = `vars {
  asset $asset
  number $amount
  account $bank_account
  account $payout_account
  string $withdraw_id
  string $account_id
  string $pix_type
  string $pix_key
  string $amount_human
  string $scheduled
  string $origin
}

send [$asset $amount] (
  source = $bank_account allowing unbounded overdraft
  destination = $payout_account
)

set_tx_meta("event_type", "pix_payout")
set_tx_meta("withdraw_id", $withdraw_id)
set_tx_meta("account_id", $account_id)
set_tx_meta("pix_type", $pix_type)
set_tx_meta("pix_key", $pix_key)
set_tx_meta("amount_human", $amount_human)
set_tx_meta("scheduled", $scheduled)
set_tx_meta("origin", $origin)
`

// RecordPayout posts an executed withdraw. The withdraw id is the
// transaction reference, so recording the same withdraw twice is a no-op.
func (s *Service) RecordPayout(ctx context.Context, withdraw *models.Withdraw, account *models.Account, pix *models.PixDetail) error {
	vars := payoutVars(ctx, withdraw, account, pix)

	updatedAt := withdraw.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now().UTC()
	}
	postTx := shared.V2PostTransaction{
		Reference: &withdraw.Id,
		Timestamp: &updatedAt,
		Script: &shared.V2PostTransactionScript{
			Plain: numscriptPixPayout,
			Vars:  vars,
		},
	}

	_, err := s.client.Ledger.V2.CreateTransaction(ctx, operations.V2CreateTransactionRequest{
		Ledger:            s.ledger,
		V2PostTransaction: postTx,
	})
	if err != nil {
		if isConflictError(err) {
			zap.L().Debug("Payout already journaled", zap.String("withdraw_id", withdraw.Id))
			return nil
		}
		return fmt.Errorf("error journaling payout %s: %w", withdraw.Id, err)
	}

	zap.L().Info("Payout journaled in Formance",
		zap.String("withdraw_id", withdraw.Id),
		zap.String("account_id", account.Id),
		zap.String("amount", withdraw.Amount.String()))
	return nil
}

func payoutVars(ctx context.Context, withdraw *models.Withdraw, account *models.Account, pix *models.PixDetail) map[string]string {
	vars := map[string]string{
		"asset":          brlAsset,
		"amount":         toMinorUnits(withdraw.Amount),
		"bank_account":   bankAccount(account.Id),
		"payout_account": payoutAccount,
		"withdraw_id":    withdraw.Id,
		"account_id":     account.Id,
		"pix_type":       "",
		"pix_key":        "",
		"amount_human":   withdraw.Amount.StringFixed(brlPrecision),
		"scheduled":      fmt.Sprintf("%t", withdraw.Scheduled),
		"origin":         "",
	}
	if pix != nil {
		vars["pix_type"] = pix.Type
		vars["pix_key"] = pix.Key
	}
	if origin := models.GetWithdrawOrigin(ctx); origin != nil {
		vars["origin"] = origin.Channel
	}
	return vars
}
