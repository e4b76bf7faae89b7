package formance

import (
	"context"
	"fmt"

	"pix-withdraw-go/internal/models"

	"github.com/formancehq/formance-sdk-go/v3/pkg/models/operations"
	"go.uber.org/zap"
)

// RegisterAccount tags the ledger address of a bank account with its owner.
func (s *Service) RegisterAccount(ctx context.Context, account *models.Account) error {
	addr := bankAccount(account.Id)
	zap.L().Info("Registering account in Formance", zap.String("address", addr))

	_, err := s.client.Ledger.V2.AddMetadataToAccount(ctx, operations.V2AddMetadataToAccountRequest{
		Ledger:  s.ledger,
		Address: addr,
		RequestBody: map[string]string{
			"entity_type": "bank_account",
			"name":        account.Name,
		},
	})
	if err != nil {
		return fmt.Errorf("failed to register account %s: %w", account.Id, err)
	}
	return nil
}
