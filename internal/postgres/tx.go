package postgres

import (
	"context"
	"errors"
	"fmt"

	"pix-withdraw-go/internal/models"
	"pix-withdraw-go/internal/store"

	"github.com/jackc/pgx/v5"
)

// pgTx implements store.Tx over a pgx.Tx.
type pgTx struct {
	tx pgx.Tx
}

func (t *pgTx) GetAccountForUpdate(ctx context.Context, accountId string) (*models.Account, error) {
	return getAccount(ctx, t.tx, queryGetAccountForUpdate, accountId)
}

func (t *pgTx) UpdateAccountBalance(ctx context.Context, account *models.Account) error {
	if account.Balance.IsNegative() {
		return fmt.Errorf("refusing to persist negative balance %s for account %s", account.Balance.String(), account.Id)
	}

	err := t.tx.QueryRow(ctx, queryUpdateAccountBalance,
		account.Balance.StringFixed(2), account.Id, account.Version).Scan(&account.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("balance update failed - %w", store.ErrConcurrentModification)
		}
		return fmt.Errorf("failed to update account balance: %w", err)
	}

	account.Version++
	return nil
}

func (t *pgTx) InsertWithdraw(ctx context.Context, withdraw *models.Withdraw) error {
	_, err := t.tx.Exec(ctx, queryInsertWithdraw,
		withdraw.Id,
		withdraw.AccountId,
		withdraw.Method,
		withdraw.Amount.StringFixed(2),
		withdraw.Scheduled,
		withdraw.ScheduledFor,
		withdraw.CreatedAt,
		withdraw.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert withdraw: %w", err)
	}
	return nil
}

func (t *pgTx) InsertPixDetail(ctx context.Context, pix *models.PixDetail) error {
	if _, err := t.tx.Exec(ctx, queryInsertPixDetail, pix.WithdrawId, pix.Type, pix.Key); err != nil {
		return fmt.Errorf("failed to insert pix detail: %w", err)
	}
	return nil
}

func (t *pgTx) MarkWithdrawDone(ctx context.Context, withdrawId string) error {
	tag, err := t.tx.Exec(ctx, queryMarkWithdrawDone, withdrawId)
	if err != nil {
		return fmt.Errorf("failed to mark withdraw as done: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("withdraw %s - %w", withdrawId, store.ErrWithdrawSettled)
	}
	return nil
}
