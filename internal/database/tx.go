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

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"pix-withdraw-go/internal/models"
	"pix-withdraw-go/internal/store"
)

// sqliteTx implements store.Tx over a *sql.Tx.
type sqliteTx struct {
	tx *sql.Tx
}

func (t *sqliteTx) GetAccountForUpdate(ctx context.Context, accountId string) (*models.Account, error) {
	// SQLite has no row locks; the transaction already holds the write lock
	// (_txlock=immediate) and UpdateAccountBalance checks the version.
	account, err := scanAccount(t.tx.QueryRowContext(ctx, queryGetAccount, accountId))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", store.ErrAccountNotFound, accountId)
		}
		return nil, fmt.Errorf("unable to load account for update: %w", err)
	}
	return account, nil
}

func (t *sqliteTx) UpdateAccountBalance(ctx context.Context, account *models.Account) error {
	if account.Balance.IsNegative() {
		return fmt.Errorf("refusing to persist negative balance %s for account %s", account.Balance.String(), account.Id)
	}

	now := time.Now().UTC()
	result, err := t.tx.ExecContext(ctx, queryUpdateAccountBalance,
		account.Balance.StringFixed(2), formatTime(now), account.Id, account.Version)
	if err != nil {
		return fmt.Errorf("failed to update account balance: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("balance update failed - %w", store.ErrConcurrentModification)
	}

	account.Version++
	account.UpdatedAt = now.Truncate(time.Second)
	return nil
}

func (t *sqliteTx) InsertWithdraw(ctx context.Context, withdraw *models.Withdraw) error {
	var scheduledFor any
	if withdraw.ScheduledFor != nil {
		scheduledFor = formatTime(*withdraw.ScheduledFor)
	}

	_, err := t.tx.ExecContext(ctx, queryInsertWithdraw,
		withdraw.Id,
		withdraw.AccountId,
		withdraw.Method,
		withdraw.Amount.StringFixed(2),
		withdraw.Scheduled,
		scheduledFor,
		formatTime(withdraw.CreatedAt),
		formatTime(withdraw.UpdatedAt))
	if err != nil {
		return fmt.Errorf("failed to insert withdraw: %w", err)
	}
	return nil
}

func (t *sqliteTx) InsertPixDetail(ctx context.Context, pix *models.PixDetail) error {
	if _, err := t.tx.ExecContext(ctx, queryInsertPixDetail, pix.WithdrawId, pix.Type, pix.Key); err != nil {
		return fmt.Errorf("failed to insert pix detail: %w", err)
	}
	return nil
}

func (t *sqliteTx) MarkWithdrawDone(ctx context.Context, withdrawId string) error {
	result, err := t.tx.ExecContext(ctx, queryMarkWithdrawDone, formatTime(time.Now()), withdrawId)
	if err != nil {
		return fmt.Errorf("failed to mark withdraw as done: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("withdraw %s - %w", withdrawId, store.ErrWithdrawSettled)
	}
	return nil
}
