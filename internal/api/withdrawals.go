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

package api

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"pix-withdraw-go/internal/models"
	"pix-withdraw-go/internal/store"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CreateWithdraw records a withdraw for an account that the caller already
// loaded. Immediate withdraws are debited in the same transaction that
// inserts the withdraw and its PIX detail; scheduled ones are left for the
// settlement sweep and skip the balance check. On success an immediate
// withdraw's new balance is copied into account.
func (s *WithdrawService) CreateWithdraw(ctx context.Context, account *models.Account, cmd models.WithdrawCommand) (*models.Withdraw, error) {
	if account == nil {
		return nil, fmt.Errorf("account is required")
	}
	if err := validateCommand(cmd); err != nil {
		withdrawsRejected.WithLabelValues(rejectionReason(err)).Inc()
		return nil, err
	}

	isScheduled := cmd.ScheduledFor != nil
	if !isScheduled && account.Balance.LessThan(cmd.Amount) {
		withdrawsRejected.WithLabelValues(rejectionReason(ErrInsufficientBalance)).Inc()
		zap.L().Info("Withdraw rejected for insufficient balance",
			zap.String("account_id", account.Id),
			zap.String("balance", account.Balance.String()),
			zap.String("requested", cmd.Amount.String()))
		return nil, &InsufficientBalanceError{Balance: account.Balance, Requested: cmd.Amount}
	}

	now := s.now().UTC()
	withdraw := &models.Withdraw{
		Id:        uuid.New().String(),
		AccountId: account.Id,
		Method:    models.MethodPix,
		Amount:    cmd.Amount,
		Scheduled: isScheduled,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if isScheduled {
		scheduledFor := cmd.ScheduledFor.UTC()
		withdraw.ScheduledFor = &scheduledFor
	}
	pix := &models.PixDetail{
		WithdrawId: withdraw.Id,
		Type:       strings.ToLower(cmd.Pix.Type),
		Key:        cmd.Pix.Key,
	}

	var settled *models.Account
	err := s.store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.InsertWithdraw(ctx, withdraw); err != nil {
			return err
		}
		if err := tx.InsertPixDetail(ctx, pix); err != nil {
			return err
		}
		if isScheduled {
			return nil
		}

		locked, err := tx.GetAccountForUpdate(ctx, account.Id)
		if err != nil {
			return err
		}
		if err := s.ExecuteWithdraw(ctx, tx, withdraw, locked); err != nil {
			return err
		}
		settled = locked
		return nil
	})
	if err != nil {
		withdraw.Done = false
		withdrawsRejected.WithLabelValues(rejectionReason(err)).Inc()
		zap.L().Error("Withdraw creation failed",
			zap.String("account_id", account.Id),
			zap.String("amount", cmd.Amount.String()),
			zap.Bool("scheduled", isScheduled),
			zap.Error(err))
		return nil, err
	}

	if settled != nil {
		*account = *settled
	}

	mode := modeImmediate
	if isScheduled {
		mode = modeScheduled
	}
	withdrawsCreated.WithLabelValues(mode).Inc()

	fields := []zap.Field{
		zap.String("withdraw_id", withdraw.Id),
		zap.String("account_id", account.Id),
		zap.String("amount", withdraw.Amount.String()),
		zap.String("mode", mode),
		zap.String("balance", account.Balance.String()),
	}
	if origin := models.GetWithdrawOrigin(ctx); origin != nil {
		fields = append(fields, zap.String("origin", origin.Channel), zap.String("request_id", origin.RequestId))
	}
	zap.L().Info("Withdraw created", fields...)

	s.notifyCreated(ctx, withdraw, account, pix)
	if !isScheduled {
		s.journalPayout(ctx, withdraw, account, pix)
	}

	return withdraw, nil
}

// ExecuteWithdraw debits account and marks withdraw done using the caller's
// transaction. The balance is re-checked here regardless of what the caller
// checked before.
func (s *WithdrawService) ExecuteWithdraw(ctx context.Context, tx store.Tx, withdraw *models.Withdraw, account *models.Account) error {
	if withdraw.AccountId != account.Id {
		return fmt.Errorf("withdraw %s belongs to account %s, not %s", withdraw.Id, withdraw.AccountId, account.Id)
	}
	if account.Balance.LessThan(withdraw.Amount) {
		return &InsufficientBalanceError{Balance: account.Balance, Requested: withdraw.Amount}
	}

	previous := account.Balance
	account.Balance = account.Balance.Sub(withdraw.Amount)
	if err := tx.UpdateAccountBalance(ctx, account); err != nil {
		account.Balance = previous
		return err
	}

	if err := tx.MarkWithdrawDone(ctx, withdraw.Id); err != nil {
		return err
	}
	withdraw.Done = true

	return nil
}

// NewWithdrawResult builds the caller-facing summary of a created withdraw.
func NewWithdrawResult(withdraw *models.Withdraw, account *models.Account) *models.WithdrawResult {
	return &models.WithdrawResult{
		WithdrawId: withdraw.Id,
		AccountId:  account.Id,
		Amount:     withdraw.Amount,
		NewBalance: account.Balance,
	}
}

func validateCommand(cmd models.WithdrawCommand) error {
	if !cmd.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	if !strings.EqualFold(cmd.Method, models.MethodPix) {
		return fmt.Errorf("%w: %q", ErrUnsupportedMethod, cmd.Method)
	}
	if cmd.Pix == nil || cmd.Pix.Key == "" {
		return ErrPixDetailRequired
	}
	if !strings.EqualFold(cmd.Pix.Type, models.PixTypeEmail) {
		return fmt.Errorf("%w: %q", ErrUnsupportedPixType, cmd.Pix.Type)
	}
	return nil
}

func isInvalidCommand(err error) bool {
	return errors.Is(err, ErrInvalidAmount) ||
		errors.Is(err, ErrUnsupportedMethod) ||
		errors.Is(err, ErrPixDetailRequired) ||
		errors.Is(err, ErrUnsupportedPixType)
}

func isInsufficientBalance(err error) bool {
	return errors.Is(err, ErrInsufficientBalance)
}
