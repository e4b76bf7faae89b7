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

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func scanWithdraw(row rowScanner) (*models.Withdraw, error) {
	var withdraw models.Withdraw
	var amount string
	var scheduledFor sql.NullTime
	var errorReason sql.NullString

	err := row.Scan(
		&withdraw.Id, &withdraw.AccountId, &withdraw.Method, &amount,
		&withdraw.Scheduled, &scheduledFor, &withdraw.Done, &withdraw.Error, &errorReason,
		&withdraw.CreatedAt, &withdraw.UpdatedAt)
	if err != nil {
		return nil, err
	}

	parsed, err := decimal.NewFromString(amount)
	if err != nil {
		return nil, fmt.Errorf("invalid amount %q for withdraw %s: %w", amount, withdraw.Id, err)
	}
	withdraw.Amount = parsed

	if scheduledFor.Valid {
		t := scheduledFor.Time.UTC()
		withdraw.ScheduledFor = &t
	}
	withdraw.ErrorReason = errorReason.String

	return &withdraw, nil
}

func (s *Service) queryWithdraws(ctx context.Context, query string, args ...any) ([]models.Withdraw, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("unable to query withdraws: %w", err)
	}
	defer func(rows *sql.Rows) {
		if err := rows.Close(); err != nil {
			zap.L().Warn("Failed to close rows", zap.Error(err))
		}
	}(rows)

	var withdraws []models.Withdraw
	for rows.Next() {
		withdraw, err := scanWithdraw(rows)
		if err != nil {
			return nil, fmt.Errorf("unable to scan withdraw row: %w", err)
		}
		withdraws = append(withdraws, *withdraw)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating withdraw rows: %w", err)
	}

	return withdraws, nil
}

func (s *Service) GetWithdraw(ctx context.Context, withdrawId string) (*models.Withdraw, error) {
	withdraw, err := scanWithdraw(s.db.QueryRowContext(ctx, queryGetWithdraw, withdrawId))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", store.ErrWithdrawNotFound, withdrawId)
		}
		return nil, fmt.Errorf("unable to query withdraw: %w", err)
	}
	return withdraw, nil
}

func (s *Service) GetWithdrawsByAccount(ctx context.Context, accountId string, limit int) ([]models.Withdraw, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.queryWithdraws(ctx, queryGetWithdrawsByAccount, accountId, limit)
}

func (s *Service) GetDueScheduledWithdraws(ctx context.Context, now time.Time) ([]models.Withdraw, error) {
	withdraws, err := s.queryWithdraws(ctx, queryGetDueScheduledWithdraws, formatTime(now))
	if err != nil {
		zap.L().Error("Failed to query due scheduled withdraws", zap.Error(err))
		return nil, err
	}

	zap.L().Debug("Retrieved due scheduled withdraws", zap.Int("count", len(withdraws)))
	return withdraws, nil
}

func (s *Service) GetPixDetail(ctx context.Context, withdrawId string) (*models.PixDetail, error) {
	var pix models.PixDetail
	err := s.db.QueryRowContext(ctx, queryGetPixDetail, withdrawId).Scan(&pix.WithdrawId, &pix.Type, &pix.Key)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("pix detail not found for withdraw %s: %w", withdrawId, store.ErrWithdrawNotFound)
		}
		return nil, fmt.Errorf("unable to query pix detail: %w", err)
	}
	return &pix, nil
}

func (s *Service) MarkWithdrawError(ctx context.Context, withdrawId, reason string) error {
	result, err := s.db.ExecContext(ctx, queryMarkWithdrawError, reason, formatTime(time.Now()), withdrawId)
	if err != nil {
		return fmt.Errorf("failed to mark withdraw as failed: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected > 0 {
		return nil
	}

	// Nothing matched: either the row is gone or it is already done.
	if _, err := s.GetWithdraw(ctx, withdrawId); err != nil {
		return err
	}
	return fmt.Errorf("cannot flag withdraw %s as failed - %w", withdrawId, store.ErrWithdrawSettled)
}
