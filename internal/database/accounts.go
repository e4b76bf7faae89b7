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
	"strings"
	"time"

	"pix-withdraw-go/internal/models"
	"pix-withdraw-go/internal/store"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (*models.Account, error) {
	var account models.Account
	var balance string
	if err := row.Scan(&account.Id, &account.Name, &balance, &account.Version, &account.CreatedAt, &account.UpdatedAt); err != nil {
		return nil, err
	}

	parsed, err := decimal.NewFromString(balance)
	if err != nil {
		return nil, fmt.Errorf("invalid balance %q for account %s: %w", balance, account.Id, err)
	}
	account.Balance = parsed
	return &account, nil
}

func (s *Service) GetAccount(ctx context.Context, accountId string) (*models.Account, error) {
	zap.L().Debug("Querying account by ID", zap.String("account_id", accountId))

	account, err := scanAccount(s.db.QueryRowContext(ctx, queryGetAccount, accountId))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", store.ErrAccountNotFound, accountId)
		}
		zap.L().Error("Failed to query account by ID", zap.String("account_id", accountId), zap.Error(err))
		return nil, fmt.Errorf("unable to query account by ID: %w", err)
	}

	return account, nil
}

func (s *Service) GetAccounts(ctx context.Context) ([]models.Account, error) {
	zap.L().Debug("Querying accounts")

	rows, err := s.db.QueryContext(ctx, queryGetAccounts)
	if err != nil {
		zap.L().Error("Failed to query accounts", zap.Error(err))
		return nil, fmt.Errorf("unable to query accounts: %w", err)
	}
	defer func(rows *sql.Rows) {
		if err := rows.Close(); err != nil {
			zap.L().Warn("Failed to close rows", zap.Error(err))
		}
	}(rows)

	var accounts []models.Account
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			zap.L().Error("Failed to scan account row", zap.Error(err))
			return nil, fmt.Errorf("unable to scan account row: %w", err)
		}
		accounts = append(accounts, *account)
	}

	// Check for errors during iteration
	if err := rows.Err(); err != nil {
		zap.L().Error("Error during account row iteration", zap.Error(err))
		return nil, fmt.Errorf("error iterating account rows: %w", err)
	}

	zap.L().Debug("Retrieved accounts", zap.Int("count", len(accounts)))
	return accounts, nil
}

func (s *Service) CreateAccount(ctx context.Context, params store.CreateAccountParams) (*models.Account, error) {
	if params.Name == "" {
		return nil, fmt.Errorf("account name cannot be empty")
	}
	if params.Balance.IsNegative() {
		return nil, fmt.Errorf("account balance cannot be negative: %s", params.Balance.String())
	}

	id := params.Id
	if id == "" {
		id = uuid.New().String()
	}
	now := time.Now().UTC()

	_, err := s.db.ExecContext(ctx, queryInsertAccount,
		id, params.Name, params.Balance.StringFixed(2), formatTime(now), formatTime(now))
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return nil, fmt.Errorf("%w: %s", store.ErrDuplicateAccount, id)
		}
		return nil, fmt.Errorf("unable to create account: %w", err)
	}

	zap.L().Info("Account created",
		zap.String("account_id", id),
		zap.String("name", params.Name),
		zap.String("balance", params.Balance.StringFixed(2)))

	return &models.Account{
		Id:        id,
		Name:      params.Name,
		Balance:   params.Balance,
		CreatedAt: now.Truncate(time.Second),
		UpdatedAt: now.Truncate(time.Second),
	}, nil
}
