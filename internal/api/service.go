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
	"fmt"
	"time"

	"pix-withdraw-go/internal/models"
	"pix-withdraw-go/internal/notify"
	"pix-withdraw-go/internal/store"
)

// PayoutJournal mirrors executed payouts into an external ledger.
type PayoutJournal interface {
	RecordPayout(ctx context.Context, withdraw *models.Withdraw, account *models.Account, pix *models.PixDetail) error
}

// WithdrawServiceConfig contains the collaborators of WithdrawService
type WithdrawServiceConfig struct {
	Store    store.WithdrawStore
	Notifier notify.Notifier
	Journal  PayoutJournal    // optional
	Now      func() time.Time // optional, defaults to time.Now
}

// WithdrawService creates withdraws and settles scheduled ones
type WithdrawService struct {
	store    store.WithdrawStore
	notifier notify.Notifier
	journal  PayoutJournal
	now      func() time.Time
}

func NewWithdrawService(cfg WithdrawServiceConfig) (*WithdrawService, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("withdraw service requires a store")
	}
	if cfg.Notifier == nil {
		return nil, fmt.Errorf("withdraw service requires a notifier")
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &WithdrawService{
		store:    cfg.Store,
		notifier: cfg.Notifier,
		journal:  cfg.Journal,
		now:      now,
	}, nil
}

func (s *WithdrawService) HealthCheck(ctx context.Context) error {
	if err := s.store.Ping(ctx); err != nil {
		return fmt.Errorf("database health check failed: %w", err)
	}
	return nil
}

// GetAccount is the pre-check callers run before CreateWithdraw.
func (s *WithdrawService) GetAccount(ctx context.Context, accountId string) (*models.Account, error) {
	return s.store.GetAccount(ctx, accountId)
}

// GetWithdraw returns a withdraw of the given account together with its
// PIX detail. A withdraw owned by another account is reported as not found.
func (s *WithdrawService) GetWithdraw(ctx context.Context, accountId, withdrawId string) (*models.Withdraw, *models.PixDetail, error) {
	withdraw, err := s.store.GetWithdraw(ctx, withdrawId)
	if err != nil {
		return nil, nil, err
	}
	if withdraw.AccountId != accountId {
		return nil, nil, fmt.Errorf("%w: %s", store.ErrWithdrawNotFound, withdrawId)
	}

	pix, err := s.store.GetPixDetail(ctx, withdrawId)
	if err != nil {
		return withdraw, nil, nil
	}
	return withdraw, pix, nil
}
