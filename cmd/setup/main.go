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

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"

	"pix-withdraw-go/internal/common"
	"pix-withdraw-go/internal/config"
	"pix-withdraw-go/internal/formance"
	"pix-withdraw-go/internal/store"

	"go.uber.org/zap"
)

type seedStats struct {
	created []string
	skipped []string
	failed  []string
}

func seedAccount(ctx context.Context, withdrawStore store.WithdrawStore, journal *formance.Service, params store.CreateAccountParams, stats *seedStats) {
	account, err := withdrawStore.CreateAccount(ctx, params)
	if err != nil {
		if errors.Is(err, store.ErrDuplicateAccount) {
			zap.L().Info("Account already exists", zap.String("account_id", params.Id))
			stats.skipped = append(stats.skipped, params.Name)
			return
		}
		zap.L().Error("Failed to create account",
			zap.String("account_id", params.Id),
			zap.String("name", params.Name),
			zap.Error(err))
		stats.failed = append(stats.failed, params.Name)
		return
	}

	if journal != nil {
		if err := journal.RegisterAccount(ctx, account); err != nil {
			zap.L().Warn("Failed to register account in Formance", zap.String("account_id", account.Id), zap.Error(err))
		}
	}

	zap.L().Info("Account created",
		zap.String("account_id", account.Id),
		zap.String("name", account.Name),
		zap.String("balance", account.Balance.String()))
	stats.created = append(stats.created, account.Name)
}

func main() {
	ctx := context.Background()

	_, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	fileFlag := flag.String("accounts", "", "Path to accounts.yaml (default: ACCOUNTS_FILE)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		zap.L().Fatal("Failed to load config", zap.Error(err))
	}

	accountsFile := *fileFlag
	if accountsFile == "" {
		accountsFile = cfg.Settlement.AccountsFile
	}

	seeds, err := common.LoadAccountSeeds(accountsFile)
	if err != nil {
		zap.L().Fatal("Failed to load accounts", zap.String("file", accountsFile), zap.Error(err))
	}

	withdrawStore, err := common.InitializeStoreOnly(ctx, cfg)
	if err != nil {
		zap.L().Fatal("Failed to initialize store", zap.Error(err))
	}
	defer withdrawStore.Close()

	var journal *formance.Service
	if cfg.Formance.StackURL != "" {
		journal, err = formance.NewService(ctx, cfg.Formance)
		if err != nil {
			zap.L().Fatal("Failed to initialize Formance", zap.Error(err))
		}
	}

	zap.L().Info("Seeding accounts", zap.String("file", accountsFile), zap.Int("count", len(seeds)))

	stats := &seedStats{}
	for _, params := range seeds {
		seedAccount(ctx, withdrawStore, journal, params, stats)
	}

	common.PrintFooter(fmt.Sprintf("Criadas: %d | Existentes: %d | Falhas: %d",
		len(stats.created), len(stats.skipped), len(stats.failed)), common.DefaultWidth)
}
