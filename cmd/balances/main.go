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
	"flag"
	"fmt"

	"pix-withdraw-go/internal/common"
	"pix-withdraw-go/internal/config"
	"pix-withdraw-go/internal/formance"
	"pix-withdraw-go/internal/models"
	"pix-withdraw-go/internal/store"

	"go.uber.org/zap"
)

type balanceStats struct {
	totalAccounts  int
	totalWithdraws int
	pending        int
	failed         int
}

func formatWithdrawId(withdrawId string) string {
	if len(withdrawId) > 8 {
		return withdrawId[:8] + "..."
	}
	return withdrawId
}

func printWithdraw(withdraw models.Withdraw, isLast bool) {
	fmt.Printf("%s %-11s %15s  %s (%s)\n",
		common.BoxPrefix(isLast),
		formatWithdrawId(withdraw.Id),
		common.FormatBRL(withdraw.Amount),
		common.StatusLabel(&withdraw),
		withdraw.CreatedAt.Format("2006-01-02 15:04:05"))
	if withdraw.ErrorReason != "" {
		fmt.Printf("%s   motivo: %s\n", common.BoxDetailPrefix(isLast), withdraw.ErrorReason)
	}
}

func printAccountHeader(account models.Account, withdrawCount int) {
	fmt.Printf("\n┌─ Conta: %s\n", account.Name)
	fmt.Printf("│  ID: %s\n", account.Id)
	fmt.Printf("│  Saldo: %s (v%d)\n", common.FormatBRL(account.Balance), account.Version)
	fmt.Printf("│  Saques recentes: %d\n", withdrawCount)
}

func processAccount(ctx context.Context, account models.Account, withdrawStore store.WithdrawStore, journal *formance.Service, limit int, stats *balanceStats) error {
	withdraws, err := withdrawStore.GetWithdrawsByAccount(ctx, account.Id, limit)
	if err != nil {
		return fmt.Errorf("failed to get withdraws: %w", err)
	}

	printAccountHeader(account, len(withdraws))
	if journal != nil {
		paidOut, err := journal.PaidOut(ctx, account.Id)
		if err != nil {
			zap.L().Warn("Failed to read journaled payouts", zap.String("account_id", account.Id), zap.Error(err))
		} else {
			fmt.Printf("│  Pago via PIX (ledger): %s\n", common.FormatBRL(paidOut))
		}
	}

	for i, withdraw := range withdraws {
		printWithdraw(withdraw, i == len(withdraws)-1)
		switch withdraw.Status() {
		case models.WithdrawStatusPending:
			stats.pending++
		case models.WithdrawStatusError:
			stats.failed++
		}
	}
	stats.totalWithdraws += len(withdraws)
	return nil
}

func main() {
	ctx := context.Background()

	logger, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	accountFlag := flag.String("account", "", "Filter by account id (optional)")
	limitFlag := flag.Int("limit", 10, "Recent withdraws shown per account")
	flag.Parse()

	logger.Info("Starting balance query")

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	// Read-only, no notifier needed
	withdrawStore, err := common.InitializeStoreOnly(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to initialize store", zap.Error(err))
	}
	defer withdrawStore.Close()

	var journal *formance.Service
	if cfg.Formance.StackURL != "" {
		journal, err = formance.NewService(ctx, cfg.Formance)
		if err != nil {
			logger.Warn("Formance unavailable, skipping ledger totals", zap.Error(err))
		}
	}

	accounts, err := common.ResolveAccounts(ctx, withdrawStore, *accountFlag)
	if err != nil {
		logger.Fatal("Failed to resolve accounts", zap.Error(err))
	}

	common.PrintHeader("SALDOS E SAQUES", common.DefaultWidth)

	stats := balanceStats{}
	for _, account := range accounts {
		stats.totalAccounts++
		if err := processAccount(ctx, account, withdrawStore, journal, *limitFlag, &stats); err != nil {
			logger.Error("Failed to process account",
				zap.String("account_id", account.Id),
				zap.Error(err))
		}
	}

	common.PrintFooter(fmt.Sprintf("Contas: %d | Saques listados: %d | Agendados pendentes: %d | Com erro: %d",
		stats.totalAccounts, stats.totalWithdraws, stats.pending, stats.failed), common.DefaultWidth)
}
