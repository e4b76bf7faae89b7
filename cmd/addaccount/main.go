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
	"strings"

	"pix-withdraw-go/internal/common"
	"pix-withdraw-go/internal/config"
	"pix-withdraw-go/internal/formance"
	"pix-withdraw-go/internal/store"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func validateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("name cannot be empty")
	}
	if len(strings.TrimSpace(name)) < 2 {
		return fmt.Errorf("name must be at least 2 characters")
	}
	return nil
}

func parseBalance(value string) (decimal.Decimal, error) {
	if value == "" {
		return decimal.Zero, nil
	}
	balance, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid balance format: %w", err)
	}
	if balance.IsNegative() {
		return decimal.Zero, fmt.Errorf("balance cannot be negative")
	}
	return balance, nil
}

func main() {
	ctx := context.Background()

	_, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	nameFlag := flag.String("name", "", "Account holder name (required)")
	balanceFlag := flag.String("balance", "0", "Opening balance")
	idFlag := flag.String("id", "", "Account id (default: new UUID)")
	flag.Parse()

	if err := validateName(*nameFlag); err != nil {
		zap.L().Fatal("Invalid name", zap.Error(err))
	}
	balance, err := parseBalance(*balanceFlag)
	if err != nil {
		zap.L().Fatal("Invalid balance", zap.Error(err))
	}
	accountId := *idFlag
	if accountId == "" {
		accountId = uuid.New().String()
	}

	cfg, err := config.Load()
	if err != nil {
		zap.L().Fatal("Failed to load config", zap.Error(err))
	}

	withdrawStore, err := common.InitializeStoreOnly(ctx, cfg)
	if err != nil {
		zap.L().Fatal("Failed to initialize store", zap.Error(err))
	}
	defer withdrawStore.Close()

	account, err := withdrawStore.CreateAccount(ctx, store.CreateAccountParams{
		Id:      accountId,
		Name:    strings.TrimSpace(*nameFlag),
		Balance: balance,
	})
	if err != nil {
		zap.L().Fatal("Failed to create account", zap.Error(err))
	}

	if cfg.Formance.StackURL != "" {
		journal, err := formance.NewService(ctx, cfg.Formance)
		if err != nil {
			zap.L().Warn("Formance unavailable, account not registered in ledger", zap.Error(err))
		} else if err := journal.RegisterAccount(ctx, account); err != nil {
			zap.L().Warn("Failed to register account in Formance", zap.Error(err))
		}
	}

	common.PrintHeader("CONTA CRIADA", common.DefaultWidth)
	fmt.Printf("ID:    %s\n", account.Id)
	fmt.Printf("Nome:  %s\n", account.Name)
	fmt.Printf("Saldo: %s\n", common.FormatBRL(account.Balance))
	common.PrintFooter("Pronto para saques PIX", common.DefaultWidth)
}
