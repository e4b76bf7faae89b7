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
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"time"

	"pix-withdraw-go/internal/api"
	"pix-withdraw-go/internal/common"
	"pix-withdraw-go/internal/config"
	"pix-withdraw-go/internal/httpapi"
	"pix-withdraw-go/internal/models"
	"pix-withdraw-go/internal/store"

	"go.uber.org/zap"
)

type withdrawRequest struct {
	accountId string
	body      []byte
}

func parseFlags() (*withdrawRequest, error) {
	accountFlag := flag.String("account", "", "Account id (required)")
	amountFlag := flag.String("amount", "", "Amount to withdraw, e.g. 150.75 (required)")
	keyFlag := flag.String("pix-key", "", "PIX email key receiving the payout (required)")
	scheduleFlag := flag.String("schedule", "", "Optional schedule, YYYY-MM-DD HH:MM in APP_TIMEZONE")
	flag.Parse()

	if *accountFlag == "" || *amountFlag == "" || *keyFlag == "" {
		return nil, fmt.Errorf("flags --account, --amount and --pix-key are required")
	}

	payload := map[string]any{
		"method": models.MethodPix,
		"pix":    map[string]string{"type": models.PixTypeEmail, "key": *keyFlag},
		"amount": *amountFlag,
	}
	if *scheduleFlag != "" {
		payload["schedule"] = *scheduleFlag
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	return &withdrawRequest{accountId: *accountFlag, body: body}, nil
}

func printWithdraw(withdraw *models.Withdraw, account *models.Account) {
	result := api.NewWithdrawResult(withdraw, account)

	common.PrintHeader("SAQUE PIX", common.DefaultWidth)
	fmt.Printf("Conta:       %s (%s)\n", account.Name, result.AccountId)
	fmt.Printf("Saque:       %s\n", result.WithdrawId)
	fmt.Printf("Valor:       %s\n", common.FormatBRL(result.Amount))
	fmt.Printf("Situação:    %s\n", common.StatusLabel(withdraw))
	fmt.Printf("Novo saldo:  %s\n", common.FormatBRL(result.NewBalance))
	common.PrintFooter("Saque registrado", common.DefaultWidth)
}

func main() {
	ctx := context.Background()

	_, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	req, err := parseFlags()
	if err != nil {
		zap.L().Fatal("Invalid arguments", zap.Error(err))
	}

	cfg, err := config.Load()
	if err != nil {
		zap.L().Fatal("Failed to load config", zap.Error(err))
	}

	validator := httpapi.NewValidator(cfg.Withdraw.Location, cfg.Withdraw.ScheduleHorizon, time.Now)
	cmd, err := validator.Parse(req.body)
	if err != nil {
		var validationErr *httpapi.ValidationError
		if errors.As(err, &validationErr) {
			for _, message := range validationErr.Messages {
				fmt.Printf("  - %s\n", message)
			}
		}
		zap.L().Fatal("Withdraw request rejected", zap.Error(err))
	}

	services, err := common.InitializeServices(ctx, cfg)
	if err != nil {
		zap.L().Fatal("Failed to initialize services", zap.Error(err))
	}
	defer services.Close()

	account, err := services.Withdraws.GetAccount(ctx, req.accountId)
	if err != nil {
		if errors.Is(err, store.ErrAccountNotFound) {
			fmt.Println("Conta não encontrada")
		}
		zap.L().Fatal("Failed to load account", zap.String("account_id", req.accountId), zap.Error(err))
	}

	ctx = models.WithWithdrawOrigin(ctx, &models.WithdrawOrigin{Channel: models.OriginCLI})
	withdraw, err := services.Withdraws.CreateWithdraw(ctx, account, cmd)
	if err != nil {
		var balanceErr *api.InsufficientBalanceError
		if errors.As(err, &balanceErr) {
			fmt.Printf("Saldo insuficiente: saldo %s, solicitado %s\n",
				common.FormatBRL(balanceErr.Balance), common.FormatBRL(balanceErr.Requested))
		}
		zap.L().Fatal("Failed to create withdraw", zap.Error(err))
	}

	printWithdraw(withdraw, account)
}
