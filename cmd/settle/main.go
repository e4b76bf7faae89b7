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
	"fmt"
	"io"
	"os"

	"pix-withdraw-go/internal/common"
	"pix-withdraw-go/internal/config"
	"pix-withdraw-go/internal/lock"
	"pix-withdraw-go/internal/models"

	"go.uber.org/zap"
)

func printResult(out io.Writer, result *models.SweepResult) {
	if result.Processed == 0 && result.Failed == 0 && result.Skipped == 0 {
		fmt.Fprintln(out, "Sem saques agendados para processar.")
		return
	}

	fmt.Fprintf(out, "Processados: %d\n", result.Processed)
	if result.Skipped > 0 {
		fmt.Fprintf(out, "Ignorados: %d\n", result.Skipped)
	}
	if result.Failed > 0 {
		fmt.Fprintf(out, "Falha: %d\n", result.Failed)
		for _, sweepErr := range result.Errors {
			fmt.Fprintf(out, "  - %s: %s\n", sweepErr.WithdrawId, sweepErr.Error)
		}
	}
}

// run performs one sweep and returns the process exit code: 0 only when no
// withdraw failed.
func run(ctx context.Context, out io.Writer, services *common.Services, cfg *models.Config) (int, error) {
	lease, err := services.Locker.Acquire(ctx, lock.SweepKey, cfg.Settlement.LockTTL)
	if err != nil {
		if errors.Is(err, lock.ErrLockHeld) {
			fmt.Fprintln(out, "Outro processamento de saques agendados está em andamento.")
			return 0, nil
		}
		return 1, err
	}
	defer func() {
		if err := lease.Release(context.WithoutCancel(ctx)); err != nil {
			zap.L().Warn("Failed to release sweep lock", zap.Error(err))
		}
	}()

	ctx = models.WithWithdrawOrigin(ctx, &models.WithdrawOrigin{Channel: models.OriginCLI})
	result, err := services.Withdraws.ProcessScheduledWithdraws(ctx)
	if err != nil {
		return 1, err
	}

	printResult(out, result)
	if result.Failed > 0 {
		return 1, nil
	}
	return 0, nil
}

func main() {
	ctx := context.Background()

	_, loggerCleanup := common.InitializeLogger()

	cfg, err := config.Load()
	if err != nil {
		zap.L().Fatal("Failed to load config", zap.Error(err))
	}

	services, err := common.InitializeServices(ctx, cfg)
	if err != nil {
		zap.L().Fatal("Failed to initialize services", zap.Error(err))
	}

	code, err := run(ctx, os.Stdout, services, cfg)
	if err != nil {
		zap.L().Error("Scheduled withdraw sweep failed", zap.Error(err))
		fmt.Fprintf(os.Stderr, "Erro: %v\n", err)
	}

	services.Close()
	loggerCleanup()
	os.Exit(code)
}
