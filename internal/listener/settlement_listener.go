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

package listener

import (
	"context"
	"errors"
	"fmt"
	"time"

	"pix-withdraw-go/internal/lock"
	"pix-withdraw-go/internal/models"

	"go.uber.org/zap"
)

// Start begins sweeping scheduled withdraws in the background
func (l *SettlementListener) Start(ctx context.Context) error {
	if l.sweeper == nil {
		return fmt.Errorf("settlement listener requires a sweeper")
	}

	zap.L().Info("Starting settlement listener",
		zap.Duration("polling_interval", l.pollingInterval),
		zap.Duration("lock_ttl", l.lockTTL))

	go l.pollLoop(ctx)

	return nil
}

// Stop gracefully stops the settlement listener, waiting for a running sweep
func (l *SettlementListener) Stop() {
	zap.L().Info("Stopping settlement listener")
	close(l.stopChan)
	<-l.doneChan
	zap.L().Info("Settlement listener stopped")
}

// pollLoop runs the main polling loop
func (l *SettlementListener) pollLoop(ctx context.Context) {
	defer close(l.doneChan)

	ticker := time.NewTicker(l.pollingInterval)
	defer ticker.Stop()

	l.SweepOnce(ctx)

	for {
		select {
		case <-ticker.C:
			l.SweepOnce(ctx)
		case <-l.stopChan:
			return
		case <-ctx.Done():
			return
		}
	}
}

// ANSI color helpers for console output.
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
	colorGray   = "\033[90m"
)

// SweepOnce runs a single sweep under the sweep lock. It returns nil when
// another process holds the lock.
func (l *SettlementListener) SweepOnce(ctx context.Context) *models.SweepResult {
	lease, err := l.locker.Acquire(ctx, lock.SweepKey, l.lockTTL)
	if err != nil {
		if errors.Is(err, lock.ErrLockHeld) {
			fmt.Printf("%s[%s] Sweep already running elsewhere, skipping%s\n",
				colorGray, time.Now().Format("15:04:05"), colorReset)
			zap.L().Debug("Sweep lock held, skipping pass")
			return nil
		}
		zap.L().Error("Failed to acquire sweep lock", zap.Error(err))
		return nil
	}
	defer func() {
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := lease.Release(releaseCtx); err != nil {
			zap.L().Warn("Failed to release sweep lock", zap.Error(err))
		}
	}()

	sweepCtx := models.WithWithdrawOrigin(ctx, &models.WithdrawOrigin{Channel: models.OriginSettlement})
	result, err := l.sweeper.ProcessScheduledWithdraws(sweepCtx)
	if err != nil {
		fmt.Printf("%s[%s] ✗ Sweep failed: %s%s\n",
			colorRed, time.Now().Format("15:04:05"), err, colorReset)
		zap.L().Error("Scheduled withdraw sweep failed", zap.Error(err))
		return nil
	}

	printSweep(result)
	return result
}

func printSweep(result *models.SweepResult) {
	now := time.Now().Format("15:04:05")
	if result.Processed == 0 && result.Failed == 0 && result.Skipped == 0 {
		fmt.Printf("%s[%s] No scheduled withdraws due%s\n", colorGray, now, colorReset)
		return
	}

	fmt.Printf("\n%s[%s] Sweep finished%s\n", colorCyan, now, colorReset)
	if result.Processed > 0 {
		fmt.Printf("  %s✓ processed %d%s\n", colorGreen, result.Processed, colorReset)
	}
	if result.Skipped > 0 {
		fmt.Printf("  %s~ skipped %d%s\n", colorYellow, result.Skipped, colorReset)
	}
	for _, sweepErr := range result.Errors {
		fmt.Printf("  %s✗ %s: %s%s\n", colorRed, sweepErr.WithdrawId, sweepErr.Error, colorReset)
	}
}
