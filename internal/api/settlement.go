package api

import (
	"context"
	"errors"
	"fmt"
	"time"

	"pix-withdraw-go/internal/models"
	"pix-withdraw-go/internal/store"

	"go.uber.org/zap"
)

// ProcessScheduledWithdraws settles every scheduled withdraw that is due,
// one transaction per withdraw. A failed item is rolled back, then flagged
// with error=true in a separate write, and never stops the sweep.
func (s *WithdrawService) ProcessScheduledWithdraws(ctx context.Context) (*models.SweepResult, error) {
	started := time.Now()
	defer func() { sweepDuration.Observe(time.Since(started).Seconds()) }()

	if models.GetWithdrawOrigin(ctx) == nil {
		ctx = models.WithWithdrawOrigin(ctx, &models.WithdrawOrigin{Channel: models.OriginSettlement})
	}

	due, err := s.store.GetDueScheduledWithdraws(ctx, s.now())
	if err != nil {
		return nil, fmt.Errorf("failed to load due scheduled withdraws: %w", err)
	}

	result := &models.SweepResult{Errors: []models.SweepError{}}
	if len(due) == 0 {
		zap.L().Debug("No scheduled withdraws due")
		return result, nil
	}

	zap.L().Info("Processing scheduled withdraws", zap.Int("due", len(due)))
	for i := range due {
		if ctx.Err() != nil {
			zap.L().Warn("Sweep interrupted, remaining withdraws stay pending",
				zap.Int("remaining", len(due)-i),
				zap.Error(ctx.Err()))
			break
		}
		s.settleScheduledWithdraw(ctx, &due[i], result)
	}

	zap.L().Info("Scheduled withdraw sweep finished",
		zap.Int("processed", result.Processed),
		zap.Int("failed", result.Failed),
		zap.Int("skipped", result.Skipped),
		zap.Duration("duration", time.Since(started)))

	return result, nil
}

func (s *WithdrawService) settleScheduledWithdraw(ctx context.Context, withdraw *models.Withdraw, result *models.SweepResult) {
	var account *models.Account
	err := s.store.WithTx(ctx, func(tx store.Tx) error {
		locked, err := tx.GetAccountForUpdate(ctx, withdraw.AccountId)
		if err != nil {
			return err
		}
		account = locked
		return s.ExecuteWithdraw(ctx, tx, withdraw, locked)
	})

	if err == nil {
		result.Processed++
		settlementOutcomes.WithLabelValues(outcomeProcessed).Inc()
		zap.L().Info("Scheduled withdraw settled",
			zap.String("withdraw_id", withdraw.Id),
			zap.String("account_id", account.Id),
			zap.String("amount", withdraw.Amount.String()),
			zap.String("new_balance", account.Balance.String()))

		pix := s.loadPixDetail(ctx, withdraw.Id)
		s.notifySettled(ctx, withdraw, account, pix)
		s.journalPayout(ctx, withdraw, account, pix)
		return
	}

	withdraw.Done = false

	// Another sweep got there first, or we are shutting down: leave the row alone.
	if errors.Is(err, store.ErrWithdrawSettled) || ctx.Err() != nil {
		s.skip(withdraw, result, err)
		return
	}

	if markErr := s.store.MarkWithdrawError(ctx, withdraw.Id, err.Error()); markErr != nil {
		if errors.Is(markErr, store.ErrWithdrawSettled) {
			s.skip(withdraw, result, markErr)
			return
		}
		zap.L().Error("Failed to flag scheduled withdraw as failed",
			zap.String("withdraw_id", withdraw.Id),
			zap.Error(markErr))
	} else {
		withdraw.Error = true
		withdraw.ErrorReason = err.Error()
	}

	result.Failed++
	result.Errors = append(result.Errors, models.SweepError{WithdrawId: withdraw.Id, Error: err.Error()})
	settlementOutcomes.WithLabelValues(outcomeFailed).Inc()

	zap.L().Error("Failed to process scheduled withdraw",
		zap.String("withdraw_id", withdraw.Id),
		zap.String("account_id", withdraw.AccountId),
		zap.String("amount", withdraw.Amount.String()),
		zap.Error(err))

	if pix := s.loadPixDetail(ctx, withdraw.Id); pix != nil {
		s.notifySettlementFailure(ctx, withdraw, account, pix, err)
	}
}

func (s *WithdrawService) skip(withdraw *models.Withdraw, result *models.SweepResult, reason error) {
	result.Skipped++
	settlementOutcomes.WithLabelValues(outcomeSkipped).Inc()
	zap.L().Info("Scheduled withdraw skipped",
		zap.String("withdraw_id", withdraw.Id),
		zap.Error(reason))
}
