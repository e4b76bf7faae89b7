package api

import (
	"context"
	"testing"
	"time"

	"pix-withdraw-go/internal/models"
	"pix-withdraw-go/internal/notify"
	"pix-withdraw-go/internal/store"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSweepSettlesDueWithdraw(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	withdraw, err := env.service.CreateWithdraw(ctx, env.account(t, joaoId),
		scheduledCommand("100.00", env.clock.Now().Add(time.Hour)))
	require.NoError(t, err)

	// not yet due
	result, err := env.service.ProcessScheduledWithdraws(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Processed)
	assert.Equal(t, 0, result.Failed)
	assert.Empty(t, result.Errors)

	env.clock.Advance(2 * time.Hour)
	result, err = env.service.ProcessScheduledWithdraws(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Processed)
	assert.Equal(t, 0, result.Failed)

	assert.Equal(t, "900", env.account(t, joaoId).Balance.String())
	stored := env.withdraw(t, withdraw.Id)
	assert.True(t, stored.Done)
	assert.False(t, stored.Error)

	sent := env.notifier.sent()
	require.Len(t, sent, 2)
	confirmation, ok := sent[1].(notify.WithdrawConfirmation)
	require.True(t, ok, "Expected WithdrawConfirmation, got %T", sent[1])
	assert.True(t, confirmation.Scheduled)
	assert.Equal(t, withdraw.Id, confirmation.WithdrawId)
	assert.Equal(t, []string{withdraw.Id}, env.journal.ids)
}

func TestSweepIsIdempotent(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	_, err := env.service.CreateWithdraw(ctx, env.account(t, joaoId),
		scheduledCommand("300.00", env.clock.Now().Add(time.Minute)))
	require.NoError(t, err)
	env.clock.Advance(time.Hour)

	first, err := env.service.ProcessScheduledWithdraws(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, first.Processed)

	second, err := env.service.ProcessScheduledWithdraws(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, second.Processed)
	assert.Equal(t, 0, second.Failed)
	assert.Equal(t, "700", env.account(t, joaoId).Balance.String())
}

func TestSweepFlagsInsufficientBalance(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	withdraw, err := env.service.CreateWithdraw(ctx, env.account(t, joaoId),
		scheduledCommand("1500.00", env.clock.Now().Add(time.Minute)))
	require.NoError(t, err)
	env.clock.Advance(time.Hour)

	result, err := env.service.ProcessScheduledWithdraws(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Processed)
	assert.Equal(t, 1, result.Failed)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, withdraw.Id, result.Errors[0].WithdrawId)
	assert.Contains(t, result.Errors[0].Error, "Insufficient balance")

	stored := env.withdraw(t, withdraw.Id)
	assert.False(t, stored.Done)
	assert.True(t, stored.Error)
	assert.Contains(t, stored.ErrorReason, "Insufficient balance")
	assert.Equal(t, models.WithdrawStatusError, stored.Status())
	assert.Equal(t, "1000", env.account(t, joaoId).Balance.String())

	sent := env.notifier.sent()
	require.Len(t, sent, 2)
	scheduleErr, ok := sent[1].(notify.ScheduleError)
	require.True(t, ok, "Expected ScheduleError, got %T", sent[1])
	assert.Equal(t, MessageInsufficientBalance, scheduleErr.ErrorMessage)
	assert.Equal(t, "João Silva", scheduleErr.AccountName)
	assert.Empty(t, env.journal.ids)

	// a flagged withdraw is terminal
	again, err := env.service.ProcessScheduledWithdraws(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, again.Failed)
	assert.Equal(t, 0, again.Processed)
}

func TestSweepContinuesAfterFailure(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	base := env.clock.Now()

	failing, err := env.service.CreateWithdraw(ctx, env.account(t, joaoId),
		scheduledCommand("5000.00", base.Add(time.Minute)))
	require.NoError(t, err)
	ok, err := env.service.CreateWithdraw(ctx, env.account(t, joaoId),
		scheduledCommand("250.00", base.Add(2*time.Minute)))
	require.NoError(t, err)
	env.clock.Advance(time.Hour)

	result, err := env.service.ProcessScheduledWithdraws(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Processed)
	assert.Equal(t, 1, result.Failed)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, failing.Id, result.Errors[0].WithdrawId)

	assert.True(t, env.withdraw(t, ok.Id).Done)
	assert.True(t, env.withdraw(t, failing.Id).Error)
	assert.Equal(t, "750", env.account(t, joaoId).Balance.String())
}

func TestSweepCountsMissingAccountAsFailed(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	created := env.clock.Now()
	scheduledFor := created.Add(-time.Minute)
	withdraw := &models.Withdraw{
		Id:           "orphan-withdraw",
		AccountId:    "550e8400-e29b-41d4-a716-446655449999",
		Method:       models.MethodPix,
		Amount:       decimal.RequireFromString("10.00"),
		Scheduled:    true,
		ScheduledFor: &scheduledFor,
		CreatedAt:    created,
		UpdatedAt:    created,
	}

	// foreign keys are not enforced on the bare in-memory connection
	err := env.store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.InsertWithdraw(ctx, withdraw); err != nil {
			return err
		}
		return tx.InsertPixDetail(ctx, &models.PixDetail{WithdrawId: withdraw.Id, Type: pixType, Key: pixKey})
	})
	require.NoError(t, err)

	result, err := env.service.ProcessScheduledWithdraws(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Failed)
	assert.True(t, env.withdraw(t, withdraw.Id).Error)

	sent := env.notifier.sent()
	require.Len(t, sent, 1)
	scheduleErr, ok := sent[0].(notify.ScheduleError)
	require.True(t, ok)
	assert.Equal(t, "cliente", scheduleErr.AccountName)
	assert.Equal(t, MessageSettlementFailed, scheduleErr.ErrorMessage)
}

func TestSweepSkipsWithdrawSettledElsewhere(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	withdraw, err := env.service.CreateWithdraw(ctx, env.account(t, joaoId),
		scheduledCommand("50.00", env.clock.Now().Add(time.Minute)))
	require.NoError(t, err)
	env.clock.Advance(time.Hour)

	due, err := env.store.GetDueScheduledWithdraws(ctx, env.clock.Now())
	require.NoError(t, err)
	require.Len(t, due, 1)

	// a concurrent sweep settles it between selection and processing
	require.NoError(t, env.store.WithTx(ctx, func(tx store.Tx) error {
		return tx.MarkWithdrawDone(ctx, withdraw.Id)
	}))

	result := &models.SweepResult{Errors: []models.SweepError{}}
	env.service.settleScheduledWithdraw(ctx, &due[0], result)

	assert.Equal(t, 0, result.Processed)
	assert.Equal(t, 0, result.Failed)
	assert.Equal(t, 1, result.Skipped)
	assert.Equal(t, "1000", env.account(t, joaoId).Balance.String())
	assert.False(t, env.withdraw(t, withdraw.Id).Error)
}

func TestSweepStopsWhenContextIsCancelled(t *testing.T) {
	env := setupTestEnv(t)
	base := env.clock.Now()

	withdraw, err := env.service.CreateWithdraw(context.Background(), env.account(t, joaoId),
		scheduledCommand("10.00", base.Add(time.Minute)))
	require.NoError(t, err)
	env.clock.Advance(time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := env.service.ProcessScheduledWithdraws(ctx)
	if err == nil {
		assert.Equal(t, 0, result.Processed)
		assert.Equal(t, 0, result.Failed)
	}

	stored := env.withdraw(t, withdraw.Id)
	assert.False(t, stored.Done)
	assert.False(t, stored.Error)
}

func TestSweepWithNothingDue(t *testing.T) {
	env := setupTestEnv(t)

	result, err := env.service.ProcessScheduledWithdraws(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, result.Processed)
	assert.Equal(t, 0, result.Failed)
	assert.NotNil(t, result.Errors)
}
