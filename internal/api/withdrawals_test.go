package api

import (
	"context"
	"errors"
	"testing"
	"time"

	"pix-withdraw-go/internal/models"
	"pix-withdraw-go/internal/notify"
	"pix-withdraw-go/internal/store"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) Notify(ctx context.Context, msg notify.Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

func (m *mockNotifier) Close() error { return nil }

func TestCreateImmediateWithdraw(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	account := env.account(t, joaoId)

	withdraw, err := env.service.CreateWithdraw(ctx, account, immediateCommand("150.75"))
	require.NoError(t, err)

	result := NewWithdrawResult(withdraw, account)
	assert.Equal(t, joaoId, result.AccountId)
	assert.Equal(t, withdraw.Id, result.WithdrawId)
	assert.Equal(t, "150.75", result.Amount.String())
	assert.Equal(t, "849.25", result.NewBalance.String())

	persisted := env.account(t, joaoId)
	assert.Equal(t, "849.25", persisted.Balance.String())
	assert.Equal(t, int64(1), persisted.Version)

	stored := env.withdraw(t, withdraw.Id)
	assert.False(t, stored.Scheduled)
	assert.True(t, stored.Done)
	assert.False(t, stored.Error)
	assert.Equal(t, models.WithdrawStatusExecuted, stored.Status())

	pix, err := env.store.GetPixDetail(ctx, withdraw.Id)
	require.NoError(t, err)
	assert.Equal(t, pixKey, pix.Key)
	assert.Equal(t, "email", pix.Type)

	sent := env.notifier.sent()
	require.Len(t, sent, 1)
	confirmation, ok := sent[0].(notify.WithdrawConfirmation)
	require.True(t, ok, "Expected WithdrawConfirmation, got %T", sent[0])
	assert.Equal(t, pixKey, confirmation.To)
	assert.False(t, confirmation.Scheduled)
	assert.Equal(t, "João Silva", confirmation.AccountName)

	assert.Equal(t, []string{withdraw.Id}, env.journal.ids)
}

func TestCreateImmediateWithdrawInsufficientBalance(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	account := env.account(t, joaoId)

	withdraw, err := env.service.CreateWithdraw(ctx, account, immediateCommand("1500.00"))
	require.Error(t, err)
	assert.Nil(t, withdraw)
	assert.True(t, errors.Is(err, ErrInsufficientBalance))

	var balanceErr *InsufficientBalanceError
	require.True(t, errors.As(err, &balanceErr))
	assert.Equal(t, "1000", balanceErr.Balance.String())
	assert.Equal(t, "1500", balanceErr.Requested.String())

	assert.Equal(t, "1000", env.account(t, joaoId).Balance.String())
	history, err := env.store.GetWithdrawsByAccount(ctx, joaoId, 10)
	require.NoError(t, err)
	assert.Empty(t, history)
	assert.Empty(t, env.notifier.sent())
}

func TestCreateScheduledWithdraw(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	account := env.account(t, joaoId)
	at := env.clock.Now().Add(48 * time.Hour)

	withdraw, err := env.service.CreateWithdraw(ctx, account, scheduledCommand("100.00", at))
	require.NoError(t, err)

	result := NewWithdrawResult(withdraw, account)
	assert.Equal(t, "1000", result.NewBalance.String())
	assert.Equal(t, "1000", env.account(t, joaoId).Balance.String())

	stored := env.withdraw(t, withdraw.Id)
	assert.True(t, stored.Scheduled)
	assert.False(t, stored.Done)
	assert.False(t, stored.Error)
	require.NotNil(t, stored.ScheduledFor)
	assert.True(t, stored.ScheduledFor.Equal(at))

	sent := env.notifier.sent()
	require.Len(t, sent, 1)
	_, ok := sent[0].(notify.ScheduleConfirmation)
	assert.True(t, ok, "Expected ScheduleConfirmation, got %T", sent[0])
	assert.Empty(t, env.journal.ids)
}

func TestScheduledWithdrawDefersBalanceCheck(t *testing.T) {
	env := setupTestEnv(t)
	account := env.account(t, joaoId)

	withdraw, err := env.service.CreateWithdraw(context.Background(), account,
		scheduledCommand("1500.00", env.clock.Now().Add(time.Hour)))
	require.NoError(t, err)
	assert.False(t, withdraw.Done)
	assert.Equal(t, "1000", account.Balance.String())
}

func TestNotificationFailureDoesNotAffectResult(t *testing.T) {
	env := setupTestEnv(t)
	notifier := &mockNotifier{}
	notifier.On("Notify", mock.Anything, mock.AnythingOfType("notify.WithdrawConfirmation")).
		Return(errors.New("smtp: connection refused")).Once()

	service, err := NewWithdrawService(WithdrawServiceConfig{Store: env.store, Notifier: notifier, Now: env.clock.Now})
	require.NoError(t, err)

	account := env.account(t, joaoId)
	withdraw, err := service.CreateWithdraw(context.Background(), account, immediateCommand("10.00"))
	require.NoError(t, err)
	assert.True(t, withdraw.Done)
	assert.Equal(t, "990", env.account(t, joaoId).Balance.String())
	notifier.AssertExpectations(t)
}

func TestCreateWithdrawIsAtomicWhenPixInsertFails(t *testing.T) {
	env := setupTestEnv(t)
	service, err := NewWithdrawService(WithdrawServiceConfig{
		Store:    &failingPixStore{WithdrawStore: env.store},
		Notifier: env.notifier,
		Now:      env.clock.Now,
	})
	require.NoError(t, err)

	ctx := context.Background()
	account := env.account(t, joaoId)
	_, err = service.CreateWithdraw(ctx, account, immediateCommand("10.00"))
	require.Error(t, err)

	history, err := env.store.GetWithdrawsByAccount(ctx, joaoId, 10)
	require.NoError(t, err)
	assert.Empty(t, history)
	assert.Equal(t, "1000", env.account(t, joaoId).Balance.String())
	assert.Equal(t, "1000", account.Balance.String())
	assert.Empty(t, env.notifier.sent())
}

func TestCreateWithdrawRejectsInvalidCommands(t *testing.T) {
	env := setupTestEnv(t)
	account := env.account(t, joaoId)

	tests := []struct {
		name string
		cmd  models.WithdrawCommand
		want error
	}{
		{"zero amount", immediateCommand("0"), ErrInvalidAmount},
		{"negative amount", immediateCommand("-5"), ErrInvalidAmount},
		{"other method", models.WithdrawCommand{Method: "TED", Amount: decimal.NewFromInt(1), Pix: &models.PixCommand{Type: pixType, Key: pixKey}}, ErrUnsupportedMethod},
		{"missing pix", models.WithdrawCommand{Method: "PIX", Amount: decimal.NewFromInt(1)}, ErrPixDetailRequired},
		{"phone key", models.WithdrawCommand{Method: "PIX", Amount: decimal.NewFromInt(1), Pix: &models.PixCommand{Type: "phone", Key: "+5511999998888"}}, ErrUnsupportedPixType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.service.CreateWithdraw(context.Background(), account, tt.cmd)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	assert.Equal(t, "1000", env.account(t, joaoId).Balance.String())
}

func TestLowercaseMethodIsAccepted(t *testing.T) {
	env := setupTestEnv(t)
	cmd := immediateCommand("1.00")
	cmd.Method = "pix"

	withdraw, err := env.service.CreateWithdraw(context.Background(), env.account(t, joaoId), cmd)
	require.NoError(t, err)
	assert.Equal(t, models.MethodPix, withdraw.Method)
}

func TestBalanceInvariantAcrossImmediateWithdraws(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	amounts := []string{"100.10", "250.00", "0.90", "400.00", "300.00", "249.00"}

	executed := decimal.Zero
	for _, amount := range amounts {
		account := env.account(t, joaoId)
		_, err := env.service.CreateWithdraw(ctx, account, immediateCommand(amount))
		if err != nil {
			assert.ErrorIs(t, err, ErrInsufficientBalance)
			continue
		}
		executed = executed.Add(decimal.RequireFromString(amount))
	}

	final := env.account(t, joaoId)
	assert.False(t, final.Balance.IsNegative())
	expected := decimal.RequireFromString("1000").Sub(executed)
	assert.True(t, final.Balance.Equal(expected), "Expected %s, got %s", expected, final.Balance)
}

func TestStaleAccountIsRecheckedInsideTransaction(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	stale := env.account(t, joaoId)
	fresh := env.account(t, joaoId)
	_, err := env.service.CreateWithdraw(ctx, fresh, immediateCommand("900.00"))
	require.NoError(t, err)

	// stale still believes the balance is 1000
	_, err = env.service.CreateWithdraw(ctx, stale, immediateCommand("500.00"))
	var balanceErr *InsufficientBalanceError
	require.True(t, errors.As(err, &balanceErr), "Expected InsufficientBalanceError, got %v", err)
	assert.Equal(t, "100", balanceErr.Balance.String())
	assert.Equal(t, "100", env.account(t, joaoId).Balance.String())
}

func TestExecuteWithdrawRechecksBalance(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	withdraw := &models.Withdraw{Id: "w-direct", AccountId: joaoId, Amount: decimal.RequireFromString("1000.01")}
	err := env.store.WithTx(ctx, func(tx store.Tx) error {
		account, err := tx.GetAccountForUpdate(ctx, joaoId)
		if err != nil {
			return err
		}
		return env.service.ExecuteWithdraw(ctx, tx, withdraw, account)
	})
	assert.ErrorIs(t, err, ErrInsufficientBalance)
	assert.False(t, withdraw.Done)

	other := &models.Withdraw{Id: "w-other", AccountId: "someone-else", Amount: decimal.NewFromInt(1)}
	err = env.store.WithTx(ctx, func(tx store.Tx) error {
		account, err := tx.GetAccountForUpdate(ctx, joaoId)
		if err != nil {
			return err
		}
		return env.service.ExecuteWithdraw(ctx, tx, other, account)
	})
	assert.Error(t, err)
	assert.Equal(t, "1000", env.account(t, joaoId).Balance.String())
}

func TestUserMessage(t *testing.T) {
	insufficient := &InsufficientBalanceError{Balance: decimal.NewFromInt(1), Requested: decimal.NewFromInt(2)}
	assert.Equal(t, MessageInsufficientBalance, UserMessage(insufficient))
	assert.Equal(t, MessageSettlementFailed, UserMessage(store.ErrAccountNotFound))
	assert.Equal(t, MessageSettlementFailed, UserMessage(errors.New("database is locked")))
}

func TestGetWithdrawScopesByAccount(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	withdraw, err := env.service.CreateWithdraw(ctx, env.account(t, joaoId), immediateCommand("5.00"))
	require.NoError(t, err)

	loaded, pix, err := env.service.GetWithdraw(ctx, joaoId, withdraw.Id)
	require.NoError(t, err)
	assert.Equal(t, withdraw.Id, loaded.Id)
	require.NotNil(t, pix)
	assert.Equal(t, pixKey, pix.Key)

	_, _, err = env.service.GetWithdraw(ctx, "550e8400-e29b-41d4-a716-446655440002", withdraw.Id)
	assert.ErrorIs(t, err, store.ErrWithdrawNotFound)
}
