package postgres

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"pix-withdraw-go/internal/models"
	"pix-withdraw-go/internal/store"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestService(t *testing.T) *Service {
	t.Helper()

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL is not set")
	}

	service, err := NewService(context.Background(), models.PostgresConfig{
		URL:         dsn,
		MaxConns:    8,
		PingTimeout: 5 * time.Second,
	})
	require.NoError(t, err)
	t.Cleanup(service.Close)
	return service
}

func createTestAccount(t *testing.T, service *Service, balance string) *models.Account {
	t.Helper()
	account, err := service.CreateAccount(context.Background(), store.CreateAccountParams{
		Name:    "Test " + uuid.NewString()[:8],
		Balance: decimal.RequireFromString(balance),
	})
	require.NoError(t, err)
	return account
}

func TestScheduledWithdrawRoundTrip(t *testing.T) {
	service := setupTestService(t)
	ctx := context.Background()
	account := createTestAccount(t, service, "1000.00")

	past := time.Now().Add(-time.Minute).UTC()
	withdraw := &models.Withdraw{
		Id:           uuid.NewString(),
		AccountId:    account.Id,
		Method:       models.MethodPix,
		Amount:       decimal.RequireFromString("100.00"),
		Scheduled:    true,
		ScheduledFor: &past,
		CreatedAt:    time.Now().UTC(),
		UpdatedAt:    time.Now().UTC(),
	}

	require.NoError(t, service.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.InsertWithdraw(ctx, withdraw); err != nil {
			return err
		}
		return tx.InsertPixDetail(ctx, &models.PixDetail{WithdrawId: withdraw.Id, Type: models.PixTypeEmail, Key: "pg@example.com"})
	}))

	due, err := service.GetDueScheduledWithdraws(ctx, time.Now())
	require.NoError(t, err)
	found := false
	for _, w := range due {
		if w.Id == withdraw.Id {
			found = true
		}
	}
	assert.True(t, found, "Expected withdraw %s to be due", withdraw.Id)

	require.NoError(t, service.WithTx(ctx, func(tx store.Tx) error {
		locked, err := tx.GetAccountForUpdate(ctx, account.Id)
		if err != nil {
			return err
		}
		locked.Balance = locked.Balance.Sub(withdraw.Amount)
		if err := tx.UpdateAccountBalance(ctx, locked); err != nil {
			return err
		}
		return tx.MarkWithdrawDone(ctx, withdraw.Id)
	}))

	loaded, err := service.GetAccount(ctx, account.Id)
	require.NoError(t, err)
	assert.Equal(t, "900", loaded.Balance.String())

	err = service.MarkWithdrawError(ctx, withdraw.Id, "late")
	assert.ErrorIs(t, err, store.ErrWithdrawSettled)
}

func TestRowLockSerializesConcurrentDebits(t *testing.T) {
	service := setupTestService(t)
	ctx := context.Background()
	account := createTestAccount(t, service, "100.00")

	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0

	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := service.WithTx(ctx, func(tx store.Tx) error {
				locked, err := tx.GetAccountForUpdate(ctx, account.Id)
				if err != nil {
					return err
				}
				amount := decimal.RequireFromString("30.00")
				if locked.Balance.LessThan(amount) {
					return errors.New("insufficient")
				}
				locked.Balance = locked.Balance.Sub(amount)
				return tx.UpdateAccountBalance(ctx, locked)
			})
			if err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 3, succeeded)
	loaded, err := service.GetAccount(ctx, account.Id)
	require.NoError(t, err)
	assert.Equal(t, "10", loaded.Balance.String())
}
