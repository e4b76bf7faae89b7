package store

import (
	"context"
	"errors"
	"time"

	"pix-withdraw-go/internal/models"

	"github.com/shopspring/decimal"
)

// Sentinel errors shared across all backend implementations.
var (
	ErrAccountNotFound        = errors.New("account not found")
	ErrWithdrawNotFound       = errors.New("withdraw not found")
	ErrConcurrentModification = errors.New("concurrent modification detected")
	ErrWithdrawSettled        = errors.New("withdraw already settled")
	ErrDuplicateAccount       = errors.New("account already exists")
)

// CreateAccountParams contains the parameters for creating an account.
type CreateAccountParams struct {
	Id      string
	Name    string
	Balance decimal.Decimal
}

// DemoAccounts are created at schema init when CREATE_DEMO_ACCOUNTS is set.
var DemoAccounts = []CreateAccountParams{
	{Id: "550e8400-e29b-41d4-a716-446655440001", Name: "João Silva", Balance: decimal.RequireFromString("1000.00")},
	{Id: "550e8400-e29b-41d4-a716-446655440002", Name: "Maria Santos", Balance: decimal.RequireFromString("2500.50")},
	{Id: "550e8400-e29b-41d4-a716-446655440003", Name: "Pedro Costa", Balance: decimal.RequireFromString("500.00")},
}

// Tx is a unit of work scoped by WithdrawStore.WithTx. It is only valid
// inside the callback that received it.
type Tx interface {
	// GetAccountForUpdate loads an account and holds whatever lock the
	// backend uses until the transaction ends. Returns ErrAccountNotFound.
	GetAccountForUpdate(ctx context.Context, accountId string) (*models.Account, error)

	// UpdateAccountBalance persists account.Balance if account.Version still
	// matches the stored row, then bumps account.Version. Returns
	// ErrConcurrentModification when the row changed underneath.
	UpdateAccountBalance(ctx context.Context, account *models.Account) error

	InsertWithdraw(ctx context.Context, withdraw *models.Withdraw) error
	InsertPixDetail(ctx context.Context, pix *models.PixDetail) error

	// MarkWithdrawDone flips done only on rows that are neither done nor
	// errored. Returns ErrWithdrawSettled otherwise.
	MarkWithdrawDone(ctx context.Context, withdrawId string) error
}

// WithdrawStore defines the persistence operations required by the
// withdraw workflow and the settlement sweep.
type WithdrawStore interface {
	// --- Transactions ---

	// WithTx runs fn inside a transaction, committing when fn returns nil and
	// rolling back otherwise (including on panic).
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// --- Accounts ---

	GetAccount(ctx context.Context, accountId string) (*models.Account, error)
	GetAccounts(ctx context.Context) ([]models.Account, error)
	CreateAccount(ctx context.Context, params CreateAccountParams) (*models.Account, error)

	// --- Withdraws ---

	GetWithdraw(ctx context.Context, withdrawId string) (*models.Withdraw, error)
	GetWithdrawsByAccount(ctx context.Context, accountId string, limit int) ([]models.Withdraw, error)
	GetPixDetail(ctx context.Context, withdrawId string) (*models.PixDetail, error)

	// GetDueScheduledWithdraws returns scheduled withdraws that are neither
	// done nor errored and whose scheduled_for is at or before now.
	GetDueScheduledWithdraws(ctx context.Context, now time.Time) ([]models.Withdraw, error)

	// MarkWithdrawError flags a not-yet-done withdraw as failed. It runs
	// outside any settlement transaction so the flag survives the rollback.
	MarkWithdrawError(ctx context.Context, withdrawId, reason string) error

	// --- Lifecycle ---

	Ping(ctx context.Context) error
	Close()
}
