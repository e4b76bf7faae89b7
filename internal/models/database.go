package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	MethodPix    = "PIX"
	PixTypeEmail = "email"
)

// Withdraw statuses derived from the done/error/scheduled flags
const (
	WithdrawStatusExecuted = "executed"
	WithdrawStatusPending  = "pending"
	WithdrawStatusDone     = "done"
	WithdrawStatusError    = "error"
)

// Account represents a bank account holding a single-currency balance
type Account struct {
	Id        string          `db:"id"`
	Name      string          `db:"name"`
	Balance   decimal.Decimal `db:"balance"`
	Version   int64           `db:"version"`
	CreatedAt time.Time       `db:"created_at"`
	UpdatedAt time.Time       `db:"updated_at"`
}

// Withdraw represents a withdraw request, immediate or scheduled
type Withdraw struct {
	Id           string          `db:"id"`
	AccountId    string          `db:"account_id"`
	Method       string          `db:"method"`
	Amount       decimal.Decimal `db:"amount"`
	Scheduled    bool            `db:"scheduled"`
	ScheduledFor *time.Time      `db:"scheduled_for"`
	Done         bool            `db:"done"`
	Error        bool            `db:"error"`
	ErrorReason  string          `db:"error_reason"`
	CreatedAt    time.Time       `db:"created_at"`
	UpdatedAt    time.Time       `db:"updated_at"`
}

// Status collapses the state flags into a single label.
func (w *Withdraw) Status() string {
	switch {
	case w.Error:
		return WithdrawStatusError
	case w.Scheduled && w.Done:
		return WithdrawStatusDone
	case w.Scheduled:
		return WithdrawStatusPending
	default:
		return WithdrawStatusExecuted
	}
}

// PixDetail is the PIX payout destination owned by a withdraw
type PixDetail struct {
	WithdrawId string `db:"account_withdraw_id"`
	Type       string `db:"type"`
	Key        string `db:"key"`
}
