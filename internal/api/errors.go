package api

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrInvalidAmount       = errors.New("amount must be greater than zero")
	ErrUnsupportedMethod   = errors.New("unsupported withdraw method")
	ErrPixDetailRequired   = errors.New("pix detail is required for PIX withdraws")
	ErrUnsupportedPixType  = errors.New("only email PIX keys are supported")
)

// Customer-facing messages sent when a scheduled withdraw fails.
const (
	MessageInsufficientBalance = "Saldo insuficiente. Certifique-se de que sua conta possui saldo disponível para realizar o saque."
	MessageSettlementFailed    = "Não foi possível processar seu saque. Por favor, tente novamente mais tarde ou entre em contato com o suporte."
)

// InsufficientBalanceError reports the balance seen at check time and the
// requested amount. It matches ErrInsufficientBalance with errors.Is.
type InsufficientBalanceError struct {
	Balance   decimal.Decimal
	Requested decimal.Decimal
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("Insufficient balance: balance %s, requested %s",
		e.Balance.StringFixed(2), e.Requested.StringFixed(2))
}

func (e *InsufficientBalanceError) Is(target error) bool {
	return target == ErrInsufficientBalance
}

// UserMessage maps a settlement failure to the text shown to the customer.
func UserMessage(err error) string {
	if errors.Is(err, ErrInsufficientBalance) {
		return MessageInsufficientBalance
	}
	return MessageSettlementFailed
}
