package store

import (
	"errors"
	"fmt"
	"testing"
)

// Compile-time checks that the interfaces are importable and usable.
func TestWithdrawStoreInterfaceExists(t *testing.T) {
	_ = CreateAccountParams{}

	var _ WithdrawStore
	var _ Tx
}

func TestSentinelErrorsSurviveWrapping(t *testing.T) {
	sentinels := []error{
		ErrAccountNotFound,
		ErrWithdrawNotFound,
		ErrConcurrentModification,
		ErrWithdrawSettled,
		ErrDuplicateAccount,
	}

	for _, sentinel := range sentinels {
		wrapped := fmt.Errorf("balance update failed - %w", sentinel)
		if !errors.Is(wrapped, sentinel) {
			t.Errorf("Expected wrapped error to match %v", sentinel)
		}
	}
}
