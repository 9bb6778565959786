package ledger

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/feiralivre/monetize/internal/models"
)

func TestErrInsufficientBalance_IsWrapFriendly(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", ErrInsufficientBalance)
	require.True(t, errors.Is(err, ErrInsufficientBalance))
}

func TestApplyToAccount_CreditAndDebit(t *testing.T) {
	acc := &models.CreditAccount{}

	require.NoError(t, applyToAccount(acc, 100))
	require.EqualValues(t, 100, acc.Balance)
	require.EqualValues(t, 100, acc.LifetimeEarned)

	require.NoError(t, applyToAccount(acc, -30))
	require.EqualValues(t, 70, acc.Balance)
	require.EqualValues(t, 30, acc.LifetimeSpent)
	require.EqualValues(t, 100, acc.LifetimeEarned)
}

func TestApplyToAccount_RejectsOverdraft(t *testing.T) {
	acc := &models.CreditAccount{Balance: 10}

	err := applyToAccount(acc, -11)
	require.ErrorIs(t, err, ErrInsufficientBalance)

	// The account must be untouched after a rejected debit.
	require.EqualValues(t, 10, acc.Balance)
	require.EqualValues(t, 0, acc.LifetimeSpent)
}

func TestApplyToAccount_ExactDrainAllowed(t *testing.T) {
	acc := &models.CreditAccount{Balance: 50}
	require.NoError(t, applyToAccount(acc, -50))
	require.EqualValues(t, 0, acc.Balance)
}

func TestApplyToAccount_ReplayReproducesState(t *testing.T) {
	amounts := []int64{100, -40, 25, -85, 10}

	acc := &models.CreditAccount{}
	for _, a := range amounts {
		require.NoError(t, applyToAccount(acc, a))
	}

	var balance, earned, spent int64
	for _, a := range amounts {
		balance += a
		if a >= 0 {
			earned += a
		} else {
			spent += -a
		}
	}
	require.Equal(t, balance, acc.Balance)
	require.Equal(t, earned, acc.LifetimeEarned)
	require.Equal(t, spent, acc.LifetimeSpent)
}

func TestApplyToAccount_NoPrefixGoesNegative(t *testing.T) {
	acc := &models.CreditAccount{Balance: 5}

	require.ErrorIs(t, applyToAccount(acc, -6), ErrInsufficientBalance)
	require.NoError(t, applyToAccount(acc, -5))
	require.ErrorIs(t, applyToAccount(acc, -1), ErrInsufficientBalance)
}
