package affiliate

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSentinelErrors_AreWrapFriendly(t *testing.T) {
	for _, sentinel := range []error{
		ErrBelowMinimumPayout,
		ErrInsufficientPendingBalance,
		ErrAffiliateNotFound,
		ErrAlreadyEnrolled,
	} {
		err := fmt.Errorf("wrapped: %w", sentinel)
		require.True(t, errors.Is(err, sentinel))
	}
}

func TestNewReferralCode_ShapeAndUniqueness(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		code := newReferralCode()
		require.Len(t, code, 8)
		require.NotContains(t, code, "-")
		require.Equal(t, strings.ToUpper(code), code)
		seen[code] = true
	}
	// Collisions over 100 draws from a 16^8 space would mean a broken generator.
	require.Greater(t, len(seen), 95)
}

func TestIsUniqueViolation(t *testing.T) {
	require.True(t, isUniqueViolation(errors.New(`ERROR: duplicate key value violates unique constraint "idx_code" (SQLSTATE 23505)`)))
	require.False(t, isUniqueViolation(errors.New("connection refused")))
	require.False(t, isUniqueViolation(nil))
}
