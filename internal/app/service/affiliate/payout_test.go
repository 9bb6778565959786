package affiliate

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRequestPayout_BelowMinimum(t *testing.T) {
	// The minimum check runs before any storage access, so a bare service with
	// only the threshold configured is enough to exercise the bound.
	svc := &Service{minPayoutCents: 5000}

	_, err := svc.RequestPayout(context.Background(), "user-1", &RequestPayoutRequest{AmountCents: 4999})
	require.ErrorIs(t, err, ErrBelowMinimumPayout)

	_, err = svc.RequestPayout(context.Background(), "user-1", &RequestPayoutRequest{AmountCents: 0})
	require.ErrorIs(t, err, ErrBelowMinimumPayout)

	_, err = svc.RequestPayout(context.Background(), "user-1", &RequestPayoutRequest{AmountCents: -100})
	require.ErrorIs(t, err, ErrBelowMinimumPayout)
}
