package activation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/feiralivre/monetize/pkg/types"
)

func TestBuildActivation_SupersedesPriorOfSameType(t *testing.T) {
	now := time.Now()
	offering := &types.Offering{
		ID:            "boost-7d",
		Kind:          types.OfferingKindBoost,
		Name:          "Destaque 7 dias",
		DurationHours: 7 * 24,
		Active:        true,
	}

	prior := boostActivation(types.ActivationStatusActive, now.Add(-24*time.Hour), now.Add(6*24*time.Hour), offering)
	require.True(t, prior.ActiveAt(now))

	// The prior window closes the instant the successor opens; at no point do
	// two activations of the same type key overlap.
	supersedeActivation(prior, now)
	require.False(t, prior.ActiveAt(now))
	require.Equal(t, types.ActivationStatusExpired, prior.Status)
	require.True(t, prior.EndsAt.Equal(now))

	act := buildActivation(createActivationParams{
		ID:            "act-2",
		Offering:      offering,
		ListingID:     prior.ListingID,
		OwnerID:       "user-1",
		PaymentMethod: types.PaymentMethodCredits,
	}, prior, now)

	require.True(t, act.ActiveAt(now.Add(time.Minute)))
	require.Equal(t, prior.TypeKey, act.TypeKey)
	require.Equal(t, prior.ID, act.Extra.Data().SupersededID)
	require.True(t, act.EndsAt.Equal(now.Add(offering.Duration())))
}

func TestBuildActivation_NoPrior(t *testing.T) {
	now := time.Now()
	offering := &types.Offering{
		ID:            "premium-featured",
		Kind:          types.OfferingKindPremiumService,
		ServiceType:   "featured_listing",
		DurationHours: 30 * 24,
		Active:        true,
	}

	act := buildActivation(createActivationParams{
		Offering:      offering,
		ListingID:     "listing-1",
		OwnerID:       "user-1",
		PaymentMethod: types.PaymentMethodMoney,
	}, nil, now)

	require.NotEmpty(t, act.ID)
	require.Equal(t, "premium_service:featured_listing", act.TypeKey)
	require.Empty(t, act.Extra.Data().SupersededID)
	require.Equal(t, offering, act.Extra.Data().OfferingSnapshot)
}
