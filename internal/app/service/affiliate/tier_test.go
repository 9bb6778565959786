package affiliate

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/feiralivre/monetize/pkg/types"
)

func TestTierForActiveReferrals(t *testing.T) {
	cases := []struct {
		active int64
		want   types.AffiliateTier
	}{
		{0, types.AffiliateTierBronze},
		{4, types.AffiliateTierBronze},
		{5, types.AffiliateTierSilver},
		{19, types.AffiliateTierSilver},
		{20, types.AffiliateTierGold},
		{49, types.AffiliateTierGold},
		{50, types.AffiliateTierDiamond},
		{500, types.AffiliateTierDiamond},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, TierForActiveReferrals(tc.active), "active=%d", tc.active)
	}
}

func TestEffectiveRateBps_DefaultsByType(t *testing.T) {
	require.EqualValues(t, 1000, effectiveRateBps(0, types.AffiliateTierBronze, types.TransactionTypeCreditTopup))
	require.EqualValues(t, 1500, effectiveRateBps(0, types.AffiliateTierBronze, types.TransactionTypeBoostActivation))
	require.EqualValues(t, 2000, effectiveRateBps(0, types.AffiliateTierBronze, types.TransactionTypePremiumPlan))
	require.EqualValues(t, 1000, effectiveRateBps(0, types.AffiliateTierBronze, types.TransactionTypeContentSubscription))
}

func TestEffectiveRateBps_TierBonusIsAdditive(t *testing.T) {
	require.EqualValues(t, 1200, effectiveRateBps(0, types.AffiliateTierSilver, types.TransactionTypeCreditTopup))
	require.EqualValues(t, 1500, effectiveRateBps(0, types.AffiliateTierGold, types.TransactionTypeCreditTopup))
	require.EqualValues(t, 2000, effectiveRateBps(0, types.AffiliateTierDiamond, types.TransactionTypeCreditTopup))
}

func TestEffectiveRateBps_BaseRateOverridesDefault(t *testing.T) {
	// Per-affiliate override replaces the type default but still earns the bonus.
	require.EqualValues(t, 800, effectiveRateBps(800, types.AffiliateTierBronze, types.TransactionTypePremiumPlan))
	require.EqualValues(t, 1300, effectiveRateBps(800, types.AffiliateTierGold, types.TransactionTypePremiumPlan))
}

func TestCommissionCents_SilverTopup(t *testing.T) {
	// A R$20.00 top-up referred by a silver affiliate with the 10% base rate
	// earns 12% = R$2.40.
	rate := effectiveRateBps(0, types.AffiliateTierSilver, types.TransactionTypeCreditTopup)
	require.EqualValues(t, 240, commissionCents(2000, rate))
}

func TestCommissionCents_TruncatesFractionalCents(t *testing.T) {
	// 10% of 99 cents is 9.9 cents; fractions are dropped, never rounded up.
	require.EqualValues(t, 9, commissionCents(99, 1000))
	require.EqualValues(t, 0, commissionCents(1, 1000))
}
