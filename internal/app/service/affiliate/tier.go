package affiliate

import "github.com/feiralivre/monetize/pkg/types"

// Per-transaction-type commission rates in basis points, used when the
// affiliate carries no per-affiliate override.
var defaultRateBps = map[types.TransactionType]int64{
	types.TransactionTypeCreditTopup:         1000,
	types.TransactionTypeBoostActivation:     1500,
	types.TransactionTypePremiumPlan:         2000,
	types.TransactionTypeContentSubscription: 1000,
}

// Additive tier bonus in basis points.
var tierBonusBps = map[types.AffiliateTier]int64{
	types.AffiliateTierBronze:  0,
	types.AffiliateTierSilver:  200,
	types.AffiliateTierGold:    500,
	types.AffiliateTierDiamond: 1000,
}

// TierForActiveReferrals maps the active-referral count onto a tier.
// Tiers only ever move up because the count never decreases.
func TierForActiveReferrals(active int64) types.AffiliateTier {
	switch {
	case active >= 50:
		return types.AffiliateTierDiamond
	case active >= 20:
		return types.AffiliateTierGold
	case active >= 5:
		return types.AffiliateTierSilver
	default:
		return types.AffiliateTierBronze
	}
}

// effectiveRateBps resolves the commission rate for one transaction: the
// affiliate's own base rate when set, otherwise the per-type default, plus
// the tier bonus.
func effectiveRateBps(baseRateBps int64, tier types.AffiliateTier, txType types.TransactionType) int64 {
	rate := baseRateBps
	if rate <= 0 {
		rate = defaultRateBps[txType]
	}
	return rate + tierBonusBps[tier]
}

// commissionCents applies a basis-point rate to an amount, truncating
// fractional cents toward zero.
func commissionCents(amountCents, rateBps int64) int64 {
	return amountCents * rateBps / 10_000
}
