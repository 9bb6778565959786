package affiliate

import "errors"

var (
	ErrAffiliateNotFound          = errors.New("affiliate not found")
	ErrAlreadyEnrolled            = errors.New("user is already enrolled as an affiliate")
	ErrReferralCodeNotFound       = errors.New("referral code not found")
	ErrAlreadyReferred            = errors.New("user is already referred")
	ErrSelfReferral               = errors.New("affiliates cannot refer themselves")
	ErrBelowMinimumPayout         = errors.New("payout amount is below the minimum")
	ErrInsufficientPendingBalance = errors.New("payout amount exceeds pending balance")
	ErrPayoutNotFound             = errors.New("payout not found")
	ErrPayoutNotPending           = errors.New("payout is not in a pending state")
)
