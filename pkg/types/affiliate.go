package types

type AffiliateTier string

const (
	AffiliateTierBronze  AffiliateTier = "bronze"
	AffiliateTierSilver  AffiliateTier = "silver"
	AffiliateTierGold    AffiliateTier = "gold"
	AffiliateTierDiamond AffiliateTier = "diamond"
)

type ReferralStatus string

const (
	ReferralStatusPending ReferralStatus = "pending"
	ReferralStatusActive  ReferralStatus = "active"
)

type CommissionStatus string

const (
	CommissionStatusPending CommissionStatus = "pending"
	CommissionStatusPaid    CommissionStatus = "paid"
)

type PayoutStatus string

const (
	PayoutStatusPending    PayoutStatus = "pending"
	PayoutStatusProcessing PayoutStatus = "processing"
	PayoutStatusCompleted  PayoutStatus = "completed"
	PayoutStatusRejected   PayoutStatus = "rejected"
)
