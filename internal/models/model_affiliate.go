package models

import (
	"time"

	"github.com/feiralivre/monetize/pkg/types"
)

// Affiliate is created once at enrollment. PendingPayoutCents and the lifetime
// totals move only together with commission rows and payout completions.
type Affiliate struct {
	ID           string `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	UserID       string `gorm:"column:user_id;type:varchar(64);not null;uniqueIndex" json:"user_id"`
	Code         string `gorm:"column:code;type:varchar(32);not null;uniqueIndex" json:"code"`
	ReferralLink string `gorm:"column:referral_link;type:varchar(255);not null" json:"referral_link"`

	Tier types.AffiliateTier `gorm:"column:tier;type:varchar(16);not null;default:'bronze'" json:"tier"`
	// BaseRateBps overrides the per-transaction-type default rate when > 0.
	// Basis points: 1000 = 10%.
	BaseRateBps int64 `gorm:"column:base_rate_bps;type:bigint;not null;default:0" json:"base_rate_bps"`

	PendingPayoutCents int64 `gorm:"column:pending_payout_cents;type:bigint;not null;default:0" json:"pending_payout_cents"`
	TotalEarnedCents   int64 `gorm:"column:total_earned_cents;type:bigint;not null;default:0" json:"total_earned_cents"`
	TotalPaidOutCents  int64 `gorm:"column:total_paid_out_cents;type:bigint;not null;default:0" json:"total_paid_out_cents"`

	PixKey string `gorm:"column:pix_key;type:varchar(128)" json:"pix_key"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Affiliate) TableName() string {
	return "affiliate"
}

// AffiliateReferral is one referred user. Status flips pending to active on
// the referred user's first qualifying transaction and never flips back.
type AffiliateReferral struct {
	ID             string               `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	AffiliateID    string               `gorm:"column:affiliate_id;type:uuid;not null;index" json:"affiliate_id"`
	ReferredUserID string               `gorm:"column:referred_user_id;type:varchar(64);not null;uniqueIndex" json:"referred_user_id"`
	Status         types.ReferralStatus `gorm:"column:status;type:varchar(16);not null;index" json:"status"`

	TransactionCount      int64 `gorm:"column:transaction_count;type:bigint;not null;default:0" json:"transaction_count"`
	RevenueCents          int64 `gorm:"column:revenue_cents;type:bigint;not null;default:0" json:"revenue_cents"`
	CommissionEarnedCents int64 `gorm:"column:commission_earned_cents;type:bigint;not null;default:0" json:"commission_earned_cents"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (AffiliateReferral) TableName() string {
	return "affiliate_referral"
}

// AffiliateCommission is one immutable accrual. TransactionID is unique so
// redelivered transaction events accrue at most once.
type AffiliateCommission struct {
	ID              string                 `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	AffiliateID     string                 `gorm:"column:affiliate_id;type:uuid;not null;index" json:"affiliate_id"`
	ReferralID      string                 `gorm:"column:referral_id;type:uuid;not null;index" json:"referral_id"`
	TransactionID   string                 `gorm:"column:transaction_id;type:varchar(64);not null;uniqueIndex" json:"transaction_id"`
	Type            types.TransactionType  `gorm:"column:type;type:varchar(32);not null" json:"type"`
	AmountCents     int64                  `gorm:"column:amount_cents;type:bigint;not null" json:"amount_cents"`
	RateBps         int64                  `gorm:"column:rate_bps;type:bigint;not null" json:"rate_bps"`
	CommissionCents int64                  `gorm:"column:commission_cents;type:bigint;not null" json:"commission_cents"`
	Status          types.CommissionStatus `gorm:"column:status;type:varchar(16);not null;index" json:"status"`
	CreatedAt       time.Time              `json:"created_at"`
}

func (AffiliateCommission) TableName() string {
	return "affiliate_commission"
}

// AffiliatePayout is a withdrawal request against the pending balance. The
// balance is only decremented when an external back office marks the payout
// completed, so a later rejection never double-books.
type AffiliatePayout struct {
	ID          string             `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	AffiliateID string             `gorm:"column:affiliate_id;type:uuid;not null;index" json:"affiliate_id"`
	AmountCents int64              `gorm:"column:amount_cents;type:bigint;not null" json:"amount_cents"`
	Status      types.PayoutStatus `gorm:"column:status;type:varchar(16);not null;index" json:"status"`
	PixKey      string             `gorm:"column:pix_key;type:varchar(128);not null" json:"pix_key"`
	CompletedAt *time.Time         `gorm:"column:completed_at;default:null" json:"completed_at"`
	CreatedAt   time.Time          `json:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at"`
}

func (AffiliatePayout) TableName() string {
	return "affiliate_payout"
}
