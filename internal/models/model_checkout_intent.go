package models

import "time"

type CheckoutIntentPurpose string

const (
	CheckoutIntentPurposeActivation  CheckoutIntentPurpose = "activation"
	CheckoutIntentPurposeCreditTopup CheckoutIntentPurpose = "credit_topup"
)

type CheckoutIntentStatus string

const (
	CheckoutIntentStatusPending   CheckoutIntentStatus = "pending"
	CheckoutIntentStatusConfirmed CheckoutIntentStatus = "confirmed"
	CheckoutIntentStatusFailed    CheckoutIntentStatus = "failed"
)

// CheckoutIntent is the handoff token for money payments. The payment
// processor calls back with ExternalPaymentID exactly once on success; the
// unique index makes confirmation replays idempotent.
type CheckoutIntent struct {
	ID      string                `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Purpose CheckoutIntentPurpose `gorm:"column:purpose;type:varchar(32);not null" json:"purpose"`
	UserID  string                `gorm:"column:user_id;type:varchar(64);not null;index" json:"user_id"`

	// Activation checkouts only.
	ListingID  string `gorm:"column:listing_id;type:varchar(64)" json:"listing_id"`
	OfferingID string `gorm:"column:offering_id;type:varchar(64)" json:"offering_id"`
	AutoRenew  bool   `gorm:"column:auto_renew;not null;default:false" json:"auto_renew"`

	// Credit top-up checkouts only.
	CreditAmount int64 `gorm:"column:credit_amount;type:bigint;not null;default:0" json:"credit_amount"`

	AmountCents       int64                `gorm:"column:amount_cents;type:bigint;not null" json:"amount_cents"`
	Status            CheckoutIntentStatus `gorm:"column:status;type:varchar(16);not null" json:"status"`
	ExternalPaymentID *string              `gorm:"column:external_payment_id;type:varchar(128);uniqueIndex;default:null" json:"external_payment_id"`
	RedirectURL       string               `gorm:"column:redirect_url;type:varchar(512)" json:"redirect_url"`
	// ActivationID is filled once a confirmed activation checkout completed.
	ActivationID *string    `gorm:"column:activation_id;type:uuid;default:null" json:"activation_id"`
	ConfirmedAt  *time.Time `gorm:"column:confirmed_at;default:null" json:"confirmed_at"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

func (CheckoutIntent) TableName() string {
	return "checkout_intent"
}
