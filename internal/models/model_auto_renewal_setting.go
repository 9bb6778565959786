package models

import (
	"time"

	"github.com/feiralivre/monetize/pkg/types"
)

// AutoRenewalSetting is one user's standing instruction to re-purchase an
// offering for a listing before the current activation lapses. Upserted
// idempotently on the composite key; the scheduler advances the renewal
// timestamps only after an attempt completed.
type AutoRenewalSetting struct {
	ID        string `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	UserID    string `gorm:"column:user_id;type:varchar(64);not null;uniqueIndex:uniq_renewal_key,priority:1" json:"user_id"`
	ListingID string `gorm:"column:listing_id;type:varchar(64);not null;uniqueIndex:uniq_renewal_key,priority:2" json:"listing_id"`
	// RenewalKind mirrors the offering type key so one listing may carry
	// independent renewal rows per activation slot.
	RenewalKind string `gorm:"column:renewal_kind;type:varchar(96);not null;uniqueIndex:uniq_renewal_key,priority:3" json:"renewal_kind"`
	OfferingID  string `gorm:"column:offering_id;type:varchar(64);not null;uniqueIndex:uniq_renewal_key,priority:4" json:"offering_id"`

	Enabled       bool                `gorm:"column:enabled;not null;default:true;index" json:"enabled"`
	PaymentMethod types.PaymentMethod `gorm:"column:payment_method;type:varchar(16);not null" json:"payment_method"`
	LastRenewalAt *time.Time          `gorm:"column:last_renewal_at;default:null" json:"last_renewal_at"`
	NextRenewalAt *time.Time          `gorm:"column:next_renewal_at;default:null" json:"next_renewal_at"`
	RenewalCount  int64               `gorm:"column:renewal_count;type:bigint;not null;default:0" json:"renewal_count"`
	// LastNotifiedAt throttles action-required notifications; the scheduler
	// runs far more often than a user should be pinged.
	LastNotifiedAt *time.Time `gorm:"column:last_notified_at;default:null" json:"last_notified_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (AutoRenewalSetting) TableName() string {
	return "auto_renewal_setting"
}
