package models

import (
	"time"

	"gorm.io/datatypes"

	"github.com/feiralivre/monetize/pkg/types"
)

type ActivationExtra struct {
	// OfferingSnapshot pins the catalog row as it was at purchase time.
	OfferingSnapshot *types.Offering `json:"offering_snapshot"`
	// SupersededID is the activation this one early-terminated, if any.
	SupersededID string `json:"superseded_id,omitempty"`
	// RenewedFromID is set when the auto-renewal scheduler created this row.
	RenewedFromID string `json:"renewed_from_id,omitempty"`
}

// Activation is one purchased, time-boxed visibility effect on one listing.
// TypeKey encodes the offering kind (plus service type for premium services);
// at most one activation per (listing, type key) may be active at a time.
type Activation struct {
	ID         string             `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	ListingID  string             `gorm:"column:listing_id;type:varchar(64);not null;index:idx_listing_type,priority:1" json:"listing_id"`
	TypeKey    string             `gorm:"column:type_key;type:varchar(96);not null;index:idx_listing_type,priority:2" json:"type_key"`
	OfferingID string             `gorm:"column:offering_id;type:varchar(64);not null" json:"offering_id"`
	Kind       types.OfferingKind `gorm:"column:kind;type:varchar(32);not null" json:"kind"`
	OwnerID    string             `gorm:"column:owner_id;type:varchar(64);not null;index" json:"owner_id"`

	Status        types.ActivationStatus `gorm:"column:status;type:varchar(16);not null;index:idx_listing_type,priority:3" json:"status"`
	PaymentMethod types.PaymentMethod    `gorm:"column:payment_method;type:varchar(16);not null" json:"payment_method"`
	StartsAt      time.Time              `gorm:"column:starts_at;not null" json:"starts_at"`
	EndsAt        time.Time              `gorm:"column:ends_at;not null" json:"ends_at"`

	Views  int64 `gorm:"column:views;type:bigint;not null;default:0" json:"views"`
	Clicks int64 `gorm:"column:clicks;type:bigint;not null;default:0" json:"clicks"`

	// LedgerEntryID is the debit that funded this activation (credits only).
	LedgerEntryID *string `gorm:"column:ledger_entry_id;type:uuid;default:null" json:"ledger_entry_id"`
	AutoRenew     bool    `gorm:"column:auto_renew;not null;default:false" json:"auto_renew"`

	Extra     datatypes.JSONType[*ActivationExtra] `gorm:"column:extra;type:jsonb;default:'{}'" json:"extra"`
	CreatedAt time.Time                            `json:"created_at"`
	UpdatedAt time.Time                            `json:"updated_at"`
}

func (Activation) TableName() string {
	return "activation"
}

// ActiveAt reports whether the activation is live at t. Expiry is lazy: a row
// may still carry status active after its window lapsed, so both are checked.
func (a *Activation) ActiveAt(t time.Time) bool {
	return a != nil &&
		a.Status == types.ActivationStatusActive &&
		!a.StartsAt.After(t) &&
		a.EndsAt.After(t)
}

func (a *Activation) GetOfferingSnapshot() *types.Offering {
	if a == nil || a.Extra.Data() == nil {
		return nil
	}
	return a.Extra.Data().OfferingSnapshot
}
