package models

import (
	"time"

	"github.com/feiralivre/monetize/pkg/types"
)

// LedgerEntry is one immutable row of the credit ledger. Amount is signed:
// credits are positive, debits negative. Created once, never updated.
type LedgerEntry struct {
	ID        string                `gorm:"column:id;type:uuid;primaryKey;index:idx_account_id_id,priority:2,sort:desc" json:"id"`
	AccountID string                `gorm:"column:account_id;type:uuid;not null;index:idx_account_id_id,priority:1" json:"account_id"`
	UserID    string                `gorm:"column:user_id;type:varchar(64);not null;index" json:"user_id"`
	Amount    int64                 `gorm:"column:amount;type:bigint;not null" json:"amount"`
	Kind      types.LedgerEntryKind `gorm:"column:kind;type:varchar(32);not null" json:"kind"`
	// ExternalPaymentID links to the payment-processor transaction that funded
	// a top-up, when there is one.
	ExternalPaymentID *string `gorm:"column:external_payment_id;type:varchar(128);default:null" json:"external_payment_id"`
	// ReferenceID links to the activation this entry funded, when there is one.
	ReferenceID *string   `gorm:"column:reference_id;type:varchar(64);default:null" json:"reference_id"`
	CreatedAt   time.Time `json:"created_at"`
}

func (LedgerEntry) TableName() string {
	return "ledger_entry"
}
