package models

import (
	"time"

	"github.com/feiralivre/monetize/pkg/types"
)

// OutboxEvent is a transaction event awaiting delivery to the commission
// accrual. Rows are written in the same database transaction as the purchase
// they describe and marked published only after a successful handoff, so a
// crash or outage between commit and delivery never loses an event. The
// unique transaction id keeps redelivery idempotent end to end.
type OutboxEvent struct {
	ID            string                `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	TransactionID string                `gorm:"column:transaction_id;type:varchar(64);not null;uniqueIndex" json:"transaction_id"`
	UserID        string                `gorm:"column:user_id;type:varchar(64);not null" json:"user_id"`
	Type          types.TransactionType `gorm:"column:type;type:varchar(32);not null" json:"type"`
	AmountCents   int64                 `gorm:"column:amount_cents;type:bigint;not null" json:"amount_cents"`
	OccurredAt    time.Time             `gorm:"column:occurred_at;not null" json:"occurred_at"`

	Attempts    int64      `gorm:"column:attempts;type:bigint;not null;default:0" json:"attempts"`
	PublishedAt *time.Time `gorm:"column:published_at;default:null;index" json:"published_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (OutboxEvent) TableName() string {
	return "outbox_event"
}

// Event rebuilds the wire form of the row.
func (e *OutboxEvent) Event() types.TransactionEvent {
	return types.TransactionEvent{
		TransactionID: e.TransactionID,
		UserID:        e.UserID,
		Type:          e.Type,
		AmountCents:   e.AmountCents,
		OccurredAt:    e.OccurredAt,
	}
}
