package models

import "time"

// CreditAccount is the derived balance of one user. It is never written
// directly: every mutation goes through ledger entry application, which
// recomputes the balance in the same database transaction.
type CreditAccount struct {
	ID             string    `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	UserID         string    `gorm:"column:user_id;type:varchar(64);not null;uniqueIndex" json:"user_id"`
	Balance        int64     `gorm:"column:balance;type:bigint;not null;default:0" json:"balance"`
	LifetimeEarned int64     `gorm:"column:lifetime_earned;type:bigint;not null;default:0" json:"lifetime_earned"`
	LifetimeSpent  int64     `gorm:"column:lifetime_spent;type:bigint;not null;default:0" json:"lifetime_spent"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func (CreditAccount) TableName() string {
	return "credit_account"
}
