package types

import "time"

// TransactionType classifies commission-eligible monetary transactions.
type TransactionType string

const (
	TransactionTypeCreditTopup         TransactionType = "credit_topup"
	TransactionTypeBoostActivation     TransactionType = "boost_activation"
	TransactionTypePremiumPlan         TransactionType = "premium_plan"
	TransactionTypeContentSubscription TransactionType = "content_subscription"
)

// TransactionEvent is emitted after every completed monetary transaction and
// consumed by the affiliate commission accrual. TransactionID doubles as the
// accrual idempotency key, so redelivery is safe.
type TransactionEvent struct {
	TransactionID string          `json:"transaction_id"`
	UserID        string          `json:"user_id"`
	Type          TransactionType `json:"type"`
	AmountCents   int64           `json:"amount_cents"`
	OccurredAt    time.Time       `json:"occurred_at"`
}
