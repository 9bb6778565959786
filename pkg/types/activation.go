package types

import "time"

type ActivationStatus string

const (
	ActivationStatusActive    ActivationStatus = "active"
	ActivationStatusExpired   ActivationStatus = "expired"
	ActivationStatusCancelled ActivationStatus = "cancelled"
)

type PaymentMethod string

const (
	PaymentMethodCredits PaymentMethod = "credits"
	PaymentMethodMoney   PaymentMethod = "money"
)

// ActiveBadge is the UI-facing projection of an active activation.
type ActiveBadge struct {
	Kind         OfferingKind `json:"kind"`
	OfferingName string       `json:"offering_name"`
	BadgeText    string       `json:"badge_text"`
	BadgeColor   string       `json:"badge_color"`
	EndsAt       time.Time    `json:"ends_at"`
}
