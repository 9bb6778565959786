package types

import "time"

type OfferingKind string

const (
	OfferingKindBoost           OfferingKind = "boost"
	OfferingKindPremiumService  OfferingKind = "premium_service"
	OfferingKindGeographicBoost OfferingKind = "geographic_boost"
)

// Offering is one purchasable catalog row: a boost package, a premium service
// or a geographic boost. Kind-specific fields stay zero for the other kinds.
type Offering struct {
	ID   string       `json:"id" mapstructure:"id"`
	Kind OfferingKind `json:"kind" mapstructure:"kind"`
	Name string       `json:"name" mapstructure:"name"`
	// PriceCents is the money price in cents, used for money checkouts.
	PriceCents int64 `json:"price_cents" mapstructure:"price_cents"`
	// CreditCost is the cost when paid from the credit balance.
	CreditCost           int64   `json:"credit_cost" mapstructure:"credit_cost"`
	DurationHours        int64   `json:"duration_hours" mapstructure:"duration_hours"`
	VisibilityMultiplier float64 `json:"visibility_multiplier" mapstructure:"visibility_multiplier"`
	PriorityScore        int     `json:"priority_score" mapstructure:"priority_score"`
	BadgeText            string  `json:"badge_text" mapstructure:"badge_text"`
	BadgeColor           string  `json:"badge_color" mapstructure:"badge_color"`
	// ServiceType distinguishes premium services from each other; a listing may
	// hold one active premium service per service type.
	ServiceType string `json:"service_type" mapstructure:"service_type"`
	// Region is only set for geographic boosts.
	Region string `json:"region" mapstructure:"region"`
	Active bool   `json:"active" mapstructure:"active"`
}

func (o *Offering) Duration() time.Duration {
	return time.Duration(o.DurationHours) * time.Hour
}

// TypeKey identifies the slot an activation of this offering occupies on a
// listing. At most one activation may be active per (listing, type key).
func (o *Offering) TypeKey() string {
	if o.Kind == OfferingKindPremiumService && o.ServiceType != "" {
		return string(o.Kind) + ":" + o.ServiceType
	}
	return string(o.Kind)
}
