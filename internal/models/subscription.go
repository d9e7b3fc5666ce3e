package models

import (
	"time"

	"github.com/google/uuid"
)

// Subscription statuses mirror the payment provider's lifecycle.
const (
	SubscriptionStatusActive   = "active"
	SubscriptionStatusPastDue  = "past_due"
	SubscriptionStatusCanceled = "canceled"
	SubscriptionStatusTrialing = "trialing"
)

type Subscription struct {
	ID                   uuid.UUID  `json:"id" db:"id"`
	TenantID             uuid.UUID  `json:"tenant_id" db:"tenant_id"`
	StripeSubscriptionID *string    `json:"stripe_subscription_id" db:"stripe_subscription_id"`
	PlanName             string     `json:"plan_name" db:"plan_name"`
	Amount               float64    `json:"amount" db:"amount"`
	Currency             string     `json:"currency" db:"currency"`
	Status               string     `json:"status" db:"status"`
	CurrentPeriodEnd     *time.Time `json:"current_period_end" db:"current_period_end"`
	CreatedAt            time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at" db:"updated_at"`
}

// ValidSubscriptionStatus reports whether s is a recognized subscription status.
func ValidSubscriptionStatus(s string) bool {
	switch s {
	case SubscriptionStatusActive, SubscriptionStatusPastDue,
		SubscriptionStatusCanceled, SubscriptionStatusTrialing:
		return true
	}
	return false
}
