package domain

import (
	"time"
)

// SubscriptionStatus represents the billing-plan state of an account
type SubscriptionStatus string

const (
	SubscriptionInactive SubscriptionStatus = "inactive"
	SubscriptionPending  SubscriptionStatus = "pending"
	SubscriptionActive   SubscriptionStatus = "active"
	SubscriptionExpired  SubscriptionStatus = "expired"
)

// SubscriptionPlan describes a purchasable billing plan
type SubscriptionPlan struct {
	Name         string   `json:"name"`
	Price        float64  `json:"price"`
	DurationDays int      `json:"duration_days"`
	Features     []string `json:"features,omitempty"`
}

// Subscription tracks an account's billing-plan status. Status transitions
// are driven only by payment events, never by UI action directly.
type Subscription struct {
	AccountID string             `json:"account_id" db:"account_id"`
	Plan      string             `json:"plan" db:"plan"`
	Status    SubscriptionStatus `json:"status" db:"status"`
	ExpiresAt *time.Time         `json:"expires_at,omitempty" db:"expires_at"`
	UpdatedAt time.Time          `json:"updated_at" db:"updated_at"`
}

// DaysRemaining reports whole days until expiry, zero once expired
func (s *Subscription) DaysRemaining(now time.Time) int {
	if s.ExpiresAt == nil || !now.Before(*s.ExpiresAt) {
		return 0
	}
	return int(s.ExpiresAt.Sub(now).Hours() / 24)
}

// PaymentOutcome is the normalized result reported by the payment collaborator
type PaymentOutcome string

const (
	PaymentCompleted PaymentOutcome = "completed"
	PaymentFailed    PaymentOutcome = "failed"
	PaymentPending   PaymentOutcome = "pending"
)

// Valid reports whether the outcome is one of the known values
func (o PaymentOutcome) Valid() bool {
	return o == PaymentCompleted || o == PaymentFailed || o == PaymentPending
}

// PaymentEvent is the inbound message from the payment collaborator. The
// reference is the dedupe key: each event is applied at most once.
type PaymentEvent struct {
	Reference string         `json:"reference" validate:"required"`
	Outcome   PaymentOutcome `json:"outcome" validate:"required,oneof=completed failed pending"`
	Plan      string         `json:"plan,omitempty"`
}
