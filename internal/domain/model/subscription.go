package model

import (
	"time"

	"partner-subscription-platform/internal/domain"
)

type SubscriptionStatus string

const (
	SubscriptionStatusPending  SubscriptionStatus = "pending"
	SubscriptionStatusActive   SubscriptionStatus = "active"
	SubscriptionStatusCanceled SubscriptionStatus = "canceled"
	SubscriptionStatusPastDue  SubscriptionStatus = "past_due"
	SubscriptionStatusExpired  SubscriptionStatus = "expired"
)

// Subscription entitles one business entity to one plan's benefits for the
// current period. All subscriptions sharing a non-nil PaymentID transition
// together when that payment settles.
type Subscription struct {
	ID                 string  // UUID
	UserID             string  // UUID of owning user
	PlanID             string  // UUID of plan
	PaymentID          *string // nil for administratively granted subscriptions
	Status             SubscriptionStatus
	Entity             EntityRef
	EntityName         string // denormalized for display
	CurrentPeriodStart time.Time
	CurrentPeriodEnd   time.Time
	CanceledAt         *time.Time
	CreatedAt          time.Time
}

// NewPendingSubscription creates the provisional subscription persisted at
// checkout. The period starts now and is recomputed at activation time, so
// the paid period always starts at confirmed-payment time.
func NewPendingSubscription(id, userID string, plan *Plan, paymentID string, entity EntityRef, entityName string, now time.Time) (*Subscription, error) {
	if id == "" || userID == "" || plan.IsZero() || paymentID == "" {
		return nil, domain.ErrInvalidArgument
	}
	return &Subscription{
		ID:                 id,
		UserID:             userID,
		PlanID:             plan.ID,
		PaymentID:          &paymentID,
		Status:             SubscriptionStatusPending,
		Entity:             entity,
		EntityName:         entityName,
		CurrentPeriodStart: now,
		CurrentPeriodEnd:   plan.Interval.PeriodEnd(now),
		CreatedAt:          now,
	}, nil
}

// NewGrantedSubscription creates an administratively granted subscription
// with no backing payment. It is active immediately.
func NewGrantedSubscription(id, userID string, plan *Plan, entity EntityRef, entityName string, now time.Time) (*Subscription, error) {
	if id == "" || userID == "" || plan.IsZero() {
		return nil, domain.ErrInvalidArgument
	}
	return &Subscription{
		ID:                 id,
		UserID:             userID,
		PlanID:             plan.ID,
		Status:             SubscriptionStatusActive,
		Entity:             entity,
		EntityName:         entityName,
		CurrentPeriodStart: now,
		CurrentPeriodEnd:   plan.Interval.PeriodEnd(now),
		CreatedAt:          now,
	}, nil
}

// CurrentlyActive reports whether the subscription entitles its entity to
// benefits at the given instant.
func (s *Subscription) CurrentlyActive(now time.Time) bool {
	return s != nil && s.Status == SubscriptionStatusActive && !now.After(s.CurrentPeriodEnd)
}

// LapsedAt reports whether the row still says active but the paid period has
// run out. Read paths persist the expired correction when this is true.
func (s *Subscription) LapsedAt(now time.Time) bool {
	return s != nil && s.Status == SubscriptionStatusActive && now.After(s.CurrentPeriodEnd)
}
