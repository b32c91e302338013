package model

import (
	"fmt"
	"time"

	"partner-subscription-platform/internal/domain"
)

// BillingInterval is the cadence governing period length.
type BillingInterval string

const (
	BillingIntervalMonthly BillingInterval = "monthly"
	BillingIntervalYearly  BillingInterval = "yearly"
)

func (i BillingInterval) Valid() bool {
	return i == BillingIntervalMonthly || i == BillingIntervalYearly
}

// PeriodEnd computes the end of a billing period starting at from, using
// calendar arithmetic (a month is a calendar month, not 30 days).
func (i BillingInterval) PeriodEnd(from time.Time) time.Time {
	if i == BillingIntervalYearly {
		return from.AddDate(1, 0, 0)
	}
	return from.AddDate(0, 1, 0)
}

// Plan is a purchasable subscription plan. Owned by the catalog module;
// read-only here. The price is snapshotted into the payment total at checkout
// time and never re-read at settlement time.
type Plan struct {
	ID         string // UUID
	Name       string
	PriceCents int64 // minor currency units, never floats
	Currency   string
	Interval   BillingInterval
	Active     bool
	CreatedAt  time.Time
}

func (p *Plan) IsZero() bool { return p == nil || p.ID == "" }

// NewPlan validates and constructs a plan.
func NewPlan(id, name string, priceCents int64, currency string, interval BillingInterval) (*Plan, error) {
	if id == "" || name == "" || priceCents <= 0 || currency == "" || !interval.Valid() {
		return nil, domain.ErrInvalidArgument
	}
	return &Plan{
		ID:         id,
		Name:       name,
		PriceCents: priceCents,
		Currency:   currency,
		Interval:   interval,
		Active:     true,
		CreatedAt:  time.Now(),
	}, nil
}

// FormatAmount renders integer cents as a human-readable decimal string,
// e.g. 999 -> "9.99 USD".
func FormatAmount(cents int64, currency string) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d %s", sign, cents/100, cents%100, currency)
}
