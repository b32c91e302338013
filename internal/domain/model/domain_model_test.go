//go:build !integration

package model_test

import (
	"errors"
	"testing"
	"time"

	"partner-subscription-platform/internal/domain"
	"partner-subscription-platform/internal/domain/model"
)

func TestBillingIntervalPeriodEnd(t *testing.T) {
	t.Run("should use calendar months, not 30 days", func(t *testing.T) {
		from := time.Date(2026, time.January, 31, 10, 0, 0, 0, time.UTC)
		got := model.BillingIntervalMonthly.PeriodEnd(from)
		// AddDate normalizes Jan 31 + 1 month to Mar 2/3.
		want := from.AddDate(0, 1, 0)
		if !got.Equal(want) {
			t.Errorf("expected %v, got %v", want, got)
		}

		from = time.Date(2026, time.March, 15, 0, 0, 0, 0, time.UTC)
		if got := model.BillingIntervalMonthly.PeriodEnd(from); got.Month() != time.April || got.Day() != 15 {
			t.Errorf("expected April 15, got %v", got)
		}
	})

	t.Run("should add one calendar year for yearly plans", func(t *testing.T) {
		from := time.Date(2026, time.March, 15, 0, 0, 0, 0, time.UTC)
		got := model.BillingIntervalYearly.PeriodEnd(from)
		if got.Year() != 2027 || got.Month() != time.March || got.Day() != 15 {
			t.Errorf("expected 2027-03-15, got %v", got)
		}
	})
}

func TestFormatAmount(t *testing.T) {
	cases := []struct {
		cents    int64
		currency string
		want     string
	}{
		{999, "USD", "9.99 USD"},
		{24900, "USD", "249.00 USD"},
		{5, "USD", "0.05 USD"},
		{0, "USD", "0.00 USD"},
		{-1250, "USD", "-12.50 USD"},
	}
	for _, c := range cases {
		if got := model.FormatAmount(c.cents, c.currency); got != c.want {
			t.Errorf("FormatAmount(%d, %q) = %q, want %q", c.cents, c.currency, got, c.want)
		}
	}
}

func TestNewPlan(t *testing.T) {
	t.Run("should construct an active plan", func(t *testing.T) {
		p, err := model.NewPlan("plan-1", "Basic Monthly", 999, "USD", model.BillingIntervalMonthly)
		if err != nil {
			t.Fatalf("expected no error, but got: %v", err)
		}
		if !p.Active {
			t.Error("expected a new plan to start active")
		}
	})

	t.Run("should reject invalid inputs", func(t *testing.T) {
		if _, err := model.NewPlan("plan-1", "Basic", 0, "USD", model.BillingIntervalMonthly); !errors.Is(err, domain.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument for a zero price, got %v", err)
		}
		if _, err := model.NewPlan("plan-1", "Basic", 999, "USD", "weekly"); !errors.Is(err, domain.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument for an unknown interval, got %v", err)
		}
	})
}

func TestNewEntityRef(t *testing.T) {
	t.Run("should accept every known entity type", func(t *testing.T) {
		for _, et := range []string{"lodging", "restaurant", "guide", "tour", "transport"} {
			if _, err := model.NewEntityRef(et, "id-1"); err != nil {
				t.Errorf("expected %q to be a valid entity type: %v", et, err)
			}
		}
	})

	t.Run("should reject unknown types and empty ids", func(t *testing.T) {
		if _, err := model.NewEntityRef("spaceship", "id-1"); !errors.Is(err, domain.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
		if _, err := model.NewEntityRef("lodging", ""); !errors.Is(err, domain.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})
}

func TestPaymentStatus(t *testing.T) {
	for _, s := range []model.PaymentStatus{model.PaymentStatusApproved, model.PaymentStatusDeclined, model.PaymentStatusVoided, model.PaymentStatusError} {
		if !s.Terminal() {
			t.Errorf("expected %q to be terminal", s)
		}
	}
	if model.PaymentStatusPending.Terminal() {
		t.Error("expected pending to be non-terminal")
	}
	if model.PaymentStatus("").Terminal() {
		t.Error("expected the zero status to be non-terminal")
	}
	if !model.PaymentStatusApproved.Approved() || model.PaymentStatusDeclined.Approved() {
		t.Error("unexpected Approved classification")
	}
}

func TestSubscriptionLifecycle(t *testing.T) {
	now := time.Now()
	plan, _ := model.NewPlan("plan-1", "Basic Monthly", 999, "USD", model.BillingIntervalMonthly)
	entity := model.EntityRef{Type: model.EntityTypeLodging, ID: "lodge-1"}

	t.Run("should construct a pending subscription tied to its payment", func(t *testing.T) {
		sub, err := model.NewPendingSubscription("sub-1", "user-1", plan, "pay-1", entity, "Sunrise Lodge", now)
		if err != nil {
			t.Fatalf("expected no error, but got: %v", err)
		}
		if sub.Status != model.SubscriptionStatusPending {
			t.Errorf("expected pending, got %q", sub.Status)
		}
		if sub.PaymentID == nil || *sub.PaymentID != "pay-1" {
			t.Error("expected the payment id to be recorded")
		}
		if !sub.CurrentPeriodEnd.Equal(now.AddDate(0, 1, 0)) {
			t.Errorf("expected a provisional one-month period, got end %v", sub.CurrentPeriodEnd)
		}
	})

	t.Run("should reject a pending subscription without a payment", func(t *testing.T) {
		if _, err := model.NewPendingSubscription("sub-1", "user-1", plan, "", entity, "", now); !errors.Is(err, domain.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("should construct a granted subscription active with no payment", func(t *testing.T) {
		sub, err := model.NewGrantedSubscription("sub-1", "user-1", plan, entity, "", now)
		if err != nil {
			t.Fatalf("expected no error, but got: %v", err)
		}
		if sub.Status != model.SubscriptionStatusActive || sub.PaymentID != nil {
			t.Errorf("unexpected granted subscription: %+v", sub)
		}
	})

	t.Run("should classify activity and lapse by status and period end", func(t *testing.T) {
		sub := &model.Subscription{Status: model.SubscriptionStatusActive, CurrentPeriodEnd: now.Add(time.Hour)}
		if !sub.CurrentlyActive(now) {
			t.Error("expected an in-period active subscription to be currently active")
		}
		if sub.LapsedAt(now) {
			t.Error("expected an in-period subscription not to be lapsed")
		}

		sub.CurrentPeriodEnd = now.Add(-time.Hour)
		if sub.CurrentlyActive(now) {
			t.Error("expected an out-of-period subscription to be inactive")
		}
		if !sub.LapsedAt(now) {
			t.Error("expected an out-of-period active row to be lapsed")
		}

		sub.Status = model.SubscriptionStatusCanceled
		if sub.LapsedAt(now) {
			t.Error("expected only active rows to ever be lapsed")
		}

		var nilSub *model.Subscription
		if nilSub.CurrentlyActive(now) || nilSub.LapsedAt(now) {
			t.Error("expected a nil subscription to be inactive and not lapsed")
		}
	})
}
