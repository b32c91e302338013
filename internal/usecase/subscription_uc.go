// File: internal/usecase/subscription_uc.go
package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"partner-subscription-platform/internal/domain"
	"partner-subscription-platform/internal/domain/model"
	"partner-subscription-platform/internal/domain/ports/repository"
	"partner-subscription-platform/internal/infra/metrics"
)

// Compile-time check
var _ SubscriptionUseCase = (*subscriptionUC)(nil)

type SubscriptionUseCase interface {
	// ActivateAll transitions every subscription riding on the payment to
	// active, restarting the period from now. Runs inside the caller's tx.
	ActivateAll(ctx context.Context, tx repository.Tx, paymentID string) (int, error)
	// FailAll marks every subscription riding on the payment past_due. The
	// provisional period is left untouched.
	FailAll(ctx context.Context, tx repository.Tx, paymentID string) (int, error)
	// Cancel sets a subscription to canceled. Owner-initiated cancellation
	// requires the acting user to own the subscription; admin bypasses that.
	Cancel(ctx context.Context, subscriptionID, actingUserID string, admin bool) (*model.Subscription, error)
	// EntityStatus answers "does this entity currently have benefits",
	// applying lazy expiration before answering.
	EntityStatus(ctx context.Context, entity model.EntityRef) (*model.Subscription, bool, error)
	// ListByUser returns the caller's subscriptions with lazy expiration
	// applied per row.
	ListByUser(ctx context.Context, userID string) ([]*model.Subscription, error)
	// Grant creates an administratively granted subscription with no payment.
	Grant(ctx context.Context, userID, planID string, entity model.EntityRef, entityName string) (*model.Subscription, error)
}

type subscriptionUC struct {
	subs  repository.SubscriptionRepository
	plans repository.PlanRepository
	tm    repository.TransactionManager
	log   *zerolog.Logger
}

func NewSubscriptionUseCase(subs repository.SubscriptionRepository, plans repository.PlanRepository, tm repository.TransactionManager, logger *zerolog.Logger) *subscriptionUC {
	return &subscriptionUC{subs: subs, plans: plans, tm: tm, log: logger}
}

func (uc *subscriptionUC) ActivateAll(ctx context.Context, tx repository.Tx, paymentID string) (int, error) {
	batch, err := uc.subs.ListByPaymentID(ctx, tx, paymentID)
	if err != nil {
		return 0, err
	}

	planIDs := make([]string, 0, len(batch))
	for _, s := range batch {
		planIDs = append(planIDs, s.PlanID)
	}
	plans, err := uc.plans.FindByIDs(ctx, tx, planIDs)
	if err != nil {
		return 0, err
	}

	// The paid period starts at confirmed-payment time, discarding the
	// provisional period set at checkout.
	now := time.Now()
	for _, s := range batch {
		plan, ok := plans[s.PlanID]
		if !ok {
			return 0, fmt.Errorf("plan %s referenced by subscription %s: %w", s.PlanID, s.ID, domain.ErrNotFound)
		}
		s.Status = model.SubscriptionStatusActive
		s.CurrentPeriodStart = now
		s.CurrentPeriodEnd = plan.Interval.PeriodEnd(now)
		if err := uc.subs.Save(ctx, tx, s); err != nil {
			return 0, err
		}
	}
	uc.log.Info().Str("payment_id", paymentID).Int("count", len(batch)).Msg("subscriptions activated")
	return len(batch), nil
}

func (uc *subscriptionUC) FailAll(ctx context.Context, tx repository.Tx, paymentID string) (int, error) {
	batch, err := uc.subs.ListByPaymentID(ctx, tx, paymentID)
	if err != nil {
		return 0, err
	}
	for _, s := range batch {
		s.Status = model.SubscriptionStatusPastDue
		if err := uc.subs.Save(ctx, tx, s); err != nil {
			return 0, err
		}
	}
	uc.log.Info().Str("payment_id", paymentID).Int("count", len(batch)).Msg("subscriptions marked past_due")
	return len(batch), nil
}

func (uc *subscriptionUC) Cancel(ctx context.Context, subscriptionID, actingUserID string, admin bool) (*model.Subscription, error) {
	sub, err := uc.subs.FindByID(ctx, repository.NoTX, subscriptionID)
	if err != nil {
		return nil, err
	}
	if !admin && sub.UserID != actingUserID {
		return nil, domain.ErrForbidden
	}
	if sub.Status == model.SubscriptionStatusCanceled {
		return nil, domain.ErrAlreadyCanceled
	}
	// Canceling does not shorten the already-paid period; it only prevents
	// renewal, so CurrentPeriodEnd stays as is.
	now := time.Now()
	sub.Status = model.SubscriptionStatusCanceled
	sub.CanceledAt = &now
	if err := uc.subs.Save(ctx, repository.NoTX, sub); err != nil {
		return nil, err
	}
	uc.log.Info().Str("subscription_id", sub.ID).Bool("admin", admin).Msg("subscription canceled")
	return sub, nil
}

func (uc *subscriptionUC) EntityStatus(ctx context.Context, entity model.EntityRef) (*model.Subscription, bool, error) {
	sub, err := uc.subs.FindActiveByEntity(ctx, repository.NoTX, entity)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}
	sub, err = uc.lazyExpire(ctx, repository.NoTX, sub)
	if err != nil {
		return nil, false, err
	}
	return sub, sub.CurrentlyActive(time.Now()), nil
}

func (uc *subscriptionUC) ListByUser(ctx context.Context, userID string) ([]*model.Subscription, error) {
	subs, err := uc.subs.ListByUser(ctx, repository.NoTX, userID)
	if err != nil {
		return nil, err
	}
	for i, s := range subs {
		corrected, err := uc.lazyExpire(ctx, repository.NoTX, s)
		if err != nil {
			return nil, err
		}
		subs[i] = corrected
	}
	return subs, nil
}

func (uc *subscriptionUC) Grant(ctx context.Context, userID, planID string, entity model.EntityRef, entityName string) (*model.Subscription, error) {
	var granted *model.Subscription
	err := uc.tm.WithTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable}, func(ctx context.Context, tx repository.Tx) error {
		plan, err := uc.plans.FindByID(ctx, tx, planID)
		if err != nil {
			return err
		}
		if !plan.Active {
			return domain.ErrNotFound
		}
		if existing, err := uc.subs.FindActiveByEntity(ctx, tx, entity); err == nil {
			existing, err = uc.lazyExpire(ctx, tx, existing)
			if err != nil {
				return err
			}
			if existing.CurrentlyActive(time.Now()) {
				return fmt.Errorf("%s %s: %w", entity.Type, entity.ID, domain.ErrAlreadySubscribed)
			}
		} else if !errors.Is(err, domain.ErrNotFound) {
			return err
		}
		sub, err := model.NewGrantedSubscription(uuid.NewString(), userID, plan, entity, entityName, time.Now())
		if err != nil {
			return err
		}
		if err := uc.subs.Save(ctx, tx, sub); err != nil {
			return err
		}
		granted = sub
		return nil
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().Str("subscription_id", granted.ID).Str("entity_id", granted.Entity.ID).Msg("subscription granted administratively")
	return granted, nil
}

// lazyExpire persists the expired correction for a row that still says
// active after its period ran out, returning the corrected subscription.
func (uc *subscriptionUC) lazyExpire(ctx context.Context, tx repository.Tx, sub *model.Subscription) (*model.Subscription, error) {
	if !sub.LapsedAt(time.Now()) {
		return sub, nil
	}
	sub.Status = model.SubscriptionStatusExpired
	if err := uc.subs.Save(ctx, tx, sub); err != nil {
		return nil, err
	}
	metrics.IncSubscriptionsExpired()
	uc.log.Debug().Str("subscription_id", sub.ID).Msg("lazy-expired subscription")
	return sub, nil
}
