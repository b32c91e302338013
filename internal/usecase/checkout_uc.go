// File: internal/usecase/checkout_uc.go
package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"partner-subscription-platform/internal/config"
	"partner-subscription-platform/internal/domain"
	"partner-subscription-platform/internal/domain/model"
	"partner-subscription-platform/internal/domain/ports/repository"
	"partner-subscription-platform/internal/infra/metrics"
	"partner-subscription-platform/internal/infra/payment"
)

// Compile-time check
var _ CheckoutUseCase = (*checkoutUC)(nil)

// CheckoutItem is one cart line: a plan applied to one business entity.
type CheckoutItem struct {
	PlanID     string
	EntityType string
	EntityID   string
	EntityName string
}

// CheckoutLine is the per-item breakdown returned to the client.
type CheckoutLine struct {
	EntityName string
	PlanName   string
	PriceCents int64
	Price      string
}

// CheckoutResult is everything the client needs to hand off to the gateway
// widget: the pending payment's identity plus the signed widget parameters.
type CheckoutResult struct {
	PaymentID   string
	Reference   string
	AmountCents int64
	Amount      string
	Currency    string
	PublicKey   string
	Signature   string
	RedirectURL string
	Items       []CheckoutLine
}

type CheckoutUseCase interface {
	// Checkout validates eligibility, snapshots plan prices, and persists one
	// pending payment plus one pending subscription per cart item. No side
	// effect survives unless every validation passes.
	Checkout(ctx context.Context, userID string, items []CheckoutItem) (*CheckoutResult, error)
}

type checkoutUC struct {
	plans    repository.PlanRepository
	payments repository.PaymentRepository
	subs     repository.SubscriptionRepository
	refs     *payment.ReferenceGenerator
	tm       repository.TransactionManager
	cfg      config.PaymentConfig
	log      *zerolog.Logger
}

func NewCheckoutUseCase(
	plans repository.PlanRepository,
	payments repository.PaymentRepository,
	subs repository.SubscriptionRepository,
	refs *payment.ReferenceGenerator,
	tm repository.TransactionManager,
	cfg config.PaymentConfig,
	logger *zerolog.Logger,
) *checkoutUC {
	return &checkoutUC{plans: plans, payments: payments, subs: subs, refs: refs, tm: tm, cfg: cfg, log: logger}
}

func (uc *checkoutUC) Checkout(ctx context.Context, userID string, items []CheckoutItem) (*CheckoutResult, error) {
	if userID == "" || len(items) == 0 {
		metrics.IncCheckout("invalid")
		return nil, domain.ErrInvalidArgument
	}

	entities := make([]model.EntityRef, len(items))
	seen := make(map[model.EntityRef]struct{}, len(items))
	for i, it := range items {
		ref, err := model.NewEntityRef(it.EntityType, it.EntityID)
		if err != nil || it.PlanID == "" {
			metrics.IncCheckout("invalid")
			return nil, domain.ErrInvalidArgument
		}
		if _, dup := seen[ref]; dup {
			metrics.IncCheckout("invalid")
			return nil, fmt.Errorf("duplicate cart entity %s %s: %w", ref.Type, ref.ID, domain.ErrInvalidArgument)
		}
		seen[ref] = struct{}{}
		entities[i] = ref
	}

	var result *CheckoutResult
	// Eligibility check and inserts share one serializable transaction so
	// the one-active-subscription-per-entity invariant cannot be violated by
	// a concurrent checkout racing the check.
	err := uc.tm.WithTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable}, func(ctx context.Context, tx repository.Tx) error {
		for _, ref := range entities {
			existing, err := uc.subs.FindActiveByEntity(ctx, tx, ref)
			if err != nil {
				if errors.Is(err, domain.ErrNotFound) {
					continue
				}
				return err
			}
			existing, err = uc.lazyExpire(ctx, tx, existing)
			if err != nil {
				return err
			}
			if existing.CurrentlyActive(time.Now()) {
				return fmt.Errorf("%s %s: %w", ref.Type, ref.ID, domain.ErrAlreadySubscribed)
			}
		}

		planIDs := distinctPlanIDs(items)
		plans, err := uc.plans.FindByIDs(ctx, tx, planIDs)
		if err != nil {
			return err
		}
		for _, id := range planIDs {
			plan, ok := plans[id]
			if !ok || !plan.Active {
				return fmt.Errorf("plan %s: %w", id, domain.ErrNotFound)
			}
		}

		// Each item's price is looked up by its own plan id, not assumed
		// uniform across the cart.
		var total int64
		lines := make([]CheckoutLine, len(items))
		for i, it := range items {
			plan := plans[it.PlanID]
			total += plan.PriceCents
			lines[i] = CheckoutLine{
				EntityName: it.EntityName,
				PlanName:   plan.Name,
				PriceCents: plan.PriceCents,
				Price:      model.FormatAmount(plan.PriceCents, uc.cfg.Currency),
			}
		}

		now := time.Now()
		pay := &model.Payment{
			ID:          uuid.NewString(),
			UserID:      userID,
			Reference:   uc.refs.New(),
			AmountCents: total,
			Currency:    uc.cfg.Currency,
			Status:      model.PaymentStatusPending,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := uc.payments.Save(ctx, tx, pay); err != nil {
			return err
		}

		for i, it := range items {
			sub, err := model.NewPendingSubscription(uuid.NewString(), userID, plans[it.PlanID], pay.ID, entities[i], it.EntityName, now)
			if err != nil {
				return err
			}
			if err := uc.subs.Save(ctx, tx, sub); err != nil {
				return err
			}
		}

		result = &CheckoutResult{
			PaymentID:   pay.ID,
			Reference:   pay.Reference,
			AmountCents: pay.AmountCents,
			Amount:      model.FormatAmount(pay.AmountCents, pay.Currency),
			Currency:    pay.Currency,
			PublicKey:   uc.cfg.PublicKey,
			Signature:   payment.IntegritySignature(pay.Reference, pay.AmountCents, pay.Currency, uc.cfg.IntegritySecret),
			RedirectURL: fmt.Sprintf(uc.cfg.RedirectURL, pay.ID),
			Items:       lines,
		}
		return nil
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrAlreadySubscribed):
			metrics.IncCheckout("conflict")
		case errors.Is(err, domain.ErrNotFound):
			metrics.IncCheckout("plan_not_found")
		case errors.Is(err, domain.ErrInvalidArgument):
			metrics.IncCheckout("invalid")
		}
		return nil, err
	}

	metrics.IncCheckout("accepted")
	uc.log.Info().
		Str("payment_id", result.PaymentID).
		Str("reference", result.Reference).
		Int64("amount_cents", result.AmountCents).
		Int("items", len(items)).
		Msg("checkout created")
	return result, nil
}

func (uc *checkoutUC) lazyExpire(ctx context.Context, tx repository.Tx, sub *model.Subscription) (*model.Subscription, error) {
	if !sub.LapsedAt(time.Now()) {
		return sub, nil
	}
	sub.Status = model.SubscriptionStatusExpired
	if err := uc.subs.Save(ctx, tx, sub); err != nil {
		return nil, err
	}
	metrics.IncSubscriptionsExpired()
	return sub, nil
}

func distinctPlanIDs(items []CheckoutItem) []string {
	seen := make(map[string]struct{}, len(items))
	out := make([]string, 0, len(items))
	for _, it := range items {
		if _, ok := seen[it.PlanID]; ok {
			continue
		}
		seen[it.PlanID] = struct{}{}
		out = append(out, it.PlanID)
	}
	return out
}
