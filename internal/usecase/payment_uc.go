// File: internal/usecase/payment_uc.go
package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"partner-subscription-platform/internal/domain"
	"partner-subscription-platform/internal/domain/model"
	"partner-subscription-platform/internal/domain/ports/repository"
	"partner-subscription-platform/internal/infra/metrics"
)

// Compile-time check
var _ PaymentUseCase = (*paymentUC)(nil)

// GatewayTransaction is a verified webhook's transaction report, already
// mapped to the ledger's status vocabulary by the ingestion layer.
type GatewayTransaction struct {
	Reference     string
	TransactionID string
	Status        model.PaymentStatus
	PaymentMethod string
	FailureReason string
	Raw           map[string]any
}

// SettleOutcome describes what a webhook delivery did. Everything except a
// storage failure is acknowledged to the gateway to stop retry storms.
type SettleOutcome string

const (
	SettleApplied          SettleOutcome = "applied"
	SettleUnknownReference SettleOutcome = "unknown_reference"
	SettleAlreadySettled   SettleOutcome = "already_settled"
)

type PaymentUseCase interface {
	// Settle drives the pending payment identified by the transaction's
	// reference to its terminal state and transitions the linked
	// subscriptions as a batch. Safe under at-least-once delivery.
	Settle(ctx context.Context, gt GatewayTransaction) (SettleOutcome, error)
	// Override forces a terminal status without a webhook (manual/offline
	// payments, support corrections). Same only-from-pending rule.
	Override(ctx context.Context, paymentID string, status model.PaymentStatus, reason string) (*model.Payment, error)
	FindByID(ctx context.Context, id string) (*model.Payment, error)
	// Purge removes a payment row entirely. Testing/cleanup only.
	Purge(ctx context.Context, paymentID string) error
}

type paymentUC struct {
	payments repository.PaymentRepository
	subUC    SubscriptionUseCase
	tm       repository.TransactionManager
	log      *zerolog.Logger
}

func NewPaymentUseCase(payments repository.PaymentRepository, subUC SubscriptionUseCase, tm repository.TransactionManager, logger *zerolog.Logger) *paymentUC {
	return &paymentUC{payments: payments, subUC: subUC, tm: tm, log: logger}
}

func (uc *paymentUC) Settle(ctx context.Context, gt GatewayTransaction) (SettleOutcome, error) {
	if gt.Reference == "" || !gt.Status.Terminal() {
		return "", domain.ErrInvalidArgument
	}

	outcome := SettleApplied
	err := uc.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		p, err := uc.payments.FindByReference(ctx, tx, gt.Reference)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				// May belong to an unrelated flow or be a stale retry.
				outcome = SettleUnknownReference
				return nil
			}
			return err
		}
		if p.Status != model.PaymentStatusPending {
			outcome = SettleAlreadySettled
			return nil
		}
		applied, err := uc.settleInTx(ctx, tx, p, gt.Status, gt.TransactionID, gt.PaymentMethod, gt.FailureReason, gt.Raw)
		if err != nil {
			return err
		}
		if !applied {
			outcome = SettleAlreadySettled
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	log := uc.log.With().Str("reference", gt.Reference).Str("status", string(gt.Status)).Logger()
	switch outcome {
	case SettleApplied:
		log.Info().Msg("payment settled")
	case SettleUnknownReference:
		log.Warn().Msg("webhook for unknown payment reference ignored")
	case SettleAlreadySettled:
		log.Info().Msg("duplicate webhook delivery ignored")
	}
	return outcome, nil
}

func (uc *paymentUC) Override(ctx context.Context, paymentID string, status model.PaymentStatus, reason string) (*model.Payment, error) {
	if !status.Terminal() {
		return nil, domain.ErrInvalidArgument
	}

	var settled *model.Payment
	err := uc.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		p, err := uc.payments.FindByID(ctx, tx, paymentID)
		if err != nil {
			return err
		}
		applied, err := uc.settleInTx(ctx, tx, p, status, "", "MANUAL", reason, nil)
		if err != nil {
			return err
		}
		if !applied {
			return domain.ErrPaymentAlreadySettled
		}
		settled = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().Str("payment_id", paymentID).Str("status", string(status)).Msg("payment status overridden")
	return settled, nil
}

// settleInTx applies the terminal field set via an atomic conditional update
// and drives the linked subscriptions. The affected-row check is the
// idempotency boundary under concurrent duplicate deliveries.
func (uc *paymentUC) settleInTx(ctx context.Context, tx repository.Tx, p *model.Payment, status model.PaymentStatus, transactionID, method, reason string, raw map[string]any) (bool, error) {
	now := time.Now()
	p.Status = status
	p.TransactionID = transactionID
	p.PaymentMethod = method
	p.FailureReason = reason
	p.RawResponse = raw
	p.UpdatedAt = now
	if status.Approved() {
		p.PaidAt = &now
	}

	applied, err := uc.payments.UpdateStatusIfPending(ctx, tx, p.ID, p)
	if err != nil {
		return false, err
	}
	if !applied {
		return false, nil
	}

	if status.Approved() {
		if _, err := uc.subUC.ActivateAll(ctx, tx, p.ID); err != nil {
			return false, err
		}
		metrics.AddPaymentRevenue(p.Currency, p.AmountCents)
	} else {
		// voided behaves like a failure for subscription purposes
		if _, err := uc.subUC.FailAll(ctx, tx, p.ID); err != nil {
			return false, err
		}
	}
	metrics.IncPayment(string(status))
	return true, nil
}

func (uc *paymentUC) FindByID(ctx context.Context, id string) (*model.Payment, error) {
	return uc.payments.FindByID(ctx, repository.NoTX, id)
}

func (uc *paymentUC) Purge(ctx context.Context, paymentID string) error {
	return uc.payments.Delete(ctx, repository.NoTX, paymentID)
}
