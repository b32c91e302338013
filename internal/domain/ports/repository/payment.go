package repository

import (
	"context"

	"partner-subscription-platform/internal/domain/model"
)

// PaymentRepository is the port for the payment ledger.
type PaymentRepository interface {
	Save(ctx context.Context, tx Tx, p *model.Payment) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Payment, error)
	// FindByReference looks up a payment by its gateway-visible reference.
	// Webhooks carry the reference, not the internal id.
	FindByReference(ctx context.Context, tx Tx, reference string) (*model.Payment, error)
	// UpdateStatusIfPending atomically settles the payment only when its
	// current status is still 'pending'. Returns false when another delivery
	// already settled it; this is the webhook idempotency boundary.
	UpdateStatusIfPending(ctx context.Context, tx Tx, id string, settled *model.Payment) (bool, error)
	// Delete removes a payment row. Administrative purge only.
	Delete(ctx context.Context, tx Tx, id string) error
}
