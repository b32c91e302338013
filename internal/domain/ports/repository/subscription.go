package repository

import (
	"context"

	"partner-subscription-platform/internal/domain/model"
)

// SubscriptionRepository is the port for subscription persistence.
type SubscriptionRepository interface {
	Save(ctx context.Context, tx Tx, sub *model.Subscription) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Subscription, error)
	// FindActiveByEntity returns the newest subscription with status='active'
	// for the entity, or ErrNotFound.
	FindActiveByEntity(ctx context.Context, tx Tx, entity model.EntityRef) (*model.Subscription, error)
	ListByPaymentID(ctx context.Context, tx Tx, paymentID string) ([]*model.Subscription, error)
	ListByUser(ctx context.Context, tx Tx, userID string) ([]*model.Subscription, error)
	// CountByStatus feeds the subscriptions_total gauge.
	CountByStatus(ctx context.Context, tx Tx) (map[model.SubscriptionStatus]int, error)
}
