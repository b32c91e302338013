package repository

import (
	"context"

	"partner-subscription-platform/internal/domain/model"
)

// PlanRepository is the port for plan persistence. Plans are owned by the
// catalog module; the checkout core only reads them.
type PlanRepository interface {
	Save(ctx context.Context, tx Tx, plan *model.Plan) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Plan, error)
	// FindByIDs resolves a batch of distinct plan ids in one round trip.
	// The result map contains only the plans that exist.
	FindByIDs(ctx context.Context, tx Tx, ids []string) (map[string]*model.Plan, error)
	ListActive(ctx context.Context, tx Tx) ([]*model.Plan, error)
}
