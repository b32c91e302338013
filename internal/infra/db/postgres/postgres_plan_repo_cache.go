package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"partner-subscription-platform/internal/domain/model"
	"partner-subscription-platform/internal/domain/ports/repository"
	"partner-subscription-platform/internal/infra/metrics"
	red "partner-subscription-platform/internal/infra/redis"
)

var _ repository.PlanRepository = (*planRepoCacheDecorator)(nil)

// planRepoCacheDecorator is a read-through Redis cache in front of the plan
// repo. Plans are read-only during checkout and the price is snapshotted
// into the payment, so a stale read never changes settlement math.
type planRepoCacheDecorator struct {
	inner repository.PlanRepository
	cache red.RedisClient
	ttl   time.Duration
}

func NewPlanRepoCacheDecorator(inner repository.PlanRepository, cache red.RedisClient, ttl time.Duration) repository.PlanRepository {
	if ttl <= 0 {
		ttl = 1 * time.Hour
	}
	return &planRepoCacheDecorator{inner: inner, cache: cache, ttl: ttl}
}

func planKey(id string) string { return fmt.Sprintf("plan:%s", id) }

const planListKey = "plans:active"

func (d *planRepoCacheDecorator) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Plan, error) {
	if val, err := d.cache.Get(ctx, planKey(id)); err == nil {
		var plan model.Plan
		if json.Unmarshal([]byte(val), &plan) == nil {
			metrics.IncCacheRequest("plan", "hit")
			return &plan, nil
		}
	}

	metrics.IncCacheRequest("plan", "miss")
	plan, err := d.inner.FindByID(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if bytes, err := json.Marshal(plan); err == nil {
		_ = d.cache.Set(ctx, planKey(id), bytes, d.ttl)
	}
	return plan, nil
}

func (d *planRepoCacheDecorator) FindByIDs(ctx context.Context, tx repository.Tx, ids []string) (map[string]*model.Plan, error) {
	out := make(map[string]*model.Plan, len(ids))
	var misses []string
	for _, id := range ids {
		val, err := d.cache.Get(ctx, planKey(id))
		if err != nil {
			misses = append(misses, id)
			continue
		}
		var plan model.Plan
		if json.Unmarshal([]byte(val), &plan) != nil {
			misses = append(misses, id)
			continue
		}
		metrics.IncCacheRequest("plan", "hit")
		out[id] = &plan
	}
	if len(misses) == 0 {
		return out, nil
	}

	fetched, err := d.inner.FindByIDs(ctx, tx, misses)
	if err != nil {
		return nil, err
	}
	for id, plan := range fetched {
		metrics.IncCacheRequest("plan", "miss")
		out[id] = plan
		if bytes, err := json.Marshal(plan); err == nil {
			_ = d.cache.Set(ctx, planKey(id), bytes, d.ttl)
		}
	}
	return out, nil
}

func (d *planRepoCacheDecorator) ListActive(ctx context.Context, tx repository.Tx) ([]*model.Plan, error) {
	if val, err := d.cache.Get(ctx, planListKey); err == nil {
		var plans []*model.Plan
		if json.Unmarshal([]byte(val), &plans) == nil {
			metrics.IncCacheRequest("plan_list", "hit")
			return plans, nil
		}
	}

	metrics.IncCacheRequest("plan_list", "miss")
	plans, err := d.inner.ListActive(ctx, tx)
	if err != nil {
		return nil, err
	}
	if len(plans) > 0 {
		if bytes, err := json.Marshal(plans); err == nil {
			_ = d.cache.Set(ctx, planListKey, bytes, d.ttl)
		}
	}
	return plans, nil
}

// Writes invalidate both the per-plan entry and the cached list.
func (d *planRepoCacheDecorator) Save(ctx context.Context, tx repository.Tx, plan *model.Plan) error {
	_ = d.cache.Del(ctx, planKey(plan.ID), planListKey)
	return d.inner.Save(ctx, tx, plan)
}
