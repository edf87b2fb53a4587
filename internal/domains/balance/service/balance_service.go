package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"fulfillment-backend/internal/domains/balance/model"
	"fulfillment-backend/internal/domains/balance/repository"
	masterdataRepo "fulfillment-backend/internal/domains/masterdata/repository"
	"fulfillment-backend/pkg/cache"
	"fulfillment-backend/pkg/logger"
)

// Service serves availability reads through a short-TTL cache. Mutating
// paths invalidate by (tenant, warehouse) pattern, so a cached entry never
// outlives a committed change by more than the invalidation round-trip.
type Service struct {
	pool       *pgxpool.Pool
	cache      cache.Cache
	ttl        time.Duration
	balances   repository.RepositoryInterface
	masterdata masterdataRepo.RepositoryInterface
}

func NewService(pool *pgxpool.Pool, cacheClient cache.Cache, ttl time.Duration, balances repository.RepositoryInterface, masterdata masterdataRepo.RepositoryInterface) *Service {
	return &Service{
		pool:       pool,
		cache:      cacheClient,
		ttl:        ttl,
		balances:   balances,
		masterdata: masterdata,
	}
}

// Availability returns every uom row for one (item, location), cached per
// (tenant, warehouse, item, location).
func (s *Service) Availability(ctx context.Context, tenantID, itemID, locationID uuid.UUID) ([]model.AvailabilityView, error) {
	location, err := s.masterdata.GetLocation(ctx, s.pool, tenantID, locationID)
	if err != nil {
		return nil, err
	}

	cacheKey := fmt.Sprintf("atp:%s:%s:%s:%s", tenantID, location.WarehouseID, itemID, locationID)
	if s.cache != nil {
		var cached []model.AvailabilityView
		found, err := s.cache.Get(ctx, cacheKey, &cached)
		if err != nil {
			logger.Warn("atp cache read failed", map[string]interface{}{
				"key":   cacheKey,
				"error": err.Error(),
			})
		} else if found {
			return cached, nil
		}
	}

	rows, err := s.balances.ListByItemLocation(ctx, s.pool, tenantID, itemID, locationID)
	if err != nil {
		return nil, err
	}

	views := make([]model.AvailabilityView, 0, len(rows))
	for _, b := range rows {
		views = append(views, b.ToAvailabilityView(location.WarehouseID))
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, views, s.ttl); err != nil {
			logger.Warn("atp cache write failed", map[string]interface{}{
				"key":   cacheKey,
				"error": err.Error(),
			})
		}
	}

	return views, nil
}
