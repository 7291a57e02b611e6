package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aarnav1729/sample-trials/internal/trial/entity"
	"github.com/aarnav1729/sample-trials/internal/trial/repository"
	"github.com/redis/go-redis/v9"
)

const referenceCacheTTL = 10 * time.Minute

// ReferenceService serves the open reference-value sets with an optional
// redis read-through cache. A nil client disables caching.
type ReferenceService struct {
	referenceRepo *repository.ReferenceRepository
	rdb           *redis.Client
}

func NewReferenceService(referenceRepo *repository.ReferenceRepository, rdb *redis.Client) *ReferenceService {
	return &ReferenceService{
		referenceRepo: referenceRepo,
		rdb:           rdb,
	}
}

// List returns the values of one set.
func (s *ReferenceService) List(ctx context.Context, kind string) ([]string, error) {
	if kind != entity.ReferenceKindMaterialCategory && kind != entity.ReferenceKindPurpose {
		return nil, invalidField("kind", "must be material_category or purpose")
	}

	key := cacheKey(kind)
	if s.rdb != nil {
		if cached, err := s.rdb.Get(ctx, key).Result(); err == nil {
			var values []string
			if err := json.Unmarshal([]byte(cached), &values); err == nil {
				return values, nil
			}
		}
	}

	values, err := s.referenceRepo.List(ctx, kind)
	if err != nil {
		return nil, fmt.Errorf("list reference values: %w", err)
	}

	if s.rdb != nil {
		if data, err := json.Marshal(values); err == nil {
			s.rdb.Set(ctx, key, data, referenceCacheTTL)
		}
	}
	return values, nil
}

// Invalidate drops the cached set after a novel value is registered.
func (s *ReferenceService) Invalidate(ctx context.Context, kind string) {
	if s.rdb != nil {
		s.rdb.Del(ctx, cacheKey(kind))
	}
}

// SeedDefaults registers the default category and purpose values.
func (s *ReferenceService) SeedDefaults(ctx context.Context) error {
	if err := s.referenceRepo.Seed(ctx, entity.ReferenceKindMaterialCategory, entity.DefaultMaterialCategories); err != nil {
		return fmt.Errorf("seed material categories: %w", err)
	}
	if err := s.referenceRepo.Seed(ctx, entity.ReferenceKindPurpose, entity.DefaultPurposes); err != nil {
		return fmt.Errorf("seed purposes: %w", err)
	}
	return nil
}

func cacheKey(kind string) string {
	return "trial:reference:" + kind
}
