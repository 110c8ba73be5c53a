package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"clinkerplan/pkg/domain"
)

// PlanCache специализированный кэш решённых планов
type PlanCache struct {
	cache      Cache
	defaultTTL time.Duration
	prefix     string
}

// NewPlanCache создаёт кэш решённых планов
func NewPlanCache(cache Cache, defaultTTL time.Duration, prefix string) *PlanCache {
	if defaultTTL <= 0 {
		defaultTTL = 10 * time.Minute
	}
	if prefix == "" {
		prefix = "plan"
	}
	return &PlanCache{
		cache:      cache,
		defaultTTL: defaultTTL,
		prefix:     prefix,
	}
}

// Get получает кэшированный план по отпечатку входных данных
func (pc *PlanCache) Get(ctx context.Context, fp *PlanFingerprint) (*domain.SolvedRun, bool, error) {
	key := BuildPlanKey(pc.prefix, fp.OptimizationType, PlanHash(fp))

	data, err := pc.cache.Get(ctx, key)
	if err != nil {
		if errors.Is(err, ErrKeyNotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}

	var run domain.SolvedRun
	if err := json.Unmarshal(data, &run); err != nil {
		// Повреждённую запись удаляем, ошибку удаления игнорируем намеренно
		_ = pc.cache.Delete(ctx, key) //nolint:errcheck // best effort cleanup
		return nil, false, nil
	}

	return &run, true, nil
}

// Set сохраняет план в кэш
func (pc *PlanCache) Set(ctx context.Context, fp *PlanFingerprint, run *domain.SolvedRun, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = pc.defaultTTL
	}

	data, err := json.Marshal(run)
	if err != nil {
		return err
	}

	key := BuildPlanKey(pc.prefix, fp.OptimizationType, PlanHash(fp))
	return pc.cache.Set(ctx, key, data, ttl)
}

// Invalidate удаляет все кэшированные планы
func (pc *PlanCache) Invalidate(ctx context.Context) (int64, error) {
	return pc.cache.DeleteByPattern(ctx, pc.prefix+":*")
}

// Stats возвращает статистику нижележащего кэша
func (pc *PlanCache) Stats(ctx context.Context) (*Stats, error) {
	return pc.cache.Stats(ctx)
}
