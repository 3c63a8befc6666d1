package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	appErrors "github.com/gearguard/gearguard-api/pkg/errors"
)

// CacheRepository abstracts the cache backend.
type CacheRepository interface {
	Get(ctx context.Context, key string, dest any) error
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

// CacheService wraps the cache repository with metrics and TTL defaults.
// A nil CacheService is valid and disables caching.
type CacheService struct {
	repo    CacheRepository
	metrics *MetricsService
	logger  *zap.Logger
	ttl     time.Duration
}

func NewCacheService(repo CacheRepository, metrics *MetricsService, logger *zap.Logger, ttl time.Duration) *CacheService {
	if repo == nil {
		return nil
	}
	return &CacheService{
		repo:    repo,
		metrics: metrics,
		logger:  logger,
		ttl:     ttl,
	}
}

// Enabled reports whether caching is active.
func (s *CacheService) Enabled() bool {
	return s != nil
}

// Get loads a cached value into dest. Returns false on miss or error.
func (s *CacheService) Get(ctx context.Context, key string, dest any) bool {
	if s == nil {
		return false
	}
	err := s.repo.Get(ctx, key, dest)
	if err != nil {
		if !appErrors.HasCode(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("cache get failed", zap.String("key", key), zap.Error(err))
		}
		s.metrics.RecordCacheOperation(false)
		return false
	}
	s.metrics.RecordCacheOperation(true)
	return true
}

// Set stores a value under key with the configured TTL.
func (s *CacheService) Set(ctx context.Context, key string, value any) {
	if s == nil {
		return
	}
	if err := s.repo.Set(ctx, key, value, s.ttl); err != nil {
		s.logger.Warn("cache set failed", zap.String("key", key), zap.Error(err))
	}
}

// Invalidate removes all keys matching the pattern.
func (s *CacheService) Invalidate(ctx context.Context, pattern string) {
	if s == nil {
		return
	}
	if err := s.repo.DeleteByPattern(ctx, pattern); err != nil {
		s.logger.Warn("cache invalidate failed", zap.String("pattern", pattern), zap.Error(err))
	}
}
