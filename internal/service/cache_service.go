package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	appErrors "github.com/noah-isme/codepulse-api/pkg/errors"
)

// CacheRepository abstracts the cache backend (in-memory or Redis).
type CacheRepository interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	DeletePattern(ctx context.Context, pattern string) error
}

const (
	githubReposCacheKey        = "github:repos:%s"
	githubValidationCacheKey   = "validation:github:%s"
	leetcodeValidationCacheKey = "validation:leetcode:%s"
	classAveragesCacheKey      = "class:averages:%s"
	classOverviewCacheKey      = "class:overview:%s"
	classScopePattern          = "class:*:%s"
)

// CacheService fronts the cache backend. Backend failures are logged and reported but never
// fatal to callers, and a disabled service behaves as a permanent miss.
type CacheService struct {
	repo       CacheRepository
	metrics    *MetricsService
	defaultTTL time.Duration
	logger     *zap.Logger
	enabled    bool
	flight     singleflight.Group
}

// NewCacheService constructs a cache service.
func NewCacheService(repo CacheRepository, metrics *MetricsService, defaultTTL time.Duration, logger *zap.Logger, enabled bool) *CacheService {
	if defaultTTL <= 0 {
		defaultTTL = 10 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CacheService{repo: repo, metrics: metrics, defaultTTL: defaultTTL, logger: logger, enabled: enabled}
}

// Enabled indicates whether caching is active.
func (s *CacheService) Enabled() bool {
	return s != nil && s.enabled && s.repo != nil
}

// Get decodes the entry under key into dest and reports whether it was found.
func (s *CacheService) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	if !s.Enabled() {
		return false, nil
	}
	start := time.Now()
	err := s.repo.Get(ctx, key, dest)
	hit := err == nil
	if s.metrics != nil {
		s.metrics.RecordCacheOperation(hit, time.Since(start))
	}
	if err != nil && !errors.Is(err, appErrors.ErrCacheMiss) {
		s.logger.Warn("cache get failed", zap.String("key", key), zap.Error(err))
		return false, err
	}
	return hit, nil
}

// Set stores value under key. A non-positive ttl selects the default lifetime.
func (s *CacheService) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if !s.Enabled() {
		return nil
	}
	if ttl <= 0 {
		ttl = s.defaultTTL
	}
	start := time.Now()
	err := s.repo.Set(ctx, key, value, ttl)
	if s.metrics != nil {
		s.metrics.ObserveCacheWrite(time.Since(start))
	}
	if err != nil {
		s.logger.Warn("cache set failed", zap.String("key", key), zap.Error(err))
	}
	return err
}

// InvalidateClass drops the cached aggregates of classID and of the whole roster.
func (s *CacheService) InvalidateClass(ctx context.Context, classID string) error {
	if !s.Enabled() {
		return nil
	}
	var errs []error
	if classID != "" {
		if err := s.repo.DeletePattern(ctx, fmt.Sprintf(classScopePattern, classID)); err != nil {
			errs = append(errs, err)
		}
	}
	if err := s.repo.Delete(ctx, fmt.Sprintf(classOverviewCacheKey, allStudentsScope)); err != nil {
		errs = append(errs, err)
	}
	if err := errors.Join(errs...); err != nil {
		s.logger.Warn("class cache invalidation failed", zap.String("class_id", classID), zap.Error(err))
		return err
	}
	return nil
}

// remember serves key from cache or computes it with load. Concurrent misses on one key
// share a single load.
func remember[T any](ctx context.Context, s *CacheService, key string, ttl time.Duration, load func(context.Context) (*T, error)) (*T, bool, error) {
	if !s.Enabled() {
		value, err := load(ctx)
		return value, false, err
	}

	var cached T
	if hit, _ := s.Get(ctx, key, &cached); hit {
		return &cached, true, nil
	}

	shared, err, _ := s.flight.Do(key, func() (interface{}, error) {
		value, err := load(ctx)
		if err != nil {
			return nil, err
		}
		_ = s.Set(ctx, key, value, ttl)
		return value, nil
	})
	if err != nil {
		return nil, false, err
	}
	return shared.(*T), false, nil
}
