package services

import (
	"context"
	"errors"
	"time"

	"tripmate/pkg/cache"
	"tripmate/pkg/logger"
)

type CacheService interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

type cacheService struct {
	backend   CacheService
	keyPrefix string
	logger    *logger.Logger
}

// NewCacheService namespaces keys and logs backend failures. backend is
// usually a *cache.RedisCache.
func NewCacheService(backend CacheService, keyPrefix string, log *logger.Logger) CacheService {
	return &cacheService{
		backend:   backend,
		keyPrefix: keyPrefix,
		logger:    log,
	}
}

func (s *cacheService) Get(ctx context.Context, key string, dest interface{}) error {
	err := s.backend.Get(ctx, s.buildKey(key), dest)
	if err != nil && !errors.Is(err, cache.ErrCacheMiss) {
		s.logger.WithError(err).WithField("key", key).Warn("Cache get failed")
	}
	return err
}

func (s *cacheService) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	if err := s.backend.Set(ctx, s.buildKey(key), value, expiration); err != nil {
		s.logger.WithError(err).WithField("key", key).Warn("Cache set failed")
		return err
	}
	return nil
}

func (s *cacheService) Delete(ctx context.Context, keys ...string) error {
	prefixed := make([]string, len(keys))
	for i, key := range keys {
		prefixed[i] = s.buildKey(key)
	}
	if err := s.backend.Delete(ctx, prefixed...); err != nil {
		s.logger.WithError(err).Warn("Cache delete failed")
		return err
	}
	return nil
}

func (s *cacheService) buildKey(key string) string {
	if s.keyPrefix == "" {
		return key
	}
	return s.keyPrefix + ":" + key
}
