package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"pisces-api/pkg/redis"
)

// CacheService remembers which subject ids already have a persisted record,
// saving a store read on repeat sign-ins
type CacheService struct {
	redis  *redis.Client
	logger *zap.Logger
}

// NewCacheService creates a new cache service
func NewCacheService(redisClient *redis.Client, logger *zap.Logger) *CacheService {
	return &CacheService{
		redis:  redisClient,
		logger: logger,
	}
}

// IsUserKnownWithCache checks the known-user marker first and falls back to the store.
// Cache errors never fail the call.
func (c *CacheService) IsUserKnownWithCache(ctx context.Context, userID string, dbFallback func(ctx context.Context, id string) (bool, error)) (bool, error) {
	cacheKey := c.redis.KeyBuilder.KeyUserKnown(userID)

	exists, err := c.redis.Exists(ctx, cacheKey)
	if err == nil && exists > 0 {
		c.logger.Debug("Known user cache hit", zap.String("user_id", userID))
		return true, nil
	} else if err != nil {
		c.logger.Warn("Known user cache error, falling back to store",
			zap.String("user_id", userID),
			zap.Error(err))
	}

	c.logger.Debug("Known user cache miss", zap.String("user_id", userID))
	known, err := dbFallback(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("store fallback failed: %w", err)
	}

	if known {
		c.MarkUserKnown(ctx, userID)
	}
	return known, nil
}

// MarkUserKnown records that userID has a persisted record. Failures are logged only.
func (c *CacheService) MarkUserKnown(ctx context.Context, userID string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()

	if err := c.redis.Set(ctx, c.redis.KeyBuilder.KeyUserKnown(userID), "1", redis.TTLUserKnown); err != nil {
		c.logger.Warn("Failed to mark user as known",
			zap.String("user_id", userID),
			zap.Error(err))
	}
}
