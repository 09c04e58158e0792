package cache

import (
	"go.uber.org/zap"

	"github.com/retailops/core/internal/infrastructure/config"
)

// NewIdempotencyStore selects the idempotency store implementation based on
// configuration: Redis when enabled, in-memory otherwise. A Redis connection
// failure falls back to the in-memory store rather than refusing to start.
func NewIdempotencyStore(cfg *config.Config, logger *zap.Logger) IdempotencyStore {
	if !cfg.Redis.Enabled {
		logger.Info("using in-memory idempotency store")
		return NewInMemoryIdempotencyStore()
	}

	store, err := NewRedisIdempotencyStore(cfg.Redis)
	if err != nil {
		logger.Warn("Redis unavailable, falling back to in-memory idempotency store",
			zap.String("addr", cfg.Redis.Addr()),
			zap.Error(err))
		return NewInMemoryIdempotencyStore()
	}

	logger.Info("using Redis idempotency store", zap.String("addr", cfg.Redis.Addr()))
	return store
}
