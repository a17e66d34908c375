package cache

import (
	"fmt"

	"github.com/llmstack/backend/internal/domain/connection"
	"github.com/llmstack/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// ActivationLockFactory creates activation locks based on configuration
type ActivationLockFactory struct {
	redisConfig           config.RedisConfig
	logger                *zap.Logger
	allowInMemoryFallback bool
}

// ActivationLockFactoryOption is a functional option for configuring the factory
type ActivationLockFactoryOption func(*ActivationLockFactory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) ActivationLockFactoryOption {
	return func(f *ActivationLockFactory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether an unreachable Redis falls back to a
// process-local lock. Default is true.
func WithInMemoryFallback(allow bool) ActivationLockFactoryOption {
	return func(f *ActivationLockFactory) {
		f.allowInMemoryFallback = allow
	}
}

// NewActivationLockFactory creates a new factory
func NewActivationLockFactory(cfg config.RedisConfig, opts ...ActivationLockFactoryOption) *ActivationLockFactory {
	f := &ActivationLockFactory{
		redisConfig:           cfg,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// CreateLock returns a Redis lock when Redis is enabled and reachable, and an
// in-memory lock otherwise (if fallback is allowed).
func (f *ActivationLockFactory) CreateLock() (connection.ActivationLock, error) {
	if !f.redisConfig.Enabled {
		f.logger.Info("Redis disabled, using in-memory activation lock")
		return NewInMemoryActivationLock(), nil
	}

	lock, err := NewRedisActivationLock(RedisConfig{
		Host:     f.redisConfig.Host,
		Port:     f.redisConfig.Port,
		Password: f.redisConfig.Password,
		DB:       f.redisConfig.DB,
	})
	if err == nil {
		f.logger.Info("using Redis activation lock")
		return lock, nil
	}

	if !f.allowInMemoryFallback {
		return nil, fmt.Errorf("Redis required for activation lock but unavailable: %w", err)
	}

	f.logger.Warn("Redis unavailable, falling back to in-memory activation lock. "+
		"Concurrent activations across instances are not excluded.",
		zap.Error(err),
	)
	return NewInMemoryActivationLock(), nil
}
