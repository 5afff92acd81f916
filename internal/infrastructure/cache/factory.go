package cache

import (
	"fmt"

	"github.com/schoolerp/feeledger/internal/domain/shared"
	"github.com/schoolerp/feeledger/internal/infrastructure/config"
	"go.uber.org/zap"
)

// RequestKeyStoreFactory picks a request key store based on configuration
type RequestKeyStoreFactory struct {
	redisConfig           config.RedisConfig
	logger                *zap.Logger
	allowInMemoryFallback bool
	connect               func(RedisConfig) (shared.RequestKeyStore, error)
}

// RequestKeyStoreFactoryOption configures the factory
type RequestKeyStoreFactoryOption func(*RequestKeyStoreFactory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) RequestKeyStoreFactoryOption {
	return func(f *RequestKeyStoreFactory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether an unreachable Redis degrades to the
// in-memory store. Default is true.
func WithInMemoryFallback(allow bool) RequestKeyStoreFactoryOption {
	return func(f *RequestKeyStoreFactory) {
		f.allowInMemoryFallback = allow
	}
}

// NewRequestKeyStoreFactory creates a new factory
func NewRequestKeyStoreFactory(cfg config.RedisConfig, opts ...RequestKeyStoreFactoryOption) *RequestKeyStoreFactory {
	f := &RequestKeyStoreFactory{
		redisConfig:           cfg,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
		connect: func(c RedisConfig) (shared.RequestKeyStore, error) {
			return NewRedisRequestKeyStore(c)
		},
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// CreateStore returns a Redis store when Redis is enabled and reachable,
// otherwise the in-memory store if fallback is allowed
func (f *RequestKeyStoreFactory) CreateStore() (shared.RequestKeyStore, error) {
	if !f.redisConfig.Enabled {
		f.logger.Info("Redis disabled, using in-memory request key store")
		return NewInMemoryRequestKeyStore(), nil
	}

	store, err := f.connect(RedisConfig{
		Host:     f.redisConfig.Host,
		Port:     f.redisConfig.Port,
		Password: f.redisConfig.Password,
		DB:       f.redisConfig.DB,
	})
	if err == nil {
		f.logger.Info("Using Redis request key store", zap.String("addr", f.redisConfig.Addr()))
		return store, nil
	}
	if !f.allowInMemoryFallback {
		return nil, fmt.Errorf("redis required for request keys but unavailable: %w", err)
	}

	f.logger.Warn("Redis unavailable, falling back to in-memory request key store. "+
		"Idempotency keys will not be shared between instances.",
		zap.Error(err))
	return NewInMemoryRequestKeyStore(), nil
}
