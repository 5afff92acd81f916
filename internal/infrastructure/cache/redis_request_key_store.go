package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/schoolerp/feeledger/internal/domain/shared"
)

const defaultKeyPrefix = "feeledger:reqkey:"

// RedisRequestKeyStore implements RequestKeyStore on Redis so that every
// instance sees the same keys
type RedisRequestKeyStore struct {
	client    *redis.Client
	keyPrefix string
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// NewRedisRequestKeyStore connects to Redis and pings it
func NewRedisRequestKeyStore(cfg RedisConfig) (*RedisRequestKeyStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return NewRedisRequestKeyStoreWithClient(client, ""), nil
}

// NewRedisRequestKeyStoreWithClient wraps an existing client
func NewRedisRequestKeyStoreWithClient(client *redis.Client, keyPrefix string) *RedisRequestKeyStore {
	if keyPrefix == "" {
		keyPrefix = defaultKeyPrefix
	}
	return &RedisRequestKeyStore{client: client, keyPrefix: keyPrefix}
}

// Claim uses SETNX with an empty value as the in-flight marker
func (s *RedisRequestKeyStore) Claim(ctx context.Context, key string, ttl time.Duration) (bool, string, error) {
	k := s.keyPrefix + key
	ok, err := s.client.SetNX(ctx, k, "", ttl).Result()
	if err != nil {
		return false, "", fmt.Errorf("failed to claim request key: %w", err)
	}
	if ok {
		return true, "", nil
	}

	value, err := s.client.Get(ctx, k).Result()
	if errors.Is(err, redis.Nil) {
		// expired or released between SETNX and GET
		return s.Claim(ctx, key, ttl)
	}
	if err != nil {
		return false, "", fmt.Errorf("failed to read request key: %w", err)
	}
	return false, value, nil
}

// Complete overwrites the in-flight marker with value
func (s *RedisRequestKeyStore) Complete(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := s.client.Set(ctx, s.keyPrefix+key, value, ttl).Err(); err != nil {
		return fmt.Errorf("failed to complete request key: %w", err)
	}
	return nil
}

// Release deletes key
func (s *RedisRequestKeyStore) Release(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.keyPrefix+key).Err(); err != nil {
		return fmt.Errorf("failed to release request key: %w", err)
	}
	return nil
}

// Ping reports whether Redis is reachable
func (s *RedisRequestKeyStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the Redis client
func (s *RedisRequestKeyStore) Close() error {
	return s.client.Close()
}

var _ shared.RequestKeyStore = (*RedisRequestKeyStore)(nil)
