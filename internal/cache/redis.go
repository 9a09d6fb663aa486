// Package cache provides the Redis-backed continuity store. It is optional;
// when Redis is disabled the engine falls back to its in-process store.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"

	"github.com/rami12200/trading-signals-sub000/internal/engine"
	"github.com/rami12200/trading-signals-sub000/pkg/config"
)

const continuityPrefix = "continuity:"

// RedisStore persists signal continuity state in Redis so signal age
// survives process restarts.
type RedisStore struct {
	client *redis.Client
	logger *logrus.Entry
	ttl    time.Duration
}

// NewRedisStore connects to Redis and verifies the connection. ttl bounds
// how long a continuity entry outlives its last update.
func NewRedisStore(cfg *config.RedisConfig, ttl time.Duration, logger *logrus.Logger) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}

	return &RedisStore{
		client: client,
		logger: logger.WithField("component", "redis"),
		ttl:    ttl,
	}, nil
}

// Get returns the continuity state for a key, or nil when absent
func (s *RedisStore) Get(ctx context.Context, key string) (*engine.ContinuityState, error) {
	data, err := s.client.Get(ctx, continuityPrefix+key).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get continuity state: %w", err)
	}

	var state engine.ContinuityState
	if err := json.Unmarshal([]byte(data), &state); err != nil {
		return nil, fmt.Errorf("failed to unmarshal continuity state: %w", err)
	}
	return &state, nil
}

// Set stores the continuity state for a key with the configured TTL
func (s *RedisStore) Set(ctx context.Context, key string, state *engine.ContinuityState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal continuity state: %w", err)
	}
	return s.client.Set(ctx, continuityPrefix+key, data, s.ttl).Err()
}

// Health checks the Redis connection
func (s *RedisStore) Health(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the Redis connection
func (s *RedisStore) Close() error {
	return s.client.Close()
}
