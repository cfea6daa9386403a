package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/davidleathers/normative-engine/internal/domain/normative"
	"github.com/davidleathers/normative-engine/internal/infrastructure/config"
)

// FrameworkKeyPrefix namespaces framework entries in Redis.
const FrameworkKeyPrefix = "nce:framework:"

// DefaultFrameworkTTL bounds staleness of cached frameworks.
const DefaultFrameworkTTL = time.Hour

// FrameworkCache caches frameworks in Redis as a read-through layer between
// the engine's in-memory state and the repository.
type FrameworkCache struct {
	client *redis.Client
	logger *zap.Logger
	ttl    time.Duration
}

// NewFrameworkCache creates a Redis-backed framework cache and verifies
// connectivity with a ping.
func NewFrameworkCache(cfg *config.RedisConfig, logger *zap.Logger) (*FrameworkCache, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if cfg == nil {
		return nil, fmt.Errorf("redis config is required")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.URL,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = DefaultFrameworkTTL
	}

	logger.Info("framework cache initialized",
		zap.String("addr", cfg.URL),
		zap.Int("db", cfg.DB),
		zap.Duration("ttl", ttl))

	return &FrameworkCache{
		client: client,
		logger: logger,
		ttl:    ttl,
	}, nil
}

// NewFrameworkCacheWithClient wraps an existing client, used in tests.
func NewFrameworkCacheWithClient(client *redis.Client, logger *zap.Logger, ttl time.Duration) *FrameworkCache {
	if ttl <= 0 {
		ttl = DefaultFrameworkTTL
	}
	return &FrameworkCache{client: client, logger: logger, ttl: ttl}
}

// GetFramework returns the cached framework, or (nil, nil) on a miss.
func (c *FrameworkCache) GetFramework(ctx context.Context, id uuid.UUID) (*normative.Framework, error) {
	data, err := c.client.Get(ctx, frameworkKey(id)).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		c.logger.Error("framework cache get failed", zap.String("framework_id", id.String()), zap.Error(err))
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var framework normative.Framework
	if err := json.Unmarshal([]byte(data), &framework); err != nil {
		c.logger.Error("framework cache unmarshal failed", zap.String("framework_id", id.String()), zap.Error(err))
		return nil, fmt.Errorf("json unmarshal failed: %w", err)
	}

	return &framework, nil
}

// SetFramework stores the framework with the configured TTL.
func (c *FrameworkCache) SetFramework(ctx context.Context, framework *normative.Framework) error {
	data, err := json.Marshal(framework)
	if err != nil {
		return fmt.Errorf("json marshal failed: %w", err)
	}

	if err := c.client.Set(ctx, frameworkKey(framework.ID), data, c.ttl).Err(); err != nil {
		c.logger.Error("framework cache set failed", zap.String("framework_id", framework.ID.String()), zap.Error(err))
		return fmt.Errorf("redis set failed: %w", err)
	}

	return nil
}

// DeleteFramework evicts the framework.
func (c *FrameworkCache) DeleteFramework(ctx context.Context, id uuid.UUID) error {
	if err := c.client.Del(ctx, frameworkKey(id)).Err(); err != nil {
		c.logger.Error("framework cache delete failed", zap.String("framework_id", id.String()), zap.Error(err))
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

// Close closes the underlying Redis connection.
func (c *FrameworkCache) Close() error {
	return c.client.Close()
}

func frameworkKey(id uuid.UUID) string {
	return FrameworkKeyPrefix + id.String()
}
