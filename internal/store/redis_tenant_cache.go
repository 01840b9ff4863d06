package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/shardkeeper/shardkeeper/internal/model"
)

// RedisTenantCache implements TenantCache for Redis
type RedisTenantCache struct {
	client *redis.Client
	logger *zap.Logger
}

// NewRedisTenantCache creates a new Redis tenant cache
func NewRedisTenantCache(host string, port int, password string, db int, logger *zap.Logger) (TenantCache, error) {
	addr := fmt.Sprintf("%s:%d", host, port)
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisTenantCache{
		client: client,
		logger: logger,
	}, nil
}

// Get retrieves a cached tenant record
func (c *RedisTenantCache) Get(ctx context.Context, id int64) (*model.Tenant, error) {
	data, err := c.client.Get(ctx, tenantCacheKey(id)).Bytes()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var tenant model.Tenant
	if err := json.Unmarshal(data, &tenant); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached tenant: %w", err)
	}

	return &tenant, nil
}

// Set stores a tenant record with TTL
func (c *RedisTenantCache) Set(ctx context.Context, tenant *model.Tenant, ttl time.Duration) error {
	data, err := json.Marshal(tenant)
	if err != nil {
		return fmt.Errorf("failed to marshal tenant: %w", err)
	}

	return c.client.Set(ctx, tenantCacheKey(tenant.ID), data, ttl).Err()
}

// Delete removes a cached tenant record
func (c *RedisTenantCache) Delete(ctx context.Context, id int64) error {
	return c.client.Del(ctx, tenantCacheKey(id)).Err()
}

// Ping checks the Redis connection
func (c *RedisTenantCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close closes the Redis client
func (c *RedisTenantCache) Close() error {
	return c.client.Close()
}

// tenantCacheKey generates the cache key for a tenant record
func tenantCacheKey(id int64) string {
	return fmt.Sprintf("tenant:record:%d", id)
}
