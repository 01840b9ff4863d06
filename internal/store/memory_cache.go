package store

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/shardkeeper/shardkeeper/internal/model"
)

// InMemoryTenantCache implements TenantCache using an in-memory map. It
// is the fallback when no Redis endpoint is configured.
type InMemoryTenantCache struct {
	data    map[int64]*cacheItem
	mu      sync.RWMutex
	maxSize int
	logger  *zap.Logger
}

type cacheItem struct {
	tenant    *model.Tenant
	expiresAt time.Time
}

// NewInMemoryTenantCache creates a new in-memory tenant cache
func NewInMemoryTenantCache(maxSize int, logger *zap.Logger) TenantCache {
	return &InMemoryTenantCache{
		data:    make(map[int64]*cacheItem),
		maxSize: maxSize,
		logger:  logger,
	}
}

// Get retrieves a cached tenant record
func (c *InMemoryTenantCache) Get(ctx context.Context, id int64) (*model.Tenant, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	item, exists := c.data[id]
	if !exists {
		return nil, ErrNotFound
	}

	// Check if expired
	if time.Now().After(item.expiresAt) {
		return nil, ErrNotFound
	}

	return item.tenant, nil
}

// Set stores a tenant record with TTL
func (c *InMemoryTenantCache) Set(ctx context.Context, tenant *model.Tenant, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	// Simple size-based eviction: expired entries first, then anything.
	if len(c.data) >= c.maxSize {
		for id, item := range c.data {
			if time.Now().After(item.expiresAt) {
				delete(c.data, id)
				break
			}
		}
		if len(c.data) >= c.maxSize {
			for id := range c.data {
				delete(c.data, id)
				break
			}
		}
	}

	c.data[tenant.ID] = &cacheItem{
		tenant:    tenant,
		expiresAt: time.Now().Add(ttl),
	}
	return nil
}

// Delete removes a cached tenant record
func (c *InMemoryTenantCache) Delete(ctx context.Context, id int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.data, id)
	return nil
}

// Ping is a no-op for the in-memory cache
func (c *InMemoryTenantCache) Ping(ctx context.Context) error {
	return nil
}

// Close is a no-op for the in-memory cache
func (c *InMemoryTenantCache) Close() error {
	return nil
}
