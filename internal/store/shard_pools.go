package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/shardkeeper/shardkeeper/internal/model"
)

// ShardPools manages one pgx connection pool per shard. Pools are built
// lazily from configured DSNs and shared across concurrent schema scans;
// each scan leases exactly one connection and releases it before its
// result is merged.
type ShardPools struct {
	dsns     map[int64]string
	maxConns int

	mu     sync.Mutex
	pools  map[int64]*pgxpool.Pool
	logger *zap.Logger
}

// NewShardPools creates a pool manager over the configured shard DSNs.
func NewShardPools(dsns map[int64]string, maxConns int, logger *zap.Logger) *ShardPools {
	return &ShardPools{
		dsns:     dsns,
		maxConns: maxConns,
		pools:    make(map[int64]*pgxpool.Pool),
		logger:   logger,
	}
}

// Acquire leases one connection for the given shard. Lease failure is
// reported as PoolUnavailableError scoped to that shard; other shards'
// groups are unaffected.
func (p *ShardPools) Acquire(ctx context.Context, shardID int64) (*pgxpool.Conn, error) {
	pool, err := p.pool(ctx, shardID)
	if err != nil {
		return nil, &model.PoolUnavailableError{ShardID: shardID, Err: err}
	}

	conn, err := pool.Acquire(ctx)
	if err != nil {
		return nil, &model.PoolUnavailableError{ShardID: shardID, Err: err}
	}
	return conn, nil
}

// pool returns the lazily built pool for a shard.
func (p *ShardPools) pool(ctx context.Context, shardID int64) (*pgxpool.Pool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if pool, ok := p.pools[shardID]; ok {
		return pool, nil
	}

	dsn, ok := p.dsns[shardID]
	if !ok {
		return nil, fmt.Errorf("no DSN configured for shard %d", shardID)
	}

	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse shard DSN: %w", err)
	}
	config.MaxConns = int32(p.maxConns)

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create shard pool: %w", err)
	}

	p.logger.Info("Shard pool created",
		zap.Int64("shard_id", shardID),
		zap.Int("max_conns", p.maxConns))

	p.pools[shardID] = pool
	return pool, nil
}

// Ping verifies connectivity to every shard that already has a pool.
func (p *ShardPools) Ping(ctx context.Context) error {
	p.mu.Lock()
	pools := make(map[int64]*pgxpool.Pool, len(p.pools))
	for id, pool := range p.pools {
		pools[id] = pool
	}
	p.mu.Unlock()

	for id, pool := range pools {
		if err := pool.Ping(ctx); err != nil {
			return fmt.Errorf("shard %d unreachable: %w", id, err)
		}
	}
	return nil
}

// Close closes all shard pools.
func (p *ShardPools) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	for id, pool := range p.pools {
		pool.Close()
		delete(p.pools, id)
	}
}
