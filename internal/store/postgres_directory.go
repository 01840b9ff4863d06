package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/shardkeeper/shardkeeper/internal/model"
)

// PostgresDirectoryStore implements DirectoryStore for PostgreSQL
type PostgresDirectoryStore struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewPostgresDirectoryStore creates a new PostgreSQL directory store
func NewPostgresDirectoryStore(
	host string,
	port int,
	database, user, password string,
	maxConns, minConns int,
	logger *zap.Logger,
) (*PostgresDirectoryStore, error) {
	connString := fmt.Sprintf(
		"host=%s port=%d dbname=%s user=%s password=%s pool_max_conns=%d pool_min_conns=%d",
		host, port, database, user, password, maxConns, minConns,
	)

	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(context.Background(), config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	// Test connection
	if err := pool.Ping(context.Background()); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping directory database: %w", err)
	}

	return &PostgresDirectoryStore{
		pool:   pool,
		logger: logger,
	}, nil
}

// LoadTenants fetches base tenant records for the requested ids, ordered
// by (read shard, schema) so tenants sharing a schema are adjacent for the
// enrichment stages.
func (s *PostgresDirectoryStore) LoadTenants(ctx context.Context, scope string, ids []int64) ([]*model.Tenant, error) {
	query := `
		SELECT t.tenant_id, t.name, t.enabled,
		       COALESCE(t.maintenance_reason_id, -1),
		       t.filestore_id, t.filestore_name,
		       COALESCE(t.quota_max_bytes, -1),
		       a.read_shard_id, a.write_shard_id, a.schema_name
		FROM tenants t
		JOIN tenant_schema a ON a.tenant_id = t.tenant_id
		WHERE t.scope = $1 AND t.tenant_id = ANY($2)
		ORDER BY a.read_shard_id, a.schema_name, t.tenant_id
	`

	rows, err := s.pool.Query(ctx, query, scope, ids)
	if err != nil {
		return nil, &model.StoreError{Op: "directory: load tenants", Err: err}
	}
	defer rows.Close()

	tenants := make([]*model.Tenant, 0, len(ids))
	for rows.Next() {
		tenant := model.NewTenant(0)
		var schema string
		if err := rows.Scan(
			&tenant.ID,
			&tenant.Name,
			&tenant.Enabled,
			&tenant.MaintenanceReasonID,
			&tenant.FilestoreID,
			&tenant.FilestoreName,
			&tenant.QuotaMaxBytes,
			&tenant.ReadShard.ShardID,
			&tenant.WriteShard.ShardID,
			&schema,
		); err != nil {
			return nil, &model.StoreError{Op: "directory: scan tenant row", Err: err}
		}
		// Reader and writer always share one logical schema.
		tenant.ReadShard.Schema = schema
		tenant.WriteShard.Schema = schema
		tenants = append(tenants, tenant)
	}
	if err := rows.Err(); err != nil {
		return nil, &model.StoreError{Op: "directory: load tenants", Err: err}
	}

	return tenants, nil
}

// LoadLoginAliases fetches login alias rows for the requested ids.
func (s *PostgresDirectoryStore) LoadLoginAliases(ctx context.Context, scope string, ids []int64) (map[int64][]string, error) {
	query := `
		SELECT tenant_id, alias
		FROM login_aliases
		WHERE scope = $1 AND tenant_id = ANY($2)
		ORDER BY tenant_id, alias
	`

	rows, err := s.pool.Query(ctx, query, scope, ids)
	if err != nil {
		return nil, &model.StoreError{Op: "directory: load login aliases", Err: err}
	}
	defer rows.Close()

	aliases := make(map[int64][]string)
	for rows.Next() {
		var tenantID int64
		var alias string
		if err := rows.Scan(&tenantID, &alias); err != nil {
			return nil, &model.StoreError{Op: "directory: scan alias row", Err: err}
		}
		aliases[tenantID] = append(aliases[tenantID], alias)
	}
	if err := rows.Err(); err != nil {
		return nil, &model.StoreError{Op: "directory: load login aliases", Err: err}
	}

	return aliases, nil
}

// SnapshotShards reads the shard topology for one allocation decision.
func (s *PostgresDirectoryStore) SnapshotShards(ctx context.Context) (*model.ShardSnapshot, error) {
	query := `
		SELECT shard_id, max_units, current_units, schema_count, weight
		FROM shards
		ORDER BY shard_id
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, &model.StoreError{Op: "directory: snapshot shards", Err: err}
	}
	defer rows.Close()

	snapshot := &model.ShardSnapshot{TakenAt: time.Now()}
	for rows.Next() {
		var shard model.Shard
		if err := rows.Scan(&shard.ID, &shard.MaxUnits, &shard.CurrentUnits, &shard.SchemaCount, &shard.Weight); err != nil {
			return nil, &model.StoreError{Op: "directory: scan shard row", Err: err}
		}
		snapshot.Shards = append(snapshot.Shards, &shard)
		snapshot.TotalWeight += shard.Weight
	}
	if err := rows.Err(); err != nil {
		return nil, &model.StoreError{Op: "directory: snapshot shards", Err: err}
	}

	return snapshot, nil
}

// RegisterTenant inserts the base row for a newly provisioned tenant.
func (s *PostgresDirectoryStore) RegisterTenant(ctx context.Context, scope string, tenant *model.Tenant) error {
	query := `
		INSERT INTO tenants (tenant_id, scope, name, enabled, filestore_id, filestore_name, quota_max_bytes)
		VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, -1))
	`

	_, err := s.pool.Exec(ctx, query,
		tenant.ID,
		scope,
		tenant.Name,
		tenant.Enabled,
		tenant.FilestoreID,
		tenant.FilestoreName,
		tenant.QuotaMaxBytes,
	)
	if err != nil {
		return &model.StoreError{Op: "directory: register tenant", Err: err}
	}

	return nil
}

// RegisterLoginAlias inserts one alias row for a tenant.
func (s *PostgresDirectoryStore) RegisterLoginAlias(ctx context.Context, scope string, tenantID int64, alias string) error {
	query := `
		INSERT INTO login_aliases (scope, tenant_id, alias)
		VALUES ($1, $2, $3)
		ON CONFLICT DO NOTHING
	`

	_, err := s.pool.Exec(ctx, query, scope, tenantID, alias)
	if err != nil {
		return &model.StoreError{Op: "directory: register login alias", Err: err}
	}

	return nil
}

// Ping checks the database connection
func (s *PostgresDirectoryStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close closes the connection pool
func (s *PostgresDirectoryStore) Close() {
	s.pool.Close()
}
