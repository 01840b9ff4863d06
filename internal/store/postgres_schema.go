package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/shardkeeper/shardkeeper/internal/model"
)

// PostgresSchemaStore implements SchemaStore over per-shard connection
// pools. Table names are qualified with the schema under scan, so one
// store serves every schema on every shard.
type PostgresSchemaStore struct {
	pools  *ShardPools
	logger *zap.Logger
}

// NewPostgresSchemaStore creates a schema store over the given pools.
func NewPostgresSchemaStore(pools *ShardPools, logger *zap.Logger) *PostgresSchemaStore {
	return &PostgresSchemaStore{
		pools:  pools,
		logger: logger,
	}
}

// ScanUsage reads the filestore usage rows of one schema for the given
// tenant ids. The scan holds one leased connection and releases it before
// returning.
func (s *PostgresSchemaStore) ScanUsage(ctx context.Context, ref model.SchemaRef, ids []int64) ([]*model.UsageRecord, error) {
	conn, err := s.pools.Acquire(ctx, ref.ShardID)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	query := fmt.Sprintf(`
		SELECT filestore_id, tenant_id, COALESCE(user_id, 0), used_bytes
		FROM %s
		WHERE tenant_id = ANY($1)
	`, pgx.Identifier{ref.Schema, "filestore_usage"}.Sanitize())

	rows, err := conn.Query(ctx, query, ids)
	if err != nil {
		return nil, &model.StoreError{Op: fmt.Sprintf("usage scan on %s", ref), Err: err}
	}
	defer rows.Close()

	records := make([]*model.UsageRecord, 0)
	for rows.Next() {
		record := &model.UsageRecord{
			ShardID: ref.ShardID,
			Schema:  ref.Schema,
		}
		if err := rows.Scan(&record.FilestoreID, &record.TenantID, &record.UserID, &record.UsedBytes); err != nil {
			return nil, &model.StoreError{Op: fmt.Sprintf("usage scan on %s", ref), Err: err}
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, &model.StoreError{Op: fmt.Sprintf("usage scan on %s", ref), Err: err}
	}

	return records, nil
}

// ScanAttributes reads the raw attribute rows of one schema for the given
// tenant ids. Name filtering is the caller's concern; the scan returns
// every row.
func (s *PostgresSchemaStore) ScanAttributes(ctx context.Context, ref model.SchemaRef, ids []int64) ([]model.AttributeRow, error) {
	conn, err := s.pools.Acquire(ctx, ref.ShardID)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	query := fmt.Sprintf(`
		SELECT tenant_id, name, value
		FROM %s
		WHERE tenant_id = ANY($1)
	`, pgx.Identifier{ref.Schema, "tenant_attributes"}.Sanitize())

	rows, err := conn.Query(ctx, query, ids)
	if err != nil {
		return nil, &model.StoreError{Op: fmt.Sprintf("attribute scan on %s", ref), Err: err}
	}
	defer rows.Close()

	attrs := make([]model.AttributeRow, 0)
	for rows.Next() {
		var row model.AttributeRow
		if err := rows.Scan(&row.TenantID, &row.Name, &row.Value); err != nil {
			return nil, &model.StoreError{Op: fmt.Sprintf("attribute scan on %s", ref), Err: err}
		}
		attrs = append(attrs, row)
	}
	if err := rows.Err(); err != nil {
		return nil, &model.StoreError{Op: fmt.Sprintf("attribute scan on %s", ref), Err: err}
	}

	return attrs, nil
}
