package store

import (
	"context"
	"errors"
	"time"

	"github.com/shardkeeper/shardkeeper/internal/model"
)

// ErrNotFound is returned when a key is not found
var ErrNotFound = errors.New("not found")

// DirectoryStore is the central directory database holding tenant base
// metadata, login aliases and the shard topology. Reads are scoped by a
// routing scope string identifying which server environment owns the
// requested tenants.
type DirectoryStore interface {
	// LoadTenants fetches base records for the requested ids. Ids
	// unknown to the directory are simply absent from the result; the
	// caller decides whether that is fatal.
	LoadTenants(ctx context.Context, scope string, ids []int64) ([]*model.Tenant, error)

	// LoadLoginAliases fetches the alias rows for the requested ids,
	// keyed by tenant id. Rows equal to a tenant's canonical id string
	// may be present; filtering them is the caller's concern.
	LoadLoginAliases(ctx context.Context, scope string, ids []int64) (map[int64][]string, error)

	// SnapshotShards reads the current shard topology for one
	// allocation decision.
	SnapshotShards(ctx context.Context) (*model.ShardSnapshot, error)

	// RegisterTenant inserts the base row for a newly provisioned
	// tenant.
	RegisterTenant(ctx context.Context, scope string, tenant *model.Tenant) error

	// RegisterLoginAlias inserts one alias row for a tenant.
	RegisterLoginAlias(ctx context.Context, scope string, tenantID int64, alias string) error

	// Health check
	Ping(ctx context.Context) error
	Close()
}

// SchemaStore scans the per-schema tables that live on the shards. Each
// scan leases one connection for the referenced shard and releases it
// before returning.
type SchemaStore interface {
	// ScanUsage reads the filestore usage rows of one schema for the
	// given tenant ids.
	ScanUsage(ctx context.Context, ref model.SchemaRef, ids []int64) ([]*model.UsageRecord, error)

	// ScanAttributes reads the raw attribute rows of one schema for the
	// given tenant ids.
	ScanAttributes(ctx context.Context, ref model.SchemaRef, ids []int64) ([]model.AttributeRow, error)
}

// TenantCache caches fully assembled tenant records keyed by id.
type TenantCache interface {
	Get(ctx context.Context, id int64) (*model.Tenant, error)
	Set(ctx context.Context, tenant *model.Tenant, ttl time.Duration) error
	Delete(ctx context.Context, id int64) error
	Ping(ctx context.Context) error
	Close() error
}
