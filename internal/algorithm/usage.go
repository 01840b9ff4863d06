package algorithm

import "github.com/shardkeeper/shardkeeper/internal/model"

// userKey identifies a user-level usage entry within a block.
type userKey struct {
	TenantID int64
	UserID   int64
}

// UsageAggregator rolls up filestore usage for a single
// (shard, schema, filestore) block. A usage scan feeds its rows into one
// aggregator; tenant-level and user-level entries are kept apart. The
// working set is single-threaded by contract: callers that fan out across
// blocks run one aggregator per block.
type UsageAggregator struct {
	FilestoreID int64
	Ref         model.SchemaRef

	tenantUsage map[int64]*model.UsageRecord
	userUsage   map[userKey]*model.UsageRecord
}

// NewUsageAggregator creates an empty aggregation block for one filestore
// on one schema.
func NewUsageAggregator(filestoreID int64, ref model.SchemaRef) *UsageAggregator {
	return &UsageAggregator{
		FilestoreID: filestoreID,
		Ref:         ref,
		tenantUsage: make(map[int64]*model.UsageRecord),
		userUsage:   make(map[userKey]*model.UsageRecord),
	}
}

// Add inserts a usage entry the first time its key is seen. Later rows
// for a known key go through the update path; Add never overwrites.
func (a *UsageAggregator) Add(record *model.UsageRecord) {
	if record.IsUserLevel() {
		key := userKey{TenantID: record.TenantID, UserID: record.UserID}
		if _, ok := a.userUsage[key]; !ok {
			a.userUsage[key] = record
		}
		return
	}
	if _, ok := a.tenantUsage[record.TenantID]; !ok {
		a.tenantUsage[record.TenantID] = record
	}
}

// UpdateTenantUsage overwrites the used bytes of a known tenant-level
// entry. Unknown keys are a no-op; updates never create entries.
func (a *UsageAggregator) UpdateTenantUsage(tenantID, usedBytes int64) {
	if record, ok := a.tenantUsage[tenantID]; ok {
		record.UsedBytes = usedBytes
	}
}

// UpdateUserUsage overwrites the used bytes of a known user-level entry.
// Unknown keys are a no-op.
func (a *UsageAggregator) UpdateUserUsage(tenantID, userID, usedBytes int64) {
	if record, ok := a.userUsage[userKey{TenantID: tenantID, UserID: userID}]; ok {
		record.UsedBytes = usedBytes
	}
}

// TenantUsage returns the aggregated tenant-level used bytes, if any row
// for the tenant was seen in this block.
func (a *UsageAggregator) TenantUsage(tenantID int64) (int64, bool) {
	record, ok := a.tenantUsage[tenantID]
	if !ok {
		return 0, false
	}
	return record.UsedBytes, true
}

// UserUsage returns the aggregated used bytes for one (tenant, user) pair.
func (a *UsageAggregator) UserUsage(tenantID, userID int64) (int64, bool) {
	record, ok := a.userUsage[userKey{TenantID: tenantID, UserID: userID}]
	if !ok {
		return 0, false
	}
	return record.UsedBytes, true
}

// IsEmpty reports whether the block holds no entries at all. Callers prune
// empty blocks from further processing.
func (a *UsageAggregator) IsEmpty() bool {
	return len(a.tenantUsage) == 0 && len(a.userUsage) == 0
}
