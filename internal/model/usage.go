package model

// NoUser marks a tenant-level usage record. Directory user ids are
// strictly positive.
const NoUser int64 = 0

// UsageRecord represents the filestore usage of one tenant, or one
// (tenant, user) pair, within one shard schema. UsedBytes is an
// accumulator updated in place during an aggregation run.
type UsageRecord struct {
	FilestoreID int64
	ShardID     int64
	Schema      string
	TenantID    int64
	UserID      int64
	UsedBytes   int64
}

// IsUserLevel reports whether the record belongs to a single user rather
// than the tenant as a whole.
func (r *UsageRecord) IsUserLevel() bool {
	return r.UserID != NoUser
}
