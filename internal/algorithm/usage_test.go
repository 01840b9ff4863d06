package algorithm

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/shardkeeper/shardkeeper/internal/model"
)

func testRef() model.SchemaRef {
	return model.SchemaRef{ShardID: 3, Schema: "tenant_db_3_7"}
}

func TestUsageAggregator_InsertThenUpdate(t *testing.T) {
	agg := NewUsageAggregator(11, testRef())

	agg.Add(&model.UsageRecord{FilestoreID: 11, ShardID: 3, Schema: "tenant_db_3_7", TenantID: 42, UsedBytes: 100})
	agg.UpdateTenantUsage(42, 250)

	used, ok := agg.TenantUsage(42)
	assert.True(t, ok)
	assert.Equal(t, int64(250), used)
}

func TestUsageAggregator_AddNeverOverwrites(t *testing.T) {
	agg := NewUsageAggregator(11, testRef())

	agg.Add(&model.UsageRecord{TenantID: 42, UsedBytes: 100})
	agg.Add(&model.UsageRecord{TenantID: 42, UsedBytes: 999})

	used, ok := agg.TenantUsage(42)
	assert.True(t, ok)
	assert.Equal(t, int64(100), used)
}

func TestUsageAggregator_UpdateUnknownKeyIsNoOp(t *testing.T) {
	agg := NewUsageAggregator(11, testRef())

	agg.UpdateTenantUsage(42, 250)
	agg.UpdateUserUsage(42, 7, 250)

	_, ok := agg.TenantUsage(42)
	assert.False(t, ok)
	_, ok = agg.UserUsage(42, 7)
	assert.False(t, ok)
	assert.True(t, agg.IsEmpty())
}

func TestUsageAggregator_UserLevelKeptApart(t *testing.T) {
	agg := NewUsageAggregator(11, testRef())

	agg.Add(&model.UsageRecord{TenantID: 42, UsedBytes: 100})
	agg.Add(&model.UsageRecord{TenantID: 42, UserID: 7, UsedBytes: 30})
	agg.Add(&model.UsageRecord{TenantID: 42, UserID: 8, UsedBytes: 40})
	agg.UpdateUserUsage(42, 7, 35)

	tenantUsed, ok := agg.TenantUsage(42)
	assert.True(t, ok)
	assert.Equal(t, int64(100), tenantUsed)

	userUsed, ok := agg.UserUsage(42, 7)
	assert.True(t, ok)
	assert.Equal(t, int64(35), userUsed)

	userUsed, ok = agg.UserUsage(42, 8)
	assert.True(t, ok)
	assert.Equal(t, int64(40), userUsed)
}

func TestUsageAggregator_IsEmpty(t *testing.T) {
	agg := NewUsageAggregator(11, testRef())
	assert.True(t, agg.IsEmpty())

	agg.Add(&model.UsageRecord{TenantID: 42, UserID: 7, UsedBytes: 30})
	assert.False(t, agg.IsEmpty())
}
