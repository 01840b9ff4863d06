package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"github.com/shardkeeper/shardkeeper/internal/model"
)

func TestPlaceSchema_PicksUnderloadedShard(t *testing.T) {
	directory := new(MockDirectoryStore)
	logger := zap.NewNop()

	directory.On("SnapshotShards", mock.Anything).
		Return(&model.ShardSnapshot{
			Shards: []*model.Shard{
				{ID: 1, MaxUnits: 100, CurrentUnits: 90, SchemaCount: 18, Weight: 1},
				{ID: 2, MaxUnits: 100, CurrentUnits: 10, SchemaCount: 2, Weight: 1},
			},
			TotalWeight: 2,
			TakenAt:     time.Now(),
		}, nil)

	placement := NewPlacementService(directory, "tenant_db", nil, logger)
	decision, err := placement.PlaceSchema(context.Background())

	assert.NoError(t, err)
	assert.Equal(t, int64(2), decision.ShardID)
	assert.Equal(t, "tenant_db_2_3", decision.Schema)
	assert.NotEmpty(t, decision.ID)
}

func TestPlaceSchema_NoCapacity(t *testing.T) {
	directory := new(MockDirectoryStore)
	logger := zap.NewNop()

	directory.On("SnapshotShards", mock.Anything).
		Return(&model.ShardSnapshot{
			Shards: []*model.Shard{
				{ID: 1, MaxUnits: 10, CurrentUnits: 10, Weight: 1},
			},
			TotalWeight: 1,
		}, nil)

	placement := NewPlacementService(directory, "tenant_db", nil, logger)
	decision, err := placement.PlaceSchema(context.Background())

	assert.Nil(t, decision)
	var noCapacity *model.NoCapacityError
	assert.ErrorAs(t, err, &noCapacity)
}

func TestPlaceSchema_FreshSnapshotPerCall(t *testing.T) {
	directory := new(MockDirectoryStore)
	logger := zap.NewNop()

	directory.On("SnapshotShards", mock.Anything).
		Return(&model.ShardSnapshot{
			Shards: []*model.Shard{
				{ID: 1, MaxUnits: 100, CurrentUnits: 0, SchemaCount: 0, Weight: 1},
			},
			TotalWeight: 1,
		}, nil)

	placement := NewPlacementService(directory, "tenant_db", nil, logger)

	_, err := placement.PlaceSchema(context.Background())
	assert.NoError(t, err)
	_, err = placement.PlaceSchema(context.Background())
	assert.NoError(t, err)

	directory.AssertNumberOfCalls(t, "SnapshotShards", 2)
}
