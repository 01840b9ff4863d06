package algorithm

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/shardkeeper/shardkeeper/internal/model"
)

func TestSelectShard_PrefersMostUnderloaded(t *testing.T) {
	candidates := []*model.Shard{
		{ID: 1, MaxUnits: 100, CurrentUnits: 90},
		{ID: 2, MaxUnits: 100, CurrentUnits: 10},
	}

	// totalUnits=100, fairShare=50: shard 2 scores 40, shard 1 scores -40.
	shard, err := SelectShard(candidates, 2)

	assert.NoError(t, err)
	assert.Equal(t, int64(2), shard.ID)
}

func TestSelectShard_SkipsFullShards(t *testing.T) {
	candidates := []*model.Shard{
		{ID: 1, MaxUnits: 10, CurrentUnits: 10},
		{ID: 2, MaxUnits: 100, CurrentUnits: 99},
	}

	shard, err := SelectShard(candidates, 2)

	assert.NoError(t, err)
	assert.Equal(t, int64(2), shard.ID)
}

func TestSelectShard_AllFull(t *testing.T) {
	candidates := []*model.Shard{
		{ID: 1, MaxUnits: 10, CurrentUnits: 10},
	}

	for _, weight := range []int64{1, 2, 100} {
		shard, err := SelectShard(candidates, weight)

		assert.Nil(t, shard)
		var noCapacity *model.NoCapacityError
		assert.ErrorAs(t, err, &noCapacity)
		assert.Equal(t, 1, noCapacity.Candidates)
	}
}

func TestSelectShard_NoCandidates(t *testing.T) {
	shard, err := SelectShard(nil, 3)

	assert.Nil(t, shard)
	var noCapacity *model.NoCapacityError
	assert.ErrorAs(t, err, &noCapacity)
	assert.Equal(t, 0, noCapacity.Candidates)
}

func TestSelectShard_InvalidWeight(t *testing.T) {
	candidates := []*model.Shard{
		{ID: 1, MaxUnits: 10, CurrentUnits: 0},
	}

	_, err := SelectShard(candidates, 0)
	assert.Error(t, err)

	_, err = SelectShard(candidates, -5)
	assert.Error(t, err)
}

func TestSelectShard_Deterministic(t *testing.T) {
	candidates := []*model.Shard{
		{ID: 1, MaxUnits: 100, CurrentUnits: 30},
		{ID: 2, MaxUnits: 100, CurrentUnits: 30},
		{ID: 3, MaxUnits: 100, CurrentUnits: 60},
	}

	first, err := SelectShard(candidates, 3)
	assert.NoError(t, err)

	for i := 0; i < 10; i++ {
		shard, err := SelectShard(candidates, 3)
		assert.NoError(t, err)
		assert.Equal(t, first.ID, shard.ID)
	}

	// Shards 1 and 2 tie; the first in input order wins.
	assert.Equal(t, int64(1), first.ID)
}

func TestSelectShard_ReturnsNonFullWhenAnyHasRoom(t *testing.T) {
	cases := [][]*model.Shard{
		{
			{ID: 1, MaxUnits: 5, CurrentUnits: 5},
			{ID: 2, MaxUnits: 5, CurrentUnits: 4},
		},
		{
			{ID: 1, MaxUnits: 1, CurrentUnits: 0},
		},
		{
			{ID: 1, MaxUnits: 50, CurrentUnits: 50},
			{ID: 2, MaxUnits: 50, CurrentUnits: 50},
			{ID: 3, MaxUnits: 200, CurrentUnits: 199},
		},
	}

	for _, candidates := range cases {
		shard, err := SelectShard(candidates, int64(len(candidates)))

		assert.NoError(t, err)
		assert.False(t, shard.IsFull())
	}
}
