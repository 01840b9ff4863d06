package algorithm

import (
	"fmt"
	"math"

	"github.com/shardkeeper/shardkeeper/internal/model"
)

// fullShardScore excludes a full shard from selection.
const fullShardScore = math.MinInt64

// SelectShard picks the shard that should host the next schema.
//
// The selection is a fair-share greedy balance: totalUnits is summed fresh
// over the candidates, fairShare is the percentage-scaled target load per
// weight unit, and each non-full candidate scores by how far below its
// fair share it currently sits. The highest score wins; ties break on
// input order, so the result is deterministic for a fixed candidate
// ordering. Full candidates are excluded outright.
//
// The function is pure over the supplied snapshot. Persisting the chosen
// shard's incremented unit count is the caller's job and must be
// synchronized there; two calls against the same stale snapshot can pick
// the same shard.
func SelectShard(candidates []*model.Shard, totalWeight int64) (*model.Shard, error) {
	if totalWeight <= 0 {
		return nil, fmt.Errorf("total weight must be positive, got %d", totalWeight)
	}
	if len(candidates) == 0 {
		return nil, &model.NoCapacityError{Candidates: 0}
	}

	var totalUnits int64
	for _, shard := range candidates {
		totalUnits += shard.CurrentUnits
	}
	fairShare := totalUnits * 100 / totalWeight

	var best *model.Shard
	bestScore := int64(fullShardScore)
	for _, shard := range candidates {
		if shard.IsFull() {
			continue
		}
		score := fairShare - shard.CurrentUnits
		if best == nil || score > bestScore {
			best = shard
			bestScore = score
		}
	}

	if best == nil {
		return nil, &model.NoCapacityError{Candidates: len(candidates)}
	}
	return best, nil
}
