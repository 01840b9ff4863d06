package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/shardkeeper/shardkeeper/internal/algorithm"
	"github.com/shardkeeper/shardkeeper/internal/metrics"
	"github.com/shardkeeper/shardkeeper/internal/model"
	"github.com/shardkeeper/shardkeeper/internal/store"
)

// PlacementService decides which shard should host the next schema. Each
// decision works on a fresh topology snapshot; persisting the decision
// and the shard's incremented unit count is the provisioning
// collaborator's job.
type PlacementService struct {
	directory    store.DirectoryStore
	schemaPrefix string
	metrics      *metrics.Metrics
	logger       *zap.Logger
}

// NewPlacementService creates a placement service. metrics may be nil.
func NewPlacementService(
	directory store.DirectoryStore,
	schemaPrefix string,
	m *metrics.Metrics,
	logger *zap.Logger,
) *PlacementService {
	return &PlacementService{
		directory:    directory,
		schemaPrefix: schemaPrefix,
		metrics:      m,
		logger:       logger,
	}
}

// PlaceSchema picks the shard for a new schema and derives the schema
// name to create there.
func (s *PlacementService) PlaceSchema(ctx context.Context) (*model.AllocationDecision, error) {
	snapshot, err := s.directory.SnapshotShards(ctx)
	if err != nil {
		if s.metrics != nil {
			s.metrics.RecordAllocationError("snapshot")
		}
		return nil, fmt.Errorf("failed to snapshot shard topology: %w", err)
	}

	full := 0
	for _, shard := range snapshot.Shards {
		if shard.IsFull() {
			full++
		}
	}
	if s.metrics != nil {
		s.metrics.UpdateShardsFull(full)
	}

	shard, err := algorithm.SelectShard(snapshot.Shards, snapshot.TotalWeight)
	if err != nil {
		var noCapacity *model.NoCapacityError
		if s.metrics != nil {
			reason := "invalid_topology"
			if errors.As(err, &noCapacity) {
				reason = "no_capacity"
			}
			s.metrics.RecordAllocationError(reason)
		}
		return nil, err
	}

	decision := &model.AllocationDecision{
		ID:        uuid.NewString(),
		ShardID:   shard.ID,
		Schema:    fmt.Sprintf("%s_%d_%d", s.schemaPrefix, shard.ID, shard.SchemaCount+1),
		DecidedAt: time.Now(),
	}

	if s.metrics != nil {
		s.metrics.RecordAllocation(strconv.FormatInt(shard.ID, 10))
	}
	s.logger.Info("Placed schema",
		zap.String("decision_id", decision.ID),
		zap.Int64("shard_id", shard.ID),
		zap.String("schema", decision.Schema),
		zap.Int64("current_units", shard.CurrentUnits),
		zap.Int64("max_units", shard.MaxUnits),
		zap.Int("candidates", len(snapshot.Shards)),
		zap.Int("full_candidates", full))

	return decision, nil
}
