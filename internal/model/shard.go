package model

import (
	"fmt"
	"time"
)

// Shard represents one database endpoint hosting tenant schemas.
// CurrentUnits reflects the load assigned to the shard at the time the
// topology snapshot was taken; a snapshot is used for exactly one
// allocation decision and then discarded.
type Shard struct {
	ID           int64
	MaxUnits     int64
	CurrentUnits int64
	SchemaCount  int64
	Weight       int64 // configured relative allocation weight
}

// IsFull reports whether the shard has reached its unit capacity.
func (s *Shard) IsFull() bool {
	return s.CurrentUnits >= s.MaxUnits
}

// SchemaRef identifies a schema by the shard hosting it. It is comparable
// and used directly as a grouping key.
type SchemaRef struct {
	ShardID int64
	Schema  string
}

// String renders the reference for logs and error messages.
func (r SchemaRef) String() string {
	return fmt.Sprintf("shard %d schema %q", r.ShardID, r.Schema)
}

// ShardSnapshot is the shard topology read for a single allocation
// decision: the candidate shards plus the sum of their configured weights.
type ShardSnapshot struct {
	Shards      []*Shard
	TotalWeight int64
	TakenAt     time.Time
}

// AllocationDecision is the outcome of a schema placement: the chosen
// shard and the schema name to create there. Persisting the decision and
// the shard's incremented unit count is the provisioning collaborator's
// job.
type AllocationDecision struct {
	ID        string
	ShardID   int64
	Schema    string
	DecidedAt time.Time
}
