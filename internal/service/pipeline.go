package service

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/shardkeeper/shardkeeper/internal/algorithm"
	"github.com/shardkeeper/shardkeeper/internal/metrics"
	"github.com/shardkeeper/shardkeeper/internal/model"
	"github.com/shardkeeper/shardkeeper/internal/store"
)

// Pipeline assembles complete tenant records by running a fixed ordered
// sequence of enrichment stages over one batch. Stages run strictly in
// order; within the usage and attribute stages, distinct shard/schema
// groups fan out concurrently, each on its own leased connection.
//
// Any stage failure aborts the run with no partial result. The only soft
// path is missing requested ids when FailOnMissing is off.
type Pipeline struct {
	directory     store.DirectoryStore
	schemas       store.SchemaStore
	failOnMissing bool
	groupWorkers  int
	loadTimeout   time.Duration
	metrics       *metrics.Metrics
	logger        *zap.Logger
}

// NewPipeline creates a tenant record pipeline. metrics may be nil; a
// zero loadTimeout disables the per-run deadline.
func NewPipeline(
	directory store.DirectoryStore,
	schemas store.SchemaStore,
	failOnMissing bool,
	groupWorkers int,
	loadTimeout time.Duration,
	m *metrics.Metrics,
	logger *zap.Logger,
) *Pipeline {
	if groupWorkers < 1 {
		groupWorkers = 1
	}
	return &Pipeline{
		directory:     directory,
		schemas:       schemas,
		failOnMissing: failOnMissing,
		groupWorkers:  groupWorkers,
		loadTimeout:   loadTimeout,
		metrics:       m,
		logger:        logger,
	}
}

// batch is the unit of work flowing through the stages.
type batch struct {
	scope   string
	ids     []int64
	tenants []*model.Tenant
	byID    map[int64]*model.Tenant
}

// presentIDs returns the ids the base stage actually found, in batch order.
func (b *batch) presentIDs() []int64 {
	ids := make([]int64, 0, len(b.tenants))
	for _, tenant := range b.tenants {
		ids = append(ids, tenant.ID)
	}
	return ids
}

// stage is one named step of the pipeline.
type stage struct {
	name string
	run  func(ctx context.Context, b *batch) error
}

// Run loads the requested tenants within the given routing scope and
// returns them fully enriched, sorted ascending by tenant id.
func (p *Pipeline) Run(ctx context.Context, scope string, ids []int64) ([]*model.Tenant, error) {
	if p.loadTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.loadTimeout)
		defer cancel()
	}

	b := &batch{
		scope: scope,
		ids:   ids,
		byID:  make(map[int64]*model.Tenant, len(ids)),
	}

	stages := []stage{
		{name: "base_load", run: p.loadBase},
		{name: "aliases", run: p.attachAliases},
		{name: "usage", run: p.attachUsage},
		{name: "attributes", run: p.attachAttributes},
	}

	for _, st := range stages {
		start := time.Now()
		if err := st.run(ctx, b); err != nil {
			if p.metrics != nil {
				p.metrics.RecordStageError(st.name)
				p.metrics.RecordPipelineRun("error")
			}
			p.logger.Error("Pipeline stage failed",
				zap.String("stage", st.name),
				zap.String("scope", scope),
				zap.Int("requested", len(ids)),
				zap.Error(err))
			return nil, err
		}
		if p.metrics != nil {
			p.metrics.RecordStage(st.name, time.Since(start).Seconds())
		}
	}

	// Presentation order is by tenant id, independent of the shard/schema
	// grouping used for I/O.
	sort.Slice(b.tenants, func(i, j int) bool { return b.tenants[i].ID < b.tenants[j].ID })

	if p.metrics != nil {
		p.metrics.RecordPipelineRun("ok")
	}
	return b.tenants, nil
}

// loadBase fetches the base records from the directory, resolves missing
// ids by set difference and orders the batch by (read shard, schema) so
// later stages open as few distinct connections as possible.
func (p *Pipeline) loadBase(ctx context.Context, b *batch) error {
	tenants, err := p.directory.LoadTenants(ctx, b.scope, b.ids)
	if err != nil {
		return err
	}

	for _, tenant := range tenants {
		b.byID[tenant.ID] = tenant
	}

	var missing []int64
	for _, id := range b.ids {
		if _, ok := b.byID[id]; !ok {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		if p.failOnMissing {
			return &model.MissingTenantsError{IDs: missing}
		}
		if p.metrics != nil {
			p.metrics.RecordMissingTenants(len(missing))
		}
		p.logger.Warn("Requested tenants not found in directory, continuing with partial set",
			zap.String("scope", b.scope),
			zap.Int64s("missing_ids", missing))
	}

	sort.Slice(tenants, func(i, j int) bool {
		ri, rj := tenants[i].ReadShard, tenants[j].ReadShard
		if ri.ShardID != rj.ShardID {
			return ri.ShardID < rj.ShardID
		}
		if ri.Schema != rj.Schema {
			return ri.Schema < rj.Schema
		}
		return tenants[i].ID < tenants[j].ID
	})
	b.tenants = tenants
	return nil
}

// attachAliases fetches login aliases from the directory and attaches
// them. AddLoginAlias drops a tenant's own canonical id string.
func (p *Pipeline) attachAliases(ctx context.Context, b *batch) error {
	if len(b.tenants) == 0 {
		return nil
	}

	aliases, err := p.directory.LoadLoginAliases(ctx, b.scope, b.presentIDs())
	if err != nil {
		return err
	}

	for _, tenant := range b.tenants {
		for _, alias := range aliases[tenant.ID] {
			tenant.AddLoginAlias(alias)
		}
	}
	return nil
}

// attachUsage scans each distinct write schema once, aggregates the rows
// per filestore block and writes tenant-level used bytes back. Tenants
// without a usage row stay at zero used bytes.
func (p *Pipeline) attachUsage(ctx context.Context, b *batch) error {
	groups, refs := groupTenants(b.tenants, func(t *model.Tenant) model.SchemaRef { return t.WriteShard })

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.groupWorkers)

	for _, ref := range refs {
		ref := ref
		group := groups[ref]
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			rows, err := p.schemas.ScanUsage(gctx, ref, tenantIDs(group))
			if err != nil {
				return err
			}
			if p.metrics != nil {
				p.metrics.RecordSchemaScan("filestore_usage")
			}

			// One aggregation block per filestore seen in the scan.
			blocks := make(map[int64]*algorithm.UsageAggregator)
			for _, row := range rows {
				agg, ok := blocks[row.FilestoreID]
				if !ok {
					agg = algorithm.NewUsageAggregator(row.FilestoreID, ref)
					blocks[row.FilestoreID] = agg
				}
				feedUsageRow(agg, row)
			}

			// Groups hold disjoint tenants, so no locking is needed on
			// the write-back.
			for _, tenant := range group {
				tenant.QuotaUsedBytes = 0
				agg, ok := blocks[tenant.FilestoreID]
				if !ok || agg.IsEmpty() {
					continue
				}
				if used, ok := agg.TenantUsage(tenant.ID); ok {
					tenant.QuotaUsedBytes = used
				}
			}
			return nil
		})
	}

	return g.Wait()
}

// feedUsageRow routes a scanned row into the block: first sight inserts,
// a repeated key overwrites with the later value.
func feedUsageRow(agg *algorithm.UsageAggregator, row *model.UsageRecord) {
	if row.IsUserLevel() {
		if _, ok := agg.UserUsage(row.TenantID, row.UserID); ok {
			agg.UpdateUserUsage(row.TenantID, row.UserID, row.UsedBytes)
			return
		}
		agg.Add(row)
		return
	}
	if _, ok := agg.TenantUsage(row.TenantID); ok {
		agg.UpdateTenantUsage(row.TenantID, row.UsedBytes)
		return
	}
	agg.Add(row)
}

// attachAttributes scans each distinct read schema once and attaches the
// namespaced rows. Rows whose name has no separator are not dynamic
// attributes and are skipped.
func (p *Pipeline) attachAttributes(ctx context.Context, b *batch) error {
	groups, refs := groupTenants(b.tenants, func(t *model.Tenant) model.SchemaRef { return t.ReadShard })

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.groupWorkers)

	for _, ref := range refs {
		ref := ref
		group := groups[ref]
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			rows, err := p.schemas.ScanAttributes(gctx, ref, tenantIDs(group))
			if err != nil {
				return err
			}
			if p.metrics != nil {
				p.metrics.RecordSchemaScan("tenant_attributes")
			}

			members := make(map[int64]*model.Tenant, len(group))
			for _, tenant := range group {
				members[tenant.ID] = tenant
			}

			for _, row := range rows {
				if !model.IsDynamicAttributeName(row.Name) {
					continue
				}
				tenant, ok := members[row.TenantID]
				if !ok {
					continue
				}
				namespace, key, err := model.ParseAttributeName(row.Name)
				if err != nil {
					return err
				}
				tenant.SetAttribute(namespace, key, row.Value)
			}
			return nil
		})
	}

	return g.Wait()
}

// groupTenants partitions the batch by schema reference. The refs slice
// is sorted so group iteration is deterministic rather than hash-ordered.
func groupTenants(tenants []*model.Tenant, key func(*model.Tenant) model.SchemaRef) (map[model.SchemaRef][]*model.Tenant, []model.SchemaRef) {
	groups := make(map[model.SchemaRef][]*model.Tenant)
	for _, tenant := range tenants {
		ref := key(tenant)
		groups[ref] = append(groups[ref], tenant)
	}

	refs := make([]model.SchemaRef, 0, len(groups))
	for ref := range groups {
		refs = append(refs, ref)
	}
	sort.Slice(refs, func(i, j int) bool {
		if refs[i].ShardID != refs[j].ShardID {
			return refs[i].ShardID < refs[j].ShardID
		}
		return refs[i].Schema < refs[j].Schema
	})

	return groups, refs
}

// tenantIDs lists the ids of one group.
func tenantIDs(group []*model.Tenant) []int64 {
	ids := make([]int64, 0, len(group))
	for _, tenant := range group {
		ids = append(ids, tenant.ID)
	}
	return ids
}
