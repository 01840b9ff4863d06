package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Pipeline metrics
	PipelineRunsTotal   *prometheus.CounterVec
	StageDuration       *prometheus.HistogramVec
	StageErrors         *prometheus.CounterVec
	MissingTenantsTotal prometheus.Counter
	SchemaScansTotal    *prometheus.CounterVec

	// Placement metrics
	AllocationsTotal      *prometheus.CounterVec
	AllocationErrorsTotal *prometheus.CounterVec
	ShardsFull            prometheus.Gauge

	// Cache metrics
	CacheHits   *prometheus.CounterVec
	CacheMisses *prometheus.CounterVec
}

// NewMetrics creates and registers Prometheus metrics
func NewMetrics() *Metrics {
	return &Metrics{
		PipelineRunsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "shardkeeper_pipeline_runs_total",
				Help: "Total number of tenant pipeline runs",
			},
			[]string{"status"},
		),

		StageDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "shardkeeper_stage_duration_seconds",
				Help:    "Duration of pipeline stages",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"stage"},
		),

		StageErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "shardkeeper_stage_errors_total",
				Help: "Total number of pipeline stage failures",
			},
			[]string{"stage"},
		),

		MissingTenantsTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "shardkeeper_missing_tenants_total",
				Help: "Total number of requested tenant ids absent from the directory",
			},
		),

		SchemaScansTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "shardkeeper_schema_scans_total",
				Help: "Total number of per-schema table scans",
			},
			[]string{"table"},
		),

		AllocationsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "shardkeeper_allocations_total",
				Help: "Total number of schema placement decisions",
			},
			[]string{"shard_id"},
		),

		AllocationErrorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "shardkeeper_allocation_errors_total",
				Help: "Total number of failed schema placements",
			},
			[]string{"reason"},
		),

		ShardsFull: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "shardkeeper_shards_full",
				Help: "Number of full shards in the last topology snapshot",
			},
		),

		CacheHits: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "shardkeeper_cache_hits_total",
				Help: "Total number of cache hits",
			},
			[]string{"cache_type"},
		),

		CacheMisses: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "shardkeeper_cache_misses_total",
				Help: "Total number of cache misses",
			},
			[]string{"cache_type"},
		),
	}
}

// RecordPipelineRun records a completed pipeline run
func (m *Metrics) RecordPipelineRun(status string) {
	m.PipelineRunsTotal.WithLabelValues(status).Inc()
}

// RecordStage records a stage duration
func (m *Metrics) RecordStage(stage string, seconds float64) {
	m.StageDuration.WithLabelValues(stage).Observe(seconds)
}

// RecordStageError records a stage failure
func (m *Metrics) RecordStageError(stage string) {
	m.StageErrors.WithLabelValues(stage).Inc()
}

// RecordMissingTenants records requested ids absent from the directory
func (m *Metrics) RecordMissingTenants(count int) {
	m.MissingTenantsTotal.Add(float64(count))
}

// RecordSchemaScan records one per-schema table scan
func (m *Metrics) RecordSchemaScan(table string) {
	m.SchemaScansTotal.WithLabelValues(table).Inc()
}

// RecordAllocation records a placement decision
func (m *Metrics) RecordAllocation(shardID string) {
	m.AllocationsTotal.WithLabelValues(shardID).Inc()
}

// RecordAllocationError records a failed placement
func (m *Metrics) RecordAllocationError(reason string) {
	m.AllocationErrorsTotal.WithLabelValues(reason).Inc()
}

// UpdateShardsFull updates the full-shard gauge
func (m *Metrics) UpdateShardsFull(count int) {
	m.ShardsFull.Set(float64(count))
}

// RecordCacheHit records a cache hit
func (m *Metrics) RecordCacheHit(cacheType string) {
	m.CacheHits.WithLabelValues(cacheType).Inc()
}

// RecordCacheMiss records a cache miss
func (m *Metrics) RecordCacheMiss(cacheType string) {
	m.CacheMisses.WithLabelValues(cacheType).Inc()
}
