package health

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/shardkeeper/shardkeeper/internal/store"
)

// Pinger is the slice of the shard pool manager the checker needs.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthChecker provides health check endpoints
type HealthChecker struct {
	directory store.DirectoryStore
	pools     Pinger
	cache     store.TenantCache
	logger    *zap.Logger
}

// HealthStatus represents the health status response
type HealthStatus struct {
	Status    string            `json:"status"`
	Timestamp int64             `json:"timestamp"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// NewHealthChecker creates a new health checker
func NewHealthChecker(
	directory store.DirectoryStore,
	pools Pinger,
	cache store.TenantCache,
	logger *zap.Logger,
) *HealthChecker {
	return &HealthChecker{
		directory: directory,
		pools:     pools,
		cache:     cache,
		logger:    logger,
	}
}

// LivenessHandler handles liveness probe requests
func (h *HealthChecker) LivenessHandler(w http.ResponseWriter, r *http.Request) {
	status := HealthStatus{
		Status:    "alive",
		Timestamp: time.Now().Unix(),
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(status)
}

// ReadinessHandler handles readiness probe requests
func (h *HealthChecker) ReadinessHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	checks := make(map[string]string)
	allHealthy := true

	// Check the directory database
	if err := h.directory.Ping(ctx); err != nil {
		h.logger.Error("Directory health check failed", zap.Error(err))
		checks["directory"] = "unhealthy: " + err.Error()
		allHealthy = false
	} else {
		checks["directory"] = "healthy"
	}

	// Check shard pools that have been opened so far
	if err := h.pools.Ping(ctx); err != nil {
		h.logger.Error("Shard pool health check failed", zap.Error(err))
		checks["shard_pools"] = "unhealthy: " + err.Error()
		allHealthy = false
	} else {
		checks["shard_pools"] = "healthy"
	}

	// Check the tenant cache
	if err := h.cache.Ping(ctx); err != nil {
		h.logger.Error("Tenant cache health check failed", zap.Error(err))
		checks["tenant_cache"] = "unhealthy: " + err.Error()
		allHealthy = false
	} else {
		checks["tenant_cache"] = "healthy"
	}

	status := HealthStatus{
		Status:    "ready",
		Timestamp: time.Now().Unix(),
		Checks:    checks,
	}
	code := http.StatusOK
	if !allHealthy {
		status.Status = "not_ready"
		code = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(status)
}
