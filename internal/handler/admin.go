package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/shardkeeper/shardkeeper/internal/model"
	"github.com/shardkeeper/shardkeeper/internal/service"
)

// AdminHandler maps the admin HTTP surface onto the tenant and placement
// services.
type AdminHandler struct {
	tenants   *service.TenantService
	placement *service.PlacementService
	logger    *zap.Logger
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(
	tenants *service.TenantService,
	placement *service.PlacementService,
	logger *zap.Logger,
) *AdminHandler {
	return &AdminHandler{
		tenants:   tenants,
		placement: placement,
		logger:    logger,
	}
}

// Register attaches the admin routes to the given mux.
func (h *AdminHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /v1/tenants", h.LoadTenants)
	mux.HandleFunc("POST /v1/placement", h.PlaceSchema)
}

// tenantResponse is the wire form of an assembled tenant record.
type tenantResponse struct {
	ID                  int64                        `json:"id"`
	Name                string                       `json:"name"`
	Enabled             bool                         `json:"enabled"`
	MaintenanceReasonID int64                        `json:"maintenance_reason_id"`
	FilestoreID         int64                        `json:"filestore_id"`
	FilestoreName       string                       `json:"filestore_name"`
	QuotaMaxBytes       int64                        `json:"quota_max_bytes"`
	QuotaUsedBytes      int64                        `json:"quota_used_bytes"`
	ReadShardID         int64                        `json:"read_shard_id"`
	WriteShardID        int64                        `json:"write_shard_id"`
	Schema              string                       `json:"schema"`
	LoginAliases        []string                     `json:"login_aliases,omitempty"`
	Attributes          map[string]map[string]string `json:"attributes,omitempty"`
}

func toTenantResponse(t *model.Tenant) tenantResponse {
	return tenantResponse{
		ID:                  t.ID,
		Name:                t.Name,
		Enabled:             t.Enabled,
		MaintenanceReasonID: t.MaintenanceReasonID,
		FilestoreID:         t.FilestoreID,
		FilestoreName:       t.FilestoreName,
		QuotaMaxBytes:       t.QuotaMaxBytes,
		QuotaUsedBytes:      t.QuotaUsedBytes,
		ReadShardID:         t.ReadShard.ShardID,
		WriteShardID:        t.WriteShard.ShardID,
		Schema:              t.ReadShard.Schema,
		LoginAliases:        t.LoginAliases,
		Attributes:          t.Attributes,
	}
}

// LoadTenants handles GET /v1/tenants?scope=...&ids=1,2,3
func (h *AdminHandler) LoadTenants(w http.ResponseWriter, r *http.Request) {
	scope := r.URL.Query().Get("scope")
	if scope == "" {
		writeError(w, http.StatusBadRequest, "scope query parameter is required")
		return
	}

	ids, err := parseIDs(r.URL.Query().Get("ids"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	tenants, err := h.tenants.LoadTenants(r.Context(), scope, ids)
	if err != nil {
		h.writeServiceError(w, "load tenants", err)
		return
	}

	response := make([]tenantResponse, 0, len(tenants))
	for _, tenant := range tenants {
		response = append(response, toTenantResponse(tenant))
	}
	writeJSON(w, http.StatusOK, response)
}

// placementResponse is the wire form of an allocation decision.
type placementResponse struct {
	DecisionID string `json:"decision_id"`
	ShardID    int64  `json:"shard_id"`
	Schema     string `json:"schema"`
	DecidedAt  int64  `json:"decided_at"`
}

// PlaceSchema handles POST /v1/placement
func (h *AdminHandler) PlaceSchema(w http.ResponseWriter, r *http.Request) {
	decision, err := h.placement.PlaceSchema(r.Context())
	if err != nil {
		h.writeServiceError(w, "place schema", err)
		return
	}

	writeJSON(w, http.StatusOK, placementResponse{
		DecisionID: decision.ID,
		ShardID:    decision.ShardID,
		Schema:     decision.Schema,
		DecidedAt:  decision.DecidedAt.Unix(),
	})
}

// writeServiceError maps domain errors to HTTP status codes.
func (h *AdminHandler) writeServiceError(w http.ResponseWriter, op string, err error) {
	var missing *model.MissingTenantsError
	var noCapacity *model.NoCapacityError
	var pool *model.PoolUnavailableError

	code := http.StatusInternalServerError
	switch {
	case errors.As(err, &missing):
		code = http.StatusNotFound
	case errors.As(err, &noCapacity):
		code = http.StatusConflict
	case errors.As(err, &pool):
		code = http.StatusServiceUnavailable
	}

	h.logger.Error("Admin request failed",
		zap.String("operation", op),
		zap.Int("status", code),
		zap.Error(err))
	writeError(w, code, err.Error())
}

func parseIDs(raw string) ([]int64, error) {
	if raw == "" {
		return nil, errors.New("ids query parameter is required")
	}

	parts := strings.Split(raw, ",")
	ids := make([]int64, 0, len(parts))
	for _, part := range parts {
		id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
		if err != nil {
			return nil, errors.New("ids must be a comma-separated list of integers")
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func writeJSON(w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, code int, message string) {
	writeJSON(w, code, map[string]string{"error": message})
}
