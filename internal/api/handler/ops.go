package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sony/gobreaker/v2"

	"github.com/climacast/climacast/internal/api/models"
	"github.com/climacast/climacast/internal/api/response"
	"github.com/climacast/climacast/internal/featureflags"
	"github.com/climacast/climacast/internal/provider/resilience"
)

// OpsHandler handles operational endpoints.
type OpsHandler struct {
	version   string
	buildTime string
	registry  *resilience.Registry
	pool      *pgxpool.Pool
	flags     *featureflags.Service
}

// NewOpsHandler creates a new OpsHandler. The pool may be nil for deployments
// without a database.
func NewOpsHandler(version, buildTime string, registry *resilience.Registry, pool *pgxpool.Pool, flags *featureflags.Service) *OpsHandler {
	return &OpsHandler{
		version:   version,
		buildTime: buildTime,
		registry:  registry,
		pool:      pool,
		flags:     flags,
	}
}

// HealthCheck handles GET /v1/ops/health - liveness check.
func (h *OpsHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	health := models.Health{
		Status: models.HealthStatusOK,
		Time:   models.Timestamp(time.Now()),
		Details: map[string]interface{}{
			"version":   h.version,
			"buildTime": h.buildTime,
		},
	}
	response.JSON(w, r, http.StatusOK, health)
}

// ReadinessCheck handles GET /v1/ops/ready - readiness check.
func (h *OpsHandler) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	health := models.Health{
		Status: models.HealthStatusOK,
		Time:   models.Timestamp(time.Now()),
	}

	if h.pool != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.pool.Ping(ctx); err != nil {
			health.Status = models.HealthStatusFail
			health.Details = map[string]interface{}{
				"database": err.Error(),
			}
			response.JSON(w, r, http.StatusServiceUnavailable, health)
			return
		}
	}

	response.JSON(w, r, http.StatusOK, health)
}

// SystemStatus handles GET /v1/ops/status - provider and subsystem status.
func (h *OpsHandler) SystemStatus(w http.ResponseWriter, r *http.Request) {
	now := models.Timestamp(time.Now())

	status := models.SystemStatus{
		Status:     models.HealthStatusOK,
		Time:       now,
		Subsystems: h.subsystemStatuses(r.Context()),
		Providers:  h.providerStatuses(),
	}

	for _, sub := range status.Subsystems {
		if sub.Status == models.HealthStatusFail {
			status.Status = models.HealthStatusDegraded
		}
	}
	for _, p := range status.Providers {
		if p.Status != models.HealthStatusOK {
			status.Status = models.HealthStatusDegraded
		}
	}

	if h.flags != nil {
		status.ActiveDegradationFlags = activeFlags(h.flags.GetAllFlags(r.Context()))
	}

	response.JSON(w, r, http.StatusOK, status)
}

func (h *OpsHandler) subsystemStatuses(ctx context.Context) []models.SubsystemStatus {
	if h.pool == nil {
		return []models.SubsystemStatus{
			{Name: "database", Status: models.HealthStatusDegraded, Detail: strPtr("not configured, using in-memory storage")},
		}
	}

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	dbStatus := models.SubsystemStatus{Name: "database", Status: models.HealthStatusOK}
	if err := h.pool.Ping(pingCtx); err != nil {
		dbStatus.Status = models.HealthStatusFail
		dbStatus.Detail = strPtr(err.Error())
	}
	return []models.SubsystemStatus{dbStatus}
}

func (h *OpsHandler) providerStatuses() []models.ProviderStatus {
	if h.registry == nil {
		return nil
	}

	all := h.registry.GetAllHealth()
	statuses := make([]models.ProviderStatus, 0, len(all))
	for _, src := range all {
		p := models.ProviderStatus{
			Provider: src.Name,
			Status:   models.HealthStatusOK,
		}
		switch src.CircuitState {
		case gobreaker.StateOpen:
			p.Status = models.HealthStatusFail
		case gobreaker.StateHalfOpen:
			p.Status = models.HealthStatusDegraded
		}
		if src.LastSuccessAt != nil {
			ts := models.Timestamp(*src.LastSuccessAt)
			p.LastSuccessAt = &ts
		}
		if src.LastFailureAt != nil {
			ts := models.Timestamp(*src.LastFailureAt)
			p.LastFailureAt = &ts
		}
		if src.LastError != "" {
			p.Message = strPtr(src.LastError)
		}
		statuses = append(statuses, p)
	}
	return statuses
}

// activeFlags returns the keys of flags that are currently enabled.
func activeFlags(flags map[string]*featureflags.Flag) []string {
	var active []string
	for key, flag := range flags {
		if flag.BoolValue(false) {
			active = append(active, key)
		}
	}
	return active
}

func strPtr(s string) *string {
	return &s
}
