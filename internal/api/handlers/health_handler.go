// Package handlers contains HTTP handlers for the API.
package handlers

import (
	"net/http"
	"runtime"

	"norelock.dev/mixtape/backend/internal/config"
	"norelock.dev/mixtape/backend/internal/services/system"
	"norelock.dev/mixtape/backend/internal/utils"
)

// HealthHandler handles HTTP requests related to system health.
type HealthHandler struct {
	logger    *utils.Logger
	healthSvc *system.HealthService
	config    *config.Config
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(
	logger *utils.Logger,
	healthSvc *system.HealthService,
	config *config.Config,
) *HealthHandler {
	return &HealthHandler{
		logger:    logger.Named("health_handler"),
		healthSvc: healthSvc,
		config:    config,
	}
}

// Check reports the overall system status. It returns 503 when any component
// is down.
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	health := h.healthSvc.GetHealth(r.Context())

	response := map[string]any{
		"status":         health.Status,
		"version":        health.Version,
		"uptimeSeconds":  health.Uptime,
		"startTime":      health.StartTime,
		"components":     health.Components,
		"activeSessions": health.ActiveSessions,
	}

	statusCode := http.StatusOK
	if health.Status != system.StatusUp {
		statusCode = http.StatusServiceUnavailable
	}

	utils.RespondWithJSON(w, statusCode, response)
}

// DetailedCheck reports the full health snapshot plus runtime and feature
// information. Reachable only by admins.
func (h *HealthHandler) DetailedCheck(w http.ResponseWriter, r *http.Request) {
	health := h.healthSvc.GetHealth(r.Context())

	response := map[string]any{
		"health":      health,
		"environment": h.config.Environment,
		"goVersion":   runtime.Version(),
		"features":    h.config.Features,
	}

	statusCode := http.StatusOK
	if health.Status != system.StatusUp {
		statusCode = http.StatusServiceUnavailable
	}

	utils.RespondWithJSON(w, statusCode, response)
}
