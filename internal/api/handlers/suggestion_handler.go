// Package handlers contains HTTP handlers for the API.
package handlers

import (
	"net/http"
	"time"

	"norelock.dev/mixtape/backend/internal/services/suggest"
	"norelock.dev/mixtape/backend/internal/services/system"
	"norelock.dev/mixtape/backend/internal/utils"
)

// SuggestionHandler handles HTTP requests for personalized song suggestions.
type SuggestionHandler struct {
	engine  *suggest.Engine
	metrics *system.MetricsService
	logger  *utils.Logger
}

// NewSuggestionHandler creates a new suggestion handler.
func NewSuggestionHandler(engine *suggest.Engine, metrics *system.MetricsService, logger *utils.Logger) *SuggestionHandler {
	return &SuggestionHandler{
		engine:  engine,
		metrics: metrics,
		logger:  logger.Named("suggestion_handler"),
	}
}

// Suggest handles requests for the current user's song suggestions.
func (h *SuggestionHandler) Suggest(w http.ResponseWriter, r *http.Request) {
	account := CurrentUser(w, r)
	if account == nil {
		return
	}

	start := time.Now()
	songs, err := h.engine.Suggest(r.Context(), account)
	if err != nil {
		RespondWithDomainError(w, h.logger, err, "userId", account.ID.Hex())
		return
	}
	h.metrics.ObserveSuggestionRequest(time.Since(start))

	utils.RespondWithJSON(w, http.StatusOK, map[string]any{
		"suggestions": songs,
	})
}
