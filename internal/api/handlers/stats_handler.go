// Package handlers contains HTTP handlers for the API.
package handlers

import (
	"encoding/json"
	"net/http"

	"go.mongodb.org/mongo-driver/v2/bson"
	"norelock.dev/mixtape/backend/internal/services/stats"
	"norelock.dev/mixtape/backend/internal/services/system"
	"norelock.dev/mixtape/backend/internal/utils"
)

// StatsHandler handles HTTP requests for play tracking and listening statistics.
type StatsHandler struct {
	statsService *stats.Service
	metrics      *system.MetricsService
	logger       *utils.Logger
}

// NewStatsHandler creates a new stats handler.
func NewStatsHandler(statsService *stats.Service, metrics *system.MetricsService, logger *utils.Logger) *StatsHandler {
	return &StatsHandler{
		statsService: statsService,
		metrics:      metrics,
		logger:       logger.Named("stats_handler"),
	}
}

// PlayRequest represents a single play to record.
type PlayRequest struct {
	SongID bson.ObjectID `json:"songId"`
}

// RecordPlay handles requests to record that the current user played a song.
func (h *StatsHandler) RecordPlay(w http.ResponseWriter, r *http.Request) {
	account := CurrentUser(w, r)
	if account == nil {
		return
	}

	var req PlayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.SongID.IsZero() {
		utils.RespondWithError(w, http.StatusBadRequest, "Song ID is required")
		return
	}

	if err := h.statsService.RecordPlay(r.Context(), account.ID, req.SongID); err != nil {
		RespondWithDomainError(w, h.logger, err, "songId", req.SongID.Hex(), "userId", account.ID.Hex())
		return
	}

	h.metrics.IncSongPlays()
	utils.RespondWithJSON(w, http.StatusNoContent, nil)
}

// GetStats handles requests for the current user's listening statistics.
func (h *StatsHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	account := CurrentUser(w, r)
	if account == nil {
		return
	}

	listening, err := h.statsService.GetListeningStats(r.Context(), account)
	if err != nil {
		RespondWithDomainError(w, h.logger, err, "userId", account.ID.Hex())
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, listening)
}

// GetRecentPlays handles requests for the current user's play log.
func (h *StatsHandler) GetRecentPlays(w http.ResponseWriter, r *http.Request) {
	account := CurrentUser(w, r)
	if account == nil {
		return
	}

	page, limit := utils.GetPageParams(r, 50)
	plays, total, err := h.statsService.GetRecentPlays(r.Context(), account.ID, (page-1)*limit, limit)
	if err != nil {
		RespondWithDomainError(w, h.logger, err, "userId", account.ID.Hex())
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, map[string]any{
		"plays": plays,
		"total": total,
		"page":  page,
		"limit": limit,
	})
}

// ClearHistory handles requests to clear the current user's play log.
func (h *StatsHandler) ClearHistory(w http.ResponseWriter, r *http.Request) {
	account := CurrentUser(w, r)
	if account == nil {
		return
	}

	deleted, err := h.statsService.ClearHistory(r.Context(), account.ID)
	if err != nil {
		RespondWithDomainError(w, h.logger, err, "userId", account.ID.Hex())
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, map[string]any{
		"deleted": deleted,
	})
}
