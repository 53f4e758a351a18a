// Package handlers contains HTTP handlers for the API.
package handlers

import (
	"net/http"

	"go.mongodb.org/mongo-driver/v2/bson"
	"norelock.dev/mixtape/backend/internal/models"
	"norelock.dev/mixtape/backend/internal/services/song"
	"norelock.dev/mixtape/backend/internal/services/system"
	"norelock.dev/mixtape/backend/internal/utils"
)

// SongHandler handles HTTP requests related to the song catalog.
type SongHandler struct {
	songService *song.Service
	metrics     *system.MetricsService
	logger      *utils.Logger
}

// NewSongHandler creates a new song handler.
func NewSongHandler(songService *song.Service, metrics *system.MetricsService, logger *utils.Logger) *SongHandler {
	return &SongHandler{
		songService: songService,
		metrics:     metrics,
		logger:      logger.Named("song_handler"),
	}
}

// List handles requests to search the catalog.
func (h *SongHandler) List(w http.ResponseWriter, r *http.Request) {
	page, limit := utils.GetPageParams(r, 20)
	criteria := models.SongSearchCriteria{
		Query: utils.SanitizeSearchQuery(r.URL.Query().Get("q")),
		Genre: r.URL.Query().Get("genre"),
		Year:  int(utils.ParseInt(r.URL.Query().Get("year"), 0)),
		Page:  page,
		Limit: limit,
	}

	h.metrics.IncSongSearches()
	songs, total, err := h.songService.SearchSongs(r.Context(), OptionalUser(r), criteria)
	if err != nil {
		RespondWithDomainError(w, h.logger, err, "query", criteria.Query)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, map[string]any{
		"songs": songs,
		"total": total,
		"page":  page,
		"limit": limit,
	})
}

// Get handles requests to fetch a single catalog entry.
func (h *SongHandler) Get(w http.ResponseWriter, r *http.Request, id bson.ObjectID) {
	found, err := h.songService.GetSong(r.Context(), OptionalUser(r), id)
	if err != nil {
		RespondWithDomainError(w, h.logger, err, "songId", id.Hex())
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, found)
}

// Create handles requests to add a song to the catalog.
func (h *SongHandler) Create(w http.ResponseWriter, r *http.Request, req *models.SongCreateRequest) {
	account := CurrentUser(w, r)
	if account == nil {
		return
	}

	if err := utils.Validate(req); err != nil {
		utils.RespondWithValidationError(w, err)
		return
	}

	created, err := h.songService.AddSong(r.Context(), account, *req)
	if err != nil {
		RespondWithDomainError(w, h.logger, err, "title", req.Title)
		return
	}

	utils.RespondWithJSON(w, http.StatusCreated, created)
}

// Update handles requests to update a catalog entry.
func (h *SongHandler) Update(w http.ResponseWriter, r *http.Request, id bson.ObjectID, req *models.SongUpdateRequest) {
	account := CurrentUser(w, r)
	if account == nil {
		return
	}

	if err := utils.Validate(req); err != nil {
		utils.RespondWithValidationError(w, err)
		return
	}

	updated, err := h.songService.UpdateSong(r.Context(), account, id, *req)
	if err != nil {
		RespondWithDomainError(w, h.logger, err, "songId", id.Hex())
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, updated)
}

// Delete handles requests to remove a song from the catalog.
func (h *SongHandler) Delete(w http.ResponseWriter, r *http.Request, id bson.ObjectID) {
	account := CurrentUser(w, r)
	if account == nil {
		return
	}

	if err := h.songService.DeleteSong(r.Context(), account, id); err != nil {
		RespondWithDomainError(w, h.logger, err, "songId", id.Hex())
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Song deleted successfully",
	})
}

// Restrict handles administrative requests to toggle a song's restriction flag.
func (h *SongHandler) Restrict(w http.ResponseWriter, r *http.Request, id bson.ObjectID, req *models.SongRestrictRequest) {
	account := CurrentUser(w, r)
	if account == nil {
		return
	}

	updated, err := h.songService.SetRestricted(r.Context(), account, id, req.Restricted)
	if err != nil {
		RespondWithDomainError(w, h.logger, err, "songId", id.Hex(), "restricted", req.Restricted)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, updated)
}

// Recent handles requests for recently added catalog entries.
func (h *SongHandler) Recent(w http.ResponseWriter, r *http.Request) {
	limit := int(utils.ParseInt(r.URL.Query().Get("limit"), 20))

	songs, err := h.songService.GetRecentSongs(r.Context(), limit)
	if err != nil {
		RespondWithDomainError(w, h.logger, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, songs)
}
