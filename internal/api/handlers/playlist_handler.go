// Package handlers contains HTTP handlers for the API.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/v2/bson"
	"norelock.dev/mixtape/backend/internal/models"
	"norelock.dev/mixtape/backend/internal/services/playlist"
	"norelock.dev/mixtape/backend/internal/services/system"
	"norelock.dev/mixtape/backend/internal/utils"
)

// PlaylistHandler handles HTTP requests related to playlist operations.
type PlaylistHandler struct {
	playlistManager *playlist.Manager
	metrics         *system.MetricsService
	logger          *utils.Logger
}

// NewPlaylistHandler creates a new playlist handler.
func NewPlaylistHandler(playlistManager *playlist.Manager, metrics *system.MetricsService, logger *utils.Logger) *PlaylistHandler {
	return &PlaylistHandler{
		playlistManager: playlistManager,
		metrics:         metrics,
		logger:          logger.Named("playlist_handler"),
	}
}

// GetPlaylists handles requests to list the current user's playlists.
func (h *PlaylistHandler) GetPlaylists(w http.ResponseWriter, r *http.Request) {
	account := CurrentUser(w, r)
	if account == nil {
		return
	}

	playlists, err := h.playlistManager.GetUserPlaylists(r.Context(), account, account.ID)
	if err != nil {
		RespondWithDomainError(w, h.logger, err, "userId", account.ID.Hex())
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, playlists)
}

// CreatePlaylist handles requests to create a new playlist.
func (h *PlaylistHandler) CreatePlaylist(w http.ResponseWriter, r *http.Request) {
	account := CurrentUser(w, r)
	if account == nil {
		return
	}

	var req models.PlaylistCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := utils.Validate(req); err != nil {
		utils.RespondWithValidationError(w, err)
		return
	}

	created, err := h.playlistManager.CreatePlaylist(r.Context(), account, req)
	if err != nil {
		RespondWithDomainError(w, h.logger, err, "userId", account.ID.Hex())
		return
	}

	h.metrics.IncPlaylistMutations("create")
	utils.RespondWithJSON(w, http.StatusCreated, created)
}

// GetPlaylist handles requests to get a playlist by ID. Anonymous requests
// only see public playlists.
func (h *PlaylistHandler) GetPlaylist(w http.ResponseWriter, r *http.Request, id bson.ObjectID) {
	found, err := h.playlistManager.GetPlaylist(r.Context(), OptionalUser(r), id)
	if err != nil {
		RespondWithDomainError(w, h.logger, err, "playlistId", id.Hex())
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, found)
}

// GetPlaylistView handles requests for the playable rendition of a playlist.
func (h *PlaylistHandler) GetPlaylistView(w http.ResponseWriter, r *http.Request, id bson.ObjectID) {
	view, err := h.playlistManager.GetPlaylistView(r.Context(), OptionalUser(r), id)
	if err != nil {
		RespondWithDomainError(w, h.logger, err, "playlistId", id.Hex())
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, view)
}

// UpdatePlaylist handles requests to update playlist metadata.
func (h *PlaylistHandler) UpdatePlaylist(w http.ResponseWriter, r *http.Request, id bson.ObjectID) {
	account := CurrentUser(w, r)
	if account == nil {
		return
	}

	var req models.PlaylistUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := utils.Validate(req); err != nil {
		utils.RespondWithValidationError(w, err)
		return
	}

	updated, err := h.playlistManager.UpdatePlaylist(r.Context(), account, id, req)
	if err != nil {
		RespondWithDomainError(w, h.logger, err, "playlistId", id.Hex(), "userId", account.ID.Hex())
		return
	}

	h.metrics.IncPlaylistMutations("update")
	utils.RespondWithJSON(w, http.StatusOK, updated)
}

// DeletePlaylist handles requests to delete a playlist.
func (h *PlaylistHandler) DeletePlaylist(w http.ResponseWriter, r *http.Request, id bson.ObjectID) {
	account := CurrentUser(w, r)
	if account == nil {
		return
	}

	if err := h.playlistManager.DeletePlaylist(r.Context(), account, id); err != nil {
		RespondWithDomainError(w, h.logger, err, "playlistId", id.Hex(), "userId", account.ID.Hex())
		return
	}

	h.metrics.IncPlaylistMutations("delete")
	utils.RespondWithJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Playlist deleted successfully",
	})
}

// AddSong handles requests to append a song to a playlist.
func (h *PlaylistHandler) AddSong(w http.ResponseWriter, r *http.Request, id bson.ObjectID) {
	account := CurrentUser(w, r)
	if account == nil {
		return
	}

	var req models.PlaylistAddSongRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.SongID.IsZero() {
		utils.RespondWithError(w, http.StatusBadRequest, "Song ID is required")
		return
	}

	updated, err := h.playlistManager.AddSong(r.Context(), account, id, req.SongID)
	if err != nil {
		RespondWithDomainError(w, h.logger, err, "playlistId", id.Hex(), "songId", req.SongID.Hex())
		return
	}

	h.metrics.IncPlaylistMutations("add_song")
	utils.RespondWithJSON(w, http.StatusOK, updated)
}

// RemoveSong handles requests to remove a song from a playlist.
func (h *PlaylistHandler) RemoveSong(w http.ResponseWriter, r *http.Request, id bson.ObjectID) {
	account := CurrentUser(w, r)
	if account == nil {
		return
	}

	songID, err := bson.ObjectIDFromHex(chi.URLParam(r, "songId"))
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid song ID")
		return
	}

	updated, err := h.playlistManager.RemoveSong(r.Context(), account, id, songID)
	if err != nil {
		RespondWithDomainError(w, h.logger, err, "playlistId", id.Hex(), "songId", songID.Hex())
		return
	}

	h.metrics.IncPlaylistMutations("remove_song")
	utils.RespondWithJSON(w, http.StatusOK, updated)
}

// Reorder handles requests to reorder the songs of a playlist.
func (h *PlaylistHandler) Reorder(w http.ResponseWriter, r *http.Request, id bson.ObjectID) {
	account := CurrentUser(w, r)
	if account == nil {
		return
	}

	var req models.PlaylistReorderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := utils.Validate(req); err != nil {
		utils.RespondWithValidationError(w, err)
		return
	}

	updated, err := h.playlistManager.Reorder(r.Context(), account, id, req.SongIDs)
	if err != nil {
		RespondWithDomainError(w, h.logger, err, "playlistId", id.Hex())
		return
	}

	h.metrics.IncPlaylistMutations("reorder")
	utils.RespondWithJSON(w, http.StatusOK, updated)
}

// ReplaceSongs handles requests to swap a playlist's entire song list.
func (h *PlaylistHandler) ReplaceSongs(w http.ResponseWriter, r *http.Request, id bson.ObjectID) {
	account := CurrentUser(w, r)
	if account == nil {
		return
	}

	var req models.PlaylistReplaceSongsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := utils.Validate(req); err != nil {
		utils.RespondWithValidationError(w, err)
		return
	}

	updated, err := h.playlistManager.ReplaceSongs(r.Context(), account, id, req.SongIDs)
	if err != nil {
		RespondWithDomainError(w, h.logger, err, "playlistId", id.Hex())
		return
	}

	h.metrics.IncPlaylistMutations("replace_songs")
	utils.RespondWithJSON(w, http.StatusOK, updated)
}

// Clone handles requests to clone another user's public playlist.
func (h *PlaylistHandler) Clone(w http.ResponseWriter, r *http.Request, id bson.ObjectID) {
	account := CurrentUser(w, r)
	if account == nil {
		return
	}

	cloned, err := h.playlistManager.Clone(r.Context(), account, id)
	if err != nil {
		RespondWithDomainError(w, h.logger, err, "sourceId", id.Hex(), "userId", account.ID.Hex())
		return
	}

	h.metrics.IncPlaylistClones()
	utils.RespondWithJSON(w, http.StatusCreated, cloned)
}

// Publish handles requests to change a playlist's visibility.
func (h *PlaylistHandler) Publish(w http.ResponseWriter, r *http.Request, id bson.ObjectID) {
	account := CurrentUser(w, r)
	if account == nil {
		return
	}

	var req models.PlaylistPublishRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	updated, err := h.playlistManager.TogglePublish(r.Context(), account, id, req.IsPublic)
	if err != nil {
		RespondWithDomainError(w, h.logger, err, "playlistId", id.Hex(), "isPublic", req.IsPublic)
		return
	}

	h.metrics.IncPlaylistMutations("publish")
	utils.RespondWithJSON(w, http.StatusOK, updated)
}

// Discover handles requests to browse recently published public playlists.
func (h *PlaylistHandler) Discover(w http.ResponseWriter, r *http.Request) {
	page, limit := utils.GetPageParams(r, 20)

	playlists, err := h.playlistManager.DiscoverPlaylists(r.Context(), (page-1)*limit, limit)
	if err != nil {
		RespondWithDomainError(w, h.logger, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, map[string]any{
		"playlists": playlists,
		"page":      page,
		"limit":     limit,
	})
}

// Search handles requests to search public playlists.
func (h *PlaylistHandler) Search(w http.ResponseWriter, r *http.Request) {
	page, limit := utils.GetPageParams(r, 20)
	criteria := models.PlaylistSearchCriteria{
		Query:          utils.SanitizeSearchQuery(r.URL.Query().Get("q")),
		Classification: r.URL.Query().Get("classification"),
		PublicOnly:     true,
		Page:           page,
		Limit:          limit,
	}

	playlists, total, err := h.playlistManager.SearchPlaylists(r.Context(), criteria)
	if err != nil {
		RespondWithDomainError(w, h.logger, err, "query", criteria.Query)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, map[string]any{
		"playlists": playlists,
		"total":     total,
		"page":      page,
		"limit":     limit,
	})
}
