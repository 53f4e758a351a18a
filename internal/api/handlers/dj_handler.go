// Package handlers contains HTTP handlers for the API.
package handlers

import (
	"encoding/json"
	"net/http"

	"go.mongodb.org/mongo-driver/v2/bson"
	"norelock.dev/mixtape/backend/internal/models"
	"norelock.dev/mixtape/backend/internal/services/dj"
	"norelock.dev/mixtape/backend/internal/utils"
)

// DjHandler handles HTTP requests related to dj profiles.
type DjHandler struct {
	djService *dj.Service
	logger    *utils.Logger
}

// NewDjHandler creates a new dj handler.
func NewDjHandler(djService *dj.Service, logger *utils.Logger) *DjHandler {
	return &DjHandler{
		djService: djService,
		logger:    logger.Named("dj_handler"),
	}
}

// ListProfiles handles requests to browse dj profiles.
func (h *DjHandler) ListProfiles(w http.ResponseWriter, r *http.Request) {
	page, limit := utils.GetPageParams(r, 20)

	profiles, err := h.djService.ListProfiles(r.Context(), (page-1)*limit, limit)
	if err != nil {
		RespondWithDomainError(w, h.logger, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, map[string]any{
		"profiles": profiles,
		"page":     page,
		"limit":    limit,
	})
}

// GetProfile handles requests to fetch a dj profile by user ID.
func (h *DjHandler) GetProfile(w http.ResponseWriter, r *http.Request, userID bson.ObjectID) {
	profile, err := h.djService.GetProfile(r.Context(), userID)
	if err != nil {
		RespondWithDomainError(w, h.logger, err, "userId", userID.Hex())
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, profile)
}

// UpdateProfile handles requests to update a dj profile.
func (h *DjHandler) UpdateProfile(w http.ResponseWriter, r *http.Request, userID bson.ObjectID) {
	account := CurrentUser(w, r)
	if account == nil {
		return
	}

	var req models.DjProfileUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := utils.Validate(req); err != nil {
		utils.RespondWithValidationError(w, err)
		return
	}

	profile, err := h.djService.UpdateProfile(r.Context(), account, userID, req)
	if err != nil {
		RespondWithDomainError(w, h.logger, err, "userId", userID.Hex())
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, profile)
}
