// Package handlers contains HTTP handlers for the API.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/samber/lo"
	"norelock.dev/mixtape/backend/internal/models"
	"norelock.dev/mixtape/backend/internal/services/user"
	"norelock.dev/mixtape/backend/internal/utils"
)

// UserHandler handles user-related requests.
type UserHandler struct {
	userManager *user.Manager
	logger      *utils.Logger
}

// NewUserHandler creates a new user handler.
func NewUserHandler(userManager *user.Manager, logger *utils.Logger) *UserHandler {
	return &UserHandler{
		userManager: userManager,
		logger:      logger.Named("user_handler"),
	}
}

// GetUser handles requests to get a user's public profile.
func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "User ID is required")
		return
	}

	profile, err := h.userManager.GetPublicUserByID(r.Context(), id)
	if err != nil {
		RespondWithDomainError(w, h.logger, err, "userId", id)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, profile)
}

// UpdatePreferences handles requests to update the current user's listening preferences.
func (h *UserHandler) UpdatePreferences(w http.ResponseWriter, r *http.Request) {
	account := CurrentUser(w, r)
	if account == nil {
		return
	}

	var req models.UserPreferencesUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := utils.Validate(req); err != nil {
		utils.RespondWithValidationError(w, err)
		return
	}

	updated, err := h.userManager.UpdatePreferences(r.Context(), account.ID.Hex(), req)
	if err != nil {
		RespondWithDomainError(w, h.logger, err, "userId", account.ID.Hex())
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, updated.ToPersonalUser())
}

// ChangePassword handles requests to change the current user's password.
func (h *UserHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	account := CurrentUser(w, r)
	if account == nil {
		return
	}

	var req models.UserPasswordChangeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := utils.Validate(req); err != nil {
		utils.RespondWithValidationError(w, err)
		return
	}

	if err := h.userManager.ChangePassword(r.Context(), account.ID.Hex(), req); err != nil {
		RespondWithDomainError(w, h.logger, err, "userId", account.ID.Hex())
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "Password changed successfully"})
}

// ListUsers handles administrative requests to list accounts.
func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	account := CurrentUser(w, r)
	if account == nil {
		return
	}

	page, limit := utils.GetPageParams(r, 50)
	users, total, err := h.userManager.ListUsers(r.Context(), account, (page-1)*limit, limit)
	if err != nil {
		RespondWithDomainError(w, h.logger, err, "actorId", account.ID.Hex())
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, map[string]any{
		"users": lo.Map(users, func(u *models.User, _ int) models.PersonalUser {
			return u.ToPersonalUser()
		}),
		"total": total,
		"page":  page,
		"limit": limit,
	})
}

// SetUserRole handles administrative requests to change an account's role.
func (h *UserHandler) SetUserRole(w http.ResponseWriter, r *http.Request) {
	account := CurrentUser(w, r)
	if account == nil {
		return
	}

	id := chi.URLParam(r, "id")
	if id == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "User ID is required")
		return
	}

	var req models.UserRoleUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := utils.Validate(req); err != nil {
		utils.RespondWithValidationError(w, err)
		return
	}

	role, err := models.ParseRole(req.Role)
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Unknown role")
		return
	}

	updated, err := h.userManager.SetRole(r.Context(), account, id, role)
	if err != nil {
		RespondWithDomainError(w, h.logger, err, "userId", id, "role", req.Role)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, updated.ToPersonalUser())
}

// SetUserActive handles administrative requests to activate or deactivate an account.
func (h *UserHandler) SetUserActive(w http.ResponseWriter, r *http.Request) {
	account := CurrentUser(w, r)
	if account == nil {
		return
	}

	id := chi.URLParam(r, "id")
	if id == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "User ID is required")
		return
	}

	var req models.UserActiveUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	updated, err := h.userManager.SetActive(r.Context(), account, id, req.IsActive)
	if err != nil {
		RespondWithDomainError(w, h.logger, err, "userId", id, "active", req.IsActive)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, updated.ToPersonalUser())
}
