// Package handlers contains HTTP handlers for the API.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"norelock.dev/mixtape/backend/internal/models"
	"norelock.dev/mixtape/backend/internal/services/system"
	"norelock.dev/mixtape/backend/internal/services/user"
	"norelock.dev/mixtape/backend/internal/utils"
)

// AuthHandler handles authentication-related requests.
type AuthHandler struct {
	userManager *user.Manager
	metrics     *system.MetricsService
	logger      *utils.Logger
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(userManager *user.Manager, metrics *system.MetricsService, logger *utils.Logger) *AuthHandler {
	return &AuthHandler{
		userManager: userManager,
		metrics:     metrics,
		logger:      logger.Named("auth_handler"),
	}
}

// AuthResponse represents the response for successful authentication operations.
type AuthResponse struct {
	User  models.PersonalUser `json:"user"`
	Token string              `json:"token"`
}

// Register handles user registration.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.UserRegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error("Failed to decode register request", err)
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := utils.Validate(req); err != nil {
		h.logger.Debug("Invalid register request", "error", err)
		utils.RespondWithValidationError(w, err)
		return
	}

	account, token, err := h.userManager.Register(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrEmailAlreadyExists):
			utils.RespondWithError(w, http.StatusConflict, "Email already in use")
		case errors.Is(err, models.ErrUsernameAlreadyExists):
			utils.RespondWithError(w, http.StatusConflict, "Username already in use")
		default:
			h.logger.Error("Failed to register user", err, "email", req.Email)
			utils.RespondWithError(w, http.StatusInternalServerError, "Failed to register user")
		}
		return
	}

	h.metrics.IncUserRegistrations()
	utils.RespondWithJSON(w, http.StatusCreated, AuthResponse{
		User:  account.ToPersonalUser(),
		Token: token,
	})
}

// Login handles user login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.UserLoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error("Failed to decode login request", err)
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := utils.Validate(req); err != nil {
		h.logger.Debug("Invalid login request", "error", err)
		utils.RespondWithValidationError(w, err)
		return
	}

	account, token, err := h.userManager.Login(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrInvalidCredentials):
			utils.RespondWithError(w, http.StatusUnauthorized, "Invalid email or password")
		case errors.Is(err, models.ErrAccountDisabled):
			utils.RespondWithError(w, http.StatusForbidden, "Account is disabled")
		case errors.Is(err, models.ErrTooManyRequests):
			utils.RespondWithError(w, http.StatusTooManyRequests, "Too many login attempts")
		default:
			h.logger.Error("Failed to login user", err, "email", req.Email)
			utils.RespondWithError(w, http.StatusInternalServerError, "Failed to login")
		}
		return
	}

	h.metrics.IncUserLogins()
	utils.RespondWithJSON(w, http.StatusOK, AuthResponse{
		User:  account.ToPersonalUser(),
		Token: token,
	})
}

// Logout handles user logout.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	account := CurrentUser(w, r)
	if account == nil {
		return
	}

	if err := h.userManager.Logout(r.Context(), account.ID.Hex()); err != nil {
		h.logger.Error("Failed to logout user", err, "userId", account.ID.Hex())
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to logout")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "Logged out successfully"})
}

// Refresh handles token refresh.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	token, err := utils.ExtractBearerToken(r)
	if err != nil {
		utils.RespondWithError(w, http.StatusUnauthorized, err.Error())
		return
	}

	account, newToken, err := h.userManager.RefreshToken(r.Context(), token)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrInvalidToken):
			utils.RespondWithError(w, http.StatusUnauthorized, "Invalid token")
		case errors.Is(err, models.ErrAccountDisabled):
			utils.RespondWithError(w, http.StatusForbidden, "Account is disabled")
		default:
			h.logger.Error("Failed to refresh token", err)
			utils.RespondWithError(w, http.StatusInternalServerError, "Failed to refresh token")
		}
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, AuthResponse{
		User:  account.ToPersonalUser(),
		Token: newToken,
	})
}

// Me returns the current user's information.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	account := CurrentUser(w, r)
	if account == nil {
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, account.ToPersonalUser())
}
