package handlers

import (
	"net/http"

	"norelock.dev/mixtape/backend/internal/api/middleware"
	"norelock.dev/mixtape/backend/internal/models"
	"norelock.dev/mixtape/backend/internal/utils"
)

// CurrentUser returns the authenticated user from the request context.
// It writes a 401 response and returns nil when the request is anonymous.
func CurrentUser(w http.ResponseWriter, r *http.Request) *models.User {
	user := middleware.UserFromContext(r.Context())
	if user == nil {
		utils.RespondWithError(w, http.StatusUnauthorized, "Not authenticated")
		return nil
	}
	return user
}

// OptionalUser returns the authenticated user from the request context, or
// nil for an anonymous request.
func OptionalUser(r *http.Request) *models.User {
	return middleware.UserFromContext(r.Context())
}

// RespondWithDomainError maps a service error to its HTTP status. Unexpected
// errors are logged and reported as opaque internal errors.
func RespondWithDomainError(w http.ResponseWriter, logger *utils.Logger, err error, kv ...any) {
	status := models.MapErrorToHTTPStatus(err)
	if status >= http.StatusInternalServerError {
		logger.Error("Request failed", err, kv...)
		utils.RespondWithError(w, status, "Internal server error")
		return
	}
	utils.RespondWithError(w, status, err.Error())
}
