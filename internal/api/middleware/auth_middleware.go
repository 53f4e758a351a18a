// Package middleware contains HTTP middleware for the API.
package middleware

import (
	"context"
	"errors"
	"net/http"

	"go.mongodb.org/mongo-driver/v2/bson"
	"norelock.dev/mixtape/backend/internal/auth"
	"norelock.dev/mixtape/backend/internal/db/mongo/repositories"
	"norelock.dev/mixtape/backend/internal/db/redis/managers"
	"norelock.dev/mixtape/backend/internal/models"
	"norelock.dev/mixtape/backend/internal/utils"
)

type contextKey string

const userContextKey contextKey = "currentUser"

// UserFromContext returns the authenticated user stored by the auth
// middleware, or nil for an anonymous request.
func UserFromContext(ctx context.Context) *models.User {
	user, _ := ctx.Value(userContextKey).(*models.User)
	return user
}

// WithUser returns a context carrying the given user.
func WithUser(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

// AuthMiddleware handles authentication for protected routes.
type AuthMiddleware struct {
	authProvider auth.Provider
	sessionMgr   *managers.SessionManager
	userRepo     repositories.UserRepository
	logger       *utils.Logger
}

// NewAuthMiddleware creates a new auth middleware.
func NewAuthMiddleware(
	authProvider auth.Provider,
	sessionMgr *managers.SessionManager,
	userRepo repositories.UserRepository,
	logger *utils.Logger,
) *AuthMiddleware {
	return &AuthMiddleware{
		authProvider: authProvider,
		sessionMgr:   sessionMgr,
		userRepo:     userRepo,
		logger:       logger.Named("auth_middleware"),
	}
}

// resolveUser validates the token, checks the session and loads the account.
func (m *AuthMiddleware) resolveUser(r *http.Request, token string) (*models.User, int, string) {
	claims, err := m.authProvider.ValidateToken(token)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrInvalidToken), errors.Is(err, auth.ErrInvalidClaims):
			return nil, http.StatusUnauthorized, "Invalid token"
		case errors.Is(err, auth.ErrExpiredToken):
			return nil, http.StatusUnauthorized, "Token has expired"
		default:
			m.logger.Error("Failed to validate token", err)
			return nil, http.StatusInternalServerError, "Failed to validate token"
		}
	}

	session, err := m.sessionMgr.GetSession(r.Context(), token)
	if err != nil {
		m.logger.Error("Failed to verify session", err, "userId", claims.UserID)
		return nil, http.StatusInternalServerError, "Failed to verify session"
	}
	if session == nil {
		return nil, http.StatusUnauthorized, "Session expired or invalid"
	}

	userID, err := bson.ObjectIDFromHex(claims.UserID)
	if err != nil {
		return nil, http.StatusUnauthorized, "Invalid token"
	}

	user, err := m.userRepo.FindByID(r.Context(), userID)
	if err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			return nil, http.StatusUnauthorized, "Account no longer exists"
		}
		m.logger.Error("Failed to load account", err, "userId", claims.UserID)
		return nil, http.StatusInternalServerError, "Failed to load account"
	}
	if !user.IsActive {
		return nil, http.StatusForbidden, "Account is disabled"
	}

	return user, 0, ""
}

// RequireAuth is a middleware that requires authentication.
func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, err := utils.ExtractBearerToken(r)
		if err != nil {
			utils.RespondWithError(w, http.StatusUnauthorized, err.Error())
			return
		}

		user, status, message := m.resolveUser(r, token)
		if user == nil {
			utils.RespondWithError(w, status, message)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
	})
}

// OptionalAuth attaches the user to the context when a valid token is
// present and lets anonymous requests through untouched.
func (m *AuthMiddleware) OptionalAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, err := utils.ExtractBearerToken(r)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}

		user, _, _ := m.resolveUser(r, token)
		if user == nil {
			next.ServeHTTP(w, r)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
	})
}

// RequireRole is a middleware that requires a specific role. It must run
// after RequireAuth.
func (m *AuthMiddleware) RequireRole(role models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := UserFromContext(r.Context())
			if user == nil {
				utils.RespondWithError(w, http.StatusUnauthorized, "Not authenticated")
				return
			}

			if user.Role != role {
				utils.RespondWithError(w, http.StatusForbidden, "Insufficient permissions")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
