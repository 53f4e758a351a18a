// Package user provides services for account management and authentication.
package user

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"norelock.dev/mixtape/backend/internal/auth"
	"norelock.dev/mixtape/backend/internal/config"
	"norelock.dev/mixtape/backend/internal/db/mongo/repositories"
	"norelock.dev/mixtape/backend/internal/db/redis"
	"norelock.dev/mixtape/backend/internal/db/redis/managers"
	"norelock.dev/mixtape/backend/internal/models"
	"norelock.dev/mixtape/backend/internal/services/access"
	"norelock.dev/mixtape/backend/internal/utils"
)

// Manager provides account management functionality.
type Manager struct {
	userRepo     repositories.UserRepository
	djRepo       repositories.DjRepository
	sessionMgr   *managers.SessionManager
	rateLimiter  *redis.RateLimiter
	authProvider auth.Provider
	loginLimit   redis.RateLimit
	logger       *utils.Logger
}

// NewManager creates a new user manager.
func NewManager(
	userRepo repositories.UserRepository,
	djRepo repositories.DjRepository,
	sessionMgr *managers.SessionManager,
	rateLimiter *redis.RateLimiter,
	authProvider auth.Provider,
	cfg *config.Config,
	logger *utils.Logger,
) *Manager {
	return &Manager{
		userRepo:     userRepo,
		djRepo:       djRepo,
		sessionMgr:   sessionMgr,
		rateLimiter:  rateLimiter,
		authProvider: authProvider,
		loginLimit: redis.RateLimit{
			Key:         "login",
			MaxRequests: cfg.Auth.LoginRateLimit,
			Window:      cfg.Auth.LoginRateWindow,
		},
		logger: logger.Named("user_manager"),
	}
}

// Register creates a new user account with the default role and logs it in.
func (m *Manager) Register(ctx context.Context, req models.UserRegisterRequest) (*models.User, string, error) {
	req.Username = utils.SanitizeUsername(req.Username)
	req.Email = utils.SanitizeEmail(req.Email)

	// Check if email already exists
	_, err := m.userRepo.FindByEmail(ctx, req.Email)
	if err == nil {
		return nil, "", models.ErrEmailAlreadyExists
	} else if !errors.Is(err, models.ErrUserNotFound) {
		m.logger.Error("Error checking email existence", err, "email", req.Email)
		return nil, "", err
	}

	// Check if username already exists
	_, err = m.userRepo.FindByUsername(ctx, req.Username)
	if err == nil {
		return nil, "", models.ErrUsernameAlreadyExists
	} else if !errors.Is(err, models.ErrUserNotFound) {
		m.logger.Error("Error checking username existence", err, "username", req.Username)
		return nil, "", err
	}

	// Hash password
	hashedPassword, err := m.authProvider.HashPassword(req.Password)
	if err != nil {
		m.logger.Error("Failed to hash password", err)
		return nil, "", models.NewInternalError(err, "Failed to process password")
	}

	now := time.Now()
	user := &models.User{
		ID:       bson.NewObjectID(),
		Username: req.Username,
		Email:    req.Email,
		Password: hashedPassword,
		Role:     models.RoleUser,
		Preferences: models.UserPreferences{
			Genres:  []string{},
			Artists: []string{},
			Years:   []int{},
		},
		History:     []models.HistoryEntry{},
		IsActive:    true,
		LastLogin:   now,
		ObjectTimes: models.NewObjectTimes(now),
	}

	if err := m.userRepo.Create(ctx, user); err != nil {
		m.logger.Error("Failed to create user", err, "email", req.Email)
		return nil, "", err
	}

	token, err := m.authProvider.GenerateToken(user.ID.Hex(), user.Username, user.Role)
	if err != nil {
		m.logger.Error("Failed to generate token", err, "userId", user.ID.Hex())
		return nil, "", models.NewInternalError(err, "Failed to generate authentication token")
	}

	_, err = m.sessionMgr.CreateSession(ctx, user, token, "unknown", "unknown")
	if err != nil {
		m.logger.Error("Failed to create session", err, "userId", user.ID.Hex())
		// Continue anyway, user can log in again
	}

	m.logger.Info("Registered user", "userId", user.ID.Hex(), "username", user.Username)
	return user, token, nil
}

// Login authenticates a user and returns a JWT token. Attempts are rate
// limited per email address.
func (m *Manager) Login(ctx context.Context, req models.UserLoginRequest) (*models.User, string, error) {
	req.Email = utils.SanitizeEmail(req.Email)

	if m.rateLimiter != nil {
		result, err := m.rateLimiter.Allow(ctx, m.loginLimit, req.Email)
		if err != nil {
			m.logger.Error("Login rate limit check failed", err, "email", req.Email)
			// Fail open, Redis trouble should not lock everyone out
		} else if !result.Allowed {
			m.logger.Warn("Login rate limit exceeded",
				"email", req.Email,
				"retryAfter", result.RetryAfter.String(),
			)
			return nil, "", models.ErrTooManyRequests
		}
	}

	user, err := m.userRepo.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			return nil, "", models.ErrInvalidCredentials
		}
		m.logger.Error("Failed to find user by email", err, "email", req.Email)
		return nil, "", err
	}

	if !user.IsActive {
		return nil, "", models.ErrAccountDisabled
	}

	if !m.authProvider.VerifyPassword(req.Password, user.Password) {
		return nil, "", models.ErrInvalidCredentials
	}

	if err := m.userRepo.UpdateLastLogin(ctx, user.ID); err != nil {
		m.logger.Error("Failed to update last login", err, "userId", user.ID.Hex())
		// Continue anyway, not critical
	}

	// A successful login clears the attempt window for this address
	if m.rateLimiter != nil {
		_ = m.rateLimiter.Reset(ctx, m.loginLimit, req.Email)
	}

	token, err := m.authProvider.GenerateToken(user.ID.Hex(), user.Username, user.Role)
	if err != nil {
		m.logger.Error("Failed to generate token", err, "userId", user.ID.Hex())
		return nil, "", models.NewInternalError(err, "Failed to generate authentication token")
	}

	_, err = m.sessionMgr.CreateSession(ctx, user, token, "unknown", "unknown")
	if err != nil {
		m.logger.Error("Failed to create session", err, "userId", user.ID.Hex())
		// Continue anyway, user can log in again
	}

	return user, token, nil
}

// Logout invalidates a user's session.
func (m *Manager) Logout(ctx context.Context, userID string) error {
	objectID, err := bson.ObjectIDFromHex(userID)
	if err != nil {
		return models.ErrInvalidID
	}

	_, token, err := m.sessionMgr.GetUserSession(ctx, objectID)
	if err != nil {
		m.logger.Error("Failed to get user session", err, "userId", userID)
		return models.NewInternalError(err, "Failed to logout")
	}
	if token == "" {
		return nil
	}

	if err := m.sessionMgr.DestroySession(ctx, token); err != nil {
		m.logger.Error("Failed to destroy session", err, "userId", userID)
		return models.NewInternalError(err, "Failed to logout")
	}

	return nil
}

// RefreshToken issues a fresh token for a still-valid or recently expired
// token and rebinds the session to it.
func (m *Manager) RefreshToken(ctx context.Context, token string) (*models.User, string, error) {
	newToken, err := m.authProvider.RefreshToken(token)
	if err != nil {
		return nil, "", models.ErrInvalidToken
	}

	userID, err := m.authProvider.GetUserIDFromToken(newToken)
	if err != nil {
		return nil, "", models.ErrInvalidToken
	}

	user, err := m.GetUserByID(ctx, userID)
	if err != nil {
		return nil, "", err
	}

	if !user.IsActive {
		return nil, "", models.ErrAccountDisabled
	}

	// Replace the old session with one keyed by the new token.
	if err := m.sessionMgr.DestroyUserSessions(ctx, user.ID); err != nil {
		m.logger.Error("Failed to destroy old session on refresh", err, "userId", userID)
		// Continue anyway, old session will expire on its own
	}

	_, err = m.sessionMgr.CreateSession(ctx, user, newToken, "unknown", "unknown")
	if err != nil {
		m.logger.Error("Failed to create refreshed session", err, "userId", userID)
		return nil, "", models.NewInternalError(err, "Failed to refresh session")
	}

	return user, newToken, nil
}

// GetUserByID retrieves a user by their ID.
func (m *Manager) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	objectID, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return nil, models.ErrInvalidID
	}

	return m.userRepo.FindByID(ctx, objectID)
}

// GetUserByUsername retrieves a user by their username.
func (m *Manager) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return m.userRepo.FindByUsername(ctx, username)
}

// GetPublicUserByID retrieves a public user profile by ID.
func (m *Manager) GetPublicUserByID(ctx context.Context, id string) (*models.PublicUser, error) {
	user, err := m.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}

	publicUser := user.ToPublicUser()
	return &publicUser, nil
}

// UpdatePreferences replaces the caller's listening preferences.
func (m *Manager) UpdatePreferences(ctx context.Context, userID string, req models.UserPreferencesUpdateRequest) (*models.User, error) {
	objectID, err := bson.ObjectIDFromHex(userID)
	if err != nil {
		return nil, models.ErrInvalidID
	}

	prefs := models.UserPreferences{
		Genres:  req.Genres,
		Artists: req.Artists,
		Years:   req.Years,
	}
	if prefs.Genres == nil {
		prefs.Genres = []string{}
	}
	if prefs.Artists == nil {
		prefs.Artists = []string{}
	}
	if prefs.Years == nil {
		prefs.Years = []int{}
	}

	if err := m.userRepo.UpdatePreferences(ctx, objectID, prefs); err != nil {
		return nil, err
	}

	return m.userRepo.FindByID(ctx, objectID)
}

// ChangePassword changes a user's password and invalidates their sessions.
func (m *Manager) ChangePassword(ctx context.Context, userID string, req models.UserPasswordChangeRequest) error {
	objectID, err := bson.ObjectIDFromHex(userID)
	if err != nil {
		return models.ErrInvalidID
	}

	user, err := m.userRepo.FindByID(ctx, objectID)
	if err != nil {
		return err
	}

	if !m.authProvider.VerifyPassword(req.CurrentPassword, user.Password) {
		return models.ErrInvalidCredentials
	}

	hashedPassword, err := m.authProvider.HashPassword(req.NewPassword)
	if err != nil {
		m.logger.Error("Failed to hash new password", err, "userId", userID)
		return models.NewInternalError(err, "Failed to process password")
	}

	if err := m.userRepo.UpdatePassword(ctx, objectID, hashedPassword); err != nil {
		return err
	}

	if err := m.sessionMgr.DestroyUserSessions(ctx, objectID); err != nil {
		m.logger.Error("Failed to invalidate sessions after password change", err, "userId", userID)
		// Continue anyway, not critical
	}

	return nil
}

// SetRole changes an account's role. Promotion to dj creates an empty dj
// profile; demotion from dj removes it. Only admins may change roles.
func (m *Manager) SetRole(ctx context.Context, actor *models.User, userID string, role models.Role) (*models.User, error) {
	if !access.CanManageUsers(actor) {
		return nil, models.ErrAccessDenied
	}
	if !role.Valid() {
		return nil, models.ErrInvalidRole
	}

	objectID, err := bson.ObjectIDFromHex(userID)
	if err != nil {
		return nil, models.ErrInvalidID
	}

	user, err := m.userRepo.FindByID(ctx, objectID)
	if err != nil {
		return nil, err
	}

	if user.Role == role {
		return user, nil
	}

	previousRole := user.Role
	if err := m.userRepo.SetRole(ctx, objectID, role); err != nil {
		return nil, err
	}

	if role == models.RoleDJ {
		profile := &models.DjProfile{
			UserID:    objectID,
			StageName: user.Username,
			Genres:    []string{},
		}
		if err := m.djRepo.Create(ctx, profile); err != nil && !errors.Is(err, models.ErrDjProfileAlreadyExists) {
			m.logger.Error("Failed to create dj profile on promotion", err, "userId", userID)
			// The role change stands; the profile can be created later
		}
	}

	if previousRole == models.RoleDJ && role != models.RoleDJ {
		if err := m.djRepo.DeleteByUserID(ctx, objectID); err != nil && !errors.Is(err, models.ErrDjProfileNotFound) {
			m.logger.Error("Failed to remove dj profile on demotion", err, "userId", userID)
		}
	}

	m.logger.Info("Changed user role", "userId", userID, "from", previousRole.String(), "to", role.String())
	return m.userRepo.FindByID(ctx, objectID)
}

// SetActive toggles an account's activation. Deactivation destroys the
// account's sessions so outstanding tokens stop working immediately.
func (m *Manager) SetActive(ctx context.Context, actor *models.User, userID string, active bool) (*models.User, error) {
	if !access.CanManageUsers(actor) {
		return nil, models.ErrAccessDenied
	}

	objectID, err := bson.ObjectIDFromHex(userID)
	if err != nil {
		return nil, models.ErrInvalidID
	}

	if err := m.userRepo.SetActive(ctx, objectID, active); err != nil {
		return nil, err
	}

	if !active {
		if err := m.sessionMgr.DestroyUserSessions(ctx, objectID); err != nil {
			m.logger.Error("Failed to invalidate sessions after deactivation", err, "userId", userID)
			// Continue anyway, not critical
		}
	}

	m.logger.Info("Changed account activation", "userId", userID, "active", active)
	return m.userRepo.FindByID(ctx, objectID)
}

// ListUsers lists accounts for administration, newest first.
func (m *Manager) ListUsers(ctx context.Context, actor *models.User, skip, limit int) ([]*models.User, int64, error) {
	if !access.CanManageUsers(actor) {
		return nil, 0, models.ErrAccessDenied
	}

	total, err := m.userRepo.CountUsers(ctx, bson.M{})
	if err != nil {
		return nil, 0, err
	}

	opts := options.Find().
		SetSkip(int64(skip)).
		SetLimit(int64(limit)).
		SetSort(bson.M{"createdAt": -1})

	users, err := m.userRepo.FindMany(ctx, bson.M{}, opts)
	if err != nil {
		return nil, 0, err
	}

	return users, total, nil
}

// GetUserCount gets the number of active accounts.
func (m *Manager) GetUserCount(ctx context.Context) (int64, error) {
	return m.userRepo.CountUsers(ctx, bson.M{"isActive": true})
}
