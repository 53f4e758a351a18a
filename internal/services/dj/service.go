// Package dj provides curator profile management.
package dj

import (
	"context"

	"go.mongodb.org/mongo-driver/v2/bson"
	"norelock.dev/mixtape/backend/internal/db/mongo/repositories"
	"norelock.dev/mixtape/backend/internal/models"
	"norelock.dev/mixtape/backend/internal/utils"
)

// Service provides dj profile functionality. Profiles are created and
// removed by role changes; djs edit their own profile here.
type Service struct {
	djRepo repositories.DjRepository
	logger *utils.Logger
}

// NewService creates a new dj service.
func NewService(djRepo repositories.DjRepository, logger *utils.Logger) *Service {
	return &Service{
		djRepo: djRepo,
		logger: logger.Named("dj_service"),
	}
}

// GetProfile gets the profile of the given account.
func (s *Service) GetProfile(ctx context.Context, userID bson.ObjectID) (*models.DjProfile, error) {
	return s.djRepo.FindByUserID(ctx, userID)
}

// ListProfiles lists dj profiles alphabetically by stage name.
func (s *Service) ListProfiles(ctx context.Context, skip, limit int) ([]*models.DjProfile, error) {
	if limit < 1 || limit > 100 {
		limit = 20
	}

	return s.djRepo.FindAll(ctx, skip, limit)
}

// UpdateProfile applies a dj's changes to their own profile. Admins may
// edit any profile.
func (s *Service) UpdateProfile(ctx context.Context, actor *models.User, userID bson.ObjectID, req models.DjProfileUpdateRequest) (*models.DjProfile, error) {
	if actor == nil {
		return nil, models.ErrAccessDenied
	}
	if actor.ID != userID && actor.Role != models.RoleAdmin {
		return nil, models.ErrAccessDenied
	}

	profile, err := s.djRepo.FindByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if req.StageName != "" {
		profile.StageName = utils.SanitizeString(req.StageName)
	}
	if req.Bio != nil {
		profile.Bio = utils.SanitizeString(*req.Bio)
	}
	if req.Genres != nil {
		profile.Genres = req.Genres
	}

	if err := s.djRepo.Update(ctx, profile); err != nil {
		return nil, err
	}

	return profile, nil
}
