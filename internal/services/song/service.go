// Package song provides catalog management and browsing.
package song

import (
	"context"

	"go.mongodb.org/mongo-driver/v2/bson"
	"norelock.dev/mixtape/backend/internal/db/mongo/repositories"
	"norelock.dev/mixtape/backend/internal/models"
	"norelock.dev/mixtape/backend/internal/services/access"
	"norelock.dev/mixtape/backend/internal/utils"
)

// Service provides song catalog functionality. Catalog writes are restricted
// to admins; reads hide restricted songs from everyone else.
type Service struct {
	songRepo repositories.SongRepository
	logger   *utils.Logger
}

// NewService creates a new song service.
func NewService(songRepo repositories.SongRepository, logger *utils.Logger) *Service {
	return &Service{
		songRepo: songRepo,
		logger:   logger.Named("song_service"),
	}
}

// AddSong adds a song to the catalog.
func (s *Service) AddSong(ctx context.Context, actor *models.User, req models.SongCreateRequest) (*models.Song, error) {
	if !access.CanManageCatalog(actor) {
		return nil, models.ErrAccessDenied
	}

	song := &models.Song{
		Title:    req.Title,
		Artist:   req.Artist,
		Genre:    req.Genre,
		Year:     req.Year,
		Duration: req.Duration,
		AudioURL: req.AudioURL,
		CoverURL: req.CoverURL,
		AddedBy:  actor.ID,
	}

	if err := s.songRepo.Create(ctx, song); err != nil {
		return nil, err
	}

	s.logger.Info("Added song to catalog", "songId", song.ID.Hex(), "title", song.Title, "artist", song.Artist)
	return song, nil
}

// UpdateSong updates a catalog entry. A changed duration does not rewrite
// stored playlist totals; those are recomputed on each playlist's next
// mutation.
func (s *Service) UpdateSong(ctx context.Context, actor *models.User, id bson.ObjectID, req models.SongUpdateRequest) (*models.Song, error) {
	if !access.CanManageCatalog(actor) {
		return nil, models.ErrAccessDenied
	}

	song, err := s.songRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Title != "" {
		song.Title = req.Title
	}
	if req.Artist != "" {
		song.Artist = req.Artist
	}
	if req.Genre != "" {
		song.Genre = req.Genre
	}
	if req.Year != 0 {
		song.Year = req.Year
	}
	if req.Duration != 0 {
		song.Duration = req.Duration
	}
	if req.AudioURL != nil {
		song.AudioURL = *req.AudioURL
	}
	if req.CoverURL != nil {
		song.CoverURL = *req.CoverURL
	}

	if err := s.songRepo.Update(ctx, song); err != nil {
		return nil, err
	}

	return song, nil
}

// DeleteSong removes a song from the catalog. Playlists keep their dangling
// references; serving filters them out.
func (s *Service) DeleteSong(ctx context.Context, actor *models.User, id bson.ObjectID) error {
	if !access.CanManageCatalog(actor) {
		return models.ErrAccessDenied
	}

	s.logger.Info("Deleting song from catalog", "songId", id.Hex())
	return s.songRepo.Delete(ctx, id)
}

// SetRestricted toggles a song's restriction. Restricted songs disappear
// from suggestions and served playlists but stay referenced in playlists.
func (s *Service) SetRestricted(ctx context.Context, actor *models.User, id bson.ObjectID, restricted bool) (*models.Song, error) {
	if !access.CanManageCatalog(actor) {
		return nil, models.ErrAccessDenied
	}

	if err := s.songRepo.SetRestricted(ctx, id, restricted); err != nil {
		return nil, err
	}

	s.logger.Info("Changed song restriction", "songId", id.Hex(), "restricted", restricted)
	return s.songRepo.FindByID(ctx, id)
}

// GetSong gets a song by ID. Restricted songs are only visible to catalog
// managers.
func (s *Service) GetSong(ctx context.Context, actor *models.User, id bson.ObjectID) (*models.Song, error) {
	song, err := s.songRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if song.Restricted && !access.CanManageCatalog(actor) {
		return nil, models.ErrSongNotFound
	}

	return song, nil
}

// SearchSongs searches the catalog. Restricted songs only appear for
// catalog managers who ask for them.
func (s *Service) SearchSongs(ctx context.Context, actor *models.User, criteria models.SongSearchCriteria) ([]*models.Song, int64, error) {
	if !access.CanManageCatalog(actor) {
		criteria.IncludeRestricted = false
	}

	return s.songRepo.Search(ctx, criteria)
}

// GetRecentSongs lists recently added unrestricted songs.
func (s *Service) GetRecentSongs(ctx context.Context, limit int) ([]*models.Song, error) {
	if limit < 1 || limit > 100 {
		limit = 20
	}

	return s.songRepo.FindRecent(ctx, limit)
}
