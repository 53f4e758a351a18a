// Package playlist provides playlist management functionality. All mutations
// keep the stored total duration consistent with the referenced songs and
// guard against concurrent updates with optimistic versioning.
package playlist

import (
	"context"
	"errors"
	"slices"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"norelock.dev/mixtape/backend/internal/config"
	"norelock.dev/mixtape/backend/internal/db/mongo/repositories"
	"norelock.dev/mixtape/backend/internal/models"
	"norelock.dev/mixtape/backend/internal/services/access"
	"norelock.dev/mixtape/backend/internal/utils"
)

// Manager handles playlist operations.
type Manager struct {
	playlistRepo repositories.PlaylistRepository
	songRepo     repositories.SongRepository
	userRepo     repositories.UserRepository
	maxDuration  int
	maxSongs     int
	retries      int
	logger       *utils.Logger
	now          func() time.Time
}

// NewManager creates a new playlist manager.
func NewManager(
	playlistRepo repositories.PlaylistRepository,
	songRepo repositories.SongRepository,
	userRepo repositories.UserRepository,
	cfg *config.Config,
	logger *utils.Logger,
) *Manager {
	retries := cfg.Playlists.UpdateRetries
	if retries < 1 {
		retries = 1
	}

	return &Manager{
		playlistRepo: playlistRepo,
		songRepo:     songRepo,
		userRepo:     userRepo,
		maxDuration:  cfg.Playlists.MaxTotalDuration,
		maxSongs:     cfg.Playlists.MaxSongs,
		retries:      retries,
		logger:       logger.Named("playlist_manager"),
		now:          time.Now,
	}
}

// CreatePlaylist creates a new private playlist for the owner.
func (m *Manager) CreatePlaylist(ctx context.Context, owner *models.User, req models.PlaylistCreateRequest) (*models.Playlist, error) {
	m.logger.Debug("Creating playlist", "name", req.Name, "owner", owner.ID.Hex())

	classification := models.Classification(req.Classification)
	if req.Classification == "" {
		classification = models.ClassificationGeneral
	}
	if !classification.Valid() {
		return nil, models.NewValidationError(models.ErrInvalidInput, "Unknown playlist classification")
	}

	songs := make([]models.PlaylistSong, 0, len(req.SongIDs))
	totalDuration := 0

	if len(req.SongIDs) > 0 {
		if len(req.SongIDs) > m.maxSongs {
			return nil, models.ErrPlaylistFull
		}

		seen := make(map[bson.ObjectID]struct{}, len(req.SongIDs))
		for _, id := range req.SongIDs {
			if _, dup := seen[id]; dup {
				return nil, models.ErrSongAlreadyInPlaylist
			}
			seen[id] = struct{}{}
		}

		catalog, err := m.songRepo.FindByIDs(ctx, req.SongIDs)
		if err != nil {
			return nil, err
		}
		if len(catalog) != len(req.SongIDs) {
			return nil, models.ErrSongNotFound
		}

		addedAt := m.now()
		for i, id := range req.SongIDs {
			songs = append(songs, models.PlaylistSong{
				SongID:  id,
				Order:   i,
				AddedAt: addedAt,
			})
		}

		totalDuration = TotalDuration(songs, durationIndex(catalog))
		if err := CheckDuration(totalDuration, m.maxDuration); err != nil {
			return nil, err
		}
	}

	playlist := &models.Playlist{
		Name:           utils.SanitizePlaylistName(req.Name),
		Description:    utils.SanitizeString(req.Description),
		Owner:          owner.ID,
		Classification: classification,
		IsPublic:       false,
		Songs:          songs,
		TotalDuration:  totalDuration,
		CoverImage:     req.CoverImage,
	}

	if err := m.playlistRepo.Create(ctx, playlist); err != nil {
		return nil, err
	}

	return playlist, nil
}

// GetPlaylist gets a playlist by ID, enforcing read access. The user may be
// nil for anonymous requests.
func (m *Manager) GetPlaylist(ctx context.Context, user *models.User, id bson.ObjectID) (*models.Playlist, error) {
	playlist, err := m.playlistRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !access.CanReadPlaylist(user, playlist) {
		return nil, models.ErrPlaylistNotFound
	}

	return playlist, nil
}

// GetPlaylistView resolves a playlist's song references for serving. Songs
// that have been restricted or removed from the catalog are omitted from the
// served list without changing the stored playlist.
func (m *Manager) GetPlaylistView(ctx context.Context, user *models.User, id bson.ObjectID) (*models.PlaylistView, error) {
	playlist, err := m.GetPlaylist(ctx, user, id)
	if err != nil {
		return nil, err
	}

	catalog, err := m.songRepo.FindByIDs(ctx, playlist.SongIDs())
	if err != nil {
		return nil, err
	}

	byID := make(map[bson.ObjectID]*models.Song, len(catalog))
	for _, s := range catalog {
		byID[s.ID] = s
	}

	served := make([]models.Song, 0, len(playlist.Songs))
	playable := 0
	for _, ref := range playlist.Songs {
		song, ok := byID[ref.SongID]
		if !ok || song.Restricted {
			continue
		}
		served = append(served, *song)
		playable += song.Duration
	}

	return &models.PlaylistView{
		ID:               playlist.ID,
		Name:             playlist.Name,
		Description:      playlist.Description,
		Owner:            playlist.Owner,
		Classification:   playlist.Classification,
		IsPublic:         playlist.IsPublic,
		Songs:            served,
		TotalDuration:    playlist.TotalDuration,
		PlayableDuration: playable,
		ClonedFrom:       playlist.ClonedFrom,
		CoverImage:       playlist.CoverImage,
		CreatedAt:        playlist.CreatedAt,
		UpdatedAt:        playlist.UpdatedAt,
	}, nil
}

// GetUserPlaylists lists playlists owned by ownerID. Owners and admins see
// everything, everyone else only the public ones.
func (m *Manager) GetUserPlaylists(ctx context.Context, user *models.User, ownerID bson.ObjectID) ([]*models.Playlist, error) {
	playlists, err := m.playlistRepo.FindUserPlaylists(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	visible := make([]*models.Playlist, 0, len(playlists))
	for _, p := range playlists {
		if access.CanReadPlaylist(user, p) {
			visible = append(visible, p)
		}
	}

	return visible, nil
}

// UpdatePlaylist updates playlist metadata.
func (m *Manager) UpdatePlaylist(ctx context.Context, user *models.User, id bson.ObjectID, req models.PlaylistUpdateRequest) (*models.Playlist, error) {
	m.logger.Debug("Updating playlist", "id", id.Hex())

	return m.mutate(ctx, user, id, func(playlist *models.Playlist) error {
		if req.Name != "" {
			playlist.Name = utils.SanitizePlaylistName(req.Name)
		}
		if req.Description != nil {
			playlist.Description = utils.SanitizeString(*req.Description)
		}
		if req.Classification != "" {
			classification := models.Classification(req.Classification)
			if !classification.Valid() {
				return models.NewValidationError(models.ErrInvalidInput, "Unknown playlist classification")
			}
			playlist.Classification = classification
		}
		if req.CoverImage != nil {
			playlist.CoverImage = *req.CoverImage
		}
		return nil
	})
}

// DeletePlaylist deletes a playlist.
func (m *Manager) DeletePlaylist(ctx context.Context, user *models.User, id bson.ObjectID) error {
	playlist, err := m.playlistRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}

	if !access.CanReadPlaylist(user, playlist) {
		return models.ErrPlaylistNotFound
	}
	if !access.CanMutatePlaylist(user, playlist) {
		return models.ErrAccessDenied
	}

	m.logger.Info("Deleting playlist", "id", id.Hex(), "owner", playlist.Owner.Hex())
	return m.playlistRepo.Delete(ctx, id)
}

// AddSong appends a song to the end of a playlist.
func (m *Manager) AddSong(ctx context.Context, user *models.User, playlistID, songID bson.ObjectID) (*models.Playlist, error) {
	m.logger.Debug("Adding song to playlist", "playlistId", playlistID.Hex(), "songId", songID.Hex())

	song, err := m.songRepo.FindByID(ctx, songID)
	if err != nil {
		return nil, err
	}

	return m.mutate(ctx, user, playlistID, func(playlist *models.Playlist) error {
		if playlist.ContainsSong(songID) {
			return models.ErrSongAlreadyInPlaylist
		}
		if len(playlist.Songs) >= m.maxSongs {
			return models.ErrPlaylistFull
		}

		playlist.Songs = append(playlist.Songs, models.PlaylistSong{
			SongID:  song.ID,
			Order:   len(playlist.Songs),
			AddedAt: m.now(),
		})

		return m.recomputeDuration(ctx, playlist)
	})
}

// RemoveSong removes a song from a playlist and renumbers the rest.
func (m *Manager) RemoveSong(ctx context.Context, user *models.User, playlistID, songID bson.ObjectID) (*models.Playlist, error) {
	m.logger.Debug("Removing song from playlist", "playlistId", playlistID.Hex(), "songId", songID.Hex())

	return m.mutate(ctx, user, playlistID, func(playlist *models.Playlist) error {
		index := -1
		for i, ref := range playlist.Songs {
			if ref.SongID == songID {
				index = i
				break
			}
		}
		if index == -1 {
			return models.ErrSongNotInPlaylist
		}

		playlist.Songs = slices.Delete(playlist.Songs, index, index+1)
		for i := range playlist.Songs {
			playlist.Songs[i].Order = i
		}

		return m.recomputeDuration(ctx, playlist)
	})
}

// Reorder replaces the play order of a playlist. The given ids must be a
// permutation of the playlist's current songs.
func (m *Manager) Reorder(ctx context.Context, user *models.User, playlistID bson.ObjectID, songIDs []bson.ObjectID) (*models.Playlist, error) {
	m.logger.Debug("Reordering playlist", "playlistId", playlistID.Hex())

	return m.mutate(ctx, user, playlistID, func(playlist *models.Playlist) error {
		if len(songIDs) != len(playlist.Songs) {
			return models.ErrInvalidSongOrder
		}

		byID := make(map[bson.ObjectID]models.PlaylistSong, len(playlist.Songs))
		for _, ref := range playlist.Songs {
			byID[ref.SongID] = ref
		}

		reordered := make([]models.PlaylistSong, 0, len(songIDs))
		for i, id := range songIDs {
			ref, ok := byID[id]
			if !ok {
				return models.ErrInvalidSongOrder
			}
			delete(byID, id)
			ref.Order = i
			reordered = append(reordered, ref)
		}

		// Reordering never changes the set of songs, so the total
		// duration is untouched.
		playlist.Songs = reordered
		return nil
	})
}

// ReplaceSongs swaps a playlist's entire song list for the given ids in one
// step. Songs kept from the old list retain their AddedAt; the playlist is
// left unchanged if any id is unknown, duplicated, or the new total duration
// is out of range.
func (m *Manager) ReplaceSongs(ctx context.Context, user *models.User, playlistID bson.ObjectID, songIDs []bson.ObjectID) (*models.Playlist, error) {
	m.logger.Debug("Replacing playlist songs", "playlistId", playlistID.Hex(), "count", len(songIDs))

	if len(songIDs) > m.maxSongs {
		return nil, models.ErrPlaylistFull
	}

	seen := make(map[bson.ObjectID]struct{}, len(songIDs))
	for _, id := range songIDs {
		if _, dup := seen[id]; dup {
			return nil, models.ErrSongAlreadyInPlaylist
		}
		seen[id] = struct{}{}
	}

	catalog, err := m.songRepo.FindByIDs(ctx, songIDs)
	if err != nil {
		return nil, err
	}
	if len(catalog) != len(songIDs) {
		return nil, models.ErrSongNotFound
	}

	return m.mutate(ctx, user, playlistID, func(playlist *models.Playlist) error {
		addedAt := make(map[bson.ObjectID]time.Time, len(playlist.Songs))
		for _, ref := range playlist.Songs {
			addedAt[ref.SongID] = ref.AddedAt
		}

		now := m.now()
		songs := make([]models.PlaylistSong, 0, len(songIDs))
		for i, id := range songIDs {
			at, kept := addedAt[id]
			if !kept {
				at = now
			}
			songs = append(songs, models.PlaylistSong{
				SongID:  id,
				Order:   i,
				AddedAt: at,
			})
		}

		total := TotalDuration(songs, durationIndex(catalog))
		if err := CheckDuration(total, m.maxDuration); err != nil {
			return err
		}

		playlist.Songs = songs
		playlist.TotalDuration = total
		return nil
	})
}

// Clone copies a public playlist into the user's own collection. The copy
// is private, keeps the source's songs and classification, and remembers its
// source. A user may clone any given playlist only once.
func (m *Manager) Clone(ctx context.Context, user *models.User, sourceID bson.ObjectID) (*models.Playlist, error) {
	source, err := m.GetPlaylist(ctx, user, sourceID)
	if err != nil {
		return nil, err
	}
	if !source.IsPublic {
		return nil, models.ErrAccessDenied
	}

	if _, err := m.playlistRepo.FindCloneBySource(ctx, user.ID, sourceID); err == nil {
		return nil, models.ErrPlaylistAlreadyCloned
	} else if !errors.Is(err, models.ErrPlaylistNotFound) {
		return nil, err
	}

	songs := make([]models.PlaylistSong, len(source.Songs))
	copy(songs, source.Songs)

	clonedFrom := source.ID
	clone := &models.Playlist{
		Name:           source.Name + " (Copy)",
		Description:    source.Description,
		Owner:          user.ID,
		Classification: source.Classification,
		IsPublic:       false,
		Songs:          songs,
		TotalDuration:  source.TotalDuration,
		ClonedFrom:     &clonedFrom,
		CoverImage:     source.CoverImage,
	}

	if err := m.playlistRepo.Create(ctx, clone); err != nil {
		return nil, err
	}

	m.logger.Info("Cloned playlist", "sourceId", sourceID.Hex(), "cloneId", clone.ID.Hex(), "owner", user.ID.Hex())
	return clone, nil
}

// TogglePublish sets a playlist's visibility. Publishing is a separate
// permission from ordinary mutation.
func (m *Manager) TogglePublish(ctx context.Context, user *models.User, playlistID bson.ObjectID, isPublic bool) (*models.Playlist, error) {
	var result *models.Playlist

	for attempt := 0; attempt < m.retries; attempt++ {
		playlist, err := m.playlistRepo.FindByID(ctx, playlistID)
		if err != nil {
			return nil, err
		}

		// Publish permission is decided before the read gate so an admin
		// can toggle a playlist they could not otherwise see.
		if !access.CanTogglePublish(user, playlist) {
			if !access.CanReadPlaylist(user, playlist) {
				return nil, models.ErrPlaylistNotFound
			}
			return nil, models.ErrAccessDenied
		}

		if playlist.IsPublic == isPublic {
			return playlist, nil
		}

		playlist.IsPublic = isPublic
		err = m.playlistRepo.ReplaceVersioned(ctx, playlist)
		if err == nil {
			result = playlist
			break
		}
		if !errors.Is(err, models.ErrPlaylistVersionChanged) {
			return nil, err
		}
	}

	if result == nil {
		return nil, models.ErrPlaylistVersionChanged
	}

	m.logger.Info("Toggled playlist visibility", "playlistId", playlistID.Hex(), "isPublic", isPublic)
	return result, nil
}

// SearchPlaylists searches for playlists based on criteria.
func (m *Manager) SearchPlaylists(ctx context.Context, criteria models.PlaylistSearchCriteria) ([]*models.Playlist, int64, error) {
	return m.playlistRepo.SearchPlaylists(ctx, criteria)
}

// DiscoverPlaylists lists public playlists for anonymous browsing.
func (m *Manager) DiscoverPlaylists(ctx context.Context, skip, limit int) ([]models.PlaylistInfo, error) {
	playlists, err := m.playlistRepo.FindPublicPlaylists(ctx, skip, limit)
	if err != nil {
		return nil, err
	}

	infos := make([]models.PlaylistInfo, 0, len(playlists))
	for _, p := range playlists {
		owner, err := m.userRepo.FindByID(ctx, p.Owner)
		if err != nil && !errors.Is(err, models.ErrUserNotFound) {
			return nil, err
		}
		infos = append(infos, p.ToPlaylistInfo(owner))
	}

	return infos, nil
}

// mutate runs a mutation against a freshly loaded playlist and persists it
// with a versioned replace, retrying on concurrent modification. Access is
// checked on every attempt against the reloaded document.
func (m *Manager) mutate(ctx context.Context, user *models.User, playlistID bson.ObjectID, apply func(*models.Playlist) error) (*models.Playlist, error) {
	for attempt := 0; attempt < m.retries; attempt++ {
		playlist, err := m.playlistRepo.FindByID(ctx, playlistID)
		if err != nil {
			return nil, err
		}

		if !access.CanReadPlaylist(user, playlist) {
			return nil, models.ErrPlaylistNotFound
		}
		if !access.CanMutatePlaylist(user, playlist) {
			return nil, models.ErrAccessDenied
		}

		if err := apply(playlist); err != nil {
			return nil, err
		}

		err = m.playlistRepo.ReplaceVersioned(ctx, playlist)
		if err == nil {
			return playlist, nil
		}
		if !errors.Is(err, models.ErrPlaylistVersionChanged) {
			return nil, err
		}

		m.logger.Debug("Playlist changed concurrently, retrying", "playlistId", playlistID.Hex(), "attempt", attempt+1)
	}

	return nil, models.ErrPlaylistVersionChanged
}

// recomputeDuration resolves the playlist's songs and recomputes the stored
// total from the catalog. Every mutation of the song set goes through here
// so a stale stored total can never pass the duration check.
func (m *Manager) recomputeDuration(ctx context.Context, playlist *models.Playlist) error {
	catalog, err := m.songRepo.FindByIDs(ctx, playlist.SongIDs())
	if err != nil {
		return err
	}

	total := TotalDuration(playlist.Songs, durationIndex(catalog))
	if err := CheckDuration(total, m.maxDuration); err != nil {
		return err
	}

	playlist.TotalDuration = total
	return nil
}
