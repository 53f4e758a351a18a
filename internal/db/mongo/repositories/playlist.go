// Package repositories contains MongoDB repository implementations.
package repositories

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"norelock.dev/mixtape/backend/internal/models"
	"norelock.dev/mixtape/backend/internal/utils"
)

// Collection name
const (
	playlistCollection = "playlists"
)

// PlaylistRepository defines the interface for playlist data access operations.
type PlaylistRepository interface {
	// Playlist operations
	Create(ctx context.Context, playlist *models.Playlist) error
	FindByID(ctx context.Context, id bson.ObjectID) (*models.Playlist, error)
	FindMany(ctx context.Context, filter bson.M, opts options.Lister[options.FindOptions]) ([]*models.Playlist, error)
	ReplaceVersioned(ctx context.Context, playlist *models.Playlist) error
	Delete(ctx context.Context, id bson.ObjectID) error

	// User playlist operations
	FindUserPlaylists(ctx context.Context, ownerID bson.ObjectID) ([]*models.Playlist, error)
	CountUserPlaylists(ctx context.Context, ownerID bson.ObjectID) (int64, error)
	FindCloneBySource(ctx context.Context, ownerID, sourceID bson.ObjectID) (*models.Playlist, error)

	// Playlist search and discovery
	SearchPlaylists(ctx context.Context, criteria models.PlaylistSearchCriteria) ([]*models.Playlist, int64, error)
	FindPublicPlaylists(ctx context.Context, skip, limit int) ([]*models.Playlist, error)
}

// playlistRepository is the MongoDB implementation of PlaylistRepository.
type playlistRepository struct {
	collection *mongo.Collection
	logger     *utils.Logger
}

// NewPlaylistRepository creates a new instance of PlaylistRepository.
func NewPlaylistRepository(db *mongo.Database, logger *utils.Logger) PlaylistRepository {
	return &playlistRepository{
		collection: db.Collection(playlistCollection),
		logger:     logger.Named("playlist_repository"),
	}
}

// Create creates a new playlist.
func (r *playlistRepository) Create(ctx context.Context, playlist *models.Playlist) error {
	if playlist.ID.IsZero() {
		playlist.ID = bson.NewObjectID()
	}

	now := time.Now()
	playlist.TimeCreate(now)

	if playlist.Songs == nil {
		playlist.Songs = []models.PlaylistSong{}
	}
	if playlist.Version == 0 {
		playlist.Version = 1
	}

	_, err := r.collection.InsertOne(ctx, playlist)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			// The unique {owner, clonedFrom} index guards against double clones.
			return models.ErrPlaylistAlreadyCloned
		}
		r.logger.Error("Failed to create playlist", err, "ownerId", playlist.Owner.Hex(), "name", playlist.Name)
		return models.NewInternalError(err, "Failed to create playlist")
	}

	return nil
}

// FindByID finds a playlist by its ID.
func (r *playlistRepository) FindByID(ctx context.Context, id bson.ObjectID) (*models.Playlist, error) {
	var playlist models.Playlist

	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&playlist)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, models.ErrPlaylistNotFound
		}
		r.logger.Error("Failed to find playlist by ID", err, "id", id.Hex())
		return nil, models.NewInternalError(err, "Failed to find playlist")
	}

	return &playlist, nil
}

// FindMany finds multiple playlists based on query filters.
func (r *playlistRepository) FindMany(ctx context.Context, filter bson.M, opts options.Lister[options.FindOptions]) ([]*models.Playlist, error) {
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		r.logger.Error("Failed to find playlists", err, "filter", filter)
		return nil, models.NewInternalError(err, "Failed to find playlists")
	}
	defer cursor.Close(ctx)

	var playlists []*models.Playlist
	if err = cursor.All(ctx, &playlists); err != nil {
		r.logger.Error("Failed to decode playlists", err)
		return nil, models.NewInternalError(err, "Failed to decode playlists")
	}

	return playlists, nil
}

// ReplaceVersioned replaces a playlist document only if the stored version
// still matches the version the playlist was loaded with. On success the
// version is advanced by one. Callers that receive ErrPlaylistVersionChanged
// should reload the playlist and retry their mutation.
func (r *playlistRepository) ReplaceVersioned(ctx context.Context, playlist *models.Playlist) error {
	loadedVersion := playlist.Version
	playlist.Version = loadedVersion + 1
	playlist.UpdateNow()

	result, err := r.collection.ReplaceOne(ctx, bson.M{
		"_id":     playlist.ID,
		"version": loadedVersion,
	}, playlist)
	if err != nil {
		playlist.Version = loadedVersion
		r.logger.Error("Failed to replace playlist", err, "id", playlist.ID.Hex())
		return models.NewInternalError(err, "Failed to update playlist")
	}

	if result.MatchedCount == 0 {
		playlist.Version = loadedVersion
		// Distinguish a missing document from a concurrent update.
		count, countErr := r.collection.CountDocuments(ctx, bson.M{"_id": playlist.ID})
		if countErr == nil && count == 0 {
			return models.ErrPlaylistNotFound
		}
		return models.ErrPlaylistVersionChanged
	}

	return nil
}

// Delete deletes a playlist by its ID.
func (r *playlistRepository) Delete(ctx context.Context, id bson.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		r.logger.Error("Failed to delete playlist", err, "id", id.Hex())
		return models.NewInternalError(err, "Failed to delete playlist")
	}

	if result.DeletedCount == 0 {
		return models.ErrPlaylistNotFound
	}

	return nil
}

// FindUserPlaylists finds all playlists owned by a specific user.
func (r *playlistRepository) FindUserPlaylists(ctx context.Context, ownerID bson.ObjectID) ([]*models.Playlist, error) {
	opts := options.Find().SetSort(bson.M{"updatedAt": -1})

	return r.FindMany(ctx, bson.M{"owner": ownerID}, opts)
}

// CountUserPlaylists counts the number of playlists owned by a user.
func (r *playlistRepository) CountUserPlaylists(ctx context.Context, ownerID bson.ObjectID) (int64, error) {
	count, err := r.collection.CountDocuments(ctx, bson.M{"owner": ownerID})
	if err != nil {
		r.logger.Error("Failed to count user playlists", err, "ownerId", ownerID.Hex())
		return 0, models.NewInternalError(err, "Failed to count playlists")
	}

	return count, nil
}

// FindCloneBySource finds the clone a user already made of a source playlist,
// if any. Returns ErrPlaylistNotFound when the user has no clone of the source.
func (r *playlistRepository) FindCloneBySource(ctx context.Context, ownerID, sourceID bson.ObjectID) (*models.Playlist, error) {
	var playlist models.Playlist

	err := r.collection.FindOne(ctx, bson.M{
		"owner":      ownerID,
		"clonedFrom": sourceID,
	}).Decode(&playlist)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, models.ErrPlaylistNotFound
		}
		r.logger.Error("Failed to find playlist clone", err, "ownerId", ownerID.Hex(), "sourceId", sourceID.Hex())
		return nil, models.NewInternalError(err, "Failed to find playlist clone")
	}

	return &playlist, nil
}

// SearchPlaylists searches for playlists based on criteria.
func (r *playlistRepository) SearchPlaylists(ctx context.Context, criteria models.PlaylistSearchCriteria) ([]*models.Playlist, int64, error) {
	filter := bson.M{}

	// Apply visibility filter
	if criteria.PublicOnly {
		filter["isPublic"] = true
	}

	// Apply owner filter if specified
	if !criteria.OwnerID.IsZero() {
		filter["owner"] = criteria.OwnerID
	}

	// Apply classification filter
	if criteria.Classification != "" {
		filter["classification"] = criteria.Classification
	}

	// Apply text search
	if criteria.Query != "" {
		filter["$text"] = bson.M{"$search": criteria.Query}
	}

	// Count total matches
	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		r.logger.Error("Failed to count playlists", err, "filter", filter)
		return nil, 0, models.NewInternalError(err, "Failed to count playlists")
	}

	// Set up pagination
	if criteria.Page < 1 {
		criteria.Page = 1
	}
	if criteria.Limit < 1 || criteria.Limit > 100 {
		criteria.Limit = 20
	}

	skip := (criteria.Page - 1) * criteria.Limit

	// Set up sort
	sort := bson.M{}
	if criteria.Query != "" {
		// If text search, sort by text score first
		sort["score"] = bson.M{"$meta": "textScore"}
	} else {
		sort["updatedAt"] = -1
	}

	opts := options.Find().
		SetSkip(int64(skip)).
		SetLimit(int64(criteria.Limit)).
		SetSort(sort)

	if criteria.Query != "" {
		opts.SetProjection(bson.M{"score": bson.M{"$meta": "textScore"}})
	}

	playlists, err := r.FindMany(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}

	return playlists, total, nil
}

// FindPublicPlaylists finds public playlists, newest first.
func (r *playlistRepository) FindPublicPlaylists(ctx context.Context, skip, limit int) ([]*models.Playlist, error) {
	filter := bson.M{
		"isPublic": true,
	}

	opts := options.Find().
		SetSkip(int64(skip)).
		SetLimit(int64(limit)).
		SetSort(bson.M{"createdAt": -1})

	return r.FindMany(ctx, filter, opts)
}
