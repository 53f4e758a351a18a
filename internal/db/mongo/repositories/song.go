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
	songCollection = "songs"
)

// SongRepository defines the interface for song catalog data access operations.
type SongRepository interface {
	// Catalog operations
	Create(ctx context.Context, song *models.Song) error
	FindByID(ctx context.Context, id bson.ObjectID) (*models.Song, error)
	FindByIDs(ctx context.Context, ids []bson.ObjectID) ([]*models.Song, error)
	FindMany(ctx context.Context, filter bson.M, opts options.Lister[options.FindOptions]) ([]*models.Song, error)
	Update(ctx context.Context, song *models.Song) error
	Delete(ctx context.Context, id bson.ObjectID) error

	// Search operations
	Search(ctx context.Context, criteria models.SongSearchCriteria) ([]*models.Song, int64, error)
	FindRecent(ctx context.Context, limit int) ([]*models.Song, error)
	FindCandidates(ctx context.Context, genres, artists []string, years []int) ([]*models.Song, error)
	SampleUnrestricted(ctx context.Context, exclude []bson.ObjectID, size int) ([]*models.Song, error)

	// Restriction operations
	SetRestricted(ctx context.Context, id bson.ObjectID, restricted bool) error
}

// songRepository is the MongoDB implementation of SongRepository.
type songRepository struct {
	collection *mongo.Collection
	logger     *utils.Logger
}

// NewSongRepository creates a new instance of SongRepository.
func NewSongRepository(db *mongo.Database, logger *utils.Logger) SongRepository {
	return &songRepository{
		collection: db.Collection(songCollection),
		logger:     logger.Named("song_repository"),
	}
}

// Create adds a new song to the catalog.
func (r *songRepository) Create(ctx context.Context, song *models.Song) error {
	if song.ID.IsZero() {
		song.ID = bson.NewObjectID()
	}

	now := time.Now()
	song.TimeCreate(now)

	_, err := r.collection.InsertOne(ctx, song)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return models.ErrSongAlreadyExists
		}
		r.logger.Error("Failed to create song", err, "title", song.Title, "artist", song.Artist)
		return models.NewInternalError(err, "Failed to create song")
	}

	return nil
}

// FindByID finds a song by its ID.
func (r *songRepository) FindByID(ctx context.Context, id bson.ObjectID) (*models.Song, error) {
	var song models.Song

	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&song)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, models.ErrSongNotFound
		}
		r.logger.Error("Failed to find song by ID", err, "id", id.Hex())
		return nil, models.NewInternalError(err, "Failed to find song")
	}

	return &song, nil
}

// FindByIDs finds all songs matching the given IDs. Songs that no longer
// exist are simply absent from the result.
func (r *songRepository) FindByIDs(ctx context.Context, ids []bson.ObjectID) ([]*models.Song, error) {
	if len(ids) == 0 {
		return []*models.Song{}, nil
	}

	return r.FindMany(ctx, bson.M{"_id": bson.M{"$in": ids}}, nil)
}

// FindMany finds multiple songs based on query filters.
func (r *songRepository) FindMany(ctx context.Context, filter bson.M, opts options.Lister[options.FindOptions]) ([]*models.Song, error) {
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		r.logger.Error("Failed to find songs", err, "filter", filter)
		return nil, models.NewInternalError(err, "Failed to find songs")
	}
	defer cursor.Close(ctx)

	var songs []*models.Song
	if err = cursor.All(ctx, &songs); err != nil {
		r.logger.Error("Failed to decode songs", err)
		return nil, models.NewInternalError(err, "Failed to decode songs")
	}

	return songs, nil
}

// Update updates an existing catalog entry.
func (r *songRepository) Update(ctx context.Context, song *models.Song) error {
	song.UpdateNow()

	result, err := r.collection.ReplaceOne(ctx, bson.M{"_id": song.ID}, song)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return models.ErrSongAlreadyExists
		}
		r.logger.Error("Failed to update song", err, "id", song.ID.Hex())
		return models.NewInternalError(err, "Failed to update song")
	}

	if result.MatchedCount == 0 {
		return models.ErrSongNotFound
	}

	return nil
}

// Delete deletes a song by its ID.
func (r *songRepository) Delete(ctx context.Context, id bson.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		r.logger.Error("Failed to delete song", err, "id", id.Hex())
		return models.NewInternalError(err, "Failed to delete song")
	}

	if result.DeletedCount == 0 {
		return models.ErrSongNotFound
	}

	return nil
}

// Search searches the catalog based on criteria.
func (r *songRepository) Search(ctx context.Context, criteria models.SongSearchCriteria) ([]*models.Song, int64, error) {
	filter := bson.M{}

	if !criteria.IncludeRestricted {
		filter["restricted"] = false
	}

	if criteria.Genre != "" {
		filter["genre"] = criteria.Genre
	}

	if criteria.Year != 0 {
		filter["year"] = criteria.Year
	}

	if criteria.Query != "" {
		filter["$text"] = bson.M{"$search": criteria.Query}
	}

	// Count total matches
	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		r.logger.Error("Failed to count songs", err, "filter", filter)
		return nil, 0, models.NewInternalError(err, "Failed to count songs")
	}

	// Set up pagination
	if criteria.Page < 1 {
		criteria.Page = 1
	}
	if criteria.Limit < 1 || criteria.Limit > 100 {
		criteria.Limit = 20
	}

	skip := (criteria.Page - 1) * criteria.Limit

	opts := options.Find().
		SetSkip(int64(skip)).
		SetLimit(int64(criteria.Limit))

	// Text search sorts by relevance, otherwise alphabetically
	if criteria.Query != "" {
		opts.SetSort(bson.M{"score": bson.M{"$meta": "textScore"}})
		opts.SetProjection(bson.M{"score": bson.M{"$meta": "textScore"}})
	} else {
		opts.SetSort(bson.D{{Key: "title", Value: 1}, {Key: "artist", Value: 1}})
	}

	songs, err := r.FindMany(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}

	return songs, total, nil
}

// FindRecent finds recently added unrestricted songs.
func (r *songRepository) FindRecent(ctx context.Context, limit int) ([]*models.Song, error) {
	opts := options.Find().
		SetLimit(int64(limit)).
		SetSort(bson.M{"createdAt": -1})

	return r.FindMany(ctx, bson.M{"restricted": false}, opts)
}

// FindCandidates finds unrestricted songs matching any of the given genres,
// artists, or release years. An empty slice skips that dimension entirely.
func (r *songRepository) FindCandidates(ctx context.Context, genres, artists []string, years []int) ([]*models.Song, error) {
	or := bson.A{}
	if len(genres) > 0 {
		or = append(or, bson.M{"genre": bson.M{"$in": genres}})
	}
	if len(artists) > 0 {
		or = append(or, bson.M{"artist": bson.M{"$in": artists}})
	}
	if len(years) > 0 {
		or = append(or, bson.M{"year": bson.M{"$in": years}})
	}

	if len(or) == 0 {
		return []*models.Song{}, nil
	}

	filter := bson.M{
		"restricted": false,
		"$or":        or,
	}

	return r.FindMany(ctx, filter, nil)
}

// SampleUnrestricted draws a uniform random sample of unrestricted songs,
// without replacement, from the whole catalog, skipping the given ids.
func (r *songRepository) SampleUnrestricted(ctx context.Context, exclude []bson.ObjectID, size int) ([]*models.Song, error) {
	if size <= 0 {
		return []*models.Song{}, nil
	}

	match := bson.M{"restricted": false}
	if len(exclude) > 0 {
		match["_id"] = bson.M{"$nin": exclude}
	}

	pipeline := mongo.Pipeline{
		bson.D{{Key: "$match", Value: match}},
		bson.D{{Key: "$sample", Value: bson.M{"size": size}}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		r.logger.Error("Failed to sample songs", err, "size", size)
		return nil, models.NewInternalError(err, "Failed to sample songs")
	}
	defer cursor.Close(ctx)

	var songs []*models.Song
	if err := cursor.All(ctx, &songs); err != nil {
		r.logger.Error("Failed to decode sampled songs", err)
		return nil, models.NewInternalError(err, "Failed to decode sampled songs")
	}

	return songs, nil
}

// SetRestricted sets the restriction flag on a song.
func (r *songRepository) SetRestricted(ctx context.Context, id bson.ObjectID, restricted bool) error {
	update := bson.D{
		cmdSet(bson.M{
			"restricted": restricted,
			"updatedAt":  time.Now(),
		}),
	}

	result, err := r.collection.UpdateByID(ctx, id, update)
	if err != nil {
		r.logger.Error("Failed to set restriction", err, "id", id.Hex(), "restricted", restricted)
		return models.NewInternalError(err, "Failed to set restriction")
	}

	if result.MatchedCount == 0 {
		return models.ErrSongNotFound
	}

	return nil
}
