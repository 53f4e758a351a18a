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
	djProfileCollection = "dj_profiles"
)

// DjRepository defines the interface for dj profile data access operations.
type DjRepository interface {
	// Create creates a new dj profile.
	Create(ctx context.Context, profile *models.DjProfile) error

	// FindByUserID finds the profile of the given account.
	FindByUserID(ctx context.Context, userID bson.ObjectID) (*models.DjProfile, error)

	// FindAll lists dj profiles alphabetically by stage name.
	FindAll(ctx context.Context, skip, limit int) ([]*models.DjProfile, error)

	// Update updates an existing dj profile.
	Update(ctx context.Context, profile *models.DjProfile) error

	// DeleteByUserID removes the profile of the given account.
	DeleteByUserID(ctx context.Context, userID bson.ObjectID) error
}

// djRepository is the MongoDB implementation of DjRepository.
type djRepository struct {
	collection *mongo.Collection
	logger     *utils.Logger
}

// NewDjRepository creates a new instance of DjRepository.
func NewDjRepository(db *mongo.Database, logger *utils.Logger) DjRepository {
	return &djRepository{
		collection: db.Collection(djProfileCollection),
		logger:     logger.Named("dj_repository"),
	}
}

// Create creates a new dj profile.
func (r *djRepository) Create(ctx context.Context, profile *models.DjProfile) error {
	if profile.ID.IsZero() {
		profile.ID = bson.NewObjectID()
	}

	now := time.Now()
	profile.TimeCreate(now)

	if profile.Genres == nil {
		profile.Genres = []string{}
	}

	_, err := r.collection.InsertOne(ctx, profile)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return models.ErrDjProfileAlreadyExists
		}
		r.logger.Error("Failed to create dj profile", err, "userId", profile.UserID.Hex())
		return models.NewInternalError(err, "Failed to create dj profile")
	}

	return nil
}

// FindByUserID finds the profile of the given account.
func (r *djRepository) FindByUserID(ctx context.Context, userID bson.ObjectID) (*models.DjProfile, error) {
	var profile models.DjProfile

	err := r.collection.FindOne(ctx, bson.M{"userId": userID}).Decode(&profile)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, models.ErrDjProfileNotFound
		}
		r.logger.Error("Failed to find dj profile", err, "userId", userID.Hex())
		return nil, models.NewInternalError(err, "Failed to find dj profile")
	}

	return &profile, nil
}

// FindAll lists dj profiles alphabetically by stage name.
func (r *djRepository) FindAll(ctx context.Context, skip, limit int) ([]*models.DjProfile, error) {
	opts := options.Find().
		SetSkip(int64(skip)).
		SetLimit(int64(limit)).
		SetSort(bson.M{"stageName": 1})

	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		r.logger.Error("Failed to find dj profiles", err)
		return nil, models.NewInternalError(err, "Failed to find dj profiles")
	}
	defer cursor.Close(ctx)

	var profiles []*models.DjProfile
	if err = cursor.All(ctx, &profiles); err != nil {
		r.logger.Error("Failed to decode dj profiles", err)
		return nil, models.NewInternalError(err, "Failed to decode dj profiles")
	}

	return profiles, nil
}

// Update updates an existing dj profile.
func (r *djRepository) Update(ctx context.Context, profile *models.DjProfile) error {
	profile.UpdateNow()

	result, err := r.collection.ReplaceOne(ctx, bson.M{"_id": profile.ID}, profile)
	if err != nil {
		r.logger.Error("Failed to update dj profile", err, "id", profile.ID.Hex())
		return models.NewInternalError(err, "Failed to update dj profile")
	}

	if result.MatchedCount == 0 {
		return models.ErrDjProfileNotFound
	}

	return nil
}

// DeleteByUserID removes the profile of the given account.
func (r *djRepository) DeleteByUserID(ctx context.Context, userID bson.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"userId": userID})
	if err != nil {
		r.logger.Error("Failed to delete dj profile", err, "userId", userID.Hex())
		return models.NewInternalError(err, "Failed to delete dj profile")
	}

	if result.DeletedCount == 0 {
		return models.ErrDjProfileNotFound
	}

	return nil
}
