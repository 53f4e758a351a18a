// Package repositories contains MongoDB repository implementations.
package repositories

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"norelock.dev/mixtape/backend/internal/models"
	"norelock.dev/mixtape/backend/internal/utils"
)

// Collection name
const (
	userCollection = "users"
)

// UserRepository defines the interface for user data access operations.
type UserRepository interface {
	// Create creates a new user.
	Create(ctx context.Context, user *models.User) error

	// FindByID finds a user by their ID.
	FindByID(ctx context.Context, id bson.ObjectID) (*models.User, error)

	// FindByEmail finds a user by their email address.
	FindByEmail(ctx context.Context, email string) (*models.User, error)

	// FindByUsername finds a user by their username.
	FindByUsername(ctx context.Context, username string) (*models.User, error)

	// FindMany finds multiple users based on query filters.
	FindMany(ctx context.Context, filter bson.M, options options.Lister[options.FindOptions]) ([]*models.User, error)

	// Update updates an existing user.
	Update(ctx context.Context, user *models.User) error

	// UpdateLastLogin updates a user's last login time.
	UpdateLastLogin(ctx context.Context, id bson.ObjectID) error

	// UpdatePreferences replaces a user's listening preferences.
	UpdatePreferences(ctx context.Context, id bson.ObjectID, prefs models.UserPreferences) error

	// UpdatePassword replaces a user's hashed password.
	UpdatePassword(ctx context.Context, id bson.ObjectID, hashedPassword string) error

	// RecordPlay increments the embedded history counter for a song,
	// creating the entry on first play.
	RecordPlay(ctx context.Context, userID, songID bson.ObjectID, playedAt time.Time) error

	// SetRole sets a user's role.
	SetRole(ctx context.Context, userID bson.ObjectID, role models.Role) error

	// SetActive sets a user's active status.
	SetActive(ctx context.Context, userID bson.ObjectID, active bool) error

	// Delete deletes a user by their ID.
	Delete(ctx context.Context, id bson.ObjectID) error

	// CountUsers counts the number of users that match the given filter.
	CountUsers(ctx context.Context, filter bson.M) (int64, error)
}

// userRepository is the MongoDB implementation of UserRepository.
type userRepository struct {
	collection *mongo.Collection
	logger     *utils.Logger
}

// NewUserRepository creates a new instance of UserRepository.
func NewUserRepository(db *mongo.Database, logger *utils.Logger) UserRepository {
	return &userRepository{
		collection: db.Collection(userCollection),
		logger:     logger.Named("user_repository"),
	}
}

// Create creates a new user.
func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	if user.ID.IsZero() {
		user.ID = bson.NewObjectID()
	}

	now := time.Now()
	user.TimeCreate(now)

	if user.History == nil {
		user.History = []models.HistoryEntry{}
	}

	_, err := r.collection.InsertOne(ctx, user)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			// Check which field is duplicated
			if strings.Contains(err.Error(), "email") {
				return models.ErrEmailAlreadyExists
			}
			if strings.Contains(err.Error(), "username") {
				return models.ErrUsernameAlreadyExists
			}
			return models.ErrUserAlreadyExists
		}
		r.logger.Error("Failed to create user", err, "email", user.Email, "username", user.Username)
		return models.NewInternalError(err, "Failed to create user")
	}

	return nil
}

// FindByID finds a user by their ID.
func (r *userRepository) FindByID(ctx context.Context, id bson.ObjectID) (*models.User, error) {
	var user models.User

	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, models.ErrUserNotFound
		}
		r.logger.Error("Failed to find user by ID", err, "id", id.Hex())
		return nil, models.NewInternalError(err, "Failed to find user")
	}

	return &user, nil
}

// FindByEmail finds a user by their email address.
func (r *userRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User

	err := r.collection.FindOne(ctx, bson.M{"email": email}).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, models.ErrUserNotFound
		}
		r.logger.Error("Failed to find user by email", err, "email", email)
		return nil, models.NewInternalError(err, "Failed to find user")
	}

	return &user, nil
}

// FindByUsername finds a user by their username.
func (r *userRepository) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User

	// Case-insensitive search
	opts := options.FindOne().SetCollation(&options.Collation{
		Locale:    "en",
		Strength:  2, // Case-insensitive
		CaseLevel: false,
	})

	err := r.collection.FindOne(ctx, bson.M{"username": username}, opts).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, models.ErrUserNotFound
		}
		r.logger.Error("Failed to find user by username", err, "username", username)
		return nil, models.NewInternalError(err, "Failed to find user")
	}

	return &user, nil
}

// FindMany finds multiple users based on query filters.
func (r *userRepository) FindMany(ctx context.Context, filter bson.M, options options.Lister[options.FindOptions]) ([]*models.User, error) {
	cursor, err := r.collection.Find(ctx, filter, options)
	if err != nil {
		r.logger.Error("Failed to find users", err, "filter", filter)
		return nil, models.NewInternalError(err, "Failed to find users")
	}
	defer cursor.Close(ctx)

	var users []*models.User
	if err = cursor.All(ctx, &users); err != nil {
		r.logger.Error("Failed to decode users", err)
		return nil, models.NewInternalError(err, "Failed to decode users")
	}

	return users, nil
}

// Update updates an existing user.
func (r *userRepository) Update(ctx context.Context, user *models.User) error {
	user.UpdateNow()

	result, err := r.collection.ReplaceOne(ctx, bson.M{"_id": user.ID}, user)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			// Check which field is duplicated
			if strings.Contains(err.Error(), "email") {
				return models.ErrEmailAlreadyExists
			}
			if strings.Contains(err.Error(), "username") {
				return models.ErrUsernameAlreadyExists
			}
			return models.ErrUserAlreadyExists
		}
		r.logger.Error("Failed to update user", err, "id", user.ID.Hex())
		return models.NewInternalError(err, "Failed to update user")
	}

	if result.MatchedCount == 0 {
		return models.ErrUserNotFound
	}

	return nil
}

// UpdateLastLogin updates a user's last login time.
func (r *userRepository) UpdateLastLogin(ctx context.Context, id bson.ObjectID) error {
	now := time.Now()
	update := bson.D{
		cmdSet(bson.M{
			"lastLogin": now,
			"updatedAt": now,
		}),
	}

	result, err := r.collection.UpdateByID(ctx, id, update)
	if err != nil {
		r.logger.Error("Failed to update last login", err, "id", id.Hex())
		return models.NewInternalError(err, "Failed to update last login")
	}

	if result.MatchedCount == 0 {
		return models.ErrUserNotFound
	}

	return nil
}

// UpdatePreferences replaces a user's listening preferences.
func (r *userRepository) UpdatePreferences(ctx context.Context, id bson.ObjectID, prefs models.UserPreferences) error {
	update := bson.D{
		cmdSet(bson.M{
			"preferences": prefs,
			"updatedAt":   time.Now(),
		}),
	}

	result, err := r.collection.UpdateByID(ctx, id, update)
	if err != nil {
		r.logger.Error("Failed to update preferences", err, "id", id.Hex())
		return models.NewInternalError(err, "Failed to update preferences")
	}

	if result.MatchedCount == 0 {
		return models.ErrUserNotFound
	}

	return nil
}

// UpdatePassword replaces a user's hashed password.
func (r *userRepository) UpdatePassword(ctx context.Context, id bson.ObjectID, hashedPassword string) error {
	update := bson.D{
		cmdSet(bson.M{
			"password":  hashedPassword,
			"updatedAt": time.Now(),
		}),
	}

	result, err := r.collection.UpdateByID(ctx, id, update)
	if err != nil {
		r.logger.Error("Failed to update password", err, "id", id.Hex())
		return models.NewInternalError(err, "Failed to update password")
	}

	if result.MatchedCount == 0 {
		return models.ErrUserNotFound
	}

	return nil
}

// RecordPlay increments the embedded history counter for a song. The
// increment targets the matching array entry with an array filter so two
// concurrent plays never lose a count. When no entry exists yet the
// increment matches nothing and a second update pushes the initial entry.
func (r *userRepository) RecordPlay(ctx context.Context, userID, songID bson.ObjectID, playedAt time.Time) error {
	incUpdate := bson.D{
		cmdInc(bson.M{"history.$[entry].count": 1}),
		cmdSet(bson.M{
			"history.$[entry].lastPlayedAt": playedAt,
			"updatedAt":                     playedAt,
		}),
	}

	incOpts := options.UpdateOne().SetArrayFilters([]any{
		bson.M{"entry.songId": songID},
	})

	result, err := r.collection.UpdateByID(ctx, userID, incUpdate, incOpts)
	if err != nil {
		r.logger.Error("Failed to increment play count", err, "userId", userID.Hex(), "songId", songID.Hex())
		return models.NewInternalError(err, "Failed to record play")
	}
	if result.MatchedCount == 0 {
		return models.ErrUserNotFound
	}
	if result.ModifiedCount > 0 {
		return nil
	}

	// First play of this song, push a fresh entry. The $ne guard keeps a
	// concurrent first play from inserting a duplicate entry.
	pushFilter := bson.M{
		"_id": userID,
		"history.songId": bson.M{
			"$ne": songID,
		},
	}

	pushUpdate := bson.D{
		{Key: "$push", Value: bson.M{"history": models.HistoryEntry{
			SongID:       songID,
			Count:        1,
			LastPlayedAt: playedAt,
		}}},
		cmdSet(bson.M{"updatedAt": playedAt}),
	}

	pushResult, err := r.collection.UpdateOne(ctx, pushFilter, pushUpdate)
	if err != nil {
		r.logger.Error("Failed to add history entry", err, "userId", userID.Hex(), "songId", songID.Hex())
		return models.NewInternalError(err, "Failed to record play")
	}

	if pushResult.MatchedCount == 0 {
		// Another request inserted the entry between our two updates.
		// Retry the increment once against the now-present entry.
		retryResult, retryErr := r.collection.UpdateByID(ctx, userID, incUpdate, incOpts)
		if retryErr != nil {
			r.logger.Error("Failed to increment play count on retry", retryErr, "userId", userID.Hex(), "songId", songID.Hex())
			return models.NewInternalError(retryErr, "Failed to record play")
		}
		if retryResult.MatchedCount == 0 {
			return models.ErrUserNotFound
		}
	}

	return nil
}

// SetRole sets a user's role.
func (r *userRepository) SetRole(ctx context.Context, userID bson.ObjectID, role models.Role) error {
	update := bson.D{
		cmdSet(bson.M{
			"role":      role,
			"updatedAt": time.Now(),
		}),
	}

	result, err := r.collection.UpdateByID(ctx, userID, update)
	if err != nil {
		r.logger.Error("Failed to set role", err, "userID", userID.Hex(), "role", role.String())
		return models.NewInternalError(err, "Failed to set role")
	}

	if result.MatchedCount == 0 {
		return models.ErrUserNotFound
	}

	return nil
}

// SetActive sets a user's active status.
func (r *userRepository) SetActive(ctx context.Context, userID bson.ObjectID, active bool) error {
	update := bson.D{
		cmdSet(bson.M{
			"isActive":  active,
			"updatedAt": time.Now(),
		}),
	}

	result, err := r.collection.UpdateByID(ctx, userID, update)
	if err != nil {
		r.logger.Error("Failed to set active status", err, "userID", userID.Hex(), "active", active)
		return models.NewInternalError(err, "Failed to set active status")
	}

	if result.MatchedCount == 0 {
		return models.ErrUserNotFound
	}

	return nil
}

// Delete deletes a user by their ID.
func (r *userRepository) Delete(ctx context.Context, id bson.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		r.logger.Error("Failed to delete user", err, "id", id.Hex())
		return models.NewInternalError(err, "Failed to delete user")
	}

	if result.DeletedCount == 0 {
		return models.ErrUserNotFound
	}

	return nil
}

// CountUsers counts the number of users that match the given filter.
func (r *userRepository) CountUsers(ctx context.Context, filter bson.M) (int64, error) {
	count, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		r.logger.Error("Failed to count users", err, "filter", filter)
		return 0, models.NewInternalError(err, "Failed to count users")
	}

	return count, nil
}
