// Package repositories contains MongoDB repository implementations.
package repositories

import (
	"context"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"norelock.dev/mixtape/backend/internal/models"
	"norelock.dev/mixtape/backend/internal/utils"
)

// Collection name
const (
	playHistoryCollection = "play_history"
)

// HistoryRepository defines the interface for play event data access operations.
type HistoryRepository interface {
	// CreatePlayEvent appends a play event to the log.
	CreatePlayEvent(ctx context.Context, event *models.PlayEvent) error

	// FindPlayEventsByUser finds a user's play events, newest first.
	FindPlayEventsByUser(ctx context.Context, userID bson.ObjectID, skip, limit int) ([]*models.PlayEvent, error)

	// CountPlayEventsByUser counts a user's recorded play events.
	CountPlayEventsByUser(ctx context.Context, userID bson.ObjectID) (int64, error)

	// DeletePlayEventsByUser removes all play events for a user.
	DeletePlayEventsByUser(ctx context.Context, userID bson.ObjectID) (int64, error)
}

// historyRepository is the MongoDB implementation of HistoryRepository.
type historyRepository struct {
	collection *mongo.Collection
	logger     *utils.Logger
}

// NewHistoryRepository creates a new instance of HistoryRepository.
func NewHistoryRepository(db *mongo.Database, logger *utils.Logger) HistoryRepository {
	return &historyRepository{
		collection: db.Collection(playHistoryCollection),
		logger:     logger.Named("history_repository"),
	}
}

// CreatePlayEvent appends a play event to the log.
func (r *historyRepository) CreatePlayEvent(ctx context.Context, event *models.PlayEvent) error {
	if event.ID.IsZero() {
		event.ID = bson.NewObjectID()
	}

	_, err := r.collection.InsertOne(ctx, event)
	if err != nil {
		r.logger.Error("Failed to record play event", err, "userId", event.UserID.Hex(), "songId", event.SongID.Hex())
		return models.NewInternalError(err, "Failed to record play event")
	}

	return nil
}

// FindPlayEventsByUser finds a user's play events, newest first.
func (r *historyRepository) FindPlayEventsByUser(ctx context.Context, userID bson.ObjectID, skip, limit int) ([]*models.PlayEvent, error) {
	opts := options.Find().
		SetSkip(int64(skip)).
		SetLimit(int64(limit)).
		SetSort(bson.M{"playedAt": -1})

	cursor, err := r.collection.Find(ctx, bson.M{"userId": userID}, opts)
	if err != nil {
		r.logger.Error("Failed to find play events", err, "userId", userID.Hex())
		return nil, models.NewInternalError(err, "Failed to find play events")
	}
	defer cursor.Close(ctx)

	var events []*models.PlayEvent
	if err = cursor.All(ctx, &events); err != nil {
		r.logger.Error("Failed to decode play events", err)
		return nil, models.NewInternalError(err, "Failed to decode play events")
	}

	return events, nil
}

// CountPlayEventsByUser counts a user's recorded play events.
func (r *historyRepository) CountPlayEventsByUser(ctx context.Context, userID bson.ObjectID) (int64, error) {
	count, err := r.collection.CountDocuments(ctx, bson.M{"userId": userID})
	if err != nil {
		r.logger.Error("Failed to count play events", err, "userId", userID.Hex())
		return 0, models.NewInternalError(err, "Failed to count play events")
	}

	return count, nil
}

// DeletePlayEventsByUser removes all play events for a user.
func (r *historyRepository) DeletePlayEventsByUser(ctx context.Context, userID bson.ObjectID) (int64, error) {
	result, err := r.collection.DeleteMany(ctx, bson.M{"userId": userID})
	if err != nil {
		r.logger.Error("Failed to delete play events", err, "userId", userID.Hex())
		return 0, models.NewInternalError(err, "Failed to delete play events")
	}

	return result.DeletedCount, nil
}
