// Package mongo provides MongoDB database connectivity and repositories.
package mongo

import (
	"context"
	"fmt"
	"sync"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"norelock.dev/mixtape/backend/internal/utils"
)

// Collection name constants for use throughout the application
const (
	UsersCollection       = "users"
	SongsCollection       = "songs"
	PlaylistsCollection   = "playlists"
	PlayHistoryCollection = "play_history"
	DjProfilesCollection  = "dj_profiles"
)

// IndexCreator defines a function type for index creation
type IndexCreator func(context.Context, *Client) error

// Index creators for different collections
var (
	indexCreators = map[string]IndexCreator{
		UsersCollection:       ensureUserIndexes,
		SongsCollection:       ensureSongIndexes,
		PlaylistsCollection:   ensurePlaylistIndexes,
		PlayHistoryCollection: ensureHistoryIndexes,
		DjProfilesCollection:  ensureDjProfileIndexes,
	}
)

// EnsureIndexes creates all necessary indexes for the application
func EnsureIndexes(ctx context.Context, client *Client) error {
	logger := client.Logger().With("operation", "EnsureIndexes")
	logger.Info("Starting index creation for all collections")

	// For sequential execution
	for collection, creator := range indexCreators {
		logger.Info("Creating indexes", "collection", collection)
		if err := creator(ctx, client); err != nil {
			logger.Error("Failed to create indexes", err, "collection", collection)
			return fmt.Errorf("failed to create indexes for %s: %w", collection, err)
		}
	}

	logger.Info("Successfully created all indexes")
	return nil
}

// EnsureIndexesParallel creates all necessary indexes for the application in parallel
func EnsureIndexesParallel(ctx context.Context, client *Client) error {
	logger := client.Logger().With("operation", "EnsureIndexesParallel")
	logger.Info("Starting parallel index creation for all collections")

	var wg sync.WaitGroup
	errChan := make(chan error, len(indexCreators))

	// Launch index creation in parallel
	for collection, creator := range indexCreators {
		wg.Add(1)
		go func(collName string, indexCreator IndexCreator) {
			defer wg.Done()
			logger.Info("Creating indexes", "collection", collName)
			if err := indexCreator(ctx, client); err != nil {
				logger.Error("Failed to create indexes", err, "collection", collName)
				errChan <- fmt.Errorf("failed to create indexes for %s: %w", collName, err)
			}
		}(collection, creator)
	}

	// Wait for all goroutines to finish
	wg.Wait()
	close(errChan)

	// Check for errors
	if len(errChan) > 0 {
		err := <-errChan
		return err
	}

	logger.Info("Successfully created all indexes in parallel")
	return nil
}

// createIndexes is a helper function to create multiple indexes for a collection
func createIndexes(ctx context.Context, collection *mongo.Collection, indexes []mongo.IndexModel, logger *utils.Logger, collectionName string) error {
	if len(indexes) == 0 {
		return nil
	}

	_, err := collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		logger.Error("Failed to create indexes", err, "collection", collectionName)
		return err
	}

	logger.Info("Successfully created indexes", "collection", collectionName, "count", len(indexes))
	return nil
}

// ensureUserIndexes creates indexes for the users collection
func ensureUserIndexes(ctx context.Context, client *Client) error {
	collection := client.Collection(UsersCollection)
	logger := client.Logger().With("operation", "ensureUserIndexes")

	indexes := []mongo.IndexModel{
		// Email index (unique)
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		// Username index (unique, case-insensitive)
		{
			Keys: bson.D{{Key: "username", Value: 1}},
			Options: options.Index().SetUnique(true).SetCollation(&options.Collation{
				Locale:    "en",
				Strength:  2, // Case-insensitive
				CaseLevel: false,
			}),
		},
		// LastLogin index (for filtering and sorting inactive users)
		{
			Keys:    bson.D{{Key: "lastLogin", Value: -1}},
			Options: options.Index(),
		},
		// CreatedAt index (for sorting and filtering)
		{
			Keys:    bson.D{{Key: "createdAt", Value: 1}},
			Options: options.Index(),
		},
		// Role index (for permission checks and admin listings)
		{
			Keys:    bson.D{{Key: "role", Value: 1}},
			Options: options.Index(),
		},
		// History song index (for targeted play counter updates)
		{
			Keys:    bson.D{{Key: "history.songId", Value: 1}},
			Options: options.Index(),
		},
	}

	return createIndexes(ctx, collection, indexes, logger, UsersCollection)
}

// ensureSongIndexes creates indexes for the songs collection
func ensureSongIndexes(ctx context.Context, client *Client) error {
	collection := client.Collection(SongsCollection)
	logger := client.Logger().With("operation", "ensureSongIndexes")

	indexes := []mongo.IndexModel{
		// Unique index on title and artist
		{
			Keys: bson.D{
				{Key: "title", Value: 1},
				{Key: "artist", Value: 1},
			},
			Options: options.Index().SetUnique(true),
		},
		// Text index for searching
		{
			Keys: bson.D{
				{Key: "title", Value: "text"},
				{Key: "artist", Value: "text"},
			},
			Options: options.Index().SetWeights(bson.D{
				{Key: "title", Value: 10},
				{Key: "artist", Value: 5},
			}),
		},
		// Genre index (for suggestion candidate lookups)
		{
			Keys:    bson.D{{Key: "genre", Value: 1}},
			Options: options.Index(),
		},
		// Year index (for suggestion candidate lookups)
		{
			Keys:    bson.D{{Key: "year", Value: 1}},
			Options: options.Index(),
		},
		// Restricted index (every public read filters on it)
		{
			Keys:    bson.D{{Key: "restricted", Value: 1}},
			Options: options.Index(),
		},
		// CreatedAt index
		{
			Keys:    bson.D{{Key: "createdAt", Value: 1}},
			Options: options.Index(),
		},
	}

	return createIndexes(ctx, collection, indexes, logger, SongsCollection)
}

// ensurePlaylistIndexes creates indexes for the playlists collection
func ensurePlaylistIndexes(ctx context.Context, client *Client) error {
	collection := client.Collection(PlaylistsCollection)
	logger := client.Logger().With("operation", "ensurePlaylistIndexes")

	indexes := []mongo.IndexModel{
		// Owner index
		{
			Keys:    bson.D{{Key: "owner", Value: 1}},
			Options: options.Index(),
		},
		// Clone guard index: a user may clone a source playlist once
		{
			Keys: bson.D{
				{Key: "owner", Value: 1},
				{Key: "clonedFrom", Value: 1},
			},
			Options: options.Index().SetUnique(true).SetPartialFilterExpression(bson.D{
				{Key: "clonedFrom", Value: bson.D{{Key: "$exists", Value: true}}},
			}),
		},
		// Discovery index: public playlists, newest first
		{
			Keys: bson.D{
				{Key: "isPublic", Value: 1},
				{Key: "createdAt", Value: -1},
			},
			Options: options.Index(),
		},
		// Text index for searching
		{
			Keys: bson.D{
				{Key: "name", Value: "text"},
				{Key: "description", Value: "text"},
			},
			Options: options.Index().SetWeights(bson.D{
				{Key: "name", Value: 10},
				{Key: "description", Value: 5},
			}),
		},
		// Classification index
		{
			Keys:    bson.D{{Key: "classification", Value: 1}},
			Options: options.Index(),
		},
		// UpdatedAt index
		{
			Keys:    bson.D{{Key: "updatedAt", Value: -1}},
			Options: options.Index(),
		},
	}

	return createIndexes(ctx, collection, indexes, logger, PlaylistsCollection)
}

// ensureHistoryIndexes creates indexes for the play history collection
func ensureHistoryIndexes(ctx context.Context, client *Client) error {
	collection := client.Collection(PlayHistoryCollection)
	logger := client.Logger().With("operation", "ensureHistoryIndexes")

	indexes := []mongo.IndexModel{
		// User index
		{
			Keys:    bson.D{{Key: "userId", Value: 1}},
			Options: options.Index(),
		},
		// Song index
		{
			Keys:    bson.D{{Key: "songId", Value: 1}},
			Options: options.Index(),
		},
		// User + PlayedAt index (per-user stats load recent events)
		{
			Keys: bson.D{
				{Key: "userId", Value: 1},
				{Key: "playedAt", Value: -1},
			},
			Options: options.Index(),
		},
		// TTL index
		{
			Keys:    bson.D{{Key: "playedAt", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(3600 * 24 * 180), // 180 days
		},
	}

	return createIndexes(ctx, collection, indexes, logger, PlayHistoryCollection)
}

// ensureDjProfileIndexes creates indexes for the dj profiles collection
func ensureDjProfileIndexes(ctx context.Context, client *Client) error {
	collection := client.Collection(DjProfilesCollection)
	logger := client.Logger().With("operation", "ensureDjProfileIndexes")

	indexes := []mongo.IndexModel{
		// One profile per account
		{
			Keys:    bson.D{{Key: "userId", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		// StageName index (for listings)
		{
			Keys:    bson.D{{Key: "stageName", Value: 1}},
			Options: options.Index(),
		},
		// Genres index
		{
			Keys:    bson.D{{Key: "genres", Value: 1}},
			Options: options.Index(),
		},
	}

	return createIndexes(ctx, collection, indexes, logger, DjProfilesCollection)
}
