// Package models contains the data structures used throughout the application.
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// PlayEvent is an append-only record of a single song play by a user.
// The event log feeds the listening statistics; the per-song counters
// embedded in the user document feed the suggestion engine.
type PlayEvent struct {
	// ID is the unique identifier for the play event.
	ID bson.ObjectID `json:"id" bson:"_id,omitempty"`

	// UserID is the ID of the user who played the song.
	UserID bson.ObjectID `json:"userId" bson:"userId"`

	// SongID is the ID of the played song.
	SongID bson.ObjectID `json:"songId" bson:"songId"`

	// PlayedAt is when the play happened.
	PlayedAt time.Time `json:"playedAt" bson:"playedAt"`
}

// SongPlayCount pairs a song with how often a user played it.
type SongPlayCount struct {
	// Song is the played song.
	Song Song `json:"song"`

	// Count is how many times the song was played.
	Count int `json:"count"`

	// LastPlayedAt is when the song was last played.
	LastPlayedAt time.Time `json:"lastPlayedAt"`
}

// NamedPlayCount pairs a name (artist or genre) with a play count.
type NamedPlayCount struct {
	// Name is the artist or genre label.
	Name string `json:"name"`

	// Count is the accumulated play count.
	Count int `json:"count"`
}

// ListeningStats summarizes a user's listening activity.
type ListeningStats struct {
	// TotalPlays is the total number of recorded plays.
	TotalPlays int `json:"totalPlays"`

	// DistinctSongs is the number of distinct songs played.
	DistinctSongs int `json:"distinctSongs"`

	// Frequency lists per-song play counts, most played first.
	Frequency []SongPlayCount `json:"frequency"`

	// TopArtists lists the most played artists, most played first.
	TopArtists []NamedPlayCount `json:"topArtists"`

	// TopGenres lists the most played genres, most played first.
	TopGenres []NamedPlayCount `json:"topGenres"`

	// GeneratedAt is when the stats were computed.
	GeneratedAt time.Time `json:"generatedAt"`
}
