// Package models contains the data structures used throughout the application.
package models

import (
	"go.mongodb.org/mongo-driver/v2/bson"
)

// Song represents a track in the catalog.
type Song struct {
	// ID is the unique identifier for the song.
	ID bson.ObjectID `json:"id" bson:"_id,omitempty"`

	// Title is the title of the song.
	Title string `json:"title" bson:"title" validate:"required,max=200"`

	// Artist is the performing artist.
	Artist string `json:"artist" bson:"artist" validate:"required,max=200"`

	// Genre is the song's genre label.
	Genre string `json:"genre" bson:"genre" validate:"required,max=50"`

	// Year is the year of release.
	Year int `json:"year" bson:"year" validate:"min=1900,max=2100"`

	// Duration is the length of the song in seconds.
	Duration int `json:"duration" bson:"duration" validate:"min=1,max=7200"`

	// Restricted hides the song from suggestions and from served
	// playlists. Restricted songs stay referenced inside playlists.
	Restricted bool `json:"restricted" bson:"restricted"`

	// AudioURL is the streaming URL for the song.
	AudioURL string `json:"audioUrl" bson:"audioUrl" validate:"omitempty,url"`

	// CoverURL is the URL of the song's cover art.
	CoverURL string `json:"coverUrl,omitempty" bson:"coverUrl,omitempty" validate:"omitempty,url"`

	// AddedBy is the ID of the admin who added the song.
	AddedBy bson.ObjectID `json:"addedBy" bson:"addedBy"`

	// ObjectTimes contains timestamps for this song.
	ObjectTimes
}

// SongCreateRequest represents the data needed to add a song to the catalog.
type SongCreateRequest struct {
	// Title is the title of the song.
	Title string `json:"title" validate:"required,max=200"`

	// Artist is the performing artist.
	Artist string `json:"artist" validate:"required,max=200"`

	// Genre is the song's genre label.
	Genre string `json:"genre" validate:"required,max=50"`

	// Year is the year of release.
	Year int `json:"year" validate:"min=1900,max=2100"`

	// Duration is the length of the song in seconds.
	Duration int `json:"duration" validate:"min=1,max=7200"`

	// AudioURL is the streaming URL for the song.
	AudioURL string `json:"audioUrl" validate:"omitempty,url"`

	// CoverURL is the URL of the song's cover art.
	CoverURL string `json:"coverUrl,omitempty" validate:"omitempty,url"`
}

// SongUpdateRequest represents the data needed to update a catalog entry.
type SongUpdateRequest struct {
	// Title is the title of the song.
	Title string `json:"title" validate:"omitempty,max=200"`

	// Artist is the performing artist.
	Artist string `json:"artist" validate:"omitempty,max=200"`

	// Genre is the song's genre label.
	Genre string `json:"genre" validate:"omitempty,max=50"`

	// Year is the year of release.
	Year int `json:"year" validate:"omitempty,min=1900,max=2100"`

	// Duration is the length of the song in seconds.
	Duration int `json:"duration" validate:"omitempty,min=1,max=7200"`

	// AudioURL is the streaming URL for the song.
	AudioURL *string `json:"audioUrl,omitempty" validate:"omitempty,url"`

	// CoverURL is the URL of the song's cover art.
	CoverURL *string `json:"coverUrl,omitempty" validate:"omitempty,url"`
}

// SongRestrictRequest represents an administrative restriction toggle.
type SongRestrictRequest struct {
	// Restricted is the new restriction state for the song.
	Restricted bool `json:"restricted"`
}

// SongSearchCriteria represents the criteria for listing catalog songs.
type SongSearchCriteria struct {
	// Query filters by title or artist substring.
	Query string `json:"query"`

	// Genre filters by exact genre.
	Genre string `json:"genre"`

	// Year filters by release year.
	Year int `json:"year"`

	// IncludeRestricted includes restricted songs in the results.
	// Only administrative listings set this.
	IncludeRestricted bool `json:"includeRestricted"`

	// Page is the page number for pagination.
	Page int `json:"page"`

	// Limit is the number of results per page.
	Limit int `json:"limit"`
}
