// Package models contains the data structures used throughout the application.
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Playlist duration bounds in seconds. The total duration of a playlist
// must stay within these bounds after every mutation.
const (
	MinPlaylistDuration = 0
	MaxPlaylistDuration = 10800 // 3 hours
)

// Classification tags a playlist with the kind of event it was put
// together for. It is informational and never enforced against content.
type Classification string

// Known playlist classifications.
const (
	ClassificationGeneral   Classification = "general"
	ClassificationWedding   Classification = "wedding"
	ClassificationCorporate Classification = "corporate"
	ClassificationBirthday  Classification = "birthday"
	ClassificationClub      Classification = "club"
	ClassificationCharity   Classification = "charity"
	ClassificationCustom    Classification = "custom"
)

// Valid reports whether the classification is one of the known values.
func (c Classification) Valid() bool {
	switch c {
	case ClassificationGeneral, ClassificationWedding, ClassificationCorporate,
		ClassificationBirthday, ClassificationClub, ClassificationCharity,
		ClassificationCustom:
		return true
	default:
		return false
	}
}

// Playlist represents a collection of songs curated by a user.
type Playlist struct {
	// ID is the unique identifier for the playlist.
	ID bson.ObjectID `json:"id" bson:"_id,omitempty"`

	// Name is the display name of the playlist.
	Name string `json:"name" bson:"name" validate:"required,min=1,max=100"`

	// Description provides information about the playlist.
	Description string `json:"description" bson:"description" validate:"max=1000"`

	// Owner is the ID of the user who owns the playlist.
	Owner bson.ObjectID `json:"owner" bson:"owner"`

	// Classification labels the mood of the playlist.
	Classification Classification `json:"classification" bson:"classification"`

	// IsPublic indicates whether the playlist is visible to everyone.
	IsPublic bool `json:"isPublic" bson:"isPublic"`

	// Songs are the song references in the playlist, in play order.
	Songs []PlaylistSong `json:"songs" bson:"songs"`

	// TotalDuration is the total duration of all songs in seconds.
	// It is recomputed from the song list on every mutation.
	TotalDuration int `json:"totalDuration" bson:"totalDuration"`

	// ClonedFrom is the ID of the playlist this one was cloned from, if any.
	ClonedFrom *bson.ObjectID `json:"clonedFrom,omitempty" bson:"clonedFrom,omitempty"`

	// CoverImage is an optional URL for a playlist cover image.
	CoverImage string `json:"coverImage,omitempty" bson:"coverImage,omitempty" validate:"omitempty,url"`

	// Version increments on every persisted mutation and guards
	// concurrent updates.
	Version int64 `json:"-" bson:"version"`

	// ObjectTimes contains timestamps for this playlist.
	ObjectTimes
}

// PlaylistSong represents a song reference in a playlist.
type PlaylistSong struct {
	// SongID is the ID of the song.
	SongID bson.ObjectID `json:"songId" bson:"songId"`

	// Order is the position of the song in the playlist.
	Order int `json:"order" bson:"order"`

	// AddedAt is the time the song was added to the playlist.
	AddedAt time.Time `json:"addedAt" bson:"addedAt"`
}

// SongIDs returns the ids of all songs in the playlist, in order.
func (p *Playlist) SongIDs() []bson.ObjectID {
	ids := make([]bson.ObjectID, len(p.Songs))
	for i, s := range p.Songs {
		ids[i] = s.SongID
	}
	return ids
}

// ContainsSong reports whether the playlist already references the song.
func (p *Playlist) ContainsSong(songID bson.ObjectID) bool {
	for _, s := range p.Songs {
		if s.SongID == songID {
			return true
		}
	}
	return false
}

// PlaylistInfo represents a simplified playlist object for listings.
type PlaylistInfo struct {
	// ID is the unique identifier for the playlist.
	ID bson.ObjectID `json:"id"`

	// Name is the display name of the playlist.
	Name string `json:"name"`

	// Description provides information about the playlist.
	Description string `json:"description"`

	// Owner is information about the user who owns the playlist.
	Owner *PublicUser `json:"owner,omitempty"`

	// Classification labels the mood of the playlist.
	Classification Classification `json:"classification"`

	// IsPublic indicates whether the playlist is visible to everyone.
	IsPublic bool `json:"isPublic"`

	// SongCount is the number of songs in the playlist.
	SongCount int `json:"songCount"`

	// TotalDuration is the total duration of all songs in seconds.
	TotalDuration int `json:"totalDuration"`

	// CoverImage is an optional URL for a playlist cover image.
	CoverImage string `json:"coverImage,omitempty"`

	// CreatedAt is the time the playlist was created.
	CreatedAt time.Time `json:"createdAt"`

	// UpdatedAt is the time the playlist was last updated.
	UpdatedAt time.Time `json:"updatedAt"`
}

// ToPlaylistInfo converts a Playlist to a PlaylistInfo.
func (p *Playlist) ToPlaylistInfo(owner *User) PlaylistInfo {
	info := PlaylistInfo{
		ID:             p.ID,
		Name:           p.Name,
		Description:    p.Description,
		Classification: p.Classification,
		IsPublic:       p.IsPublic,
		SongCount:      len(p.Songs),
		TotalDuration:  p.TotalDuration,
		CoverImage:     p.CoverImage,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}

	if owner != nil {
		pubUser := owner.ToPublicUser()
		info.Owner = &pubUser
	}

	return info
}

// PlaylistView is a playlist with its song references resolved for serving.
// Songs that no longer exist or have been restricted are omitted from
// Songs without changing the stored playlist.
type PlaylistView struct {
	// ID is the unique identifier for the playlist.
	ID bson.ObjectID `json:"id"`

	// Name is the display name of the playlist.
	Name string `json:"name"`

	// Description provides information about the playlist.
	Description string `json:"description"`

	// Owner is the ID of the user who owns the playlist.
	Owner bson.ObjectID `json:"owner"`

	// Classification labels the mood of the playlist.
	Classification Classification `json:"classification"`

	// IsPublic indicates whether the playlist is visible to everyone.
	IsPublic bool `json:"isPublic"`

	// Songs are the playable songs, in order.
	Songs []Song `json:"songs"`

	// TotalDuration is the stored total duration of all referenced songs.
	TotalDuration int `json:"totalDuration"`

	// PlayableDuration is the total duration of the songs actually served.
	PlayableDuration int `json:"playableDuration"`

	// ClonedFrom is the ID of the playlist this one was cloned from, if any.
	ClonedFrom *bson.ObjectID `json:"clonedFrom,omitempty"`

	// CoverImage is an optional URL for a playlist cover image.
	CoverImage string `json:"coverImage,omitempty"`

	// CreatedAt is the time the playlist was created.
	CreatedAt time.Time `json:"createdAt"`

	// UpdatedAt is the time the playlist was last updated.
	UpdatedAt time.Time `json:"updatedAt"`
}

// PlaylistCreateRequest represents the data needed to create a new playlist.
type PlaylistCreateRequest struct {
	// Name is the display name of the playlist.
	Name string `json:"name" validate:"required,min=1,max=100"`

	// Description provides information about the playlist.
	Description string `json:"description" validate:"max=1000"`

	// Classification labels the mood of the playlist.
	Classification string `json:"classification" validate:"omitempty,oneof=general wedding corporate birthday club charity custom"`

	// SongIDs are optional initial songs for the playlist.
	SongIDs []bson.ObjectID `json:"songIds" validate:"max=500"`

	// CoverImage is an optional URL for a playlist cover image.
	CoverImage string `json:"coverImage,omitempty" validate:"omitempty,url"`
}

// PlaylistUpdateRequest represents the data needed to update playlist metadata.
type PlaylistUpdateRequest struct {
	// Name is the display name of the playlist.
	Name string `json:"name" validate:"omitempty,min=1,max=100"`

	// Description provides information about the playlist.
	Description *string `json:"description,omitempty" validate:"omitempty,max=1000"`

	// Classification labels the mood of the playlist.
	Classification string `json:"classification" validate:"omitempty,oneof=general wedding corporate birthday club charity custom"`

	// CoverImage is an optional URL for a playlist cover image.
	CoverImage *string `json:"coverImage,omitempty" validate:"omitempty,url"`
}

// PlaylistAddSongRequest represents the data needed to add a song to a playlist.
type PlaylistAddSongRequest struct {
	// SongID is the ID of the song to add.
	SongID bson.ObjectID `json:"songId" validate:"required"`
}

// PlaylistReorderRequest represents the data needed to reorder a playlist.
// SongIDs must be a permutation of the playlist's current song ids.
type PlaylistReorderRequest struct {
	// SongIDs is the new play order.
	SongIDs []bson.ObjectID `json:"songIds" validate:"required,min=1"`
}

// PlaylistReplaceSongsRequest represents a wholesale replacement of a
// playlist's songs. An empty list clears the playlist.
type PlaylistReplaceSongsRequest struct {
	// SongIDs is the complete new song list, in play order.
	SongIDs []bson.ObjectID `json:"songIds" validate:"max=500"`
}

// PlaylistPublishRequest represents a visibility toggle.
type PlaylistPublishRequest struct {
	// IsPublic is the new visibility for the playlist.
	IsPublic bool `json:"isPublic"`
}

// PlaylistSearchCriteria represents the criteria for listing playlists.
type PlaylistSearchCriteria struct {
	// Query filters by name substring.
	Query string `json:"query"`

	// Classification filters by playlist classification.
	Classification string `json:"classification"`

	// OwnerID filters by owner.
	OwnerID bson.ObjectID `json:"ownerId,omitempty"`

	// PublicOnly restricts the listing to public playlists.
	PublicOnly bool `json:"publicOnly"`

	// Page is the page number for pagination.
	Page int `json:"page"`

	// Limit is the number of results per page.
	Limit int `json:"limit"`
}
