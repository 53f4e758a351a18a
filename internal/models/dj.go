// Package models contains the data structures used throughout the application.
package models

import (
	"go.mongodb.org/mongo-driver/v2/bson"
)

// DjProfile is the public curator profile of an account with the dj role.
// It is created when an admin promotes a user to dj.
type DjProfile struct {
	// ID is the unique identifier for the profile.
	ID bson.ObjectID `json:"id" bson:"_id,omitempty"`

	// UserID is the ID of the account behind the profile.
	UserID bson.ObjectID `json:"userId" bson:"userId"`

	// StageName is the curator's display name.
	StageName string `json:"stageName" bson:"stageName" validate:"required,min=1,max=50"`

	// Bio is the curator's biography.
	Bio string `json:"bio" bson:"bio" validate:"max=500"`

	// Genres are the genres the curator focuses on.
	Genres []string `json:"genres" bson:"genres" validate:"max=20,dive,min=1,max=50"`

	// ObjectTimes contains timestamps for this profile.
	ObjectTimes
}

// DjProfileUpdateRequest represents the data a dj may change on their profile.
type DjProfileUpdateRequest struct {
	// StageName is the curator's display name.
	StageName string `json:"stageName" validate:"omitempty,min=1,max=50"`

	// Bio is the curator's biography.
	Bio *string `json:"bio,omitempty" validate:"omitempty,max=500"`

	// Genres are the genres the curator focuses on.
	Genres []string `json:"genres" validate:"max=20,dive,min=1,max=50"`
}
