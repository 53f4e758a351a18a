// Package models contains the data structures used throughout the application.
package models

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Role identifies the permission level of a user account.
type Role string

const (
	// RoleUser is the default role for registered accounts.
	RoleUser Role = "user"

	// RoleDJ marks curators who may publish their own playlists.
	RoleDJ Role = "dj"

	// RoleAdmin marks operators with catalog and user management rights.
	RoleAdmin Role = "admin"
)

// ParseRole converts a string into a Role, rejecting unknown values.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleUser:
		return RoleUser, nil
	case RoleDJ:
		return RoleDJ, nil
	case RoleAdmin:
		return RoleAdmin, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidRole, s)
	}
}

// Valid reports whether the role is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleDJ, RoleAdmin:
		return true
	default:
		return false
	}
}

// String returns the role as a string.
func (r Role) String() string {
	return string(r)
}

// User represents a user account.
type User struct {
	// ID is the unique identifier for the user.
	ID bson.ObjectID `json:"id" bson:"_id,omitempty"`

	// Username is the user's chosen username.
	Username string `json:"username" bson:"username" validate:"required,min=3,max=30,username"`

	// Email is the user's email address.
	Email string `json:"email" bson:"email" validate:"required,email"`

	// Password is the user's hashed password.
	Password string `json:"-" bson:"password"`

	// Role is the user's permission level.
	Role Role `json:"role" bson:"role"`

	// Preferences contains the user's listening preferences.
	Preferences UserPreferences `json:"preferences" bson:"preferences"`

	// History contains per-song play counters for this user.
	History []HistoryEntry `json:"history" bson:"history"`

	// IsActive indicates whether the user's account is active.
	IsActive bool `json:"isActive" bson:"isActive"`

	// LastLogin is the time of the user's last login.
	LastLogin time.Time `json:"lastLogin" bson:"lastLogin"`

	// ObjectTimes contains timestamps for this user.
	ObjectTimes
}

// UserPreferences represents a user's stated listening preferences.
// They bias suggestions alongside the listening history.
type UserPreferences struct {
	// Genres the user has marked as favorites.
	Genres []string `json:"genres" bson:"genres" validate:"dive,min=1,max=50"`

	// Artists the user has marked as favorites.
	Artists []string `json:"artists" bson:"artists" validate:"dive,min=1,max=100"`

	// Years of release the user prefers.
	Years []int `json:"years" bson:"years" validate:"dive,min=1900,max=2100"`
}

// HistoryEntry is a per-song play counter embedded in the user document.
type HistoryEntry struct {
	// SongID identifies the played song.
	SongID bson.ObjectID `json:"songId" bson:"songId"`

	// Count is how many times the user has played the song.
	Count int `json:"count" bson:"count"`

	// LastPlayedAt is when the song was last played.
	LastPlayedAt time.Time `json:"lastPlayedAt" bson:"lastPlayedAt"`
}

// PublicUser represents a subset of user information that is safe to share publicly.
type PublicUser struct {
	// ID is the unique identifier for the user.
	ID bson.ObjectID `json:"id"`

	// Username is the user's chosen username.
	Username string `json:"username"`

	// Role is the user's permission level.
	Role Role `json:"role"`
}

// ToPublicUser converts a User to a PublicUser.
func (u *User) ToPublicUser() PublicUser {
	return PublicUser{
		ID:       u.ID,
		Username: u.Username,
		Role:     u.Role,
	}
}

// PersonalUser represents a subset of user information that is safe to share with the user.
type PersonalUser struct {
	// ID is the unique identifier for the user.
	ID bson.ObjectID `json:"id"`

	// Username is the user's chosen username.
	Username string `json:"username"`

	// Email is the user's email address.
	Email string `json:"email"`

	// Role is the user's permission level.
	Role Role `json:"role"`

	// Preferences contains the user's listening preferences.
	Preferences UserPreferences `json:"preferences"`

	// IsActive indicates whether the user's account is active.
	IsActive bool `json:"isActive"`
}

// ToPersonalUser converts a User to a PersonalUser.
func (u *User) ToPersonalUser() PersonalUser {
	return PersonalUser{
		ID:          u.ID,
		Username:    u.Username,
		Email:       u.Email,
		Role:        u.Role,
		Preferences: u.Preferences,
		IsActive:    u.IsActive,
	}
}

// UserRegisterRequest represents the data needed to register a new user.
type UserRegisterRequest struct {
	// Username is the user's chosen username.
	Username string `json:"username" validate:"required,min=3,max=30,username"`

	// Email is the user's email address.
	Email string `json:"email" validate:"required,email"`

	// Password is the user's password.
	Password string `json:"password" validate:"required,min=8,max=72,password"`
}

// UserLoginRequest represents the data needed to log in a user.
type UserLoginRequest struct {
	// Email is the user's email address.
	Email string `json:"email" validate:"required,email"`

	// Password is the user's password.
	Password string `json:"password" validate:"required"`
}

// UserPreferencesUpdateRequest represents the data needed to update listening preferences.
type UserPreferencesUpdateRequest struct {
	// Genres the user marks as favorites.
	Genres []string `json:"genres" validate:"max=50,dive,min=1,max=50"`

	// Artists the user marks as favorites.
	Artists []string `json:"artists" validate:"max=50,dive,min=1,max=100"`

	// Years of release the user prefers.
	Years []int `json:"years" validate:"max=50,dive,min=1900,max=2100"`
}

// UserPasswordChangeRequest represents the data needed to change a user's password.
type UserPasswordChangeRequest struct {
	// CurrentPassword is the user's current password.
	CurrentPassword string `json:"currentPassword" validate:"required"`

	// NewPassword is the user's new password.
	NewPassword string `json:"newPassword" validate:"required,min=8,max=72,password"`
}

// UserRoleUpdateRequest represents an administrative role change.
type UserRoleUpdateRequest struct {
	// Role is the new role for the account.
	Role string `json:"role" validate:"required,oneof=user dj admin"`
}

// UserActiveUpdateRequest represents an administrative activation toggle.
type UserActiveUpdateRequest struct {
	// IsActive is the new activation state for the account.
	IsActive bool `json:"isActive"`
}
