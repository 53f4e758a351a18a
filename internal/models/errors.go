// Package models contains the data structures used throughout the application.
package models

import (
	"errors"
	"net/http"
)

// Common error types for domain-specific errors
var (
	// User errors
	ErrUserNotFound          = errors.New("user not found")
	ErrUserAlreadyExists     = errors.New("user already exists")
	ErrInvalidCredentials    = errors.New("invalid credentials")
	ErrEmailAlreadyExists    = errors.New("email already taken")
	ErrUsernameAlreadyExists = errors.New("username already taken")
	ErrAccountDisabled       = errors.New("account is disabled")
	ErrInvalidRole           = errors.New("invalid role")
	ErrInvalidID             = errors.New("invalid ID format")

	// Song errors
	ErrSongNotFound      = errors.New("song not found")
	ErrSongAlreadyExists = errors.New("song already exists")
	ErrSongRestricted    = errors.New("song is restricted")
	ErrInvalidDuration   = errors.New("invalid song duration")

	// Playlist errors
	ErrPlaylistNotFound       = errors.New("playlist not found")
	ErrPlaylistTooLong        = errors.New("playlist exceeds maximum total duration")
	ErrPlaylistFull           = errors.New("playlist holds the maximum number of songs")
	ErrSongAlreadyInPlaylist  = errors.New("song is already in the playlist")
	ErrSongNotInPlaylist      = errors.New("song is not in the playlist")
	ErrPlaylistAlreadyCloned  = errors.New("playlist has already been cloned")
	ErrInvalidSongOrder       = errors.New("song order is not a permutation of the playlist")
	ErrPlaylistVersionChanged = errors.New("playlist was modified concurrently")

	// DJ profile errors
	ErrDjProfileNotFound      = errors.New("dj profile not found")
	ErrDjProfileAlreadyExists = errors.New("dj profile already exists")

	// Validation errors
	ErrInvalidInput = errors.New("invalid input")

	// Authentication/authorization errors
	ErrAccessDenied    = errors.New("access denied")
	ErrInvalidToken    = errors.New("invalid token")
	ErrTokenExpired    = errors.New("token expired")
	ErrSessionExpired  = errors.New("session expired")
	ErrTooManyRequests = errors.New("too many requests")
)

// DomainError represents an error that occurs in the application domain.
type DomainError struct {
	// Original is the underlying error
	Original error

	// Message is a human-readable error message
	Message string

	// Code is the HTTP status code
	Code int

	// Domain is the area of the application where the error occurred
	Domain string
}

// Error returns the error message
func (e *DomainError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Original.Error()
}

// Unwrap returns the underlying error
func (e *DomainError) Unwrap() error {
	return e.Original
}

// NewDomainError creates a new DomainError
func NewDomainError(err error, message string, code int, domain string) *DomainError {
	if message == "" && err != nil {
		message = err.Error()
	}

	return &DomainError{
		Original: err,
		Message:  message,
		Code:     code,
		Domain:   domain,
	}
}

// NewValidationError creates a validation-related domain error
func NewValidationError(err error, message string) *DomainError {
	return NewDomainError(err, message, http.StatusUnprocessableEntity, "validation")
}

// NewInternalError creates an internal server error
func NewInternalError(err error, message string) *DomainError {
	if message == "" {
		message = "An internal server error occurred"
	}
	return NewDomainError(err, message, http.StatusInternalServerError, "system")
}

// MapErrorToHTTPStatus maps common errors to HTTP status codes
func MapErrorToHTTPStatus(err error) int {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code
	}

	switch {
	case errors.Is(err, ErrUserNotFound),
		errors.Is(err, ErrSongNotFound),
		errors.Is(err, ErrPlaylistNotFound),
		errors.Is(err, ErrDjProfileNotFound),
		errors.Is(err, ErrSongNotInPlaylist):
		return http.StatusNotFound

	case errors.Is(err, ErrInvalidCredentials),
		errors.Is(err, ErrInvalidToken),
		errors.Is(err, ErrTokenExpired),
		errors.Is(err, ErrSessionExpired):
		return http.StatusUnauthorized

	case errors.Is(err, ErrAccessDenied),
		errors.Is(err, ErrAccountDisabled):
		return http.StatusForbidden

	case errors.Is(err, ErrUserAlreadyExists),
		errors.Is(err, ErrEmailAlreadyExists),
		errors.Is(err, ErrUsernameAlreadyExists),
		errors.Is(err, ErrSongAlreadyExists),
		errors.Is(err, ErrSongAlreadyInPlaylist),
		errors.Is(err, ErrPlaylistAlreadyCloned),
		errors.Is(err, ErrDjProfileAlreadyExists),
		errors.Is(err, ErrPlaylistVersionChanged):
		return http.StatusConflict

	case errors.Is(err, ErrInvalidInput),
		errors.Is(err, ErrInvalidRole),
		errors.Is(err, ErrInvalidID):
		return http.StatusBadRequest

	case errors.Is(err, ErrPlaylistTooLong),
		errors.Is(err, ErrPlaylistFull),
		errors.Is(err, ErrInvalidDuration),
		errors.Is(err, ErrInvalidSongOrder),
		errors.Is(err, ErrSongRestricted):
		return http.StatusUnprocessableEntity

	case errors.Is(err, ErrTooManyRequests):
		return http.StatusTooManyRequests

	default:
		return http.StatusInternalServerError
	}
}
