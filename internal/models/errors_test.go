package models

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMapErrorToHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"not found", ErrPlaylistNotFound, http.StatusNotFound},
		{"song missing from playlist", ErrSongNotInPlaylist, http.StatusNotFound},
		{"bad credentials", ErrInvalidCredentials, http.StatusUnauthorized},
		{"access denied", ErrAccessDenied, http.StatusForbidden},
		{"disabled account", ErrAccountDisabled, http.StatusForbidden},
		{"duplicate song", ErrSongAlreadyInPlaylist, http.StatusConflict},
		{"concurrent update", ErrPlaylistVersionChanged, http.StatusConflict},
		{"double clone", ErrPlaylistAlreadyCloned, http.StatusConflict},
		{"unknown role", ErrInvalidRole, http.StatusBadRequest},
		{"over the duration cap", ErrPlaylistTooLong, http.StatusUnprocessableEntity},
		{"restricted play", ErrSongRestricted, http.StatusUnprocessableEntity},
		{"rate limited", ErrTooManyRequests, http.StatusTooManyRequests},
		{"wrapped sentinel", fmt.Errorf("saving: %w", ErrPlaylistFull), http.StatusUnprocessableEntity},
		{"unrecognized", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MapErrorToHTTPStatus(tt.err))
		})
	}
}

func TestDomainErrorOverridesMapping(t *testing.T) {
	err := NewValidationError(ErrInvalidInput, "Unknown playlist classification")

	assert.Equal(t, http.StatusUnprocessableEntity, MapErrorToHTTPStatus(err))
	assert.ErrorIs(t, err, ErrInvalidInput)
}
