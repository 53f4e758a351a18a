package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizePlaylistName(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"trims whitespace", "  Morning Mix  ", "Morning Mix"},
		{"collapses inner whitespace", "Late   Night    Mix", "Late Night Mix"},
		{"truncates long names", strings.Repeat("a", 150), strings.Repeat("a", 100)},
		{"keeps ordinary names", "Roadtrip 2026", "Roadtrip 2026"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizePlaylistName(tt.input))
		})
	}
}

func TestSanitizeSearchQuery(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain query", "deep house", "deep house"},
		{"strips operators", "title:$ne", "title ne"},
		{"normalizes whitespace", "  deep   house ", "deep house"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizeSearchQuery(tt.input))
		})
	}
}
