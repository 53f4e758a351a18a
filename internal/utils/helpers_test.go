package utils

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetPageParams(t *testing.T) {
	tests := []struct {
		name      string
		url       string
		wantPage  int
		wantLimit int
	}{
		{"defaults", "/playlists", 1, 20},
		{"explicit values", "/playlists?page=3&limit=50", 3, 50},
		{"zero page clamps to first", "/playlists?page=0", 1, 20},
		{"negative page clamps to first", "/playlists?page=-2", 1, 20},
		{"oversized limit falls back", "/playlists?limit=5000", 1, 20},
		{"zero limit falls back", "/playlists?limit=0", 1, 20},
		{"garbage values fall back", "/playlists?page=abc&limit=xyz", 1, 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, limit := GetPageParams(httptest.NewRequest("GET", tt.url, nil), 20)
			assert.Equal(t, tt.wantPage, page)
			assert.Equal(t, tt.wantLimit, limit)
		})
	}
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "00:30", FormatDuration(30))
	assert.Equal(t, "03:05", FormatDuration(185))
	assert.Equal(t, "01:00:00", FormatDurationLong(3600))
}
