package playlist

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/v2/bson"
	"norelock.dev/mixtape/backend/internal/models"
)

func TestTotalDuration(t *testing.T) {
	a := bson.NewObjectID()
	b := bson.NewObjectID()
	missing := bson.NewObjectID()

	durations := map[bson.ObjectID]int{
		a: 180,
		b: 240,
	}

	tests := []struct {
		name string
		refs []models.PlaylistSong
		want int
	}{
		{"empty playlist", nil, 0},
		{"single song", []models.PlaylistSong{{SongID: a}}, 180},
		{"two songs", []models.PlaylistSong{{SongID: a}, {SongID: b}}, 420},
		{"missing song contributes nothing", []models.PlaylistSong{{SongID: a}, {SongID: missing}}, 180},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TotalDuration(tt.refs, durations))
		})
	}
}

func TestCheckDuration(t *testing.T) {
	tests := []struct {
		name    string
		total   int
		max     int
		wantErr error
	}{
		{"zero total is allowed", 0, 10800, nil},
		{"within limit", 3600, 10800, nil},
		{"exactly at limit", 10800, 10800, nil},
		{"one second over", 10801, 10800, models.ErrPlaylistTooLong},
		{"negative total", -1, 10800, models.ErrInvalidDuration},
		{"unconfigured limit falls back to default", models.MaxPlaylistDuration, 0, nil},
		{"unconfigured limit still caps", models.MaxPlaylistDuration + 1, 0, models.ErrPlaylistTooLong},
		{"custom lower limit", 601, 600, models.ErrPlaylistTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckDuration(tt.total, tt.max)
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}
