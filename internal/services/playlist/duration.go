package playlist

import (
	"go.mongodb.org/mongo-driver/v2/bson"
	"norelock.dev/mixtape/backend/internal/models"
)

// TotalDuration computes the total duration in seconds of a playlist's song
// references against the given catalog entries. References whose song is
// absent from the map contribute nothing. Every persisted TotalDuration in
// this package flows through this function.
func TotalDuration(refs []models.PlaylistSong, durations map[bson.ObjectID]int) int {
	total := 0
	for _, ref := range refs {
		total += durations[ref.SongID]
	}
	return total
}

// CheckDuration validates a computed total against the playlist duration
// bounds. maxDuration values below the model minimum fall back to the
// model's own cap.
func CheckDuration(total, maxDuration int) error {
	if maxDuration <= 0 {
		maxDuration = models.MaxPlaylistDuration
	}

	if total < models.MinPlaylistDuration {
		return models.ErrInvalidDuration
	}
	if total > maxDuration {
		return models.ErrPlaylistTooLong
	}
	return nil
}

// durationIndex builds a song id to duration map from catalog entries.
func durationIndex(songs []*models.Song) map[bson.ObjectID]int {
	durations := make(map[bson.ObjectID]int, len(songs))
	for _, s := range songs {
		durations[s.ID] = s.Duration
	}
	return durations
}
