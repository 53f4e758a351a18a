// Package stats records song plays and summarizes listening activity.
package stats

import (
	"context"
	"sort"
	"time"

	"github.com/samber/lo"
	"go.mongodb.org/mongo-driver/v2/bson"
	"norelock.dev/mixtape/backend/internal/db/mongo/repositories"
	"norelock.dev/mixtape/backend/internal/models"
	"norelock.dev/mixtape/backend/internal/utils"
)

// Service provides play logging and listening statistics.
type Service struct {
	userRepo    repositories.UserRepository
	songRepo    repositories.SongRepository
	historyRepo repositories.HistoryRepository
	logger      *utils.Logger
	now         func() time.Time
}

// NewService creates a new stats service.
func NewService(
	userRepo repositories.UserRepository,
	songRepo repositories.SongRepository,
	historyRepo repositories.HistoryRepository,
	logger *utils.Logger,
) *Service {
	return &Service{
		userRepo:    userRepo,
		songRepo:    songRepo,
		historyRepo: historyRepo,
		logger:      logger.Named("stats_service"),
		now:         time.Now,
	}
}

// RecordPlay logs that the user played a song. It bumps the per-song counter
// embedded in the user document and appends an event to the play log.
// Restricted songs cannot be played.
func (s *Service) RecordPlay(ctx context.Context, userID, songID bson.ObjectID) error {
	song, err := s.songRepo.FindByID(ctx, songID)
	if err != nil {
		return err
	}
	if song.Restricted {
		return models.ErrSongRestricted
	}

	playedAt := s.now()
	if err := s.userRepo.RecordPlay(ctx, userID, songID, playedAt); err != nil {
		return err
	}

	event := &models.PlayEvent{
		UserID:   userID,
		SongID:   songID,
		PlayedAt: playedAt,
	}
	if err := s.historyRepo.CreatePlayEvent(ctx, event); err != nil {
		s.logger.Error("Failed to append play event", err, "userId", userID.Hex(), "songId", songID.Hex())
		// The counter is already bumped; the event log is best effort
	}

	return nil
}

// GetListeningStats summarizes a user's listening activity from the per-song
// counters in their document. Aggregation happens in memory over the
// resolved catalog entries.
func (s *Service) GetListeningStats(ctx context.Context, user *models.User) (*models.ListeningStats, error) {
	stats := &models.ListeningStats{
		Frequency:   []models.SongPlayCount{},
		TopArtists:  []models.NamedPlayCount{},
		TopGenres:   []models.NamedPlayCount{},
		GeneratedAt: s.now(),
	}

	if len(user.History) == 0 {
		return stats, nil
	}

	ids := lo.Map(user.History, func(entry models.HistoryEntry, _ int) bson.ObjectID {
		return entry.SongID
	})

	songs, err := s.songRepo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	byID := lo.KeyBy(songs, func(song *models.Song) bson.ObjectID { return song.ID })

	artistCounts := make(map[string]int)
	genreCounts := make(map[string]int)

	for _, entry := range user.History {
		song, ok := byID[entry.SongID]
		if !ok {
			// Song left the catalog; its plays still count toward the total
			stats.TotalPlays += entry.Count
			continue
		}

		stats.TotalPlays += entry.Count
		stats.DistinctSongs++
		stats.Frequency = append(stats.Frequency, models.SongPlayCount{
			Song:         *song,
			Count:        entry.Count,
			LastPlayedAt: entry.LastPlayedAt,
		})

		artistCounts[song.Artist] += entry.Count
		genreCounts[song.Genre] += entry.Count
	}

	sort.SliceStable(stats.Frequency, func(i, j int) bool {
		if stats.Frequency[i].Count != stats.Frequency[j].Count {
			return stats.Frequency[i].Count > stats.Frequency[j].Count
		}
		return stats.Frequency[i].Song.Title < stats.Frequency[j].Song.Title
	})

	stats.TopArtists = rankCounts(artistCounts)
	stats.TopGenres = rankCounts(genreCounts)

	return stats, nil
}

// GetRecentPlays lists a user's play events, newest first.
func (s *Service) GetRecentPlays(ctx context.Context, userID bson.ObjectID, skip, limit int) ([]*models.PlayEvent, int64, error) {
	total, err := s.historyRepo.CountPlayEventsByUser(ctx, userID)
	if err != nil {
		return nil, 0, err
	}

	events, err := s.historyRepo.FindPlayEventsByUser(ctx, userID, skip, limit)
	if err != nil {
		return nil, 0, err
	}

	return events, total, nil
}

// ClearHistory removes a user's play log. The embedded counters stay, so
// suggestions keep working while the detailed log is gone.
func (s *Service) ClearHistory(ctx context.Context, userID bson.ObjectID) (int64, error) {
	deleted, err := s.historyRepo.DeletePlayEventsByUser(ctx, userID)
	if err != nil {
		return 0, err
	}

	s.logger.Info("Cleared play history", "userId", userID.Hex(), "deleted", deleted)
	return deleted, nil
}

// rankCounts turns a name to count map into a slice sorted by count
// descending, alphabetical on ties.
func rankCounts(counts map[string]int) []models.NamedPlayCount {
	ranked := lo.MapToSlice(counts, func(name string, count int) models.NamedPlayCount {
		return models.NamedPlayCount{Name: name, Count: count}
	})

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Count != ranked[j].Count {
			return ranked[i].Count > ranked[j].Count
		}
		return ranked[i].Name < ranked[j].Name
	})

	return ranked
}
