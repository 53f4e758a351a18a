// Package suggest builds personalized song suggestions from a user's
// listening history and stated preferences.
package suggest

import (
	"context"
	"errors"
	"sort"
	"time"

	r "github.com/go-redis/redis/v8"
	"github.com/samber/lo"
	lom "github.com/samber/lo/mutable"
	"go.mongodb.org/mongo-driver/v2/bson"
	"norelock.dev/mixtape/backend/internal/config"
	"norelock.dev/mixtape/backend/internal/db/mongo/repositories"
	"norelock.dev/mixtape/backend/internal/db/redis"
	"norelock.dev/mixtape/backend/internal/models"
	"norelock.dev/mixtape/backend/internal/utils"
)

// cacheKeyPrefix namespaces cached suggestion lists in Redis.
const cacheKeyPrefix = "suggest:cache:"

// Engine computes song suggestions. Time and shuffling are injectable so
// scoring and padding stay reproducible in tests.
type Engine struct {
	songRepo   repositories.SongRepository
	cache      *redis.Client
	cacheTTL   time.Duration
	limit      int
	windowDays float64
	minWeight  float64
	prefBoost  float64
	topK       int
	logger     *utils.Logger
	now        func() time.Time
	shuffle    func([]*models.Song)
}

// NewEngine creates a new suggestion engine.
func NewEngine(songRepo repositories.SongRepository, cache *redis.Client, cfg *config.Config, logger *utils.Logger) *Engine {
	return &Engine{
		songRepo:   songRepo,
		cache:      cache,
		cacheTTL:   cfg.Suggestions.CacheTTL,
		limit:      cfg.Suggestions.Limit,
		windowDays: float64(cfg.Suggestions.RecencyWindowDays),
		minWeight:  cfg.Suggestions.MinRecencyWeight,
		prefBoost:  cfg.Suggestions.PreferenceBoost,
		topK:       cfg.Suggestions.TopK,
		logger:     logger.Named("suggest_engine"),
		now:        time.Now,
		shuffle:    lom.Shuffle[*models.Song, []*models.Song],
	}
}

// taste accumulates weighted play scores per genre and artist.
type taste struct {
	genres  map[string]float64
	artists map[string]float64
}

// Suggest returns up to the configured number of suggested songs for the
// user, best match first. Users with no history and no preferences get a
// random sample of the unrestricted catalog.
func (e *Engine) Suggest(ctx context.Context, user *models.User) ([]*models.Song, error) {
	if songs, ok := e.cachedSuggestions(ctx, user.ID); ok {
		return songs, nil
	}

	profile, err := e.buildTaste(ctx, user)
	if err != nil {
		return nil, err
	}

	topGenres := topNames(profile.genres, e.topK)
	topArtists := topNames(profile.artists, e.topK)

	candidates, err := e.songRepo.FindCandidates(ctx, topGenres, topArtists, user.Preferences.Years)
	if err != nil {
		return nil, err
	}

	// Best match first, name as the deterministic tie-break.
	sort.SliceStable(candidates, func(i, j int) bool {
		si := profile.genres[candidates[i].Genre] + profile.artists[candidates[i].Artist]
		sj := profile.genres[candidates[j].Genre] + profile.artists[candidates[j].Artist]
		if si != sj {
			return si > sj
		}
		if candidates[i].Title != candidates[j].Title {
			return candidates[i].Title < candidates[j].Title
		}
		return candidates[i].Artist < candidates[j].Artist
	})

	if len(candidates) > e.limit {
		candidates = candidates[:e.limit]
	}

	if len(candidates) < e.limit {
		candidates, err = e.pad(ctx, candidates)
		if err != nil {
			return nil, err
		}
	}

	e.storeSuggestions(ctx, user.ID, candidates)

	e.logger.Debug("Computed suggestions", "userId", user.ID.Hex(),
		"topGenres", topGenres, "topArtists", topArtists, "count", len(candidates))

	return candidates, nil
}

// cachedSuggestions returns a previously computed suggestion list, if one is
// still cached for the user.
func (e *Engine) cachedSuggestions(ctx context.Context, userID bson.ObjectID) ([]*models.Song, bool) {
	if e.cache == nil || e.cacheTTL <= 0 {
		return nil, false
	}

	var songs []*models.Song
	if err := e.cache.GetObject(ctx, cacheKeyPrefix+userID.Hex(), &songs); err != nil {
		if !errors.Is(err, r.Nil) {
			e.logger.Warn("Failed to read suggestion cache", "userId", userID.Hex(), "error", err)
		}
		return nil, false
	}

	return songs, true
}

// storeSuggestions caches a computed suggestion list. Cache failures are not
// fatal, suggestions are simply recomputed on the next request.
func (e *Engine) storeSuggestions(ctx context.Context, userID bson.ObjectID, songs []*models.Song) {
	if e.cache == nil || e.cacheTTL <= 0 {
		return
	}

	if err := e.cache.SetObject(ctx, cacheKeyPrefix+userID.Hex(), songs, e.cacheTTL); err != nil {
		e.logger.Warn("Failed to write suggestion cache", "userId", userID.Hex(), "error", err)
	}
}

// buildTaste scores genres and artists from the user's play history, with
// recent plays weighing more, and adds a flat boost for stated preferences.
func (e *Engine) buildTaste(ctx context.Context, user *models.User) (*taste, error) {
	profile := &taste{
		genres:  make(map[string]float64),
		artists: make(map[string]float64),
	}

	if len(user.History) > 0 {
		ids := lo.Map(user.History, func(entry models.HistoryEntry, _ int) bson.ObjectID {
			return entry.SongID
		})

		songs, err := e.songRepo.FindByIDs(ctx, ids)
		if err != nil {
			return nil, err
		}

		byID := lo.KeyBy(songs, func(s *models.Song) bson.ObjectID { return s.ID })

		now := e.now()
		for _, entry := range user.History {
			song, ok := byID[entry.SongID]
			if !ok {
				// Song left the catalog since it was played.
				continue
			}

			weight := e.recencyWeight(now, entry.LastPlayedAt)
			score := float64(entry.Count) * weight
			profile.genres[song.Genre] += score
			profile.artists[song.Artist] += score
		}
	}

	for _, genre := range user.Preferences.Genres {
		profile.genres[genre] += e.prefBoost
	}
	for _, artist := range user.Preferences.Artists {
		profile.artists[artist] += e.prefBoost
	}

	return profile, nil
}

// recencyWeight decays linearly from 1 at the moment of play down to the
// configured floor at the end of the recency window.
func (e *Engine) recencyWeight(now, lastPlayed time.Time) float64 {
	if e.windowDays <= 0 {
		return e.minWeight
	}

	days := now.Sub(lastPlayed).Hours() / 24
	weight := 1 - days/e.windowDays
	return max(weight, e.minWeight)
}

// pad fills a short suggestion list with a random sample of unrestricted
// songs drawn from the whole catalog, minus the songs already suggested.
func (e *Engine) pad(ctx context.Context, suggestions []*models.Song) ([]*models.Song, error) {
	need := e.limit - len(suggestions)
	if need <= 0 {
		return suggestions, nil
	}

	exclude := lo.Map(suggestions, func(s *models.Song, _ int) bson.ObjectID {
		return s.ID
	})

	fill, err := e.songRepo.SampleUnrestricted(ctx, exclude, need)
	if err != nil {
		return nil, err
	}

	e.shuffle(fill)
	return append(suggestions, fill...), nil
}

// topNames returns the n highest scoring names, alphabetical on ties.
func topNames(scores map[string]float64, n int) []string {
	names := lo.Keys(scores)
	sort.Slice(names, func(i, j int) bool {
		if scores[names[i]] != scores[names[j]] {
			return scores[names[i]] > scores[names[j]]
		}
		return names[i] < names[j]
	})

	if len(names) > n {
		names = names[:n]
	}
	return names
}
