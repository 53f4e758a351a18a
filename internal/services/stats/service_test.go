package stats

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.uber.org/zap/zapcore"
	"norelock.dev/mixtape/backend/internal/models"
	"norelock.dev/mixtape/backend/internal/utils"
)

type recordedPlay struct {
	userID   bson.ObjectID
	songID   bson.ObjectID
	playedAt time.Time
}

// fakeUserRepo records play counter bumps.
type fakeUserRepo struct {
	plays []recordedPlay
}

func (r *fakeUserRepo) Create(_ context.Context, _ *models.User) error { return nil }
func (r *fakeUserRepo) FindByID(_ context.Context, _ bson.ObjectID) (*models.User, error) {
	return nil, models.ErrUserNotFound
}
func (r *fakeUserRepo) FindByEmail(_ context.Context, _ string) (*models.User, error) {
	return nil, models.ErrUserNotFound
}
func (r *fakeUserRepo) FindByUsername(_ context.Context, _ string) (*models.User, error) {
	return nil, models.ErrUserNotFound
}
func (r *fakeUserRepo) FindMany(_ context.Context, _ bson.M, _ options.Lister[options.FindOptions]) ([]*models.User, error) {
	return nil, nil
}
func (r *fakeUserRepo) Update(_ context.Context, _ *models.User) error              { return nil }
func (r *fakeUserRepo) UpdateLastLogin(_ context.Context, _ bson.ObjectID) error    { return nil }
func (r *fakeUserRepo) UpdatePreferences(_ context.Context, _ bson.ObjectID, _ models.UserPreferences) error {
	return nil
}
func (r *fakeUserRepo) UpdatePassword(_ context.Context, _ bson.ObjectID, _ string) error {
	return nil
}
func (r *fakeUserRepo) RecordPlay(_ context.Context, userID, songID bson.ObjectID, playedAt time.Time) error {
	r.plays = append(r.plays, recordedPlay{userID: userID, songID: songID, playedAt: playedAt})
	return nil
}
func (r *fakeUserRepo) SetRole(_ context.Context, _ bson.ObjectID, _ models.Role) error { return nil }
func (r *fakeUserRepo) SetActive(_ context.Context, _ bson.ObjectID, _ bool) error      { return nil }
func (r *fakeUserRepo) Delete(_ context.Context, _ bson.ObjectID) error                 { return nil }
func (r *fakeUserRepo) CountUsers(_ context.Context, _ bson.M) (int64, error)           { return 0, nil }

// fakeSongRepo serves a fixed catalog.
type fakeSongRepo struct {
	songs map[bson.ObjectID]*models.Song
}

func newFakeSongRepo(songs ...*models.Song) *fakeSongRepo {
	repo := &fakeSongRepo{songs: make(map[bson.ObjectID]*models.Song)}
	for _, s := range songs {
		if s.ID.IsZero() {
			s.ID = bson.NewObjectID()
		}
		repo.songs[s.ID] = s
	}
	return repo
}

func (r *fakeSongRepo) Create(_ context.Context, song *models.Song) error {
	r.songs[song.ID] = song
	return nil
}
func (r *fakeSongRepo) FindByID(_ context.Context, id bson.ObjectID) (*models.Song, error) {
	s, ok := r.songs[id]
	if !ok {
		return nil, models.ErrSongNotFound
	}
	return s, nil
}
func (r *fakeSongRepo) FindByIDs(_ context.Context, ids []bson.ObjectID) ([]*models.Song, error) {
	var found []*models.Song
	for _, id := range ids {
		if s, ok := r.songs[id]; ok {
			found = append(found, s)
		}
	}
	return found, nil
}
func (r *fakeSongRepo) FindMany(_ context.Context, _ bson.M, _ options.Lister[options.FindOptions]) ([]*models.Song, error) {
	return nil, nil
}
func (r *fakeSongRepo) Update(_ context.Context, song *models.Song) error { return nil }
func (r *fakeSongRepo) Delete(_ context.Context, id bson.ObjectID) error {
	delete(r.songs, id)
	return nil
}
func (r *fakeSongRepo) Search(_ context.Context, _ models.SongSearchCriteria) ([]*models.Song, int64, error) {
	return nil, 0, nil
}
func (r *fakeSongRepo) FindRecent(_ context.Context, _ int) ([]*models.Song, error) { return nil, nil }
func (r *fakeSongRepo) FindCandidates(_ context.Context, _, _ []string, _ []int) ([]*models.Song, error) {
	return nil, nil
}
func (r *fakeSongRepo) SampleUnrestricted(_ context.Context, _ []bson.ObjectID, _ int) ([]*models.Song, error) {
	return nil, nil
}
func (r *fakeSongRepo) SetRestricted(_ context.Context, _ bson.ObjectID, _ bool) error { return nil }

// fakeHistoryRepo is an in-memory play log.
type fakeHistoryRepo struct {
	events    []*models.PlayEvent
	createErr error
}

func (r *fakeHistoryRepo) CreatePlayEvent(_ context.Context, event *models.PlayEvent) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.events = append(r.events, event)
	return nil
}

func (r *fakeHistoryRepo) FindPlayEventsByUser(_ context.Context, userID bson.ObjectID, skip, limit int) ([]*models.PlayEvent, error) {
	var found []*models.PlayEvent
	for _, e := range r.events {
		if e.UserID == userID {
			found = append(found, e)
		}
	}
	if skip > len(found) {
		skip = len(found)
	}
	found = found[skip:]
	if len(found) > limit {
		found = found[:limit]
	}
	return found, nil
}

func (r *fakeHistoryRepo) CountPlayEventsByUser(_ context.Context, userID bson.ObjectID) (int64, error) {
	var count int64
	for _, e := range r.events {
		if e.UserID == userID {
			count++
		}
	}
	return count, nil
}

func (r *fakeHistoryRepo) DeletePlayEventsByUser(_ context.Context, userID bson.ObjectID) (int64, error) {
	var kept []*models.PlayEvent
	var deleted int64
	for _, e := range r.events {
		if e.UserID == userID {
			deleted++
			continue
		}
		kept = append(kept, e)
	}
	r.events = kept
	return deleted, nil
}

var fixedNow = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

func newTestService(userRepo *fakeUserRepo, songRepo *fakeSongRepo, historyRepo *fakeHistoryRepo) *Service {
	opts := utils.DefaultLoggerOptions()
	opts.Level = zapcore.ErrorLevel

	return &Service{
		userRepo:    userRepo,
		songRepo:    songRepo,
		historyRepo: historyRepo,
		logger:      utils.NewLogger(opts),
		now:         func() time.Time { return fixedNow },
	}
}

func catalogSong(title, artist, genre string) *models.Song {
	return &models.Song{
		ID:       bson.NewObjectID(),
		Title:    title,
		Artist:   artist,
		Genre:    genre,
		Year:     2020,
		Duration: 200,
	}
}

func TestRecordPlay(t *testing.T) {
	song := catalogSong("One", "Act", "house")
	userRepo := &fakeUserRepo{}
	historyRepo := &fakeHistoryRepo{}
	service := newTestService(userRepo, newFakeSongRepo(song), historyRepo)

	userID := bson.NewObjectID()
	require.NoError(t, service.RecordPlay(context.Background(), userID, song.ID))

	require.Len(t, userRepo.plays, 1)
	assert.Equal(t, userID, userRepo.plays[0].userID)
	assert.Equal(t, song.ID, userRepo.plays[0].songID)
	assert.Equal(t, fixedNow, userRepo.plays[0].playedAt)

	require.Len(t, historyRepo.events, 1)
	assert.Equal(t, song.ID, historyRepo.events[0].SongID)
	assert.Equal(t, fixedNow, historyRepo.events[0].PlayedAt)
}

func TestRecordPlayRejectsRestrictedSongs(t *testing.T) {
	song := catalogSong("Hidden", "Act", "house")
	song.Restricted = true
	userRepo := &fakeUserRepo{}
	service := newTestService(userRepo, newFakeSongRepo(song), &fakeHistoryRepo{})

	err := service.RecordPlay(context.Background(), bson.NewObjectID(), song.ID)
	assert.ErrorIs(t, err, models.ErrSongRestricted)
	assert.Empty(t, userRepo.plays)
}

func TestRecordPlayUnknownSong(t *testing.T) {
	service := newTestService(&fakeUserRepo{}, newFakeSongRepo(), &fakeHistoryRepo{})

	err := service.RecordPlay(context.Background(), bson.NewObjectID(), bson.NewObjectID())
	assert.ErrorIs(t, err, models.ErrSongNotFound)
}

func TestRecordPlayToleratesLogFailure(t *testing.T) {
	song := catalogSong("One", "Act", "house")
	userRepo := &fakeUserRepo{}
	historyRepo := &fakeHistoryRepo{createErr: errors.New("log down")}
	service := newTestService(userRepo, newFakeSongRepo(song), historyRepo)

	// The counter bump is the source of truth; a failed log write does
	// not fail the play.
	require.NoError(t, service.RecordPlay(context.Background(), bson.NewObjectID(), song.ID))
	assert.Len(t, userRepo.plays, 1)
}

func TestGetListeningStatsEmptyHistory(t *testing.T) {
	service := newTestService(&fakeUserRepo{}, newFakeSongRepo(), &fakeHistoryRepo{})

	stats, err := service.GetListeningStats(context.Background(), &models.User{ID: bson.NewObjectID()})
	require.NoError(t, err)

	assert.Zero(t, stats.TotalPlays)
	assert.Zero(t, stats.DistinctSongs)
	assert.Empty(t, stats.Frequency)
	assert.Empty(t, stats.TopArtists)
	assert.Empty(t, stats.TopGenres)
	assert.Equal(t, fixedNow, stats.GeneratedAt)
}

func TestGetListeningStats(t *testing.T) {
	s1 := catalogSong("Warehouse", "Deep Duo", "house")
	s2 := catalogSong("Bunker", "Machine Trio", "techno")
	s3 := catalogSong("Loft", "Deep Duo", "house")
	vanishedID := bson.NewObjectID()

	user := &models.User{
		ID: bson.NewObjectID(),
		History: []models.HistoryEntry{
			{SongID: s1.ID, Count: 5, LastPlayedAt: fixedNow},
			{SongID: s2.ID, Count: 3, LastPlayedAt: fixedNow},
			{SongID: s3.ID, Count: 3, LastPlayedAt: fixedNow},
			{SongID: vanishedID, Count: 2, LastPlayedAt: fixedNow},
		},
	}

	service := newTestService(&fakeUserRepo{}, newFakeSongRepo(s1, s2, s3), &fakeHistoryRepo{})

	stats, err := service.GetListeningStats(context.Background(), user)
	require.NoError(t, err)

	// Vanished songs still count toward the total but not the breakdown.
	assert.Equal(t, 13, stats.TotalPlays)
	assert.Equal(t, 3, stats.DistinctSongs)

	require.Len(t, stats.Frequency, 3)
	assert.Equal(t, "Warehouse", stats.Frequency[0].Song.Title)
	// Equal counts fall back to the title order.
	assert.Equal(t, "Bunker", stats.Frequency[1].Song.Title)
	assert.Equal(t, "Loft", stats.Frequency[2].Song.Title)

	require.Len(t, stats.TopArtists, 2)
	assert.Equal(t, models.NamedPlayCount{Name: "Deep Duo", Count: 8}, stats.TopArtists[0])
	assert.Equal(t, models.NamedPlayCount{Name: "Machine Trio", Count: 3}, stats.TopArtists[1])

	require.Len(t, stats.TopGenres, 2)
	assert.Equal(t, models.NamedPlayCount{Name: "house", Count: 8}, stats.TopGenres[0])
	assert.Equal(t, models.NamedPlayCount{Name: "techno", Count: 3}, stats.TopGenres[1])
}

func TestGetRecentPlays(t *testing.T) {
	userID := bson.NewObjectID()
	historyRepo := &fakeHistoryRepo{}
	for range 3 {
		historyRepo.events = append(historyRepo.events, &models.PlayEvent{
			UserID:   userID,
			SongID:   bson.NewObjectID(),
			PlayedAt: fixedNow,
		})
	}
	historyRepo.events = append(historyRepo.events, &models.PlayEvent{
		UserID:   bson.NewObjectID(),
		SongID:   bson.NewObjectID(),
		PlayedAt: fixedNow,
	})

	service := newTestService(&fakeUserRepo{}, newFakeSongRepo(), historyRepo)

	events, total, err := service.GetRecentPlays(context.Background(), userID, 0, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, events, 2)
}

func TestClearHistory(t *testing.T) {
	userID := bson.NewObjectID()
	historyRepo := &fakeHistoryRepo{
		events: []*models.PlayEvent{
			{UserID: userID, SongID: bson.NewObjectID(), PlayedAt: fixedNow},
			{UserID: userID, SongID: bson.NewObjectID(), PlayedAt: fixedNow},
			{UserID: bson.NewObjectID(), SongID: bson.NewObjectID(), PlayedAt: fixedNow},
		},
	}

	service := newTestService(&fakeUserRepo{}, newFakeSongRepo(), historyRepo)

	deleted, err := service.ClearHistory(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)
	assert.Len(t, historyRepo.events, 1)
}
