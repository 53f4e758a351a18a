package song

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.uber.org/zap/zapcore"
	"norelock.dev/mixtape/backend/internal/models"
	"norelock.dev/mixtape/backend/internal/utils"
)

// fakeSongRepo is an in-memory catalog that records search and listing
// arguments.
type fakeSongRepo struct {
	songs map[bson.ObjectID]*models.Song

	lastCriteria models.SongSearchCriteria
	lastLimit    int
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
	if song.ID.IsZero() {
		song.ID = bson.NewObjectID()
	}
	r.songs[song.ID] = song
	return nil
}

func (r *fakeSongRepo) FindByID(_ context.Context, id bson.ObjectID) (*models.Song, error) {
	s, ok := r.songs[id]
	if !ok {
		return nil, models.ErrSongNotFound
	}
	cp := *s
	return &cp, nil
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

func (r *fakeSongRepo) Update(_ context.Context, song *models.Song) error {
	if _, ok := r.songs[song.ID]; !ok {
		return models.ErrSongNotFound
	}
	r.songs[song.ID] = song
	return nil
}

func (r *fakeSongRepo) Delete(_ context.Context, id bson.ObjectID) error {
	if _, ok := r.songs[id]; !ok {
		return models.ErrSongNotFound
	}
	delete(r.songs, id)
	return nil
}

func (r *fakeSongRepo) Search(_ context.Context, criteria models.SongSearchCriteria) ([]*models.Song, int64, error) {
	r.lastCriteria = criteria
	return nil, 0, nil
}

func (r *fakeSongRepo) FindRecent(_ context.Context, limit int) ([]*models.Song, error) {
	r.lastLimit = limit
	return nil, nil
}

func (r *fakeSongRepo) FindCandidates(_ context.Context, _, _ []string, _ []int) ([]*models.Song, error) {
	return nil, nil
}

func (r *fakeSongRepo) SampleUnrestricted(_ context.Context, _ []bson.ObjectID, _ int) ([]*models.Song, error) {
	return nil, nil
}

func (r *fakeSongRepo) SetRestricted(_ context.Context, id bson.ObjectID, restricted bool) error {
	s, ok := r.songs[id]
	if !ok {
		return models.ErrSongNotFound
	}
	s.Restricted = restricted
	return nil
}

func newTestService(repo *fakeSongRepo) *Service {
	opts := utils.DefaultLoggerOptions()
	opts.Level = zapcore.ErrorLevel

	return &Service{
		songRepo: repo,
		logger:   utils.NewLogger(opts),
	}
}

func userWithRole(role models.Role) *models.User {
	return &models.User{ID: bson.NewObjectID(), Role: role, IsActive: true}
}

func TestAddSong(t *testing.T) {
	repo := newFakeSongRepo()
	service := newTestService(repo)
	admin := userWithRole(models.RoleAdmin)

	req := models.SongCreateRequest{
		Title:    "Warehouse",
		Artist:   "Deep Duo",
		Genre:    "house",
		Year:     2021,
		Duration: 240,
	}

	song, err := service.AddSong(context.Background(), admin, req)
	require.NoError(t, err)

	assert.Equal(t, "Warehouse", song.Title)
	assert.Equal(t, admin.ID, song.AddedBy)
	assert.False(t, song.Restricted)
	assert.Contains(t, repo.songs, song.ID)
}

func TestCatalogWritesRequireAdmin(t *testing.T) {
	existing := &models.Song{ID: bson.NewObjectID(), Title: "One", Artist: "A", Genre: "house", Duration: 200}

	for _, role := range []models.Role{models.RoleUser, models.RoleDJ} {
		t.Run(string(role), func(t *testing.T) {
			repo := newFakeSongRepo(existing)
			service := newTestService(repo)
			actor := userWithRole(role)

			_, err := service.AddSong(context.Background(), actor, models.SongCreateRequest{})
			assert.ErrorIs(t, err, models.ErrAccessDenied)

			_, err = service.UpdateSong(context.Background(), actor, existing.ID, models.SongUpdateRequest{})
			assert.ErrorIs(t, err, models.ErrAccessDenied)

			err = service.DeleteSong(context.Background(), actor, existing.ID)
			assert.ErrorIs(t, err, models.ErrAccessDenied)

			_, err = service.SetRestricted(context.Background(), actor, existing.ID, true)
			assert.ErrorIs(t, err, models.ErrAccessDenied)
		})
	}
}

func TestUpdateSongAppliesPartialChanges(t *testing.T) {
	existing := &models.Song{
		ID:       bson.NewObjectID(),
		Title:    "Old",
		Artist:   "Act",
		Genre:    "house",
		Year:     2019,
		Duration: 200,
		AudioURL: "https://cdn.example.com/old.mp3",
	}

	repo := newFakeSongRepo(existing)
	service := newTestService(repo)

	newURL := "https://cdn.example.com/new.mp3"
	updated, err := service.UpdateSong(context.Background(), userWithRole(models.RoleAdmin), existing.ID, models.SongUpdateRequest{
		Title:    "New",
		Duration: 250,
		AudioURL: &newURL,
	})
	require.NoError(t, err)

	assert.Equal(t, "New", updated.Title)
	assert.Equal(t, 250, updated.Duration)
	assert.Equal(t, newURL, updated.AudioURL)
	// Untouched fields keep their values.
	assert.Equal(t, "Act", updated.Artist)
	assert.Equal(t, "house", updated.Genre)
	assert.Equal(t, 2019, updated.Year)
}

func TestSetRestricted(t *testing.T) {
	existing := &models.Song{ID: bson.NewObjectID(), Title: "One", Artist: "A", Genre: "house", Duration: 200}
	repo := newFakeSongRepo(existing)
	service := newTestService(repo)

	restricted, err := service.SetRestricted(context.Background(), userWithRole(models.RoleAdmin), existing.ID, true)
	require.NoError(t, err)
	assert.True(t, restricted.Restricted)
}

func TestGetSongHidesRestrictedFromNonAdmins(t *testing.T) {
	restricted := &models.Song{ID: bson.NewObjectID(), Title: "Hidden", Artist: "A", Genre: "house", Duration: 200, Restricted: true}
	repo := newFakeSongRepo(restricted)
	service := newTestService(repo)

	_, err := service.GetSong(context.Background(), nil, restricted.ID)
	assert.ErrorIs(t, err, models.ErrSongNotFound)

	_, err = service.GetSong(context.Background(), userWithRole(models.RoleUser), restricted.ID)
	assert.ErrorIs(t, err, models.ErrSongNotFound)

	song, err := service.GetSong(context.Background(), userWithRole(models.RoleAdmin), restricted.ID)
	require.NoError(t, err)
	assert.Equal(t, restricted.ID, song.ID)
}

func TestSearchSongsStripsRestrictedForNonAdmins(t *testing.T) {
	repo := newFakeSongRepo()
	service := newTestService(repo)

	criteria := models.SongSearchCriteria{Query: "house", IncludeRestricted: true}

	_, _, err := service.SearchSongs(context.Background(), userWithRole(models.RoleUser), criteria)
	require.NoError(t, err)
	assert.False(t, repo.lastCriteria.IncludeRestricted)

	_, _, err = service.SearchSongs(context.Background(), userWithRole(models.RoleAdmin), criteria)
	require.NoError(t, err)
	assert.True(t, repo.lastCriteria.IncludeRestricted)
}

func TestGetRecentSongsClampsLimit(t *testing.T) {
	repo := newFakeSongRepo()
	service := newTestService(repo)

	_, err := service.GetRecentSongs(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, 20, repo.lastLimit)

	_, err = service.GetRecentSongs(context.Background(), 500)
	require.NoError(t, err)
	assert.Equal(t, 20, repo.lastLimit)

	_, err = service.GetRecentSongs(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, 5, repo.lastLimit)
}
