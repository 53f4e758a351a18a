package playlist

import (
	"context"
	"slices"
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

// fakePlaylistRepo is an in-memory playlist store with the same versioning
// behavior as the MongoDB repository.
type fakePlaylistRepo struct {
	playlists map[bson.ObjectID]*models.Playlist

	// forcedConflicts makes the next n versioned writes fail as if the
	// document changed underneath the caller.
	forcedConflicts int
}

func newFakePlaylistRepo(playlists ...*models.Playlist) *fakePlaylistRepo {
	repo := &fakePlaylistRepo{playlists: make(map[bson.ObjectID]*models.Playlist)}
	for _, p := range playlists {
		if p.ID.IsZero() {
			p.ID = bson.NewObjectID()
		}
		if p.Version == 0 {
			p.Version = 1
		}
		repo.playlists[p.ID] = clonePlaylist(p)
	}
	return repo
}

func clonePlaylist(p *models.Playlist) *models.Playlist {
	cp := *p
	cp.Songs = slices.Clone(p.Songs)
	return &cp
}

func (r *fakePlaylistRepo) Create(_ context.Context, playlist *models.Playlist) error {
	if playlist.ClonedFrom != nil {
		for _, p := range r.playlists {
			if p.ClonedFrom != nil && *p.ClonedFrom == *playlist.ClonedFrom && p.Owner == playlist.Owner {
				return models.ErrPlaylistAlreadyCloned
			}
		}
	}

	if playlist.ID.IsZero() {
		playlist.ID = bson.NewObjectID()
	}
	if playlist.Songs == nil {
		playlist.Songs = []models.PlaylistSong{}
	}
	if playlist.Version == 0 {
		playlist.Version = 1
	}

	r.playlists[playlist.ID] = clonePlaylist(playlist)
	return nil
}

func (r *fakePlaylistRepo) FindByID(_ context.Context, id bson.ObjectID) (*models.Playlist, error) {
	p, ok := r.playlists[id]
	if !ok {
		return nil, models.ErrPlaylistNotFound
	}
	return clonePlaylist(p), nil
}

func (r *fakePlaylistRepo) FindMany(_ context.Context, _ bson.M, _ options.Lister[options.FindOptions]) ([]*models.Playlist, error) {
	return nil, nil
}

func (r *fakePlaylistRepo) ReplaceVersioned(_ context.Context, playlist *models.Playlist) error {
	if r.forcedConflicts > 0 {
		r.forcedConflicts--
		return models.ErrPlaylistVersionChanged
	}

	stored, ok := r.playlists[playlist.ID]
	if !ok {
		return models.ErrPlaylistNotFound
	}
	if stored.Version != playlist.Version {
		return models.ErrPlaylistVersionChanged
	}

	playlist.Version++
	r.playlists[playlist.ID] = clonePlaylist(playlist)
	return nil
}

func (r *fakePlaylistRepo) Delete(_ context.Context, id bson.ObjectID) error {
	if _, ok := r.playlists[id]; !ok {
		return models.ErrPlaylistNotFound
	}
	delete(r.playlists, id)
	return nil
}

func (r *fakePlaylistRepo) FindUserPlaylists(_ context.Context, ownerID bson.ObjectID) ([]*models.Playlist, error) {
	var found []*models.Playlist
	for _, p := range r.playlists {
		if p.Owner == ownerID {
			found = append(found, clonePlaylist(p))
		}
	}
	return found, nil
}

func (r *fakePlaylistRepo) CountUserPlaylists(_ context.Context, ownerID bson.ObjectID) (int64, error) {
	var count int64
	for _, p := range r.playlists {
		if p.Owner == ownerID {
			count++
		}
	}
	return count, nil
}

func (r *fakePlaylistRepo) FindCloneBySource(_ context.Context, ownerID, sourceID bson.ObjectID) (*models.Playlist, error) {
	for _, p := range r.playlists {
		if p.Owner == ownerID && p.ClonedFrom != nil && *p.ClonedFrom == sourceID {
			return clonePlaylist(p), nil
		}
	}
	return nil, models.ErrPlaylistNotFound
}

func (r *fakePlaylistRepo) SearchPlaylists(_ context.Context, _ models.PlaylistSearchCriteria) ([]*models.Playlist, int64, error) {
	return nil, 0, nil
}

func (r *fakePlaylistRepo) FindPublicPlaylists(_ context.Context, _, _ int) ([]*models.Playlist, error) {
	var found []*models.Playlist
	for _, p := range r.playlists {
		if p.IsPublic {
			found = append(found, clonePlaylist(p))
		}
	}
	return found, nil
}

// fakeSongRepo is an in-memory song catalog.
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
	seen := make(map[bson.ObjectID]struct{})
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if s, ok := r.songs[id]; ok {
			cp := *s
			found = append(found, &cp)
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

func (r *fakeSongRepo) Search(_ context.Context, _ models.SongSearchCriteria) ([]*models.Song, int64, error) {
	return nil, 0, nil
}

func (r *fakeSongRepo) FindRecent(_ context.Context, _ int) ([]*models.Song, error) {
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

func testLogger() *utils.Logger {
	opts := utils.DefaultLoggerOptions()
	opts.Level = zapcore.ErrorLevel
	return utils.NewLogger(opts)
}

func newTestManager(playlistRepo *fakePlaylistRepo, songRepo *fakeSongRepo) *Manager {
	return &Manager{
		playlistRepo: playlistRepo,
		songRepo:     songRepo,
		maxDuration:  models.MaxPlaylistDuration,
		maxSongs:     4,
		retries:      3,
		logger:       testLogger(),
		now:          func() time.Time { return time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC) },
	}
}

func testUser(role models.Role) *models.User {
	return &models.User{ID: bson.NewObjectID(), Role: role, IsActive: true}
}

func testSong(title string, duration int) *models.Song {
	return &models.Song{
		ID:       bson.NewObjectID(),
		Title:    title,
		Artist:   "Artist",
		Genre:    "house",
		Year:     2020,
		Duration: duration,
	}
}

func TestCreatePlaylist(t *testing.T) {
	owner := testUser(models.RoleUser)
	s1 := testSong("One", 180)
	s2 := testSong("Two", 240)
	manager := newTestManager(newFakePlaylistRepo(), newFakeSongRepo(s1, s2))

	created, err := manager.CreatePlaylist(context.Background(), owner, models.PlaylistCreateRequest{
		Name:    "Morning",
		SongIDs: []bson.ObjectID{s1.ID, s2.ID},
	})
	require.NoError(t, err)

	assert.Equal(t, "Morning", created.Name)
	assert.Equal(t, owner.ID, created.Owner)
	assert.Equal(t, models.ClassificationGeneral, created.Classification)
	assert.False(t, created.IsPublic)
	assert.Equal(t, 420, created.TotalDuration)
	require.Len(t, created.Songs, 2)
	assert.Equal(t, 0, created.Songs[0].Order)
	assert.Equal(t, 1, created.Songs[1].Order)
}

func TestCreatePlaylistRejectsInvalidRequests(t *testing.T) {
	owner := testUser(models.RoleUser)
	s1 := testSong("One", 180)
	s2 := testSong("Two", 240)
	songRepo := newFakeSongRepo(s1, s2)

	tests := []struct {
		name    string
		req     models.PlaylistCreateRequest
		wantErr error
	}{
		{
			"duplicate song",
			models.PlaylistCreateRequest{Name: "Dup", SongIDs: []bson.ObjectID{s1.ID, s1.ID}},
			models.ErrSongAlreadyInPlaylist,
		},
		{
			"unknown song",
			models.PlaylistCreateRequest{Name: "Ghost", SongIDs: []bson.ObjectID{s1.ID, bson.NewObjectID()}},
			models.ErrSongNotFound,
		},
		{
			"too many songs",
			models.PlaylistCreateRequest{Name: "Big", SongIDs: []bson.ObjectID{
				bson.NewObjectID(), bson.NewObjectID(), bson.NewObjectID(), bson.NewObjectID(), bson.NewObjectID(),
			}},
			models.ErrPlaylistFull,
		},
		{
			"unknown classification",
			models.PlaylistCreateRequest{Name: "Odd", Classification: "metalcore"},
			models.ErrInvalidInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			manager := newTestManager(newFakePlaylistRepo(), songRepo)
			_, err := manager.CreatePlaylist(context.Background(), owner, tt.req)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestCreatePlaylistEnforcesDurationCap(t *testing.T) {
	owner := testUser(models.RoleUser)
	long1 := testSong("Set A", 5500)
	long2 := testSong("Set B", 5301)
	manager := newTestManager(newFakePlaylistRepo(), newFakeSongRepo(long1, long2))

	_, err := manager.CreatePlaylist(context.Background(), owner, models.PlaylistCreateRequest{
		Name:    "Marathon",
		SongIDs: []bson.ObjectID{long1.ID, long2.ID},
	})
	assert.ErrorIs(t, err, models.ErrPlaylistTooLong)
}

func TestGetPlaylistVisibility(t *testing.T) {
	owner := testUser(models.RoleUser)
	private := &models.Playlist{Name: "Secret", Owner: owner.ID, IsPublic: false}
	repo := newFakePlaylistRepo(private)
	manager := newTestManager(repo, newFakeSongRepo())

	_, err := manager.GetPlaylist(context.Background(), nil, private.ID)
	assert.ErrorIs(t, err, models.ErrPlaylistNotFound)

	_, err = manager.GetPlaylist(context.Background(), testUser(models.RoleUser), private.ID)
	assert.ErrorIs(t, err, models.ErrPlaylistNotFound)

	got, err := manager.GetPlaylist(context.Background(), owner, private.ID)
	require.NoError(t, err)
	assert.Equal(t, private.ID, got.ID)

	got, err = manager.GetPlaylist(context.Background(), testUser(models.RoleAdmin), private.ID)
	require.NoError(t, err)
	assert.Equal(t, private.ID, got.ID)
}

func TestGetPlaylistViewOmitsUnplayableSongs(t *testing.T) {
	owner := testUser(models.RoleUser)
	playable := testSong("Playable", 200)
	restricted := testSong("Restricted", 300)
	restricted.Restricted = true
	vanishedID := bson.NewObjectID()

	playlist := &models.Playlist{
		Name:     "Mixed bag",
		Owner:    owner.ID,
		IsPublic: true,
		Songs: []models.PlaylistSong{
			{SongID: playable.ID, Order: 0},
			{SongID: restricted.ID, Order: 1},
			{SongID: vanishedID, Order: 2},
		},
		TotalDuration: 500,
	}

	manager := newTestManager(newFakePlaylistRepo(playlist), newFakeSongRepo(playable, restricted))

	view, err := manager.GetPlaylistView(context.Background(), nil, playlist.ID)
	require.NoError(t, err)

	require.Len(t, view.Songs, 1)
	assert.Equal(t, playable.ID, view.Songs[0].ID)
	assert.Equal(t, 200, view.PlayableDuration)
	// The stored total still covers every referenced song.
	assert.Equal(t, 500, view.TotalDuration)
}

func TestGetUserPlaylistsFiltersByVisibility(t *testing.T) {
	owner := testUser(models.RoleUser)
	public := &models.Playlist{Name: "Public", Owner: owner.ID, IsPublic: true}
	private := &models.Playlist{Name: "Private", Owner: owner.ID, IsPublic: false}
	repo := newFakePlaylistRepo(public, private)
	manager := newTestManager(repo, newFakeSongRepo())

	visible, err := manager.GetUserPlaylists(context.Background(), nil, owner.ID)
	require.NoError(t, err)
	require.Len(t, visible, 1)
	assert.Equal(t, public.ID, visible[0].ID)

	all, err := manager.GetUserPlaylists(context.Background(), owner, owner.ID)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestAddSong(t *testing.T) {
	owner := testUser(models.RoleUser)
	s1 := testSong("One", 180)
	s2 := testSong("Two", 240)
	playlist := &models.Playlist{
		Name:          "Build",
		Owner:         owner.ID,
		Songs:         []models.PlaylistSong{{SongID: s1.ID, Order: 0}},
		TotalDuration: 180,
	}

	manager := newTestManager(newFakePlaylistRepo(playlist), newFakeSongRepo(s1, s2))

	updated, err := manager.AddSong(context.Background(), owner, playlist.ID, s2.ID)
	require.NoError(t, err)

	require.Len(t, updated.Songs, 2)
	assert.Equal(t, s2.ID, updated.Songs[1].SongID)
	assert.Equal(t, 1, updated.Songs[1].Order)
	assert.Equal(t, 420, updated.TotalDuration)

	_, err = manager.AddSong(context.Background(), owner, playlist.ID, s2.ID)
	assert.ErrorIs(t, err, models.ErrSongAlreadyInPlaylist)
}

func TestAddSongEnforcesLimits(t *testing.T) {
	owner := testUser(models.RoleUser)
	short := testSong("Short", 60)
	long := testSong("Long", models.MaxPlaylistDuration)

	t.Run("duration cap", func(t *testing.T) {
		playlist := &models.Playlist{
			Name:          "Nearly full",
			Owner:         owner.ID,
			Songs:         []models.PlaylistSong{{SongID: short.ID, Order: 0}},
			TotalDuration: 60,
		}
		manager := newTestManager(newFakePlaylistRepo(playlist), newFakeSongRepo(short, long))

		_, err := manager.AddSong(context.Background(), owner, playlist.ID, long.ID)
		assert.ErrorIs(t, err, models.ErrPlaylistTooLong)
	})

	t.Run("stale stored total cannot mask the cap", func(t *testing.T) {
		a := testSong("A", 5350)
		b := testSong("B", 5350)
		extra := testSong("Extra", 200)
		playlist := &models.Playlist{
			Name:  "Stale",
			Owner: owner.ID,
			Songs: []models.PlaylistSong{
				{SongID: a.ID, Order: 0},
				{SongID: b.ID, Order: 1},
			},
			// Stored long before the catalog entries were re-timed.
			TotalDuration: 100,
		}
		repo := newFakePlaylistRepo(playlist)
		manager := newTestManager(repo, newFakeSongRepo(a, b, extra))

		_, err := manager.AddSong(context.Background(), owner, playlist.ID, extra.ID)
		assert.ErrorIs(t, err, models.ErrPlaylistTooLong)

		stored, findErr := repo.FindByID(context.Background(), playlist.ID)
		require.NoError(t, findErr)
		assert.Len(t, stored.Songs, 2)
	})

	t.Run("add refreshes a stale stored total", func(t *testing.T) {
		a := testSong("A", 180)
		extra := testSong("Extra", 240)
		playlist := &models.Playlist{
			Name:          "Stale",
			Owner:         owner.ID,
			Songs:         []models.PlaylistSong{{SongID: a.ID, Order: 0}},
			TotalDuration: 400,
		}
		manager := newTestManager(newFakePlaylistRepo(playlist), newFakeSongRepo(a, extra))

		updated, err := manager.AddSong(context.Background(), owner, playlist.ID, extra.ID)
		require.NoError(t, err)
		assert.Equal(t, 420, updated.TotalDuration)
	})

	t.Run("song cap", func(t *testing.T) {
		songs := []*models.Song{
			testSong("A", 60), testSong("B", 60), testSong("C", 60), testSong("D", 60),
		}
		refs := make([]models.PlaylistSong, len(songs))
		for i, s := range songs {
			refs[i] = models.PlaylistSong{SongID: s.ID, Order: i}
		}
		playlist := &models.Playlist{
			Name:          "Full",
			Owner:         owner.ID,
			Songs:         refs,
			TotalDuration: 240,
		}
		manager := newTestManager(newFakePlaylistRepo(playlist), newFakeSongRepo(append(songs, short)...))

		_, err := manager.AddSong(context.Background(), owner, playlist.ID, short.ID)
		assert.ErrorIs(t, err, models.ErrPlaylistFull)
	})
}

func TestRemoveSongRenumbersAndRecomputes(t *testing.T) {
	owner := testUser(models.RoleUser)
	s1 := testSong("One", 180)
	s2 := testSong("Two", 240)
	s3 := testSong("Three", 300)
	playlist := &models.Playlist{
		Name:  "Trim",
		Owner: owner.ID,
		Songs: []models.PlaylistSong{
			{SongID: s1.ID, Order: 0},
			{SongID: s2.ID, Order: 1},
			{SongID: s3.ID, Order: 2},
		},
		TotalDuration: 720,
	}

	manager := newTestManager(newFakePlaylistRepo(playlist), newFakeSongRepo(s1, s2, s3))

	updated, err := manager.RemoveSong(context.Background(), owner, playlist.ID, s2.ID)
	require.NoError(t, err)

	require.Len(t, updated.Songs, 2)
	assert.Equal(t, s1.ID, updated.Songs[0].SongID)
	assert.Equal(t, 0, updated.Songs[0].Order)
	assert.Equal(t, s3.ID, updated.Songs[1].SongID)
	assert.Equal(t, 1, updated.Songs[1].Order)
	assert.Equal(t, 480, updated.TotalDuration)

	_, err = manager.RemoveSong(context.Background(), owner, playlist.ID, s2.ID)
	assert.ErrorIs(t, err, models.ErrSongNotInPlaylist)
}

func TestRemoveSongRefreshesStaleDurations(t *testing.T) {
	owner := testUser(models.RoleUser)
	s1 := testSong("One", 180)
	s2 := testSong("Two", 240)
	playlist := &models.Playlist{
		Name:  "Stale",
		Owner: owner.ID,
		Songs: []models.PlaylistSong{
			{SongID: s1.ID, Order: 0},
			{SongID: s2.ID, Order: 1},
		},
		// Stored before the catalog entry for s1 was re-timed.
		TotalDuration: 400,
	}

	manager := newTestManager(newFakePlaylistRepo(playlist), newFakeSongRepo(s1, s2))

	updated, err := manager.RemoveSong(context.Background(), owner, playlist.ID, s2.ID)
	require.NoError(t, err)
	assert.Equal(t, 180, updated.TotalDuration)
}

func TestReorder(t *testing.T) {
	owner := testUser(models.RoleUser)
	s1 := testSong("One", 180)
	s2 := testSong("Two", 240)
	s3 := testSong("Three", 300)
	newPlaylist := func() *models.Playlist {
		return &models.Playlist{
			Name:  "Order",
			Owner: owner.ID,
			Songs: []models.PlaylistSong{
				{SongID: s1.ID, Order: 0},
				{SongID: s2.ID, Order: 1},
				{SongID: s3.ID, Order: 2},
			},
			TotalDuration: 720,
		}
	}

	t.Run("valid permutation", func(t *testing.T) {
		playlist := newPlaylist()
		manager := newTestManager(newFakePlaylistRepo(playlist), newFakeSongRepo(s1, s2, s3))

		updated, err := manager.Reorder(context.Background(), owner, playlist.ID, []bson.ObjectID{s3.ID, s1.ID, s2.ID})
		require.NoError(t, err)

		assert.Equal(t, []bson.ObjectID{s3.ID, s1.ID, s2.ID}, updated.SongIDs())
		for i, ref := range updated.Songs {
			assert.Equal(t, i, ref.Order)
		}
		assert.Equal(t, 720, updated.TotalDuration)
	})

	invalid := []struct {
		name string
		ids  []bson.ObjectID
	}{
		{"too few ids", []bson.ObjectID{s1.ID, s2.ID}},
		{"repeated id", []bson.ObjectID{s1.ID, s1.ID, s2.ID}},
		{"foreign id", []bson.ObjectID{s1.ID, s2.ID, bson.NewObjectID()}},
	}

	for _, tt := range invalid {
		t.Run(tt.name, func(t *testing.T) {
			playlist := newPlaylist()
			manager := newTestManager(newFakePlaylistRepo(playlist), newFakeSongRepo(s1, s2, s3))

			_, err := manager.Reorder(context.Background(), owner, playlist.ID, tt.ids)
			assert.ErrorIs(t, err, models.ErrInvalidSongOrder)
		})
	}
}

func TestReplaceSongs(t *testing.T) {
	owner := testUser(models.RoleUser)
	s1 := testSong("One", 180)
	s2 := testSong("Two", 240)
	s3 := testSong("Three", 300)
	originalAddedAt := time.Date(2025, 11, 2, 9, 30, 0, 0, time.UTC)
	newPlaylist := func() *models.Playlist {
		return &models.Playlist{
			Name:  "Rework",
			Owner: owner.ID,
			Songs: []models.PlaylistSong{
				{SongID: s1.ID, Order: 0, AddedAt: originalAddedAt},
				{SongID: s2.ID, Order: 1, AddedAt: originalAddedAt},
			},
			TotalDuration: 420,
		}
	}

	t.Run("replaces list and recomputes duration", func(t *testing.T) {
		playlist := newPlaylist()
		manager := newTestManager(newFakePlaylistRepo(playlist), newFakeSongRepo(s1, s2, s3))

		updated, err := manager.ReplaceSongs(context.Background(), owner, playlist.ID, []bson.ObjectID{s3.ID, s1.ID})
		require.NoError(t, err)

		assert.Equal(t, []bson.ObjectID{s3.ID, s1.ID}, updated.SongIDs())
		for i, ref := range updated.Songs {
			assert.Equal(t, i, ref.Order)
		}
		assert.Equal(t, 480, updated.TotalDuration)

		// A kept song retains its original AddedAt, a new one is stamped now.
		assert.Equal(t, manager.now(), updated.Songs[0].AddedAt)
		assert.Equal(t, originalAddedAt, updated.Songs[1].AddedAt)
	})

	t.Run("empty list clears the playlist", func(t *testing.T) {
		playlist := newPlaylist()
		manager := newTestManager(newFakePlaylistRepo(playlist), newFakeSongRepo(s1, s2, s3))

		updated, err := manager.ReplaceSongs(context.Background(), owner, playlist.ID, nil)
		require.NoError(t, err)
		assert.Empty(t, updated.Songs)
		assert.Zero(t, updated.TotalDuration)
	})

	t.Run("duplicate id is rejected", func(t *testing.T) {
		playlist := newPlaylist()
		manager := newTestManager(newFakePlaylistRepo(playlist), newFakeSongRepo(s1, s2, s3))

		_, err := manager.ReplaceSongs(context.Background(), owner, playlist.ID, []bson.ObjectID{s1.ID, s1.ID})
		assert.ErrorIs(t, err, models.ErrSongAlreadyInPlaylist)
	})

	t.Run("unknown song is rejected", func(t *testing.T) {
		playlist := newPlaylist()
		manager := newTestManager(newFakePlaylistRepo(playlist), newFakeSongRepo(s1, s2, s3))

		_, err := manager.ReplaceSongs(context.Background(), owner, playlist.ID, []bson.ObjectID{s1.ID, bson.NewObjectID()})
		assert.ErrorIs(t, err, models.ErrSongNotFound)
	})

	t.Run("over-cap replacement leaves playlist unchanged", func(t *testing.T) {
		long := testSong("Long", models.MaxPlaylistDuration)
		playlist := newPlaylist()
		repo := newFakePlaylistRepo(playlist)
		manager := newTestManager(repo, newFakeSongRepo(s1, s2, s3, long))

		_, err := manager.ReplaceSongs(context.Background(), owner, playlist.ID, []bson.ObjectID{s1.ID, long.ID})
		assert.ErrorIs(t, err, models.ErrPlaylistTooLong)

		stored, findErr := repo.FindByID(context.Background(), playlist.ID)
		require.NoError(t, findErr)
		assert.Equal(t, []bson.ObjectID{s1.ID, s2.ID}, stored.SongIDs())
		assert.Equal(t, 420, stored.TotalDuration)
	})

	t.Run("non-owner is denied", func(t *testing.T) {
		playlist := newPlaylist()
		playlist.IsPublic = true
		manager := newTestManager(newFakePlaylistRepo(playlist), newFakeSongRepo(s1, s2, s3))

		_, err := manager.ReplaceSongs(context.Background(), testUser(models.RoleUser), playlist.ID, []bson.ObjectID{s1.ID})
		assert.ErrorIs(t, err, models.ErrAccessDenied)
	})

	t.Run("song cap applies", func(t *testing.T) {
		playlist := newPlaylist()
		manager := newTestManager(newFakePlaylistRepo(playlist), newFakeSongRepo(s1, s2, s3))

		ids := []bson.ObjectID{s1.ID, s2.ID, s3.ID, bson.NewObjectID(), bson.NewObjectID()}
		_, err := manager.ReplaceSongs(context.Background(), owner, playlist.ID, ids)
		assert.ErrorIs(t, err, models.ErrPlaylistFull)
	})
}

func TestMutationAccess(t *testing.T) {
	owner := testUser(models.RoleUser)
	stranger := testUser(models.RoleUser)
	song := testSong("One", 180)

	t.Run("hidden playlist reads as missing", func(t *testing.T) {
		private := &models.Playlist{Name: "Private", Owner: owner.ID, IsPublic: false}
		manager := newTestManager(newFakePlaylistRepo(private), newFakeSongRepo(song))

		_, err := manager.AddSong(context.Background(), stranger, private.ID, song.ID)
		assert.ErrorIs(t, err, models.ErrPlaylistNotFound)
	})

	t.Run("readable playlist mutation is denied", func(t *testing.T) {
		public := &models.Playlist{Name: "Public", Owner: owner.ID, IsPublic: true}
		manager := newTestManager(newFakePlaylistRepo(public), newFakeSongRepo(song))

		_, err := manager.AddSong(context.Background(), stranger, public.ID, song.ID)
		assert.ErrorIs(t, err, models.ErrAccessDenied)
	})

	t.Run("admin cannot edit someone else's playlist", func(t *testing.T) {
		public := &models.Playlist{Name: "Public", Owner: owner.ID, IsPublic: true}
		repo := newFakePlaylistRepo(public)
		manager := newTestManager(repo, newFakeSongRepo(song))
		admin := testUser(models.RoleAdmin)

		_, err := manager.AddSong(context.Background(), admin, public.ID, song.ID)
		assert.ErrorIs(t, err, models.ErrAccessDenied)

		err = manager.DeletePlaylist(context.Background(), admin, public.ID)
		assert.ErrorIs(t, err, models.ErrAccessDenied)

		stored, findErr := repo.FindByID(context.Background(), public.ID)
		require.NoError(t, findErr)
		assert.Empty(t, stored.Songs)
	})

	t.Run("admin sees someone else's private playlist as missing", func(t *testing.T) {
		private := &models.Playlist{Name: "Private", Owner: owner.ID, IsPublic: false}
		manager := newTestManager(newFakePlaylistRepo(private), newFakeSongRepo(song))

		_, err := manager.AddSong(context.Background(), testUser(models.RoleAdmin), private.ID, song.ID)
		assert.ErrorIs(t, err, models.ErrPlaylistNotFound)
	})
}

func TestMutateRetriesOnVersionConflict(t *testing.T) {
	owner := testUser(models.RoleUser)
	song := testSong("One", 180)

	t.Run("recovers within the retry budget", func(t *testing.T) {
		playlist := &models.Playlist{Name: "Contended", Owner: owner.ID}
		repo := newFakePlaylistRepo(playlist)
		repo.forcedConflicts = 2
		manager := newTestManager(repo, newFakeSongRepo(song))

		updated, err := manager.AddSong(context.Background(), owner, playlist.ID, song.ID)
		require.NoError(t, err)
		assert.Len(t, updated.Songs, 1)
	})

	t.Run("gives up after exhausting retries", func(t *testing.T) {
		playlist := &models.Playlist{Name: "Contended", Owner: owner.ID}
		repo := newFakePlaylistRepo(playlist)
		repo.forcedConflicts = 3
		manager := newTestManager(repo, newFakeSongRepo(song))

		_, err := manager.AddSong(context.Background(), owner, playlist.ID, song.ID)
		assert.ErrorIs(t, err, models.ErrPlaylistVersionChanged)

		stored, findErr := repo.FindByID(context.Background(), playlist.ID)
		require.NoError(t, findErr)
		assert.Empty(t, stored.Songs)
	})
}

func TestClone(t *testing.T) {
	dj := testUser(models.RoleDJ)
	cloner := testUser(models.RoleUser)
	song := testSong("One", 180)
	source := &models.Playlist{
		Name:          "Set",
		Owner:         dj.ID,
		IsPublic:      true,
		Songs:         []models.PlaylistSong{{SongID: song.ID, Order: 0}},
		TotalDuration: 180,
	}

	repo := newFakePlaylistRepo(source)
	manager := newTestManager(repo, newFakeSongRepo(song))

	clone, err := manager.Clone(context.Background(), cloner, source.ID)
	require.NoError(t, err)

	assert.Equal(t, "Set (Copy)", clone.Name)
	assert.Equal(t, cloner.ID, clone.Owner)
	assert.False(t, clone.IsPublic)
	require.NotNil(t, clone.ClonedFrom)
	assert.Equal(t, source.ID, *clone.ClonedFrom)
	assert.Equal(t, source.Songs, clone.Songs)
	assert.Equal(t, 180, clone.TotalDuration)

	_, err = manager.Clone(context.Background(), cloner, source.ID)
	assert.ErrorIs(t, err, models.ErrPlaylistAlreadyCloned)
}

func TestCloneRequiresPublicSource(t *testing.T) {
	owner := testUser(models.RoleUser)
	private := &models.Playlist{Name: "Hidden", Owner: owner.ID, IsPublic: false}
	manager := newTestManager(newFakePlaylistRepo(private), newFakeSongRepo())

	t.Run("stranger sees the source as missing", func(t *testing.T) {
		_, err := manager.Clone(context.Background(), testUser(models.RoleUser), private.ID)
		assert.ErrorIs(t, err, models.ErrPlaylistNotFound)
	})

	t.Run("owner cannot clone an unpublished source", func(t *testing.T) {
		_, err := manager.Clone(context.Background(), owner, private.ID)
		assert.ErrorIs(t, err, models.ErrAccessDenied)
	})
}

func TestTogglePublish(t *testing.T) {
	dj := testUser(models.RoleDJ)
	plain := testUser(models.RoleUser)

	t.Run("plain users cannot publish", func(t *testing.T) {
		own := &models.Playlist{Name: "Mine", Owner: plain.ID}
		manager := newTestManager(newFakePlaylistRepo(own), newFakeSongRepo())

		_, err := manager.TogglePublish(context.Background(), plain, own.ID, true)
		assert.ErrorIs(t, err, models.ErrAccessDenied)
	})

	t.Run("dj publishes own playlist", func(t *testing.T) {
		own := &models.Playlist{Name: "Set", Owner: dj.ID}
		repo := newFakePlaylistRepo(own)
		manager := newTestManager(repo, newFakeSongRepo())

		updated, err := manager.TogglePublish(context.Background(), dj, own.ID, true)
		require.NoError(t, err)
		assert.True(t, updated.IsPublic)

		stored, err := repo.FindByID(context.Background(), own.ID)
		require.NoError(t, err)
		assert.True(t, stored.IsPublic)
	})

	t.Run("already at the requested visibility", func(t *testing.T) {
		own := &models.Playlist{Name: "Set", Owner: dj.ID, IsPublic: true}
		repo := newFakePlaylistRepo(own)
		manager := newTestManager(repo, newFakeSongRepo())

		updated, err := manager.TogglePublish(context.Background(), dj, own.ID, true)
		require.NoError(t, err)
		assert.True(t, updated.IsPublic)

		// A no-op toggle does not write a new version.
		stored, err := repo.FindByID(context.Background(), own.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(1), stored.Version)
	})

	t.Run("admin unpublishes a foreign playlist", func(t *testing.T) {
		foreign := &models.Playlist{Name: "Set", Owner: dj.ID, IsPublic: true}
		manager := newTestManager(newFakePlaylistRepo(foreign), newFakeSongRepo())

		updated, err := manager.TogglePublish(context.Background(), testUser(models.RoleAdmin), foreign.ID, false)
		require.NoError(t, err)
		assert.False(t, updated.IsPublic)
	})

	t.Run("admin publishes a foreign private playlist", func(t *testing.T) {
		foreign := &models.Playlist{Name: "Hidden set", Owner: dj.ID, IsPublic: false}
		manager := newTestManager(newFakePlaylistRepo(foreign), newFakeSongRepo())

		updated, err := manager.TogglePublish(context.Background(), testUser(models.RoleAdmin), foreign.ID, true)
		require.NoError(t, err)
		assert.True(t, updated.IsPublic)
	})
}

func TestUpdatePlaylist(t *testing.T) {
	owner := testUser(models.RoleUser)
	playlist := &models.Playlist{Name: "Old", Owner: owner.ID, Classification: models.ClassificationGeneral}
	repo := newFakePlaylistRepo(playlist)
	manager := newTestManager(repo, newFakeSongRepo())

	desc := "evening spins"
	updated, err := manager.UpdatePlaylist(context.Background(), owner, playlist.ID, models.PlaylistUpdateRequest{
		Name:           "New",
		Description:    &desc,
		Classification: "club",
	})
	require.NoError(t, err)

	assert.Equal(t, "New", updated.Name)
	assert.Equal(t, "evening spins", updated.Description)
	assert.Equal(t, models.ClassificationClub, updated.Classification)

	_, err = manager.UpdatePlaylist(context.Background(), owner, playlist.ID, models.PlaylistUpdateRequest{
		Classification: "shoegaze",
	})
	assert.ErrorIs(t, err, models.ErrInvalidInput)
}

func TestDeletePlaylist(t *testing.T) {
	owner := testUser(models.RoleUser)
	playlist := &models.Playlist{Name: "Done", Owner: owner.ID}
	repo := newFakePlaylistRepo(playlist)
	manager := newTestManager(repo, newFakeSongRepo())

	err := manager.DeletePlaylist(context.Background(), testUser(models.RoleUser), playlist.ID)
	assert.ErrorIs(t, err, models.ErrPlaylistNotFound)

	require.NoError(t, manager.DeletePlaylist(context.Background(), owner, playlist.ID))

	_, err = repo.FindByID(context.Background(), playlist.ID)
	assert.ErrorIs(t, err, models.ErrPlaylistNotFound)
}
