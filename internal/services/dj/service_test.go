package dj

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.uber.org/zap/zapcore"
	"norelock.dev/mixtape/backend/internal/models"
	"norelock.dev/mixtape/backend/internal/utils"
)

// fakeDjRepo is an in-memory profile store keyed by account.
type fakeDjRepo struct {
	profiles  map[bson.ObjectID]*models.DjProfile
	lastLimit int
}

func newFakeDjRepo(profiles ...*models.DjProfile) *fakeDjRepo {
	repo := &fakeDjRepo{profiles: make(map[bson.ObjectID]*models.DjProfile)}
	for _, p := range profiles {
		repo.profiles[p.UserID] = p
	}
	return repo
}

func (r *fakeDjRepo) Create(_ context.Context, profile *models.DjProfile) error {
	if _, ok := r.profiles[profile.UserID]; ok {
		return models.ErrDjProfileAlreadyExists
	}
	r.profiles[profile.UserID] = profile
	return nil
}

func (r *fakeDjRepo) FindByUserID(_ context.Context, userID bson.ObjectID) (*models.DjProfile, error) {
	p, ok := r.profiles[userID]
	if !ok {
		return nil, models.ErrDjProfileNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *fakeDjRepo) FindAll(_ context.Context, _, limit int) ([]*models.DjProfile, error) {
	r.lastLimit = limit
	var found []*models.DjProfile
	for _, p := range r.profiles {
		found = append(found, p)
	}
	return found, nil
}

func (r *fakeDjRepo) Update(_ context.Context, profile *models.DjProfile) error {
	if _, ok := r.profiles[profile.UserID]; !ok {
		return models.ErrDjProfileNotFound
	}
	r.profiles[profile.UserID] = profile
	return nil
}

func (r *fakeDjRepo) DeleteByUserID(_ context.Context, userID bson.ObjectID) error {
	if _, ok := r.profiles[userID]; !ok {
		return models.ErrDjProfileNotFound
	}
	delete(r.profiles, userID)
	return nil
}

func newTestService(repo *fakeDjRepo) *Service {
	opts := utils.DefaultLoggerOptions()
	opts.Level = zapcore.ErrorLevel

	return &Service{
		djRepo: repo,
		logger: utils.NewLogger(opts),
	}
}

func TestUpdateProfile(t *testing.T) {
	djID := bson.NewObjectID()
	dj := &models.User{ID: djID, Role: models.RoleDJ, IsActive: true}
	profile := &models.DjProfile{UserID: djID, StageName: "Old Name", Genres: []string{"house"}}

	repo := newFakeDjRepo(profile)
	service := newTestService(repo)

	bio := "Late night sets only."
	updated, err := service.UpdateProfile(context.Background(), dj, djID, models.DjProfileUpdateRequest{
		StageName: "New Name",
		Bio:       &bio,
		Genres:    []string{"house", "techno"},
	})
	require.NoError(t, err)

	assert.Equal(t, "New Name", updated.StageName)
	assert.Equal(t, bio, updated.Bio)
	assert.Equal(t, []string{"house", "techno"}, updated.Genres)
}

func TestUpdateProfileAccess(t *testing.T) {
	ownerID := bson.NewObjectID()
	profile := &models.DjProfile{UserID: ownerID, StageName: "Owner"}

	tests := []struct {
		name    string
		actor   *models.User
		wantErr error
	}{
		{"anonymous", nil, models.ErrAccessDenied},
		{"other dj", &models.User{ID: bson.NewObjectID(), Role: models.RoleDJ}, models.ErrAccessDenied},
		{"admin", &models.User{ID: bson.NewObjectID(), Role: models.RoleAdmin}, nil},
		{"owner", &models.User{ID: ownerID, Role: models.RoleDJ}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := newTestService(newFakeDjRepo(profile))
			_, err := service.UpdateProfile(context.Background(), tt.actor, ownerID, models.DjProfileUpdateRequest{StageName: "Changed"})
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestUpdateProfileMissing(t *testing.T) {
	service := newTestService(newFakeDjRepo())
	actor := &models.User{ID: bson.NewObjectID(), Role: models.RoleAdmin}

	_, err := service.UpdateProfile(context.Background(), actor, bson.NewObjectID(), models.DjProfileUpdateRequest{})
	assert.ErrorIs(t, err, models.ErrDjProfileNotFound)
}

func TestListProfilesClampsLimit(t *testing.T) {
	repo := newFakeDjRepo()
	service := newTestService(repo)

	_, err := service.ListProfiles(context.Background(), 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 20, repo.lastLimit)

	_, err = service.ListProfiles(context.Background(), 0, 500)
	require.NoError(t, err)
	assert.Equal(t, 20, repo.lastLimit)
}
