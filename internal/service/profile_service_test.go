package service_test

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	app_errors "velym/backend/internal/errors"
	"velym/backend/internal/model"
	"velym/backend/internal/realtime"
	mock_repo "velym/backend/internal/repository/mocks"
	"velym/backend/internal/resources"
	"velym/backend/internal/service"
)

type fakeAvatarStore struct {
	url  string
	err  error
	body string
}

func (f *fakeAvatarStore) PutAvatar(_ context.Context, userID, _ string, r io.Reader, _ int64) (string, error) {
	b, _ := io.ReadAll(r)
	f.body = string(b)
	if f.err != nil {
		return "", f.err
	}
	return f.url + userID, nil
}

func TestProfileService_UpdateName(t *testing.T) {
	ctx := context.Background()
	repo := mock_repo.NewMockRepository(t)
	hub := realtime.NewHub(4)
	svc := service.NewProfileService(repo, nil, hub)

	sub := hub.Subscribe("alice", realtime.Filter{Table: realtime.TableProfiles, Column: "id", Value: "alice"})
	defer func() { _ = sub.Close() }()

	repo.On("UpdateProfileName", ctx, "alice", "Alice Smith").Return(&model.Profile{ID: "alice", FullName: "Alice Smith"}, nil).Once()

	p, err := svc.UpdateName(ctx, "alice", "  Alice Smith ")
	require.NoError(t, err)
	assert.Equal(t, "Alice Smith", p.FullName)
	assert.Equal(t, realtime.Update, nextEvent(t, sub).Type)

	_, err = svc.UpdateName(ctx, "alice", strings.Repeat("a", 101))
	assert.ErrorIs(t, err, app_errors.ErrValidation)
}

func TestProfileService_UploadAvatar(t *testing.T) {
	ctx := context.Background()

	t.Run("Unavailable without storage", func(t *testing.T) {
		svc := service.NewProfileService(mock_repo.NewMockRepository(t), nil, nil)
		_, err := svc.UploadAvatar(ctx, "alice", "image/png", strings.NewReader("png"), 3)
		assert.ErrorIs(t, err, app_errors.ErrUnavailable)
	})

	t.Run("Rejects non-images", func(t *testing.T) {
		svc := service.NewProfileService(mock_repo.NewMockRepository(t), &fakeAvatarStore{}, nil)
		_, err := svc.UploadAvatar(ctx, "alice", "application/pdf", strings.NewReader("pdf"), 3)
		assert.ErrorIs(t, err, app_errors.ErrValidation)
	})

	t.Run("Success", func(t *testing.T) {
		repo := mock_repo.NewMockRepository(t)
		store := &fakeAvatarStore{url: "http://cdn/avatars/"}
		svc := service.NewProfileService(repo, store, nil)
		repo.On("UpdateProfileAvatar", ctx, "alice", "http://cdn/avatars/alice").
			Return(&model.Profile{ID: "alice", AvatarURL: "http://cdn/avatars/alice"}, nil).Once()

		p, err := svc.UploadAvatar(ctx, "alice", "image/png", strings.NewReader("png-bytes"), 9)
		require.NoError(t, err)
		assert.Equal(t, "http://cdn/avatars/alice", p.AvatarURL)
		assert.Equal(t, "png-bytes", store.body)
	})

	t.Run("Upload failure", func(t *testing.T) {
		svc := service.NewProfileService(mock_repo.NewMockRepository(t), &fakeAvatarStore{err: errors.New("bucket gone")}, nil)
		_, err := svc.UploadAvatar(ctx, "alice", "image/png", strings.NewReader("png"), 3)
		assert.ErrorIs(t, err, app_errors.ErrSaveFailed)
	})
}

func TestResourceService(t *testing.T) {
	ctx := context.Background()
	catalogue, err := resources.Load()
	require.NoError(t, err)

	repo := mock_repo.NewMockRepository(t)
	svc := service.NewResourceService(repo, catalogue)

	repo.On("SeedResources", ctx, catalogue.Resources).Return(nil).Once()
	require.NoError(t, svc.Seed(ctx))

	list := []model.Resource{
		{ID: "1", Title: "Box Breathing", Category: model.CategoryExercise},
		{ID: "2", Title: "Sleep Hygiene", Category: model.CategoryExercise},
	}
	repo.On("ListResources", ctx, "").Return(list, nil).Once()
	got, err := svc.MentalHealth(ctx, "All", "sleep")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "2", got[0].ID)

	_, err = svc.MentalHealth(ctx, "Podcast", "")
	assert.ErrorIs(t, err, app_errors.ErrValidation)

	assert.Len(t, svc.Tools(), 2)
	repo.AssertNotCalled(t, "ListResources", ctx, "Podcast")
}
