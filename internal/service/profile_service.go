package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	app_errors "velym/backend/internal/errors"
	"velym/backend/internal/model"
	"velym/backend/internal/realtime"
	"velym/backend/internal/repository"
	"velym/backend/internal/storage"
)

// MaxFullNameLength caps the profile display name in runes.
const MaxFullNameLength = 100

type ProfileService struct {
	repo    repository.ProfileRepository
	avatars storage.AvatarStore
	events  realtime.Publisher
}

// NewProfileService creates the service. avatars may be nil, in which case
// avatar uploads report ErrUnavailable.
func NewProfileService(repo repository.ProfileRepository, avatars storage.AvatarStore, events realtime.Publisher) *ProfileService {
	return &ProfileService{repo: repo, avatars: avatars, events: events}
}

func (s *ProfileService) Get(ctx context.Context, userID string) (*model.Profile, error) {
	p, err := s.repo.GetProfile(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, app_errors.ErrNotFound
		}
		return nil, fmt.Errorf("could not get profile: %w", err)
	}
	return p, nil
}

// UpdateName sets the profile's display name.
func (s *ProfileService) UpdateName(ctx context.Context, userID, fullName string) (*model.Profile, error) {
	fullName = strings.TrimSpace(fullName)
	if len([]rune(fullName)) > MaxFullNameLength {
		return nil, fmt.Errorf("%w: full name is longer than %d characters", app_errors.ErrValidation, MaxFullNameLength)
	}
	p, err := s.repo.UpdateProfileName(ctx, userID, fullName)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, app_errors.ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", app_errors.ErrSaveFailed, err)
	}
	publishChange(ctx, s.events, realtime.TableProfiles, realtime.Update, userID, map[string]string{"id": userID}, p)
	return p, nil
}

// UploadAvatar stores the image and points the profile at it.
func (s *ProfileService) UploadAvatar(ctx context.Context, userID, contentType string, r io.Reader, size int64) (*model.Profile, error) {
	if s.avatars == nil {
		return nil, fmt.Errorf("%w: avatar storage is not configured", app_errors.ErrUnavailable)
	}
	if _, ok := storage.ExtensionFor(contentType); !ok {
		return nil, fmt.Errorf("%w: avatar must be a PNG, JPEG, GIF or WebP image", app_errors.ErrValidation)
	}
	if size <= 0 || size > storage.MaxAvatarSize {
		return nil, fmt.Errorf("%w: avatar must be smaller than %d MB", app_errors.ErrValidation, storage.MaxAvatarSize>>20)
	}

	url, err := s.avatars.PutAvatar(ctx, userID, contentType, r, size)
	if err != nil {
		slog.Error("Failed to upload avatar", "user_id", userID, "error", err)
		return nil, fmt.Errorf("%w: %v", app_errors.ErrSaveFailed, err)
	}
	p, err := s.repo.UpdateProfileAvatar(ctx, userID, url)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, app_errors.ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", app_errors.ErrSaveFailed, err)
	}
	publishChange(ctx, s.events, realtime.TableProfiles, realtime.Update, userID, map[string]string{"id": userID}, p)
	return p, nil
}
