package profile

import (
	"context"
	"errors"
	"fmt"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"reciperepo/domain"
	"strings"
)

type (
	ProfileService interface {
		GetMyProfile(ctx context.Context, identity domain.Identity) (domain.User, error)
		GetProfile(ctx context.Context, userID string) (domain.User, error)
		UpdateProfile(ctx context.Context, req domain.UpdateProfileRequest, identity domain.Identity) (domain.User, error)
	}

	profileService struct {
		profileRepository ProfileRepository
		logger            *zap.Logger
	}
)

func NewProfileService(profileRepository ProfileRepository, logger *zap.Logger) ProfileService {
	return &profileService{
		profileRepository: profileRepository,
		logger:            logger,
	}
}

// GetMyProfile creates the caller's profile from provider defaults when it does not exist yet.
func (s *profileService) GetMyProfile(ctx context.Context, identity domain.Identity) (domain.User, error) {
	profile, err := NewDefaultProfile(identity)
	if err != nil {
		return domain.User{}, err
	}

	if err := s.profileRepository.EnsureProfile(ctx, profile); err != nil {
		return domain.User{}, fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, err)
	}
	return ToDomainUser(profile, identity.ID), nil
}

func (s *profileService) GetProfile(ctx context.Context, userID string) (domain.User, error) {
	id, err := uuid.Parse(userID)
	if err != nil {
		return domain.User{}, domain.ErrProfileNotFound
	}

	profile, err := s.profileRepository.GetProfileByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.User{}, domain.ErrProfileNotFound
		}
		return domain.User{}, fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, err)
	}
	return ToDomainUser(profile, userID), nil
}

func (s *profileService) UpdateProfile(ctx context.Context, req domain.UpdateProfileRequest, identity domain.Identity) (domain.User, error) {
	profile, err := NewDefaultProfile(identity)
	if err != nil {
		return domain.User{}, err
	}

	username := strings.TrimSpace(req.Username)
	name := strings.TrimSpace(req.Name)
	if username == "" || name == "" {
		return domain.User{}, fmt.Errorf("%w: username and name are required", domain.ErrInvalidInput)
	}

	stored, err := s.profileRepository.GetProfileByID(ctx, profile.ID)
	switch {
	case err == nil:
		profile.AvatarURL = stored.AvatarURL
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return domain.User{}, fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, err)
	}

	profile.Username = username
	profile.Name = name
	profile.Bio = strings.TrimSpace(req.Bio)
	if req.AvatarURL != "" {
		profile.AvatarURL = req.AvatarURL
	}

	if err := s.profileRepository.UpsertProfile(ctx, profile); err != nil {
		s.logger.Error("upsert profile", zap.String("user_id", identity.ID), zap.Error(err))
		return domain.User{}, fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, err)
	}

	return s.GetProfile(ctx, identity.ID)
}
