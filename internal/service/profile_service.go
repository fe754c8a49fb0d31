package service

import (
	"context"

	"sitehub/internal/models"
	"sitehub/internal/repository"
	"sitehub/internal/validation"
)

// ProfileView is a user together with their profile.
type ProfileView struct {
	User    *models.User    `json:"user"`
	Profile *models.Profile `json:"profile"`
}

type ProfileService struct {
	users    repository.UserRepository
	profiles repository.ProfileRepository
}

func NewProfileService(users repository.UserRepository, profiles repository.ProfileRepository) *ProfileService {
	return &ProfileService{users: users, profiles: profiles}
}

// Get returns the user and profile, creating an empty profile for accounts
// that predate profiles.
func (s *ProfileService) Get(ctx context.Context, userID uint) (*ProfileView, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	profile, err := s.profiles.GetByUserID(ctx, userID)
	if models.HasCode(err, models.CodeNotFound) {
		profile = &models.Profile{UserID: userID}
		err = s.profiles.Create(ctx, profile)
	}
	if err != nil {
		return nil, err
	}
	return &ProfileView{User: user, Profile: profile}, nil
}

func (s *ProfileService) Update(ctx context.Context, userID uint, form validation.ProfileForm) (*ProfileView, error) {
	if err := validation.Check(&form).Err(); err != nil {
		return nil, err
	}
	view, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.profiles.UpdateBio(ctx, userID, form.Bio); err != nil {
		return nil, err
	}
	view.Profile.Bio = form.Bio
	return view, nil
}
