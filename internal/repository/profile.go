package repository

import (
	"context"

	"sitehub/internal/models"

	"gorm.io/gorm"
)

// ProfileRepository defines persistence operations for user profiles.
type ProfileRepository interface {
	GetByUserID(ctx context.Context, userID uint) (*models.Profile, error)
	Create(ctx context.Context, profile *models.Profile) error
	UpdateBio(ctx context.Context, userID uint, bio string) error
}

type profileRepository struct {
	db *gorm.DB
}

// NewProfileRepository returns a new ProfileRepository implementation.
func NewProfileRepository(db *gorm.DB) ProfileRepository {
	return &profileRepository{db: db}
}

func (r *profileRepository) GetByUserID(ctx context.Context, userID uint) (*models.Profile, error) {
	var profile models.Profile
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&profile).Error; err != nil {
		return nil, translateReadError(err, models.NewNotFoundError("Profile for user", userID))
	}
	return &profile, nil
}

func (r *profileRepository) Create(ctx context.Context, profile *models.Profile) error {
	err := r.db.WithContext(ctx).Omit("User").Create(profile).Error
	return translateWriteError(err, "Profile", "user")
}

func (r *profileRepository) UpdateBio(ctx context.Context, userID uint, bio string) error {
	res := r.db.WithContext(ctx).Model(&models.Profile{}).Where("user_id = ?", userID).Update("bio", bio)
	if res.Error != nil {
		return storeFailure(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Profile for user", userID)
	}
	return nil
}
