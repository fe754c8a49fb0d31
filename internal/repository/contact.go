package repository

import (
	"context"

	"sitehub/internal/models"

	"gorm.io/gorm"
)

// ContactRepository stores contact form submissions. Submissions are
// append-only: there is no update path.
type ContactRepository interface {
	Create(ctx context.Context, submission *models.ContactSubmission) error
	Count(ctx context.Context) (int64, error)
	List(ctx context.Context, limit, offset int) ([]models.ContactSubmission, error)
}

type contactRepository struct {
	db *gorm.DB
}

// NewContactRepository returns a new ContactRepository implementation.
func NewContactRepository(db *gorm.DB) ContactRepository {
	return &contactRepository{db: db}
}

func (r *contactRepository) Create(ctx context.Context, submission *models.ContactSubmission) error {
	if err := r.db.WithContext(ctx).Create(submission).Error; err != nil {
		return translateWriteError(err, "ContactSubmission", "id")
	}
	return nil
}

func (r *contactRepository) Count(ctx context.Context) (int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&models.ContactSubmission{}).Count(&total).Error; err != nil {
		return 0, storeFailure(err)
	}
	return total, nil
}

func (r *contactRepository) List(ctx context.Context, limit, offset int) ([]models.ContactSubmission, error) {
	var out []models.ContactSubmission
	err := r.db.WithContext(ctx).
		Order("submitted_at DESC").
		Order("id DESC").
		Limit(limit).
		Offset(offset).
		Find(&out).Error
	if err != nil {
		return nil, storeFailure(err)
	}
	return out, nil
}
