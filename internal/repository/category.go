package repository

import (
	"context"

	"sitehub/internal/models"

	"gorm.io/gorm"
)

// CategoryRepository defines persistence operations for blog categories.
type CategoryRepository interface {
	Create(ctx context.Context, category *models.Category) error
	GetByID(ctx context.Context, id uint) (*models.Category, error)
	GetBySlug(ctx context.Context, slug string) (*models.Category, error)
	FindByIDs(ctx context.Context, ids []uint) ([]models.Category, error)
	List(ctx context.Context) ([]models.Category, error)
	Update(ctx context.Context, category *models.Category) error
	Delete(ctx context.Context, id uint) error
}

type categoryRepository struct {
	db *gorm.DB
}

// NewCategoryRepository returns a new CategoryRepository implementation.
func NewCategoryRepository(db *gorm.DB) CategoryRepository {
	return &categoryRepository{db: db}
}

func (r *categoryRepository) Create(ctx context.Context, category *models.Category) error {
	err := r.db.WithContext(ctx).Create(category).Error
	return translateWriteError(err, "Category", conflictFieldFor(err, "slug", "name", "slug"))
}

func (r *categoryRepository) GetByID(ctx context.Context, id uint) (*models.Category, error) {
	var category models.Category
	if err := r.db.WithContext(ctx).First(&category, id).Error; err != nil {
		return nil, translateReadError(err, models.NewNotFoundError("Category", id))
	}
	return &category, nil
}

func (r *categoryRepository) GetBySlug(ctx context.Context, slug string) (*models.Category, error) {
	var category models.Category
	if err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&category).Error; err != nil {
		return nil, translateReadError(err, models.NewNotFoundBySlugError("Category", slug))
	}
	return &category, nil
}

func (r *categoryRepository) FindByIDs(ctx context.Context, ids []uint) ([]models.Category, error) {
	if len(ids) == 0 {
		return []models.Category{}, nil
	}
	var categories []models.Category
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Order("name ASC").Find(&categories).Error; err != nil {
		return nil, storeFailure(err)
	}
	return categories, nil
}

func (r *categoryRepository) List(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&categories).Error; err != nil {
		return nil, storeFailure(err)
	}
	return categories, nil
}

// Update renames a category. The slug assigned at creation is kept.
func (r *categoryRepository) Update(ctx context.Context, category *models.Category) error {
	res := r.db.WithContext(ctx).Model(&models.Category{ID: category.ID}).Update("name", category.Name)
	if res.Error != nil {
		return translateWriteError(res.Error, "Category", "name")
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Category", category.ID)
	}
	return nil
}

func (r *categoryRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM blog_categories WHERE category_id = ?", id).Error; err != nil {
			return storeFailure(err)
		}
		res := tx.Delete(&models.Category{}, id)
		if res.Error != nil {
			return storeFailure(res.Error)
		}
		if res.RowsAffected == 0 {
			return models.NewNotFoundError("Category", id)
		}
		return nil
	})
}
