package repository

import (
	"context"

	"sitehub/internal/models"

	"gorm.io/gorm"
)

// ProductRepository defines persistence operations for storefront products.
type ProductRepository interface {
	Create(ctx context.Context, product *models.Product) error
	GetByID(ctx context.Context, id uint) (*models.Product, error)
	GetBySlug(ctx context.Context, slug string) (*models.Product, error)
	Count(ctx context.Context, category string) (int64, error)
	List(ctx context.Context, category string, limit, offset int) ([]models.Product, error)
	Categories(ctx context.Context) ([]string, error)
	Update(ctx context.Context, product *models.Product) error
	Delete(ctx context.Context, id uint) error
}

type productRepository struct {
	db *gorm.DB
}

// NewProductRepository returns a new ProductRepository implementation.
func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepository{db: db}
}

func categoryScope(category string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if category == "" {
			return db
		}
		return db.Where("category = ?", category)
	}
}

func (r *productRepository) Create(ctx context.Context, product *models.Product) error {
	err := r.db.WithContext(ctx).Create(product).Error
	return translateWriteError(err, "Product", "slug")
}

func (r *productRepository) GetByID(ctx context.Context, id uint) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).First(&product, id).Error; err != nil {
		return nil, translateReadError(err, models.NewNotFoundError("Product", id))
	}
	return &product, nil
}

func (r *productRepository) GetBySlug(ctx context.Context, slug string) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&product).Error; err != nil {
		return nil, translateReadError(err, models.NewNotFoundBySlugError("Product", slug))
	}
	return &product, nil
}

func (r *productRepository) Count(ctx context.Context, category string) (int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&models.Product{}).Scopes(categoryScope(category)).Count(&total).Error; err != nil {
		return 0, storeFailure(err)
	}
	return total, nil
}

// List returns products newest first, optionally restricted to one category.
func (r *productRepository) List(ctx context.Context, category string, limit, offset int) ([]models.Product, error) {
	var products []models.Product
	err := r.db.WithContext(ctx).
		Scopes(categoryScope(category)).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Offset(offset).
		Find(&products).Error
	if err != nil {
		return nil, storeFailure(err)
	}
	return products, nil
}

// Categories lists the distinct non-empty category labels in use.
func (r *productRepository) Categories(ctx context.Context) ([]string, error) {
	var out []string
	err := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("category <> ''").
		Distinct("category").
		Order("category ASC").
		Pluck("category", &out).Error
	if err != nil {
		return nil, storeFailure(err)
	}
	return out, nil
}

// Update writes the editable fields. Slug and creation time are kept.
func (r *productRepository) Update(ctx context.Context, product *models.Product) error {
	res := r.db.WithContext(ctx).
		Model(&models.Product{ID: product.ID}).
		Select("title", "category", "image", "marked_price", "selling_price", "description", "warranty", "return_policy", "updated_at").
		Updates(product)
	if res.Error != nil {
		return storeFailure(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Product", product.ID)
	}
	return nil
}

func (r *productRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.Product{}, id)
	if res.Error != nil {
		return storeFailure(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Product", id)
	}
	return nil
}
