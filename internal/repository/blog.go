package repository

import (
	"context"
	"strings"

	"sitehub/internal/models"

	"gorm.io/gorm"
)

// BlogRepository defines persistence operations for blogs.
type BlogRepository interface {
	Create(ctx context.Context, blog *models.Blog) error
	GetByID(ctx context.Context, id uint) (*models.Blog, error)
	GetBySlug(ctx context.Context, slug string) (*models.Blog, error)
	Count(ctx context.Context, search string) (int64, error)
	List(ctx context.Context, search string, limit, offset int) ([]models.Blog, error)
	Recent(ctx context.Context, n int) ([]models.Blog, error)
	Popular(ctx context.Context, n int) ([]models.Blog, error)
	Update(ctx context.Context, blog *models.Blog) error
	Delete(ctx context.Context, id uint) error
	IncrementViews(ctx context.Context, id uint) error
}

type blogRepository struct {
	db *gorm.DB
}

// NewBlogRepository returns a new BlogRepository implementation.
func NewBlogRepository(db *gorm.DB) BlogRepository {
	return &blogRepository{db: db}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern builds a LIKE pattern matching s anywhere. Case folding is
// left to the store so both sides are lowered by the same LOWER().
func containsPattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}

// searchScope filters blogs whose title or content contains search, ignoring case.
// An empty search leaves the query unfiltered.
func searchScope(search string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if search == "" {
			return db
		}
		pattern := containsPattern(search)
		return db.Where(`LOWER(blogs.title) LIKE LOWER(?) ESCAPE '\' OR LOWER(blogs.content) LIKE LOWER(?) ESCAPE '\'`, pattern, pattern)
	}
}

func (r *blogRepository) Create(ctx context.Context, blog *models.Blog) error {
	err := r.db.WithContext(ctx).Omit("Categories.*", "Author").Create(blog).Error
	return translateWriteError(err, "Blog", "slug")
}

func (r *blogRepository) GetByID(ctx context.Context, id uint) (*models.Blog, error) {
	var blog models.Blog
	err := r.db.WithContext(ctx).Preload("Categories").Preload("Author").First(&blog, id).Error
	if err != nil {
		return nil, translateReadError(err, models.NewNotFoundError("Blog", id))
	}
	return &blog, nil
}

func (r *blogRepository) GetBySlug(ctx context.Context, slug string) (*models.Blog, error) {
	var blog models.Blog
	err := r.db.WithContext(ctx).
		Preload("Categories").
		Preload("Author").
		Where("slug = ?", slug).
		First(&blog).Error
	if err != nil {
		return nil, translateReadError(err, models.NewNotFoundBySlugError("Blog", slug))
	}
	return &blog, nil
}

func (r *blogRepository) Count(ctx context.Context, search string) (int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&models.Blog{}).Scopes(searchScope(search)).Count(&total).Error; err != nil {
		return 0, storeFailure(err)
	}
	return total, nil
}

// List returns blogs in insertion order, the order pages are numbered in.
func (r *blogRepository) List(ctx context.Context, search string, limit, offset int) ([]models.Blog, error) {
	var blogs []models.Blog
	err := r.db.WithContext(ctx).
		Scopes(searchScope(search)).
		Preload("Categories").
		Preload("Author").
		Order("blogs.id ASC").
		Limit(limit).
		Offset(offset).
		Find(&blogs).Error
	if err != nil {
		return nil, storeFailure(err)
	}
	return blogs, nil
}

func (r *blogRepository) Recent(ctx context.Context, n int) ([]models.Blog, error) {
	var blogs []models.Blog
	if err := r.db.WithContext(ctx).Order("created_at DESC").Order("id DESC").Limit(n).Find(&blogs).Error; err != nil {
		return nil, storeFailure(err)
	}
	return blogs, nil
}

func (r *blogRepository) Popular(ctx context.Context, n int) ([]models.Blog, error) {
	var blogs []models.Blog
	if err := r.db.WithContext(ctx).Order("views DESC").Order("id ASC").Limit(n).Find(&blogs).Error; err != nil {
		return nil, storeFailure(err)
	}
	return blogs, nil
}

// Update writes the editable fields and replaces the category set. The slug,
// creation time and view counter are never written here.
func (r *blogRepository) Update(ctx context.Context, blog *models.Blog) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Blog{ID: blog.ID}).
			Select("title", "author_id", "content", "tags", "featured_image", "status", "published_date", "updated_at").
			Updates(blog)
		if res.Error != nil {
			return translateWriteError(res.Error, "Blog", "slug")
		}
		if res.RowsAffected == 0 {
			return models.NewNotFoundError("Blog", blog.ID)
		}
		assoc := tx.Model(&models.Blog{ID: blog.ID}).Association("Categories")
		var err error
		if len(blog.Categories) == 0 {
			err = assoc.Clear()
		} else {
			err = assoc.Replace(blog.Categories)
		}
		if err != nil {
			return storeFailure(err)
		}
		return nil
	})
}

func (r *blogRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		blog := models.Blog{ID: id}
		if err := tx.Model(&blog).Association("Categories").Clear(); err != nil {
			return storeFailure(err)
		}
		res := tx.Delete(&models.Blog{}, id)
		if res.Error != nil {
			return storeFailure(res.Error)
		}
		if res.RowsAffected == 0 {
			return models.NewNotFoundError("Blog", id)
		}
		return nil
	})
}

// IncrementViews bumps the counter in a single UPDATE without touching updated_at.
func (r *blogRepository) IncrementViews(ctx context.Context, id uint) error {
	err := r.db.WithContext(ctx).
		Model(&models.Blog{}).
		Where("id = ?", id).
		UpdateColumn("views", gorm.Expr("views + ?", 1)).Error
	if err != nil {
		return storeFailure(err)
	}
	return nil
}
