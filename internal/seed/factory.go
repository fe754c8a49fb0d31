// Package seed creates demo and fixture data for development databases.
package seed

import (
	"context"
	"fmt"
	"strings"
	"time"

	"sitehub/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// DefaultPassword is the password of every generated user.
const DefaultPassword = "password123"

// Factory builds domain entities with fake content and persists them.
type Factory struct {
	db       *gorm.DB
	faker    *gofakeit.Faker
	password string
	seq      int
}

// NewFactory returns a Factory writing to db. passwordHash is stored on every
// generated user. A zero seed picks a random one.
func NewFactory(db *gorm.DB, passwordHash string, seed int64) *Factory {
	return &Factory{db: db, faker: gofakeit.New(seed), password: passwordHash}
}

// next returns a suffix that keeps generated slugs and usernames unique.
func (f *Factory) next() int {
	f.seq++
	return f.seq
}

// BuildUser returns an active, unsaved user.
func (f *Factory) BuildUser(overrides ...func(*models.User)) *models.User {
	n := f.next()
	user := &models.User{
		Username: fmt.Sprintf("%s%d", strings.ToLower(f.faker.Username()), n),
		Email:    fmt.Sprintf("user%d.%s", n, strings.ToLower(f.faker.Email())),
		Password: f.password,
		IsActive: true,
	}
	for _, override := range overrides {
		override(user)
	}
	return user
}

// CreateUser persists a generated user together with its empty profile.
func (f *Factory) CreateUser(ctx context.Context, overrides ...func(*models.User)) (*models.User, error) {
	user := f.BuildUser(overrides...)
	err := f.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(user).Error; err != nil {
			return err
		}
		return tx.Create(&models.Profile{UserID: user.ID, Bio: f.faker.Sentence(12)}).Error
	})
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

// CreateCategory persists a blog category named name, or a generated one when
// name is empty.
func (f *Factory) CreateCategory(ctx context.Context, name string) (*models.Category, error) {
	if name == "" {
		name = fmt.Sprintf("%s %d", f.faker.HackerNoun(), f.next())
	}
	category := &models.Category{Name: name}
	if err := f.db.WithContext(ctx).Create(category).Error; err != nil {
		return nil, fmt.Errorf("create category %q: %w", name, err)
	}
	return category, nil
}

// BuildBlog returns an unsaved blog by author. Roughly four in five are published.
func (f *Factory) BuildBlog(author *models.User, categories []models.Category, overrides ...func(*models.Blog)) *models.Blog {
	title := strings.TrimSuffix(f.faker.Sentence(6), ".")
	blog := &models.Blog{
		Title:      title,
		Slug:       fmt.Sprintf("%s-%d", models.Slugify(title), f.next()),
		Content:    f.faker.Paragraph(3, 4, 12, "\n\n"),
		Tags:       strings.Join([]string{f.faker.HackerVerb(), f.faker.HackerNoun()}, ", "),
		Status:     models.BlogStatusDraft,
		Views:      int64(f.faker.Number(0, 500)),
		Categories: categories,
	}
	if author != nil {
		blog.AuthorID = &author.ID
	}
	if f.faker.Number(1, 5) > 1 {
		published := f.faker.DateRange(time.Now().AddDate(0, -6, 0), time.Now()).UTC()
		blog.Status = models.BlogStatusPublished
		blog.PublishedDate = &published
	}
	for _, override := range overrides {
		override(blog)
	}
	return blog
}

// CreateBlog persists a generated blog.
func (f *Factory) CreateBlog(ctx context.Context, author *models.User, categories []models.Category, overrides ...func(*models.Blog)) (*models.Blog, error) {
	blog := f.BuildBlog(author, categories, overrides...)
	if err := f.db.WithContext(ctx).Create(blog).Error; err != nil {
		return nil, fmt.Errorf("create blog: %w", err)
	}
	return blog, nil
}

// BuildProduct returns an unsaved product whose selling price never exceeds
// its marked price.
func (f *Factory) BuildProduct(overrides ...func(*models.Product)) *models.Product {
	title := f.faker.ProductName()
	marked := decimal.NewFromFloat(f.faker.Price(5, 500)).Round(2)
	discount := decimal.NewFromInt(int64(f.faker.Number(0, 30))).Div(decimal.NewFromInt(100))
	product := &models.Product{
		Title:        title,
		Slug:         fmt.Sprintf("%s-%d", models.Slugify(title), f.next()),
		Category:     f.faker.ProductCategory(),
		MarkedPrice:  marked,
		SellingPrice: marked.Sub(marked.Mul(discount)).Round(2),
		Description:  f.faker.ProductDescription(),
		Warranty:     fmt.Sprintf("%d months", f.faker.Number(3, 24)),
		ReturnPolicy: "Returns accepted within 30 days.",
	}
	for _, override := range overrides {
		override(product)
	}
	return product
}

// CreateProduct persists a generated product.
func (f *Factory) CreateProduct(ctx context.Context, overrides ...func(*models.Product)) (*models.Product, error) {
	product := f.BuildProduct(overrides...)
	if err := f.db.WithContext(ctx).Create(product).Error; err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}
	return product, nil
}
