package seed

import (
	"context"
	"fmt"
	"log"

	"sitehub/internal/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Options controls a demo seeding run.
type Options struct {
	Users    int
	Blogs    int
	Products int
	Clean    bool
	// Seed fixes the fake data generator; zero picks a random seed.
	Seed int64
}

// Summary counts the rows a run created.
type Summary struct {
	Users      int
	Categories int
	Blogs      int
	Products   int
}

// demoCategories are the blog categories every demo run starts from.
var demoCategories = []string{"News", "Tutorials", "Case Studies", "Engineering"}

// tables lists every seeded table, children before parents.
var tables = []string{
	"orders",
	"customers",
	"blog_categories",
	"blogs",
	"categories",
	"products",
	"contact_submissions",
	"profiles",
	"users",
}

// Seeder populates a database with demo data.
type Seeder struct {
	db *gorm.DB
}

func NewSeeder(db *gorm.DB) *Seeder {
	return &Seeder{db: db}
}

// ClearAll deletes every row the seeder can create. Migration bookkeeping is kept.
func (s *Seeder) ClearAll(ctx context.Context) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, table := range tables {
			if err := tx.Exec("DELETE FROM " + table).Error; err != nil {
				return fmt.Errorf("clear %s: %w", table, err)
			}
		}
		return nil
	})
}

// Run creates opts.Users users, opts.Blogs blogs spread over the demo
// categories and opts.Products products. Every user gets DefaultPassword.
func (s *Seeder) Run(ctx context.Context, opts Options) (*Summary, error) {
	if opts.Clean {
		if err := s.ClearAll(ctx); err != nil {
			return nil, err
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(DefaultPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	f := NewFactory(s.db, string(hash), opts.Seed)
	summary := &Summary{}

	users := make([]*models.User, 0, opts.Users)
	for i := 0; i < opts.Users; i++ {
		user, err := f.CreateUser(ctx)
		if err != nil {
			return summary, err
		}
		users = append(users, user)
		summary.Users++
	}

	var categories []models.Category
	if opts.Blogs > 0 {
		for _, name := range demoCategories {
			category := models.Category{Name: name, Slug: models.Slugify(name)}
			created, err := findOrCreate(s.db.WithContext(ctx), &category, "slug = ?", category.Slug)
			if err != nil {
				return summary, fmt.Errorf("ensure category %q: %w", name, err)
			}
			categories = append(categories, category)
			if created {
				summary.Categories++
			}
		}
	}

	for i := 0; i < opts.Blogs; i++ {
		var author *models.User
		if len(users) > 0 {
			author = users[i%len(users)]
		}
		picked := []models.Category{categories[i%len(categories)]}
		if _, err := f.CreateBlog(ctx, author, picked); err != nil {
			return summary, err
		}
		summary.Blogs++
	}

	for i := 0; i < opts.Products; i++ {
		if _, err := f.CreateProduct(ctx); err != nil {
			return summary, err
		}
		summary.Products++
	}

	log.Printf("seeded %d users, %d categories, %d blogs, %d products",
		summary.Users, summary.Categories, summary.Blogs, summary.Products)
	return summary, nil
}
