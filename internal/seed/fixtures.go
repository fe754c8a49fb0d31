package seed

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"sitehub/internal/models"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
)

// Fixtures is a hand-written data set loaded from YAML.
type Fixtures struct {
	Users      []UserFixture    `yaml:"users"`
	Categories []string         `yaml:"categories"`
	Blogs      []BlogFixture    `yaml:"blogs"`
	Products   []ProductFixture `yaml:"products"`
}

type UserFixture struct {
	Username string `yaml:"username"`
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
	Staff    bool   `yaml:"staff"`
}

type BlogFixture struct {
	Title      string   `yaml:"title"`
	Content    string   `yaml:"content"`
	Tags       string   `yaml:"tags"`
	Status     string   `yaml:"status"`
	Author     string   `yaml:"author"`
	Categories []string `yaml:"categories"`
}

type ProductFixture struct {
	Title        string `yaml:"title"`
	Category     string `yaml:"category"`
	MarkedPrice  string `yaml:"marked_price"`
	SellingPrice string `yaml:"selling_price"`
	Description  string `yaml:"description"`
	Warranty     string `yaml:"warranty"`
	ReturnPolicy string `yaml:"return_policy"`
}

// LoadFixtures reads and parses a fixtures file.
func LoadFixtures(path string) (*Fixtures, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixtures: %w", err)
	}
	return ParseFixtures(data)
}

// ParseFixtures decodes YAML fixtures. Unknown keys are rejected.
func ParseFixtures(data []byte) (*Fixtures, error) {
	var fx Fixtures
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&fx); err != nil {
		return nil, fmt.Errorf("parse fixtures: %w", err)
	}
	return &fx, nil
}

// ApplyFixtures writes fx. Rows are matched on their unique key (username,
// slug) and left alone when they already exist, so applying twice is harmless.
func (s *Seeder) ApplyFixtures(ctx context.Context, fx *Fixtures) (*Summary, error) {
	summary := &Summary{}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		authors := map[string]*models.User{}
		for _, u := range fx.Users {
			user, created, err := ensureUser(tx, u)
			if err != nil {
				return err
			}
			authors[u.Username] = user
			if created {
				summary.Users++
			}
		}

		categories := map[string]models.Category{}
		ensureCategory := func(name string) (models.Category, error) {
			if c, ok := categories[name]; ok {
				return c, nil
			}
			c := models.Category{Name: name, Slug: models.Slugify(name)}
			created, err := findOrCreate(tx, &c, "slug = ?", c.Slug)
			if err != nil {
				return c, fmt.Errorf("category %q: %w", name, err)
			}
			if created {
				summary.Categories++
			}
			categories[name] = c
			return c, nil
		}
		for _, name := range fx.Categories {
			if _, err := ensureCategory(name); err != nil {
				return err
			}
		}

		for _, b := range fx.Blogs {
			blog := models.Blog{
				Title:   b.Title,
				Slug:    models.Slugify(b.Title),
				Content: b.Content,
				Tags:    b.Tags,
				Status:  b.Status,
			}
			if blog.Status == "" {
				blog.Status = models.BlogStatusDraft
			}
			if blog.Status == models.BlogStatusPublished {
				now := time.Now().UTC()
				blog.PublishedDate = &now
			}
			if b.Author != "" {
				author, ok := authors[b.Author]
				if !ok {
					return fmt.Errorf("blog %q: unknown author %q", b.Title, b.Author)
				}
				blog.AuthorID = &author.ID
			}
			for _, name := range b.Categories {
				c, err := ensureCategory(name)
				if err != nil {
					return err
				}
				blog.Categories = append(blog.Categories, c)
			}
			created, err := findOrCreate(tx, &blog, "slug = ?", blog.Slug)
			if err != nil {
				return fmt.Errorf("blog %q: %w", b.Title, err)
			}
			if created {
				summary.Blogs++
			}
		}

		for _, p := range fx.Products {
			product, err := p.toModel()
			if err != nil {
				return err
			}
			created, err := findOrCreate(tx, product, "slug = ?", product.Slug)
			if err != nil {
				return fmt.Errorf("product %q: %w", p.Title, err)
			}
			if created {
				summary.Products++
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return summary, nil
}

// findOrCreate loads the row matching query into dest, or creates dest when
// there is none. It reports whether a row was created.
func findOrCreate[T any](tx *gorm.DB, dest *T, query string, args ...any) (bool, error) {
	var existing T
	res := tx.Where(query, args...).Limit(1).Find(&existing)
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected > 0 {
		*dest = existing
		return false, nil
	}
	if err := tx.Create(dest).Error; err != nil {
		return false, err
	}
	return true, nil
}

func ensureUser(tx *gorm.DB, u UserFixture) (*models.User, bool, error) {
	var existing models.User
	err := tx.Where("username = ?", u.Username).First(&existing).Error
	if err == nil {
		return &existing, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, fmt.Errorf("user %q: %w", u.Username, err)
	}

	password := u.Password
	if password == "" {
		password = DefaultPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, false, fmt.Errorf("hash password for %q: %w", u.Username, err)
	}
	user := &models.User{
		Username: u.Username,
		Email:    u.Email,
		Password: string(hash),
		IsActive: true,
		IsStaff:  u.Staff,
	}
	if err := tx.Create(user).Error; err != nil {
		return nil, false, fmt.Errorf("user %q: %w", u.Username, err)
	}
	if err := tx.Create(&models.Profile{UserID: user.ID}).Error; err != nil {
		return nil, false, fmt.Errorf("profile for %q: %w", u.Username, err)
	}
	return user, true, nil
}

func (p ProductFixture) toModel() (*models.Product, error) {
	marked, err := decimal.NewFromString(p.MarkedPrice)
	if err != nil {
		return nil, fmt.Errorf("product %q: marked_price: %w", p.Title, err)
	}
	selling, err := decimal.NewFromString(p.SellingPrice)
	if err != nil {
		return nil, fmt.Errorf("product %q: selling_price: %w", p.Title, err)
	}
	if selling.GreaterThan(marked) {
		return nil, fmt.Errorf("product %q: selling price exceeds marked price", p.Title)
	}
	return &models.Product{
		Title:        p.Title,
		Slug:         models.Slugify(p.Title),
		Category:     p.Category,
		MarkedPrice:  marked.Round(2),
		SellingPrice: selling.Round(2),
		Description:  p.Description,
		Warranty:     p.Warranty,
		ReturnPolicy: p.ReturnPolicy,
	}, nil
}
