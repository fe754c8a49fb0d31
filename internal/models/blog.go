package models

import (
	"strings"
	"time"

	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

// Blog publication states.
const (
	BlogStatusDraft     = "draft"
	BlogStatusPublished = "published"
)

// Slugify renders s as a lowercase, hyphenated, URL-safe identifier.
func Slugify(s string) string {
	return slug.Make(strings.TrimSpace(s))
}

// Category groups blogs. Its slug is derived from the name once and then kept.
type Category struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"size:100;uniqueIndex;not null" json:"name"`
	Slug string `gorm:"size:100;uniqueIndex;not null" json:"slug"`
}

// EnsureSlug fills Slug from Name when it is empty.
func (c *Category) EnsureSlug() {
	if c.Slug == "" {
		c.Slug = Slugify(c.Name)
	}
}

// BeforeCreate derives the slug for categories created outside the service layer.
func (c *Category) BeforeCreate(_ *gorm.DB) error {
	c.EnsureSlug()
	return nil
}

// Blog is a post in the site's blog.
type Blog struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	Title         string     `gorm:"size:200" json:"title"`
	Slug          string     `gorm:"size:255;uniqueIndex;not null" json:"slug"`
	AuthorID      *uint      `gorm:"index" json:"author_id,omitempty"`
	Author        *User      `gorm:"constraint:OnDelete:SET NULL" json:"author,omitempty"`
	Content       string     `gorm:"type:text" json:"content"`
	Categories    []Category `gorm:"many2many:blog_categories;constraint:OnDelete:CASCADE" json:"categories"`
	Tags          string     `gorm:"size:255" json:"tags"`
	FeaturedImage string     `gorm:"size:255" json:"featured_image,omitempty"`
	Status        string     `gorm:"size:10;not null;default:draft" json:"status"`
	Views         int64      `gorm:"not null;default:0" json:"views"`
	CreatedAt     time.Time  `gorm:"autoCreateTime" json:"date_created"`
	UpdatedAt     time.Time  `gorm:"autoUpdateTime" json:"date_updated"`
	PublishedDate *time.Time `json:"published_date,omitempty"`
}

// EnsureSlug fills Slug from Title when it is empty.
func (b *Blog) EnsureSlug() {
	if b.Slug == "" {
		b.Slug = Slugify(b.Title)
	}
}

// BeforeCreate derives the slug for blogs created outside the service layer.
func (b *Blog) BeforeCreate(_ *gorm.DB) error {
	b.EnsureSlug()
	return nil
}

// TagList splits the comma-separated tags into trimmed, non-empty values.
func (b *Blog) TagList() []string {
	var tags []string
	for _, t := range strings.Split(b.Tags, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

// IsPublished reports whether the blog is publicly published.
func (b *Blog) IsPublished() bool {
	return b.Status == BlogStatusPublished
}

// ContactSubmission is an immutable message left through the contact form.
type ContactSubmission struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"size:100" json:"name"`
	Email       string    `gorm:"size:254;not null" json:"email"`
	Message     string    `gorm:"type:text;not null" json:"message"`
	SubmittedAt time.Time `gorm:"autoCreateTime" json:"submitted_at"`
}
