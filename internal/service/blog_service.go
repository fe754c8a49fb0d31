package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"sitehub/internal/cache"
	"sitehub/internal/middleware"
	"sitehub/internal/models"
	"sitehub/internal/observability"
	"sitehub/internal/repository"
	"sitehub/internal/storage"
	"sitehub/internal/validation"

	"go.opentelemetry.io/otel/attribute"
)

const (
	// BlogPageSize is the number of blogs per listing page.
	BlogPageSize = 3
	// SideListSize is the length of the recent and popular side lists.
	SideListSize = 5
)

// ImageStore persists uploaded images.
type ImageStore interface {
	Save(prefix string, in storage.Upload) (*storage.Stored, error)
	Delete(ref string) error
}

// BlogListing is one page of blogs plus the side lists shown next to it.
type BlogListing struct {
	Page    models.Page[models.Blog] `json:"page"`
	Recent  []models.Blog            `json:"recent"`
	Popular []models.Blog            `json:"popular"`
}

// BlogDetail is a single blog plus the side lists shown next to it.
type BlogDetail struct {
	Blog    *models.Blog  `json:"blog"`
	Recent  []models.Blog `json:"recent"`
	Popular []models.Blog `json:"popular"`
}

// BlogInput carries a blog form together with the author and an optional
// featured image.
type BlogInput struct {
	Form     validation.BlogForm
	AuthorID *uint
	Image    *storage.Upload
}

type BlogService struct {
	blogs      repository.BlogRepository
	categories repository.CategoryRepository
	images     ImageStore
	now        func() time.Time
}

func NewBlogService(blogs repository.BlogRepository, categories repository.CategoryRepository, images ImageStore) *BlogService {
	return &BlogService{
		blogs:      blogs,
		categories: categories,
		images:     images,
		now:        time.Now,
	}
}

// ListBlogs returns the requested page of blogs whose title or content
// contains search, ignoring case. An empty search lists every blog. Out of
// range page numbers are clamped to the first or last page.
func (s *BlogService) ListBlogs(ctx context.Context, search string, page int) (out *BlogListing, err error) {
	search = strings.TrimSpace(search)
	ctx, end := observability.StartSpan(ctx, "BlogService.ListBlogs",
		attribute.String("blog.search", search),
		attribute.Int("blog.page", page),
	)
	defer func() { end(err) }()

	total, err := s.blogs.Count(ctx, search)
	if err != nil {
		return nil, err
	}
	window := models.ResolvePage(total, page, BlogPageSize)
	items, err := s.blogs.List(ctx, search, window.Limit, window.Offset)
	if err != nil {
		return nil, err
	}

	recent, popular, err := s.SideLists(ctx)
	if err != nil {
		return nil, err
	}

	return &BlogListing{
		Page:    models.NewPage(items, window, total),
		Recent:  recent,
		Popular: popular,
	}, nil
}

// GetBlogDetail looks a blog up by slug and counts the read as a view.
func (s *BlogService) GetBlogDetail(ctx context.Context, slug string) (out *BlogDetail, err error) {
	ctx, end := observability.StartSpan(ctx, "BlogService.GetBlogDetail", attribute.String("blog.slug", slug))
	defer func() { end(err) }()

	blog, err := s.blogs.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}

	if err := s.blogs.IncrementViews(ctx, blog.ID); err != nil {
		middleware.Logger.WarnContext(ctx, "failed to count blog view",
			slog.Uint64("blog_id", uint64(blog.ID)),
			slog.String("error", err.Error()),
		)
	} else {
		blog.Views++
		observability.BlogViews.Inc()
		cache.InvalidatePopularBlogs(ctx)
	}

	recent, popular, err := s.SideLists(ctx)
	if err != nil {
		return nil, err
	}
	return &BlogDetail{Blog: blog, Recent: recent, Popular: popular}, nil
}

// SideLists returns the newest and the most viewed blogs, served from the
// cache when one is configured.
func (s *BlogService) SideLists(ctx context.Context) (recent, popular []models.Blog, err error) {
	err = cache.Aside(ctx, cache.RecentBlogsKey, &recent, cache.SideListTTL, func() error {
		blogs, err := s.blogs.Recent(ctx, SideListSize)
		if err != nil {
			return err
		}
		recent = blogs
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	err = cache.Aside(ctx, cache.PopularBlogsKey, &popular, cache.SideListTTL, func() error {
		blogs, err := s.blogs.Popular(ctx, SideListSize)
		if err != nil {
			return err
		}
		popular = blogs
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return nonNil(recent), nonNil(popular), nil
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}

func (s *BlogService) GetBlog(ctx context.Context, id uint) (*models.Blog, error) {
	return s.blogs.GetByID(ctx, id)
}

// CreateBlog stores a new blog. The slug comes from the form or, when blank,
// from the title, and is never regenerated afterwards.
func (s *BlogService) CreateBlog(ctx context.Context, in BlogInput) (*models.Blog, error) {
	form := in.Form
	if err := form.Validate().Err(); err != nil {
		return nil, err
	}
	categories, err := s.resolveCategories(ctx, form.CategoryIDs)
	if err != nil {
		return nil, err
	}

	blog := &models.Blog{
		Title:      form.Title,
		Slug:       models.Slugify(form.Slug),
		AuthorID:   in.AuthorID,
		Content:    form.Content,
		Tags:       form.Tags,
		Status:     form.Status,
		Categories: categories,
	}
	blog.EnsureSlug()
	if blog.Slug == "" {
		return nil, models.NewFieldValidationError(map[string][]string{"title": {"Provide a title or a slug."}})
	}
	s.stampPublished(blog)

	var stored *storage.Stored
	if in.Image != nil {
		stored, err = s.images.Save(storage.PrefixBlogs, *in.Image)
		if err != nil {
			return nil, withField(err, "featured_image")
		}
		blog.FeaturedImage = stored.Ref
	}

	if err := s.blogs.Create(ctx, blog); err != nil {
		if stored != nil {
			_ = s.images.Delete(stored.Ref)
		}
		return nil, err
	}
	cache.InvalidateBlogLists(ctx)
	return blog, nil
}

// UpdateBlog edits an existing blog. The slug, author and view count are kept.
func (s *BlogService) UpdateBlog(ctx context.Context, id uint, in BlogInput) (*models.Blog, error) {
	form := in.Form
	if err := validation.Check(&form).Err(); err != nil {
		return nil, err
	}
	blog, err := s.blogs.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	categories, err := s.resolveCategories(ctx, form.CategoryIDs)
	if err != nil {
		return nil, err
	}

	blog.Title = form.Title
	blog.Content = form.Content
	blog.Tags = form.Tags
	blog.Status = form.Status
	blog.Categories = categories
	s.stampPublished(blog)

	oldImage := blog.FeaturedImage
	var stored *storage.Stored
	if in.Image != nil {
		stored, err = s.images.Save(storage.PrefixBlogs, *in.Image)
		if err != nil {
			return nil, withField(err, "featured_image")
		}
		blog.FeaturedImage = stored.Ref
	}

	if err := s.blogs.Update(ctx, blog); err != nil {
		if stored != nil && stored.Ref != oldImage {
			_ = s.images.Delete(stored.Ref)
		}
		return nil, err
	}
	if stored != nil && oldImage != "" && oldImage != stored.Ref {
		_ = s.images.Delete(oldImage)
	}
	cache.InvalidateBlogLists(ctx)
	return blog, nil
}

func (s *BlogService) DeleteBlog(ctx context.Context, id uint) error {
	blog, err := s.blogs.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.blogs.Delete(ctx, id); err != nil {
		return err
	}
	if blog.FeaturedImage != "" {
		_ = s.images.Delete(blog.FeaturedImage)
	}
	cache.InvalidateBlogLists(ctx)
	return nil
}

// stampPublished sets the publication date the first time a blog is published.
func (s *BlogService) stampPublished(blog *models.Blog) {
	if blog.IsPublished() && blog.PublishedDate == nil {
		now := s.now().UTC()
		blog.PublishedDate = &now
	}
}

func (s *BlogService) resolveCategories(ctx context.Context, ids []uint) ([]models.Category, error) {
	unique := slices.Compact(slices.Sorted(slices.Values(ids)))
	categories, err := s.categories.FindByIDs(ctx, unique)
	if err != nil {
		return nil, err
	}
	if len(categories) == len(unique) {
		return categories, nil
	}
	found := make(map[uint]bool, len(categories))
	for _, c := range categories {
		found[c.ID] = true
	}
	var msgs []string
	for _, id := range unique {
		if !found[id] {
			msgs = append(msgs, fmt.Sprintf("Select a valid choice. %d is not one of the available choices.", id))
		}
	}
	return nil, models.NewFieldValidationError(map[string][]string{"categories": msgs})
}

// withField attaches a bare validation message to field.
func withField(err error, field string) error {
	var appErr *models.AppError
	if errors.As(err, &appErr) && appErr.Code == models.CodeValidation && len(appErr.Fields) == 0 {
		return models.NewFieldValidationError(map[string][]string{field: {appErr.Message}})
	}
	return err
}
