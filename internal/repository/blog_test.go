package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"sitehub/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBlogRepository_CreateAndSlugConflict(t *testing.T) {
	db := setupTestDB(t)
	repo := NewBlogRepository(db)
	ctx := context.Background()

	first := &models.Blog{Title: "Hello World", Content: "first"}
	require.NoError(t, repo.Create(ctx, first))
	assert.Equal(t, "hello-world", first.Slug)
	assert.Equal(t, models.BlogStatusDraft, first.Status)

	err := repo.Create(ctx, &models.Blog{Title: "Hello World", Content: "second"})
	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, models.CodeConflict, appErr.Code)
	assert.Contains(t, appErr.Fields, "slug")

	got, err := repo.GetBySlug(ctx, "hello-world")
	require.NoError(t, err)
	assert.Equal(t, first.ID, got.ID)

	_, err = repo.GetBySlug(ctx, "missing")
	assert.True(t, models.HasCode(err, models.CodeNotFound))
}

func TestBlogRepository_SearchAndPaging(t *testing.T) {
	db := setupTestDB(t)
	repo := NewBlogRepository(db)
	ctx := context.Background()

	seed := []models.Blog{
		{Title: "Go Concurrency", Content: "channels and goroutines"},
		{Title: "Python Tips", Content: "Let's GO further"},
		{Title: "Gardening", Content: "tomatoes"},
		{Title: "100% Coverage", Content: "testing"},
	}
	for i := range seed {
		require.NoError(t, repo.Create(ctx, &seed[i]))
	}

	total, err := repo.Count(ctx, "go")
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)

	matched, err := repo.List(ctx, "gO", 10, 0)
	require.NoError(t, err)
	require.Len(t, matched, 2)
	assert.Equal(t, "Go Concurrency", matched[0].Title)
	assert.Equal(t, "Python Tips", matched[1].Title)

	percent, err := repo.Count(ctx, "100%")
	require.NoError(t, err)
	assert.Equal(t, int64(1), percent)

	all, err := repo.Count(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, int64(4), all)

	page2, err := repo.List(ctx, "", 3, 3)
	require.NoError(t, err)
	require.Len(t, page2, 1)
	assert.Equal(t, "100% Coverage", page2[0].Title)

	require.NoError(t, repo.Create(ctx, &models.Blog{Title: "École Notes", Content: "Crème brûlée for the ÜBER team"}))
	for _, q := range []string{"École", "école", "ÉCOLE", "BRÛLÉE", "über"} {
		n, err := repo.Count(ctx, q)
		require.NoError(t, err)
		assert.Equal(t, int64(1), n, q)
	}
}

func TestBlogRepository_RecentAndPopular(t *testing.T) {
	db := setupTestDB(t)
	repo := NewBlogRepository(db)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	var ids []uint
	for i := 0; i < 7; i++ {
		b := &models.Blog{Title: fmt.Sprintf("Post %d", i), CreatedAt: base.Add(time.Duration(i) * time.Hour)}
		require.NoError(t, repo.Create(ctx, b))
		ids = append(ids, b.ID)
	}

	recent, err := repo.Recent(ctx, 5)
	require.NoError(t, err)
	require.Len(t, recent, 5)
	assert.Equal(t, "Post 6", recent[0].Title)
	assert.Equal(t, "Post 2", recent[4].Title)

	for i := 0; i < 3; i++ {
		require.NoError(t, repo.IncrementViews(ctx, ids[1]))
	}
	require.NoError(t, repo.IncrementViews(ctx, ids[4]))

	popular, err := repo.Popular(ctx, 5)
	require.NoError(t, err)
	require.Len(t, popular, 5)
	assert.Equal(t, ids[1], popular[0].ID)
	assert.Equal(t, int64(3), popular[0].Views)
	assert.Equal(t, ids[4], popular[1].ID)
	assert.Equal(t, ids[0], popular[2].ID)
}

func TestBlogRepository_UpdateKeepsSlugAndReplacesCategories(t *testing.T) {
	db := setupTestDB(t)
	repo := NewBlogRepository(db)
	cats := NewCategoryRepository(db)
	ctx := context.Background()

	tech := &models.Category{Name: "Tech"}
	life := &models.Category{Name: "Life"}
	require.NoError(t, cats.Create(ctx, tech))
	require.NoError(t, cats.Create(ctx, life))

	blog := &models.Blog{Title: "Original", Categories: []models.Category{*tech}}
	require.NoError(t, repo.Create(ctx, blog))
	require.NoError(t, repo.IncrementViews(ctx, blog.ID))

	now := time.Now().UTC()
	blog.Title = "Renamed"
	blog.Status = models.BlogStatusPublished
	blog.PublishedDate = &now
	blog.Categories = []models.Category{*life}
	require.NoError(t, repo.Update(ctx, blog))

	got, err := repo.GetByID(ctx, blog.ID)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Title)
	assert.Equal(t, "original", got.Slug)
	assert.Equal(t, int64(1), got.Views)
	assert.True(t, got.IsPublished())
	require.Len(t, got.Categories, 1)
	assert.Equal(t, "Life", got.Categories[0].Name)

	got.Categories = nil
	require.NoError(t, repo.Update(ctx, got))
	cleared, err := repo.GetByID(ctx, blog.ID)
	require.NoError(t, err)
	assert.Empty(t, cleared.Categories)

	err = repo.Update(ctx, &models.Blog{ID: 9999, Title: "ghost"})
	assert.True(t, models.HasCode(err, models.CodeNotFound))
}

func TestBlogRepository_Delete(t *testing.T) {
	db := setupTestDB(t)
	repo := NewBlogRepository(db)
	ctx := context.Background()

	cat := &models.Category{Name: "News"}
	require.NoError(t, NewCategoryRepository(db).Create(ctx, cat))
	blog := &models.Blog{Title: "Bye", Categories: []models.Category{*cat}}
	require.NoError(t, repo.Create(ctx, blog))

	require.NoError(t, repo.Delete(ctx, blog.ID))
	_, err := repo.GetByID(ctx, blog.ID)
	assert.True(t, models.HasCode(err, models.CodeNotFound))

	var links int64
	db.Table("blog_categories").Count(&links)
	assert.Zero(t, links)

	assert.True(t, models.HasCode(repo.Delete(ctx, blog.ID), models.CodeNotFound))
}

func TestContainsPattern(t *testing.T) {
	assert.Equal(t, "%Go%", containsPattern("Go"))
	assert.Equal(t, `%50\%\_OFF%`, containsPattern("50%_OFF"))
}
