package service

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"path/filepath"
	"testing"

	"sitehub/internal/models"
	"sitehub/internal/repository"
	"sitehub/internal/storage"
	"sitehub/internal/validation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 12, 12))
	for x := 0; x < 12; x++ {
		img.Set(x, x, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestBlogServiceImagesSurviveOtherOwners(t *testing.T) {
	db := setupTestDB(t)
	store := &storage.ImageStore{Dir: t.TempDir(), MaxSizeBytes: 1 << 20}
	svc := NewBlogService(repository.NewBlogRepository(db), repository.NewCategoryRepository(db), store)
	ctx := context.Background()
	content := testPNG(t)
	exists := func(blog *models.Blog) {
		t.Helper()
		assert.FileExists(t, filepath.Join(store.Dir, filepath.FromSlash(blog.FeaturedImage)))
	}

	first, err := svc.CreateBlog(ctx, BlogInput{
		Form:  validation.BlogForm{Title: "Launch Day"},
		Image: &storage.Upload{Filename: "a.png", ContentType: "image/png", Content: content},
	})
	require.NoError(t, err)
	exists(first)

	_, err = svc.CreateBlog(ctx, BlogInput{
		Form:  validation.BlogForm{Title: "Launch Day"},
		Image: &storage.Upload{Filename: "a.png", ContentType: "image/png", Content: content},
	})
	assert.True(t, models.HasCode(err, models.CodeConflict), "got %v", err)
	exists(first)

	second, err := svc.CreateBlog(ctx, BlogInput{
		Form:  validation.BlogForm{Title: "Launch Day Recap"},
		Image: &storage.Upload{Filename: "a.png", ContentType: "image/png", Content: content},
	})
	require.NoError(t, err)
	assert.NotEqual(t, first.FeaturedImage, second.FeaturedImage)

	require.NoError(t, svc.DeleteBlog(ctx, second.ID))
	exists(first)
}
