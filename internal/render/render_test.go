package render

import (
	"bytes"
	"testing"
	"time"

	"sitehub/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func renderPage(t *testing.T, name string, data fiber.Map) string {
	t.Helper()
	engine := NewEngine(Options{})
	require.NoError(t, engine.Load())
	var buf bytes.Buffer
	require.NoError(t, engine.Render(&buf, name, data, Layout))
	return buf.String()
}

func TestRender_BlogListing(t *testing.T) {
	page := models.NewPage([]models.Blog{{Title: "First Post", Slug: "first-post", Views: 7}}, models.ResolvePage(4, 1, 3), 4)
	out := renderPage(t, PageBlogListing, fiber.Map{
		"Title":   "Blog",
		"Page":    page,
		"Search":  "first",
		"Recent":  []models.Blog{{Title: "Recent One", Slug: "recent-one"}},
		"Popular": []models.Blog{{Title: "Hot One", Slug: "hot-one", Views: 99}},
	})

	assert.Contains(t, out, "<title>Blog | SiteHub</title>")
	assert.Contains(t, out, `href="/blogs/first-post/"`)
	assert.Contains(t, out, "Recent One")
	assert.Contains(t, out, "Hot One")
	assert.Contains(t, out, "Next &raquo;")
	assert.NotContains(t, out, "&laquo; Previous")
}

func TestRender_ProductDetail(t *testing.T) {
	out := renderPage(t, PageProductDetail, fiber.Map{
		"Title": "Lamp",
		"Product": &models.Product{
			Title:        "Lamp",
			MarkedPrice:  decimal.NewFromInt(50),
			SellingPrice: decimal.RequireFromString("39.5"),
		},
	})
	assert.Contains(t, out, "39.50")
	assert.Contains(t, out, "save 10.50")
}

func TestRender_AccountFormShowsErrors(t *testing.T) {
	out := renderPage(t, PageAccountForm, fiber.Map{
		"Title":  "Change email",
		"Action": "/change-email/",
		"Submit": "Send",
		"Fields": []FormField{{Name: "new_email", Label: "New email", Type: "email", Value: "x@example.com"}},
		"Errors": map[string][]string{models.NonFieldKey: {"The new email addresses do not match."}},
	})
	assert.Contains(t, out, "The new email addresses do not match.")
	assert.Contains(t, out, `value="x@example.com"`)
}

func TestFormatDate(t *testing.T) {
	d := time.Date(2026, 2, 3, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "February 3, 2026", formatDate(d))
	assert.Equal(t, "February 3, 2026", formatDate(&d))
	assert.Equal(t, "", formatDate((*time.Time)(nil)))
	assert.Equal(t, "", formatDate(time.Time{}))
}

func TestMoney(t *testing.T) {
	assert.Equal(t, "12.00", money(decimal.NewFromInt(12)))
	assert.Equal(t, "3", money(3))
}
