// Package render builds the HTML template engine used for site pages.
package render

import (
	"embed"
	"fmt"
	"io/fs"
	"net/http"
	"time"

	"sitehub/internal/storage"

	"github.com/gofiber/template/html/v2"
	"github.com/shopspring/decimal"
)

// Layout wraps every page.
const Layout = "layouts/base"

// Page templates.
const (
	PageHome          = "home"
	PageAbout         = "about"
	PageServices      = "services"
	PageProfile       = "profile"
	PageContact       = "contact/contact"
	PageBlogListing   = "blogs/blog_listing"
	PageBlogDetail    = "blogs/blog_detail"
	PageProductList   = "store/product_list"
	PageProductDetail = "store/product_detail"
	PageError         = "errors/error"
	PageAccountForm   = "accounts/form"
	PageAccountNotice = "accounts/notice"
)

//go:embed all:templates
var templatesFS embed.FS

// Options configures the engine. When Dir is set templates are read from disk
// instead of the embedded copy.
type Options struct {
	Dir    string
	Reload bool
}

// NewEngine returns a template engine with the site's helper functions registered.
func NewEngine(opts Options) *html.Engine {
	var engine *html.Engine
	if opts.Dir != "" {
		engine = html.New(opts.Dir, ".html")
	} else {
		sub, err := fs.Sub(templatesFS, "templates")
		if err != nil {
			panic(err)
		}
		engine = html.NewFileSystem(http.FS(sub), ".html")
	}
	engine.Reload(opts.Reload)

	engine.AddFunc("formatDate", formatDate)
	engine.AddFunc("add", func(a, b int) int { return a + b })
	engine.AddFunc("sub", func(a, b int) int { return a - b })
	engine.AddFunc("money", money)
	engine.AddFunc("mediaURL", storage.URL)
	return engine
}

func formatDate(v any) string {
	switch t := v.(type) {
	case time.Time:
		if t.IsZero() {
			return ""
		}
		return t.Format("January 2, 2006")
	case *time.Time:
		if t == nil || t.IsZero() {
			return ""
		}
		return t.Format("January 2, 2006")
	default:
		return ""
	}
}

func money(v any) string {
	switch d := v.(type) {
	case decimal.Decimal:
		return d.StringFixed(2)
	case *decimal.Decimal:
		if d == nil {
			return ""
		}
		return d.StringFixed(2)
	default:
		return fmt.Sprint(v)
	}
}

// FormField describes one input of an account form page.
type FormField struct {
	Name  string
	Label string
	Type  string
	Value string
}
