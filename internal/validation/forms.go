package validation

import (
	"sitehub/internal/models"

	"github.com/shopspring/decimal"
)

// ContactForm is a message left through the contact page. Every field is required.
type ContactForm struct {
	Name    string `json:"name" form:"name" validate:"required,max=100"`
	Email   string `json:"email" form:"email" validate:"required,email,max=254"`
	Message string `json:"message" form:"message" validate:"required,max=5000"`
}

func (f *ContactForm) normalize() {
	trim(&f.Name, &f.Email, &f.Message)
}

// BlogForm creates or edits a blog. Title may be blank only when a slug is given.
type BlogForm struct {
	Title       string `json:"title" form:"title" validate:"max=200"`
	Slug        string `json:"slug" form:"slug" validate:"max=255"`
	Content     string `json:"content" form:"content"`
	Tags        string `json:"tags" form:"tags" validate:"max=255"`
	Status      string `json:"status" form:"status" validate:"omitempty,oneof=draft published"`
	CategoryIDs []uint `json:"categories" form:"categories"`
}

func (f *BlogForm) normalize() {
	trim(&f.Title, &f.Slug, &f.Tags, &f.Status)
	if f.Status == "" {
		f.Status = models.BlogStatusDraft
	}
}

// Validate checks the tags and that the blog can be given a slug.
func (f *BlogForm) Validate() Errors {
	errs := Check(f)
	if f.Title == "" && models.Slugify(f.Slug) == "" {
		errs.Add("title", "Provide a title or a slug.")
	}
	return errs
}

// CategoryForm creates or renames a blog category.
type CategoryForm struct {
	Name string `json:"name" form:"name" validate:"required,max=100"`
	Slug string `json:"slug" form:"slug" validate:"max=100"`
}

func (f *CategoryForm) normalize() {
	trim(&f.Name, &f.Slug)
}

// ProductForm creates or edits a storefront product. Prices are decimal
// strings with at most two places.
type ProductForm struct {
	Title        string `json:"title" form:"title" validate:"required,max=200"`
	Category     string `json:"category" form:"category" validate:"max=100"`
	MarkedPrice  string `json:"marked_price" form:"marked_price" validate:"required,decimal2"`
	SellingPrice string `json:"selling_price" form:"selling_price" validate:"required,decimal2"`
	Description  string `json:"description" form:"description"`
	Warranty     string `json:"warranty" form:"warranty" validate:"max=300"`
	ReturnPolicy string `json:"return_policy" form:"return_policy" validate:"max=300"`
}

func (f *ProductForm) normalize() {
	trim(&f.Title, &f.Category, &f.MarkedPrice, &f.SellingPrice, &f.Warranty, &f.ReturnPolicy)
}

// Validate checks the tags and that the selling price does not exceed the marked price.
func (f *ProductForm) Validate() Errors {
	errs := Check(f)
	if errs.Has("marked_price") || errs.Has("selling_price") {
		return errs
	}
	marked, selling := f.Prices()
	if selling.GreaterThan(marked) {
		errs.Add("selling_price", "Selling price cannot exceed the marked price.")
	}
	return errs
}

// Prices parses both prices. Call it only after Validate succeeded.
func (f *ProductForm) Prices() (marked, selling decimal.Decimal) {
	marked, _ = decimal.NewFromString(f.MarkedPrice)
	selling, _ = decimal.NewFromString(f.SellingPrice)
	return marked.Round(2), selling.Round(2)
}

// Apply copies the form onto p. The slug is left untouched.
func (f *ProductForm) Apply(p *models.Product) {
	p.Title = f.Title
	p.Category = f.Category
	p.MarkedPrice, p.SellingPrice = f.Prices()
	p.Description = f.Description
	p.Warranty = f.Warranty
	p.ReturnPolicy = f.ReturnPolicy
}

// CustomerRegistrationForm creates a user together with its storefront customer.
type CustomerRegistrationForm struct {
	Username string `json:"username" form:"username" validate:"required,min=4,max=150"`
	Email    string `json:"email" form:"email" validate:"required,email,max=254"`
	Password string `json:"password" form:"password" validate:"required,min=8,max=128"`
	FullName string `json:"full_name" form:"full_name" validate:"required,max=200"`
	Address  string `json:"address" form:"address" validate:"max=200"`
}

func (f *CustomerRegistrationForm) normalize() {
	trim(&f.Username, &f.Email, &f.FullName, &f.Address)
}

// CustomerLoginForm signs a customer into the storefront.
type CustomerLoginForm struct {
	Username string `json:"username" form:"username" validate:"required"`
	Password string `json:"password" form:"password" validate:"required"`
}

func (f *CustomerLoginForm) normalize() {
	trim(&f.Username)
}

// CheckoutForm places an order for the signed-in customer.
type CheckoutForm struct {
	OrderedBy       string `json:"ordered_by" form:"ordered_by" validate:"required,max=200"`
	ShippingAddress string `json:"shipping_address" form:"shipping_address" validate:"required,max=200"`
	Mobile          string `json:"mobile" form:"mobile" validate:"required,numeric,max=15"`
	Email           string `json:"email" form:"email" validate:"omitempty,email,max=254"`
	PaymentMethod   string `json:"payment_method" form:"payment_method" validate:"required,oneof=cash-on-delivery online"`
}

func (f *CheckoutForm) normalize() {
	trim(&f.OrderedBy, &f.ShippingAddress, &f.Mobile, &f.Email, &f.PaymentMethod)
	if f.PaymentMethod == "" {
		f.PaymentMethod = models.PaymentCashOnDelivery
	}
}
