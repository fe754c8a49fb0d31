package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Payment methods accepted at checkout.
const (
	PaymentCashOnDelivery = "cash-on-delivery"
	PaymentOnline         = "online"
)

// Customer is the storefront identity of a user. Each user has at most one.
type Customer struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"uniqueIndex;not null" json:"user_id"`
	User      *User     `gorm:"constraint:OnDelete:CASCADE" json:"user,omitempty"`
	FullName  string    `gorm:"size:200;not null" json:"full_name"`
	Address   string    `gorm:"size:200" json:"address"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"joined_on"`
}

// Product is an item offered in the storefront.
type Product struct {
	ID           uint            `gorm:"primaryKey" json:"id"`
	Title        string          `gorm:"size:200;not null" json:"title"`
	Slug         string          `gorm:"size:255;uniqueIndex;not null" json:"slug"`
	Category     string          `gorm:"size:100;index" json:"category"`
	Image        string          `gorm:"size:255" json:"image,omitempty"`
	MarkedPrice  decimal.Decimal `gorm:"type:decimal(16,2);not null" json:"marked_price"`
	SellingPrice decimal.Decimal `gorm:"type:decimal(16,2);not null" json:"selling_price"`
	Description  string          `gorm:"type:text" json:"description"`
	Warranty     string          `gorm:"size:300" json:"warranty,omitempty"`
	ReturnPolicy string          `gorm:"size:300" json:"return_policy,omitempty"`
	CreatedAt    time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

// EnsureSlug fills Slug from Title when it is empty.
func (p *Product) EnsureSlug() {
	if p.Slug == "" {
		p.Slug = Slugify(p.Title)
	}
}

// BeforeCreate derives the slug for products created outside the service layer.
func (p *Product) BeforeCreate(_ *gorm.DB) error {
	p.EnsureSlug()
	return nil
}

// Discount is the amount saved against the marked price.
func (p *Product) Discount() decimal.Decimal {
	return p.MarkedPrice.Sub(p.SellingPrice)
}

// Order is a checkout placed by a customer.
type Order struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	CustomerID      uint      `gorm:"index;not null" json:"customer_id"`
	Customer        *Customer `gorm:"constraint:OnDelete:CASCADE" json:"customer,omitempty"`
	OrderedBy       string    `gorm:"size:200;not null" json:"ordered_by"`
	ShippingAddress string    `gorm:"size:200;not null" json:"shipping_address"`
	Mobile          string    `gorm:"size:15;not null" json:"mobile"`
	Email           string    `gorm:"size:254" json:"email,omitempty"`
	PaymentMethod   string    `gorm:"size:20;not null;default:cash-on-delivery" json:"payment_method"`
	CreatedAt       time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
