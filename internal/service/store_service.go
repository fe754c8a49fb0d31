package service

import (
	"context"
	"strings"

	"sitehub/internal/cache"
	"sitehub/internal/models"
	"sitehub/internal/observability"
	"sitehub/internal/repository"
	"sitehub/internal/storage"
	"sitehub/internal/validation"

	"go.opentelemetry.io/otel/attribute"
)

const (
	// ProductPageSize is the number of products per listing page.
	ProductPageSize = 8
	// OrderPageSize is the number of orders per page of a customer's history.
	OrderPageSize = 20

	msgNotCustomer = "Invalid credentials"
)

// ProductInput carries a product form together with an optional image.
type ProductInput struct {
	Form  validation.ProductForm
	Image *storage.Upload
}

// CustomerAccount is a newly registered user and its customer record.
type CustomerAccount struct {
	User     *models.User     `json:"user"`
	Customer *models.Customer `json:"customer"`
}

type StoreService struct {
	users     repository.UserRepository
	customers repository.CustomerRepository
	products  repository.ProductRepository
	orders    repository.OrderRepository
	images    ImageStore
}

func NewStoreService(
	users repository.UserRepository,
	customers repository.CustomerRepository,
	products repository.ProductRepository,
	orders repository.OrderRepository,
	images ImageStore,
) *StoreService {
	return &StoreService{
		users:     users,
		customers: customers,
		products:  products,
		orders:    orders,
		images:    images,
	}
}

// ListProducts returns a page of products, newest first, optionally limited
// to one category.
func (s *StoreService) ListProducts(ctx context.Context, category string, page int) (out *models.Page[models.Product], err error) {
	category = strings.TrimSpace(category)
	ctx, end := observability.StartSpan(ctx, "StoreService.ListProducts",
		attribute.String("product.category", category),
		attribute.Int("product.page", page),
	)
	defer func() { end(err) }()

	total, err := s.products.Count(ctx, category)
	if err != nil {
		return nil, err
	}
	window := models.ResolvePage(total, page, ProductPageSize)
	items, err := s.products.List(ctx, category, window.Limit, window.Offset)
	if err != nil {
		return nil, err
	}
	p := models.NewPage(items, window, total)
	return &p, nil
}

func (s *StoreService) Categories(ctx context.Context) ([]string, error) {
	categories, err := s.products.Categories(ctx)
	if err != nil {
		return nil, err
	}
	return nonNil(categories), nil
}

// GetProduct looks a product up by slug through the product cache.
func (s *StoreService) GetProduct(ctx context.Context, slug string) (out *models.Product, err error) {
	ctx, end := observability.StartSpan(ctx, "StoreService.GetProduct", attribute.String("product.slug", slug))
	defer func() { end(err) }()

	var product models.Product
	err = cache.Aside(ctx, cache.ProductKey(slug), &product, cache.ProductTTL, func() error {
		p, err := s.products.GetBySlug(ctx, slug)
		if err != nil {
			return err
		}
		product = *p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// CreateProduct stores a new product with a slug derived from its title.
func (s *StoreService) CreateProduct(ctx context.Context, in ProductInput) (*models.Product, error) {
	form := in.Form
	if err := form.Validate().Err(); err != nil {
		return nil, err
	}
	product := &models.Product{Slug: models.Slugify(form.Title)}
	form.Apply(product)
	if product.Slug == "" {
		return nil, models.NewFieldValidationError(map[string][]string{"title": {"Enter a title that contains letters or digits."}})
	}

	stored, err := s.saveImage(in.Image)
	if err != nil {
		return nil, err
	}
	if stored != nil {
		product.Image = stored.Ref
	}
	if err := s.products.Create(ctx, product); err != nil {
		if stored != nil {
			_ = s.images.Delete(stored.Ref)
		}
		return nil, err
	}
	return product, nil
}

// UpdateProduct edits a product. The slug assigned at creation is kept.
func (s *StoreService) UpdateProduct(ctx context.Context, id uint, in ProductInput) (*models.Product, error) {
	form := in.Form
	if err := form.Validate().Err(); err != nil {
		return nil, err
	}
	product, err := s.products.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	form.Apply(product)

	oldImage := product.Image
	stored, err := s.saveImage(in.Image)
	if err != nil {
		return nil, err
	}
	if stored != nil {
		product.Image = stored.Ref
	}
	if err := s.products.Update(ctx, product); err != nil {
		if stored != nil && stored.Ref != oldImage {
			_ = s.images.Delete(stored.Ref)
		}
		return nil, err
	}
	if stored != nil && oldImage != "" && oldImage != stored.Ref {
		_ = s.images.Delete(oldImage)
	}
	cache.InvalidateProduct(ctx, product.Slug)
	return product, nil
}

func (s *StoreService) DeleteProduct(ctx context.Context, id uint) error {
	product, err := s.products.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.products.Delete(ctx, id); err != nil {
		return err
	}
	if product.Image != "" {
		_ = s.images.Delete(product.Image)
	}
	cache.InvalidateProduct(ctx, product.Slug)
	return nil
}

func (s *StoreService) saveImage(in *storage.Upload) (*storage.Stored, error) {
	if in == nil {
		return nil, nil
	}
	stored, err := s.images.Save(storage.PrefixProducts, *in)
	if err != nil {
		return nil, withField(err, "image")
	}
	return stored, nil
}

// RegisterCustomer creates an active user and then its customer record. The
// two writes are independent: a failure creating the customer leaves the user.
func (s *StoreService) RegisterCustomer(ctx context.Context, form validation.CustomerRegistrationForm) (*CustomerAccount, error) {
	if err := validation.Check(&form).Err(); err != nil {
		return nil, err
	}
	hash, err := HashPassword(form.Password)
	if err != nil {
		return nil, err
	}
	user := &models.User{
		Username: form.Username,
		Email:    form.Email,
		Password: hash,
		IsActive: true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	customer := &models.Customer{
		UserID:   user.ID,
		FullName: form.FullName,
		Address:  form.Address,
	}
	if err := s.customers.Create(ctx, customer); err != nil {
		return nil, err
	}
	observability.AccountEvents.WithLabelValues("customer_registered").Inc()
	return &CustomerAccount{User: user, Customer: customer}, nil
}

// LoginCustomer authenticates a user that has a customer record.
func (s *StoreService) LoginCustomer(ctx context.Context, form validation.CustomerLoginForm) (*CustomerAccount, error) {
	if err := validation.Check(&form).Err(); err != nil {
		return nil, err
	}
	user, err := authenticate(ctx, s.users, form.Username, form.Password)
	if err != nil {
		return nil, err
	}
	customer, err := s.customers.GetByUserID(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	if customer == nil || !user.IsActive {
		return nil, models.NewUnauthorizedError(msgNotCustomer)
	}
	return &CustomerAccount{User: user, Customer: customer}, nil
}

// CustomerFor returns the customer record of userID, or Forbidden when the
// user has none.
func (s *StoreService) CustomerFor(ctx context.Context, userID uint) (*models.Customer, error) {
	customer, err := s.customers.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if customer == nil {
		return nil, models.NewForbiddenError("A customer account is required")
	}
	return customer, nil
}

// Checkout places an order for the customer of userID.
func (s *StoreService) Checkout(ctx context.Context, userID uint, form validation.CheckoutForm) (out *models.Order, err error) {
	ctx, end := observability.StartSpan(ctx, "StoreService.Checkout", attribute.Int("user.id", int(userID)))
	defer func() { end(err) }()

	if err := validation.Check(&form).Err(); err != nil {
		return nil, err
	}
	customer, err := s.CustomerFor(ctx, userID)
	if err != nil {
		return nil, err
	}
	order := &models.Order{
		CustomerID:      customer.ID,
		OrderedBy:       form.OrderedBy,
		ShippingAddress: form.ShippingAddress,
		Mobile:          form.Mobile,
		Email:           form.Email,
		PaymentMethod:   form.PaymentMethod,
	}
	if err := s.orders.Create(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

// ListOrders returns a page of the customer's orders, newest first.
func (s *StoreService) ListOrders(ctx context.Context, userID uint, page int) (*models.Page[models.Order], error) {
	customer, err := s.CustomerFor(ctx, userID)
	if err != nil {
		return nil, err
	}
	total, err := s.orders.CountByCustomer(ctx, customer.ID)
	if err != nil {
		return nil, err
	}
	window := models.ResolvePage(total, page, OrderPageSize)
	items, err := s.orders.ListByCustomer(ctx, customer.ID, window.Limit, window.Offset)
	if err != nil {
		return nil, err
	}
	p := models.NewPage(items, window, total)
	return &p, nil
}

// GetOrder returns an order owned by the customer of userID. Orders of other
// customers are reported as missing.
func (s *StoreService) GetOrder(ctx context.Context, userID, orderID uint) (*models.Order, error) {
	customer, err := s.CustomerFor(ctx, userID)
	if err != nil {
		return nil, err
	}
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.CustomerID != customer.ID {
		return nil, models.NewNotFoundError("Order", orderID)
	}
	return order, nil
}
