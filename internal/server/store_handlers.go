package server

import (
	"sitehub/internal/render"
	"sitehub/internal/service"
	"sitehub/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// ProductListPage handles GET /store/?category=&page=
func (s *Server) ProductListPage(c *fiber.Ctx) error {
	category := c.Query("category")
	page, err := s.storeService.ListProducts(c.UserContext(), category, pageParam(c))
	if err != nil {
		return s.fail(c, err)
	}
	categories, err := s.storeService.Categories(c.UserContext())
	if err != nil {
		return s.fail(c, err)
	}
	return s.render(c, fiber.StatusOK, render.PageProductList, fiber.Map{
		"Title":      "Store",
		"Page":       page,
		"Category":   category,
		"Categories": categories,
	})
}

// ProductDetailPage handles GET /store/:slug/
func (s *Server) ProductDetailPage(c *fiber.Ctx) error {
	product, err := s.storeService.GetProduct(c.UserContext(), c.Params("slug"))
	if err != nil {
		return s.fail(c, err)
	}
	return s.render(c, fiber.StatusOK, render.PageProductDetail, fiber.Map{
		"Title":   product.Title,
		"Product": product,
	})
}

// GetProducts handles GET /api/products
// @Summary List products
// @Tags store
// @Produce json
// @Param category query string false "Category filter"
// @Param page query int false "Page number (clamped)"
// @Success 200 {object} models.Page[models.Product]
// @Router /products [get]
func (s *Server) GetProducts(c *fiber.Ctx) error {
	page, err := s.storeService.ListProducts(c.UserContext(), c.Query("category"), pageParam(c))
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(page)
}

// GetProductCategories handles GET /api/products/categories
// @Summary List product categories in use
// @Tags store
// @Produce json
// @Success 200 {array} string
// @Router /products/categories [get]
func (s *Server) GetProductCategories(c *fiber.Ctx) error {
	categories, err := s.storeService.Categories(c.UserContext())
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(categories)
}

// GetProduct handles GET /api/products/:slug
// @Summary Get product by slug
// @Tags store
// @Produce json
// @Param slug path string true "Product slug"
// @Success 200 {object} models.Product
// @Failure 404 {object} models.ErrorResponse
// @Router /products/{slug} [get]
func (s *Server) GetProduct(c *fiber.Ctx) error {
	product, err := s.storeService.GetProduct(c.UserContext(), c.Params("slug"))
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(product)
}

func (s *Server) productInput(c *fiber.Ctx) (service.ProductInput, error) {
	var form validation.ProductForm
	if err := s.parseBody(c, &form); err != nil {
		return service.ProductInput{}, err
	}
	image, err := s.formUpload(c, "image")
	if err != nil {
		_ = s.fail(c, err)
		return service.ProductInput{}, errResponseWritten
	}
	return service.ProductInput{Form: form, Image: image}, nil
}

// CreateProduct handles POST /api/products
// @Summary Create product
// @Description The slug is derived from the title
// @Tags store
// @Accept json,mpfd
// @Produce json
// @Security BearerAuth
// @Param request body validation.ProductForm true "Product"
// @Success 201 {object} models.Product
// @Failure 400 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /products [post]
func (s *Server) CreateProduct(c *fiber.Ctx) error {
	in, err := s.productInput(c)
	if err != nil {
		return nil
	}
	product, err := s.storeService.CreateProduct(c.UserContext(), in)
	if err != nil {
		return s.fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(product)
}

// UpdateProduct handles PUT /api/products/:id
// @Summary Update product
// @Tags store
// @Accept json,mpfd
// @Produce json
// @Security BearerAuth
// @Param id path int true "Product ID"
// @Param request body validation.ProductForm true "Product"
// @Success 200 {object} models.Product
// @Failure 404 {object} models.ErrorResponse
// @Router /products/{id} [put]
func (s *Server) UpdateProduct(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	in, err := s.productInput(c)
	if err != nil {
		return nil
	}
	product, err := s.storeService.UpdateProduct(c.UserContext(), id, in)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(product)
}

// DeleteProduct handles DELETE /api/products/:id
// @Summary Delete product
// @Tags store
// @Security BearerAuth
// @Param id path int true "Product ID"
// @Success 204
// @Failure 404 {object} models.ErrorResponse
// @Router /products/{id} [delete]
func (s *Server) DeleteProduct(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.storeService.DeleteProduct(c.UserContext(), id); err != nil {
		return s.fail(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// RegisterCustomer handles POST /api/store/register
// @Summary Register a storefront customer
// @Description Creates an active user with its customer record and signs it in
// @Tags store
// @Accept json
// @Produce json
// @Param request body validation.CustomerRegistrationForm true "Customer"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /store/register [post]
func (s *Server) RegisterCustomer(c *fiber.Ctx) error {
	var form validation.CustomerRegistrationForm
	if err := s.parseBody(c, &form); err != nil {
		return nil
	}
	account, err := s.storeService.RegisterCustomer(c.UserContext(), form)
	if err != nil {
		return s.fail(c, err)
	}
	token, err := s.issueSession(c, account.User)
	if err != nil {
		return s.fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"token":    token,
		"user":     account.User,
		"customer": account.Customer,
	})
}

// LoginCustomer handles POST /api/store/login
// @Summary Log a customer in
// @Tags store
// @Accept json
// @Produce json
// @Param request body validation.CustomerLoginForm true "Credentials"
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} models.ErrorResponse
// @Router /store/login [post]
func (s *Server) LoginCustomer(c *fiber.Ctx) error {
	var form validation.CustomerLoginForm
	if err := s.parseBody(c, &form); err != nil {
		return nil
	}
	account, err := s.storeService.LoginCustomer(c.UserContext(), form)
	if err != nil {
		return s.fail(c, err)
	}
	token, err := s.issueSession(c, account.User)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(fiber.Map{
		"token":    token,
		"user":     account.User,
		"customer": account.Customer,
	})
}

// GetMyCustomer handles GET /api/store/me
// @Summary Get the signed-in customer
// @Tags store
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.Customer
// @Failure 403 {object} models.ErrorResponse
// @Router /store/me [get]
func (s *Server) GetMyCustomer(c *fiber.Ctx) error {
	customer, err := s.storeService.CustomerFor(c.UserContext(), currentUserID(c))
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(customer)
}

// Checkout handles POST /api/store/checkout
// @Summary Place an order
// @Tags store
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body validation.CheckoutForm true "Order"
// @Success 201 {object} models.Order
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Router /store/checkout [post]
func (s *Server) Checkout(c *fiber.Ctx) error {
	var form validation.CheckoutForm
	if err := s.parseBody(c, &form); err != nil {
		return nil
	}
	order, err := s.storeService.Checkout(c.UserContext(), currentUserID(c), form)
	if err != nil {
		return s.fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(order)
}

// GetMyOrders handles GET /api/store/orders
// @Summary List the signed-in customer's orders
// @Tags store
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number"
// @Success 200 {object} models.Page[models.Order]
// @Router /store/orders [get]
func (s *Server) GetMyOrders(c *fiber.Ctx) error {
	page, err := s.storeService.ListOrders(c.UserContext(), currentUserID(c), pageParam(c))
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(page)
}

// GetMyOrder handles GET /api/store/orders/:id
// @Summary Get one of the signed-in customer's orders
// @Tags store
// @Produce json
// @Security BearerAuth
// @Param id path int true "Order ID"
// @Success 200 {object} models.Order
// @Failure 404 {object} models.ErrorResponse
// @Router /store/orders/{id} [get]
func (s *Server) GetMyOrder(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	order, err := s.storeService.GetOrder(c.UserContext(), currentUserID(c), id)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(order)
}
