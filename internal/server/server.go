// Package server contains the HTTP handlers for the site's pages and JSON API.
package server

import (
	"context"
	"errors"
	"log"
	"time"

	_ "sitehub/docs" // swagger docs
	"sitehub/internal/config"
	"sitehub/internal/mail"
	"sitehub/internal/middleware"
	"sitehub/internal/models"
	"sitehub/internal/render"
	"sitehub/internal/repository"
	"sitehub/internal/service"
	"sitehub/internal/storage"
	"sitehub/internal/tokens"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/swagger"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	signer         *tokens.Signer
	mailer         mail.Mailer
	images         *storage.ImageStore

	userRepo     repository.UserRepository
	profileRepo  repository.ProfileRepository
	blogRepo     repository.BlogRepository
	categoryRepo repository.CategoryRepository
	contactRepo  repository.ContactRepository
	productRepo  repository.ProductRepository
	customerRepo repository.CustomerRepository
	orderRepo    repository.OrderRepository

	blogService     *service.BlogService
	categoryService *service.CategoryService
	contactService  *service.ContactService
	accountService  *service.AccountService
	profileService  *service.ProfileService
	storeService    *service.StoreService
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// The bootstrap layer establishes DB/Redis; tests pass their own.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	s := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: middleware.InitMetrics("sitehub"),
		signer:         tokens.NewSigner(cfg.JWTSecret),
		mailer:         mail.New(cfg),
		images:         storage.NewImageStore(cfg),
	}
	s.initRepositories()
	s.initServices()
	return s, nil
}

func (s *Server) initRepositories() {
	s.userRepo = repository.NewUserRepository(s.db)
	s.profileRepo = repository.NewProfileRepository(s.db)
	s.blogRepo = repository.NewBlogRepository(s.db)
	s.categoryRepo = repository.NewCategoryRepository(s.db)
	s.contactRepo = repository.NewContactRepository(s.db)
	s.productRepo = repository.NewProductRepository(s.db)
	s.customerRepo = repository.NewCustomerRepository(s.db)
	s.orderRepo = repository.NewOrderRepository(s.db)
}

// initServices builds the services from the repositories and collaborators
// already set on s.
func (s *Server) initServices() {
	s.blogService = service.NewBlogService(s.blogRepo, s.categoryRepo, s.images)
	s.categoryService = service.NewCategoryService(s.categoryRepo)
	s.contactService = service.NewContactService(s.contactRepo)
	s.accountService = service.NewAccountService(s.userRepo, s.profileRepo, s.signer, s.mailer, s.config.SiteURL)
	s.profileService = service.NewProfileService(s.userRepo, s.profileRepo)
	s.storeService = service.NewStoreService(s.userRepo, s.customerRepo, s.productRepo, s.orderRepo, s.images)
}

// NewApp returns a Fiber app with the template engine, middleware and routes installed.
func (s *Server) NewApp() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "SiteHub",
		BodyLimit:    (s.uploadLimitMB() + 1) * 1024 * 1024,
		Views:        render.NewEngine(render.Options{Reload: s.config.TemplatesReload}),
		ErrorHandler: s.handleError,
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	return app
}

func (s *Server) uploadLimitMB() int {
	if s.config.UploadMaxSizeMB > 0 {
		return s.config.UploadMaxSizeMB
	}
	return 5
}

// handleError renders errors that escaped a handler, including unknown routes.
func (s *Server) handleError(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		if wantsJSON(c) {
			return c.Status(fe.Code).JSON(models.ErrorResponse{Error: fe.Message})
		}
		return s.renderStatus(c, fe.Code, fe.Message)
	}
	log.Printf("Error: %v", err)
	return s.fail(c, models.NewInternalError(err))
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	// Panic recovery
	app.Use(recover.New())

	// Request ID for tracing
	app.Use(requestid.New())

	// OpenTelemetry spans; a no-op unless tracing is enabled
	app.Use(middleware.TracingMiddleware())

	// Context Middleware to propagate Request ID and trace ID
	app.Use(middleware.ContextMiddleware())

	// Prometheus Metrics
	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	// Security headers. The contact page posts through an inline script.
	app.Use(helmet.New(helmet.Config{
		ContentSecurityPolicy: "default-src 'self'; script-src 'self' 'unsafe-inline'; img-src 'self' data:",
	}))

	// Structured Logging middleware (after requestid and context middleware)
	app.Use(middleware.StructuredLogger())

	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:8000,http://127.0.0.1:8000"
	}

	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
		MaxAge:           86400, // 24 hours
	}))

	// Global rate limiting (100 requests per minute per IP)
	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many requests, please try again later.",
			})
		},
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	// Health checks
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)

	// Metrics endpoint for Prometheus
	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	// Uploaded images
	app.Static(storage.URLPrefix, s.images.Dir, fiber.Static{MaxAge: 3600})

	// Site pages
	app.Get("/", s.HomePage)
	app.Get("/about", s.AboutPage)
	app.Get("/services", s.ServicesPage)
	app.Get("/contact", s.ContactPage)
	app.Post("/contact", middleware.RateLimit(s.redis, 5, 10*time.Minute, "contact"), s.SubmitContact)
	app.Get("/blogs", s.BlogListingPage)
	app.Get("/blogs/:slug", s.BlogDetailPage)
	app.Get("/store", s.ProductListPage)
	app.Get("/store/:slug", s.ProductDetailPage)
	app.Get("/profile", s.AuthRequired(), s.ProfilePage)

	// Account pages
	app.Get("/accounts/register", s.RegisterPage)
	app.Post("/accounts/register", middleware.RateLimit(s.redis, 3, 10*time.Minute, "signup"), s.Register)
	app.Get("/activate/:uidb64/:token", s.Activate)
	app.Get("/accounts/login", s.LoginPage)
	app.Post("/accounts/login", middleware.RateLimit(s.redis, 10, 5*time.Minute, "login"), s.Login)
	app.Post("/accounts/logout", s.Logout)
	app.Get("/request-reset-password", s.PasswordForgotPage)
	app.Post("/request-reset-password", middleware.RateLimit(s.redis, 3, 10*time.Minute, "password_reset"), s.RequestPasswordReset)
	app.Get("/set-new-password/:uidb64/:token", s.PasswordResetPage)
	app.Post("/set-new-password/:uidb64/:token", s.ResetPassword)
	app.Get("/change-email", s.AuthRequired(), s.EmailChangePage)
	app.Post("/change-email", s.AuthRequired(), s.RequestEmailChange)
	app.Get("/confirm-email-change/:uidb64/:token", s.ConfirmEmailChange)

	api := app.Group("/api")
	api.Get("/metrics/dashboard", monitor.New(monitor.Config{
		Title: "SiteHub Metrics Dashboard",
	}))

	// Swagger documentation
	api.Get("/swagger/*", swagger.HandlerDefault)

	// Public blog routes
	blogs := api.Group("/blogs")
	blogs.Get("/", s.GetBlogs)
	blogs.Get("/:slug", s.GetBlog)

	categories := api.Group("/categories")
	categories.Get("/", s.GetCategories)

	// Public store routes
	products := api.Group("/products")
	products.Get("/", s.GetProducts)
	products.Get("/categories", s.GetProductCategories)
	products.Get("/:slug", s.GetProduct)

	store := api.Group("/store")
	store.Post("/register", middleware.RateLimit(s.redis, 3, 10*time.Minute, "signup"), s.RegisterCustomer)
	store.Post("/login", middleware.RateLimit(s.redis, 10, 5*time.Minute, "login"), s.LoginCustomer)

	// Protected routes
	protected := api.Group("", s.AuthRequired())

	protected.Get("/profile", s.GetMyProfile)
	protected.Put("/profile", s.UpdateMyProfile)

	customer := protected.Group("/store")
	customer.Get("/me", s.GetMyCustomer)
	customer.Post("/checkout", s.Checkout)
	customer.Get("/orders", s.GetMyOrders)
	customer.Get("/orders/:id", s.GetMyOrder)

	// Staff routes
	staff := protected.Group("", s.StaffRequired())
	staff.Post("/blogs", s.CreateBlog)
	staff.Put("/blogs/:id", s.UpdateBlog)
	staff.Delete("/blogs/:id", s.DeleteBlog)
	staff.Post("/categories", s.CreateCategory)
	staff.Put("/categories/:id", s.UpdateCategory)
	staff.Delete("/categories/:id", s.DeleteCategory)
	staff.Post("/products", s.CreateProduct)
	staff.Put("/products/:id", s.UpdateProduct)
	staff.Delete("/products/:id", s.DeleteProduct)
	staff.Get("/contact", s.GetContactSubmissions)
}

// LivenessCheck reports that the process is up
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck reports whether the store is reachable. Redis is optional: without
// it the site reads straight from the database.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	sqlDB, err := s.db.DB()
	if err != nil {
		dbStatus = "unhealthy"
	} else if err := sqlDB.PingContext(ctx); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "disabled"
	if s.redis != nil {
		redisStatus = "healthy"
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if dbStatus == "unhealthy" || redisStatus == "unhealthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overallStatus,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now(),
	})
}

// Start starts the server
func (s *Server) Start() error {
	s.app = s.NewApp()
	log.Printf("Server starting on port %s...", s.config.Port)
	return s.app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			log.Printf("error shutting down HTTP server: %v", err)
		}
	}

	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			log.Printf("error closing sql DB: %v", cerr)
		}
	}

	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			log.Printf("error closing redis: %v", rerr)
		}
	}

	log.Println("Server shutdown complete")
	return nil
}
