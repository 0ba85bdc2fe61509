package routes

import (
	"time"

	"libralend/internal/adapters/cache"
	"libralend/internal/adapters/http/handlers"
	"libralend/internal/adapters/http/middleware"
	"libralend/internal/adapters/persistence/repositories"
	"libralend/internal/config"
	"libralend/internal/core/services"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// Setup wires repositories, services and handlers onto the route table.
// The loan service is returned so the cron scheduler can reuse it.
func Setup(app *fiber.App, db *gorm.DB, bookCache *cache.BookCache, cfg *config.Config) *services.LoanService {
	// Store and services
	store := repositories.NewStore(db)

	policy := services.LoanPolicy{
		LoanDays:       cfg.Loan.LoanDays,
		MaxActiveLoans: cfg.Loan.MaxActiveLoans,
		DailyFineCents: cfg.Loan.DailyFineCents,
	}

	loanService := services.NewLoanService(store, policy)
	userService := services.NewUserService(store)
	bookService := services.NewBookService(store, bookCache)
	authService := services.NewAuthService(store, cfg)

	// Handlers
	healthHandler := handlers.NewHealthHandler(db)
	authHandler := handlers.NewAuthHandler(authService)
	userHandler := handlers.NewUserHandler(userService, loanService)
	bookHandler := handlers.NewBookHandler(bookService)
	loanHandler := handlers.NewLoanHandler(loanService)

	// Health
	app.Get("/", healthHandler.Root)
	app.Get("/health", healthHandler.HealthCheck)

	api := app.Group("/api/v1")

	// Auth
	auth := api.Group("/auth")
	auth.Post("/login", middleware.AuthRateLimiter(), authHandler.Login)

	// Users
	users := api.Group("/users")
	users.Post("", middleware.AuthRateLimiter(), userHandler.Register)
	users.Get("", userHandler.List)
	users.Get("/:id", userHandler.Get)
	users.Get("/:id/loans", userHandler.Loans)

	// Books - read-mostly catalog, short client-side cache on reads
	books := api.Group("/books")
	books.Get("", middleware.CacheControl(time.Minute), bookHandler.List)
	books.Get("/:id", middleware.CacheControl(time.Minute), bookHandler.Get)
	books.Get("/:id/copies", bookHandler.ListCopies)
	books.Post("", middleware.AuthMiddleware(cfg), bookHandler.Create)
	books.Post("/:id/copies", middleware.AuthMiddleware(cfg), bookHandler.AddCopy)

	// Loans - never cacheable
	loans := api.Group("/loans", middleware.NoCacheHeaders())
	loans.Post("", loanHandler.Create)
	loans.Post("/:id/return", loanHandler.Return)
	loans.Get("/active", loanHandler.ListActive)
	loans.Get("/overdue", loanHandler.ListOverdue)
	loans.Get("/users/:user_id", loanHandler.ListByUser)

	return loanService
}
