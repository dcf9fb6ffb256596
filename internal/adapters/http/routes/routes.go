package routes

import (
	"github.com/villalobos-05/pagame-backend/internal/adapters/http/handlers"
	"github.com/villalobos-05/pagame-backend/internal/adapters/http/middleware"
	"github.com/villalobos-05/pagame-backend/internal/adapters/persistence/repositories"
	"github.com/villalobos-05/pagame-backend/internal/config"
	"github.com/villalobos-05/pagame-backend/internal/core/services"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
	"gorm.io/gorm"
)

// Setup configures all routes for the application
func Setup(app *fiber.App, db *gorm.DB, cfg *config.Config) {
	// Initialize repositories
	userRepo := repositories.NewUserRepository(db)
	paymentRepo := repositories.NewPaymentRepository(db)

	// Initialize services
	authService := services.NewAuthService(userRepo, cfg)
	paymentService := services.NewPaymentService(paymentRepo, userRepo)

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler()
	authHandler := handlers.NewAuthHandler(authService)
	paymentHandler := handlers.NewPaymentHandler(paymentService)

	// Health check & root routes
	app.Get("/", healthHandler.Root)
	app.Get("/health", healthHandler.HealthCheck)

	// Swagger documentation
	app.Get("/swagger/*", swagger.HandlerDefault)

	// API v1 group
	apiV1 := app.Group("/api/v1")

	// Auth routes (public except /me)
	authRoutes := apiV1.Group("/auth")
	authRoutes.Post("/sign-up", authHandler.SignUp)
	authRoutes.Post("/sign-in", authHandler.SignIn)
	authRoutes.Post("/refresh-token", authHandler.Refresh)
	authRoutes.Get("/me", middleware.AuthMiddleware(cfg), authHandler.Me)

	// Payment routes (protected)
	paymentRoutes := apiV1.Group("/payments")
	paymentRoutes.Use(middleware.AuthMiddleware(cfg))
	paymentRoutes.Post("/", paymentHandler.Create)
	paymentRoutes.Get("/", paymentHandler.List)
	paymentRoutes.Patch("/:id/pay", paymentHandler.Pay)
	paymentRoutes.Patch("/:id/check", paymentHandler.Check)
}
