package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/villalobos-05/pagame-backend/internal/adapters/http/middleware"
	"github.com/villalobos-05/pagame-backend/internal/adapters/http/routes"
	"github.com/villalobos-05/pagame-backend/internal/adapters/persistence/models"
	"github.com/villalobos-05/pagame-backend/internal/adapters/persistence/repositories"
	"github.com/villalobos-05/pagame-backend/internal/config"
	"github.com/villalobos-05/pagame-backend/internal/core/services"

	"github.com/gofiber/fiber/v2"

	_ "github.com/villalobos-05/pagame-backend/docs" // Swagger docs
)

// @title pagame API
// @version 1.0
// @description Peer-to-peer payment obligation tracker

// @host localhost:3000
// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Failed to load configuration: %v", err)
	}

	// Connect to database
	db, err := config.ConnectDatabase(cfg)
	if err != nil {
		log.Fatalf("❌ Failed to connect to database: %v", err)
	}
	defer config.CloseDatabase()

	// Auto migrate (creates tables if not exist)
	if err := models.AutoMigrate(db); err != nil {
		log.Fatalf("❌ Failed to auto migrate: %v", err)
	}
	log.Println("✅ Database migration completed")

	// Nightly cleanup of idle sessions
	sweeper := services.NewSessionSweeper(repositories.NewUserRepository(db), cfg)
	sweeper.Start()
	defer sweeper.Stop()

	// Create Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "pagame API v1.0",
		ErrorHandler: middleware.CustomErrorHandler,
	})

	// Setup middlewares
	middleware.Setup(app, cfg)

	// Setup routes (pass db and cfg for dependency injection)
	routes.Setup(app, db, cfg)

	// Graceful shutdown
	go gracefulShutdown(app)

	// Start server
	log.Printf("🚀 Server starting on port %s [MODE: %s]", cfg.Port, cfg.AppMode)
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatalf("❌ Failed to start server: %v", err)
	}
}

// gracefulShutdown handles graceful shutdown
func gracefulShutdown(app *fiber.App) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("🛑 Shutting down server...")
	if err := app.Shutdown(); err != nil {
		log.Printf("❌ Error during shutdown: %v", err)
	}
	log.Println("✅ Server stopped gracefully")
}
