package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"cif-onboarding/internal/adapters/http/middleware"
	"cif-onboarding/internal/adapters/http/routes"
	"cif-onboarding/internal/adapters/persistence/repositories"
	"cif-onboarding/internal/config"
	"cif-onboarding/internal/core/services"
	"cif-onboarding/internal/pkg/logger"
	"cif-onboarding/internal/pkg/metrics"
	"cif-onboarding/internal/pkg/txguard"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"

	_ "cif-onboarding/docs" // Swagger docs
)

// @title CIF Onboarding API
// @version 1.0
// @description Stage-gated customer onboarding API
// @termsOfService http://swagger.io/terms/

// @contact.name API Support

// @license.name Apache 2.0
// @license.url http://www.apache.org/licenses/LICENSE-2.0.html

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

	if err := logger.Init(cfg.Log); err != nil {
		log.Fatalf("❌ Failed to initialize logger: %v", err)
	}

	// Connect to database
	db, err := config.ConnectDatabase(cfg)
	if err != nil {
		log.Fatalf("❌ Failed to connect to database: %v", err)
	}
	defer config.CloseDatabase()

	// Auto migrate (creates tables if not exist)
	if err := config.Migrate(db); err != nil {
		log.Fatalf("❌ Failed to auto migrate: %v", err)
	}

	// Seed reference options
	if _, err := config.SeedMasterData(context.Background(), db); err != nil {
		log.Printf("⚠️ Warning: Failed to seed master data: %v", err)
	}

	// Write-engine connection pool
	isolation, err := txguard.ParseIsolation(cfg.Database.TxIsolation)
	if err != nil {
		log.Fatalf("❌ Invalid transaction isolation: %v", err)
	}
	m := metrics.Default()
	pool, err := txguard.NewPool(db, txguard.Options{
		AcquireTimeout:  cfg.Database.AcquireTimeout,
		RollbackTimeout: cfg.Database.RollbackTimeout,
		Isolation:       isolation,
		Metrics:         m,
	})
	if err != nil {
		log.Fatalf("❌ Failed to create connection pool: %v", err)
	}
	log.Printf("✅ Connection pool ready [capacity: %d, isolation: %s]", pool.Capacity(), isolation)

	// Start maintenance cron (expired refresh tokens, stale reset keys)
	if cfg.Cron.Enabled {
		cronService := services.NewCronService(
			repositories.NewRefreshTokenRepository(db),
			repositories.NewAuthUserRepository(db),
			cfg.Cron.Schedule,
		)
		if err := cronService.Start(); err != nil {
			log.Fatalf("❌ Failed to start cron: %v", err)
		}
		defer cronService.Stop()
	}

	// Create Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "CIF Onboarding API v1.0",
		ErrorHandler: middleware.CustomErrorHandler,
		BodyLimit:    16 * 1024 * 1024, // base64 identity images
	})

	// Setup middlewares
	middleware.Setup(app, cfg)

	// Setup routes
	routes.Setup(app, routes.Dependencies{
		DB:       db,
		Pool:     pool,
		Config:   cfg,
		Metrics:  m,
		Gatherer: prometheus.DefaultGatherer,
	})

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
