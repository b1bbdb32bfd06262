package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"affiliatehub/internal/adapters/events"
	"affiliatehub/internal/adapters/http/middleware"
	"affiliatehub/internal/adapters/http/routes"
	"affiliatehub/internal/adapters/persistence/models"
	"affiliatehub/internal/config"
	"affiliatehub/internal/core/services"
	"affiliatehub/internal/pkg/ratelimit"

	"github.com/gofiber/fiber/v2"

	_ "affiliatehub/docs" // Swagger docs
)

// @title AffiliateHub API
// @version 1.0
// @description Affiliate code activation, ranking and payouts API
// @termsOfService http://swagger.io/terms/

// @contact.name API Support
// @contact.email support@affiliatehub.dev

// @license.name Apache 2.0
// @license.url http://www.apache.org/licenses/LICENSE-2.0.html

// @BasePath /api/v1
// @schemes https http

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
	// Note: sample_sales is owned by the checkout pipeline and is not migrated
	if err := models.AutoMigrate(db); err != nil {
		log.Fatalf("❌ Failed to auto migrate: %v", err)
	}
	log.Println("✅ Database migration completed")

	// Seed pre-issued affiliate codes
	if err := config.SeedData(db, cfg); err != nil {
		log.Printf("⚠️ Warning: Failed to seed data: %v", err)
	}

	// Rate limit store
	var (
		rateStore ratelimit.Store
		sweeper   services.KeySweeper
	)
	if cfg.RateLimit.Backend == "redis" {
		client, err := ratelimit.Connect(cfg.RateLimit.RedisURL)
		if err != nil {
			log.Fatalf("❌ Failed to connect to redis: %v", err)
		}
		defer client.Close()
		rateStore = ratelimit.NewRedisStore(client)
		log.Printf("✅ Rate limiting backed by redis [%s]", cfg.RateLimit.RedisURL)
	} else {
		memoryStore := ratelimit.NewMemoryStore(cfg.RateLimit.MaxKeys)
		rateStore = memoryStore
		sweeper = memoryStore
	}

	// Activation event publisher
	publisher := newPublisher(cfg)
	defer publisher.Close()

	// Create Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "AffiliateHub API v1.0",
		ErrorHandler: middleware.CustomErrorHandler,
	})

	// Setup middlewares
	middleware.Setup(app, cfg)

	// Setup routes
	svc := routes.Setup(app, db, cfg, routes.Deps{
		RateStore:   rateStore,
		Publisher:   publisher,
		HealthCheck: config.HealthCheck,
	})

	// Start background jobs (code sweep, token cleanup, limiter sweep)
	cronService := services.NewCronService(svc.Registry, svc.Auth, sweeper, cfg)
	if err := cronService.Start(); err != nil {
		log.Fatalf("❌ Failed to start cron: %v", err)
	}
	defer cronService.Stop()

	// Graceful shutdown
	go gracefulShutdown(app)

	// Start server
	log.Printf("🚀 Server starting on port %s [MODE: %s]", cfg.Port, cfg.AppMode)
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatalf("❌ Failed to start server: %v", err)
	}
}

// newPublisher returns a Kafka publisher when brokers are configured, else a log publisher
func newPublisher(cfg *config.Config) events.Publisher {
	if len(cfg.Events.KafkaBrokers) == 0 {
		return events.NewLogPublisher()
	}

	publisher, err := events.NewKafkaPublisher(cfg.Events.KafkaBrokers, cfg.Events.ActivationTopic)
	if err != nil {
		log.Printf("⚠️ Kafka publisher disabled: %v", err)
		return events.NewLogPublisher()
	}

	log.Printf("✅ Publishing activations to kafka topic %s", cfg.Events.ActivationTopic)
	return publisher
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
