package routes

import (
	"time"

	"affiliatehub/internal/adapters/events"
	"affiliatehub/internal/adapters/http/handlers"
	"affiliatehub/internal/adapters/http/middleware"
	"affiliatehub/internal/adapters/identity"
	"affiliatehub/internal/adapters/persistence/repositories"
	"affiliatehub/internal/config"
	"affiliatehub/internal/core/services"
	"affiliatehub/internal/pkg/ratelimit"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
	"gorm.io/gorm"
)

// rankingMaxAge is how long clients may cache the public leaderboard
const rankingMaxAge = 30 * time.Second

// Deps are the infrastructure pieces built by main
type Deps struct {
	RateStore   ratelimit.Store
	Publisher   events.Publisher
	HealthCheck func() error
}

// Services holds the wired application services
type Services struct {
	Auth       *services.AuthService
	Activation *services.ActivationService
	Ranking    *services.RankingService
	Sales      *services.SalesService
	Codes      *services.CodeService
	Withdrawal *services.WithdrawalService
	Registry   *services.CodeRegistry
}

// NewServices builds repositories and services on db
func NewServices(db *gorm.DB, cfg *config.Config, publisher events.Publisher) *Services {
	if publisher == nil {
		publisher = events.NewLogPublisher()
	}

	// Initialize repositories
	codeRepo := repositories.NewAffiliateCodeRepository(db)
	saleRepo := repositories.NewSaleRepository(db)
	accountRepo := repositories.NewUserAccountRepository(db)
	refreshTokenRepo := repositories.NewRefreshTokenRepository(db)
	withdrawalRepo := repositories.NewWithdrawalRepository(db)
	provider := identity.NewGormProvider(db)

	// Activation workflow
	registry := services.NewCodeRegistry(codeRepo, saleRepo)
	verifier := services.NewOwnershipVerifier(saleRepo, cfg.Affiliate.OwnershipMatch)
	provisioner := services.NewIdentityProvisioner(provider, accountRepo, cfg.Affiliate.IdentityPageSize)
	linker := services.NewAccountLinker(accountRepo)

	return &Services{
		Auth:       services.NewAuthService(accountRepo, refreshTokenRepo, provider, cfg),
		Activation: services.NewActivationService(registry, verifier, provisioner, linker, codeRepo, publisher),
		Ranking: services.NewRankingService(
			saleRepo,
			accountRepo,
			cfg.Affiliate.CommissionPerSale,
			cfg.Affiliate.RankingLimit,
			cfg.Affiliate.LookupBatchSize,
		),
		Sales:      services.NewSalesService(accountRepo, saleRepo, provider),
		Codes:      services.NewCodeService(codeRepo),
		Withdrawal: services.NewWithdrawalService(withdrawalRepo),
		Registry:   registry,
	}
}

// Setup configures all routes for the application
func Setup(app *fiber.App, db *gorm.DB, cfg *config.Config, deps Deps) *Services {
	svc := NewServices(db, cfg, deps.Publisher)

	rateStore := deps.RateStore
	if rateStore == nil {
		rateStore = ratelimit.NewMemoryStore(cfg.RateLimit.MaxKeys)
	}
	window := cfg.RateLimit.Window
	activateLimiter := ratelimit.New(rateStore, "activate", cfg.RateLimit.ActivateLimit, window)
	validateLimiter := ratelimit.New(rateStore, "validate", cfg.RateLimit.ValidateLimit, window)
	loginLimiter := ratelimit.New(rateStore, "login", cfg.RateLimit.LoginLimit, window)

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler(cfg.AppMode, deps.HealthCheck)
	authHandler := handlers.NewAuthHandler(svc.Auth, cfg)
	activationHandler := handlers.NewActivationHandler(svc.Activation)
	rankingHandler := handlers.NewRankingHandler(svc.Ranking)
	salesHandler := handlers.NewSalesHandler(svc.Sales)
	withdrawalHandler := handlers.NewWithdrawalHandler(svc.Withdrawal)
	codeHandler := handlers.NewCodeHandler(svc.Codes)

	// Health check & root routes
	app.Get("/", healthHandler.Root)
	app.Get("/health", healthHandler.HealthCheck)

	// Swagger documentation
	app.Get("/swagger/*", swagger.HandlerDefault)

	// API v1 group
	apiV1 := app.Group("/api/v1")
	apiV1.Get("/", healthHandler.APIInfo)

	authMiddleware := middleware.AuthMiddleware(cfg)

	// ============================================================
	// Auth routes
	// ============================================================
	authRoutes := apiV1.Group("/auth")
	authRoutes.Post("/login", middleware.RateLimit(loginLimiter), authHandler.Login)
	authRoutes.Post("/refresh", authHandler.RefreshToken)
	authRoutes.Post("/logout", authHandler.Logout)
	authRoutes.Post("/logout-all", authMiddleware, authHandler.LogoutAll)
	authRoutes.Get("/me", authMiddleware, middleware.NoCacheHeaders(), authHandler.Me)

	// ============================================================
	// Affiliate routes
	// ============================================================
	affiliates := apiV1.Group("/affiliates")
	affiliates.Post("/activate", middleware.RateLimit(activateLimiter), activationHandler.Activate)
	affiliates.Get("/ranking", middleware.PublicCache(rankingMaxAge), rankingHandler.Ranking)
	affiliates.Get("/sales", authMiddleware, middleware.NoCacheHeaders(), salesHandler.Sales)
	affiliates.Get("/withdraw", authMiddleware, middleware.NoCacheHeaders(), withdrawalHandler.Overview)
	affiliates.Post("/withdraw", authMiddleware, withdrawalHandler.Request)

	// ============================================================
	// Code routes
	// ============================================================
	codes := apiV1.Group("/codes")
	codes.Post("/validate", middleware.RateLimit(validateLimiter), codeHandler.Validate)

	return svc
}
