package routes

import (
	"time"

	"cif-onboarding/internal/adapters/http/handlers"
	"cif-onboarding/internal/adapters/http/middleware"
	"cif-onboarding/internal/adapters/persistence/repositories"
	"cif-onboarding/internal/config"
	"cif-onboarding/internal/core/services"
	"cif-onboarding/internal/pkg/jwt"
	"cif-onboarding/internal/pkg/metrics"
	"cif-onboarding/internal/pkg/txguard"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"
)

// Dependencies are the process-wide handles the routes are built from
type Dependencies struct {
	DB       *gorm.DB
	Pool     *txguard.Pool
	Config   *config.Config
	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer
}

// Setup configures all routes for the application
func Setup(app *fiber.App, deps Dependencies) {
	db, cfg := deps.DB, deps.Config

	// Initialize repositories
	onboardingRepo := repositories.NewOnboardingRepository(db)
	userRepo := repositories.NewAuthUserRepository(db)
	refreshTokenRepo := repositories.NewRefreshTokenRepository(db)
	optionRepo := repositories.NewOptionRepository(db)

	tokens := jwt.NewManager(TokenConfig(cfg))
	notifier := services.NewNotificationService(cfg.Notify.LineToken)

	// Initialize services
	authService := services.NewAuthService(deps.Pool, onboardingRepo, userRepo, refreshTokenRepo, tokens, notifier, cfg)
	onboardingService := services.NewOnboardingService(deps.Pool, onboardingRepo, services.OnboardingOptions{
		TxTimeout: cfg.Database.TxTimeout,
		Metrics:   deps.Metrics,
		Notifier:  notifier,
	})
	optionService := services.NewOptionService(optionRepo)
	adminService := services.NewAdminService(deps.Pool, onboardingRepo, notifier, cfg.Database.TxTimeout)
	dashboardService := services.NewDashboardService(onboardingRepo)
	userService := services.NewUserService(deps.Pool, userRepo, refreshTokenRepo)

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler(deps.Pool, cfg.AppMode)
	authHandler := handlers.NewAuthHandler(authService, cfg)
	onboardingHandler := handlers.NewOnboardingHandler(onboardingService)
	masterHandler := handlers.NewMasterHandler(optionService)
	adminHandler := handlers.NewAdminHandler(adminService)
	dashboardHandler := handlers.NewDashboardHandler(dashboardService)
	userHandler := handlers.NewUserHandler(userService)

	// Health check & root routes
	app.Get("/", healthHandler.Root)
	app.Get("/health", healthHandler.HealthCheck)

	if deps.Gatherer != nil {
		app.Get("/metrics", middleware.Metrics(deps.Gatherer))
	}

	// Swagger documentation
	app.Get("/swagger/*", swagger.HandlerDefault)

	// API v1 group
	apiV1 := app.Group("/api/v1")
	apiV1.Get("/", healthHandler.APIInfo)

	auth := middleware.AuthMiddleware(tokens)

	// Auth routes
	authRoutes := apiV1.Group("/auth", middleware.NoCacheHeaders())
	setupAuthRoutes(authRoutes, authHandler, auth)

	// Onboarding steps (applicants)
	onboardingRoutes := apiV1.Group("/onboarding", middleware.NoCacheHeaders(), auth, middleware.ApplicantOnly())
	setupOnboardingRoutes(onboardingRoutes, onboardingHandler)

	// Profile (any signed-in account)
	profileRoutes := apiV1.Group("/profile", middleware.NoCacheHeaders(), auth)
	profileRoutes.Put("/password", middleware.StrictRateLimiter(), userHandler.ChangePassword)

	// Reference options (public)
	apiV1.Get("/option/:category", middleware.MasterDataCache(), masterHandler.ListOptions)

	// Back office (Officer/Admin)
	adminRoutes := apiV1.Group("/admin", middleware.NoCacheHeaders(), auth, middleware.OfficerOrAdmin())
	setupAdminRoutes(adminRoutes, adminHandler, dashboardHandler)

	// Account management (Admin only)
	userRoutes := adminRoutes.Group("/users", middleware.AdminOnly())
	setupUserRoutes(userRoutes, userHandler)
}

// TokenConfig maps the JWT settings onto the token manager
func TokenConfig(cfg *config.Config) jwt.Config {
	return jwt.Config{
		Secret:        cfg.JWT.Secret,
		RefreshSecret: cfg.JWT.RefreshSecret,
		AccessExpiry:  time.Duration(cfg.JWT.AccessTokenMins) * time.Minute,
		RefreshExpiry: time.Duration(cfg.JWT.RefreshTokenDays) * 24 * time.Hour,
		Issuer:        cfg.JWT.Issuer,
	}
}

// setupAuthRoutes configures authentication routes
func setupAuthRoutes(router fiber.Router, handler *handlers.AuthHandler, auth fiber.Handler) {
	// Public routes
	router.Post("/register", middleware.AuthRateLimiter(), handler.Register)
	router.Post("/login", middleware.AuthRateLimiter(), handler.Login)
	router.Post("/activate", middleware.AuthRateLimiter(), handler.Activate)
	router.Post("/refresh", handler.RefreshToken)
	router.Post("/logout", handler.Logout)
	router.Post("/forgot-password", middleware.StrictRateLimiter(), handler.ForgotPassword)
	router.Post("/reset-password", middleware.StrictRateLimiter(), handler.ResetPassword)

	// Protected routes
	router.Get("/session", auth, handler.Session)
	router.Post("/logout-all", auth, handler.LogoutAll)
}

// setupOnboardingRoutes configures the stage-gated steps
func setupOnboardingRoutes(router fiber.Router, handler *handlers.OnboardingHandler) {
	router.Get("/progress", handler.GetProgress)
	router.Post("/personal-data", handler.SavePersonalData)
	router.Post("/beneficiary-owner", handler.SaveBeneficiaryOwner)
	router.Post("/bank-data", handler.SaveBankData)
	router.Post("/employment-data", handler.SaveEmploymentData)
	router.Post("/supporting-data", handler.SaveSupportingData)
}

// setupAdminRoutes configures back-office routes
func setupAdminRoutes(router fiber.Router, admin *handlers.AdminHandler, dashboard *handlers.DashboardHandler) {
	router.Get("/dashboard", dashboard.GetDashboard)

	router.Get("/onboarding", admin.ListApplications)
	router.Get("/onboarding/:id", admin.GetApplication)
	router.Post("/onboarding/:id/reject", admin.RejectApplication)
	router.Post("/onboarding/:id/revise", admin.RequestRevision)
}

// setupUserRoutes configures account management routes
func setupUserRoutes(router fiber.Router, handler *handlers.UserHandler) {
	router.Get("/", handler.ListUsers)
	router.Post("/", handler.CreateStaff)
	router.Get("/:id", handler.GetUser)
	router.Put("/:id/role", handler.SetUserRole)
	router.Put("/:id/login", handler.SetLoginDisabled)
}
