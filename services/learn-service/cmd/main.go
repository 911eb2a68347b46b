package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/genzone/backend/libs/auth/middleware"
	"github.com/genzone/backend/libs/auth/service"
	"github.com/genzone/backend/libs/config"
	"github.com/genzone/backend/libs/database"
	"github.com/genzone/backend/libs/logger"
	loggerMiddleware "github.com/genzone/backend/libs/logger/middleware"
	sharedMiddleware "github.com/genzone/backend/libs/middlewares"
	"github.com/genzone/backend/libs/pagination"
	_ "github.com/genzone/backend/services/learn-service/docs"
	"github.com/genzone/backend/services/learn-service/internal/handlers"
	"github.com/genzone/backend/services/learn-service/internal/policy"
	"github.com/genzone/backend/services/learn-service/internal/repositories"
	"github.com/genzone/backend/services/learn-service/internal/services"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.uber.org/zap"
)

// @title GenZone Learn API
// @version 1.0
// @description Course catalog, course content tree and memberships

// @host localhost:8082
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v\n", err)
	}

	// Initialize logger
	if err := logger.Init(cfg.Logging.Level); err != nil {
		log.Fatalf("Failed to initialize logger: %v\n", err)
	}
	defer logger.Sync()

	logger.Logger.Info("Starting GenZone Learn Service")

	// Connect to database
	db, err := database.Connect(cfg.DSN())
	if err != nil {
		logger.Logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	// Run migrations
	if err := database.RunMigrations(db, cfg.MigrationsPath, "learn_schema_migrations"); err != nil {
		logger.Logger.Fatal("Failed to run migrations", zap.Error(err))
	}

	// Tokens are issued by the auth service, this service only validates them
	tokenGenerator := service.NewTokenGenerator(
		cfg.JWT.Secret,
		cfg.JWT.AccessTokenExpiry,
		cfg.JWT.RefreshTokenExpiry,
		cfg.JWT.VerificationTokenExpiry,
	)

	// Initialize repositories
	courseRepo := repositories.NewCourseRepository(db)
	moduleRepo := repositories.NewModuleRepository(db)
	lessonRepo := repositories.NewLessonRepository(db)
	stepRepo := repositories.NewStepRepository(db)
	contentRepo := repositories.NewContentRepository(db)
	membershipRepo := repositories.NewMembershipRepository(db)

	// Initialize services
	accessPolicy := policy.New(courseRepo, membershipRepo)
	courseService := services.NewCourseService(courseRepo, accessPolicy)
	treeService := services.NewTreeService(courseRepo, moduleRepo, lessonRepo, stepRepo, contentRepo, accessPolicy)
	membershipService := services.NewMembershipService(courseRepo, membershipRepo)

	// Initialize handlers
	limits := pagination.Limits{Default: cfg.Pagination.DefaultPageSize, Max: cfg.Pagination.MaxPageSize}
	stepLimits := pagination.Limits{Default: cfg.Pagination.StepPageSize, Max: cfg.Pagination.StepMaxPageSize}
	courseHandler := handlers.NewCourseHandler(courseService, logger.Logger, limits)
	treeHandler := handlers.NewTreeHandler(treeService, logger.Logger, stepLimits)
	membershipHandler := handlers.NewMembershipHandler(membershipService, logger.Logger, limits)

	// Initialize auth middleware
	authMiddleware := middleware.AuthMiddleware(tokenGenerator)
	optionalAuthMiddleware := middleware.OptionalAuthMiddleware(tokenGenerator)

	// Setup router
	r := chi.NewRouter()

	// Apply middleware
	r.Use(sharedMiddleware.RequestIDMiddleware)
	r.Use(loggerMiddleware.LoggerMiddleware(logger.Logger))
	r.Use(sharedMiddleware.RecoveryMiddleware(logger.Logger))
	r.Use(sharedMiddleware.MetricsMiddleware)
	r.Use(sharedMiddleware.CORSMiddleware(cfg.CORS.AllowedOrigins))
	r.Use(httprate.LimitByIP(100, time.Minute))
	r.Use(sharedMiddleware.RequestSizeLimitMiddleware(10 * 1024 * 1024)) // 10MB

	// Swagger documentation
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL(fmt.Sprintf("http://localhost:%d/swagger/doc.json", cfg.Server.Port)),
	))
	r.Handle("/metrics", promhttp.Handler())

	// Scope router to /api/v1
	r.Route("/api/v1", func(r chi.Router) {
		courseHandler.RegisterRoutes(r, authMiddleware, optionalAuthMiddleware)
		membershipHandler.RegisterRoutes(r, authMiddleware)
		treeHandler.RegisterRoutes(r, authMiddleware)
	})

	// Start server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Logger.Info("Server starting", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Logger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Logger.Info("Server exited")
}
