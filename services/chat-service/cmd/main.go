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
	_ "github.com/genzone/backend/services/chat-service/docs"
	"github.com/genzone/backend/services/chat-service/internal/events"
	"github.com/genzone/backend/services/chat-service/internal/gateway"
	"github.com/genzone/backend/services/chat-service/internal/handlers"
	"github.com/genzone/backend/services/chat-service/internal/repositories"
	"github.com/genzone/backend/services/chat-service/internal/services"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.uber.org/zap"
)

// @title GenZone Chat API
// @version 1.0
// @description Direct conversations, message log and live events

// @host localhost:8083
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

	logger.Logger.Info("Starting GenZone Chat Service")

	// Connect to database
	db, err := database.Connect(cfg.DSN())
	if err != nil {
		logger.Logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	// Run migrations
	if err := database.RunMigrations(db, cfg.MigrationsPath, "chat_schema_migrations"); err != nil {
		logger.Logger.Fatal("Failed to run migrations", zap.Error(err))
	}

	// Redis carries chat events between instances
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer rdb.Close()

	pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		logger.Logger.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	pingCancel()

	broker := events.NewRedisBroker(rdb)

	// Tokens are issued by the auth service, this service only validates them
	tokenGenerator := service.NewTokenGenerator(
		cfg.JWT.Secret,
		cfg.JWT.AccessTokenExpiry,
		cfg.JWT.RefreshTokenExpiry,
		cfg.JWT.VerificationTokenExpiry,
	)

	// Initialize repositories
	conversationRepo := repositories.NewConversationRepository(db)
	messageRepo := repositories.NewMessageRepository(db)
	userRepo := repositories.NewUserRepository(db)

	// Initialize services
	chatService := services.NewChatService(conversationRepo, messageRepo, userRepo, broker, logger.Logger)

	// Initialize handlers
	limits := pagination.Limits{Default: cfg.Pagination.DefaultPageSize, Max: cfg.Pagination.MaxPageSize}
	chatHandler := handlers.NewChatHandler(chatService, logger.Logger, limits)
	wsGateway := gateway.NewGateway(tokenGenerator, broker, chatService, logger.Logger, cfg.CORS.AllowedOrigins)

	authMiddleware := middleware.AuthMiddleware(tokenGenerator)

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
		chatHandler.RegisterRoutes(r, authMiddleware)
		wsGateway.RegisterRoutes(r)
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

	// Shutdown does not wait for hijacked WebSocket connections, they end when the process exits
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Logger.Info("Server exited")
}
