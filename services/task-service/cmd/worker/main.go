package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/genzone/backend/libs/config"
	"github.com/genzone/backend/libs/database"
	"github.com/genzone/backend/libs/logger"
	"github.com/genzone/backend/libs/tasks"
	"github.com/genzone/backend/services/task-service/internal/repositories"
	"github.com/genzone/backend/services/task-service/internal/services"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

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

	logger.Logger.Info("Starting Task Service Worker")

	// Connect to database
	db, err := database.Connect(cfg.DSN())
	if err != nil {
		logger.Logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	// Run migrations
	if err := database.RunMigrations(db, cfg.MigrationsPath, "task_schema_migrations"); err != nil {
		logger.Logger.Fatal("Failed to run migrations", zap.Error(err))
	}

	// Initialize repositories
	emailTemplateRepo := repositories.NewEmailTemplateRepository(db)
	emailDeliveryRepo := repositories.NewEmailDeliveryRepository(db)

	// Initialize services
	sender := services.NewSMTPSender(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.Username, cfg.SMTP.Password, cfg.SMTP.From)
	emailService := services.NewEmailService(emailTemplateRepo, emailDeliveryRepo, sender, logger.Logger)
	maintenanceService := services.NewMaintenanceService(nil, cfg.APIKey, logger.Logger)

	// Create Asynq server, concurrency bounds the pool of in-flight jobs
	srv := asynq.NewServer(
		asynq.RedisClientOpt{
			Addr:     cfg.Redis.Addr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		},
		asynq.Config{
			Concurrency: cfg.Worker.Concurrency,
			Queues: map[string]int{
				tasks.QueueImmediate: 5,
				tasks.QueueDefault:   1,
			},
			Logger: logger.Logger.Sugar(),
		},
	)

	// Register task handlers
	worker := NewWorker(logger.Logger, emailService, maintenanceService)
	mux := asynq.NewServeMux()
	worker.Register(mux)

	// Start worker
	if err := srv.Start(mux); err != nil {
		logger.Logger.Fatal("Failed to start worker", zap.Error(err))
	}

	logger.Logger.Info("Worker started", zap.Int("concurrency", cfg.Worker.Concurrency))

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Logger.Info("Shutting down worker...")
	srv.Shutdown()
	logger.Logger.Info("Worker exited")
}
