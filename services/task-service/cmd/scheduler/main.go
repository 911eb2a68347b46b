package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/genzone/backend/libs/config"
	"github.com/genzone/backend/libs/logger"
	"github.com/genzone/backend/libs/tasks"
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

	logger.Logger.Info("Starting Task Service Scheduler")

	// Create Asynq client
	asynqClient := asynq.NewClient(asynq.RedisClientOpt{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer asynqClient.Close()

	// Create scheduler instance
	scheduler := NewScheduler(tasks.NewEnqueuer(asynqClient), logger.Logger, time.Hour)
	jobs := MaintenanceJobs(cfg.AuthServiceBaseURL, cfg.Schedule.TokenCleanup, cfg.Schedule.UnverifiedPurge)
	if err := scheduler.Add(jobs...); err != nil {
		logger.Logger.Fatal("Failed to schedule maintenance jobs", zap.Error(err))
	}

	// Start scheduler
	scheduler.Start()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Logger.Info("Shutting down scheduler...")
	scheduler.Stop()
	logger.Logger.Info("Scheduler exited")
}
