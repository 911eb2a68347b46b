package main

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/genzone/backend/libs/tasks"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// MaintenanceEnqueuer hands maintenance jobs to the queue
type MaintenanceEnqueuer interface {
	EnqueueMaintenance(ctx context.Context, p tasks.MaintenancePayload, uniqueFor time.Duration) error
}

// Job is a maintenance call fired on a cron schedule
type Job struct {
	Spec    string
	Payload tasks.MaintenancePayload
}

// MaintenanceJobs returns the auth-service cleanup jobs for the given schedules
func MaintenanceJobs(authBaseURL, tokenCleanup, unverifiedPurge string) []Job {
	base := strings.TrimRight(authBaseURL, "/") + "/api/v1/maintenance"
	return []Job{
		{
			Spec:    tokenCleanup,
			Payload: tasks.MaintenancePayload{Job: "token-cleanup", Method: http.MethodDelete, URL: base + "/tokens"},
		},
		{
			Spec:    unverifiedPurge,
			Payload: tasks.MaintenancePayload{Job: "unverified-purge", Method: http.MethodDelete, URL: base + "/unverified"},
		},
	}
}

// Scheduler enqueues maintenance jobs on their cron schedules
type Scheduler struct {
	cron      *cron.Cron
	enqueuer  MaintenanceEnqueuer
	logger    *zap.Logger
	uniqueFor time.Duration
}

// NewScheduler creates a new scheduler instance.
// uniqueFor keeps a slow job from piling up duplicates in the queue.
func NewScheduler(enqueuer MaintenanceEnqueuer, logger *zap.Logger, uniqueFor time.Duration) *Scheduler {
	return &Scheduler{
		cron:      cron.New(),
		enqueuer:  enqueuer,
		logger:    logger,
		uniqueFor: uniqueFor,
	}
}

// Add registers jobs. An invalid cron spec fails the whole call.
func (s *Scheduler) Add(jobs ...Job) error {
	for _, job := range jobs {
		if _, err := s.cron.AddFunc(job.Spec, s.enqueueFunc(job.Payload)); err != nil {
			return fmt.Errorf("invalid schedule %q for %s: %w", job.Spec, job.Payload.Job, err)
		}
		s.logger.Info("Scheduled maintenance job", zap.String("job", job.Payload.Job), zap.String("spec", job.Spec))
	}
	return nil
}

func (s *Scheduler) enqueueFunc(p tasks.MaintenancePayload) func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := s.enqueuer.EnqueueMaintenance(ctx, p, s.uniqueFor); err != nil {
			s.logger.Error("Failed to enqueue maintenance job", zap.String("job", p.Job), zap.Error(err))
			return
		}
		s.logger.Info("Enqueued maintenance job", zap.String("job", p.Job))
	}
}

// Start starts the scheduler
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("Scheduler started")
}

// Stop stops the scheduler and waits for running enqueues to finish
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info("Scheduler stopped")
}
