package main

import (
	"context"
	"fmt"

	"github.com/genzone/backend/libs/apperrors"
	"github.com/genzone/backend/libs/tasks"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// EmailDeliverer sends a templated email
type EmailDeliverer interface {
	Deliver(ctx context.Context, p tasks.EmailPayload) error
}

// MaintenanceCaller runs one maintenance call
type MaintenanceCaller interface {
	Call(ctx context.Context, p tasks.MaintenancePayload) error
}

// Worker handles task processing
type Worker struct {
	logger      *zap.Logger
	emails      EmailDeliverer
	maintenance MaintenanceCaller
}

// NewWorker creates a new worker instance
func NewWorker(logger *zap.Logger, emails EmailDeliverer, maintenance MaintenanceCaller) *Worker {
	return &Worker{
		logger:      logger,
		emails:      emails,
		maintenance: maintenance,
	}
}

// Register routes task types to their handlers
func (w *Worker) Register(mux *asynq.ServeMux) {
	mux.HandleFunc(tasks.TypeEmailDelivery, w.HandleEmailDelivery)
	mux.HandleFunc(tasks.TypeMaintenanceCall, w.HandleMaintenanceCall)
}

// HandleEmailDelivery renders and sends one email.
// Malformed payloads and unknown templates are not retried.
func (w *Worker) HandleEmailDelivery(ctx context.Context, t *asynq.Task) error {
	p, err := tasks.ParseEmailPayload(t)
	if err != nil {
		w.logger.Error("Dropping malformed email task", zap.Error(err))
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}

	if err := w.emails.Deliver(ctx, p); err != nil {
		if apperrors.Is(err, apperrors.KindNotFound) {
			w.logger.Error("Dropping email task with unknown template", zap.String("template", p.Template))
			return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
		}
		w.logger.Warn("Email delivery failed", zap.String("template", p.Template), zap.Error(err))
		return err
	}
	return nil
}

// HandleMaintenanceCall calls a service maintenance endpoint
func (w *Worker) HandleMaintenanceCall(ctx context.Context, t *asynq.Task) error {
	p, err := tasks.ParseMaintenancePayload(t)
	if err != nil {
		w.logger.Error("Dropping malformed maintenance task", zap.Error(err))
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}

	if err := w.maintenance.Call(ctx, p); err != nil {
		w.logger.Warn("Maintenance call failed", zap.String("job", p.Job), zap.Error(err))
		return err
	}
	return nil
}
