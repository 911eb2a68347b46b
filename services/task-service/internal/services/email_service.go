package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/genzone/backend/libs/apperrors"
	"github.com/genzone/backend/libs/tasks"
	"github.com/genzone/backend/services/task-service/internal/models"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

var emailDeliveriesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "email_deliveries_total",
		Help: "Total number of email delivery attempts by outcome",
	},
	[]string{"template", "status"},
)

// EmailTemplateRepository is the part of the template storage the worker needs
type EmailTemplateRepository interface {
	GetBySlug(ctx context.Context, slug string) (*models.EmailTemplate, error)
}

// EmailDeliveryRepository records delivery attempts
type EmailDeliveryRepository interface {
	Create(ctx context.Context, delivery *models.EmailDelivery) error
}

// Sender delivers a rendered message
type Sender interface {
	Send(to, subject, body string) error
}

// EmailService renders stored templates and sends them
type EmailService struct {
	templateRepo EmailTemplateRepository
	deliveryRepo EmailDeliveryRepository
	sender       Sender
	logger       *zap.Logger
}

// NewEmailService creates a new email service
func NewEmailService(templateRepo EmailTemplateRepository, deliveryRepo EmailDeliveryRepository, sender Sender, logger *zap.Logger) *EmailService {
	return &EmailService{
		templateRepo: templateRepo,
		deliveryRepo: deliveryRepo,
		sender:       sender,
		logger:       logger,
	}
}

// Deliver renders the payload's template and sends it to the recipient.
// Every attempt that reaches the sender is recorded, successful or not.
// A missing template is returned as a NotFound error so the caller can stop retrying.
func (s *EmailService) Deliver(ctx context.Context, p tasks.EmailPayload) error {
	template, err := s.templateRepo.GetBySlug(ctx, p.Template)
	if err != nil {
		if apperrors.Is(err, apperrors.KindNotFound) {
			emailDeliveriesTotal.WithLabelValues(p.Template, "unknown_template").Inc()
		}
		return err
	}

	recipient := strings.TrimSpace(p.To)
	subject := Render(template.SubjectTemplate, p.Vars)
	body := Render(template.BodyTemplate, p.Vars)

	delivery := &models.EmailDelivery{
		TemplateSlug: template.Slug,
		Recipient:    recipient,
		Status:       models.DeliveryStatusCompleted,
	}

	sendErr := s.sender.Send(recipient, subject, body)
	if sendErr != nil {
		delivery.Status = models.DeliveryStatusFailed
		delivery.Error = sendErr.Error()
	}
	emailDeliveriesTotal.WithLabelValues(template.Slug, string(delivery.Status)).Inc()

	if err := s.deliveryRepo.Create(ctx, delivery); err != nil {
		s.logger.Error("failed to record email delivery",
			zap.String("template", template.Slug),
			zap.String("status", string(delivery.Status)),
			zap.Error(err),
		)
	}

	if sendErr != nil {
		return fmt.Errorf("failed to deliver %s email: %w", template.Slug, sendErr)
	}

	s.logger.Info("email delivered", zap.String("template", template.Slug), zap.Int("delivery_id", delivery.ID))
	return nil
}

// Render replaces {{1}}, {{2}}, ... with the matching vars.
// Placeholders without a value are left as they are.
func Render(template string, vars []string) string {
	if len(vars) == 0 {
		return template
	}
	pairs := make([]string, 0, len(vars)*2)
	for i, v := range vars {
		pairs = append(pairs, fmt.Sprintf("{{%d}}", i+1), strings.TrimSpace(v))
	}
	return strings.NewReplacer(pairs...).Replace(template)
}
