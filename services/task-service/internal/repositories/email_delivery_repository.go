package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/genzone/backend/services/task-service/internal/models"
)

type emailDeliveryRepository struct {
	db *sql.DB
}

// NewEmailDeliveryRepository creates a new email delivery repository
func NewEmailDeliveryRepository(db *sql.DB) *emailDeliveryRepository {
	return &emailDeliveryRepository{db: db}
}

// Create records a delivery attempt
func (r *emailDeliveryRepository) Create(ctx context.Context, delivery *models.EmailDelivery) error {
	query := `
		INSERT INTO email_deliveries (template_slug, recipient, status, error)
		VALUES (?, ?, ?, ?)
	`

	var errorMessage sql.NullString
	if delivery.Error != "" {
		errorMessage = sql.NullString{String: delivery.Error, Valid: true}
	}

	result, err := r.db.ExecContext(ctx, query, delivery.TemplateSlug, delivery.Recipient, delivery.Status, errorMessage)
	if err != nil {
		return fmt.Errorf("failed to create email delivery: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	delivery.ID = int(id)
	return nil
}
