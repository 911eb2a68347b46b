package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/genzone/backend/libs/apperrors"
	"github.com/genzone/backend/services/task-service/internal/models"
)

type emailTemplateRepository struct {
	db *sql.DB
}

// NewEmailTemplateRepository creates a new email template repository
func NewEmailTemplateRepository(db *sql.DB) *emailTemplateRepository {
	return &emailTemplateRepository{db: db}
}

// GetBySlug retrieves an email template by its slug
func (r *emailTemplateRepository) GetBySlug(ctx context.Context, slug string) (*models.EmailTemplate, error) {
	query := `
		SELECT id, slug, subject_template, body_template, created_at, updated_at
		FROM email_templates
		WHERE slug = ?
		LIMIT 1
	`

	template := &models.EmailTemplate{}
	err := r.db.QueryRowContext(ctx, query, slug).Scan(
		&template.ID,
		&template.Slug,
		&template.SubjectTemplate,
		&template.BodyTemplate,
		&template.CreatedAt,
		&template.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, apperrors.NotFound("email template not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get email template by slug: %w", err)
	}

	return template, nil
}
