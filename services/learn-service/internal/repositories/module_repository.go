package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/genzone/backend/libs/apperrors"
	"github.com/genzone/backend/services/learn-service/internal/models"
)

type moduleRepository struct {
	db *sql.DB
}

// NewModuleRepository creates a new module repository
func NewModuleRepository(db *sql.DB) *moduleRepository {
	return &moduleRepository{
		db: db,
	}
}

// Get retrieves the module numbered num of a course
func (r *moduleRepository) Get(ctx context.Context, courseID, num int) (*models.Module, error) {
	query := `
		SELECT id, course_id, module_num, title, description
		FROM modules
		WHERE course_id = ? AND module_num = ?
	`

	var module models.Module
	err := r.db.QueryRowContext(ctx, query, courseID, num).Scan(
		&module.ID,
		&module.CourseID,
		&module.ModuleNum,
		&module.Title,
		&module.Description,
	)
	if err == sql.ErrNoRows {
		return nil, apperrors.NotFound("module not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get module: %w", err)
	}

	return &module, nil
}

// Create appends a module to its course and fills in its id and number
func (r *moduleRepository) Create(ctx context.Context, module *models.Module) error {
	id, num, err := moduleLevel.insertNumbered(ctx, r.db, module.CourseID, moduleLevel.nextNum,
		func(tx *sql.Tx, num int) (sql.Result, error) {
			return tx.ExecContext(ctx,
				"INSERT INTO modules (course_id, module_num, title, description) VALUES (?, ?, ?, ?)",
				module.CourseID, num, module.Title, module.Description,
			)
		})
	if err != nil {
		return err
	}

	module.ID, module.ModuleNum = id, num
	return nil
}

// Update updates a module (partial update)
func (r *moduleRepository) Update(ctx context.Context, id int, req *models.ModuleRequest) error {
	var setParts []string
	var args []any

	if req.Title != nil {
		setParts = append(setParts, "title = ?")
		args = append(args, *req.Title)
	}
	if req.Description != nil {
		setParts = append(setParts, "description = ?")
		args = append(args, *req.Description)
	}

	return updateFields(ctx, r.db, "modules", "module", id, setParts, args)
}

// Delete removes the module with the given ID with everything below it and renumbers the rest
func (r *moduleRepository) Delete(ctx context.Context, courseID, id int) error {
	return moduleLevel.deleteAndShift(ctx, r.db, courseID, id)
}
