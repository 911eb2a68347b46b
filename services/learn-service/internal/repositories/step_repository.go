package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/genzone/backend/libs/apperrors"
	"github.com/genzone/backend/services/learn-service/internal/models"
)

type stepRepository struct {
	db *sql.DB
}

// NewStepRepository creates a new step repository
func NewStepRepository(db *sql.DB) *stepRepository {
	return &stepRepository{
		db: db,
	}
}

// Get retrieves a step by its path. Contents are not loaded.
func (r *stepRepository) Get(ctx context.Context, path models.Path) (*models.Step, error) {
	query := `
		SELECT s.id, s.lesson_id, m.course_id, s.step_num
		FROM steps s
		JOIN lessons l ON l.id = s.lesson_id
		JOIN modules m ON m.id = l.module_id
		WHERE m.course_id = ? AND m.module_num = ? AND l.lesson_num = ? AND s.step_num = ?
	`

	var step models.Step
	err := r.db.QueryRowContext(ctx, query, path.CourseID, path.ModuleNum, path.LessonNum, path.StepNum).Scan(
		&step.ID,
		&step.LessonID,
		&step.CourseID,
		&step.StepNum,
	)
	if err == sql.ErrNoRows {
		return nil, apperrors.NotFound("step not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get step: %w", err)
	}

	return &step, nil
}

// ListByLesson retrieves a page of a lesson's steps ordered by number and the total count
func (r *stepRepository) ListByLesson(ctx context.Context, lessonID, offset, limit int) ([]models.Step, int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM steps WHERE lesson_id = ?", lessonID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count steps: %w", err)
	}

	query := `
		SELECT id, lesson_id, step_num
		FROM steps
		WHERE lesson_id = ?
		ORDER BY step_num
		LIMIT ? OFFSET ?
	`

	rows, err := r.db.QueryContext(ctx, query, lessonID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query steps: %w", err)
	}
	defer rows.Close()

	var steps []models.Step
	for rows.Next() {
		var step models.Step
		if err := rows.Scan(&step.ID, &step.LessonID, &step.StepNum); err != nil {
			return nil, 0, fmt.Errorf("failed to scan step: %w", err)
		}
		steps = append(steps, step)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating rows: %w", err)
	}

	return steps, total, nil
}

// Create appends a step to its lesson and fills in its id and number
func (r *stepRepository) Create(ctx context.Context, step *models.Step) error {
	id, num, err := stepLevel.insertNumbered(ctx, r.db, step.LessonID, stepLevel.nextNum,
		func(tx *sql.Tx, num int) (sql.Result, error) {
			return tx.ExecContext(ctx, "INSERT INTO steps (lesson_id, step_num) VALUES (?, ?)", step.LessonID, num)
		})
	if err != nil {
		return err
	}

	step.ID, step.StepNum = id, num
	return nil
}

// Delete removes the step with the given ID with its contents and renumbers the rest
func (r *stepRepository) Delete(ctx context.Context, lessonID, id int) error {
	return stepLevel.deleteAndShift(ctx, r.db, lessonID, id)
}
