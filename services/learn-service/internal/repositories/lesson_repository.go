package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/genzone/backend/libs/apperrors"
	"github.com/genzone/backend/services/learn-service/internal/models"
)

type lessonRepository struct {
	db *sql.DB
}

// NewLessonRepository creates a new lesson repository
func NewLessonRepository(db *sql.DB) *lessonRepository {
	return &lessonRepository{
		db: db,
	}
}

// Get retrieves a lesson by its path
func (r *lessonRepository) Get(ctx context.Context, courseID, moduleNum, lessonNum int) (*models.Lesson, error) {
	query := `
		SELECT l.id, l.module_id, m.course_id, m.module_num, l.lesson_num, l.title, l.description
		FROM lessons l
		JOIN modules m ON m.id = l.module_id
		WHERE m.course_id = ? AND m.module_num = ? AND l.lesson_num = ?
	`

	var lesson models.Lesson
	err := r.db.QueryRowContext(ctx, query, courseID, moduleNum, lessonNum).Scan(
		&lesson.ID,
		&lesson.ModuleID,
		&lesson.CourseID,
		&lesson.ModuleNum,
		&lesson.LessonNum,
		&lesson.Title,
		&lesson.Description,
	)
	if err == sql.ErrNoRows {
		return nil, apperrors.NotFound("lesson not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get lesson: %w", err)
	}

	return &lesson, nil
}

// ListOutline retrieves the lessons of a module ordered by number
func (r *lessonRepository) ListOutline(ctx context.Context, moduleID int) ([]models.LessonOutline, error) {
	query := `
		SELECT lesson_num, title, description
		FROM lessons
		WHERE module_id = ?
		ORDER BY lesson_num
	`

	rows, err := r.db.QueryContext(ctx, query, moduleID)
	if err != nil {
		return nil, fmt.Errorf("failed to query lessons: %w", err)
	}
	defer rows.Close()

	lessons := []models.LessonOutline{}
	for rows.Next() {
		var lesson models.LessonOutline
		if err := rows.Scan(&lesson.LessonNum, &lesson.Title, &lesson.Description); err != nil {
			return nil, fmt.Errorf("failed to scan lesson: %w", err)
		}
		lessons = append(lessons, lesson)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return lessons, nil
}

// Create appends a lesson to its module and fills in its id and number
func (r *lessonRepository) Create(ctx context.Context, lesson *models.Lesson) error {
	id, num, err := lessonLevel.insertNumbered(ctx, r.db, lesson.ModuleID, lessonLevel.nextNum,
		func(tx *sql.Tx, num int) (sql.Result, error) {
			return tx.ExecContext(ctx,
				"INSERT INTO lessons (module_id, lesson_num, title, description) VALUES (?, ?, ?, ?)",
				lesson.ModuleID, num, lesson.Title, lesson.Description,
			)
		})
	if err != nil {
		return err
	}

	lesson.ID, lesson.LessonNum = id, num
	return nil
}

// Update updates a lesson (partial update)
func (r *lessonRepository) Update(ctx context.Context, id int, req *models.LessonRequest) error {
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

	return updateFields(ctx, r.db, "lessons", "lesson", id, setParts, args)
}

// Delete removes the lesson with the given ID with its steps and contents and renumbers the rest
func (r *lessonRepository) Delete(ctx context.Context, moduleID, id int) error {
	return lessonLevel.deleteAndShift(ctx, r.db, moduleID, id)
}
